package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"
)

type ollamaClient struct {
	host   string
	model  string
	client *http.Client
	logger *zap.Logger
}

func (c *ollamaClient) Name() string {
	return fmt.Sprintf("Ollama (%s)", c.model)
}

func (c *ollamaClient) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	payload := map[string]any{
		"model":    c.model,
		"messages": chatMessages(systemPrompt, userPrompt),
		"stream":   false,
	}
	body, err := postJSON(ctx, c.client, c.logger, c.host+"/api/chat", nil, payload)
	if err != nil {
		return "", err
	}

	var parsed struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		Done bool `json:"done"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		c.logger.Warn("ollama response not decodable", zap.Error(err), zap.String("body", truncateBody(body)))
		return NoContent, nil
	}
	return orNoContent(parsed.Message.Content), nil
}
