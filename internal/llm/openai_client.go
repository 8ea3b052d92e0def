package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"
)

type openAIClient struct {
	apiKey string
	model  string
	base   string
	client *http.Client
	logger *zap.Logger
}

func (c *openAIClient) Name() string {
	return fmt.Sprintf("OpenAI (%s)", c.model)
}

func (c *openAIClient) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	payload := map[string]any{
		"model":    c.model,
		"messages": chatMessages(systemPrompt, userPrompt),
	}
	body, err := postJSON(ctx, c.client, c.logger, c.base+"/chat/completions", map[string]string{
		"Authorization": "Bearer " + c.apiKey,
	}, payload)
	if err != nil {
		return "", err
	}

	var parsed struct {
		Choices []struct {
			Message struct {
				Content *string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		c.logger.Warn("openai response not decodable", zap.Error(err), zap.String("body", truncateBody(body)))
		return NoContent, nil
	}
	if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == nil {
		return NoContent, nil
	}
	return orNoContent(*parsed.Choices[0].Message.Content), nil
}
