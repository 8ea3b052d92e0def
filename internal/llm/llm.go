package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/milespries/script-studio-ai/internal/logging"
)

// NoContent is returned by Complete when the provider answered successfully
// but carried no text, so callers always receive some text.
const NoContent = "No content returned from the model."

var (
	// ErrUpstreamUnavailable reports a transport failure or a non-success
	// provider status. The provider body is logged, never wrapped.
	ErrUpstreamUnavailable = errors.New("upstream model unavailable")
	// ErrNotConfigured reports missing provider credentials.
	ErrNotConfigured = errors.New("llm provider not configured")
)

const (
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"

	defaultOpenAIBaseURL = "https://api.openai.com/v1"
	defaultOpenAIModel   = "gpt-4o-mini"
	defaultOllamaHost    = "http://localhost:11434"
	defaultOllamaModel   = "llama3.1:8b"

	maxLoggedBodyBytes = 512
)

// Config describes how to build a gateway client.
type Config struct {
	Provider   string
	Model      string
	Endpoint   string
	APIKey     string
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// Client sends one system+user chat exchange to a language model.
type Client interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
	Name() string
}

// Message is one chat turn in provider wire format.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// New builds the client for cfg.Provider. It returns ErrNotConfigured when
// the provider needs credentials that are absent.
func New(cfg Config) (Client, error) {
	logger := logging.OrNop(cfg.Logger)
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", ProviderOpenAI:
		if strings.TrimSpace(cfg.APIKey) == "" {
			return nil, fmt.Errorf("%w: OPENAI_API_KEY is not set", ErrNotConfigured)
		}
		base := strings.TrimRight(cfg.Endpoint, "/")
		if base == "" {
			base = defaultOpenAIBaseURL
		}
		model := cfg.Model
		if model == "" {
			model = defaultOpenAIModel
		}
		return &openAIClient{
			apiKey: cfg.APIKey,
			model:  model,
			base:   base,
			client: pickHTTPClient(cfg.HTTPClient),
			logger: logger.With(zap.String("provider", ProviderOpenAI), zap.String("model", model)),
		}, nil
	case ProviderOllama:
		host := strings.TrimRight(cfg.Endpoint, "/")
		if host == "" {
			host = defaultOllamaHost
		}
		model := cfg.Model
		if model == "" {
			model = defaultOllamaModel
		}
		return &ollamaClient{
			host:   host,
			model:  model,
			client: pickHTTPClient(cfg.HTTPClient),
			logger: logger.With(zap.String("provider", ProviderOllama), zap.String("model", model)),
		}, nil
	default:
		return nil, fmt.Errorf("%w: unknown provider %q", ErrNotConfigured, cfg.Provider)
	}
}

func pickHTTPClient(custom *http.Client) *http.Client {
	if custom != nil {
		return custom
	}
	// Single-shot calls rely on the transport defaults and the caller's context.
	return &http.Client{}
}

func chatMessages(systemPrompt, userPrompt string) []Message {
	return []Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: userPrompt},
	}
}

// postJSON performs one request and returns the body of a 2xx response.
func postJSON(ctx context.Context, client *http.Client, logger *zap.Logger, endpoint string, headers map[string]string, payload any) ([]byte, error) {
	buf, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(buf))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	callID := uuid.NewString()
	started := time.Now()
	logger.Debug("llm request", zap.String("call_id", callID), zap.String("endpoint", endpoint), zap.Int("bytes", len(buf)))

	resp, err := client.Do(req)
	if err != nil {
		logger.Error("llm transport failed", zap.String("call_id", callID), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		logger.Error("llm read body failed", zap.String("call_id", callID), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		logger.Error("llm provider error",
			zap.String("call_id", callID),
			zap.Int("status", resp.StatusCode),
			zap.String("body", truncateBody(body)),
			zap.Duration("duration", time.Since(started)),
		)
		return nil, fmt.Errorf("%w: provider returned %s", ErrUpstreamUnavailable, resp.Status)
	}
	logger.Debug("llm response", zap.String("call_id", callID), zap.Int("status", resp.StatusCode), zap.Duration("duration", time.Since(started)))
	return body, nil
}

func truncateBody(body []byte) string {
	if len(body) <= maxLoggedBodyBytes {
		return string(body)
	}
	return string(body[:maxLoggedBodyBytes]) + "…"
}

func orNoContent(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return NoContent
	}
	return text
}
