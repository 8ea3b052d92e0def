package studio

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/milespries/script-studio-ai/internal/logging"
)

const maxErrorBodyBytes = 4096

// APIClient calls the script service over HTTP.
type APIClient struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

// NewAPIClient targets baseURL, for example http://localhost:8080. A nil
// httpClient uses a client without a timeout; generation can take a while.
func NewAPIClient(baseURL string, httpClient *http.Client, logger *zap.Logger) *APIClient {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &APIClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  httpClient,
		logger:  logging.OrNop(logger),
	}
}

// BaseURL returns the service root the client talks to.
func (c *APIClient) BaseURL() string { return c.baseURL }

type generatePayload struct {
	Prompt        string  `json:"prompt"`
	LengthMinutes float64 `json:"lengthMinutes"`
}

// Generate asks the service for a new script.
func (c *APIClient) Generate(ctx context.Context, prompt string, lengthMinutes float64) (string, error) {
	var out struct {
		Script string `json:"script"`
	}
	if err := c.post(ctx, "/api/generate", generatePayload{Prompt: prompt, LengthMinutes: lengthMinutes}, &out); err != nil {
		return "", err
	}
	return out.Script, nil
}

// EditRange asks the service for a replacement of req's range.
func (c *APIClient) EditRange(ctx context.Context, req EditRequest) (string, error) {
	var out struct {
		Replacement string `json:"replacement"`
	}
	if err := c.post(ctx, "/api/edit", req, &out); err != nil {
		return "", err
	}
	return out.Replacement, nil
}

// Health pings GET /health.
func (c *APIClient) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("reach script service: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return decodeAPIError(resp)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func (c *APIClient) post(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	started := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Warn("script service unreachable", zap.String("path", path), zap.Error(err))
		return fmt.Errorf("reach script service: %w", err)
	}
	defer resp.Body.Close()
	c.logger.Debug("script service call",
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.String("request_id", resp.Header.Get("X-Request-Id")),
		zap.Duration("duration", time.Since(started)),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeAPIError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
	var payload struct {
		Error string `json:"error"`
	}
	apiErr := &APIError{Status: resp.StatusCode}
	if err := json.Unmarshal(data, &payload); err == nil {
		apiErr.Message = strings.TrimSpace(payload.Error)
	}
	return apiErr
}
