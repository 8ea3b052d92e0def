package script

import (
	"context"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/milespries/script-studio-ai/internal/llm"
	"github.com/milespries/script-studio-ai/internal/logging"
	"github.com/milespries/script-studio-ai/internal/textrange"
)

const (
	minLengthMinutes     = 1
	maxLengthMinutes     = 5
	defaultLengthMinutes = 3
)

// Options tune a Service.
type Options struct {
	Logger *zap.Logger
	// MaxPromptTokens rejects prompts whose estimated size exceeds it. Zero
	// disables the check.
	MaxPromptTokens int
}

// Service implements script generation and range-scoped rewrites on top of
// a gateway client. It keeps no state between requests.
type Service struct {
	gateway         llm.Client
	logger          *zap.Logger
	maxPromptTokens int
}

// NewService wraps gateway. A nil gateway yields a service that answers
// every valid request with ErrServiceUnavailable.
func NewService(gateway llm.Client, opts Options) *Service {
	return &Service{
		gateway:         gateway,
		logger:          logging.OrNop(opts.Logger),
		maxPromptTokens: opts.MaxPromptTokens,
	}
}

// Configured reports whether a gateway is available.
func (s *Service) Configured() bool {
	return s.gateway != nil
}

// NormalizeLength returns minutes when it is a number in [1,5] and the
// default of 3 otherwise. In-range values are not rounded.
func NormalizeLength(minutes *float64) float64 {
	if minutes == nil {
		return defaultLengthMinutes
	}
	v := *minutes
	if math.IsNaN(v) || math.IsInf(v, 0) || v < minLengthMinutes || v > maxLengthMinutes {
		return defaultLengthMinutes
	}
	return v
}

// Generate writes a script for req.Prompt sized to the normalized length.
func (s *Service) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return "", invalidArgument("prompt is required")
	}
	minutes := NormalizeLength(req.LengthMinutes)
	systemPrompt := generationSystemPrompt(minutes)
	tokens, err := s.checkBudget(systemPrompt, prompt)
	if err != nil {
		return "", err
	}
	if s.gateway == nil {
		return "", serviceUnavailable()
	}

	started := time.Now()
	text, err := s.gateway.Complete(ctx, systemPrompt, prompt)
	if err != nil {
		s.logger.Error("generate failed", zap.Error(err), zap.Duration("duration", time.Since(started)))
		return "", upstreamFailure("failed to generate script", err)
	}
	s.logger.Info("generated script",
		zap.Float64("length_minutes", minutes),
		zap.Int("prompt_tokens", tokens),
		zap.Int("script_runes", textrange.Len(text)),
		zap.Duration("duration", time.Since(started)),
	)
	return text, nil
}

// EditRange rewrites the runes [req.Start, req.End) of req.Script and
// returns only the replacement text. Indices are authoritative; a
// mismatching SelectedText is logged and otherwise ignored.
func (s *Service) EditRange(ctx context.Context, req EditRequest) (string, error) {
	if req.Script == "" {
		return "", invalidArgument("script is required")
	}
	r := textrange.Range{Start: req.Start, End: req.End}
	if err := textrange.Validate(req.Script, r); err != nil {
		return "", invalidArgument("invalid range: need 0 <= start < end <= script length")
	}

	before, selected, after := textrange.Split(req.Script, r)
	if req.SelectedText != nil && *req.SelectedText != selected {
		s.logger.Warn("selected text does not match range",
			zap.Int("start", r.Start),
			zap.Int("end", r.End),
			zap.Int("provided_runes", textrange.Len(*req.SelectedText)),
			zap.Int("range_runes", r.Len()),
		)
	}

	instruction := strings.TrimSpace(req.Instruction)
	if instruction == "" {
		instruction = defaultInstruction
	}
	userPrompt := buildEditUserPrompt(annotateScript(before, selected, after), selected, instruction)
	tokens, err := s.checkBudget(editSystemPrompt, userPrompt)
	if err != nil {
		return "", err
	}
	if s.gateway == nil {
		return "", serviceUnavailable()
	}

	started := time.Now()
	reply, err := s.gateway.Complete(ctx, editSystemPrompt, userPrompt)
	if err != nil {
		s.logger.Error("edit failed", zap.Error(err), zap.Stringer("range", r), zap.Duration("duration", time.Since(started)))
		return "", upstreamFailure("failed to edit selection", err)
	}

	replacement, source := parseReplacement(reply, selected)
	fields := []zap.Field{
		zap.Stringer("range", r),
		zap.String("reply_source", string(source)),
		zap.Int("prompt_tokens", tokens),
		zap.Int("replacement_runes", textrange.Len(replacement)),
		zap.Duration("duration", time.Since(started)),
	}
	if source == sourceJSON {
		s.logger.Info("edited range", fields...)
	} else {
		s.logger.Warn("edited range from unstructured reply", fields...)
	}
	return replacement, nil
}

func (s *Service) checkBudget(systemPrompt, userPrompt string) (int, error) {
	tokens := llm.EstimateTokensSimple(systemPrompt) + llm.EstimateTokensSimple(userPrompt)
	if s.maxPromptTokens > 0 && tokens > s.maxPromptTokens {
		return tokens, invalidArgument("script is too long for the configured model budget")
	}
	return tokens, nil
}
