package script

import (
	"context"
	"errors"
	"math"
	"net/http"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/milespries/script-studio-ai/internal/llm"
	"github.com/milespries/script-studio-ai/internal/textrange"
)

type fakeGateway struct {
	reply  string
	err    error
	calls  int
	system string
	user   string
}

func (f *fakeGateway) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	f.calls++
	f.system = systemPrompt
	f.user = userPrompt
	return f.reply, f.err
}

func (f *fakeGateway) Name() string { return "fake" }

func floatPtr(v float64) *float64 { return &v }

func strPtr(v string) *string { return &v }

func TestNormalizeLength(t *testing.T) {
	cases := []struct {
		name string
		in   *float64
		want float64
	}{
		{"missing", nil, 3},
		{"zero", floatPtr(0), 3},
		{"below range", floatPtr(0.5), 3},
		{"above range", floatPtr(5.01), 3},
		{"nan", floatPtr(math.NaN()), 3},
		{"lower bound", floatPtr(1), 1},
		{"upper bound", floatPtr(5), 5},
		{"fractional", floatPtr(4.5), 4.5},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := NormalizeLength(tc.in); got != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestGenerateUsesNormalizedLength(t *testing.T) {
	gateway := &fakeGateway{reply: "Coffee is older than you think."}
	svc := NewService(gateway, Options{})

	text, err := svc.Generate(context.Background(), GenerateRequest{Prompt: "coffee", LengthMinutes: floatPtr(0)})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if text != gateway.reply {
		t.Fatalf("expected model text, got %q", text)
	}
	if !strings.Contains(gateway.system, "about 3 minutes") {
		t.Fatalf("expected default length in system prompt, got %q", gateway.system)
	}
	if gateway.user != "coffee" {
		t.Fatalf("expected prompt forwarded, got %q", gateway.user)
	}

	if _, err := svc.Generate(context.Background(), GenerateRequest{Prompt: "coffee", LengthMinutes: floatPtr(4.5)}); err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if !strings.Contains(gateway.system, "about 4.5 minutes") {
		t.Fatalf("expected 4.5 minutes, got %q", gateway.system)
	}
}

func TestGenerateRejectsBlankPrompt(t *testing.T) {
	gateway := &fakeGateway{}
	svc := NewService(gateway, Options{})
	_, err := svc.Generate(context.Background(), GenerateRequest{Prompt: "  \n"})
	if !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected invalid argument, got %v", err)
	}
	if gateway.calls != 0 {
		t.Fatal("gateway should not be called")
	}
}

func TestGenerateUnconfigured(t *testing.T) {
	svc := NewService(nil, Options{})
	if svc.Configured() {
		t.Fatal("expected unconfigured service")
	}
	_, err := svc.Generate(context.Background(), GenerateRequest{Prompt: "coffee"})
	if !errors.Is(err, ErrServiceUnavailable) {
		t.Fatalf("expected service unavailable, got %v", err)
	}
	if StatusCode(err) != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", StatusCode(err))
	}
}

func TestGenerateUpstreamFailureHidesCause(t *testing.T) {
	cause := errors.New("dial tcp: secret-host refused")
	svc := NewService(&fakeGateway{err: cause}, Options{})
	_, err := svc.Generate(context.Background(), GenerateRequest{Prompt: "coffee"})
	if !errors.Is(err, ErrUpstreamFailure) || !errors.Is(err, cause) {
		t.Fatalf("expected wrapped upstream failure, got %v", err)
	}
	if msg := PublicMessage(err); strings.Contains(msg, "secret-host") {
		t.Fatalf("public message leaks cause: %q", msg)
	}
}

func TestGenerateRespectsTokenBudget(t *testing.T) {
	gateway := &fakeGateway{reply: "ok"}
	svc := NewService(gateway, Options{MaxPromptTokens: 5})
	_, err := svc.Generate(context.Background(), GenerateRequest{Prompt: strings.Repeat("coffee beans ", 50)})
	if !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected invalid argument, got %v", err)
	}
	if gateway.calls != 0 {
		t.Fatal("gateway should not be called over budget")
	}
}

func TestEditRangeReturnsReplacementOnly(t *testing.T) {
	gateway := &fakeGateway{reply: `{"replacement":"EARTH"}`}
	svc := NewService(gateway, Options{})

	script := "Hello world"
	got, err := svc.EditRange(context.Background(), EditRequest{
		Script: script, Start: 6, End: 11, SelectedText: strPtr("world"), Instruction: "uppercase",
	})
	if err != nil {
		t.Fatalf("EditRange() error = %v", err)
	}
	if got != "EARTH" {
		t.Fatalf("expected EARTH, got %q", got)
	}
	if !strings.Contains(gateway.user, "Hello <<<EDIT_START>>>world<<<EDIT_END>>>") {
		t.Fatalf("expected annotated script, got %q", gateway.user)
	}
	spliced, _ := textrange.Splice(script, textrange.Range{Start: 6, End: 11}, got)
	if spliced != "Hello EARTH" {
		t.Fatalf("expected Hello EARTH, got %q", spliced)
	}
}

func TestEditRangeRejectsBadRanges(t *testing.T) {
	cases := []struct {
		name       string
		start, end int
	}{
		{"end past length", 0, 12},
		{"negative start", -1, 3},
		{"empty", 4, 4},
		{"reversed", 5, 2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			gateway := &fakeGateway{reply: "x"}
			svc := NewService(gateway, Options{})
			_, err := svc.EditRange(context.Background(), EditRequest{Script: "Hello world", Start: tc.start, End: tc.end})
			if !errors.Is(err, ErrInvalidArgument) {
				t.Fatalf("expected invalid argument, got %v", err)
			}
			if StatusCode(err) != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", StatusCode(err))
			}
			if gateway.calls != 0 {
				t.Fatal("gateway should not be called")
			}
		})
	}
}

func TestEditRangeValidatesBeforeConfiguration(t *testing.T) {
	svc := NewService(nil, Options{})
	_, err := svc.EditRange(context.Background(), EditRequest{Script: "abc", Start: 0, End: 9})
	if !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected invalid argument before unavailable, got %v", err)
	}
	_, err = svc.EditRange(context.Background(), EditRequest{Script: "abc", Start: 0, End: 2})
	if !errors.Is(err, ErrServiceUnavailable) {
		t.Fatalf("expected service unavailable, got %v", err)
	}
}

func TestEditRangeDefaultsInstruction(t *testing.T) {
	gateway := &fakeGateway{reply: "better"}
	svc := NewService(gateway, Options{})
	if _, err := svc.EditRange(context.Background(), EditRequest{Script: "good text", Start: 0, End: 4, Instruction: "   "}); err != nil {
		t.Fatalf("EditRange() error = %v", err)
	}
	if !strings.Contains(gateway.user, "Instruction:\nImprove this text.") {
		t.Fatalf("expected default instruction, got %q", gateway.user)
	}
}

func TestEditRangeFallsBackToTrimmedReply(t *testing.T) {
	svc := NewService(&fakeGateway{reply: "\n  EARTH  \n"}, Options{})
	got, err := svc.EditRange(context.Background(), EditRequest{Script: "Hello world", Start: 6, End: 11})
	if err != nil {
		t.Fatalf("EditRange() error = %v", err)
	}
	if got != "EARTH" {
		t.Fatalf("expected trimmed raw reply, got %q", got)
	}
}

func TestEditRangeEmptyReplyKeepsSelection(t *testing.T) {
	for _, reply := range []string{"", "   ", llm.NoContent} {
		svc := NewService(&fakeGateway{reply: reply}, Options{})
		got, err := svc.EditRange(context.Background(), EditRequest{Script: "Hello world", Start: 6, End: 11})
		if err != nil {
			t.Fatalf("EditRange() error = %v", err)
		}
		if got != "world" {
			t.Fatalf("reply %q: expected original selection, got %q", reply, got)
		}
	}
}

func TestEditRangeEchoIsIdempotent(t *testing.T) {
	script := "naïve café owners"
	r := textrange.Range{Start: 6, End: 10}
	selected := textrange.Slice(script, r)
	svc := NewService(&fakeGateway{reply: `{"replacement":"` + selected + `"}`}, Options{})
	got, err := svc.EditRange(context.Background(), EditRequest{Script: script, Start: r.Start, End: r.End})
	if err != nil {
		t.Fatalf("EditRange() error = %v", err)
	}
	spliced, _ := textrange.Splice(script, r, got)
	if spliced != script {
		t.Fatalf("expected unchanged script, got %q", spliced)
	}
}

func TestEditRangeWarnsOnSelectedTextMismatch(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	svc := NewService(&fakeGateway{reply: `{"replacement":"EARTH"}`}, Options{Logger: zap.New(core)})

	got, err := svc.EditRange(context.Background(), EditRequest{
		Script: "Hello world", Start: 6, End: 11, SelectedText: strPtr("planet"),
	})
	if err != nil {
		t.Fatalf("EditRange() error = %v", err)
	}
	if got != "EARTH" {
		t.Fatalf("indices must stay authoritative, got %q", got)
	}
	if logs.FilterMessage("selected text does not match range").Len() != 1 {
		t.Fatalf("expected mismatch warning, got %v", logs.All())
	}
}

func TestEditRangeUpstreamFailure(t *testing.T) {
	svc := NewService(&fakeGateway{err: llm.ErrUpstreamUnavailable}, Options{})
	_, err := svc.EditRange(context.Background(), EditRequest{Script: "Hello world", Start: 0, End: 5})
	if !errors.Is(err, ErrUpstreamFailure) {
		t.Fatalf("expected upstream failure, got %v", err)
	}
	if PublicMessage(err) != "failed to edit selection" {
		t.Fatalf("unexpected public message %q", PublicMessage(err))
	}
}
