package script

import (
	"errors"
	"testing"
)

func TestDecodeGenerateRequest(t *testing.T) {
	req, err := DecodeGenerateRequest([]byte(`{"prompt":"coffee","lengthMinutes":4.5}`))
	if err != nil {
		t.Fatalf("DecodeGenerateRequest() error = %v", err)
	}
	if req.Prompt != "coffee" {
		t.Fatalf("expected prompt coffee, got %q", req.Prompt)
	}
	if req.LengthMinutes == nil || *req.LengthMinutes != 4.5 {
		t.Fatalf("expected 4.5 minutes, got %v", req.LengthMinutes)
	}
}

func TestDecodeGenerateRequestDropsNonNumericLength(t *testing.T) {
	for _, body := range []string{
		`{"prompt":"x","lengthMinutes":"4"}`,
		`{"prompt":"x","lengthMinutes":null}`,
		`{"prompt":"x","lengthMinutes":true}`,
		`{"prompt":"x"}`,
	} {
		req, err := DecodeGenerateRequest([]byte(body))
		if err != nil {
			t.Fatalf("%s: unexpected error %v", body, err)
		}
		if req.LengthMinutes != nil {
			t.Fatalf("%s: expected no length, got %v", body, *req.LengthMinutes)
		}
	}
}

func TestDecodeGenerateRequestRejectsBadPrompt(t *testing.T) {
	for _, body := range []string{`{"prompt":42}`, `{}`, `[]`, ``, `{"prompt":`} {
		_, err := DecodeGenerateRequest([]byte(body))
		if !errors.Is(err, ErrInvalidArgument) {
			t.Fatalf("%q: expected invalid argument, got %v", body, err)
		}
	}
}

func TestDecodeEditRequest(t *testing.T) {
	req, err := DecodeEditRequest([]byte(`{"script":"Hello world","start":6,"end":11,"selectedText":"world","instruction":"shout"}`))
	if err != nil {
		t.Fatalf("DecodeEditRequest() error = %v", err)
	}
	if req.Script != "Hello world" || req.Start != 6 || req.End != 11 || req.Instruction != "shout" {
		t.Fatalf("unexpected request %+v", req)
	}
	if req.SelectedText == nil || *req.SelectedText != "world" {
		t.Fatalf("expected selected text, got %v", req.SelectedText)
	}
}

func TestDecodeEditRequestValidation(t *testing.T) {
	cases := []struct {
		name string
		body string
		msg  string
	}{
		{"missing script", `{"start":0,"end":1}`, "script is required and must be a string"},
		{"empty script", `{"script":"","start":0,"end":1}`, "script is required and must be a string"},
		{"numeric script", `{"script":7,"start":0,"end":1}`, "script is required and must be a string"},
		{"string start", `{"script":"abc","start":"0","end":1}`, "start and end must be integers"},
		{"fractional end", `{"script":"abc","start":0,"end":1.5}`, "start and end must be integers"},
		{"missing end", `{"script":"abc","start":0}`, "start and end must be integers"},
		{"not an object", `"abc"`, "request body must be a JSON object"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := DecodeEditRequest([]byte(tc.body))
			if !errors.Is(err, ErrInvalidArgument) {
				t.Fatalf("expected invalid argument, got %v", err)
			}
			if got := PublicMessage(err); got != tc.msg {
				t.Fatalf("expected message %q, got %q", tc.msg, got)
			}
		})
	}
}

func TestDecodeEditRequestIgnoresNonStringOptionals(t *testing.T) {
	req, err := DecodeEditRequest([]byte(`{"script":"abc","start":0,"end":1,"selectedText":5,"instruction":null}`))
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if req.SelectedText != nil || req.Instruction != "" {
		t.Fatalf("expected optional fields dropped, got %+v", req)
	}
}
