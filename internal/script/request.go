package script

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"
)

// GenerateRequest is the validated input of Generate. A nil LengthMinutes
// means the caller sent no number.
type GenerateRequest struct {
	Prompt        string
	LengthMinutes *float64
}

// EditRequest is the input of EditRange. Offsets are rune indices into
// Script. SelectedText is diagnostic only.
type EditRequest struct {
	Script       string
	Start        int
	End          int
	SelectedText *string
	Instruction  string
}

type rawGenerateRequest struct {
	Prompt        json.RawMessage `json:"prompt"`
	LengthMinutes json.RawMessage `json:"lengthMinutes"`
}

type rawEditRequest struct {
	Script       json.RawMessage `json:"script"`
	Start        json.RawMessage `json:"start"`
	End          json.RawMessage `json:"end"`
	SelectedText json.RawMessage `json:"selectedText"`
	Instruction  json.RawMessage `json:"instruction"`
}

// DecodeGenerateRequest parses a loosely typed JSON body. A prompt that is
// not a JSON string is rejected; a lengthMinutes that is not a number is
// dropped and later defaulted.
func DecodeGenerateRequest(data []byte) (GenerateRequest, error) {
	var raw rawGenerateRequest
	if err := decodeObject(data, &raw); err != nil {
		return GenerateRequest{}, err
	}
	prompt, ok := jsonString(raw.Prompt)
	if !ok {
		return GenerateRequest{}, invalidArgument("prompt is required and must be a string")
	}
	req := GenerateRequest{Prompt: prompt}
	if minutes, ok := jsonNumber(raw.LengthMinutes); ok {
		req.LengthMinutes = &minutes
	}
	return req, nil
}

// DecodeEditRequest parses a loosely typed JSON edit body.
func DecodeEditRequest(data []byte) (EditRequest, error) {
	var raw rawEditRequest
	if err := decodeObject(data, &raw); err != nil {
		return EditRequest{}, err
	}
	script, ok := jsonString(raw.Script)
	if !ok || script == "" {
		return EditRequest{}, invalidArgument("script is required and must be a string")
	}
	start, okStart := jsonInt(raw.Start)
	end, okEnd := jsonInt(raw.End)
	if !okStart || !okEnd {
		return EditRequest{}, invalidArgument("start and end must be integers")
	}
	req := EditRequest{Script: script, Start: start, End: end}
	if selected, ok := jsonString(raw.SelectedText); ok {
		req.SelectedText = &selected
	}
	if instruction, ok := jsonString(raw.Instruction); ok {
		req.Instruction = instruction
	}
	return req, nil
}

func decodeObject(data []byte, target any) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return invalidArgument("request body must be a JSON object")
	}
	if err := json.Unmarshal(trimmed, target); err != nil {
		return invalidArgument("request body must be a JSON object")
	}
	return nil
}

func jsonString(raw json.RawMessage) (string, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '"' {
		return "", false
	}
	var value string
	if err := json.Unmarshal(raw, &value); err != nil {
		return "", false
	}
	return value, true
}

func jsonNumber(raw json.RawMessage) (float64, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || strings.ContainsAny(string(raw[:1]), `"{[ntf`) {
		return 0, false
	}
	var value float64
	if err := json.Unmarshal(raw, &value); err != nil {
		return 0, false
	}
	return value, true
}

func jsonInt(raw json.RawMessage) (int, bool) {
	value, ok := jsonNumber(raw)
	if !ok || value != math.Trunc(value) {
		return 0, false
	}
	if value > math.MaxInt32 || value < math.MinInt32 {
		return 0, false
	}
	return int(value), true
}
