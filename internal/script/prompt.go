package script

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/milespries/script-studio-ai/internal/llm"
)

const (
	startMarker = "<<<EDIT_START>>>"
	endMarker   = "<<<EDIT_END>>>"

	defaultInstruction = "Improve this text."
	replacementField   = "replacement"
)

func generationSystemPrompt(minutes float64) string {
	return fmt.Sprintf(
		"You write scripts for short-form videos.\n"+
			"Write a script that takes about %s minutes to read aloud at a natural speaking pace.\n"+
			"Return ONLY the words to be spoken: no title, no scene directions, no speaker labels, "+
			"and no commentary before or after the script.",
		formatMinutes(minutes),
	)
}

func formatMinutes(minutes float64) string {
	return strconv.FormatFloat(minutes, 'f', -1, 64)
}

var editSystemPrompt = "You are an editor revising one part of a video script.\n" +
	"The full script is provided with the part to rewrite wrapped between " + startMarker + " and " + endMarker + ".\n" +
	"Rewrite ONLY the text between the markers, following the instruction and keeping it consistent with the surrounding script.\n" +
	"Do not include the markers or any text outside them in your answer.\n" +
	`Return ONLY JSON formatted as {"` + replacementField + `":"<rewritten text>"}.`

func annotateScript(before, selected, after string) string {
	var b strings.Builder
	b.Grow(len(before) + len(selected) + len(after) + len(startMarker) + len(endMarker))
	b.WriteString(before)
	b.WriteString(startMarker)
	b.WriteString(selected)
	b.WriteString(endMarker)
	b.WriteString(after)
	return b.String()
}

func buildEditUserPrompt(annotated, selected, instruction string) string {
	var b strings.Builder
	b.WriteString("Full script with the selected part marked:\n")
	b.WriteString(annotated)
	b.WriteString("\n\nSelected text:\n")
	b.WriteString(selected)
	b.WriteString("\n\nInstruction:\n")
	b.WriteString(instruction)
	return b.String()
}

// replySource records which recovery step produced a replacement.
type replySource string

const (
	sourceJSON      replySource = "json"
	sourceExtracted replySource = "json_extracted"
	sourceRaw       replySource = "raw"
	sourceOriginal  replySource = "original"
)

// parseReplacement recovers the replacement text from an untrusted reply:
// the structured field first, then the trimmed raw text, and finally the
// original selection so an empty reply never deletes text.
func parseReplacement(raw, original string) (string, replySource) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == llm.NoContent {
		return original, sourceOriginal
	}

	candidates := []string{raw}
	if start := strings.Index(raw, "{"); start >= 0 {
		if end := strings.LastIndex(raw, "}"); end > start && (start > 0 || end < len(raw)-1) {
			candidates = append(candidates, raw[start:end+1])
		}
	}
	for idx, candidate := range candidates {
		value, ok := replacementFromJSON(candidate)
		if !ok {
			continue
		}
		if strings.TrimSpace(value) == "" {
			return original, sourceOriginal
		}
		if idx == 0 {
			return value, sourceJSON
		}
		return value, sourceExtracted
	}

	text := strings.ReplaceAll(raw, startMarker, "")
	text = strings.ReplaceAll(text, endMarker, "")
	text = strings.TrimSpace(text)
	if text == "" {
		return original, sourceOriginal
	}
	return text, sourceRaw
}

func replacementFromJSON(candidate string) (string, bool) {
	var payload map[string]json.RawMessage
	if err := json.Unmarshal([]byte(candidate), &payload); err != nil {
		return "", false
	}
	field, ok := payload[replacementField]
	if !ok {
		return "", false
	}
	var value string
	if err := json.Unmarshal(field, &value); err != nil {
		return "", false
	}
	return value, true
}
