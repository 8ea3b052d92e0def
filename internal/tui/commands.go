package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sahilm/fuzzy"

	"github.com/milespries/script-studio-ai/internal/studio"
)

type paletteAction int

const (
	actionGenerate paletteAction = iota
	actionSelect
	actionEditSelection
	actionUndo
	actionInsert
	actionYank
	actionLonger
	actionShorter
	actionHelp
	actionQuit
)

type paletteCommand struct {
	action      paletteAction
	title       string
	description string
	shortcut    string
}

var paletteCommands = []paletteCommand{
	{actionGenerate, "Generate script", "Write a new script from a prompt", "g"},
	{actionSelect, "Select text", "Start a selection at the cursor", "v"},
	{actionEditSelection, "Rewrite selection", "Ask the model to rewrite the selected text", "e"},
	{actionUndo, "Undo last edit", "Restore the script from before the last AI edit", "u"},
	{actionInsert, "Edit by hand", "Type directly into the script", "i"},
	{actionYank, "Copy", "Copy the selection, or the whole script", "y"},
	{actionLonger, "Longer script", "Raise the target length by one minute", "+"},
	{actionShorter, "Shorter script", "Lower the target length by one minute", "-"},
	{actionHelp, "Toggle help", "Show or hide the key cheatsheet", "?"},
	{actionQuit, "Quit", "Leave Script Studio", "q"},
}

type paletteSource []paletteCommand

func (s paletteSource) String(i int) string { return s[i].title }

func (s paletteSource) Len() int { return len(s) }

// filterPalette returns the available commands matching query, best first.
func (m *model) filterPalette(query string) []paletteCommand {
	available := make(paletteSource, 0, len(paletteCommands))
	for _, cmd := range paletteCommands {
		if m.commandAvailable(cmd.action) {
			available = append(available, cmd)
		}
	}
	if query == "" {
		return available
	}
	matches := fuzzy.FindFrom(query, available)
	result := make([]paletteCommand, 0, len(matches))
	for _, match := range matches {
		result = append(result, available[match.Index])
	}
	return result
}

func (m *model) commandAvailable(action paletteAction) bool {
	phase := m.doc.Phase()
	busy := m.stage == stageGenerating || phase == studio.PhaseEditing
	switch action {
	case actionGenerate:
		return !busy
	case actionSelect, actionInsert:
		return !busy && phase != studio.PhaseIdle
	case actionEditSelection:
		return !busy && phase == studio.PhaseSelected
	case actionUndo:
		return m.doc.CanUndo()
	case actionYank:
		return phase != studio.PhaseIdle
	case actionLonger:
		return m.lengthMinutes < maxLengthMinutes
	case actionShorter:
		return m.lengthMinutes > minLengthMinutes
	default:
		return true
	}
}

func (m *model) runAction(action paletteAction) tea.Cmd {
	switch action {
	case actionGenerate:
		return m.focusPrompt()
	case actionSelect:
		m.toggleSelectMode()
	case actionEditSelection:
		return m.openInstruction()
	case actionUndo:
		m.undo()
	case actionInsert:
		m.enterInsertMode()
	case actionYank:
		m.yank()
	case actionLonger:
		m.adjustLength(1)
	case actionShorter:
		m.adjustLength(-1)
	case actionHelp:
		m.helpVisible = !m.helpVisible
	case actionQuit:
		return tea.Quit
	}
	return nil
}

func generateJob(api ScriptAPI, prompt string, minutes float64) jobRunner {
	return func(ctx context.Context) (tea.Msg, error) {
		script, err := api.Generate(ctx, prompt, minutes)
		return generateResultMsg{script: script, err: err}, err
	}
}

func editJob(api ScriptAPI, req studio.EditRequest) jobRunner {
	return func(ctx context.Context) (tea.Msg, error) {
		replacement, err := api.EditRange(ctx, req)
		return editResultMsg{replacement: replacement, err: err}, err
	}
}
