package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/milespries/script-studio-ai/internal/logging"
	"github.com/milespries/script-studio-ai/internal/script"
	"github.com/milespries/script-studio-ai/internal/session"
	"github.com/milespries/script-studio-ai/internal/studio"
)

// ScriptAPI is the script service as seen from the terminal.
type ScriptAPI interface {
	Generate(ctx context.Context, prompt string, lengthMinutes float64) (string, error)
	EditRange(ctx context.Context, req studio.EditRequest) (string, error)
}

// Config wires runtime options into the TUI program.
type Config struct {
	API       ScriptAPI
	Store     session.Store
	Logger    *zap.Logger
	UndoDepth int
}

var writeClipboard = clipboard.WriteAll

type model struct {
	config Config
	logger *zap.Logger
	stage  stage
	mode   interactionMode

	doc           *studio.Document
	lengthMinutes float64
	lastSaved     session.Record

	promptInput      textinput.Model
	instructionInput textinput.Model
	paletteInput     textinput.Model
	spinner          spinner.Model
	viewport         viewport.Model
	layout           pageLayout

	cursor          int
	cursorLine      int
	selectionAnchor int
	pendingScroll   bool
	viewportDirty   bool

	paletteMatches []paletteCommand
	paletteCursor  int
	paletteReturn  stage

	jobs       *jobBus
	activeJobs map[string]jobSnapshot

	infoMessage  string
	errorMessage string
	helpVisible  bool
}

type generateResultMsg struct {
	script string
	err    error
}

type editResultMsg struct {
	replacement string
	err         error
}

// New returns a tea.Model ready to be mounted into a Program. The stored
// session, if any, is restored before the first frame.
func New(config Config) tea.Model {
	logger := logging.OrNop(config.Logger)

	promptInput := textinput.New()
	promptInput.Placeholder = promptPlaceholder
	promptInput.CharLimit = 2000
	promptInput.Width = 70

	instructionInput := textinput.New()
	instructionInput.Placeholder = instructionPlaceholder
	instructionInput.CharLimit = 500
	instructionInput.Width = 70

	paletteInput := textinput.New()
	paletteInput.Placeholder = "Type to filter commands…"
	paletteInput.CharLimit = 60
	paletteInput.Width = 50

	spin := spinner.New()
	spin.Spinner = spinner.Dot

	vp := viewport.New(80, 16)
	vp.MouseWheelEnabled = true

	var opts []studio.Option
	if config.UndoDepth > 0 {
		opts = append(opts, studio.WithUndoDepth(config.UndoDepth))
	}

	m := &model{
		config:           config,
		logger:           logger,
		stage:            stageCompose,
		mode:             modeNormal,
		doc:              studio.NewDocument(opts...),
		lengthMinutes:    session.DefaultLengthMinutes,
		promptInput:      promptInput,
		instructionInput: instructionInput,
		paletteInput:     paletteInput,
		spinner:          spin,
		viewport:         vp,
		layout:           newPageLayout(),
		viewportDirty:    true,
		jobs:             newJobBus(logger),
		activeJobs:       map[string]jobSnapshot{},
		infoMessage:      "Describe your video idea and press Enter.",
	}
	m.restore()
	return m
}

func (m *model) restore() {
	if m.config.Store == nil {
		m.promptInput.Focus()
		return
	}
	rec := m.config.Store.Load(context.Background())
	m.lastSaved = rec
	m.promptInput.SetValue(rec.Prompt)
	minutes := rec.LengthMinutes
	m.lengthMinutes = script.NormalizeLength(&minutes)
	_ = m.doc.Load(rec.Script)
	if m.doc.Phase() == studio.PhaseIdle {
		m.promptInput.Focus()
		return
	}
	m.stage = stageScript
	m.infoMessage = "Restored your last script. Press v to select text to rewrite."
}

func (m *model) Init() tea.Cmd {
	return textinput.Blink
}

func (m *model) busy() bool {
	return m.stage == stageGenerating || m.doc.Phase() == studio.PhaseEditing
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		if m.busy() {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil
	case jobSignalMsg:
		m.activeJobs[msg.Snapshot.ID] = msg.Snapshot
		return m, nil
	case jobResultEnvelope:
		delete(m.activeJobs, msg.Snapshot.ID)
		if msg.Payload == nil {
			return m, nil
		}
		return m.Update(msg.Payload)
	case generateResultMsg:
		return m, m.handleGenerateResult(msg)
	case editResultMsg:
		m.handleEditResult(msg)
		return m, nil
	case tea.WindowSizeMsg:
		m.layout.Update(msg.Width, msg.Height)
		m.viewport.Width = m.layout.viewportWidth
		m.viewport.Height = m.layout.viewportHeight
		m.promptInput.Width = m.layout.inputWidth
		m.instructionInput.Width = m.layout.inputWidth
		m.markViewportDirty()
		return m, nil
	case tea.MouseMsg:
		if m.stage == stageScript {
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *model) handleKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.stage {
	case stageCompose:
		return m, m.handleComposeKey(key)
	case stageGenerating:
		return m, nil
	case stageInstruction:
		return m, m.handleInstructionKey(key)
	case stagePalette:
		return m, m.handlePaletteKey(key)
	default:
		if m.mode == modeInsert {
			m.handleInsertKey(key)
			return m, nil
		}
		return m, m.handleScriptKey(key)
	}
}

func (m *model) handleComposeKey(key tea.KeyMsg) tea.Cmd {
	switch key.Type {
	case tea.KeyEnter:
		return m.submitPrompt()
	case tea.KeyEsc:
		m.errorMessage = ""
		if m.doc.Phase() != studio.PhaseIdle {
			m.promptInput.Blur()
			m.stage = stageScript
		}
		return nil
	case tea.KeyUp:
		m.adjustLength(1)
		return nil
	case tea.KeyDown:
		m.adjustLength(-1)
		return nil
	case tea.KeyCtrlK:
		return m.openPalette()
	}
	var cmd tea.Cmd
	m.promptInput, cmd = m.promptInput.Update(key)
	m.persist()
	return cmd
}

func (m *model) handleInstructionKey(key tea.KeyMsg) tea.Cmd {
	switch key.Type {
	case tea.KeyEnter:
		return m.submitInstruction()
	case tea.KeyEsc:
		m.instructionInput.Blur()
		m.instructionInput.SetValue("")
		m.errorMessage = ""
		m.stage = stageScript
		return nil
	}
	var cmd tea.Cmd
	m.instructionInput, cmd = m.instructionInput.Update(key)
	return cmd
}

func (m *model) handleScriptKey(key tea.KeyMsg) tea.Cmd {
	switch key.String() {
	case "esc":
		if m.mode == modeSelect || m.doc.Phase() == studio.PhaseSelected {
			m.clearSelection()
		}
	case "left", "h":
		m.moveCursorHorizontal(-1)
	case "right", "l":
		m.moveCursorHorizontal(1)
	case "up", "k":
		m.moveCursorVertical(-1)
	case "down", "j":
		m.moveCursorVertical(1)
	case "home", "0":
		line, _ := lineColumn(m.doc.Text(), m.cursor)
		m.moveCursorTo(offsetAt(m.doc.Text(), line, 0))
	case "end", "$":
		line, _ := lineColumn(m.doc.Text(), m.cursor)
		m.moveCursorTo(offsetAt(m.doc.Text(), line, m.doc.Length()))
	case "pgup", "pgdown":
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(key)
		return cmd
	case "v":
		if m.busy() {
			m.errorMessage = msgEditInFlight
			return nil
		}
		m.toggleSelectMode()
	case "e", "enter":
		return m.openInstruction()
	case "u":
		m.undo()
	case "i":
		if m.busy() {
			m.errorMessage = msgEditInFlight
			return nil
		}
		m.enterInsertMode()
	case "g":
		return m.focusPrompt()
	case "y":
		m.yank()
	case "+", "=":
		m.adjustLength(1)
	case "-":
		m.adjustLength(-1)
	case "?":
		m.helpVisible = !m.helpVisible
	case "ctrl+k":
		return m.openPalette()
	case "q":
		return tea.Quit
	}
	return nil
}

func (m *model) handleInsertKey(key tea.KeyMsg) {
	switch key.Type {
	case tea.KeyEsc:
		m.mode = modeNormal
		m.infoMessage = "Back to normal mode."
		m.markViewportDirty()
	case tea.KeyEnter:
		m.insertText("\n")
	case tea.KeyBackspace:
		m.deleteBackward()
	case tea.KeyDelete:
		m.deleteForward()
	case tea.KeyLeft:
		m.moveCursorHorizontal(-1)
	case tea.KeyRight:
		m.moveCursorHorizontal(1)
	case tea.KeyUp:
		m.moveCursorVertical(-1)
	case tea.KeyDown:
		m.moveCursorVertical(1)
	case tea.KeySpace:
		m.insertText(" ")
	case tea.KeyTab:
		m.insertText("\t")
	case tea.KeyRunes:
		m.insertText(string(key.Runes))
	}
}

func (m *model) handlePaletteKey(key tea.KeyMsg) tea.Cmd {
	switch key.Type {
	case tea.KeyEsc:
		m.closePalette()
		return nil
	case tea.KeyUp:
		if m.paletteCursor > 0 {
			m.paletteCursor--
		}
		return nil
	case tea.KeyDown:
		if m.paletteCursor < len(m.paletteMatches)-1 {
			m.paletteCursor++
		}
		return nil
	case tea.KeyEnter:
		if len(m.paletteMatches) == 0 {
			return nil
		}
		action := m.paletteMatches[m.paletteCursor].action
		m.closePalette()
		return m.runAction(action)
	}
	var cmd tea.Cmd
	m.paletteInput, cmd = m.paletteInput.Update(key)
	m.paletteMatches = m.filterPalette(strings.TrimSpace(m.paletteInput.Value()))
	if m.paletteCursor >= len(m.paletteMatches) {
		m.paletteCursor = 0
	}
	return cmd
}

func (m *model) openPalette() tea.Cmd {
	m.paletteReturn = m.stage
	m.promptInput.Blur()
	m.stage = stagePalette
	m.paletteInput.SetValue("")
	m.paletteInput.Focus()
	m.paletteMatches = m.filterPalette("")
	m.paletteCursor = 0
	return textinput.Blink
}

func (m *model) closePalette() {
	m.paletteInput.Blur()
	m.stage = m.paletteReturn
	if m.stage == stageCompose {
		m.promptInput.Focus()
	}
}

func (m *model) focusPrompt() tea.Cmd {
	if m.busy() {
		m.errorMessage = msgEditInFlight
		return nil
	}
	m.mode = modeNormal
	m.stage = stageCompose
	m.errorMessage = ""
	m.infoMessage = "Describe your video idea and press Enter. ↑/↓ change the length."
	m.promptInput.Focus()
	return textinput.Blink
}

func (m *model) submitPrompt() tea.Cmd {
	prompt := strings.TrimSpace(m.promptInput.Value())
	if prompt == "" {
		m.errorMessage = msgPromptRequired
		return nil
	}
	if m.doc.Phase() == studio.PhaseEditing {
		m.errorMessage = msgEditInFlight
		return nil
	}
	if m.config.API == nil {
		m.errorMessage = "No script service configured."
		return nil
	}
	m.persist()
	m.promptInput.Blur()
	m.stage = stageGenerating
	m.errorMessage = ""
	m.infoMessage = fmt.Sprintf("Generating a %s-minute script…", formatMinutes(m.lengthMinutes))
	return tea.Batch(
		m.jobs.Start(jobKindGenerate, generateJob(m.config.API, prompt, m.lengthMinutes)),
		m.spinner.Tick,
	)
}

func (m *model) handleGenerateResult(msg generateResultMsg) tea.Cmd {
	if msg.err != nil {
		m.errorMessage = describeError("Failed to generate script", msg.err)
		m.infoMessage = "Adjust the prompt and press Enter to retry."
		if m.doc.Phase() == studio.PhaseIdle {
			m.stage = stageCompose
			m.promptInput.Focus()
			return textinput.Blink
		}
		m.stage = stageScript
		return nil
	}
	if err := m.doc.Load(msg.script); err != nil {
		m.errorMessage = err.Error()
		m.stage = stageScript
		return nil
	}
	m.stage = stageScript
	m.mode = modeNormal
	m.cursor = 0
	m.errorMessage = ""
	m.infoMessage = "Script ready. Press v to select text to rewrite."
	m.viewport.GotoTop()
	m.markViewportDirty()
	m.persist()
	return nil
}

func (m *model) openInstruction() tea.Cmd {
	switch m.doc.Phase() {
	case studio.PhaseEditing:
		m.errorMessage = msgEditInFlight
		return nil
	case studio.PhaseSelected:
	default:
		m.errorMessage = "Select text to edit first."
		return nil
	}
	m.mode = modeNormal
	m.stage = stageInstruction
	m.errorMessage = ""
	m.instructionInput.SetValue("")
	m.instructionInput.Focus()
	return textinput.Blink
}

func (m *model) submitInstruction() tea.Cmd {
	req, err := m.doc.BeginEdit(m.instructionInput.Value())
	if err != nil {
		if errors.Is(err, studio.ErrBlankInstruction) {
			m.errorMessage = msgInstructionRequired
			return nil
		}
		m.errorMessage = err.Error()
		m.stage = stageScript
		return nil
	}
	m.instructionInput.Blur()
	m.instructionInput.SetValue("")
	m.stage = stageScript
	if m.config.API == nil {
		_ = m.doc.FailEdit()
		m.errorMessage = "No script service configured."
		return nil
	}
	m.errorMessage = ""
	m.infoMessage = "Rewriting the selection…"
	m.markViewportDirty()
	return tea.Batch(
		m.jobs.Start(jobKindEdit, editJob(m.config.API, req)),
		m.spinner.Tick,
	)
}

func (m *model) handleEditResult(msg editResultMsg) {
	if m.doc.Phase() != studio.PhaseEditing {
		return
	}
	defer m.markViewportDirty()
	if msg.err != nil {
		_ = m.doc.FailEdit()
		m.errorMessage = describeError("Failed to edit selection", msg.err)
		m.infoMessage = "The selection is unchanged. Press e to try again."
		return
	}
	start := m.cursor
	if sel, ok := m.doc.Selection(); ok {
		start = sel.Start
	}
	sel, err := m.doc.CompleteEdit(msg.replacement)
	if err != nil {
		m.errorMessage = err.Error()
		return
	}
	if sel.End > 0 {
		m.cursor = sel.End
	} else {
		m.cursor = start
	}
	m.pendingScroll = true
	m.errorMessage = ""
	m.infoMessage = "Selection rewritten. Press u to undo."
	m.persist()
}

func (m *model) undo() {
	if err := m.doc.Undo(); err != nil {
		switch {
		case errors.Is(err, studio.ErrNothingToUndo):
			m.infoMessage = "Nothing to undo."
		case errors.Is(err, studio.ErrBusy):
			m.errorMessage = msgEditInFlight
		default:
			m.errorMessage = err.Error()
		}
		return
	}
	m.mode = modeNormal
	if n := m.doc.Length(); m.cursor > n {
		m.cursor = n
	}
	m.errorMessage = ""
	m.infoMessage = "Restored the script from before the last edit."
	m.markViewportDirty()
	m.persist()
}

func (m *model) yank() {
	text := m.doc.Text()
	if sel, ok := m.doc.Selection(); ok {
		text = sel.Text
	}
	if text == "" {
		return
	}
	if err := writeClipboard(text); err != nil {
		m.errorMessage = fmt.Sprintf("Clipboard unavailable: %v", err)
		return
	}
	m.infoMessage = fmt.Sprintf("Copied %d characters.", len([]rune(text)))
}

func (m *model) adjustLength(delta float64) {
	next := m.lengthMinutes + delta
	if next < minLengthMinutes {
		next = minLengthMinutes
	}
	if next > maxLengthMinutes {
		next = maxLengthMinutes
	}
	m.lengthMinutes = next
	m.infoMessage = fmt.Sprintf("Target length: %s min", formatMinutes(next))
	m.persist()
}

// persist writes the session record when it changed. Saves run inline so
// records land in order.
func (m *model) persist() {
	if m.config.Store == nil {
		return
	}
	rec := session.Record{
		Prompt:        m.promptInput.Value(),
		Script:        m.doc.Text(),
		LengthMinutes: m.lengthMinutes,
	}
	if rec == m.lastSaved {
		return
	}
	if err := m.config.Store.Save(context.Background(), rec); err != nil {
		m.logger.Warn("save session", zap.Error(err))
		return
	}
	m.lastSaved = rec
}

func describeError(prefix string, err error) string {
	var apiErr *studio.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return prefix + ": " + apiErr.Message
	}
	return prefix + ": " + err.Error()
}

func (m *model) markViewportDirty() {
	m.viewportDirty = true
}
