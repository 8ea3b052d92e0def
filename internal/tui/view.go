package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"github.com/muesli/reflow/wordwrap"

	"github.com/milespries/script-studio-ai/internal/guide"
	"github.com/milespries/script-studio-ai/internal/studio"
)

func (m *model) View() string {
	switch m.stage {
	case stagePalette:
		return m.viewPalette()
	default:
		return m.viewStudio()
	}
}

func (m *model) viewStudio() string {
	m.refreshViewportIfDirty()
	parts := []string{
		m.heroView(),
		m.composerPanel(),
		m.scriptPanel(),
		m.selectionPanel(),
		m.statusView(),
		m.sessionMeterView(),
	}
	if m.helpVisible {
		parts = append(parts, m.keyLegendView(), m.helpView())
	}
	return joinNonEmpty(parts)
}

func (m *model) heroView() string {
	title := heroTitleStyle.Render("Script Studio") + " " + heroAccentStyle.Render("AI")
	return lipgloss.JoinVertical(lipgloss.Left, title, taglineStyle.Render(heroTagline))
}

func (m *model) composerPanel() string {
	header := sectionHeaderStyle.Render("Generate a script")
	length := helperStyle.Render(fmt.Sprintf("Target length %s min  (1-5, ↑/↓ while typing, +/- elsewhere)", formatMinutes(m.lengthMinutes)))
	if m.stage != stageCompose {
		prompt := strings.TrimSpace(m.promptInput.Value())
		if prompt == "" {
			prompt = "(no prompt yet, press g)"
		}
		prompt = runewidth.Truncate(strings.ReplaceAll(prompt, "\n", " "), m.layout.inputWidth, "…")
		return joinLines(header, helperStyle.Render("Prompt: ")+prompt, length)
	}
	return joinLines(header, m.promptInput.View(), length, helperStyle.Render("Enter to generate • Esc to return to the script"))
}

func (m *model) scriptPanel() string {
	header := sectionHeaderStyle.Render("Script") + "  " + hintStyle.Render(guide.Hint(m.doc.Phase()))
	if m.doc.CanUndo() {
		header += "  " + keyStyle.Render("u") + keyDescStyle.Render(" Undo last edit")
	}
	return joinLines(header, scriptBoxStyle.Render(m.viewport.View()))
}

func (m *model) selectionPanel() string {
	sel, ok := m.doc.Selection()
	if !ok {
		return ""
	}
	preview := runewidth.Truncate(strings.ReplaceAll(sel.Text, "\n", " ⏎ "), selectionPreviewWidth, "…")
	lines := []string{
		sectionHeaderStyle.Render("Selected text") + helperStyle.Render(fmt.Sprintf("  [%d,%d)", sel.Start, sel.End)),
		selectionPreviewStyle.Render(preview),
	}
	switch {
	case m.stage == stageInstruction:
		lines = append(lines,
			helperStyle.Render("How should we change this?"),
			m.instructionInput.View(),
			helperStyle.Render("Enter to rewrite • Esc to cancel"),
		)
	case m.doc.Phase() == studio.PhaseEditing:
		instruction, _ := m.doc.Instruction()
		lines = append(lines, helperStyle.Render("Rewriting: "+instruction))
	default:
		lines = append(lines, helperStyle.Render("Press e to rewrite the selection with AI."))
	}
	return joinLines(lines...)
}

func (m *model) statusView() string {
	var parts []string
	if m.errorMessage != "" {
		parts = append(parts, errorStyle.Render(m.errorMessage))
	}
	if m.infoMessage != "" {
		message := m.infoMessage
		if m.busy() {
			message = fmt.Sprintf("%s %s", m.spinner.View(), message)
		}
		parts = append(parts, helperStyle.Render(message))
	}
	return joinLines(parts...)
}

func (m *model) modeLabel() string {
	switch m.mode {
	case modeInsert:
		return "INSERT"
	case modeSelect:
		return "SELECT"
	default:
		return "NORMAL"
	}
}

func (m *model) sessionMeterView() string {
	stats := []string{
		fmt.Sprintf("Mode %s", m.modeLabel()),
		fmt.Sprintf("Length %s min", formatMinutes(m.lengthMinutes)),
		fmt.Sprintf("%d chars", m.doc.Length()),
	}
	if m.doc.CanUndo() {
		stats = append(stats, "Undo ready")
	}
	stats = append(stats, m.jobStatusBadges()...)
	return statusBarStyle.Render(strings.Join(stats, "  •  "))
}

func (m *model) jobStatusBadges() []string {
	var badges []string
	for _, kind := range []jobKind{jobKindGenerate, jobKindEdit} {
		for _, snapshot := range m.activeJobs {
			if snapshot.Kind == kind && snapshot.Status == jobStatusRunning {
				badges = append(badges, fmt.Sprintf("%s running", kind))
				break
			}
		}
	}
	return badges
}

type keyHint struct {
	Key         string
	Description string
}

func (m *model) keyLegendView() string {
	hints := []keyHint{
		{"←/→/↑/↓", "Move cursor"},
		{"v", "Select"},
		{"e", "Rewrite selection"},
		{"u", "Undo last edit"},
		{"i", "Edit by hand"},
		{"g", "New prompt"},
		{"+/-", "Length"},
		{"y", "Copy"},
		{"Ctrl+K", "Command palette"},
		{"?", "Toggle cheatsheet"},
		{"q", "Quit"},
	}
	rows := []string{sectionHeaderStyle.Render("Cheatsheet")}
	const columns = 3
	for i := 0; i < len(hints); i += columns {
		end := i + columns
		if end > len(hints) {
			end = len(hints)
		}
		var cells []string
		for _, hint := range hints[i:end] {
			key := keyStyle.Render(hint.Key)
			desc := keyDescStyle.Render(" " + hint.Description + "  ")
			cells = append(cells, lipgloss.JoinHorizontal(lipgloss.Top, key, desc))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}
	return legendBoxStyle.Render(strings.Join(rows, "\n"))
}

func (m *model) helpView() string {
	steps := guide.Build(guide.Status{
		Phase:         m.doc.Phase(),
		CanUndo:       m.doc.CanUndo(),
		Generating:    m.stage == stageGenerating,
		LengthMinutes: m.lengthMinutes,
	})
	width := m.layout.viewportWidth - 8
	if width < 20 {
		width = 20
	}
	lines := []string{sectionHeaderStyle.Render("Next steps")}
	for _, step := range steps {
		lines = append(lines, helperStyle.Render(wordwrap.String("• "+step.Title+": "+step.Description, width)))
	}
	return helpBoxStyle.Render(strings.Join(lines, "\n"))
}

func (m *model) viewPalette() string {
	var b strings.Builder
	b.WriteString(sectionHeaderStyle.Render("Command Palette"))
	b.WriteRune('\n')
	b.WriteString(m.paletteInput.View())
	b.WriteRune('\n')
	b.WriteString(helperStyle.Render("Enter to run, Esc to cancel."))
	b.WriteRune('\n')
	b.WriteRune('\n')
	if len(m.paletteMatches) == 0 {
		b.WriteString(helperStyle.Render("No commands match this filter."))
	} else {
		for idx, cmd := range m.paletteMatches {
			label := fmt.Sprintf("  %s  [%s]", cmd.title, cmd.shortcut)
			if idx == m.paletteCursor {
				label = currentLineStyle.Render("▸ " + cmd.title + "  [" + cmd.shortcut + "]")
			}
			b.WriteString(label)
			b.WriteRune('\n')
			b.WriteString(helperStyle.Render("   " + cmd.description))
			b.WriteRune('\n')
		}
	}
	return joinNonEmpty([]string{m.heroView(), b.String()})
}

func joinNonEmpty(parts []string) string {
	filtered := make([]string, 0, len(parts))
	for _, part := range parts {
		if strings.TrimSpace(part) == "" {
			continue
		}
		filtered = append(filtered, part)
	}
	return strings.Join(filtered, "\n\n")
}

func joinLines(lines ...string) string {
	filtered := make([]string, 0, len(lines))
	for _, line := range lines {
		if line != "" {
			filtered = append(filtered, line)
		}
	}
	return strings.Join(filtered, "\n")
}

func formatMinutes(minutes float64) string {
	return strconv.FormatFloat(minutes, 'f', -1, 64)
}

var (
	sectionHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("81"))
	errorStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	helperStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	hintStyle          = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Italic(true)

	heroAccentColor        = lipgloss.Color("#818cf8")
	heroSecondaryTextColor = lipgloss.Color("#94a3b8")

	heroTitleStyle        = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#f1f5f9"))
	heroAccentStyle       = lipgloss.NewStyle().Bold(true).Foreground(heroAccentColor)
	taglineStyle          = lipgloss.NewStyle().Foreground(heroSecondaryTextColor).Italic(true)
	statusBarStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("#0f0f0f")).Background(lipgloss.Color("#8ecae6")).Padding(0, 1)
	keyStyle              = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#0f0f0f")).Background(lipgloss.Color("#ffd166")).Padding(0, 1)
	keyDescStyle          = lipgloss.NewStyle().Foreground(lipgloss.Color("#e0def4"))
	legendBoxStyle        = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#56526e")).Padding(1, 2)
	helpBoxStyle          = lipgloss.NewStyle().Border(lipgloss.DoubleBorder()).BorderForeground(lipgloss.Color("#7f5af0")).Padding(1, 2)
	scriptBoxStyle        = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#334155")).Padding(0, 1)
	currentLineStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#0f0f0f")).Background(lipgloss.Color("#8ecae6"))
	selectionStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("#0f0f0f")).Background(lipgloss.Color("#bde0fe"))
	lockedSelectionStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#0f0f0f")).Background(lipgloss.Color("#a5b4fc"))
	selectionPreviewStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#e2e8f0")).Background(lipgloss.Color("#1e293b")).Padding(0, 1)
	cursorStyle           = lipgloss.NewStyle().Reverse(true)
)
