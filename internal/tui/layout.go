package tui

import (
	"strings"

	"github.com/muesli/reflow/wordwrap"

	"github.com/milespries/script-studio-ai/internal/studio"
	"github.com/milespries/script-studio-ai/internal/textrange"
)

type pageLayout struct {
	windowWidth    int
	windowHeight   int
	viewportWidth  int
	viewportHeight int
	inputWidth     int
}

func newPageLayout() pageLayout {
	return pageLayout{
		viewportWidth:  80,
		viewportHeight: 16,
		inputWidth:     70,
	}
}

// Update recomputes panel sizes for a terminal of width x height.
func (l *pageLayout) Update(width, height int) {
	l.windowWidth = width
	l.windowHeight = height
	inner := width - viewportHorizontalPadding
	if inner < minViewportWidth {
		inner = minViewportWidth
	}
	l.viewportWidth = inner
	l.inputWidth = inner - 6
	// hero, composer, selection panel and status lines
	const chrome = 18
	usable := height - chrome
	if usable < 5 {
		usable = 5
	}
	l.viewportHeight = usable
}

type scriptView struct {
	content    string
	cursorLine int
}

// renderScript styles the selection and the cursor, then wraps each logical
// line to width. It also reports the wrapped line holding the cursor.
func renderScript(text string, sel studio.Selection, hasSel, locked bool, cursor int, showCursor bool, width int) scriptView {
	if text == "" {
		return scriptView{content: helperStyle.Render("Your generated script will appear here.")}
	}

	selStyle := selectionStyle
	if locked {
		selStyle = lockedSelectionStyle
	}

	var out []string
	cursorLine := 0
	offset := 0
	for _, line := range strings.Split(text, "\n") {
		runes := []rune(line)
		lineStart := offset
		lineEnd := offset + len(runes)

		var b strings.Builder
		for i, r := range runes {
			pos := lineStart + i
			ch := string(r)
			switch {
			case showCursor && pos == cursor:
				b.WriteString(cursorStyle.Render(ch))
			case hasSel && pos >= sel.Start && pos < sel.End:
				b.WriteString(selStyle.Render(ch))
			default:
				b.WriteString(ch)
			}
		}
		if showCursor && cursor == lineEnd {
			b.WriteString(cursorStyle.Render(" "))
		}

		wrapped := wordwrap.String(b.String(), width)
		if cursor >= lineStart && cursor <= lineEnd {
			prefix := textrange.Slice(line, textrange.Range{Start: 0, End: cursor - lineStart})
			cursorLine = len(out) + strings.Count(wordwrap.String(prefix, width), "\n")
		}
		out = append(out, strings.Split(wrapped, "\n")...)
		offset = lineEnd + 1
	}
	return scriptView{content: strings.Join(out, "\n"), cursorLine: cursorLine}
}

func (m *model) refreshViewportIfDirty() {
	if m.viewportDirty {
		m.refreshViewport()
	}
}

func (m *model) refreshViewport() {
	sel, hasSel := m.doc.Selection()
	showCursor := m.stage == stageScript && !m.busy()
	view := renderScript(
		m.doc.Text(), sel, hasSel,
		m.doc.Phase() == studio.PhaseEditing,
		m.cursor, showCursor,
		m.viewport.Width,
	)
	m.viewport.SetContent(view.content)
	m.cursorLine = view.cursorLine
	m.viewportDirty = false
	if m.pendingScroll {
		m.ensureCursorVisible()
		m.pendingScroll = false
	}
}

func (m *model) ensureCursorVisible() {
	height := m.viewport.Height
	if height <= 0 {
		return
	}
	switch {
	case m.cursorLine < m.viewport.YOffset:
		m.viewport.SetYOffset(m.cursorLine)
	case m.cursorLine >= m.viewport.YOffset+height:
		m.viewport.SetYOffset(m.cursorLine - height + 1)
	}
}
