package tui

import (
	"strings"
	"unicode/utf8"

	"github.com/rivo/uniseg"

	"github.com/milespries/script-studio-ai/internal/textrange"
)

// graphemeBoundaries returns the rune offsets at which grapheme clusters of
// text start, followed by the rune length of text.
func graphemeBoundaries(text string) []int {
	bounds := []int{0}
	offset := 0
	state := -1
	rest := text
	for rest != "" {
		var cluster string
		cluster, rest, _, state = uniseg.FirstGraphemeClusterInString(rest, state)
		offset += utf8.RuneCountInString(cluster)
		bounds = append(bounds, offset)
	}
	return bounds
}

func nextGrapheme(text string, cursor int) int {
	for _, b := range graphemeBoundaries(text) {
		if b > cursor {
			return b
		}
	}
	return textrange.Len(text)
}

func prevGrapheme(text string, cursor int) int {
	prev := 0
	for _, b := range graphemeBoundaries(text) {
		if b >= cursor {
			break
		}
		prev = b
	}
	return prev
}

// lineColumn returns the logical line and rune column of cursor.
func lineColumn(text string, cursor int) (int, int) {
	before := textrange.Slice(text, textrange.Range{Start: 0, End: cursor})
	line := strings.Count(before, "\n")
	col := cursor
	if idx := strings.LastIndex(before, "\n"); idx >= 0 {
		col = utf8.RuneCountInString(before[idx+1:])
	}
	return line, col
}

// offsetAt maps a logical line and column back to a rune offset, clamping the
// column to the line length.
func offsetAt(text string, line, col int) int {
	lines := strings.Split(text, "\n")
	if line < 0 {
		return 0
	}
	if line >= len(lines) {
		return textrange.Len(text)
	}
	offset := 0
	for i := 0; i < line; i++ {
		offset += utf8.RuneCountInString(lines[i]) + 1
	}
	if n := utf8.RuneCountInString(lines[line]); col > n {
		col = n
	}
	return offset + col
}

func (m *model) moveCursorHorizontal(delta int) {
	text := m.doc.Text()
	if delta > 0 {
		m.cursor = nextGrapheme(text, m.cursor)
	} else {
		m.cursor = prevGrapheme(text, m.cursor)
	}
	m.afterCursorMove()
}

func (m *model) moveCursorVertical(delta int) {
	text := m.doc.Text()
	line, col := lineColumn(text, m.cursor)
	target := line + delta
	if target < 0 {
		target = 0
	}
	lines := strings.Count(text, "\n")
	if target > lines {
		target = lines
	}
	m.cursor = offsetAt(text, target, col)
	m.afterCursorMove()
}

func (m *model) moveCursorTo(offset int) {
	if offset < 0 {
		offset = 0
	}
	if n := m.doc.Length(); offset > n {
		offset = n
	}
	m.cursor = offset
	m.afterCursorMove()
}

func (m *model) afterCursorMove() {
	if m.mode == modeSelect {
		m.extendSelection()
	}
	m.markViewportDirty()
	m.pendingScroll = true
}

func (m *model) toggleSelectMode() {
	if m.mode == modeSelect {
		m.mode = modeNormal
		m.infoMessage = "Selection kept. Press e to rewrite it."
		return
	}
	if m.doc.Length() == 0 {
		return
	}
	m.mode = modeSelect
	m.selectionAnchor = m.cursor
	m.infoMessage = "Move the cursor to extend the selection; v to finish."
	m.extendSelection()
}

func (m *model) extendSelection() {
	if _, err := m.doc.Select(m.selectionAnchor, m.cursor); err != nil {
		m.errorMessage = err.Error()
		return
	}
	m.markViewportDirty()
}

func (m *model) clearSelection() {
	m.doc.ClearSelection()
	m.mode = modeNormal
	m.markViewportDirty()
}

func (m *model) enterInsertMode() {
	m.stage = stageScript
	m.promptInput.Blur()
	m.mode = modeInsert
	m.infoMessage = "Insert mode: type to edit the script, Esc to stop."
	m.markViewportDirty()
}

// insertText applies a direct edit at the cursor. Any selection is dropped
// by the document because its offsets no longer apply.
func (m *model) insertText(s string) {
	text := m.doc.Text()
	updated, inserted := textrange.Splice(text, textrange.Range{Start: m.cursor, End: m.cursor}, s)
	if err := m.doc.SetText(updated); err != nil {
		m.errorMessage = err.Error()
		return
	}
	m.cursor = inserted.End
	m.afterDirectEdit()
}

func (m *model) deleteBackward() {
	if m.cursor == 0 {
		return
	}
	text := m.doc.Text()
	start := prevGrapheme(text, m.cursor)
	updated, _ := textrange.Splice(text, textrange.Range{Start: start, End: m.cursor}, "")
	if err := m.doc.SetText(updated); err != nil {
		m.errorMessage = err.Error()
		return
	}
	m.cursor = start
	m.afterDirectEdit()
}

func (m *model) deleteForward() {
	text := m.doc.Text()
	if m.cursor >= textrange.Len(text) {
		return
	}
	end := nextGrapheme(text, m.cursor)
	updated, _ := textrange.Splice(text, textrange.Range{Start: m.cursor, End: end}, "")
	if err := m.doc.SetText(updated); err != nil {
		m.errorMessage = err.Error()
		return
	}
	m.afterDirectEdit()
}

func (m *model) afterDirectEdit() {
	m.errorMessage = ""
	m.persist()
	m.markViewportDirty()
	m.pendingScroll = true
}
