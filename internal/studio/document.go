// Package studio holds the client side of Script Studio: the document that
// splices model replacements into a script with undo, and the HTTP client
// that talks to the script service.
package studio

import (
	"context"
	"fmt"
	"strings"

	"github.com/milespries/script-studio-ai/internal/textrange"
)

// Phase names the document's current state.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseViewing
	PhaseSelected
	PhaseEditing
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseViewing:
		return "viewing"
	case PhaseSelected:
		return "selected"
	case PhaseEditing:
		return "editing"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Selection is a half-open rune range with the text it covers.
type Selection struct {
	Start int
	End   int
	Text  string
}

// Range returns the selection bounds.
func (s Selection) Range() textrange.Range {
	return textrange.Range{Start: s.Start, End: s.End}
}

// EditRequest is the payload sent to the edit endpoint.
type EditRequest struct {
	Script       string `json:"script"`
	Start        int    `json:"start"`
	End          int    `json:"end"`
	SelectedText string `json:"selectedText"`
	Instruction  string `json:"instruction"`
}

// RangeEditor returns a replacement for the selected range of a script.
type RangeEditor interface {
	EditRange(ctx context.Context, req EditRequest) (string, error)
}

type state interface {
	phase() Phase
}

type idle struct{}

type viewing struct{}

type selected struct {
	sel Selection
}

type editing struct {
	sel         Selection
	instruction string
}

func (idle) phase() Phase     { return PhaseIdle }
func (viewing) phase() Phase  { return PhaseViewing }
func (selected) phase() Phase { return PhaseSelected }
func (editing) phase() Phase  { return PhaseEditing }

const defaultUndoDepth = 1

// Document owns a script, the current selection and the undo history for
// one editing session. It is not safe for concurrent use; the terminal
// program drives it from its update loop.
type Document struct {
	text      string
	state     state
	undo      []string
	undoDepth int
}

// Option configures a Document.
type Option func(*Document)

// WithUndoDepth keeps up to n snapshots. Values below 1 are ignored.
func WithUndoDepth(n int) Option {
	return func(d *Document) {
		if n >= 1 {
			d.undoDepth = n
		}
	}
}

// NewDocument returns an empty document.
func NewDocument(opts ...Option) *Document {
	d := &Document{state: idle{}, undoDepth: defaultUndoDepth}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Phase reports the current state.
func (d *Document) Phase() Phase { return d.state.phase() }

// Text returns the current script.
func (d *Document) Text() string { return d.text }

// Length returns the script length in runes.
func (d *Document) Length() int { return textrange.Len(d.text) }

// CanUndo reports whether Undo would succeed.
func (d *Document) CanUndo() bool {
	return len(d.undo) > 0 && d.Phase() != PhaseEditing
}

// Selection returns the active selection. While an edit is in flight it
// returns the locked range.
func (d *Document) Selection() (Selection, bool) {
	switch st := d.state.(type) {
	case selected:
		return st.sel, true
	case editing:
		return st.sel, true
	default:
		return Selection{}, false
	}
}

// Instruction returns the instruction of the in-flight edit.
func (d *Document) Instruction() (string, bool) {
	if st, ok := d.state.(editing); ok {
		return st.instruction, true
	}
	return "", false
}

// Load replaces the script with a freshly generated one. Selection and undo
// history are discarded.
func (d *Document) Load(script string) error {
	if d.Phase() == PhaseEditing {
		return ErrBusy
	}
	d.text = script
	d.undo = nil
	d.state = d.unselected()
	return nil
}

// SetText applies a direct user edit. The selection is cleared because its
// offsets no longer refer to the same text; undo history is kept.
func (d *Document) SetText(text string) error {
	if d.Phase() == PhaseEditing {
		return ErrBusy
	}
	d.text = text
	d.state = d.unselected()
	return nil
}

// Select marks [start, end). Reversed bounds are swapped and an empty range
// clears the selection.
func (d *Document) Select(start, end int) (Selection, error) {
	switch d.state.(type) {
	case idle:
		return Selection{}, ErrNoScript
	case editing:
		return Selection{}, ErrBusy
	}
	if start > end {
		start, end = end, start
	}
	if start < 0 || end > d.Length() {
		return Selection{}, fmt.Errorf("%w: [%d,%d) with length %d", ErrRangeOutOfBounds, start, end, d.Length())
	}
	if start == end {
		d.state = viewing{}
		return Selection{}, nil
	}
	r := textrange.Range{Start: start, End: end}
	sel := Selection{Start: start, End: end, Text: textrange.Slice(d.text, r)}
	d.state = selected{sel: sel}
	return sel, nil
}

// ClearSelection drops the selection, if any.
func (d *Document) ClearSelection() {
	if _, ok := d.state.(selected); ok {
		d.state = viewing{}
	}
}

// BeginEdit locks the selection and returns the request to send. A blank
// instruction is rejected without a state change.
func (d *Document) BeginEdit(instruction string) (EditRequest, error) {
	var sel Selection
	switch st := d.state.(type) {
	case editing:
		return EditRequest{}, ErrBusy
	case selected:
		sel = st.sel
	default:
		return EditRequest{}, ErrNoSelection
	}
	instruction = strings.TrimSpace(instruction)
	if instruction == "" {
		return EditRequest{}, ErrBlankInstruction
	}
	d.state = editing{sel: sel, instruction: instruction}
	return EditRequest{
		Script:       d.text,
		Start:        sel.Start,
		End:          sel.End,
		SelectedText: sel.Text,
		Instruction:  instruction,
	}, nil
}

// CompleteEdit splices replacement over the locked range, records the prior
// script for undo and selects the inserted text.
func (d *Document) CompleteEdit(replacement string) (Selection, error) {
	st, ok := d.state.(editing)
	if !ok {
		return Selection{}, ErrNotEditing
	}
	d.pushUndo(d.text)
	text, inserted := textrange.Splice(d.text, st.sel.Range(), replacement)
	d.text = text
	if inserted.Empty() {
		d.state = d.unselected()
		return Selection{}, nil
	}
	sel := Selection{Start: inserted.Start, End: inserted.End, Text: replacement}
	d.state = selected{sel: sel}
	return sel, nil
}

// FailEdit unlocks the selection after a failed call. Nothing else changes.
func (d *Document) FailEdit() error {
	st, ok := d.state.(editing)
	if !ok {
		return ErrNotEditing
	}
	d.state = selected{sel: st.sel}
	return nil
}

// Edit runs one full edit round trip through editor.
func (d *Document) Edit(ctx context.Context, editor RangeEditor, instruction string) (Selection, error) {
	req, err := d.BeginEdit(instruction)
	if err != nil {
		return Selection{}, err
	}
	replacement, err := editor.EditRange(ctx, req)
	if err != nil {
		_ = d.FailEdit()
		return Selection{}, err
	}
	return d.CompleteEdit(replacement)
}

// Undo restores the script from before the most recent accepted edit.
func (d *Document) Undo() error {
	if d.Phase() == PhaseEditing {
		return ErrBusy
	}
	if len(d.undo) == 0 {
		return ErrNothingToUndo
	}
	last := len(d.undo) - 1
	d.text = d.undo[last]
	d.undo = d.undo[:last]
	d.state = d.unselected()
	return nil
}

func (d *Document) pushUndo(text string) {
	d.undo = append(d.undo, text)
	if len(d.undo) > d.undoDepth {
		d.undo = append(d.undo[:0], d.undo[len(d.undo)-d.undoDepth:]...)
	}
}

func (d *Document) unselected() state {
	if d.text == "" {
		return idle{}
	}
	return viewing{}
}
