package studio

import (
	"context"
	"errors"
	"testing"

	"github.com/milespries/script-studio-ai/internal/textrange"
)

type fakeEditor struct {
	replacement string
	err         error
	calls       int
	last        EditRequest
}

func (f *fakeEditor) EditRange(ctx context.Context, req EditRequest) (string, error) {
	f.calls++
	f.last = req
	return f.replacement, f.err
}

func loaded(t *testing.T, text string, opts ...Option) *Document {
	t.Helper()
	doc := NewDocument(opts...)
	if err := doc.Load(text); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	return doc
}

func TestLoadSetsPhase(t *testing.T) {
	doc := NewDocument()
	if doc.Phase() != PhaseIdle {
		t.Fatalf("expected idle, got %s", doc.Phase())
	}
	if err := doc.Load("Hello world"); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if doc.Phase() != PhaseViewing || doc.Length() != 11 {
		t.Fatalf("expected viewing 11 runes, got %s %d", doc.Phase(), doc.Length())
	}
	if err := doc.Load(""); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if doc.Phase() != PhaseIdle {
		t.Fatalf("expected idle for empty script, got %s", doc.Phase())
	}
}

func TestSelect(t *testing.T) {
	doc := loaded(t, "Hello world")

	sel, err := doc.Select(11, 6)
	if err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	if sel.Start != 6 || sel.End != 11 || sel.Text != "world" {
		t.Fatalf("expected swapped selection of world, got %+v", sel)
	}
	if doc.Phase() != PhaseSelected {
		t.Fatalf("expected selected, got %s", doc.Phase())
	}

	if _, err := doc.Select(3, 3); err != nil {
		t.Fatalf("collapsed Select() error = %v", err)
	}
	if doc.Phase() != PhaseViewing {
		t.Fatalf("collapsed selection should clear, got %s", doc.Phase())
	}

	if _, err := doc.Select(0, 12); !errors.Is(err, ErrRangeOutOfBounds) {
		t.Fatalf("expected out of bounds, got %v", err)
	}
	if _, err := doc.Select(-1, 2); !errors.Is(err, ErrRangeOutOfBounds) {
		t.Fatalf("expected out of bounds, got %v", err)
	}
}

func TestSelectWithoutScript(t *testing.T) {
	if _, err := NewDocument().Select(0, 1); !errors.Is(err, ErrNoScript) {
		t.Fatalf("expected ErrNoScript, got %v", err)
	}
}

func TestSelectCountsRunes(t *testing.T) {
	doc := loaded(t, "naïve café")
	sel, err := doc.Select(6, 10)
	if err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	if sel.Text != "café" {
		t.Fatalf("expected café, got %q", sel.Text)
	}
}

func TestEditSplicesAndReselects(t *testing.T) {
	doc := loaded(t, "Hello world")
	if _, err := doc.Select(6, 11); err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	editor := &fakeEditor{replacement: "EARTH"}

	sel, err := doc.Edit(context.Background(), editor, "uppercase it")
	if err != nil {
		t.Fatalf("Edit() error = %v", err)
	}
	if doc.Text() != "Hello EARTH" {
		t.Fatalf("expected Hello EARTH, got %q", doc.Text())
	}
	if sel.Start != 6 || sel.End != 11 || sel.Text != "EARTH" {
		t.Fatalf("unexpected reselection %+v", sel)
	}
	if editor.last.SelectedText != "world" || editor.last.Instruction != "uppercase it" {
		t.Fatalf("unexpected request %+v", editor.last)
	}
	if !doc.CanUndo() {
		t.Fatal("expected undo to be available")
	}
	if err := doc.Undo(); err != nil {
		t.Fatalf("Undo() error = %v", err)
	}
	if doc.Text() != "Hello world" || doc.Phase() != PhaseViewing {
		t.Fatalf("undo did not restore: %q %s", doc.Text(), doc.Phase())
	}
	if err := doc.Undo(); !errors.Is(err, ErrNothingToUndo) {
		t.Fatalf("expected single undo frame, got %v", err)
	}
}

func TestSpliceLengthArithmetic(t *testing.T) {
	cases := []struct {
		text        string
		start, end  int
		replacement string
	}{
		{"Hello world", 6, 11, "EARTH"},
		{"Hello world", 0, 5, "Goodbye"},
		{"Hello world", 5, 6, ""},
		{"naïve café", 0, 5, "clever"},
		{"αβγ", 1, 2, "δεζη"},
	}
	for _, tc := range cases {
		doc := loaded(t, tc.text)
		if _, err := doc.Select(tc.start, tc.end); err != nil {
			t.Fatalf("Select() error = %v", err)
		}
		before := doc.Length()
		if _, err := doc.Edit(context.Background(), &fakeEditor{replacement: tc.replacement}, "go"); err != nil {
			t.Fatalf("Edit() error = %v", err)
		}
		want := before - (tc.end - tc.start) + textrange.Len(tc.replacement)
		if doc.Length() != want {
			t.Fatalf("%q: expected length %d, got %d", tc.text, want, doc.Length())
		}
		prefix := textrange.Slice(tc.text, textrange.Range{Start: 0, End: tc.start})
		if got := textrange.Slice(doc.Text(), textrange.Range{Start: 0, End: tc.start}); got != prefix {
			t.Fatalf("%q: prefix changed to %q", tc.text, got)
		}
	}
}

func TestEchoEditIsNoOp(t *testing.T) {
	doc := loaded(t, "Hello world")
	if _, err := doc.Select(0, 5); err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	if _, err := doc.Edit(context.Background(), &fakeEditor{replacement: "Hello"}, "keep"); err != nil {
		t.Fatalf("Edit() error = %v", err)
	}
	if doc.Text() != "Hello world" {
		t.Fatalf("expected unchanged text, got %q", doc.Text())
	}
}

func TestEmptyReplacementClearsSelection(t *testing.T) {
	doc := loaded(t, "Hello world")
	if _, err := doc.Select(5, 11); err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	sel, err := doc.Edit(context.Background(), &fakeEditor{replacement: ""}, "drop it")
	if err != nil {
		t.Fatalf("Edit() error = %v", err)
	}
	if sel != (Selection{}) || doc.Phase() != PhaseViewing || doc.Text() != "Hello" {
		t.Fatalf("unexpected result %+v %s %q", sel, doc.Phase(), doc.Text())
	}
}

func TestBlankInstructionDoesNotCallEditor(t *testing.T) {
	doc := loaded(t, "Hello world")
	if _, err := doc.Select(0, 5); err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	editor := &fakeEditor{replacement: "x"}
	if _, err := doc.Edit(context.Background(), editor, "  \t"); !errors.Is(err, ErrBlankInstruction) {
		t.Fatalf("expected ErrBlankInstruction, got %v", err)
	}
	if editor.calls != 0 || doc.Phase() != PhaseSelected {
		t.Fatalf("expected no call and unchanged phase, got %d %s", editor.calls, doc.Phase())
	}
}

func TestEditWithoutSelection(t *testing.T) {
	doc := loaded(t, "Hello world")
	editor := &fakeEditor{}
	if _, err := doc.Select(4, 4); err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	if _, err := doc.Edit(context.Background(), editor, "go"); !errors.Is(err, ErrNoSelection) {
		t.Fatalf("expected ErrNoSelection, got %v", err)
	}
	if editor.calls != 0 {
		t.Fatal("collapsed selection must never reach the service")
	}
}

func TestFailedEditKeepsState(t *testing.T) {
	doc := loaded(t, "Hello world")
	if _, err := doc.Select(6, 11); err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	boom := errors.New("boom")
	if _, err := doc.Edit(context.Background(), &fakeEditor{err: boom}, "go"); !errors.Is(err, boom) {
		t.Fatalf("expected editor error, got %v", err)
	}
	sel, ok := doc.Selection()
	if !ok || sel.Text != "world" || doc.Phase() != PhaseSelected {
		t.Fatalf("selection not restored: %+v %s", sel, doc.Phase())
	}
	if doc.Text() != "Hello world" || doc.CanUndo() {
		t.Fatal("failed edit must not change text or undo")
	}
}

func TestEditingLocksDocument(t *testing.T) {
	doc := loaded(t, "Hello world")
	if _, err := doc.Select(6, 11); err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	if _, err := doc.BeginEdit("shout"); err != nil {
		t.Fatalf("BeginEdit() error = %v", err)
	}
	if instr, ok := doc.Instruction(); !ok || instr != "shout" {
		t.Fatalf("expected pending instruction, got %q %v", instr, ok)
	}
	if _, err := doc.BeginEdit("again"); !errors.Is(err, ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}
	if _, err := doc.Select(0, 1); !errors.Is(err, ErrBusy) {
		t.Fatalf("expected ErrBusy on select, got %v", err)
	}
	if err := doc.SetText("x"); !errors.Is(err, ErrBusy) {
		t.Fatalf("expected ErrBusy on SetText, got %v", err)
	}
	if err := doc.Load("x"); !errors.Is(err, ErrBusy) {
		t.Fatalf("expected ErrBusy on Load, got %v", err)
	}
	if err := doc.Undo(); !errors.Is(err, ErrBusy) {
		t.Fatalf("expected ErrBusy on Undo, got %v", err)
	}
	if _, err := doc.CompleteEdit("EARTH"); err != nil {
		t.Fatalf("CompleteEdit() error = %v", err)
	}
	if _, err := doc.CompleteEdit("again"); !errors.Is(err, ErrNotEditing) {
		t.Fatalf("expected ErrNotEditing, got %v", err)
	}
}

func TestGenerateThenUndoIsNoOp(t *testing.T) {
	doc := loaded(t, "first draft")
	if _, err := doc.Select(0, 5); err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	if _, err := doc.Edit(context.Background(), &fakeEditor{replacement: "FIRST"}, "caps"); err != nil {
		t.Fatalf("Edit() error = %v", err)
	}
	if err := doc.Load("second draft"); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if err := doc.Undo(); !errors.Is(err, ErrNothingToUndo) {
		t.Fatalf("expected ErrNothingToUndo, got %v", err)
	}
	if doc.Text() != "second draft" {
		t.Fatalf("undo after generation changed text: %q", doc.Text())
	}
}

func TestSetTextKeepsUndo(t *testing.T) {
	doc := loaded(t, "Hello world")
	if _, err := doc.Select(6, 11); err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	if _, err := doc.Edit(context.Background(), &fakeEditor{replacement: "EARTH"}, "caps"); err != nil {
		t.Fatalf("Edit() error = %v", err)
	}
	if err := doc.SetText("Hello EARTH!"); err != nil {
		t.Fatalf("SetText() error = %v", err)
	}
	if _, ok := doc.Selection(); ok {
		t.Fatal("SetText must clear the selection")
	}
	if err := doc.Undo(); err != nil {
		t.Fatalf("Undo() error = %v", err)
	}
	if doc.Text() != "Hello world" {
		t.Fatalf("expected pre-edit snapshot, got %q", doc.Text())
	}
}

func TestUndoDepth(t *testing.T) {
	doc := loaded(t, "abc", WithUndoDepth(2))
	for _, r := range []string{"X", "Y", "Z"} {
		if _, err := doc.Select(0, 1); err != nil {
			t.Fatalf("Select() error = %v", err)
		}
		if _, err := doc.Edit(context.Background(), &fakeEditor{replacement: r}, "swap"); err != nil {
			t.Fatalf("Edit() error = %v", err)
		}
	}
	if doc.Text() != "Zbc" {
		t.Fatalf("expected Zbc, got %q", doc.Text())
	}
	for _, want := range []string{"Ybc", "Xbc"} {
		if err := doc.Undo(); err != nil {
			t.Fatalf("Undo() error = %v", err)
		}
		if doc.Text() != want {
			t.Fatalf("expected %q, got %q", want, doc.Text())
		}
	}
	if err := doc.Undo(); !errors.Is(err, ErrNothingToUndo) {
		t.Fatalf("expected history of two, got %v", err)
	}
}

func TestDefaultUndoDepthOverwrites(t *testing.T) {
	doc := loaded(t, "abc")
	for _, r := range []string{"X", "Y"} {
		if _, err := doc.Select(0, 1); err != nil {
			t.Fatalf("Select() error = %v", err)
		}
		if _, err := doc.Edit(context.Background(), &fakeEditor{replacement: r}, "swap"); err != nil {
			t.Fatalf("Edit() error = %v", err)
		}
	}
	if err := doc.Undo(); err != nil {
		t.Fatalf("Undo() error = %v", err)
	}
	if doc.Text() != "Xbc" {
		t.Fatalf("expected most recent snapshot only, got %q", doc.Text())
	}
	if doc.CanUndo() {
		t.Fatal("depth-1 history should be empty")
	}
}
