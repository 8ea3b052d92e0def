package guide

import (
	"fmt"
	"strconv"

	"github.com/milespries/script-studio-ai/internal/studio"
)

// Step represents one actionable recommendation for the current phase.
type Step struct {
	Title       string
	Description string
}

// Status carries just enough context for picking the steps.
type Status struct {
	Phase         studio.Phase
	CanUndo       bool
	Generating    bool
	LengthMinutes float64
}

// Hint returns the one-line status shown next to the script.
func Hint(phase studio.Phase) string {
	switch phase {
	case studio.PhaseSelected, studio.PhaseEditing:
		return "Selection locked for AI edit"
	case studio.PhaseViewing:
		return "Select text to edit"
	default:
		return "No script yet"
	}
}

// Build returns the workflow steps that apply to status.
func Build(status Status) []Step {
	if status.Generating {
		return []Step{{
			Title:       "Generating",
			Description: fmt.Sprintf("Drafting a script of about %s minutes. The current script stays until the new one arrives.", formatMinutes(status.LengthMinutes)),
		}}
	}

	var steps []Step
	switch status.Phase {
	case studio.PhaseIdle:
		steps = append(steps,
			Step{Title: "Describe your video", Description: "Press g, type the idea, pick a length with ↑/↓ and press Enter."},
		)
	case studio.PhaseViewing:
		steps = append(steps,
			Step{Title: "Select a passage", Description: "Press v to start a selection and move the cursor to extend it."},
			Step{Title: "Edit by hand", Description: "Press i to type directly into the script; Esc returns to normal mode."},
			Step{Title: "Start over", Description: "Press g to generate a new script. This clears the undo history."},
		)
	case studio.PhaseSelected:
		steps = append(steps,
			Step{Title: "Rewrite the selection", Description: "Press e, describe the change and press Enter. Only the selected text is replaced."},
			Step{Title: "Copy it", Description: "Press y to copy the selected text to the clipboard."},
		)
	case studio.PhaseEditing:
		steps = append(steps,
			Step{Title: "Waiting for the model", Description: "The selection is locked until the rewrite returns."},
		)
	}
	if status.CanUndo {
		steps = append(steps, Step{Title: "Undo last edit", Description: "Press u to restore the script from before the last AI edit."})
	}
	return steps
}

func formatMinutes(minutes float64) string {
	return strconv.FormatFloat(minutes, 'f', -1, 64)
}
