package tui

type stage int

const (
	stageCompose stage = iota
	stageGenerating
	stageScript
	stageInstruction
	stagePalette
)

const heroTagline = "Generate a script, then rewrite any part of it."

const (
	minViewportWidth          = 40
	viewportHorizontalPadding = 4
	selectionPreviewWidth     = 72
)

const (
	minLengthMinutes = 1
	maxLengthMinutes = 5
)

type interactionMode int

const (
	modeNormal interactionMode = iota
	modeSelect
	modeInsert
)

const (
	promptPlaceholder      = "Explain how gravity works in a fun way for short-form video..."
	instructionPlaceholder = `e.g. "make it more casual"`
)

const (
	msgPromptRequired      = "Please enter a prompt for your script."
	msgInstructionRequired = "Please describe how you want to change the selected text."
	msgEditInFlight        = "Wait for the current edit to finish."
)
