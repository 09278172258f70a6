package controller

// Presenter renders controller output to the operator. The CLI supplies a
// terminal implementation; tests use a capture fake.
type Presenter interface {
	// ShowAnswer renders a final model answer. The text is markdown.
	ShowAnswer(markdown string)
	// ShowDeviceOutput renders raw device command output.
	ShowDeviceOutput(text string)
	// ShowInfo renders informational controller output (menu, prompt
	// template, model list, counters).
	ShowInfo(text string)
	// ShowError renders a turn-level failure. The session stays usable.
	ShowError(err error)
	// ConfirmConfig shows a proposed configuration change and asks the
	// operator to approve it. False discards the proposal unsent.
	ConfirmConfig(lines []string) bool
}
