package device

import (
	"fmt"
	"regexp"
)

// forbiddenRE matches command stems the model is never allowed to run over
// the show channel: copy, configure, clear (co...), reload, relocate (re...),
// debug, delete (de...). Case-insensitive, matching the device's own prefix
// abbreviation behavior.
var forbiddenRE = regexp.MustCompile(`(?i)^\s*(co|re|de)\S*`)

// Forbidden reports whether a model-requested command is blocked by policy.
// Operator-typed direct commands are not subject to this check.
func Forbidden(command string) bool {
	return forbiddenRE.MatchString(command)
}

// GuardCheck returns a CommandError for forbidden commands, nil otherwise.
// The reason text is fed back to the model verbatim so it learns the
// command was blocked rather than failed.
func GuardCheck(command string) error {
	if !Forbidden(command) {
		return nil
	}
	return &CommandError{
		Command: command,
		Reason:  fmt.Sprintf("%%FORBIDDEN COMMAND: %s", command),
	}
}
