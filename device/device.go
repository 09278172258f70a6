// Package device defines the device-executor adapter consumed by the
// session controller and an SSH implementation for IOS-XE style network
// devices. Show commands run independently in submitted order; configure
// lines are order-critical and halt at the first rejected line.
package device

import "context"

// ShowResult is the outcome of one show command. Exactly one of Output or
// Err is meaningful; a failed command never aborts its siblings.
type ShowResult struct {
	Command string
	Output  string
	Err     error
}

// ConfigResult reports a configuration attempt: how many lines the device
// accepted before the first rejection, the raw output of the applied
// prefix, and the failing line with the device's reason when Applied is
// short of the submitted count.
type ConfigResult struct {
	Applied       int
	Output        string
	FailedLine    string
	FailureReason string
}

// Failed reports whether the device rejected a line.
func (r *ConfigResult) Failed() bool {
	return r.FailedLine != ""
}

// Executor is the device-channel adapter. Implementations own their
// timeouts; calls are synchronous and the controller never overlaps them.
type Executor interface {
	// RunShow submits each command in order and collects per-command
	// outcomes. A per-command failure is recorded in its ShowResult and
	// the remaining commands still run.
	RunShow(ctx context.Context, commands []string) []ShowResult

	// RunConfigure applies lines in order, stopping at the first line the
	// device rejects. The error return is reserved for transport failures;
	// rejection is reported in the ConfigResult.
	RunConfigure(ctx context.Context, lines []string) (*ConfigResult, error)

	// RunDirect submits one operator-supplied command, bypassing policy
	// checks applied to model-requested commands.
	RunDirect(ctx context.Context, command string) (string, error)

	// Prompt returns the device's current CLI prompt.
	Prompt() string

	// Close tears down the device connection.
	Close() error
}
