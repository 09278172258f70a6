package device

import "fmt"

// CommandError is a per-command show failure: guard rejection, timeout, or
// garbled output. It never aborts sibling commands.
type CommandError struct {
	Command string
	Reason  string
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("command %q: %s", e.Command, e.Reason)
}

// ConfigError is a transport-level configure failure (connection lost,
// config mode unreachable). Line rejections are reported via ConfigResult
// instead.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return "configure: " + e.Reason
}
