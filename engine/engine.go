// Package engine defines the completion-engine adapter consumed by the
// session controller, the known-model registry backing the model-select
// meta-command, and an implementation speaking the OpenAI-compatible
// chat-completions wire format.
package engine

import (
	"context"

	"github.com/netop-tools/ixc/core/protocol"
)

// Reply is one completion: the raw model text plus the usage figures the
// provider reported for the call.
type Reply struct {
	Text         string
	InputTokens  int64
	OutputTokens int64
}

// Engine is the completion-engine adapter. Complete blocks until the
// provider replies or ctx is cancelled; the adapter owns its timeout.
// ContextTokens reports the token cost of a composed message slice so the
// context manager can enforce its budget.
type Engine interface {
	Complete(ctx context.Context, msgs []protocol.Message, model string) (*Reply, error)
	ContextTokens(msgs []protocol.Message) int
}
