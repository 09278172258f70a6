package memory

import "github.com/netop-tools/ixc/core/protocol"

// TokenCounter estimates the token cost of a composed message slice. The
// completion engine adapter supplies the implementation, since tokenization
// is a property of the model family.
type TokenCounter interface {
	ContextTokens(msgs []protocol.Message) int
}

// Composer assembles the history slice sent to the completion engine. When
// the token estimate exceeds the budget it drops whole turn blocks from the
// oldest end, preferring blocks not initiated by an operator query, and
// never splits a request/response pair. The most recent block is always
// kept regardless of budget.
type Composer struct {
	counter TokenCounter
	budget  int
}

// NewComposer creates a Composer with the given counter and token budget.
// A zero or negative budget disables truncation.
func NewComposer(counter TokenCounter, budget int) *Composer {
	return &Composer{counter: counter, budget: budget}
}

// block is a contiguous run of turns that must survive or be dropped
// together. initiator is the role of its first turn.
type block struct {
	initiator protocol.Role
	turns     []protocol.Turn
}

// Compose maps the developer prompt and turn history onto the wire-format
// slice, applying the token budget.
func (c *Composer) Compose(system string, turns []protocol.Turn) []protocol.Message {
	blocks := groupBlocks(turns)

	for len(blocks) > 1 && c.overBudget(system, blocks) {
		blocks = dropOldest(blocks)
	}

	return flatten(system, blocks)
}

func (c *Composer) overBudget(system string, blocks []block) bool {
	if c.budget <= 0 || c.counter == nil {
		return false
	}
	return c.counter.ContextTokens(flatten(system, blocks)) > c.budget
}

// groupBlocks splits history into blocks. Every operator turn opens a new
// block; assistant and device turns extend the current one. A device turn
// with no open exchange (direct-command output appended between exchanges)
// forms its own block, which makes it the first candidate for truncation.
func groupBlocks(turns []protocol.Turn) []block {
	var blocks []block

	for _, turn := range turns {
		switch {
		case turn.Role == protocol.RoleOperator:
			blocks = append(blocks, block{initiator: turn.Role, turns: []protocol.Turn{turn}})
		case len(blocks) > 0 && blocks[len(blocks)-1].initiator == protocol.RoleOperator:
			last := &blocks[len(blocks)-1]
			last.turns = append(last.turns, turn)
		default:
			blocks = append(blocks, block{initiator: turn.Role, turns: []protocol.Turn{turn}})
		}
	}

	return blocks
}

// dropOldest removes one block: the oldest non-operator-initiated block if
// any exists outside the final position, otherwise the oldest block.
func dropOldest(blocks []block) []block {
	for i := 0; i < len(blocks)-1; i++ {
		if blocks[i].initiator != protocol.RoleOperator {
			return append(blocks[:i:i], blocks[i+1:]...)
		}
	}
	return blocks[1:]
}

func flatten(system string, blocks []block) []protocol.Message {
	n := 0
	for _, b := range blocks {
		n += len(b.turns)
	}

	msgs := make([]protocol.Message, 0, n+1)
	if system != "" {
		msgs = append(msgs, protocol.Message{Role: protocol.WireSystem, Content: system})
	}
	for _, b := range blocks {
		for _, turn := range b.turns {
			msgs = append(msgs, protocol.Message{Role: turn.Role.Wire(), Content: turn.Payload})
		}
	}
	return msgs
}
