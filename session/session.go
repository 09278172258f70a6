// Package session owns the conversation state for one chat process: the
// ordered Turn history, the active model identifier, and the cumulative
// token counters. The Session value is created once at startup and passed
// by reference into every component that needs it; no component holds its
// own copy of conversation state.
package session

import (
	"sync"

	"github.com/google/uuid"
	"github.com/netop-tools/ixc/core/protocol"
)

// Usage holds cumulative token counters. Counters are process-lifetime:
// they survive a context reset and are flushed at quit.
type Usage struct {
	InputTokens  int64
	OutputTokens int64
}

// Total returns the combined input and output token count.
func (u Usage) Total() int64 {
	return u.InputTokens + u.OutputTokens
}

// Session is the conversation state for one process lifetime. Safe for
// concurrent use, though the controller drives it from a single logical
// thread.
type Session struct {
	id string

	mu    sync.RWMutex
	turns []protocol.Turn
	model string
	usage Usage
	depth int // operator queries in the current context window
}

// New creates a Session with the given active model and a UUIDv7 identifier.
func New(model string) *Session {
	return &Session{
		id:    uuid.Must(uuid.NewV7()).String(),
		model: model,
	}
}

// ID returns the unique session identifier.
func (s *Session) ID() string {
	return s.id
}

// Append adds a turn to the conversation history.
func (s *Session) Append(turn protocol.Turn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns = append(s.turns, turn)
}

// Turns returns a defensive copy of the conversation history.
func (s *Session) Turns() []protocol.Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()

	copied := make([]protocol.Turn, len(s.turns))
	copy(copied, s.turns)
	return copied
}

// Len returns the number of turns in history.
func (s *Session) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.turns)
}

// Model returns the active model identifier.
func (s *Session) Model() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.model
}

// SetModel switches the active model identifier. The caller validates the
// identifier against the known-model set before switching.
func (s *Session) SetModel(model string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.model = model
}

// AddUsage increments the cumulative token counters by one reply's
// reported usage.
func (s *Session) AddUsage(input, output int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.usage.InputTokens += input
	s.usage.OutputTokens += output
}

// Usage returns the cumulative token counters.
func (s *Session) Usage() Usage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.usage
}

// Depth returns the number of operator queries in the current context
// window. Shown in the REPL prompt frame.
func (s *Session) Depth() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.depth
}

// IncrementDepth records one more operator query in the current context.
func (s *Session) IncrementDepth() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.depth++
}

// Reset starts a new context window: history and depth are cleared, the
// model selection is kept, and the cumulative token counters are untouched
// (they are process-lifetime, not context-lifetime).
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns = nil
	s.depth = 0
}
