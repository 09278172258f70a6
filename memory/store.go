// Package memory provides the context composition pipeline for the chat
// loop: a file-backed key-value store holding the developer prompt template
// and the usage snapshot, and a Composer that assembles the bounded history
// slice sent to the completion engine on each turn.
package memory

import "context"

// Well-known store keys.
const (
	// KeyPromptTemplate is the developer prompt template, reloadable at
	// runtime via the prompt-reload meta-command.
	KeyPromptTemplate = "ixc_prompt.md"
	// KeyUsageSnapshot receives the final cumulative token counters at quit.
	KeyUsageSnapshot = "usage.json"
)

// Entry is a key-value pair in the store. Keys are /-separated relative
// paths and values are raw bytes.
type Entry struct {
	Key   string
	Value []byte
}

// Store persists entries outside the process. Implementations are
// stateless; every call performs I/O.
type Store interface {
	// List returns all available keys.
	List(ctx context.Context) ([]string, error)
	// Load retrieves entries for the specified keys.
	Load(ctx context.Context, keys ...string) ([]Entry, error)
	// Save persists entries, creating or overwriting as needed.
	Save(ctx context.Context, entries ...Entry) error
	// Delete removes entries. Missing keys are ignored.
	Delete(ctx context.Context, keys ...string) error
}
