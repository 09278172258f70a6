package engine

import (
	"fmt"
	"sort"
	"sync"
)

// ModelInfo describes one selectable model.
type ModelInfo struct {
	ID          string `json:"id"`
	Description string `json:"description,omitempty"`
}

// Registry is the known-model set the model-select meta-command validates
// against. Thread-safe.
type Registry struct {
	mu     sync.RWMutex
	models map[string]ModelInfo
	order  []string
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{models: make(map[string]ModelInfo)}
}

// DefaultRegistry returns a Registry populated with the stock model set.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(ModelInfo{ID: "gpt-5-mini", Description: "default, balanced cost and quality"})
	r.Register(ModelInfo{ID: "gpt-5", Description: "highest quality"})
	r.Register(ModelInfo{ID: "gpt-5-nano", Description: "fastest, cheapest"})
	return r
}

// Register adds or replaces a model entry.
func (r *Registry) Register(info ModelInfo) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.models[info.ID]; !exists {
		r.order = append(r.order, info.ID)
	}
	r.models[info.ID] = info
}

// Lookup returns the entry for a model id, or ErrModelUnknown.
func (r *Registry) Lookup(id string) (ModelInfo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	info, exists := r.models[id]
	if !exists {
		return ModelInfo{}, fmt.Errorf("%w: %s", ErrModelUnknown, id)
	}
	return info, nil
}

// Known reports whether a model id is in the registry.
func (r *Registry) Known(id string) bool {
	_, err := r.Lookup(id)
	return err == nil
}

// List returns all entries in registration order.
func (r *Registry) List() []ModelInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	infos := make([]ModelInfo, 0, len(r.order))
	for _, id := range r.order {
		infos = append(infos, r.models[id])
	}
	return infos
}

// IDs returns all model ids, sorted.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.models))
	for id := range r.models {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
