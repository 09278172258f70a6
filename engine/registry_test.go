package engine_test

import (
	"errors"
	"testing"

	"github.com/netop-tools/ixc/engine"
)

func TestDefaultRegistry_KnownModels(t *testing.T) {
	r := engine.DefaultRegistry()

	for _, id := range []string{"gpt-5-mini", "gpt-5", "gpt-5-nano"} {
		if !r.Known(id) {
			t.Errorf("Known(%q) = false, want true", id)
		}
	}
}

func TestRegistry_Lookup_Unknown(t *testing.T) {
	r := engine.DefaultRegistry()

	_, err := r.Lookup("gpt-2")
	if !errors.Is(err, engine.ErrModelUnknown) {
		t.Errorf("Lookup error = %v, want ErrModelUnknown", err)
	}
}

func TestRegistry_List_RegistrationOrder(t *testing.T) {
	r := engine.NewRegistry()
	r.Register(engine.ModelInfo{ID: "b"})
	r.Register(engine.ModelInfo{ID: "a"})
	r.Register(engine.ModelInfo{ID: "c"})

	infos := r.List()
	if len(infos) != 3 {
		t.Fatalf("got %d entries, want 3", len(infos))
	}
	for i, want := range []string{"b", "a", "c"} {
		if infos[i].ID != want {
			t.Errorf("List()[%d] = %q, want %q", i, infos[i].ID, want)
		}
	}
}

func TestRegistry_Register_ReplaceKeepsOrder(t *testing.T) {
	r := engine.NewRegistry()
	r.Register(engine.ModelInfo{ID: "a", Description: "old"})
	r.Register(engine.ModelInfo{ID: "b"})
	r.Register(engine.ModelInfo{ID: "a", Description: "new"})

	infos := r.List()
	if len(infos) != 2 {
		t.Fatalf("got %d entries, want 2", len(infos))
	}
	if infos[0].ID != "a" || infos[0].Description != "new" {
		t.Errorf("List()[0] = %+v, want updated entry for a", infos[0])
	}
}
