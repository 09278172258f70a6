package memory_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/netop-tools/ixc/memory"
)

func writeTestFile(t *testing.T, root, key, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestFileStore_List_MissingRoot(t *testing.T) {
	store := memory.NewFileStore(filepath.Join(t.TempDir(), "nonexistent"))

	keys, err := store.List(context.Background())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(keys) != 0 {
		t.Errorf("List() returned %d keys, want 0", len(keys))
	}
}

func TestFileStore_List_SkipsDotfiles(t *testing.T) {
	root := t.TempDir()
	writeTestFile(t, root, memory.KeyPromptTemplate, "You are a network assistant.")
	writeTestFile(t, root, ".hidden", "nope")

	store := memory.NewFileStore(root)
	keys, err := store.List(context.Background())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}

	if len(keys) != 1 || keys[0] != memory.KeyPromptTemplate {
		t.Errorf("List() = %v, want [%q]", keys, memory.KeyPromptTemplate)
	}
}

func TestFileStore_Load(t *testing.T) {
	root := t.TempDir()
	writeTestFile(t, root, memory.KeyPromptTemplate, "template body")

	store := memory.NewFileStore(root)
	entries, err := store.Load(context.Background(), memory.KeyPromptTemplate)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("Load() returned %d entries, want 1", len(entries))
	}
	if string(entries[0].Value) != "template body" {
		t.Errorf("Load() value = %q, want %q", entries[0].Value, "template body")
	}
}

func TestFileStore_Load_MissingKey(t *testing.T) {
	store := memory.NewFileStore(t.TempDir())

	_, err := store.Load(context.Background(), "absent.md")
	if !errors.Is(err, memory.ErrKeyNotFound) {
		t.Errorf("Load() error = %v, want ErrKeyNotFound", err)
	}
}

func TestFileStore_Save_RoundTrip(t *testing.T) {
	store := memory.NewFileStore(t.TempDir())
	ctx := context.Background()

	entry := memory.Entry{Key: memory.KeyUsageSnapshot, Value: []byte(`{"input_tokens":10}`)}
	if err := store.Save(ctx, entry); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	entries, err := store.Load(ctx, memory.KeyUsageSnapshot)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if string(entries[0].Value) != `{"input_tokens":10}` {
		t.Errorf("round trip value = %q", entries[0].Value)
	}
}

func TestFileStore_Save_Overwrite(t *testing.T) {
	store := memory.NewFileStore(t.TempDir())
	ctx := context.Background()

	if err := store.Save(ctx, memory.Entry{Key: "k", Value: []byte("one")}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := store.Save(ctx, memory.Entry{Key: "k", Value: []byte("two")}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	entries, err := store.Load(ctx, "k")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if string(entries[0].Value) != "two" {
		t.Errorf("got %q after overwrite, want %q", entries[0].Value, "two")
	}
}

func TestFileStore_Delete_MissingKeyIgnored(t *testing.T) {
	store := memory.NewFileStore(t.TempDir())

	if err := store.Delete(context.Background(), "never-existed"); err != nil {
		t.Errorf("Delete() error = %v, want nil", err)
	}
}

func TestNewStore_DisabledWithoutPath(t *testing.T) {
	cfg := memory.DefaultConfig()

	store, err := memory.NewStore(&cfg)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	if store != nil {
		t.Error("NewStore() with empty path should return nil store")
	}
}
