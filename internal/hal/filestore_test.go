package hal

import (
	"path/filepath"
	"testing"
)

func TestFileStorePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.yaml")

	store, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if err := store.PutString("moduleId", "M1"); err != nil {
		t.Fatalf("put string: %v", err)
	}
	if err := store.PutInt("numLockers", 2); err != nil {
		t.Fatalf("put int: %v", err)
	}

	reopened, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	if got := reopened.GetString("moduleId", ""); got != "M1" {
		t.Fatalf("expected moduleId M1, got %q", got)
	}
	if got := reopened.GetInt("numLockers", 0); got != 2 {
		t.Fatalf("expected numLockers 2, got %d", got)
	}
}

func TestFileStoreFallbacks(t *testing.T) {
	store, err := NewFileStore(filepath.Join(t.TempDir(), "store.yaml"))
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	if got := store.GetString("missing", "fallback"); got != "fallback" {
		t.Fatalf("expected fallback, got %q", got)
	}
	if got := store.GetInt("missing", 42); got != 42 {
		t.Fatalf("expected 42, got %d", got)
	}
}

func TestFileStoreClearWipesEverything(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.yaml")

	store, _ := NewFileStore(path)
	_ = store.PutString("moduleId", "M1")
	_ = store.PutInt("numLockers", 1)

	if err := store.Clear(); err != nil {
		t.Fatalf("clear: %v", err)
	}

	reopened, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("reopen after clear: %v", err)
	}
	if got := reopened.GetString("moduleId", ""); got != "" {
		t.Fatalf("expected wiped store, got moduleId %q", got)
	}
	if got := reopened.GetInt("numLockers", 0); got != 0 {
		t.Fatalf("expected wiped store, got numLockers %d", got)
	}
}

func TestFileStoreMissingFileIsEmpty(t *testing.T) {
	store, err := NewFileStore(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err != nil {
		t.Fatalf("new store on missing file: %v", err)
	}
	if got := store.GetString("anything", "x"); got != "x" {
		t.Fatalf("expected empty store")
	}
}
