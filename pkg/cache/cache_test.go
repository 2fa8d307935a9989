package cache

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	herrors "github.com/matzehuels/hermes/pkg/errors"
)

func newTestCache(t *testing.T) *FileCache {
	t.Helper()
	c, err := NewFileCache(filepath.Join(t.TempDir(), ".hermes"))
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	return c
}

func TestFileCachePath(t *testing.T) {
	c := newTestCache(t)

	tests := []struct {
		parts []string
		want  string
	}{
		{[]string{"harvest", "cff"}, filepath.Join(c.Root(), "harvest", "cff.json")},
		{[]string{"process", "tags"}, filepath.Join(c.Root(), "process", "tags.json")},
		{[]string{"deposit", "invenio", "schema"}, filepath.Join(c.Root(), "deposit", "invenio", "schema.json")},
		{[]string{"audit"}, filepath.Join(c.Root(), "audit.json")},
	}

	for _, tt := range tests {
		got, err := c.Path(false, tt.parts...)
		if err != nil {
			t.Fatalf("Path(%v) error: %v", tt.parts, err)
		}
		if got != tt.want {
			t.Errorf("Path(%v) = %q, want %q", tt.parts, got, tt.want)
		}
	}

	if _, err := os.Stat(c.Root()); !os.IsNotExist(err) {
		t.Error("Path(create=false) should not touch the filesystem")
	}
}

func TestFileCachePathCreate(t *testing.T) {
	c := newTestCache(t)

	path, err := c.Path(true, "process", "tags")
	if err != nil {
		t.Fatalf("Path error: %v", err)
	}
	if info, err := os.Stat(filepath.Dir(path)); err != nil || !info.IsDir() {
		t.Errorf("parent of %s should exist", path)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("Path should not create the slot file itself")
	}
}

func TestFileCachePathInvalid(t *testing.T) {
	c := newTestCache(t)

	if _, err := c.Path(false); !errors.Is(err, ErrNoSlot) {
		t.Errorf("Path() with no parts: got %v, want ErrNoSlot", err)
	}
	for _, bad := range []string{"..", "a/b", "", ".lock"} {
		if _, err := c.Path(false, "harvest", bad); !herrors.Is(err, herrors.ErrCodeInvalidSlot) {
			t.Errorf("Path(harvest, %q): got %v, want INVALID_SLOT", bad, err)
		}
	}
}

func TestFileCacheInit(t *testing.T) {
	c := newTestCache(t)

	if c.Initialized("harvest") {
		t.Fatal("stage should not be initialized yet")
	}
	if err := c.Init("harvest"); err != nil {
		t.Fatalf("Init error: %v", err)
	}
	if !c.Initialized("harvest") {
		t.Error("stage should be initialized after Init")
	}
	// Idempotent
	if err := c.Init("harvest"); err != nil {
		t.Errorf("second Init error: %v", err)
	}
}

func TestFileCacheStoreLoad(t *testing.T) {
	c := newTestCache(t)

	in := map[string][]string{"name": {"cff", "pyproject"}}
	if err := c.Store(in, "process", "tags"); err != nil {
		t.Fatalf("Store error: %v", err)
	}

	var out map[string][]string
	if err := c.Load(&out, "process", "tags"); err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if len(out["name"]) != 2 || out["name"][0] != "cff" || out["name"][1] != "pyproject" {
		t.Errorf("Load = %v, want %v", out, in)
	}
}

func TestFileCacheLoadMissing(t *testing.T) {
	c := newTestCache(t)

	var out map[string]any
	err := c.Load(&out, "harvest", "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Load missing: got %v, want ErrNotFound", err)
	}
	if !herrors.Is(err, herrors.ErrCodeCacheMissing) {
		t.Errorf("Load missing: code = %v, want CACHE_MISSING", herrors.GetCode(err))
	}
}

func TestFileCacheLoadCorrupt(t *testing.T) {
	c := newTestCache(t)

	path, err := c.Path(true, "harvest", "broken")
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	var out map[string]any
	if err := c.Load(&out, "harvest", "broken"); !herrors.Is(err, herrors.ErrCodeCacheCorrupt) {
		t.Errorf("Load corrupt: got %v, want CACHE_CORRUPT", err)
	}
}

func TestFileCachePurge(t *testing.T) {
	c := newTestCache(t)

	// Purging a missing root succeeds
	if err := c.Purge(); err != nil {
		t.Fatalf("Purge on missing root: %v", err)
	}

	if err := c.Store(map[string]int{"a": 1}, "harvest", "cff"); err != nil {
		t.Fatal(err)
	}
	if err := c.Purge(); err != nil {
		t.Fatalf("Purge error: %v", err)
	}
	if _, err := os.Stat(c.Root()); !os.IsNotExist(err) {
		t.Error("cache root should be gone after Purge")
	}

	// The cache is usable again afterwards
	path, err := c.Path(true, "process", "codemeta")
	if err != nil {
		t.Fatalf("Path after purge: %v", err)
	}
	if err := os.WriteFile(path, []byte("{}"), 0o644); err != nil {
		t.Errorf("slot not writable after purge: %v", err)
	}
}

func TestScoped(t *testing.T) {
	c := newTestCache(t)
	s := NewScoped(c, "harvest")

	if s.Stage() != "harvest" {
		t.Errorf("Stage() = %q", s.Stage())
	}
	if err := s.Init(); err != nil {
		t.Fatal(err)
	}
	if !c.Initialized("harvest") {
		t.Error("scoped Init should initialize the stage")
	}

	if err := s.Store([]int{1, 2}, "git"); err != nil {
		t.Fatal(err)
	}
	var out []int
	if err := c.Load(&out, "harvest", "git"); err != nil {
		t.Fatalf("slot should be below the stage: %v", err)
	}

	path, _ := s.Path(false, "git")
	if path != filepath.Join(c.Root(), "harvest", "git.json") {
		t.Errorf("scoped Path = %q", path)
	}
}
