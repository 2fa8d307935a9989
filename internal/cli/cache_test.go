package cli

import (
	"os"
	"path/filepath"
	"testing"
)

func TestClearDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "ab"), 0o755); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"one.json", filepath.Join("ab", "two.json")} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("{}"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	count, err := clearDir(dir)
	if err != nil {
		t.Fatalf("clearDir() error: %v", err)
	}
	if count != 2 {
		t.Errorf("clearDir() = %d, want 2", count)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("directory should be empty, has %d entries", len(entries))
	}
}

func TestClearDirMissing(t *testing.T) {
	count, err := clearDir(filepath.Join(t.TempDir(), "missing"))
	if err != nil {
		t.Fatalf("clearDir() error: %v", err)
	}
	if count != 0 {
		t.Errorf("clearDir() = %d, want 0", count)
	}
}
