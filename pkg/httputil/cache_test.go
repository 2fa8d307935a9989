package httputil

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestCache_GetSet(t *testing.T) {
	c, _ := NewCache(t.TempDir(), time.Hour)

	tests := []struct {
		name  string
		key   string
		value any
	}{
		{"simple", "key1", map[string]string{"foo": "bar"}},
		{"string", "key2", "test"},
		{"nested", "key3", map[string]any{"a": map[string]int{"b": 1}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := c.Set(tt.key, tt.value); err != nil {
				t.Fatalf("Set() failed: %v", err)
			}

			var result any
			ok, err := c.Get(tt.key, &result)
			if err != nil {
				t.Fatalf("Get() failed: %v", err)
			}
			if !ok {
				t.Fatal("Get() returned false for existing key")
			}
		})
	}
}

func TestCache_Miss(t *testing.T) {
	c, _ := NewCache(t.TempDir(), time.Hour)
	var result string
	ok, err := c.Get("missing", &result)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Error("Get() returned true for missing key")
	}
}

func TestCache_Corrupt(t *testing.T) {
	c, _ := NewCache(t.TempDir(), time.Hour)
	if err := os.WriteFile(c.keyPath("bad"), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	var result map[string]any
	ok, err := c.Get("bad", &result)
	if ok || err == nil {
		t.Errorf("Get() = %v, %v; want false and a decode error", ok, err)
	}
}

func TestCache_Expiration(t *testing.T) {
	c, _ := NewCache(t.TempDir(), 10*time.Millisecond)

	if err := c.Set("key", "value"); err != nil {
		t.Fatalf("Set() failed: %v", err)
	}

	var res string
	ok, err := c.Get("key", &res)
	if err != nil || !ok {
		t.Fatalf("Get() = %v, %v; want true, nil", ok, err)
	}

	time.Sleep(20 * time.Millisecond)

	ok, err = c.Get("key", &res)
	if !errors.Is(err, ErrExpired) {
		t.Errorf("got error %v, want ErrExpired", err)
	}
	if ok {
		t.Error("Get() returned true for expired key")
	}
}

func TestCache_KeyStability(t *testing.T) {
	c, _ := NewCache(t.TempDir(), time.Hour)
	p1 := c.keyPath("test")
	p2 := c.keyPath("test")
	if p1 != p2 {
		t.Error("path should be deterministic")
	}
	if p3 := c.keyPath("other"); p1 == p3 {
		t.Error("different keys should produce different paths")
	}
	if filepath.Dir(p1) != c.Dir() {
		t.Errorf("entry %s should live directly in %s", p1, c.Dir())
	}
}

func TestNewCache_DefaultDir(t *testing.T) {
	xdg := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", xdg)

	c, err := NewCache("", time.Hour)
	if err != nil {
		t.Fatalf("NewCache() failed: %v", err)
	}

	want := filepath.Join(xdg, "hermes")
	if c.Dir() != want {
		t.Errorf("got Dir = %s, want %s", c.Dir(), want)
	}
	if c.TTL() != time.Hour {
		t.Errorf("got TTL = %v, want 1h", c.TTL())
	}
	if _, err := os.Stat(c.Dir()); err != nil {
		t.Errorf("directory not created: %v", err)
	}
}

func TestCache_Namespace(t *testing.T) {
	c, _ := NewCache(t.TempDir(), time.Hour)

	t.Run("basicNamespacing", func(t *testing.T) {
		github := c.Namespace("github:")
		schema := c.Namespace("schema:")

		if err := github.Set("item", "github-data"); err != nil {
			t.Fatalf("github.Set() failed: %v", err)
		}
		if err := schema.Set("item", "schema-data"); err != nil {
			t.Fatalf("schema.Set() failed: %v", err)
		}

		var githubVal, schemaVal string
		if ok, err := github.Get("item", &githubVal); !ok || err != nil {
			t.Fatalf("github.Get() = %v, %v; want true, nil", ok, err)
		}
		if ok, err := schema.Get("item", &schemaVal); !ok || err != nil {
			t.Fatalf("schema.Get() = %v, %v; want true, nil", ok, err)
		}

		if githubVal != "github-data" {
			t.Errorf("got github value %q, want %q", githubVal, "github-data")
		}
		if schemaVal != "schema-data" {
			t.Errorf("got schema value %q, want %q", schemaVal, "schema-data")
		}
	})

	t.Run("chainedNamespacing", func(t *testing.T) {
		deposit := c.Namespace("deposit:")
		invenio := deposit.Namespace("invenio:")

		if err := invenio.Set("test", "value"); err != nil {
			t.Fatalf("Set() failed: %v", err)
		}

		var result string
		ok, err := invenio.Get("test", &result)
		if !ok || err != nil || result != "value" {
			t.Errorf("Get() = %v, %v, %q; want true, nil, %q", ok, err, result, "value")
		}

		if found, _ := deposit.Get("test", &result); found {
			t.Error("value accessible without full namespace chain")
		}
	})

	t.Run("preservesDirAndTTL", func(t *testing.T) {
		ns := c.Namespace("test:")
		if ns.Dir() != c.Dir() {
			t.Errorf("Dir() = %s, want %s", ns.Dir(), c.Dir())
		}
		if ns.TTL() != c.TTL() {
			t.Errorf("TTL() = %v, want %v", ns.TTL(), c.TTL())
		}
	})
}
