// Package cache persists workflow state between stage invocations.
//
// A cache is a directory tree of JSON documents, one per named slot:
//
//	<root>/<stage>/<slot...>.json
//
// Stages mark themselves as started by creating their directory ([Cache.Init])
// and later stages read the documents back ([Cache.Load]). The whole tree is
// removed with [Cache.Purge].
package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/renameio/v2"

	herrors "github.com/matzehuels/hermes/pkg/errors"
)

// Cache is a slot-addressed store of JSON documents.
type Cache interface {
	// Root returns the directory all slots live under.
	Root() string

	// Path resolves the file path for a slot. If create is true, the parent
	// directories are created. The file itself is never opened.
	Path(create bool, parts ...string) (string, error)

	// Init marks a stage as started by creating its directory.
	Init(stage string) error

	// Initialized reports whether Init has been called for stage.
	Initialized(stage string) bool

	// Load decodes the slot into v. Missing slots yield ErrNotFound.
	Load(v any, parts ...string) error

	// Store encodes v into the slot, replacing previous content atomically.
	Store(v any, parts ...string) error

	// Purge deletes the cache root. It succeeds when the root is absent.
	Purge() error
}

const (
	slotExt      = ".json"
	lockName     = ".lock"
	lockAttempts = 50
	lockDelay    = 10 * time.Millisecond
)

// FileCache implements Cache on the local filesystem.
type FileCache struct {
	dir string
}

// NewFileCache creates a file-based cache rooted at dir.
// The directory is not created until a stage is initialised or a slot is
// written, so the absence of a stage directory means the stage never ran.
func NewFileCache(dir string) (*FileCache, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	return &FileCache{dir: abs}, nil
}

// Root returns the cache root directory.
func (c *FileCache) Root() string { return c.dir }

// Path resolves <root>/<parts[0]>/.../<parts[n-1]>.json.
func (c *FileCache) Path(create bool, parts ...string) (string, error) {
	if len(parts) == 0 {
		return "", ErrNoSlot
	}
	for _, p := range parts {
		if err := herrors.ValidateSlotName(p); err != nil {
			return "", err
		}
	}

	elems := append([]string{c.dir}, parts...)
	elems[len(elems)-1] += slotExt
	path := filepath.Join(elems...)

	if create {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return "", err
		}
	}
	return path, nil
}

// Init creates the stage directory.
func (c *FileCache) Init(stage string) error {
	if err := herrors.ValidateSlotName(stage); err != nil {
		return err
	}
	return os.MkdirAll(filepath.Join(c.dir, stage), 0o755)
}

// Initialized reports whether the stage directory exists.
func (c *FileCache) Initialized(stage string) bool {
	info, err := os.Stat(filepath.Join(c.dir, stage))
	return err == nil && info.IsDir()
}

// Load reads a slot and unmarshals it into v.
func (c *FileCache) Load(v any, parts ...string) error {
	path, err := c.Path(false, parts...)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return herrors.Wrap(herrors.ErrCodeCacheMissing, ErrNotFound, "%s", path)
	}
	if err != nil {
		return err
	}

	if err := json.Unmarshal(data, v); err != nil {
		return herrors.Wrap(herrors.ErrCodeCacheCorrupt, err, "decode %s", path)
	}
	return nil
}

// Store marshals v and writes it to the slot.
// The write goes through a temporary file and rename, under the cache lock.
func (c *FileCache) Store(v any, parts ...string) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}

	path, err := c.Path(true, parts...)
	if err != nil {
		return err
	}

	return c.withLock(func() error {
		return renameio.WriteFile(path, data, 0o644)
	})
}

// Purge removes the cache root and everything below it.
func (c *FileCache) Purge() error {
	return os.RemoveAll(c.dir)
}

// withLock runs fn while holding the advisory lock on the cache root.
func (c *FileCache) withLock(fn func() error) error {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return err
	}
	lock := flock.New(filepath.Join(c.dir, lockName))

	var locked bool
	for i := 0; i < lockAttempts; i++ {
		ok, err := lock.TryLock()
		if err != nil {
			return errors.Join(ErrLocked, err)
		}
		if ok {
			locked = true
			break
		}
		time.Sleep(lockDelay)
	}
	if !locked {
		return herrors.Wrap(herrors.ErrCodeCacheLocked, ErrLocked, "%s", c.dir)
	}
	defer func() { _ = lock.Unlock() }()

	if err := fn(); err != nil {
		return fmt.Errorf("write cache slot: %w", err)
	}
	return nil
}

// Ensure FileCache implements Cache.
var _ Cache = (*FileCache)(nil)
