package storage

import (
	"errors"
	"fmt"
	"os"
	"path"
	"regexp"
	"sync"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
)

// ErrIO marks every failure of the underlying filesystem.
var ErrIO = errors.New("storage I/O failure")

// ErrInvalidKey is returned for keys that cannot name a file.
var ErrInvalidKey = errors.New("invalid storage key")

var keyPattern = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

// Storage is a synchronous key/value store holding one opaque blob per key.
type Storage interface {
	// Get returns the blob stored under key. ok is false when the key is absent.
	Get(key string) (value []byte, ok bool, err error)
	Set(key string, value []byte) error
	// Remove deletes key; removing an absent key is not an error.
	Remove(key string) error
}

// Files stores each key as a file in a billy filesystem.
type Files struct {
	fs  billy.Filesystem
	dir string
	mu  sync.RWMutex
}

// NewFiles returns a Files store rooted at dir inside fs.
func NewFiles(fs billy.Filesystem, dir string) *Files {
	return &Files{fs: fs, dir: dir}
}

// NewOSFiles returns a Files store backed by the directory at root.
func NewOSFiles(root string) *Files {
	return NewFiles(osfs.New(root), "")
}

// NewMemory returns a Files store backed by an in-memory filesystem.
func NewMemory() *Files {
	return NewFiles(memfs.New(), "")
}

func (f *Files) path(key string) (string, error) {
	if !keyPattern.MatchString(key) || key == "." || key == ".." {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return path.Join(f.dir, key+".json"), nil
}

func (f *Files) Get(key string) ([]byte, bool, error) {
	p, err := f.path(key)
	if err != nil {
		return nil, false, err
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	b, err := util.ReadFile(f.fs, p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("%w: read %s: %v", ErrIO, key, err)
	}
	return b, true, nil
}

func (f *Files) Set(key string, value []byte) error {
	p, err := f.path(key)
	if err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.dir != "" {
		if err := f.fs.MkdirAll(f.dir, 0700); err != nil {
			return fmt.Errorf("%w: create directory %s: %v", ErrIO, f.dir, err)
		}
	}
	if err := util.WriteFile(f.fs, p, value, 0600); err != nil {
		return fmt.Errorf("%w: write %s: %v", ErrIO, key, err)
	}
	return nil
}

func (f *Files) Remove(key string) error {
	p, err := f.path(key)
	if err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.fs.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: remove %s: %v", ErrIO, key, err)
	}
	return nil
}
