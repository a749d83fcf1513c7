package store

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// ErrQuotaExceeded is returned by a backend when a value is larger than its
// configured quota.
var ErrQuotaExceeded = errors.New("store: quota exceeded")

// ErrInvalidKey is returned when a key is empty or cannot be used as a file
// name.
var ErrInvalidKey = errors.New("store: invalid key")

// Backend is the persistent key-value collaborator a Store loads from and
// saves to. Values are JSON strings.
type Backend interface {
	// Read returns the value stored under key. The boolean is false when the
	// key is absent.
	Read(key string) (string, bool, error)

	// Write stores value under key, replacing any previous value.
	Write(key, value string) error
}

// MemoryBackend keeps values in process memory. It is safe for concurrent use.
type MemoryBackend struct {
	// Quota is the maximum size of a single value in bytes.
	// Zero disables the check.
	Quota int

	mu     sync.RWMutex
	values map[string]string
	writes int
}

// NewMemoryBackend returns an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{values: make(map[string]string)}
}

// Read implements Backend.
func (b *MemoryBackend) Read(key string) (string, bool, error) {
	if key == "" {
		return "", false, ErrInvalidKey
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	v, ok := b.values[key]
	return v, ok, nil
}

// Write implements Backend.
func (b *MemoryBackend) Write(key, value string) error {
	if key == "" {
		return ErrInvalidKey
	}
	if b.Quota > 0 && len(value) > b.Quota {
		return fmt.Errorf("%w: %d bytes, limit %d", ErrQuotaExceeded, len(value), b.Quota)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.values == nil {
		b.values = make(map[string]string)
	}
	b.values[key] = value
	b.writes++
	return nil
}

// Writes returns the number of successful writes.
func (b *MemoryBackend) Writes() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.writes
}

// FileBackend stores each key as <Dir>/<key>.json.
type FileBackend struct {
	// Dir is the directory holding the value files.
	Dir string

	// Quota is the maximum size of a single value in bytes.
	// Zero disables the check.
	Quota int
}

// NewFileBackend returns a FileBackend rooted at dir, creating the directory
// if needed.
func NewFileBackend(dir string) (*FileBackend, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("store: create data dir: %w", err)
	}
	return &FileBackend{Dir: dir}, nil
}

func (b *FileBackend) path(key string) (string, error) {
	if key == "" || key == "." || key == ".." || strings.ContainsAny(key, `/\`) {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return filepath.Join(b.Dir, key+".json"), nil
}

// Read implements Backend.
func (b *FileBackend) Read(key string) (string, bool, error) {
	p, err := b.path(key)
	if err != nil {
		return "", false, err
	}

	data, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("store: read %s: %w", p, err)
	}
	return string(data), true, nil
}

// Write implements Backend. The file is replaced atomically.
func (b *FileBackend) Write(key, value string) error {
	p, err := b.path(key)
	if err != nil {
		return err
	}
	if b.Quota > 0 && len(value) > b.Quota {
		return fmt.Errorf("%w: %d bytes, limit %d", ErrQuotaExceeded, len(value), b.Quota)
	}

	tmp, err := os.CreateTemp(b.Dir, key+".*.tmp")
	if err != nil {
		return fmt.Errorf("store: create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.WriteString(value); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("store: write %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("store: close %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, p); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("store: rename %s: %w", tmpName, err)
	}
	return nil
}
