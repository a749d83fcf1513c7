// Package store holds the shared data visible to every virtual route handler
// and persists it through a Backend.
//
// The data is a JSON object of named values, conventionally collections:
//
//	{"users": [{"id": "1", "name": "Ann"}], "settings": {"theme": "dark"}}
//
// It is loaded once when the Store is created and written back as a whole by
// Save. Missing or unreadable persisted data starts the Store empty.
//
// Individual operations are guarded by a mutex. Values go in and come out as
// copies, so the data is only mutated in place through Update. A read followed
// by a separate write is not atomic; use Update for read-modify-write
// sequences.
package store

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
)

// DefaultKey is the backend key the data is persisted under.
const DefaultKey = "vserver_db"

// Store is the shared, persisted key-value state.
type Store struct {
	backend Backend
	key     string
	logger  zerolog.Logger

	mu   sync.RWMutex
	data map[string]any

	saves atomic.Int64
}

// Option configures a Store.
type Option func(*Store)

// WithKey overrides the backend key. Empty keys are ignored.
func WithKey(key string) Option {
	return func(s *Store) {
		if key != "" {
			s.key = key
		}
	}
}

// WithLogger sets the logger used to report load problems.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// New creates a Store and loads its data from backend. A nil backend is
// replaced with a fresh MemoryBackend.
func New(backend Backend, opts ...Option) *Store {
	if backend == nil {
		backend = NewMemoryBackend()
	}

	s := &Store{
		backend: backend,
		key:     DefaultKey,
		logger:  zerolog.Nop(),
		data:    make(map[string]any),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.load()
	return s
}

func (s *Store) load() {
	raw, ok, err := s.backend.Read(s.key)
	if err != nil {
		s.logger.Warn().Err(err).Str("key", s.key).Msg("failed to read persisted data, starting empty")
		return
	}
	if !ok || raw == "" {
		return
	}

	var data map[string]any
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		s.logger.Warn().Err(err).Str("key", s.key).Msg("failed to parse persisted data, starting empty")
		return
	}
	if data != nil {
		s.data = data
	}
}

// Key returns the backend key the data is persisted under.
func (s *Store) Key() string {
	return s.key
}

// Get returns a copy of the value stored under name. Changes to the copy are
// not seen by the store; use Set or Update to change it.
func (s *Store) Get(name string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.data[name]
	return copyValue(v), ok
}

// Set stores a copy of v under name.
func (s *Store) Set(name string, v any) {
	v = copyValue(v)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[name] = v
}

// Delete removes name and reports whether it existed.
func (s *Store) Delete(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.data[name]
	delete(s.data, name)
	return ok
}

// Keys returns the stored names in sorted order.
func (s *Store) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Collection returns a copy of the list stored under name, or nil when name
// is absent or not a list.
func (s *Store) Collection(name string) []any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items, ok := s.data[name].([]any)
	if !ok {
		return nil
	}
	return copyValue(items).([]any)
}

// Append adds a copy of v to the list stored under name, creating the list
// when needed. A non-list value under name is replaced.
func (s *Store) Append(name string, v any) {
	v = copyValue(v)

	s.mu.Lock()
	defer s.mu.Unlock()

	items, _ := s.data[name].([]any)
	s.data[name] = append(items, v)
}

// Update runs fn with exclusive access to the data. fn may change the data in
// place but must not keep references to it after returning.
func (s *Store) Update(fn func(data map[string]any)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fn(s.data)
}

// Snapshot returns a deep copy of the data.
func (s *Store) Snapshot() map[string]any {
	s.mu.RLock()
	raw, err := json.Marshal(s.data)
	s.mu.RUnlock()

	out := make(map[string]any)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to copy data")
		return out
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		s.logger.Warn().Err(err).Msg("failed to copy data")
	}
	return out
}

// Save serializes the data and writes it to the backend.
func (s *Store) Save() error {
	s.saves.Add(1)

	s.mu.RLock()
	raw, err := json.Marshal(s.data)
	s.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("store: encode data: %w", err)
	}

	if err := s.backend.Write(s.key, string(raw)); err != nil {
		return fmt.Errorf("store: write %q: %w", s.key, err)
	}
	return nil
}

// Saves returns how many times Save has been called.
func (s *Store) Saves() int {
	return int(s.saves.Load())
}

// Clear reinitializes the data to an empty object and persists it.
func (s *Store) Clear() error {
	s.mu.Lock()
	s.data = make(map[string]any)
	s.mu.Unlock()

	return s.Save()
}

// copyValue deep copies the JSON container types. Other values are returned
// as they are.
func copyValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = copyValue(e)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = copyValue(e)
		}
		return out
	default:
		return v
	}
}
