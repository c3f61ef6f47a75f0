package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"
)

// envelope is the on-disk shape: a millisecond epoch timestamp plus the raw
// payload, so a restart within the freshness window can resume from disk.
type envelope struct {
	Timestamp int64           `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// Store is a single-value TTL cache persisted to a JSON file. It holds one
// widget payload (weather, currency rates) and hands it out until it expires.
type Store struct {
	path string
	ttl  time.Duration

	mu       sync.RWMutex
	data     json.RawMessage
	storedAt time.Time
}

// NewStore creates a store backed by the given file with the given freshness
// window. An empty path makes the store memory-only.
func NewStore(path string, ttl time.Duration) *Store {
	return &Store{path: path, ttl: ttl}
}

// Load reads the persisted blob from disk. A missing file is not an error; a
// blob older than the TTL is ignored.
func (s *Store) Load() error {
	if s.path == "" {
		return nil
	}

	raw, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read cache file %s: %w", s.path, err)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("failed to parse cache file %s: %w", s.path, err)
	}

	storedAt := time.UnixMilli(env.Timestamp)
	if time.Since(storedAt) > s.ttl {
		return nil
	}

	s.mu.Lock()
	s.data = env.Data
	s.storedAt = storedAt
	s.mu.Unlock()
	return nil
}

// Get returns the cached payload, or false if the store is empty or the
// payload has aged past the TTL.
func (s *Store) Get() (json.RawMessage, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.data == nil || time.Since(s.storedAt) > s.ttl {
		return nil, false
	}
	return s.data, true
}

// Set stores the payload in memory and, when a path is configured, persists
// it to disk.
func (s *Store) Set(data json.RawMessage) error {
	now := time.Now()

	s.mu.Lock()
	s.data = data
	s.storedAt = now
	s.mu.Unlock()

	if s.path == "" {
		return nil
	}

	raw, err := json.Marshal(envelope{Timestamp: now.UnixMilli(), Data: data})
	if err != nil {
		return fmt.Errorf("failed to encode cache file %s: %w", s.path, err)
	}
	if err := os.WriteFile(s.path, raw, 0o644); err != nil {
		return fmt.Errorf("failed to write cache file %s: %w", s.path, err)
	}
	return nil
}
