package persist

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"
)

var bucketSettings = []byte("settings")

// Store is a key-value store backed by bbolt with an in-memory read cache.
//
// Store is safe for concurrent use. Writes go to disk first and reach the
// cache only once durable; reads are served from the cache after the first
// hit.
type Store struct {
	db     *bolt.DB
	logger *slog.Logger

	mu    sync.RWMutex
	cache map[string]string
}

// Option configures a [Store].
type Option func(*Store)

// WithLogger sets the logger that receives read failures. Defaults to
// [slog.Default].
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Open opens (or creates) the store at path. If path is empty, the store
// runs in memory-only mode and nothing survives a restart.
func Open(path string, opts ...Option) (*Store, error) {
	s := &Store{logger: slog.Default(), cache: make(map[string]string)}
	for _, opt := range opts {
		opt(s)
	}
	if path == "" {
		return s, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketSettings)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	s.db = db
	return s, nil
}

// Close releases the underlying database. Safe to call on a memory-only
// store.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Get returns the value stored under key and whether it was present.
func (s *Store) Get(key string) (string, bool) {
	s.mu.RLock()
	if v, ok := s.cache[key]; ok {
		s.mu.RUnlock()
		return v, true
	}
	s.mu.RUnlock()

	if s.db == nil {
		return "", false
	}

	var (
		value string
		found bool
	)
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketSettings)
		if b == nil {
			return nil
		}
		if v := b.Get([]byte(key)); v != nil {
			value = string(v)
			found = true
		}
		return nil
	})
	if err != nil {
		s.logger.Warn("state read failed", "key", key, "error", err)
		return "", false
	}
	if !found {
		return "", false
	}

	// promote to memory cache
	s.mu.Lock()
	s.cache[key] = value
	s.mu.Unlock()

	return value, true
}

// Set stores value under key. On a write failure the previous value stays
// visible.
func (s *Store) Set(key, value string) error {
	if s.db != nil {
		err := s.db.Update(func(tx *bolt.Tx) error {
			return tx.Bucket(bucketSettings).Put([]byte(key), []byte(value))
		})
		if err != nil {
			return fmt.Errorf("write %s: %w", key, err)
		}
	}

	s.mu.Lock()
	s.cache[key] = value
	s.mu.Unlock()
	return nil
}

// Remove deletes key. Removing an absent key is not an error.
func (s *Store) Remove(key string) error {
	s.mu.Lock()
	delete(s.cache, key)
	s.mu.Unlock()

	if s.db == nil {
		return nil
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketSettings)
		if b == nil {
			return nil
		}
		return b.Delete([]byte(key))
	})
}

// Getter is the read half of the persistence contract.
type Getter interface {
	Get(key string) (string, bool)
}

// Setter is the write half of the persistence contract.
type Setter interface {
	Set(key, value string) error
}

// GetJSON decodes the JSON value stored under key into dest. It reports
// false if the key is absent; a present but undecodable value is an error.
func GetJSON(g Getter, key string, dest any) (bool, error) {
	raw, ok := g.Get(key)
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		return true, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

// SetJSON stores value under key as JSON.
func SetJSON(s Setter, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return s.Set(key, string(data))
}
