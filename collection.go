package ummati

import (
	"errors"
	"strings"
	"time"

	"github.com/spanow/ummati/internal/domain"
	"github.com/spanow/ummati/internal/query"
)

// Collection describes a paginated listing endpoint of the remote API and
// how the client queries it.
//
// Collection is immutable after creation via [NewCollection]. Mutable data
// (headers) is copied on the way in and on the way out.
type Collection struct {
	name     string
	path     string
	headers  map[string]string
	pageSize int
	debounce time.Duration
	policy   query.FailurePolicy
}

// Name returns the collection name used in logs and by the UI binding.
func (c Collection) Name() string {
	return c.name
}

// Path returns the API path of the listing, relative to the base URL.
func (c Collection) Path() string {
	return c.path
}

// Headers returns a copy of the extra headers sent with every list request.
func (c Collection) Headers() map[string]string {
	return copyMap(c.headers)
}

// PageSize returns the number of items requested per page.
func (c Collection) PageSize() int {
	return c.pageSize
}

// Debounce returns the quiet period before a filter change is fetched.
func (c Collection) Debounce() time.Duration {
	return c.debounce
}

// ClearsOnFailure reports whether a failed fetch empties the visible result
// instead of keeping the previous one.
func (c Collection) ClearsOnFailure() bool {
	return c.policy == query.ClearResults
}

// NewCollection creates a [Collection] for the listing at path.
//
// Defaults: page size 12, debounce 300ms, previous result kept visible on
// failure.
//
// Returns an error if the name is empty or path does not start with "/".
//
// Example:
//
//	events, err := ummati.NewCollection("events", "/events",
//	    ummati.WithPageSize(24),
//	    ummati.WithDebounce(500 * time.Millisecond),
//	)
func NewCollection(name, path string, opts ...CollectionOption) (Collection, error) {
	if name == "" {
		return Collection{}, errors.New("collection name cannot be empty")
	}
	if !strings.HasPrefix(path, "/") {
		return Collection{}, errors.New("collection path must start with /")
	}

	cfg := &collectionConfig{
		headers:  make(map[string]string),
		pageSize: domain.DefaultPageSize,
		debounce: query.DefaultDebounce,
	}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return Collection{}, err
		}
	}

	return Collection{
		name:     name,
		path:     path,
		headers:  cfg.headers,
		pageSize: cfg.pageSize,
		debounce: cfg.debounce,
		policy:   cfg.policy,
	}, nil
}

func defaultCollection(name, path string) Collection {
	c, _ := NewCollection(name, path)
	return c
}

// collectionConfig holds mutable state during collection construction.
type collectionConfig struct {
	headers  map[string]string
	pageSize int
	debounce time.Duration
	policy   query.FailurePolicy
}

// CollectionOption configures a [Collection] during construction.
// Options return an error if validation fails.
type CollectionOption func(*collectionConfig) error

// WithPageSize sets how many items are requested per page.
//
// Returns an error if n is zero or negative.
func WithPageSize(n int) CollectionOption {
	return func(cfg *collectionConfig) error {
		if n <= 0 {
			return errors.New("page size must be positive")
		}
		cfg.pageSize = n
		return nil
	}
}

// WithDebounce sets the quiet period between the last filter change and the
// fetch. Zero fetches on the next tick.
//
// Returns an error if d is negative.
func WithDebounce(d time.Duration) CollectionOption {
	return func(cfg *collectionConfig) error {
		if d < 0 {
			return errors.New("debounce must not be negative")
		}
		cfg.debounce = d
		return nil
	}
}

// WithHeaders adds HTTP headers sent with every list request for this
// collection. Accepts variadic key-value pairs.
//
// Returns an error if an odd number of arguments is provided.
func WithHeaders(keyValues ...string) CollectionOption {
	return func(cfg *collectionConfig) error {
		if len(keyValues)%2 != 0 {
			return errors.New("WithHeaders requires an even number of arguments (key-value pairs)")
		}
		for i := 0; i < len(keyValues); i += 2 {
			cfg.headers[keyValues[i]] = keyValues[i+1]
		}
		return nil
	}
}

// WithClearOnFailure empties the visible result when a fetch fails. By
// default the previous result stays visible next to the error.
func WithClearOnFailure() CollectionOption {
	return func(cfg *collectionConfig) error {
		cfg.policy = query.ClearResults
		return nil
	}
}

// copyMap returns a shallow copy of the map.
func copyMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	cp := make(map[string]string, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return cp
}
