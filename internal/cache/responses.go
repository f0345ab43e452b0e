// Package cache memoizes parsed catalog responses for the lifetime of a process.
package cache

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"
)

// FetchFunc retrieves the value for a key that is not cached yet.
type FetchFunc func(ctx context.Context) (any, error)

// Responses maps a fully-formed query (normally the request URL) to the
// structured value it produced. Successful fetches are kept forever;
// failed ones are not stored so the next caller tries again.
//
// The zero value is not usable, use New.
type Responses struct {
	mu      sync.RWMutex
	entries map[string]any
	group   singleflight.Group
}

func New() *Responses {
	return &Responses{entries: map[string]any{}}
}

// GetOrFetch returns the cached value for key, or runs fetch and caches its
// result. Concurrent callers asking for the same missing key share a single
// fetch.
func (r *Responses) GetOrFetch(ctx context.Context, key string, fetch FetchFunc) (any, error) {
	if v, ok := r.lookup(key); ok {
		return v, nil
	}

	v, err, _ := r.group.Do(key, func() (any, error) {
		// another caller may have stored it between lookup and Do
		if v, ok := r.lookup(key); ok {
			return v, nil
		}
		v, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		r.mu.Lock()
		r.entries[key] = v
		r.mu.Unlock()
		return v, nil
	})
	return v, err
}

// Has reports whether key holds a stored value.
func (r *Responses) Has(key string) bool {
	_, ok := r.lookup(key)
	return ok
}

// Len is the number of stored queries.
func (r *Responses) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

func (r *Responses) lookup(key string) (any, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.entries[key]
	return v, ok
}
