// Package caching keeps short-lived copies of platform API answers so that
// page renders do not call the API for every request.
package caching

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"
)

// DefaultLoadTimeout bounds a single load shared by collapsed callers.
const DefaultLoadTimeout = 5 * time.Second

// Cache is a bounded cache whose entries expire after a fixed TTL.
type Cache[V any] struct {
	memory      *expirable.LRU[string, V]
	group       singleflight.Group
	loadTimeout time.Duration
}

// NewCache creates a cache holding at most size entries for ttl each.
func NewCache[V any](size int, ttl time.Duration) *Cache[V] {
	return &Cache[V]{
		memory:      expirable.NewLRU[string, V](size, nil, ttl),
		loadTimeout: DefaultLoadTimeout,
	}
}

// GetOrLoad returns the cached value for key or calls load once for all
// concurrent callers. Errors are not cached.
//
// The load runs on a context detached from every caller and bounded by the
// load timeout. ctx only bounds how long this caller waits.
func (s *Cache[V]) GetOrLoad(ctx context.Context, key string, load func(context.Context) (V, error)) (V, error) {
	if v, ok := s.memory.Get(key); ok {
		return v, nil
	}
	ch := s.group.DoChan(key, func() (any, error) {
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.loadTimeout)
		defer cancel()
		v, err := load(loadCtx)
		if err != nil {
			return v, err
		}
		s.memory.Add(key, v)
		return v, nil
	})

	var zero V
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		val, _ := res.Val.(V)
		return val, res.Err
	}
}

// Forget drops key.
func (s *Cache[V]) Forget(key string) {
	s.memory.Remove(key)
}

// Len returns the number of live entries.
func (s *Cache[V]) Len() int {
	return s.memory.Len()
}

// Flush empties the cache.
func (s *Cache[V]) Flush() {
	s.memory.Purge()
}
