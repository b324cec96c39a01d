package assets

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize bounds the number of cached models.
const DefaultCacheSize = 256

// Cached memoizes successful loads of another Loader. Failures are not
// cached, so a later placement retries the underlying source.
type Cached struct {
	next  Loader
	cache *lru.Cache[string, Model]
}

// NewCached wraps next with an LRU of the given size.
func NewCached(next Loader, size int) (*Cached, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[string, Model](size)
	if err != nil {
		return nil, fmt.Errorf("assets: init cache: %w", err)
	}
	return &Cached{next: next, cache: cache}, nil
}

// Load returns the cached model or loads and caches it.
func (c *Cached) Load(ctx context.Context, code string) (Model, error) {
	if m, ok := c.cache.Get(code); ok {
		return m, nil
	}
	m, err := c.next.Load(ctx, code)
	if err != nil {
		return Model{}, err
	}
	c.cache.Add(code, m)
	return m, nil
}

// Len reports the number of cached models.
func (c *Cached) Len() int {
	return c.cache.Len()
}
