package buck

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/ritzau/deps-minimizer/pkg/logging"
	"github.com/ritzau/deps-minimizer/pkg/model"
)

// CachedQuerier memoizes dependency queries for the lifetime of one run.
// Builds are never cached.
type CachedQuerier struct {
	next  Querier
	cache *lru.Cache[string, map[string]*model.Module]
}

// NewCachedQuerier wraps next with an LRU of the given size.
func NewCachedQuerier(next Querier, size int) (*CachedQuerier, error) {
	if size <= 0 {
		size = 1
	}
	cache, err := lru.New[string, map[string]*model.Module](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create query cache: %w", err)
	}
	return &CachedQuerier{next: next, cache: cache}, nil
}

func (c *CachedQuerier) QueryModules(ctx context.Context, target string, depth int) (map[string]*model.Module, error) {
	key := fmt.Sprintf("%s@%d", target, depth)
	if modules, ok := c.cache.Get(key); ok {
		logging.New("buck.cache").DebugContext(ctx, "Query cache hit", "target", target)
		return modules, nil
	}

	modules, err := c.next.QueryModules(ctx, target, depth)
	if err != nil {
		return nil, err
	}
	c.cache.Add(key, modules)
	return modules, nil
}

// Len returns the number of cached queries
func (c *CachedQuerier) Len() int {
	return c.cache.Len()
}

// cachedOracle pairs a live Builder with a CachedQuerier
type cachedOracle struct {
	Builder
	*CachedQuerier
}

// WithQueryCache returns an Oracle whose queries are cached and whose builds
// go straight to o.
func WithQueryCache(o Oracle, size int) (Oracle, error) {
	q, err := NewCachedQuerier(o, size)
	if err != nil {
		return nil, err
	}
	return cachedOracle{Builder: o, CachedQuerier: q}, nil
}
