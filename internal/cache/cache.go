package cache

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/maypok86/otter"
	"github.com/samartsevigor/change-analyzer/internal/declaration"
	"github.com/samartsevigor/change-analyzer/internal/syntax"
	logger "github.com/sirupsen/logrus"
)

// entry is an extracted catalog together with the parse quality flag.
type entry struct {
	catalog   declaration.Catalog
	hasErrors bool
}

// Catalogs caches declaration catalogs by content address. Cached catalogs
// are shared between callers and must be treated as read-only.
// A Catalogs created with size 0 never caches.
type Catalogs struct {
	cache otter.Cache[string, entry]

	enabled bool
	hits    atomic.Int64
	misses  atomic.Int64
}

// New creates a cache holding at most size catalogs.
func New(size int) (*Catalogs, error) {
	if size < 0 {
		return nil, fmt.Errorf("cache size must be >= 0, got %d", size)
	}
	if size == 0 {
		logger.Debug("[cache] catalog cache disabled")
		return &Catalogs{}, nil
	}

	c, err := otter.MustBuilder[string, entry](size).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build catalog cache: %w", err)
	}
	return &Catalogs{cache: c, enabled: true}, nil
}

// Extract returns the catalog for source, parsing it with parser on a miss.
// Parse failures are not cached.
func (c *Catalogs) Extract(ctx context.Context, parser *syntax.Parser, source []byte) (declaration.Catalog, bool, error) {
	if !c.enabled {
		return declaration.ExtractSource(ctx, parser, source)
	}

	key := Key(source)
	if e, ok := c.cache.Get(key); ok {
		c.hits.Add(1)
		return e.catalog, e.hasErrors, nil
	}
	c.misses.Add(1)

	catalog, hasErrors, err := declaration.ExtractSource(ctx, parser, source)
	if err != nil {
		return nil, false, err
	}
	c.cache.Set(key, entry{catalog: catalog, hasErrors: hasErrors})
	return catalog, hasErrors, nil
}

// Stats returns the hit and miss counters since creation.
func (c *Catalogs) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

// Len returns the number of cached catalogs.
func (c *Catalogs) Len() int {
	if !c.enabled {
		return 0
	}
	return c.cache.Size()
}

// Close releases the cache's background resources.
func (c *Catalogs) Close() {
	if c.enabled {
		c.cache.Close()
	}
}
