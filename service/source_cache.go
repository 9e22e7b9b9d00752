package service

import (
	"context"
	"fmt"
	"path/filepath"
	"sync/atomic"

	"github.com/hashicorp/golang-lru/v2"
	"github.com/ludo-technologies/cloneval/domain"
	"github.com/ludo-technologies/cloneval/internal/loader"
	"golang.org/x/sync/singleflight"
)

// SourceCache keeps loaded clone-pair sources and query samples in memory so
// a ground-truth file is parsed once and shared by every seed. Cached values
// are immutable and safe for concurrent readers. Concurrent misses on the same
// key share one load.
type SourceCache struct {
	results *lru.Cache[string, *loader.Result]
	samples *lru.Cache[string, *domain.QuerySubset]
	group   singleflight.Group

	hits   atomic.Int64
	misses atomic.Int64
}

// NewSourceCache creates a cache holding at most size sources and size samples
func NewSourceCache(size int) (*SourceCache, error) {
	if size <= 0 {
		size = domain.DefaultCacheSize
	}
	results, err := lru.New[string, *loader.Result](size)
	if err != nil {
		return nil, fmt.Errorf("create source cache: %w", err)
	}
	samples, err := lru.New[string, *domain.QuerySubset](size)
	if err != nil {
		return nil, fmt.Errorf("create sample cache: %w", err)
	}
	return &SourceCache{results: results, samples: samples}, nil
}

// Load returns the loaded source at path, reading it on a miss. The boolean
// is false only for the call that actually read the file. Failed loads are
// not cached.
func (c *SourceCache) Load(ctx context.Context, path string, settings domain.SourceSettings) (*loader.Result, bool, error) {
	key := "source|" + cacheKeyPath(path) + "|" + settings.Key()
	if r, ok := c.results.Get(key); ok {
		c.hits.Add(1)
		return r, true, nil
	}

	// only the goroutine that runs the load sees loaded == true
	loaded := false
	v, err, _ := c.group.Do(key, func() (any, error) {
		if r, ok := c.results.Get(key); ok {
			return r, nil
		}
		opts, err := loader.OptionsFromSettings(settings)
		if err != nil {
			return nil, err
		}
		r, err := loader.New(opts).Load(ctx, path)
		if err != nil {
			return nil, err
		}
		c.results.Add(key, r)
		loaded = true
		return r, nil
	})
	if err != nil {
		return nil, false, err
	}
	c.record(loaded)

	r, ok := v.(*loader.Result)
	if !ok {
		return nil, false, fmt.Errorf("unexpected cached value %T for %s", v, path)
	}
	return r, !loaded, nil
}

// LoadSample returns the query subset at path, reading it on a miss
func (c *SourceCache) LoadSample(ctx context.Context, path string) (*domain.QuerySubset, bool, error) {
	key := "sample|" + cacheKeyPath(path)
	if s, ok := c.samples.Get(key); ok {
		c.hits.Add(1)
		return s, true, nil
	}

	loaded := false
	v, err, _ := c.group.Do(key, func() (any, error) {
		if s, ok := c.samples.Get(key); ok {
			return s, nil
		}
		s, err := loader.LoadQuerySubset(ctx, path)
		if err != nil {
			return nil, err
		}
		c.samples.Add(key, s)
		loaded = true
		return s, nil
	})
	if err != nil {
		return nil, false, err
	}
	c.record(loaded)

	s, ok := v.(*domain.QuerySubset)
	if !ok {
		return nil, false, fmt.Errorf("unexpected cached value %T for %s", v, path)
	}
	return s, !loaded, nil
}

func (c *SourceCache) record(loaded bool) {
	if loaded {
		c.misses.Add(1)
	} else {
		c.hits.Add(1)
	}
}

// Len returns the number of cached sources and samples
func (c *SourceCache) Len() int {
	return c.results.Len() + c.samples.Len()
}

// Stats returns cache hit and miss counts
func (c *SourceCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

// Purge drops every cached value
func (c *SourceCache) Purge() {
	c.results.Purge()
	c.samples.Purge()
}

func cacheKeyPath(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}
