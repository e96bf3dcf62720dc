package internal

import (
	"regexp"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultPatternCacheSize is used when a non-positive size is requested.
const DefaultPatternCacheSize = 256

// PatternCache memoizes compiled regular expressions by source text.
// Only successful compilations are cached. It is safe for concurrent use.
type PatternCache struct {
	cache  *lru.Cache[string, *regexp.Regexp]
	hits   atomic.Int64
	misses atomic.Int64
}

// PatternCacheStats is a snapshot of cache activity.
type PatternCacheStats struct {
	Hits    int64
	Misses  int64
	Entries int
}

// NewPatternCache creates a cache holding at most size patterns.
func NewPatternCache(size int) *PatternCache {
	if size <= 0 {
		size = DefaultPatternCacheSize
	}
	// lru.New only fails for a non-positive size
	cache, _ := lru.New[string, *regexp.Regexp](size)
	return &PatternCache{cache: cache}
}

// Compile returns the compiled form of pattern, compiling it on a miss.
// A *regexp.Regexp is safe for concurrent use, so one instance is shared by
// every caller.
func (c *PatternCache) Compile(pattern string) (*regexp.Regexp, error) {
	if re, ok := c.cache.Get(pattern); ok {
		c.hits.Add(1)
		return re, nil
	}
	c.misses.Add(1)

	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	c.cache.Add(pattern, re)
	return re, nil
}

// Stats returns the current hit, miss and entry counts.
func (c *PatternCache) Stats() PatternCacheStats {
	return PatternCacheStats{
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
		Entries: c.cache.Len(),
	}
}

// Purge drops every cached pattern.
func (c *PatternCache) Purge() {
	c.cache.Purge()
}
