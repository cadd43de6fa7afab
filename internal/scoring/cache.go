package scoring

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize is the number of evaluations kept by NewCache(0).
const DefaultCacheSize = 512

// CacheKey identifies an evaluation. The weights hash is part of the key, so
// changing weights never serves an entry computed under old ones.
type CacheKey struct {
	Document string
	Target   string
	Weights  string
}

// Cache memoizes evaluations across iteration rounds and documents. It is
// safe for concurrent use.
type Cache struct {
	entries *lru.Cache[CacheKey, Evaluation]
}

// NewCache creates a bounded LRU cache.
func NewCache(size int) (*Cache, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	entries, err := lru.New[CacheKey, Evaluation](size)
	if err != nil {
		return nil, err
	}
	return &Cache{entries: entries}, nil
}

func (c *Cache) Get(key CacheKey) (Evaluation, bool) {
	if c == nil {
		return Evaluation{}, false
	}
	return c.entries.Get(key)
}

func (c *Cache) Add(key CacheKey, ev Evaluation) {
	if c == nil {
		return
	}
	c.entries.Add(key, ev)
}

// InvalidateWeights drops every entry computed under weightsHash.
func (c *Cache) InvalidateWeights(weightsHash string) int {
	if c == nil {
		return 0
	}
	removed := 0
	for _, key := range c.entries.Keys() {
		if key.Weights == weightsHash {
			if c.entries.Remove(key) {
				removed++
			}
		}
	}
	return removed
}

func (c *Cache) Len() int {
	if c == nil {
		return 0
	}
	return c.entries.Len()
}
