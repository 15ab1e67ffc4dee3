package discover

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/kailas-cloud/animedex/internal/corpus"
	"github.com/kailas-cloud/animedex/internal/metrics"
	"github.com/kailas-cloud/animedex/internal/textindex"
)

// cacheKey scopes a query to the snapshot it was vectorised against.
type cacheKey struct {
	generation uint64
	query      string
}

// queryCache memoises free-text query vectors. Cached vectors are shared and must not be mutated.
type queryCache struct {
	entries *lru.Cache[cacheKey, textindex.Vector]
}

func newQueryCache(size int) (*queryCache, error) {
	entries, err := lru.New[cacheKey, textindex.Vector](size)
	if err != nil {
		return nil, fmt.Errorf("create query cache: %w", err)
	}
	return &queryCache{entries: entries}, nil
}

func (c *queryCache) vectorize(snap *corpus.Snapshot, query string) textindex.Vector {
	key := cacheKey{generation: snap.Generation(), query: query}
	if vec, ok := c.entries.Get(key); ok {
		metrics.QueryCacheTotal.WithLabelValues("hit").Inc()
		return vec
	}
	metrics.QueryCacheTotal.WithLabelValues("miss").Inc()
	vec := snap.Vectorize(query)
	c.entries.Add(key, vec)
	return vec
}

func (c *queryCache) len() int { return c.entries.Len() }
