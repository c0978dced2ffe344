package da

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru"
)

// CachingService wraps a Service with a bounded LRU cache of fetched
// blocks by height, mirroring the by-hash block-ref cache pattern used
// for L1 data elsewhere in the ecosystem: fetched-but-not-yet-consumed
// DA blocks are common during catch-up sync, and refetching them on
// every retry would be wasteful.
type CachingService struct {
	inner Service
	cache *lru.Cache
}

// NewCachingService wraps inner with an LRU cache holding up to size
// blocks.
func NewCachingService(inner Service, size int) (*CachingService, error) {
	cache, err := lru.New(size)
	if err != nil {
		return nil, fmt.Errorf("da: build block cache: %w", err)
	}
	return &CachingService{inner: inner, cache: cache}, nil
}

// GetLastFinalizedBlockHeader is not cached: the finalized tip changes
// continuously and callers always want the freshest value.
func (c *CachingService) GetLastFinalizedBlockHeader(ctx context.Context) (Header, error) {
	return c.inner.GetLastFinalizedBlockHeader(ctx)
}

// GetBlockAt serves from cache when available, otherwise fetches and
// populates the cache.
func (c *CachingService) GetBlockAt(ctx context.Context, height uint64) (Block, error) {
	if v, ok := c.cache.Get(height); ok {
		return v.(Block), nil
	}
	block, err := c.inner.GetBlockAt(ctx, height)
	if err != nil {
		return Block{}, err
	}
	c.cache.Add(height, block)
	return block, nil
}

// ExtractRelevantBlobs delegates directly; extraction is pure and cheap
// relative to the network fetch, so it is not itself cached.
func (c *CachingService) ExtractRelevantBlobs(block Block) []Blob {
	return c.inner.ExtractRelevantBlobs(block)
}
