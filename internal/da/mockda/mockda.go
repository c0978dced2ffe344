// Package mockda is an in-memory DA chain for tests, standing in for the
// Bitcoin client the way original_source's mock DA does for the real
// implementation (spec.md §9: "Concrete variants are Bitcoin and a mock
// DA").
package mockda

import (
	"context"
	"fmt"
	"sync"

	"github.com/citrea-rollup/node/internal/da"
)

// Chain is an append-only in-memory sequence of DA blocks.
type Chain struct {
	mu     sync.Mutex
	blocks []da.Block
}

// New returns an empty chain.
func New() *Chain { return &Chain{} }

// Append adds a new block at the next height, deriving its PrevHash from
// the current tip.
func (c *Chain) Append(hash [32]byte, blobs []da.Blob) da.Header {
	c.mu.Lock()
	defer c.mu.Unlock()

	height := uint64(len(c.blocks))
	var prev [32]byte
	if height > 0 {
		prev = c.blocks[height-1].Header.Hash
	}
	header := da.Header{
		Hash:      hash,
		PrevHash:  prev,
		Height:    height,
		TxCount:   uint64(len(blobs)),
		Finalized: true,
	}
	c.blocks = append(c.blocks, da.Block{Header: header, Blobs: blobs})
	return header
}

// GetLastFinalizedBlockHeader returns the header of the chain tip.
func (c *Chain) GetLastFinalizedBlockHeader(ctx context.Context) (da.Header, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.blocks) == 0 {
		return da.Header{}, fmt.Errorf("mockda: chain is empty")
	}
	return c.blocks[len(c.blocks)-1].Header, nil
}

// GetBlockAt returns the block at the given height.
func (c *Chain) GetBlockAt(ctx context.Context, height uint64) (da.Block, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if height >= uint64(len(c.blocks)) {
		return da.Block{}, fmt.Errorf("mockda: no block at height %d (chain height %d)", height, len(c.blocks))
	}
	return c.blocks[height], nil
}

// ExtractRelevantBlobs returns every blob in the block: the mock chain
// carries no irrelevant traffic to filter out.
func (c *Chain) ExtractRelevantBlobs(block da.Block) []da.Blob {
	return block.Blobs
}

var _ da.Service = (*Chain)(nil)
