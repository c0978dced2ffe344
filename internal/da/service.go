package da

import "context"

// Service is the DA-layer capability set the L1 sync worker depends on
// (spec.md §6, §9): fetch the finalized tip, fetch a specific block, and
// extract the blobs relevant to this rollup from it.
type Service interface {
	GetLastFinalizedBlockHeader(ctx context.Context) (Header, error)
	GetBlockAt(ctx context.Context, height uint64) (Block, error)
	ExtractRelevantBlobs(block Block) []Blob
}
