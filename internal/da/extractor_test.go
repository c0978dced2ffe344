package da

import (
	"encoding/json"
	"testing"

	"go.uber.org/zap"
)

func envelope(t *testing.T, kind string, payload interface{}) []byte {
	t.Helper()
	p, err := json.Marshal(payload)
	if err != nil {
		t.Fatal(err)
	}
	b, err := json.Marshal(wireBlob{Kind: kind, Payload: p})
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func TestExtractorPartitionsByPublisherKey(t *testing.T) {
	keys := PublisherKeys{Sequencer: []byte("seq"), Prover: []byte("prover")}
	x := NewExtractor(keys, zap.NewNop())

	block := Block{Blobs: []Blob{
		{PublisherKey: []byte("seq"), Data: envelope(t, "sequencer_commitment", SequencerCommitment{L2Start: 1, L2End: 5})},
		{PublisherKey: []byte("prover"), Data: envelope(t, "zk_proof", ZKProof{FirstL2Height: 1, LastL2Height: 5})},
		// Wrong key for its claimed category: dropped.
		{PublisherKey: []byte("prover"), Data: envelope(t, "sequencer_commitment", SequencerCommitment{L2Start: 6, L2End: 10})},
	}}

	out := x.Extract(block)
	if len(out.Commitments) != 1 {
		t.Fatalf("want 1 commitment (wrong-key one dropped), got %d", len(out.Commitments))
	}
	if len(out.Proofs) != 1 {
		t.Fatalf("want 1 proof, got %d", len(out.Proofs))
	}
}

func TestExtractorDropsUndecodableBlobsWithoutErroring(t *testing.T) {
	keys := PublisherKeys{Sequencer: []byte("seq"), Prover: []byte("prover")}
	x := NewExtractor(keys, zap.NewNop())

	block := Block{Blobs: []Blob{
		{PublisherKey: []byte("seq"), Data: []byte("not json at all")},
		{PublisherKey: []byte("seq"), Data: envelope(t, "sequencer_commitment", SequencerCommitment{L2Start: 1, L2End: 2})},
	}}

	out := x.Extract(block)
	if len(out.Commitments) != 1 {
		t.Fatalf("want the garbage blob dropped and the valid one kept, got %d commitments", len(out.Commitments))
	}
}
