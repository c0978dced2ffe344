package syncl1

import (
	"context"
	"encoding/json"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/citrea-rollup/node/internal/da"
	"github.com/citrea-rollup/node/internal/da/mockda"
	"github.com/citrea-rollup/node/internal/ledger"
)

type fakeCommitmentVerifier struct {
	mu       sync.Mutex
	verified []da.SequencerCommitment
}

func (f *fakeCommitmentVerifier) Verify(c da.SequencerCommitment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.verified = append(f.verified, c)
	return nil
}

func (f *fakeCommitmentVerifier) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.verified)
}

type fakeProofVerifier struct{}

func (fakeProofVerifier) Verify(p da.ZKProof) error { return nil }

func commitmentBlob(pubKey []byte, c da.SequencerCommitment) da.Blob {
	payload, _ := json.Marshal(c)
	env := struct {
		Kind    string          `json:"kind"`
		Payload json.RawMessage `json:"payload"`
	}{Kind: "sequencer_commitment", Payload: payload}
	data, _ := json.Marshal(env)
	return da.Blob{PublisherKey: pubKey, Data: data}
}

func openWorkerTestLedger(t *testing.T) *ledger.DB {
	t.Helper()
	db, err := ledger.Open(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestWorkerProcessesCommitmentBlockOnceL2RangeIsSynced(t *testing.T) {
	chain := mockda.New()
	chain.Append([32]byte{0}, nil) // genesis filler block at height 0

	db := openWorkerTestLedger(t)
	for h := uint64(1); h <= 2; h++ {
		if err := db.PutSoftConfirmation(ledger.StoredSoftConfirmation{L2Height: h, Hash: [32]byte{byte(h)}}); err != nil {
			t.Fatal(err)
		}
	}

	keys := da.PublisherKeys{Sequencer: []byte("seq"), Prover: []byte("prover")}
	extractor := da.NewExtractor(keys, zap.NewNop())
	commitments := &fakeCommitmentVerifier{}
	proofs := fakeProofVerifier{}

	blob := commitmentBlob(keys.Sequencer, da.SequencerCommitment{L2Start: 1, L2End: 2})
	chain.Append([32]byte{1}, []da.Blob{blob})

	w := New(chain, extractor, commitments, proofs, db, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx, 0) }()

	deadline := time.After(2 * time.Second)
	for commitments.count() == 0 {
		select {
		case <-deadline:
			t.Fatal("timed out waiting for commitment to be verified")
		case <-time.After(10 * time.Millisecond):
		}
	}
	cancel()
	<-done

	scanned, ok, err := db.GetLastScannedL1Height()
	if err != nil || !ok || scanned != 1 {
		t.Fatalf("want last scanned height 1, got %d ok=%v err=%v", scanned, ok, err)
	}
}

func TestWorkerDefersBlockUntilL2RangeSynced(t *testing.T) {
	chain := mockda.New()
	chain.Append([32]byte{0}, nil)

	db := openWorkerTestLedger(t)
	// Only height 1 synced; commitment references [1,2].
	if err := db.PutSoftConfirmation(ledger.StoredSoftConfirmation{L2Height: 1, Hash: [32]byte{1}}); err != nil {
		t.Fatal(err)
	}

	keys := da.PublisherKeys{Sequencer: []byte("seq"), Prover: []byte("prover")}
	extractor := da.NewExtractor(keys, zap.NewNop())
	commitments := &fakeCommitmentVerifier{}
	proofs := fakeProofVerifier{}

	blob := commitmentBlob(keys.Sequencer, da.SequencerCommitment{L2Start: 1, L2End: 2})
	chain.Append([32]byte{1}, []da.Blob{blob})

	w := New(chain, extractor, commitments, proofs, db, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx, 0) }()

	time.Sleep(1500 * time.Millisecond)
	if commitments.count() != 0 {
		t.Fatalf("expected commitment to remain deferred, got %d verified", commitments.count())
	}

	// Now complete the L2 range and confirm it drains on the next tick.
	if err := db.PutSoftConfirmation(ledger.StoredSoftConfirmation{L2Height: 2, Hash: [32]byte{2}}); err != nil {
		t.Fatal(err)
	}

	deadline := time.After(2 * time.Second)
	for commitments.count() == 0 {
		select {
		case <-deadline:
			t.Fatal("timed out waiting for deferred commitment to drain")
		case <-time.After(10 * time.Millisecond):
		}
	}
	cancel()
	<-done
}
