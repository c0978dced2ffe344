package ledger

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/citrea-rollup/node/internal/syncerrors"
)

var (
	bucketSoftConfirmations = []byte("soft_confirmations")
	bucketStateRoots        = []byte("l2_state_roots")
	bucketL1HeightOfHash    = []byte("l1_height_of_l1_hash")
	bucketCommitmentsOnSlot = []byte("commitments_on_l1_slot")
	bucketStatus            = []byte("soft_confirmation_status")
	bucketVerifiedProofs    = []byte("verified_proofs")
	bucketMeta              = []byte("meta")
)

var allBuckets = [][]byte{
	bucketSoftConfirmations,
	bucketStateRoots,
	bucketL1HeightOfHash,
	bucketCommitmentsOnSlot,
	bucketStatus,
	bucketVerifiedProofs,
	bucketMeta,
}

var lastScannedL1HeightKey = []byte("last_scanned_l1_height")

// DB is the bbolt-backed ledger store, one bucket per column family from
// spec.md §6.
type DB struct {
	bdb *bolt.DB
}

// Open creates (or reopens) the ledger database at path, creating all
// column-family buckets if this is a fresh file.
func Open(path string) (*DB, error) {
	bdb, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, syncerrors.NewFatal(fmt.Errorf("ledger: open %s: %w", path, err))
	}
	d := &DB{bdb: bdb}
	if err := d.bdb.Update(func(tx *bolt.Tx) error {
		for _, b := range allBuckets {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("create bucket %s: %w", string(b), err)
			}
		}
		return nil
	}); err != nil {
		_ = bdb.Close()
		return nil, syncerrors.NewFatal(err)
	}
	return d, nil
}

// Close releases the underlying bbolt file handle.
func (d *DB) Close() error { return d.bdb.Close() }

func heightKey(h uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, h) // big-endian so bbolt's byte ordering matches numeric ordering
	return b
}

// PutSoftConfirmation persists a soft confirmation and sets its initial
// status to Trusted if it has none yet.
func (d *DB) PutSoftConfirmation(sc StoredSoftConfirmation) error {
	val, err := json.Marshal(sc)
	if err != nil {
		return fmt.Errorf("ledger: encode soft confirmation %d: %w", sc.L2Height, err)
	}
	return d.bdb.Update(func(tx *bolt.Tx) error {
		if err := tx.Bucket(bucketSoftConfirmations).Put(heightKey(sc.L2Height), val); err != nil {
			return err
		}
		statusBucket := tx.Bucket(bucketStatus)
		if statusBucket.Get(heightKey(sc.L2Height)) == nil {
			return statusBucket.Put(heightKey(sc.L2Height), []byte{byte(Trusted)})
		}
		return nil
	})
}

// GetSoftConfirmation looks up a single soft confirmation by height.
func (d *DB) GetSoftConfirmation(h uint64) (*StoredSoftConfirmation, bool, error) {
	var out *StoredSoftConfirmation
	err := d.bdb.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketSoftConfirmations).Get(heightKey(h))
		if v == nil {
			return nil
		}
		var sc StoredSoftConfirmation
		if err := json.Unmarshal(v, &sc); err != nil {
			return err
		}
		out = &sc
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return out, out != nil, nil
}

// GetSoftConfirmationRange returns the soft confirmations for [start, end]
// inclusive, in height order, and whether the range was complete (no gaps).
func (d *DB) GetSoftConfirmationRange(start, end uint64) ([]StoredSoftConfirmation, bool, error) {
	var out []StoredSoftConfirmation
	err := d.bdb.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketSoftConfirmations)
		for h := start; h <= end; h++ {
			v := b.Get(heightKey(h))
			if v == nil {
				return nil // leave out short; caller checks completeness
			}
			var sc StoredSoftConfirmation
			if err := json.Unmarshal(v, &sc); err != nil {
				return err
			}
			out = append(out, sc)
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	want := int(end-start) + 1
	return out, len(out) == want, nil
}

// PutStateRoot persists the post-state root of an L2 block.
func (d *DB) PutStateRoot(h uint64, root [32]byte) error {
	return d.bdb.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketStateRoots).Put(heightKey(h), root[:])
	})
}

// GetStateRoot looks up the post-state root of an L2 block.
func (d *DB) GetStateRoot(h uint64) ([32]byte, bool, error) {
	var out [32]byte
	var found bool
	err := d.bdb.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketStateRoots).Get(heightKey(h))
		if v == nil {
			return nil
		}
		copy(out[:], v)
		found = true
		return nil
	})
	return out, found, err
}

// PutL1HeightOfHash records the L1 height a given L1 block hash was seen
// at, so proof verification can resolve `da_slot_hash → l1_height`.
func (d *DB) PutL1HeightOfHash(hash [32]byte, height uint64) error {
	return d.bdb.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketL1HeightOfHash).Put(hash[:], heightKey(height))
	})
}

// GetL1HeightOfHash resolves an L1 block hash to the height it was seen at.
func (d *DB) GetL1HeightOfHash(hash [32]byte) (uint64, bool, error) {
	var out uint64
	var found bool
	err := d.bdb.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketL1HeightOfHash).Get(hash[:])
		if v == nil {
			return nil
		}
		out = binary.BigEndian.Uint64(v)
		found = true
		return nil
	})
	return out, found, err
}

// PutCommitmentsOnSlot stores the sequencer commitments observed at a
// given L1 height, replacing any list already stored for that height.
func (d *DB) PutCommitmentsOnSlot(l1Height uint64, commitments []SequencerCommitment) error {
	val, err := json.Marshal(commitments)
	if err != nil {
		return fmt.Errorf("ledger: encode commitments at L1 height %d: %w", l1Height, err)
	}
	return d.bdb.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketCommitmentsOnSlot).Put(heightKey(l1Height), val)
	})
}

// GetCommitmentsOnSlot returns the sequencer commitments recorded at a
// given L1 height.
func (d *DB) GetCommitmentsOnSlot(l1Height uint64) ([]SequencerCommitment, error) {
	var out []SequencerCommitment
	err := d.bdb.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketCommitmentsOnSlot).Get(heightKey(l1Height))
		if v == nil {
			return nil
		}
		return json.Unmarshal(v, &out)
	})
	return out, err
}

// SetStatus advances the status of an L2 height, refusing any downgrade
// (spec.md §8 invariant 3).
func (d *DB) SetStatus(h uint64, next Status) error {
	return d.bdb.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketStatus)
		cur := Trusted
		if v := b.Get(heightKey(h)); v != nil {
			cur = Status(v[0])
		}
		if !cur.le(next) {
			return fmt.Errorf("ledger: refusing to downgrade status of height %d from %s to %s", h, cur, next)
		}
		return b.Put(heightKey(h), []byte{byte(next)})
	})
}

// GetStatus returns the status of an L2 height, defaulting to Trusted if
// unseen (the caller is expected to have already confirmed the height
// exists).
func (d *DB) GetStatus(h uint64) (Status, error) {
	status := Trusted
	err := d.bdb.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketStatus).Get(heightKey(h))
		if v != nil {
			status = Status(v[0])
		}
		return nil
	})
	return status, err
}

// PutVerifiedProofs persists the batch-proof outputs verified at a given
// L1 height.
func (d *DB) PutVerifiedProofs(l1Height uint64, outputs []StoredBatchProofOutput) error {
	val, err := json.Marshal(outputs)
	if err != nil {
		return fmt.Errorf("ledger: encode verified proofs at L1 height %d: %w", l1Height, err)
	}
	return d.bdb.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketVerifiedProofs).Put(heightKey(l1Height), val)
	})
}

// GetVerifiedProofs returns the batch-proof outputs verified at a given
// L1 height.
func (d *DB) GetVerifiedProofs(l1Height uint64) ([]StoredBatchProofOutput, error) {
	var out []StoredBatchProofOutput
	err := d.bdb.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketVerifiedProofs).Get(heightKey(l1Height))
		if v == nil {
			return nil
		}
		return json.Unmarshal(v, &out)
	})
	return out, err
}

// SetLastScannedL1Height records how far the L1 sync worker has walked.
func (d *DB) SetLastScannedL1Height(h uint64) error {
	return d.bdb.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketMeta).Put(lastScannedL1HeightKey, heightKey(h))
	})
}

// GetLastScannedL1Height returns the last L1 height the sync worker
// completed, or 0/false if the node has never scanned.
func (d *DB) GetLastScannedL1Height() (uint64, bool, error) {
	var out uint64
	var found bool
	err := d.bdb.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketMeta).Get(lastScannedL1HeightKey)
		if v == nil {
			return nil
		}
		out = binary.BigEndian.Uint64(v)
		found = true
		return nil
	})
	return out, found, err
}

// GetHeadSoftConfirmationHeight returns the highest persisted L2 height,
// or 0/false if the ledger is empty.
func (d *DB) GetHeadSoftConfirmationHeight() (uint64, bool, error) {
	var out uint64
	var found bool
	err := d.bdb.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketSoftConfirmations).Cursor()
		k, _ := c.Last()
		if k == nil {
			return nil
		}
		out = binary.BigEndian.Uint64(k)
		found = true
		return nil
	})
	return out, found, err
}

var genesisStateRootKey = []byte("l2_genesis_state_root")

// SetGenesisStateRoot records the state root produced by chain
// initialization, answering ledger.getL2GenesisStateRoot.
func (d *DB) SetGenesisStateRoot(root [32]byte) error {
	return d.bdb.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketMeta).Put(genesisStateRootKey, root[:])
	})
}

// GetGenesisStateRoot returns the genesis state root, or false if the
// chain has not been initialized yet.
func (d *DB) GetGenesisStateRoot() ([32]byte, bool, error) {
	var out [32]byte
	var found bool
	err := d.bdb.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketMeta).Get(genesisStateRootKey)
		if v == nil {
			return nil
		}
		copy(out[:], v)
		found = true
		return nil
	})
	return out, found, err
}
