// Package da abstracts the Bitcoin-family DA layer behind the two
// capability sets named in spec.md §9: a block-fetching Service and a
// publisher-keyed blob extractor. Concrete variants are a Bitcoin client
// (out of scope here) and the in-memory mockda used by tests.
package da

// Header is the DA-layer block header the sync worker walks. TxCount and
// the precomputed hash are carried explicitly, mirroring
// original_source/crates/bitcoin-da/src/spec/header.rs's HeaderWrapper:
// the hash of a DA block is expensive enough to justify caching it
// alongside the header rather than recomputing it per lookup.
type Header struct {
	Hash         [32]byte
	PrevHash     [32]byte
	Height       uint64
	TxCount      uint64
	Finalized    bool
}

// Block is a DA-layer block: its header plus the opaque blobs it carries
// (transaction payloads, in Bitcoin's case witness-embedded data).
type Block struct {
	Header Header
	Blobs  []Blob
}

// Blob is an opaque payload extracted from a DA block, tagged with the
// public key that signed it so the extractor can route it by publisher.
type Blob struct {
	PublisherKey []byte
	Data         []byte
}

// BlobKind discriminates the two known blob variants the extractor
// recognizes.
type BlobKind int

const (
	KindUnknown BlobKind = iota
	KindSequencerCommitment
	KindZKProof
)

// SequencerCommitment is a blob decoded as a sequencer commitment: an
// inclusive L2 height range and its claimed Merkle root.
type SequencerCommitment struct {
	L2Start uint64
	L2End   uint64
	Root    [32]byte
}

// ZKProof is a blob decoded as a zk proof: the opaque proof bytes plus
// the public output needed to chain and verify it.
type ZKProof struct {
	ProofBytes          []byte
	SequencerPublicKey  []byte
	SequencerDAPubKey   []byte
	InitialStateRoot    [32]byte
	FinalStateRoot      [32]byte
	FirstL2Height        uint64
	LastL2Height         uint64
	PreprovenCommitments []uint64
	LastL2HeightAtProve  uint64 // selects the fork the proof's code commitment was produced under

	// DASlotHash identifies the L1 block whose commitments this proof
	// covers; resolved to a height via the l1_hash -> l1_height index.
	DASlotHash [32]byte
	// Range0/Range1 are inclusive indices into the sorted, preproven-
	// filtered commitment list written at that L1 height.
	Range0 uint64
	Range1 uint64
}
