package ledger

// StoredSoftConfirmation is the persisted record for one applied L2
// block: enough to reconstruct the prev-hash chain, recompute a
// commitment's Merkle root, and answer the ledger RPC namespace.
type StoredSoftConfirmation struct {
	L2Height     uint64
	Hash         [32]byte
	PrevHash     [32]byte
	DaSlotHeight uint64
	DaSlotHash   [32]byte
	L1FeeRate    uint64
	Timestamp    uint64
	TxStart      uint64
	TxEnd        uint64
}

// SequencerCommitment is a commitment extracted from DA, covering an
// inclusive range of L2 heights with a claimed Merkle root over their
// hashes.
type SequencerCommitment struct {
	L2Start uint64
	L2End   uint64
	Root    [32]byte
}

// StoredBatchProofOutput is the persisted public output of a verified zk
// proof: the covered L2 range, the state-root chaining endpoints, and
// the indices of the commitments this proof skipped as already proven by
// an earlier proof.
type StoredBatchProofOutput struct {
	L1Height            uint64
	InitialStateRoot     [32]byte
	FinalStateRoot       [32]byte
	FirstL2Height        uint64
	LastL2Height         uint64
	PreprovenCommitments []uint64
}
