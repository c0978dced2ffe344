package rollupevm

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
)

// rlpHeader is the wire shape hashed to produce a block's identity. It is
// kept separate from Header so optional Cancun fields only appear in the
// encoding when they're actually set, matching go-ethereum's own
// optional-field header RLP convention.
type rlpHeader struct {
	ParentHash       common.Hash
	Number           uint64
	StateRoot        common.Hash
	TransactionsRoot common.Hash
	ReceiptsRoot     common.Hash
	LogsBloom        []byte
	Beneficiary      common.Address
	Timestamp        uint64
	MixHash          common.Hash
	GasLimit         uint64
	GasUsed          uint64
	BaseFee          []byte

	BlobGasUsed   *uint64 `rlp:"optional"`
	ExcessBlobGas *uint64 `rlp:"optional"`
}

func hashHeader(h *Header) common.Hash {
	enc := rlpHeader{
		ParentHash:       h.ParentHash,
		Number:           h.Number,
		StateRoot:        h.StateRoot,
		TransactionsRoot: h.TransactionsRoot,
		ReceiptsRoot:     h.ReceiptsRoot,
		LogsBloom:        h.LogsBloom.Bytes(),
		Beneficiary:      h.Beneficiary,
		Timestamp:        h.Timestamp,
		MixHash:          h.MixHash,
		GasLimit:         h.GasLimit,
		GasUsed:          h.GasUsed,
		BlobGasUsed:      h.BlobGasUsed,
		ExcessBlobGas:    h.ExcessBlobGas,
	}
	if h.BaseFee != nil {
		enc.BaseFee = h.BaseFee.Bytes()
	}
	b, err := rlp.EncodeToBytes(&enc)
	if err != nil {
		// Header fields are all fixed-width or nil-checked; encoding a
		// sealed header cannot fail.
		panic(err)
	}
	return crypto.Keccak256Hash(b)
}
