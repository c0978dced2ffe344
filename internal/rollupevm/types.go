// Package rollupevm implements the EVM execution engine wrapped in the
// soft-confirmation protocol: deterministic begin/apply/end/finalize hooks,
// system-contract events, L1-fee accounting, priority-fee vaults, and
// block-hash history (spec.md §4.1-§4.3, §4.9).
//
// The engine composes go-ethereum's EVM interpreter and StateDB the same
// way luxfi-evm/core/state_processor.go composes vm.NewEVM: this package
// never reimplements opcode semantics, only the soft-confirmation envelope
// around them.
package rollupevm

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/holiman/uint256"

	"github.com/citrea-rollup/node/internal/fork"
)

// Hash32 is a bare 32-byte hash, used for fields that are opaque digests
// rather than go-ethereum common.Hash values tied to EVM semantics.
type Hash32 = common.Hash

// SoftConfirmationInfo carries everything the Begin/End hooks need about
// the soft confirmation under construction. It mirrors
// original_source/crates/evm/src/hooks.rs's HookSoftConfirmationInfo
// field-for-field.
type SoftConfirmationInfo struct {
	L2Height            uint64
	DaSlotHash          Hash32
	DaSlotHeight        uint64
	DaSlotTxsCommitment Hash32
	PreStateRoot        []byte
	CurrentSpec         fork.SpecID
	PubKey              []byte
	DepositData         [][]byte
	L1FeeRate           uint64
	Timestamp           uint64
}

// Header is the soft-confirmation EVM block header: the standard
// reth-style header fields plus the two rollup-specific additions (L1 fee
// rate, L1 hash) that travel with the sealed block rather than inside it.
type Header struct {
	ParentHash       common.Hash
	Number           uint64
	StateRoot        common.Hash // sentinel until Finalize installs the real root
	TransactionsRoot common.Hash
	ReceiptsRoot     common.Hash
	LogsBloom        types.Bloom
	Beneficiary      common.Address
	Timestamp        uint64
	MixHash          common.Hash // da_slot_hash, reused as prevrandao
	GasLimit         uint64
	GasUsed          uint64
	BaseFee          *big.Int

	// Present only when the active fork is Cancun-or-later (spec.md §4.1
	// step 6); nil otherwise so RLP/JSON encoding omits the fields.
	BlobGasUsed   *uint64
	ExcessBlobGas *uint64
}

// Block is a sealed soft-confirmation EVM block: the header plus the L1
// accounting fields and the inclusive global transaction-index range it
// owns, per spec.md §3's "EVM block" data model.
type Block struct {
	Header     Header
	L1FeeRate  uint64
	L1Hash     Hash32
	TxStart    uint64 // inclusive
	TxEnd      uint64 // exclusive
	hash       common.Hash
	hashCached bool
}

// Hash returns (and caches) the block's hash: Keccak256 of its RLP-encoded
// header, matching reth/go-ethereum header hashing.
func (b *Block) Hash() common.Hash {
	if !b.hashCached {
		b.hash = hashHeader(&b.Header)
		b.hashCached = true
	}
	return b.hash
}

// Account is the on-chain EVM account model from spec.md §3: balance,
// nonce, and an optional code hash. Code and storage are held in separate
// mappings, not embedded, the same way go-ethereum's StateDB separates
// them from the account trie leaf.
type Account struct {
	Balance  *uint256.Int
	Nonce    uint64
	CodeHash *common.Hash // nil means EOA / no code
}

// Receipt extends the standard EVM receipt with the three rollup-specific
// accounting fields: the transaction's own gas usage (vs. cumulative), the
// global log-index it starts at, and its DA footprint in bytes.
type Receipt struct {
	Inner         *types.Receipt
	GasUsed       uint64
	LogIndexStart uint64
	L1DiffSize    uint64
}

// PendingTransaction pairs a signed transaction with the receipt produced
// by applying it, held in the engine's pending buffer between Begin/End.
type PendingTransaction struct {
	Transaction *types.Transaction
	Receipt     *Receipt
}

// DepositData is an opaque bridge-deposit parameter blob, forwarded
// verbatim from a soft confirmation's deposit-data list into a
// BridgeDeposit system event (spec.md §4.1 step 4).
type DepositData = []byte
