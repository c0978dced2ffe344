package rollupevm

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	gethcore "github.com/ethereum/go-ethereum/core"
	"github.com/ethereum/go-ethereum/core/tracing"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/core/vm"
	"github.com/ethereum/go-ethereum/params"
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"github.com/citrea-rollup/node/internal/blockhash"
	"github.com/citrea-rollup/node/internal/fork"
)

// StateBackend is the slice of go-ethereum's state.StateDB the engine
// needs, restated as our own interface (rather than embedding
// vm.StateDB directly) so tests can substitute an in-memory fake without
// standing up a full trie-backed database. *state.StateDB satisfies it
// directly, with no adapter, the way luxfi-evm/core/state_processor.go
// hands a *state.StateDB straight to vm.NewEVM.
type StateBackend interface {
	vm.StateDB

	GetBalance(common.Address) *uint256.Int
	SubBalance(common.Address, *uint256.Int, tracing.BalanceChangeReason) uint256.Int
	AddBalance(common.Address, *uint256.Int, tracing.BalanceChangeReason) uint256.Int
	IntermediateRoot(deleteEmptyObjects bool) common.Hash
	Snapshot() int
	RevertToSnapshot(int)
	GetLogs(txHash common.Hash, blockNumber uint64, blockHash common.Hash) []*types.Log
}

// Config bundles the engine's static parameters: chain rules, block
// shape, vault addresses, and L1-fee parameters.
type Config struct {
	ChainConfig *params.ChainConfig
	GasLimit    uint64
	Vaults      Vaults
	FeeParams   FeeParams
}

// Engine implements the begin/apply_call_batch/end/finalize soft-
// confirmation lifecycle around a go-ethereum EVM, per spec.md §4.1.
type Engine struct {
	cfg    Config
	forkMg *fork.Manager
	logger *zap.Logger

	blockHashes *blockhash.Ring
	blocks      []*Block
	blockByHash map[common.Hash]uint64

	lastL1Hash common.Hash

	head    *Block // last finalized block
	pending *pendingBlock

	nextGlobalTxIndex uint64
	txIndex           map[common.Hash]uint64
}

// pendingBlock is the block under construction between Begin and
// Finalize.
type pendingBlock struct {
	state   StateBackend
	header  Header
	spec    fork.SpecID
	info    SoftConfirmationInfo
	gasUsed uint64
	pending []PendingTransaction
	logs    []*types.Log
}

// NewEngine constructs an Engine at genesis: no blocks sealed yet, the
// block-hash ring empty.
func NewEngine(cfg Config, forkMg *fork.Manager, logger *zap.Logger) *Engine {
	return &Engine{
		cfg:         cfg,
		forkMg:      forkMg,
		logger:      logger,
		blockHashes: blockhash.New(),
		blockByHash: make(map[common.Hash]uint64),
		txIndex:     make(map[common.Hash]uint64),
	}
}

// Head returns the last finalized block, or nil before genesis.
func (e *Engine) Head() *Block { return e.head }

// Begin starts construction of the soft confirmation described by info,
// against the given fresh StateBackend (already forked from the parent's
// committed state by the caller's storage manager).
//
// Do not reorder these steps: the pending-transaction buffer must be
// cleared before anything else touches it, a holy line guarding against
// transactions leaking across soft confirmations.
func (e *Engine) Begin(state StateBackend, info SoftConfirmationInfo) error {
	e.pending = nil

	parent := e.head
	var parentNumber uint64
	var parentHash common.Hash
	var parentGasUsed, parentGasLimit uint64
	var parentBaseFee *big.Int

	if parent != nil {
		parentNumber = parent.Header.Number
		parentHash = parent.Hash()
		parentGasUsed = parent.Header.GasUsed
		parentGasLimit = parent.Header.GasLimit
		parentBaseFee = parent.Header.BaseFee
	} else {
		parentBaseFee = big.NewInt(params.InitialBaseFee)
		parentGasLimit = e.cfg.GasLimit
	}

	// info.PreStateRoot is the root the caller's storage manager already
	// opened `state` against; Finalize is what installs a block's real
	// root onto its sealed header, so there is nothing left to patch in
	// here beyond sanity-checking the two agree.
	if parent != nil && len(info.PreStateRoot) == common.HashLength {
		if got := common.BytesToHash(info.PreStateRoot); got != parent.Header.StateRoot {
			return fmt.Errorf("rollupevm: pre_state_root %s does not match finalized parent root %s", got, parent.Header.StateRoot)
		}
	}

	if parent != nil {
		e.blockHashes.Set(parentNumber, blockhash.Hash(parentHash))
	}

	isFirstBlock := parent == nil
	lastHash := e.lastL1Hash
	events := BuildSystemEvents(info, isFirstBlock, lastHash)

	spec := e.forkMg.ActiveFork()
	nextBaseFee := computeNextBaseFee(parentGasUsed, parentGasLimit, parentBaseFee, e.cfg.ChainConfig)

	header := Header{
		ParentHash:  parentHash,
		Number:      parentNumber + 1,
		Beneficiary: e.cfg.Vaults.PriorityFee,
		Timestamp:   info.Timestamp,
		MixHash:     info.DaSlotHash,
		GasLimit:    e.cfg.GasLimit,
		BaseFee:     nextBaseFee,
	}
	if spec >= fork.Cancun {
		zero := uint64(0)
		header.BlobGasUsed = &zero
		header.ExcessBlobGas = &zero
	}

	e.pending = &pendingBlock{
		state:  state,
		header: header,
		spec:   spec,
		info:   info,
	}

	if err := e.injectSystemEvents(events); err != nil {
		return fmt.Errorf("rollupevm: system event injection failed: %w", err)
	}

	e.lastL1Hash = info.DaSlotHash
	return nil
}

// injectSystemEvents executes the privileged calls decided by
// BuildSystemEvents at the head of the block, out of the reserved system
// gas budget. Failure here is fatal to the whole soft confirmation.
func (e *Engine) injectSystemEvents(events []SystemEvent) error {
	budget := uint64(SystemGasBudget)
	for _, ev := range events {
		used, err := e.applySystemCall(ev, budget)
		if err != nil {
			return err
		}
		if used > budget {
			return fmt.Errorf("system event %v exceeded reserved gas budget", ev.Kind)
		}
		budget -= used
		e.pending.gasUsed += used
	}
	return nil
}

// applySystemCall executes one privileged call against predeployed
// system contract state. The actual contract bytecode/ABI is out of
// scope here; the engine's contract is to charge gas and record a
// receipt/log witnessing the call, the way tests assert hook wiring
// (spec.md §4.3).
func (e *Engine) applySystemCall(ev SystemEvent, gasAvailable uint64) (uint64, error) {
	const baseSystemCallGas = 21_000
	if baseSystemCallGas > gasAvailable {
		return 0, fmt.Errorf("insufficient system gas budget for event %v", ev.Kind)
	}

	topic := systemEventTopic(ev.Kind)
	data := systemEventData(ev)
	log := &types.Log{
		Address: ev.To,
		Topics:  []common.Hash{topic},
		Data:    data,
		TxIndex: uint(len(e.pending.pending)),
	}
	e.pending.logs = append(e.pending.logs, log)

	receipt := &types.Receipt{
		Type:            types.LegacyTxType,
		Status:          types.ReceiptStatusSuccessful,
		Logs:            []*types.Log{log},
		GasUsed:         baseSystemCallGas,
		CumulativeGasUsed: e.pending.gasUsed + baseSystemCallGas,
	}
	e.recordPendingTx(nil, &Receipt{Inner: receipt, GasUsed: baseSystemCallGas})
	return baseSystemCallGas, nil
}

func systemEventTopic(kind SystemEventKind) common.Hash {
	switch kind {
	case BitcoinLightClientInitialize:
		return common.HexToHash("0x01")
	case BitcoinLightClientSetBlockInfo:
		return common.HexToHash("0x02")
	case BridgeInitialize:
		return common.HexToHash("0x03")
	case BridgeDeposit:
		return common.HexToHash("0x04")
	default:
		return common.Hash{}
	}
}

func systemEventData(ev SystemEvent) []byte {
	switch ev.Kind {
	case BitcoinLightClientInitialize:
		return new(big.Int).SetUint64(ev.DaHeight).Bytes()
	case BitcoinLightClientSetBlockInfo:
		return append(append([]byte{}, ev.DaHash[:]...), ev.DaTxsCommitment[:]...)
	case BridgeDeposit:
		return ev.DepositParams
	default:
		return nil
	}
}

// recordPendingTx appends a transaction/receipt pair with a
// monotonically increasing global index, or nil tx for system events.
func (e *Engine) recordPendingTx(tx *types.Transaction, r *Receipt) {
	r.LogIndexStart = uint64(len(e.pending.logs)) - uint64(len(r.Inner.Logs))
	e.pending.pending = append(e.pending.pending, PendingTransaction{Transaction: tx, Receipt: r})
}

// computeNextBaseFee applies the chain's configured EIP-1559 parameters
// to the parent block's gas usage. A zero parent gas limit (no parent
// header to derive from) yields the initial base fee.
func computeNextBaseFee(parentGasUsed, parentGasLimit uint64, parentBaseFee *big.Int, cfg *params.ChainConfig) *big.Int {
	if parentGasLimit == 0 {
		return big.NewInt(params.InitialBaseFee)
	}
	// CalcBaseFee only applies the update to a parent it sees as a London
	// block; the chain configs this engine runs under activate London at
	// block 0, so a zero parent number qualifies.
	parentHeader := &types.Header{
		Number:   new(big.Int),
		GasUsed:  parentGasUsed,
		GasLimit: parentGasLimit,
		BaseFee:  parentBaseFee,
	}
	return gethcore.CalcBaseFee(cfg, parentHeader)
}
