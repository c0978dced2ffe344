package rollupevm

import (
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	gethcore "github.com/ethereum/go-ethereum/core"
	"github.com/ethereum/go-ethereum/core/tracing"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/core/vm"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/citrea-rollup/node/internal/fork"
)

// ApplyCallBatch executes a batch of signed user transactions against
// the pending block opened by Begin, in order, per spec.md §4.1's
// apply_call_batch and §4.2's L1-fee accounting.
func (e *Engine) ApplyCallBatch(txs []*types.Transaction) error {
	if e.pending == nil {
		return errors.New("rollupevm: apply_call_batch called before begin")
	}
	p := e.pending
	gp := new(gethcore.GasPool).AddGas(e.cfg.GasLimit)
	gp.SubGas(p.gasUsed) // account for gas already spent by system events

	signer := types.LatestSignerForChainID(e.cfg.ChainConfig.ChainID)

	blockCtx := vm.BlockContext{
		CanTransfer: gethcore.CanTransfer,
		Transfer:    gethcore.Transfer,
		GetHash:     e.getHashFn(),
		Coinbase:    p.header.Beneficiary,
		BlockNumber: new(big.Int).SetUint64(p.header.Number),
		Time:        p.header.Timestamp,
		Difficulty:  new(big.Int),
		GasLimit:    e.cfg.GasLimit,
		BaseFee:     p.header.BaseFee,
	}

	// The EVM's own SELFDESTRUCT opcode handling already moves the
	// destructed account's funds to its beneficiary and, under EIP-6780,
	// only erases code/storage when the account was created in the same
	// transaction. It has no notion of the rollup's own fork axis, so
	// this hook observes each self-destruct as it happens (by its
	// balance-change reason tags) and the per-tx loop below re-applies
	// selfDestructErase's fork-gated half on top.
	var destructs []selfDestructEvent
	var pendingDestructAddr common.Address
	var havePendingDestructAddr bool
	hooks := &tracing.Hooks{
		OnBalanceChange: func(addr common.Address, prev, new *big.Int, reason tracing.BalanceChangeReason) {
			switch reason {
			case tracing.BalanceDecreaseSelfdestruct:
				pendingDestructAddr = addr
				havePendingDestructAddr = true
			case tracing.BalanceIncreaseSelfdestructTransfer:
				if havePendingDestructAddr {
					destructs = append(destructs, selfDestructEvent{Addr: pendingDestructAddr, Beneficiary: addr})
					havePendingDestructAddr = false
				}
			}
		},
	}
	evm := vm.NewEVM(blockCtx, p.state, e.cfg.ChainConfig, vm.Config{Tracer: hooks})

	for i, tx := range txs {
		if tx.Type() == types.BlobTxType {
			return TxTypeNotSupported{TypeName: "EIP-4844"}
		}

		if p.gasUsed+tx.Gas() > e.cfg.GasLimit {
			return GasUsedExceedsBlockGasLimit{
				Cumulative: p.gasUsed,
				TxGas:      tx.Gas(),
				Limit:      e.cfg.GasLimit,
			}
		}

		msg, err := gethcore.TransactionToMessage(tx, signer, p.header.BaseFee)
		if err != nil {
			return EvmTransactionExecutionError{TxIndex: i, Err: err}
		}
		evm.SetTxContext(gethcore.NewEVMTxContext(msg))

		snapshot := p.state.Snapshot()
		destructs = destructs[:0]
		result, err := gethcore.ApplyMessage(evm, msg, gp)
		if err != nil {
			p.state.RevertToSnapshot(snapshot)
			return EvmTransactionExecutionError{TxIndex: i, Err: err}
		}

		rawDiffSize := tx.Size()
		split := computeFeeSplit(result.UsedGas, p.header.BaseFee, msg.GasPrice, rawDiffSize, p.info.L1FeeRate, p.spec, e.cfg.FeeParams)

		senderBalance := p.state.GetBalance(msg.From)
		if senderBalance.Lt(split.L1Fee) {
			p.state.RevertToSnapshot(snapshot)
			return NotEnoughFundsForL1Fee{
				Sender:  msg.From.Hex(),
				L1Fee:   split.L1Fee.String(),
				Balance: senderBalance.String(),
			}
		}

		// Only the L1 fee is new value this engine introduces: the base
		// fee was already burned by ApplyMessage and is re-credited to
		// the base-fee vault here, while the priority fee was already
		// paid straight to blockCtx.Coinbase, which Begin fixed to equal
		// the priority-fee vault address — crediting it again here would
		// double-pay the tip out of nothing.
		p.state.SubBalance(msg.From, split.L1Fee, tracing.BalanceDecreaseGasBuy)
		p.state.AddBalance(e.cfg.Vaults.BaseFee, split.BaseFee, tracing.BalanceIncreaseRewardTransactionFee)
		p.state.AddBalance(e.cfg.Vaults.L1Fee, split.L1Fee, tracing.BalanceIncreaseRewardTransactionFee)

		var createdAddr common.Address
		hasCreatedAddr := tx.To() == nil && !result.Failed()
		if hasCreatedAddr {
			createdAddr = crypto.CreateAddress(msg.From, tx.Nonce())
		}
		for _, d := range destructs {
			createdThisTx := hasCreatedAddr && d.Addr == createdAddr
			selfDestructErase(p.state, d.Addr, d.Beneficiary, p.spec, createdThisTx)
		}

		p.gasUsed += result.UsedGas

		receipt := buildReceipt(tx, result, p.gasUsed, p.state, msg.From)
		receipt.L1DiffSize = rawDiffSize
		receipt.LogIndexStart = uint64(len(p.logs))
		p.logs = append(p.logs, receipt.Inner.Logs...)

		e.recordPendingTx(tx, receipt)
	}
	return nil
}

// selfDestructEvent records one SELFDESTRUCT opcode execution observed via
// the EVM's balance-change tracer hooks during a single transaction.
type selfDestructEvent struct {
	Addr        common.Address
	Beneficiary common.Address
}

// getHashFn resolves BLOCKHASH lookups against the engine's last-256
// block-hash ring (spec.md §4.1 step 3, §4.9).
func (e *Engine) getHashFn() vm.GetHashFunc {
	return func(n uint64) common.Hash {
		var head uint64
		if e.pending != nil {
			head = e.pending.header.Number
		}
		h, ok := e.blockHashes.Get(n, head)
		if !ok {
			return common.Hash{}
		}
		return common.Hash(h)
	}
}

func buildReceipt(tx *types.Transaction, result *gethcore.ExecutionResult, cumulativeGasUsed uint64, state StateBackend, from common.Address) *Receipt {
	status := types.ReceiptStatusSuccessful
	if result.Failed() {
		status = types.ReceiptStatusFailed
	}
	inner := &types.Receipt{
		Type:              tx.Type(),
		Status:            status,
		CumulativeGasUsed: cumulativeGasUsed,
		TxHash:            tx.Hash(),
		GasUsed:           result.UsedGas,
	}
	inner.Logs = state.GetLogs(tx.Hash(), 0, common.Hash{})
	inner.Bloom = types.CreateBloom(types.Receipts{inner})

	if tx.To() == nil {
		inner.ContractAddress = crypto.CreateAddress(from, tx.Nonce())
	}

	return &Receipt{Inner: inner, GasUsed: result.UsedGas}
}

// selfDestructErase applies the fork-gated self-destruct semantics from
// spec.md §4.1: full erasure pre-Fork1 (or when the account was created
// in the same transaction), funds-only transfer otherwise.
func selfDestructErase(state StateBackend, addr, beneficiary common.Address, spec fork.SpecID, createdThisTx bool) {
	balance := state.GetBalance(addr)
	state.SubBalance(addr, balance, tracing.BalanceDecreaseSelfdestruct)
	state.AddBalance(beneficiary, balance, tracing.BalanceIncreaseSelfdestructTransfer)

	if spec < fork.Fork1 || createdThisTx {
		state.SetCode(addr, nil)
		state.SetNonce(addr, 0, tracing.NonceChangeContractCreation)
		// Storage clearing is handled by the backend's own
		// SelfDestruct/delete-empty-objects pass during
		// IntermediateRoot; this function only owns the funds/code/
		// nonce side of the fork split.
	}
}
