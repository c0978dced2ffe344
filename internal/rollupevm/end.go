package rollupevm

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/trie"
)

// emptyRootSentinel stands in for the state root between End and
// Finalize, when the real root is not yet known to the caller (it is
// computed by the storage manager after commit).
var emptyRootSentinel = common.HexToHash("0xdeadbeef00000000000000000000000000000000000000000000000000000000")

// End seals the pending block's transaction/receipt data, per spec.md
// §4.1's end hook. The state root remains a sentinel until Finalize
// installs the real one.
func (e *Engine) End(info SoftConfirmationInfo) (*Block, error) {
	if e.pending == nil {
		return nil, errors.New("rollupevm: end called before begin")
	}
	p := e.pending

	var parentNumber uint64
	if e.head != nil {
		parentNumber = e.head.Header.Number
	}
	if p.header.Number != parentNumber+1 {
		return nil, fmt.Errorf("rollupevm: pending block number %d does not follow parent %d", p.header.Number, parentNumber)
	}

	txRoot := computeTxRoot(p.pending)
	receiptRoot, bloom, gasUsed := computeReceiptsRootAndBloom(p.pending)

	p.header.TransactionsRoot = txRoot
	p.header.ReceiptsRoot = receiptRoot
	p.header.LogsBloom = bloom
	p.header.GasUsed = gasUsed
	p.header.StateRoot = emptyRootSentinel

	start := e.nextGlobalTxIndex
	for _, ptx := range p.pending {
		if ptx.Transaction == nil {
			continue // system event, no externally addressable tx hash
		}
		e.txIndex[ptx.Transaction.Hash()] = e.nextGlobalTxIndex
		e.nextGlobalTxIndex++
	}

	block := &Block{
		Header:    p.header,
		L1FeeRate: info.L1FeeRate,
		L1Hash:    info.DaSlotHash,
		TxStart:   start,
		TxEnd:     e.nextGlobalTxIndex,
	}

	// The pending-transaction buffer is cleared here, not lazily on the
	// next Begin: a block that is sealed but never finalized must not
	// leak its transactions into whatever gets constructed next.
	e.pending.pending = nil
	e.pending.logs = nil

	return block, nil
}

// Finalize installs the computed post-state root on the sealed block,
// appends it to the canonical chain, and records its fork activation and
// block-hash mapping.
func (e *Engine) Finalize(block *Block, root common.Hash) error {
	block.Header.StateRoot = root
	block.hashCached = false

	h := block.Hash()
	e.blocks = append(e.blocks, block)
	e.blockByHash[h] = block.Header.Number
	e.head = block

	if err := e.forkMg.RegisterBlock(block.Header.Number); err != nil {
		return fmt.Errorf("rollupevm: fork registration failed: %w", err)
	}
	return nil
}

func computeTxRoot(pending []PendingTransaction) common.Hash {
	var txs types.Transactions
	for _, p := range pending {
		if p.Transaction != nil {
			txs = append(txs, p.Transaction)
		}
	}
	if len(txs) == 0 {
		return types.EmptyTxsHash
	}
	return types.DeriveSha(txs, trie.NewStackTrie(nil))
}

func computeReceiptsRootAndBloom(pending []PendingTransaction) (common.Hash, types.Bloom, uint64) {
	var receipts types.Receipts
	var gasUsed uint64
	for _, p := range pending {
		receipts = append(receipts, p.Receipt.Inner)
		if p.Receipt.Inner.CumulativeGasUsed > gasUsed {
			gasUsed = p.Receipt.Inner.CumulativeGasUsed
		}
	}
	if len(receipts) == 0 {
		return types.EmptyReceiptsHash, types.Bloom{}, 0
	}
	return types.DeriveSha(receipts, trie.NewStackTrie(nil)), types.CreateBloom(receipts), gasUsed
}
