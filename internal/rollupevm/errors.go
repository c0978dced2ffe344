// (c) 2024-2026, Citrea Contributors.
// See the file LICENSE for licensing terms.

package rollupevm

import (
	"errors"
	"fmt"
)

// Common soft-confirmation apply errors. Any one of these aborts the
// enclosing soft confirmation atomically: the storage manager's snapshot is
// discarded and no partial state is committed.
var (
	// ErrPrevHashMismatch is raised by the caller (not the engine itself)
	// when a soft confirmation's declared prev_hash does not match the
	// locally computed hash of the previous soft confirmation.
	ErrPrevHashMismatch = errors.New("prev-soft-confirmation-hash mismatch")

	// ErrPostStateRootMismatch is raised when the locally computed post
	// state root does not match the root claimed by the soft confirmation.
	ErrPostStateRootMismatch = errors.New("post-state-root mismatch")

	// ErrTxParse is raised when a transaction body fails to decode as RLP.
	ErrTxParse = errors.New("transaction parse failure")
)

// NotEnoughFundsForL1Fee is returned by ApplyCallBatch when, after EVM
// execution, the sender cannot cover the L1 fee for a transaction. State
// is reverted to the snapshot taken before the transaction's execution, so
// not even its nonce bump or gas purchase persists, and the batch fails.
type NotEnoughFundsForL1Fee struct {
	Sender  string
	L1Fee   string
	Balance string
}

func (e NotEnoughFundsForL1Fee) Error() string {
	return fmt.Sprintf("not enough funds for L1 fee: sender %s owes %s, has %s", e.Sender, e.L1Fee, e.Balance)
}

// TxTypeNotSupported is returned for disallowed transaction types, e.g.
// EIP-4844 blob transactions.
type TxTypeNotSupported struct {
	TypeName string
}

func (e TxTypeNotSupported) Error() string {
	return fmt.Sprintf("tx type not supported: %s", e.TypeName)
}

// GasUsedExceedsBlockGasLimit is returned, before a transaction executes,
// when the gas already used in the block plus the transaction's declared
// gas limit would exceed the block gas limit.
type GasUsedExceedsBlockGasLimit struct {
	Cumulative uint64
	TxGas      uint64
	Limit      uint64
}

func (e GasUsedExceedsBlockGasLimit) Error() string {
	return fmt.Sprintf("gas used exceeds block gas limit: cumulative=%d tx_gas=%d limit=%d", e.Cumulative, e.TxGas, e.Limit)
}

// EvmTransactionExecutionError wraps an error returned by the inner EVM for
// a single transaction.
type EvmTransactionExecutionError struct {
	TxIndex int
	Err     error
}

func (e EvmTransactionExecutionError) Error() string {
	return fmt.Sprintf("evm transaction execution error at index %d: %v", e.TxIndex, e.Err)
}

func (e EvmTransactionExecutionError) Unwrap() error { return e.Err }
