// Package syncerrors holds the shared error taxonomy used by the L1/L2 sync
// workers and the commitment/proof verifiers: transport errors are always
// retriable, missing-L2 errors defer a whole L1 block, and invariant
// violations reject a single item without interrupting its siblings.
package syncerrors

import (
	"errors"
	"fmt"
)

// Transport wraps a network error from the DA client or the sequencer RPC
// endpoint. It is always retriable with backoff and never fatal.
type Transport struct {
	Err error
}

func (e *Transport) Error() string { return fmt.Sprintf("transport: %v", e.Err) }
func (e *Transport) Unwrap() error { return e.Err }

// NewTransport wraps err as a retriable transport error.
func NewTransport(err error) error {
	if err == nil {
		return nil
	}
	return &Transport{Err: err}
}

// IsTransport reports whether err is (or wraps) a Transport error.
func IsTransport(err error) bool {
	var t *Transport
	return errors.As(err, &t)
}

// MissingL2 indicates a DA-side item (a sequencer commitment or a zk proof)
// references L2 heights that are not yet locally synced. The whole L1 block
// must be deferred and retried on the next tick; no status is mutated.
type MissingL2 struct {
	Msg   string
	Start uint64
	End   uint64
}

func (e *MissingL2) Error() string {
	return fmt.Sprintf("missing L2 range [%d, %d]: %s", e.Start, e.End, e.Msg)
}

// NewMissingL2 builds a MissingL2 error for the inclusive range [start, end].
func NewMissingL2(msg string, start, end uint64) error {
	return &MissingL2{Msg: msg, Start: start, End: end}
}

// AsMissingL2 reports whether err is a MissingL2 and returns it.
func AsMissingL2(err error) (*MissingL2, bool) {
	var m *MissingL2
	ok := errors.As(err, &m)
	return m, ok
}

// InvariantViolation covers merkle-root mismatches, prev-hash mismatches,
// post-state-root mismatches, and proof-verification failures. It rejects
// only the offending item; processing continues with its siblings.
type InvariantViolation struct {
	Msg string
}

func (e *InvariantViolation) Error() string { return "invariant violation: " + e.Msg }

// NewInvariantViolation builds an InvariantViolation with a formatted message.
func NewInvariantViolation(format string, args ...any) error {
	return &InvariantViolation{Msg: fmt.Sprintf(format, args...)}
}

// IsInvariantViolation reports whether err is an InvariantViolation.
func IsInvariantViolation(err error) bool {
	var iv *InvariantViolation
	return errors.As(err, &iv)
}

// Fatal marks errors that should abort the process: storage could not be
// opened, or a known-good on-disk record failed to parse.
type Fatal struct {
	Err error
}

func (e *Fatal) Error() string { return fmt.Sprintf("fatal: %v", e.Err) }
func (e *Fatal) Unwrap() error { return e.Err }

// NewFatal wraps err as a Fatal error.
func NewFatal(err error) error {
	if err == nil {
		return nil
	}
	return &Fatal{Err: err}
}
