// Package fork implements the protocol fork table: a monotone list of
// (activation L2 height, spec id) pairs, and the manager that tracks which
// spec is active as soft confirmations are applied.
package fork

import (
	"fmt"
	"sort"
)

// SpecID identifies a protocol version boundary. Values increase with
// protocol age; comparisons (>=) select feature gates the way spec.md's
// component design repeatedly compares "current_spec >= Fork1".
type SpecID uint32

const (
	// Genesis is the spec active from L2 height 0 until the first
	// registered activation height.
	Genesis SpecID = 0
	// Fork1 gates the compression discount on L1-fee accounting and the
	// funds-only self-destruct semantics (spec.md §4.1, §4.2).
	Fork1 SpecID = 1
	// Cancun gates blob_excess_gas_and_price / blob_gas_used header
	// fields (spec.md §4.1 step 6).
	Cancun SpecID = 2
)

// Entry is one row of the fork table: the spec id active from Height
// (inclusive) until the next entry's Height.
type Entry struct {
	Height uint64
	Spec   SpecID
}

// Table is a sorted, monotone list of fork activations.
type Table []Entry

// Validate checks that activation heights are strictly increasing and the
// first entry activates at height 0.
func (t Table) Validate() error {
	if len(t) == 0 {
		return fmt.Errorf("fork table: must contain at least a genesis entry")
	}
	if t[0].Height != 0 {
		return fmt.Errorf("fork table: first entry must activate at height 0, got %d", t[0].Height)
	}
	for i := 1; i < len(t); i++ {
		if t[i].Height <= t[i-1].Height {
			return fmt.Errorf("fork table: activation heights must be strictly increasing, entry %d (%d) <= entry %d (%d)", i, t[i].Height, i-1, t[i-1].Height)
		}
	}
	return nil
}

// ActiveForHeight returns the spec id active at L2 height h: the entry with
// the largest activation height <= h.
func (t Table) ActiveForHeight(h uint64) SpecID {
	idx := sort.Search(len(t), func(i int) bool { return t[i].Height > h })
	if idx == 0 {
		return t[0].Spec
	}
	return t[idx-1].Spec
}

// Manager tracks the fork table and the last registered L2 height, so that
// activations take effect at the *next* soft confirmation: begin-hook logic
// queries a stable fork for the block it is about to construct, never one
// that could change mid-construction.
type Manager struct {
	table  Table
	height uint64
}

// NewManager builds a Manager from a validated fork table, starting before
// any block has been registered (so ActiveFork() initially answers for
// height 0).
func NewManager(table Table) (*Manager, error) {
	if err := table.Validate(); err != nil {
		return nil, err
	}
	return &Manager{table: table}, nil
}

// ActiveFork returns the spec id active at the last registered height.
// Callers use it for the block about to be built (the one following that
// height), so an activation at height h first applies to block h+1.
func (m *Manager) ActiveFork() SpecID {
	return m.table.ActiveForHeight(m.height)
}

// ActiveForHeight returns the spec id that was (or will be) active at a
// specific L2 height, independent of the manager's registration pointer.
func (m *Manager) ActiveForHeight(h uint64) SpecID {
	return m.table.ActiveForHeight(h)
}

// RegisterBlock advances the manager's internal pointer once a soft
// confirmation at height h has been successfully applied, so that the
// *next* call to ActiveFork reflects any activation at h.
func (m *Manager) RegisterBlock(h uint64) error {
	if h < m.height {
		return fmt.Errorf("fork manager: cannot register block %d after already registering %d", h, m.height)
	}
	m.height = h
	return nil
}
