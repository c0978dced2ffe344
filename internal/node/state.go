package node

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/rawdb"
	"github.com/ethereum/go-ethereum/core/state"

	"github.com/citrea-rollup/node/internal/rollupevm"
)

// *state.StateDB already implements every method rollupevm.StateBackend
// asks for, the same way luxfi-evm/core/state_processor.go hands one
// straight to vm.NewEVM; no adapter type is needed.
var _ rollupevm.StateBackend = (*state.StateDB)(nil)

// StateManager opens a fresh *state.StateDB at a given post-state root
// for every L2 height, standing in for the per-height snapshot manager
// original_source/crates/prover-storage-manager drives
// (ProverStorageManager::create_storage_on_l2_height). It keeps every
// trie node in memory: a real deployment persists this to disk, which is
// the one piece of the storage stack this module intentionally leaves
// unimplemented (see DESIGN.md).
type StateManager struct {
	db    state.Database
	heads map[uint64]common.Hash
}

// NewStateManager builds a StateManager over a fresh in-memory trie
// database.
func NewStateManager() *StateManager {
	memdb := rawdb.NewMemoryDatabase()
	return &StateManager{db: state.NewDatabase(memdb), heads: make(map[uint64]common.Hash)}
}

// OpenAt returns a *state.StateDB rooted at root, ready for the engine to
// mutate.
func (m *StateManager) OpenAt(root common.Hash) (*state.StateDB, error) {
	return state.New(root, m.db, nil)
}

// RecordRoot associates the post-state root committed for l2Height, so a
// later OpenAt for the next height can be looked up if needed.
func (m *StateManager) RecordRoot(l2Height uint64, root common.Hash) {
	m.heads[l2Height] = root
}

// RootAt returns the recorded post-state root for l2Height, if any.
func (m *StateManager) RootAt(l2Height uint64) (common.Hash, bool) {
	root, ok := m.heads[l2Height]
	return root, ok
}
