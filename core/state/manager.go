package state

import (
	"github.com/holiman/uint256"

	"tokenledger/storage/trie"
)

// Manager provides typed access to the ledger entries persisted in the state
// trie. One Manager instance serves both the non-fungible and the fungible
// ledger of a deployment.
type Manager struct {
	trie *trie.Trie
}

// NewManager creates a state manager operating on the provided trie.
func NewManager(tr *trie.Trie) *Manager {
	return &Manager{trie: tr}
}

// cloneAmount normalises amounts before they are persisted or returned so
// callers never share the stored instance.
func cloneAmount(v *uint256.Int) *uint256.Int {
	if v == nil {
		return uint256.NewInt(0)
	}
	return new(uint256.Int).Set(v)
}
