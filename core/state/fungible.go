package state

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"

	"github.com/holiman/uint256"
)

// TokenInfo holds the fixed metadata of the fungible ledger, set once at
// instantiation.
type TokenInfo struct {
	Name     string
	Symbol   string
	Decimals uint8
}

var (
	ftBalancePrefix   = []byte("ft:balance:")
	ftAllowancePrefix = []byte("ft:allowance:")
	ftSupplyKey       = ethcrypto.Keccak256([]byte("ft:supply"))
	ftTokenKey        = ethcrypto.Keccak256([]byte("ft:token"))
)

func ftBalanceKey(addr common.Address) []byte {
	buf := make([]byte, len(ftBalancePrefix)+common.AddressLength)
	copy(buf, ftBalancePrefix)
	copy(buf[len(ftBalancePrefix):], addr.Bytes())
	return ethcrypto.Keccak256(buf)
}

func ftAllowanceKey(owner, spender common.Address) []byte {
	buf := make([]byte, len(ftAllowancePrefix)+2*common.AddressLength)
	copy(buf, ftAllowancePrefix)
	copy(buf[len(ftAllowancePrefix):], owner.Bytes())
	copy(buf[len(ftAllowancePrefix)+common.AddressLength:], spender.Bytes())
	return ethcrypto.Keccak256(buf)
}

// InitToken stores the fungible token metadata for a fresh deployment. It
// fails when the token has already been initialised on this state.
func (m *Manager) InitToken(info *TokenInfo) error {
	if info == nil {
		return fmt.Errorf("token info must not be nil")
	}
	existing, err := m.Token()
	if err != nil {
		return err
	}
	if existing != nil {
		return fmt.Errorf("token %s already initialised", existing.Symbol)
	}
	encoded, err := rlp.EncodeToBytes(info)
	if err != nil {
		return err
	}
	return m.trie.Update(ftTokenKey, encoded)
}

// Token returns the stored fungible token metadata, or nil when the fungible
// ledger has not been initialised.
func (m *Manager) Token() (*TokenInfo, error) {
	data, err := m.trie.Get(ftTokenKey)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, nil
	}
	info := new(TokenInfo)
	if err := rlp.DecodeBytes(data, info); err != nil {
		return nil, err
	}
	return info, nil
}

// TokenBalance returns the fungible balance of the address. Missing entries
// default to zero.
func (m *Manager) TokenBalance(addr common.Address) (*uint256.Int, error) {
	data, err := m.trie.Get(ftBalanceKey(addr))
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return uint256.NewInt(0), nil
	}
	balance := new(uint256.Int)
	if err := rlp.DecodeBytes(data, balance); err != nil {
		return nil, err
	}
	return balance, nil
}

// SetTokenBalance stores the fungible balance for the address. Entries are
// never deleted; a zero balance keeps its key.
func (m *Manager) SetTokenBalance(addr common.Address, balance *uint256.Int) error {
	encoded, err := rlp.EncodeToBytes(cloneAmount(balance))
	if err != nil {
		return err
	}
	return m.trie.Update(ftBalanceKey(addr), encoded)
}

// TokenAllowance returns the amount spender may transfer on behalf of owner.
// Missing entries default to zero.
func (m *Manager) TokenAllowance(owner, spender common.Address) (*uint256.Int, error) {
	data, err := m.trie.Get(ftAllowanceKey(owner, spender))
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return uint256.NewInt(0), nil
	}
	allowance := new(uint256.Int)
	if err := rlp.DecodeBytes(data, allowance); err != nil {
		return nil, err
	}
	return allowance, nil
}

// SetTokenAllowance stores the allowance for the owner/spender pair.
func (m *Manager) SetTokenAllowance(owner, spender common.Address, allowance *uint256.Int) error {
	encoded, err := rlp.EncodeToBytes(cloneAmount(allowance))
	if err != nil {
		return err
	}
	return m.trie.Update(ftAllowanceKey(owner, spender), encoded)
}

// TokenSupply returns the persisted total supply. Missing entries default to
// zero.
func (m *Manager) TokenSupply() (*uint256.Int, error) {
	data, err := m.trie.Get(ftSupplyKey)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return uint256.NewInt(0), nil
	}
	total := new(uint256.Int)
	if err := rlp.DecodeBytes(data, total); err != nil {
		return nil, err
	}
	return total, nil
}

// SetTokenSupply overwrites the stored total supply.
func (m *Manager) SetTokenSupply(total *uint256.Int) error {
	encoded, err := rlp.EncodeToBytes(cloneAmount(total))
	if err != nil {
		return err
	}
	return m.trie.Update(ftSupplyKey, encoded)
}
