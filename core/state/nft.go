package state

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"
)

// TokenRecord is the canonical per-id entry of the non-fungible ledger. A
// missing record means the token has never been minted; the zero address is a
// valid owner.
type TokenRecord struct {
	Owner    common.Address
	Approved *common.Address `rlp:"nil"`
	URI      string
}

// Collection holds the instance-wide metadata and counters of the
// non-fungible ledger.
type Collection struct {
	Name      string
	Symbol    string
	BaseURI   string
	Owner     common.Address
	MaxSupply *uint256.Int
	NextID    *uint256.Int
	Minted    *uint256.Int
}

var (
	nftTokenPrefix    = []byte("nft:token:")
	nftBalancePrefix  = []byte("nft:balance:")
	nftOperatorPrefix = []byte("nft:operator:")
	nftCollectionKey  = ethcrypto.Keccak256([]byte("nft:collection"))
)

func nftTokenKey(id *uint256.Int) []byte {
	idBytes := id.Bytes32()
	buf := make([]byte, len(nftTokenPrefix)+len(idBytes))
	copy(buf, nftTokenPrefix)
	copy(buf[len(nftTokenPrefix):], idBytes[:])
	return ethcrypto.Keccak256(buf)
}

func nftBalanceKey(addr common.Address) []byte {
	buf := make([]byte, len(nftBalancePrefix)+common.AddressLength)
	copy(buf, nftBalancePrefix)
	copy(buf[len(nftBalancePrefix):], addr.Bytes())
	return ethcrypto.Keccak256(buf)
}

func nftOperatorKey(owner, operator common.Address) []byte {
	buf := make([]byte, len(nftOperatorPrefix)+2*common.AddressLength)
	copy(buf, nftOperatorPrefix)
	copy(buf[len(nftOperatorPrefix):], owner.Bytes())
	copy(buf[len(nftOperatorPrefix)+common.AddressLength:], operator.Bytes())
	return ethcrypto.Keccak256(buf)
}

// InitCollection stores the collection metadata for a fresh deployment. It
// fails when a collection has already been initialised on this state.
func (m *Manager) InitCollection(col *Collection) error {
	if col == nil {
		return fmt.Errorf("collection must not be nil")
	}
	existing, err := m.Collection()
	if err != nil {
		return err
	}
	if existing != nil {
		return fmt.Errorf("collection %s already initialised", existing.Symbol)
	}
	stored := &Collection{
		Name:      col.Name,
		Symbol:    col.Symbol,
		BaseURI:   col.BaseURI,
		Owner:     col.Owner,
		MaxSupply: cloneAmount(col.MaxSupply),
		NextID:    cloneAmount(col.NextID),
		Minted:    cloneAmount(col.Minted),
	}
	if stored.NextID.IsZero() {
		stored.NextID = uint256.NewInt(1)
	}
	return m.writeCollection(stored)
}

// Collection returns the stored collection metadata, or nil when the
// non-fungible ledger has not been initialised.
func (m *Manager) Collection() (*Collection, error) {
	data, err := m.trie.Get(nftCollectionKey)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, nil
	}
	col := new(Collection)
	if err := rlp.DecodeBytes(data, col); err != nil {
		return nil, err
	}
	return col, nil
}

// SetCollection overwrites the collection metadata. Used by the engine to
// advance the mint counters.
func (m *Manager) SetCollection(col *Collection) error {
	if col == nil {
		return fmt.Errorf("collection must not be nil")
	}
	return m.writeCollection(col)
}

func (m *Manager) writeCollection(col *Collection) error {
	encoded, err := rlp.EncodeToBytes(col)
	if err != nil {
		return err
	}
	return m.trie.Update(nftCollectionKey, encoded)
}

// NFTToken returns the record stored for the given id, or nil when the token
// has never been minted.
func (m *Manager) NFTToken(id *uint256.Int) (*TokenRecord, error) {
	if id == nil {
		return nil, fmt.Errorf("token id must not be nil")
	}
	data, err := m.trie.Get(nftTokenKey(id))
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, nil
	}
	record := new(TokenRecord)
	if err := rlp.DecodeBytes(data, record); err != nil {
		return nil, err
	}
	return record, nil
}

// SetNFTToken overwrites the record stored for the given id.
func (m *Manager) SetNFTToken(id *uint256.Int, record *TokenRecord) error {
	if id == nil {
		return fmt.Errorf("token id must not be nil")
	}
	if record == nil {
		return fmt.Errorf("token record must not be nil")
	}
	encoded, err := rlp.EncodeToBytes(record)
	if err != nil {
		return err
	}
	return m.trie.Update(nftTokenKey(id), encoded)
}

// NFTBalance returns the number of tokens held by the address. Missing
// entries default to zero.
func (m *Manager) NFTBalance(addr common.Address) (*uint256.Int, error) {
	data, err := m.trie.Get(nftBalanceKey(addr))
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

// SetNFTBalance stores the token count for the address.
func (m *Manager) SetNFTBalance(addr common.Address, balance *uint256.Int) error {
	encoded, err := rlp.EncodeToBytes(cloneAmount(balance))
	if err != nil {
		return err
	}
	return m.trie.Update(nftBalanceKey(addr), encoded)
}

// IsOperator reports whether operator may manage every token owned by owner.
func (m *Manager) IsOperator(owner, operator common.Address) (bool, error) {
	data, err := m.trie.Get(nftOperatorKey(owner, operator))
	if err != nil {
		return false, err
	}
	if len(data) == 0 {
		return false, nil
	}
	var approved bool
	if err := rlp.DecodeBytes(data, &approved); err != nil {
		return false, err
	}
	return approved, nil
}

// SetOperator stores the operator flag for the owner/operator pair.
func (m *Manager) SetOperator(owner, operator common.Address, approved bool) error {
	encoded, err := rlp.EncodeToBytes(approved)
	if err != nil {
		return err
	}
	return m.trie.Update(nftOperatorKey(owner, operator), encoded)
}
