package core

import (
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"

	"tokenledger/core/events"
	"tokenledger/core/state"
	"tokenledger/core/types"
	"tokenledger/native/fungible"
	"tokenledger/native/nft"
	"tokenledger/storage"
	"tokenledger/storage/trie"
)

var (
	ledgerRootKey    = []byte("ledger:root")
	ledgerVersionKey = []byte("ledger:version")
)

// Genesis seeds the instance metadata of a fresh deployment. It is applied
// exactly once: reopening an existing database ignores it.
type Genesis struct {
	Collection state.Collection
	Token      state.TokenInfo
}

// LedgerProcessor owns the state trie of a deployment and serializes every
// operation against it. Each mutating operation runs on a copy of the trie
// that is adopted and committed only when the operation succeeds, so a failed
// call can never leave a partial write or a stray event behind.
type LedgerProcessor struct {
	mu sync.Mutex

	db            storage.Database
	trie          *trie.Trie
	NFTEngine     *nft.Engine
	TokenEngine   *fungible.Engine
	committedRoot common.Hash
	version       uint64
	emitter       events.Emitter
	events        []types.Event
}

// NewLedgerProcessor opens (or creates) the ledger state stored in db. The
// committed root and version counter are loaded from the flat keyspace; a
// fresh database is seeded from genesis when one is provided.
func NewLedgerProcessor(db storage.Database, genesis *Genesis) (*LedgerProcessor, error) {
	root, version, err := loadLedgerMeta(db)
	if err != nil {
		return nil, err
	}
	var rootBytes []byte
	if root != (common.Hash{}) {
		rootBytes = root.Bytes()
	}
	tr, err := trie.NewTrie(db, rootBytes)
	if err != nil {
		return nil, fmt.Errorf("open state trie: %w", err)
	}
	lp := &LedgerProcessor{
		db:            db,
		trie:          tr,
		NFTEngine:     nft.NewEngine(),
		TokenEngine:   fungible.NewEngine(),
		committedRoot: tr.Root(),
		version:       version,
		emitter:       events.NoopEmitter{},
	}
	if version == 0 && genesis != nil {
		if err := lp.initGenesis(genesis); err != nil {
			return nil, fmt.Errorf("apply genesis: %w", err)
		}
	}
	return lp, nil
}

func loadLedgerMeta(db storage.Database) (common.Hash, uint64, error) {
	hasRoot, err := db.Has(ledgerRootKey)
	if err != nil {
		return common.Hash{}, 0, err
	}
	if !hasRoot {
		return common.Hash{}, 0, nil
	}
	rawRoot, err := db.Get(ledgerRootKey)
	if err != nil {
		return common.Hash{}, 0, err
	}
	rawVersion, err := db.Get(ledgerVersionKey)
	if err != nil {
		return common.Hash{}, 0, err
	}
	var version uint64
	if err := rlp.DecodeBytes(rawVersion, &version); err != nil {
		return common.Hash{}, 0, err
	}
	return common.BytesToHash(rawRoot), version, nil
}

func (lp *LedgerProcessor) writeLedgerMeta(root common.Hash, version uint64) error {
	encoded, err := rlp.EncodeToBytes(version)
	if err != nil {
		return err
	}
	if err := lp.db.Put(ledgerRootKey, root.Bytes()); err != nil {
		return err
	}
	return lp.db.Put(ledgerVersionKey, encoded)
}

func (lp *LedgerProcessor) initGenesis(genesis *Genesis) error {
	lp.mu.Lock()
	defer lp.mu.Unlock()
	return lp.apply(func(m *state.Manager, _ events.Emitter) error {
		col := genesis.Collection
		if err := m.InitCollection(&col); err != nil {
			return err
		}
		info := genesis.Token
		return m.InitToken(&info)
	})
}

// SetEmitter configures the emitter that receives the events of successful
// operations. Passing nil resets it to a no-op implementation.
func (lp *LedgerProcessor) SetEmitter(emitter events.Emitter) {
	lp.mu.Lock()
	defer lp.mu.Unlock()
	if emitter == nil {
		lp.emitter = events.NoopEmitter{}
		return
	}
	lp.emitter = emitter
}

// CurrentRoot returns the last committed state root.
func (lp *LedgerProcessor) CurrentRoot() common.Hash {
	lp.mu.Lock()
	defer lp.mu.Unlock()
	return lp.committedRoot
}

// Version returns the number of committed operations, genesis included.
func (lp *LedgerProcessor) Version() uint64 {
	lp.mu.Lock()
	defer lp.mu.Unlock()
	return lp.version
}

// Events returns copies of the events emitted by the most recent successful
// mutating operation.
func (lp *LedgerProcessor) Events() []types.Event {
	lp.mu.Lock()
	defer lp.mu.Unlock()
	out := make([]types.Event, len(lp.events))
	for i := range lp.events {
		out[i] = lp.events[i].Clone()
	}
	return out
}

// eventBuffer collects the events of a speculative operation so they can be
// published after, and only after, the operation commits.
type eventBuffer struct {
	buffered []events.Event
}

func (b *eventBuffer) Emit(evt events.Event) {
	if evt == nil {
		return
	}
	b.buffered = append(b.buffered, evt)
}

func eventPayload(evt events.Event) *types.Event {
	if provider, ok := evt.(interface{ Event() *types.Event }); ok {
		return provider.Event()
	}
	if evt == nil {
		return nil
	}
	return &types.Event{Type: evt.EventType(), Attributes: map[string]string{}}
}

// apply runs fn against a speculative copy of the trie. On success the copy
// is committed, adopted as the canonical trie and its buffered events are
// published; on failure the copy is dropped and the canonical state stays
// exactly as it was. Callers must hold lp.mu.
func (lp *LedgerProcessor) apply(fn func(*state.Manager, events.Emitter) error) error {
	speculative, err := lp.trie.Copy()
	if err != nil {
		return err
	}
	buffer := &eventBuffer{}
	if err := fn(state.NewManager(speculative), buffer); err != nil {
		return err
	}
	newRoot, err := speculative.Commit(lp.committedRoot, lp.version+1)
	if err != nil {
		return err
	}
	if err := lp.writeLedgerMeta(newRoot, lp.version+1); err != nil {
		return err
	}
	lp.trie = speculative
	lp.committedRoot = newRoot
	lp.version++

	lp.events = lp.events[:0]
	for _, evt := range buffer.buffered {
		if payload := eventPayload(evt); payload != nil {
			lp.events = append(lp.events, payload.Clone())
		}
		lp.emitter.Emit(evt)
	}
	return nil
}

func (lp *LedgerProcessor) applyNFT(fn func(*nft.Engine) error) error {
	return lp.apply(func(m *state.Manager, emitter events.Emitter) error {
		lp.NFTEngine.SetState(m)
		lp.NFTEngine.SetEmitter(emitter)
		return fn(lp.NFTEngine)
	})
}

func (lp *LedgerProcessor) applyToken(fn func(*fungible.Engine) error) error {
	return lp.apply(func(m *state.Manager, emitter events.Emitter) error {
		lp.TokenEngine.SetState(m)
		lp.TokenEngine.SetEmitter(emitter)
		return fn(lp.TokenEngine)
	})
}

func (lp *LedgerProcessor) readNFT(fn func(*nft.Engine) error) error {
	lp.mu.Lock()
	defer lp.mu.Unlock()
	lp.NFTEngine.SetState(state.NewManager(lp.trie))
	lp.NFTEngine.SetEmitter(nil)
	return fn(lp.NFTEngine)
}

func (lp *LedgerProcessor) readToken(fn func(*fungible.Engine) error) error {
	lp.mu.Lock()
	defer lp.mu.Unlock()
	lp.TokenEngine.SetState(state.NewManager(lp.trie))
	lp.TokenEngine.SetEmitter(nil)
	return fn(lp.TokenEngine)
}

// --- Non-fungible operations ---

// NFTMint mints the explicit token id for the recipient.
func (lp *LedgerProcessor) NFTMint(to common.Address, id *uint256.Int, uri string) error {
	lp.mu.Lock()
	defer lp.mu.Unlock()
	return lp.applyNFT(func(e *nft.Engine) error {
		return e.Mint(to, id, uri)
	})
}

// NFTMintNext mints the next sequential token id for the recipient and
// returns it.
func (lp *LedgerProcessor) NFTMintNext(to common.Address, uri string) (*uint256.Int, error) {
	lp.mu.Lock()
	defer lp.mu.Unlock()
	var id *uint256.Int
	err := lp.applyNFT(func(e *nft.Engine) error {
		minted, err := e.MintNext(to, uri)
		if err != nil {
			return err
		}
		id = minted
		return nil
	})
	if err != nil {
		return nil, err
	}
	return id, nil
}

// NFTTransferFrom reassigns ownership of the token id on behalf of caller.
func (lp *LedgerProcessor) NFTTransferFrom(caller, from, to common.Address, id *uint256.Int) error {
	lp.mu.Lock()
	defer lp.mu.Unlock()
	return lp.applyNFT(func(e *nft.Engine) error {
		return e.TransferFrom(caller, from, to, id)
	})
}

// NFTApprove sets the approved spender of the token id.
func (lp *LedgerProcessor) NFTApprove(caller, spender common.Address, id *uint256.Int) error {
	lp.mu.Lock()
	defer lp.mu.Unlock()
	return lp.applyNFT(func(e *nft.Engine) error {
		return e.Approve(caller, spender, id)
	})
}

// NFTSetApprovalForAll toggles an operator for every token the caller owns.
func (lp *LedgerProcessor) NFTSetApprovalForAll(caller, operator common.Address, approved bool) error {
	lp.mu.Lock()
	defer lp.mu.Unlock()
	return lp.applyNFT(func(e *nft.Engine) error {
		return e.SetApprovalForAll(caller, operator, approved)
	})
}

// NFTName returns the collection name.
func (lp *LedgerProcessor) NFTName() (string, error) {
	var name string
	err := lp.readNFT(func(e *nft.Engine) error {
		var err error
		name, err = e.Name()
		return err
	})
	return name, err
}

// NFTSymbol returns the collection symbol.
func (lp *LedgerProcessor) NFTSymbol() (string, error) {
	var symbol string
	err := lp.readNFT(func(e *nft.Engine) error {
		var err error
		symbol, err = e.Symbol()
		return err
	})
	return symbol, err
}

// NFTOwnerOf returns the owner of the token id.
func (lp *LedgerProcessor) NFTOwnerOf(id *uint256.Int) (common.Address, error) {
	var owner common.Address
	err := lp.readNFT(func(e *nft.Engine) error {
		var err error
		owner, err = e.OwnerOf(id)
		return err
	})
	return owner, err
}

// NFTBalanceOf returns the number of tokens held by the address.
func (lp *LedgerProcessor) NFTBalanceOf(addr common.Address) (*uint256.Int, error) {
	var balance *uint256.Int
	err := lp.readNFT(func(e *nft.Engine) error {
		var err error
		balance, err = e.BalanceOf(addr)
		return err
	})
	return balance, err
}

// NFTGetApproved returns the approved spender of the token id, or nil.
func (lp *LedgerProcessor) NFTGetApproved(id *uint256.Int) (*common.Address, error) {
	var approved *common.Address
	err := lp.readNFT(func(e *nft.Engine) error {
		var err error
		approved, err = e.GetApproved(id)
		return err
	})
	return approved, err
}

// NFTIsApprovedForAll reports whether operator manages all tokens of owner.
func (lp *LedgerProcessor) NFTIsApprovedForAll(owner, operator common.Address) (bool, error) {
	var approved bool
	err := lp.readNFT(func(e *nft.Engine) error {
		var err error
		approved, err = e.IsApprovedForAll(owner, operator)
		return err
	})
	return approved, err
}

// NFTTokenURI returns the metadata location of the token id.
func (lp *LedgerProcessor) NFTTokenURI(id *uint256.Int) (string, error) {
	var uri string
	err := lp.readNFT(func(e *nft.Engine) error {
		var err error
		uri, err = e.TokenURI(id)
		return err
	})
	return uri, err
}

// NFTTotalMinted returns the number of tokens minted so far.
func (lp *LedgerProcessor) NFTTotalMinted() (*uint256.Int, error) {
	var minted *uint256.Int
	err := lp.readNFT(func(e *nft.Engine) error {
		var err error
		minted, err = e.TotalMinted()
		return err
	})
	return minted, err
}

// NFTMaxSupply returns the configured mint cap. Zero means uncapped.
func (lp *LedgerProcessor) NFTMaxSupply() (*uint256.Int, error) {
	var max *uint256.Int
	err := lp.readNFT(func(e *nft.Engine) error {
		var err error
		max, err = e.MaxSupply()
		return err
	})
	return max, err
}

// NFTCollectionOwner returns the collection owner recorded at genesis.
func (lp *LedgerProcessor) NFTCollectionOwner() (common.Address, error) {
	var owner common.Address
	err := lp.readNFT(func(e *nft.Engine) error {
		var err error
		owner, err = e.CollectionOwner()
		return err
	})
	return owner, err
}

// --- Fungible operations ---

// TokenMint mints value for the recipient, growing the total supply.
func (lp *LedgerProcessor) TokenMint(to common.Address, value *uint256.Int) error {
	lp.mu.Lock()
	defer lp.mu.Unlock()
	return lp.applyToken(func(e *fungible.Engine) error {
		return e.Mint(to, value)
	})
}

// TokenBurn destroys value from the holder, shrinking the total supply.
func (lp *LedgerProcessor) TokenBurn(from common.Address, value *uint256.Int) error {
	lp.mu.Lock()
	defer lp.mu.Unlock()
	return lp.applyToken(func(e *fungible.Engine) error {
		return e.Burn(from, value)
	})
}

// TokenTransfer moves value from the caller to the recipient.
func (lp *LedgerProcessor) TokenTransfer(caller, to common.Address, value *uint256.Int) error {
	lp.mu.Lock()
	defer lp.mu.Unlock()
	return lp.applyToken(func(e *fungible.Engine) error {
		return e.Transfer(caller, to, value)
	})
}

// TokenTransferFrom moves value from the owner on the strength of a prior
// allowance granted to the caller.
func (lp *LedgerProcessor) TokenTransferFrom(caller, from, to common.Address, value *uint256.Int) error {
	lp.mu.Lock()
	defer lp.mu.Unlock()
	return lp.applyToken(func(e *fungible.Engine) error {
		return e.TransferFrom(caller, from, to, value)
	})
}

// TokenApprove overwrites the allowance granted by the caller to the spender.
func (lp *LedgerProcessor) TokenApprove(caller, spender common.Address, value *uint256.Int) error {
	lp.mu.Lock()
	defer lp.mu.Unlock()
	return lp.applyToken(func(e *fungible.Engine) error {
		return e.Approve(caller, spender, value)
	})
}

// TokenName returns the token name.
func (lp *LedgerProcessor) TokenName() (string, error) {
	var name string
	err := lp.readToken(func(e *fungible.Engine) error {
		var err error
		name, err = e.Name()
		return err
	})
	return name, err
}

// TokenSymbol returns the token symbol.
func (lp *LedgerProcessor) TokenSymbol() (string, error) {
	var symbol string
	err := lp.readToken(func(e *fungible.Engine) error {
		var err error
		symbol, err = e.Symbol()
		return err
	})
	return symbol, err
}

// TokenDecimals returns the display precision fixed at genesis.
func (lp *LedgerProcessor) TokenDecimals() (uint8, error) {
	var decimals uint8
	err := lp.readToken(func(e *fungible.Engine) error {
		var err error
		decimals, err = e.Decimals()
		return err
	})
	return decimals, err
}

// TokenTotalSupply returns the current total supply.
func (lp *LedgerProcessor) TokenTotalSupply() (*uint256.Int, error) {
	var supply *uint256.Int
	err := lp.readToken(func(e *fungible.Engine) error {
		var err error
		supply, err = e.TotalSupply()
		return err
	})
	return supply, err
}

// TokenBalanceOf returns the balance of the address.
func (lp *LedgerProcessor) TokenBalanceOf(addr common.Address) (*uint256.Int, error) {
	var balance *uint256.Int
	err := lp.readToken(func(e *fungible.Engine) error {
		var err error
		balance, err = e.BalanceOf(addr)
		return err
	})
	return balance, err
}

// TokenAllowance returns the amount spender may transfer on behalf of owner.
func (lp *LedgerProcessor) TokenAllowance(owner, spender common.Address) (*uint256.Int, error) {
	var allowance *uint256.Int
	err := lp.readToken(func(e *fungible.Engine) error {
		var err error
		allowance, err = e.Allowance(owner, spender)
		return err
	})
	return allowance, err
}
