package nft_test

import (
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"tokenledger/core/events"
	"tokenledger/core/state"
	"tokenledger/native/nft"
	"tokenledger/storage"
	statetrie "tokenledger/storage/trie"
)

type capturingEmitter struct {
	events []events.Event
}

func (c *capturingEmitter) Emit(e events.Event) {
	c.events = append(c.events, e)
}

var (
	addrA = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	addrB = common.HexToAddress("0x00000000000000000000000000000000000000b2")
	addrC = common.HexToAddress("0x00000000000000000000000000000000000000c3")
	addrD = common.HexToAddress("0x00000000000000000000000000000000000000d4")
)

func newTestEngine(t *testing.T, maxSupply uint64) (*nft.Engine, *capturingEmitter) {
	t.Helper()
	db := storage.NewMemDB()
	t.Cleanup(func() { db.Close() })
	tr, err := statetrie.NewTrie(db, nil)
	if err != nil {
		t.Fatalf("create trie: %v", err)
	}
	manager := state.NewManager(tr)
	if err := manager.InitCollection(&state.Collection{
		Name:      "Ledger Art",
		Symbol:    "LART",
		BaseURI:   "ipfs://base/",
		Owner:     addrA,
		MaxSupply: uint256.NewInt(maxSupply),
	}); err != nil {
		t.Fatalf("init collection: %v", err)
	}
	emitter := &capturingEmitter{}
	engine := nft.NewEngine()
	engine.SetState(manager)
	engine.SetEmitter(emitter)
	return engine, emitter
}

func TestMintAssignsOwnerAndBalance(t *testing.T) {
	engine, emitter := newTestEngine(t, 0)

	id := uint256.NewInt(1)
	if err := engine.Mint(addrA, id, "1.json"); err != nil {
		t.Fatalf("mint: %v", err)
	}

	owner, err := engine.OwnerOf(id)
	if err != nil {
		t.Fatalf("owner of: %v", err)
	}
	if owner != addrA {
		t.Fatalf("unexpected owner: %s", owner)
	}
	balance, err := engine.BalanceOf(addrA)
	if err != nil {
		t.Fatalf("balance of: %v", err)
	}
	if !balance.Eq(uint256.NewInt(1)) {
		t.Fatalf("unexpected balance: %s", balance)
	}
	minted, err := engine.TotalMinted()
	if err != nil {
		t.Fatalf("total minted: %v", err)
	}
	if !minted.Eq(uint256.NewInt(1)) {
		t.Fatalf("unexpected total minted: %s", minted)
	}

	if len(emitter.events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(emitter.events))
	}
	transfer, ok := emitter.events[0].(events.NFTTransfer)
	if !ok {
		t.Fatalf("unexpected event: %T", emitter.events[0])
	}
	if transfer.From != (common.Address{}) || transfer.To != addrA {
		t.Fatalf("unexpected transfer event: %+v", transfer)
	}
}

func TestMintDuplicateIDFails(t *testing.T) {
	engine, _ := newTestEngine(t, 0)

	id := uint256.NewInt(7)
	if err := engine.Mint(addrA, id, ""); err != nil {
		t.Fatalf("mint: %v", err)
	}
	if err := engine.Mint(addrB, id, ""); !errors.Is(err, nft.ErrAlreadyMinted) {
		t.Fatalf("expected ErrAlreadyMinted, got %v", err)
	}

	owner, err := engine.OwnerOf(id)
	if err != nil {
		t.Fatalf("owner of: %v", err)
	}
	if owner != addrA {
		t.Fatalf("owner changed by failed mint: %s", owner)
	}
	balance, err := engine.BalanceOf(addrB)
	if err != nil {
		t.Fatalf("balance of: %v", err)
	}
	if !balance.IsZero() {
		t.Fatalf("failed mint credited balance: %s", balance)
	}
}

func TestMintRespectsMaxSupply(t *testing.T) {
	engine, _ := newTestEngine(t, 2)

	if err := engine.Mint(addrA, uint256.NewInt(1), ""); err != nil {
		t.Fatalf("mint 1: %v", err)
	}
	if err := engine.Mint(addrA, uint256.NewInt(2), ""); err != nil {
		t.Fatalf("mint 2: %v", err)
	}
	if err := engine.Mint(addrA, uint256.NewInt(3), ""); !errors.Is(err, nft.ErrSupplyCapReached) {
		t.Fatalf("expected ErrSupplyCapReached, got %v", err)
	}

	minted, err := engine.TotalMinted()
	if err != nil {
		t.Fatalf("total minted: %v", err)
	}
	if !minted.Eq(uint256.NewInt(2)) {
		t.Fatalf("unexpected total minted: %s", minted)
	}
}

func TestMintNextAdvancesSequence(t *testing.T) {
	engine, _ := newTestEngine(t, 0)

	first, err := engine.MintNext(addrA, "a.json")
	if err != nil {
		t.Fatalf("mint next: %v", err)
	}
	if !first.Eq(uint256.NewInt(1)) {
		t.Fatalf("unexpected first id: %s", first)
	}
	second, err := engine.MintNext(addrB, "b.json")
	if err != nil {
		t.Fatalf("mint next: %v", err)
	}
	if !second.Eq(uint256.NewInt(2)) {
		t.Fatalf("unexpected second id: %s", second)
	}

	owner, err := engine.OwnerOf(second)
	if err != nil {
		t.Fatalf("owner of: %v", err)
	}
	if owner != addrB {
		t.Fatalf("unexpected owner: %s", owner)
	}
}

func TestTransferFromByApprovedSpender(t *testing.T) {
	engine, emitter := newTestEngine(t, 0)

	id := uint256.NewInt(1)
	if err := engine.Mint(addrA, id, ""); err != nil {
		t.Fatalf("mint: %v", err)
	}
	if err := engine.Approve(addrA, addrB, id); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if err := engine.TransferFrom(addrB, addrA, addrC, id); err != nil {
		t.Fatalf("transfer from: %v", err)
	}

	owner, err := engine.OwnerOf(id)
	if err != nil {
		t.Fatalf("owner of: %v", err)
	}
	if owner != addrC {
		t.Fatalf("unexpected owner: %s", owner)
	}
	balanceA, err := engine.BalanceOf(addrA)
	if err != nil {
		t.Fatalf("balance of: %v", err)
	}
	if !balanceA.IsZero() {
		t.Fatalf("unexpected sender balance: %s", balanceA)
	}
	balanceC, err := engine.BalanceOf(addrC)
	if err != nil {
		t.Fatalf("balance of: %v", err)
	}
	if !balanceC.Eq(uint256.NewInt(1)) {
		t.Fatalf("unexpected recipient balance: %s", balanceC)
	}
	approved, err := engine.GetApproved(id)
	if err != nil {
		t.Fatalf("get approved: %v", err)
	}
	if approved != nil {
		t.Fatalf("approval not cleared by transfer: %s", approved)
	}

	if len(emitter.events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(emitter.events))
	}
	if _, ok := emitter.events[1].(events.NFTApproval); !ok {
		t.Fatalf("unexpected second event: %T", emitter.events[1])
	}
	final, ok := emitter.events[2].(events.NFTTransfer)
	if !ok {
		t.Fatalf("unexpected third event: %T", emitter.events[2])
	}
	if final.From != addrA || final.To != addrC {
		t.Fatalf("unexpected transfer event: %+v", final)
	}
}

func TestTransferFromRejectsUnauthorizedCaller(t *testing.T) {
	engine, _ := newTestEngine(t, 0)

	id := uint256.NewInt(1)
	if err := engine.Mint(addrA, id, ""); err != nil {
		t.Fatalf("mint: %v", err)
	}
	if err := engine.TransferFrom(addrD, addrA, addrC, id); !errors.Is(err, nft.ErrNotApproved) {
		t.Fatalf("expected ErrNotApproved, got %v", err)
	}

	owner, err := engine.OwnerOf(id)
	if err != nil {
		t.Fatalf("owner of: %v", err)
	}
	if owner != addrA {
		t.Fatalf("owner changed by rejected transfer: %s", owner)
	}
}

func TestTransferFromRejectsWrongFrom(t *testing.T) {
	engine, _ := newTestEngine(t, 0)

	id := uint256.NewInt(1)
	if err := engine.Mint(addrA, id, ""); err != nil {
		t.Fatalf("mint: %v", err)
	}
	if err := engine.TransferFrom(addrA, addrB, addrC, id); !errors.Is(err, nft.ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner, got %v", err)
	}
}

func TestTransferFromMissingToken(t *testing.T) {
	engine, _ := newTestEngine(t, 0)

	if err := engine.TransferFrom(addrA, addrA, addrB, uint256.NewInt(99)); !errors.Is(err, nft.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestOperatorMayTransferAndApprove(t *testing.T) {
	engine, _ := newTestEngine(t, 0)

	first := uint256.NewInt(1)
	second := uint256.NewInt(2)
	if err := engine.Mint(addrA, first, ""); err != nil {
		t.Fatalf("mint: %v", err)
	}
	if err := engine.Mint(addrA, second, ""); err != nil {
		t.Fatalf("mint: %v", err)
	}
	if err := engine.SetApprovalForAll(addrA, addrB, true); err != nil {
		t.Fatalf("set approval for all: %v", err)
	}
	ok, err := engine.IsApprovedForAll(addrA, addrB)
	if err != nil {
		t.Fatalf("is approved for all: %v", err)
	}
	if !ok {
		t.Fatalf("expected operator flag set")
	}

	if err := engine.TransferFrom(addrB, addrA, addrC, first); err != nil {
		t.Fatalf("operator transfer: %v", err)
	}
	if err := engine.Approve(addrB, addrD, second); err != nil {
		t.Fatalf("operator approve: %v", err)
	}
	approved, err := engine.GetApproved(second)
	if err != nil {
		t.Fatalf("get approved: %v", err)
	}
	if approved == nil || *approved != addrD {
		t.Fatalf("unexpected approved: %v", approved)
	}

	// Revocation closes the door again.
	if err := engine.SetApprovalForAll(addrA, addrB, false); err != nil {
		t.Fatalf("revoke approval for all: %v", err)
	}
	if err := engine.TransferFrom(addrB, addrA, addrC, second); !errors.Is(err, nft.ErrNotApproved) {
		t.Fatalf("expected ErrNotApproved after revocation, got %v", err)
	}
}

func TestTransferToZeroAddressPermitted(t *testing.T) {
	engine, _ := newTestEngine(t, 0)

	id := uint256.NewInt(1)
	if err := engine.Mint(addrA, id, ""); err != nil {
		t.Fatalf("mint: %v", err)
	}
	if err := engine.TransferFrom(addrA, addrA, common.Address{}, id); err != nil {
		t.Fatalf("transfer to zero: %v", err)
	}

	owner, err := engine.OwnerOf(id)
	if err != nil {
		t.Fatalf("owner of: %v", err)
	}
	if owner != (common.Address{}) {
		t.Fatalf("unexpected owner: %s", owner)
	}
	balance, err := engine.BalanceOf(common.Address{})
	if err != nil {
		t.Fatalf("balance of: %v", err)
	}
	if !balance.Eq(uint256.NewInt(1)) {
		t.Fatalf("unexpected zero-address balance: %s", balance)
	}
}

func TestSelfTransferKeepsBalance(t *testing.T) {
	engine, _ := newTestEngine(t, 0)

	id := uint256.NewInt(1)
	if err := engine.Mint(addrA, id, ""); err != nil {
		t.Fatalf("mint: %v", err)
	}
	if err := engine.TransferFrom(addrA, addrA, addrA, id); err != nil {
		t.Fatalf("self transfer: %v", err)
	}
	balance, err := engine.BalanceOf(addrA)
	if err != nil {
		t.Fatalf("balance of: %v", err)
	}
	if !balance.Eq(uint256.NewInt(1)) {
		t.Fatalf("unexpected balance after self transfer: %s", balance)
	}
}

func TestApproveByNonOwnerFails(t *testing.T) {
	engine, _ := newTestEngine(t, 0)

	id := uint256.NewInt(1)
	if err := engine.Mint(addrA, id, ""); err != nil {
		t.Fatalf("mint: %v", err)
	}
	if err := engine.Approve(addrB, addrC, id); !errors.Is(err, nft.ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner, got %v", err)
	}
	if err := engine.Approve(addrA, addrC, uint256.NewInt(5)); !errors.Is(err, nft.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestApproveZeroAddressClearsSlot(t *testing.T) {
	engine, _ := newTestEngine(t, 0)

	id := uint256.NewInt(1)
	if err := engine.Mint(addrA, id, ""); err != nil {
		t.Fatalf("mint: %v", err)
	}
	if err := engine.Approve(addrA, addrB, id); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if err := engine.Approve(addrA, common.Address{}, id); err != nil {
		t.Fatalf("clear approval: %v", err)
	}
	approved, err := engine.GetApproved(id)
	if err != nil {
		t.Fatalf("get approved: %v", err)
	}
	if approved != nil {
		t.Fatalf("expected cleared approval, got %s", approved)
	}
}

func TestTokenURIJoinsBaseURI(t *testing.T) {
	engine, _ := newTestEngine(t, 0)

	id := uint256.NewInt(1)
	if err := engine.Mint(addrA, id, "1.json"); err != nil {
		t.Fatalf("mint: %v", err)
	}
	uri, err := engine.TokenURI(id)
	if err != nil {
		t.Fatalf("token uri: %v", err)
	}
	if uri != "ipfs://base/1.json" {
		t.Fatalf("unexpected uri: %s", uri)
	}
	if _, err := engine.TokenURI(uint256.NewInt(2)); !errors.Is(err, nft.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCollectionMetadataReads(t *testing.T) {
	engine, _ := newTestEngine(t, 5)

	name, err := engine.Name()
	if err != nil {
		t.Fatalf("name: %v", err)
	}
	if name != "Ledger Art" {
		t.Fatalf("unexpected name: %s", name)
	}
	symbol, err := engine.Symbol()
	if err != nil {
		t.Fatalf("symbol: %v", err)
	}
	if symbol != "LART" {
		t.Fatalf("unexpected symbol: %s", symbol)
	}
	max, err := engine.MaxSupply()
	if err != nil {
		t.Fatalf("max supply: %v", err)
	}
	if !max.Eq(uint256.NewInt(5)) {
		t.Fatalf("unexpected max supply: %s", max)
	}
	owner, err := engine.CollectionOwner()
	if err != nil {
		t.Fatalf("collection owner: %v", err)
	}
	if owner != addrA {
		t.Fatalf("unexpected collection owner: %s", owner)
	}
}

func TestUninitialisedCollection(t *testing.T) {
	db := storage.NewMemDB()
	t.Cleanup(func() { db.Close() })
	tr, err := statetrie.NewTrie(db, nil)
	if err != nil {
		t.Fatalf("create trie: %v", err)
	}
	engine := nft.NewEngine()
	engine.SetState(state.NewManager(tr))

	if _, err := engine.Name(); !errors.Is(err, nft.ErrNotInitialised) {
		t.Fatalf("expected ErrNotInitialised, got %v", err)
	}
	if err := engine.Mint(addrA, uint256.NewInt(1), ""); !errors.Is(err, nft.ErrNotInitialised) {
		t.Fatalf("expected ErrNotInitialised, got %v", err)
	}
}
