package nft

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"tokenledger/core/events"
	"tokenledger/core/state"
)

var errNilState = errors.New("nft engine: state not configured")

// engineState describes the ledger functionality the engine needs from the
// surrounding state implementation.
type engineState interface {
	Collection() (*state.Collection, error)
	SetCollection(col *state.Collection) error
	NFTToken(id *uint256.Int) (*state.TokenRecord, error)
	SetNFTToken(id *uint256.Int, record *state.TokenRecord) error
	NFTBalance(addr common.Address) (*uint256.Int, error)
	SetNFTBalance(addr common.Address, balance *uint256.Int) error
	IsOperator(owner, operator common.Address) (bool, error)
	SetOperator(owner, operator common.Address, approved bool) error
}

// Engine implements the non-fungible ledger state machine. Every mutating
// operation takes the calling address explicitly and validates before the
// first state write; the engine enforces no ambient authority beyond the
// approval rules themselves.
type Engine struct {
	state   engineState
	emitter events.Emitter
}

// NewEngine creates an engine with a no-op emitter. Callers can override the
// emitter via SetEmitter.
func NewEngine() *Engine {
	return &Engine{emitter: events.NoopEmitter{}}
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetEmitter configures the event emitter used by the engine. Passing nil
// resets the emitter to a no-op implementation.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

func (e *Engine) emit(evt events.Event) {
	if e == nil || e.emitter == nil || evt == nil {
		return
	}
	e.emitter.Emit(evt)
}

func (e *Engine) collection() (*state.Collection, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	col, err := e.state.Collection()
	if err != nil {
		return nil, err
	}
	if col == nil {
		return nil, ErrNotInitialised
	}
	return col, nil
}

// Mint creates the token id for the recipient. The caller is not checked:
// authorization, if any, is enforced by the surrounding layer.
func (e *Engine) Mint(to common.Address, id *uint256.Int, uri string) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if id == nil {
		return fmt.Errorf("nft: token id required")
	}
	col, err := e.collection()
	if err != nil {
		return err
	}
	if err := e.mint(col, to, id, uri); err != nil {
		return err
	}
	if err := e.state.SetCollection(col); err != nil {
		return err
	}
	e.emit(events.NFTTransfer{To: to, TokenID: new(uint256.Int).Set(id)})
	return nil
}

// MintNext mints the collection's next sequential id and returns it.
func (e *Engine) MintNext(to common.Address, uri string) (*uint256.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	col, err := e.collection()
	if err != nil {
		return nil, err
	}
	id := new(uint256.Int).Set(col.NextID)
	if err := e.mint(col, to, id, uri); err != nil {
		return nil, err
	}
	col.NextID = new(uint256.Int).AddUint64(id, 1)
	if err := e.state.SetCollection(col); err != nil {
		return nil, err
	}
	e.emit(events.NFTTransfer{To: to, TokenID: new(uint256.Int).Set(id)})
	return id, nil
}

// mint performs the shared mint checks and writes. The caller persists the
// updated collection counters afterwards.
func (e *Engine) mint(col *state.Collection, to common.Address, id *uint256.Int, uri string) error {
	record, err := e.state.NFTToken(id)
	if err != nil {
		return err
	}
	if record != nil {
		return ErrAlreadyMinted
	}
	if !col.MaxSupply.IsZero() && col.Minted.Cmp(col.MaxSupply) >= 0 {
		return ErrSupplyCapReached
	}
	if err := e.state.SetNFTToken(id, &state.TokenRecord{Owner: to, URI: uri}); err != nil {
		return err
	}
	balance, err := e.state.NFTBalance(to)
	if err != nil {
		return err
	}
	if err := e.state.SetNFTBalance(to, new(uint256.Int).AddUint64(balance, 1)); err != nil {
		return err
	}
	col.Minted = new(uint256.Int).AddUint64(col.Minted, 1)
	return nil
}

// TransferFrom reassigns ownership of the token id. The caller must be the
// current owner, the approved address for the id, or an approved operator of
// the owner. Any per-token approval is cleared. Transfers to the zero address
// and self-transfers are permitted.
func (e *Engine) TransferFrom(caller, from, to common.Address, id *uint256.Int) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if id == nil {
		return fmt.Errorf("nft: token id required")
	}
	record, err := e.state.NFTToken(id)
	if err != nil {
		return err
	}
	if record == nil {
		return ErrNotFound
	}
	if record.Owner != from {
		return ErrNotOwner
	}
	authorized := caller == record.Owner
	if !authorized && record.Approved != nil && *record.Approved == caller {
		authorized = true
	}
	if !authorized {
		operator, err := e.state.IsOperator(from, caller)
		if err != nil {
			return err
		}
		authorized = operator
	}
	if !authorized {
		return ErrNotApproved
	}

	record.Owner = to
	record.Approved = nil
	if err := e.state.SetNFTToken(id, record); err != nil {
		return err
	}
	if from != to {
		fromBalance, err := e.state.NFTBalance(from)
		if err != nil {
			return err
		}
		if err := e.state.SetNFTBalance(from, new(uint256.Int).SubUint64(fromBalance, 1)); err != nil {
			return err
		}
		toBalance, err := e.state.NFTBalance(to)
		if err != nil {
			return err
		}
		if err := e.state.SetNFTBalance(to, new(uint256.Int).AddUint64(toBalance, 1)); err != nil {
			return err
		}
	}
	e.emit(events.NFTTransfer{From: from, To: to, TokenID: new(uint256.Int).Set(id)})
	return nil
}

// Approve grants spender transfer rights over the token id. The caller must be
// the owner or an approved operator. A zero spender clears the slot.
// Self-approval is permitted.
func (e *Engine) Approve(caller, spender common.Address, id *uint256.Int) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if id == nil {
		return fmt.Errorf("nft: token id required")
	}
	record, err := e.state.NFTToken(id)
	if err != nil {
		return err
	}
	if record == nil {
		return ErrNotFound
	}
	owner := record.Owner
	if caller != owner {
		operator, err := e.state.IsOperator(owner, caller)
		if err != nil {
			return err
		}
		if !operator {
			return ErrNotOwner
		}
	}
	if spender == (common.Address{}) {
		record.Approved = nil
	} else {
		approved := spender
		record.Approved = &approved
	}
	if err := e.state.SetNFTToken(id, record); err != nil {
		return err
	}
	e.emit(events.NFTApproval{Owner: owner, Approved: spender, TokenID: new(uint256.Int).Set(id)})
	return nil
}

// SetApprovalForAll toggles operator rights over every token the caller owns
// now or later.
func (e *Engine) SetApprovalForAll(caller, operator common.Address, approved bool) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if err := e.state.SetOperator(caller, operator, approved); err != nil {
		return err
	}
	e.emit(events.NFTApprovalForAll{Owner: caller, Operator: operator, Approved: approved})
	return nil
}

// Name returns the collection name.
func (e *Engine) Name() (string, error) {
	col, err := e.collection()
	if err != nil {
		return "", err
	}
	return col.Name, nil
}

// Symbol returns the collection symbol.
func (e *Engine) Symbol() (string, error) {
	col, err := e.collection()
	if err != nil {
		return "", err
	}
	return col.Symbol, nil
}

// OwnerOf returns the recorded owner of the token id.
func (e *Engine) OwnerOf(id *uint256.Int) (common.Address, error) {
	if e == nil || e.state == nil {
		return common.Address{}, errNilState
	}
	if id == nil {
		return common.Address{}, fmt.Errorf("nft: token id required")
	}
	record, err := e.state.NFTToken(id)
	if err != nil {
		return common.Address{}, err
	}
	if record == nil {
		return common.Address{}, ErrNotFound
	}
	return record.Owner, nil
}

// BalanceOf returns the number of tokens held by the address.
func (e *Engine) BalanceOf(addr common.Address) (*uint256.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	return e.state.NFTBalance(addr)
}

// GetApproved returns the approved spender for the token id, or nil when the
// slot is clear.
func (e *Engine) GetApproved(id *uint256.Int) (*common.Address, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if id == nil {
		return nil, fmt.Errorf("nft: token id required")
	}
	record, err := e.state.NFTToken(id)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, ErrNotFound
	}
	if record.Approved == nil {
		return nil, nil
	}
	approved := *record.Approved
	return &approved, nil
}

// IsApprovedForAll reports whether operator may manage every token owned by
// owner.
func (e *Engine) IsApprovedForAll(owner, operator common.Address) (bool, error) {
	if e == nil || e.state == nil {
		return false, errNilState
	}
	return e.state.IsOperator(owner, operator)
}

// TokenURI returns the metadata location for the token id, joining the
// collection base URI with the stored per-token suffix.
func (e *Engine) TokenURI(id *uint256.Int) (string, error) {
	if e == nil || e.state == nil {
		return "", errNilState
	}
	if id == nil {
		return "", fmt.Errorf("nft: token id required")
	}
	record, err := e.state.NFTToken(id)
	if err != nil {
		return "", err
	}
	if record == nil {
		return "", ErrNotFound
	}
	col, err := e.collection()
	if err != nil {
		return "", err
	}
	return col.BaseURI + record.URI, nil
}

// TotalMinted returns the number of tokens minted so far.
func (e *Engine) TotalMinted() (*uint256.Int, error) {
	col, err := e.collection()
	if err != nil {
		return nil, err
	}
	return new(uint256.Int).Set(col.Minted), nil
}

// MaxSupply returns the configured mint cap. Zero means uncapped.
func (e *Engine) MaxSupply() (*uint256.Int, error) {
	col, err := e.collection()
	if err != nil {
		return nil, err
	}
	return new(uint256.Int).Set(col.MaxSupply), nil
}

// CollectionOwner returns the address recorded as the collection owner at
// initialisation.
func (e *Engine) CollectionOwner() (common.Address, error) {
	col, err := e.collection()
	if err != nil {
		return common.Address{}, err
	}
	return col.Owner, nil
}
