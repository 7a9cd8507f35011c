package fungible

import (
	"errors"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"tokenledger/core/events"
	"tokenledger/core/state"
)

var errNilState = errors.New("fungible engine: state not configured")

// engineState describes the ledger functionality the engine needs from the
// surrounding state implementation.
type engineState interface {
	Token() (*state.TokenInfo, error)
	TokenBalance(addr common.Address) (*uint256.Int, error)
	SetTokenBalance(addr common.Address, balance *uint256.Int) error
	TokenAllowance(owner, spender common.Address) (*uint256.Int, error)
	SetTokenAllowance(owner, spender common.Address, allowance *uint256.Int) error
	TokenSupply() (*uint256.Int, error)
	SetTokenSupply(total *uint256.Int) error
}

// Engine implements the fungible ledger state machine. Operations validate
// before the first state write so a failed call leaves balances, allowances
// and the total supply untouched.
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

func (e *Engine) token() (*state.TokenInfo, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	info, err := e.state.Token()
	if err != nil {
		return nil, err
	}
	if info == nil {
		return nil, ErrNotInitialised
	}
	return info, nil
}

func cloneAmount(v *uint256.Int) *uint256.Int {
	if v == nil {
		return uint256.NewInt(0)
	}
	return new(uint256.Int).Set(v)
}

// transfer moves value between two balances. Self-transfers leave the ledger
// untouched but still emit the transfer event.
func (e *Engine) transfer(from, to common.Address, value *uint256.Int) error {
	amount := cloneAmount(value)
	fromBalance, err := e.state.TokenBalance(from)
	if err != nil {
		return err
	}
	if fromBalance.Lt(amount) {
		return ErrInsufficientBalance
	}
	if from != to {
		toBalance, err := e.state.TokenBalance(to)
		if err != nil {
			return err
		}
		newTo, overflow := new(uint256.Int).AddOverflow(toBalance, amount)
		if overflow {
			return ErrArithmeticOverflow
		}
		if err := e.state.SetTokenBalance(from, new(uint256.Int).Sub(fromBalance, amount)); err != nil {
			return err
		}
		if err := e.state.SetTokenBalance(to, newTo); err != nil {
			return err
		}
	}
	e.emit(events.TokenTransfer{From: from, To: to, Value: amount})
	return nil
}

// Mint creates value out of thin air for the recipient, growing the total
// supply. The caller is not checked: authorization, if any, is enforced by
// the surrounding layer.
func (e *Engine) Mint(to common.Address, value *uint256.Int) error {
	if _, err := e.token(); err != nil {
		return err
	}
	amount := cloneAmount(value)
	supply, err := e.state.TokenSupply()
	if err != nil {
		return err
	}
	newSupply, overflow := new(uint256.Int).AddOverflow(supply, amount)
	if overflow {
		return ErrArithmeticOverflow
	}
	balance, err := e.state.TokenBalance(to)
	if err != nil {
		return err
	}
	newBalance, overflow := new(uint256.Int).AddOverflow(balance, amount)
	if overflow {
		return ErrArithmeticOverflow
	}
	if err := e.state.SetTokenSupply(newSupply); err != nil {
		return err
	}
	if err := e.state.SetTokenBalance(to, newBalance); err != nil {
		return err
	}
	e.emit(events.TokenTransfer{To: to, Value: amount})
	return nil
}

// Burn destroys value from the holder's balance, shrinking the total supply.
func (e *Engine) Burn(from common.Address, value *uint256.Int) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	amount := cloneAmount(value)
	balance, err := e.state.TokenBalance(from)
	if err != nil {
		return err
	}
	if balance.Lt(amount) {
		return ErrInsufficientBalance
	}
	supply, err := e.state.TokenSupply()
	if err != nil {
		return err
	}
	if err := e.state.SetTokenBalance(from, new(uint256.Int).Sub(balance, amount)); err != nil {
		return err
	}
	if err := e.state.SetTokenSupply(new(uint256.Int).Sub(supply, amount)); err != nil {
		return err
	}
	e.emit(events.TokenTransfer{From: from, Value: amount})
	return nil
}

// Transfer moves value from the caller to the recipient.
func (e *Engine) Transfer(caller, to common.Address, value *uint256.Int) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	return e.transfer(caller, to, value)
}

// TransferFrom moves value from the owner to the recipient on the strength of
// a prior allowance granted to the caller. The allowance shrinks by the
// transferred value.
func (e *Engine) TransferFrom(caller, from, to common.Address, value *uint256.Int) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	amount := cloneAmount(value)
	allowance, err := e.state.TokenAllowance(from, caller)
	if err != nil {
		return err
	}
	if allowance.Lt(amount) {
		return ErrInsufficientAllowance
	}
	if err := e.transfer(from, to, amount); err != nil {
		return err
	}
	return e.state.SetTokenAllowance(from, caller, new(uint256.Int).Sub(allowance, amount))
}

// Approve overwrites the allowance granted by the caller to the spender. The
// previous value is discarded without being read.
func (e *Engine) Approve(caller, spender common.Address, value *uint256.Int) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	amount := cloneAmount(value)
	if err := e.state.SetTokenAllowance(caller, spender, amount); err != nil {
		return err
	}
	e.emit(events.TokenApproval{Owner: caller, Spender: spender, Value: amount})
	return nil
}

// Name returns the token name.
func (e *Engine) Name() (string, error) {
	info, err := e.token()
	if err != nil {
		return "", err
	}
	return info.Name, nil
}

// Symbol returns the token symbol.
func (e *Engine) Symbol() (string, error) {
	info, err := e.token()
	if err != nil {
		return "", err
	}
	return info.Symbol, nil
}

// Decimals returns the display precision fixed at instantiation.
func (e *Engine) Decimals() (uint8, error) {
	info, err := e.token()
	if err != nil {
		return 0, err
	}
	return info.Decimals, nil
}

// TotalSupply returns the current total supply.
func (e *Engine) TotalSupply() (*uint256.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	return e.state.TokenSupply()
}

// BalanceOf returns the balance of the address.
func (e *Engine) BalanceOf(addr common.Address) (*uint256.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	return e.state.TokenBalance(addr)
}

// Allowance returns the amount spender may still transfer on behalf of owner.
func (e *Engine) Allowance(owner, spender common.Address) (*uint256.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	return e.state.TokenAllowance(owner, spender)
}
