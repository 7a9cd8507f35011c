package events

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"tokenledger/core/types"
)

const (
	// TypeTokenTransfer is emitted for fungible balance movements, including
	// mints (from = zero address) and burns (to = zero address).
	TypeTokenTransfer = "token.transfer"
	// TypeTokenApproval is emitted whenever an allowance is overwritten.
	TypeTokenApproval = "token.approval"
)

// TokenTransfer captures a fungible value movement between two accounts.
type TokenTransfer struct {
	From  common.Address
	To    common.Address
	Value *uint256.Int
}

func (TokenTransfer) EventType() string { return TypeTokenTransfer }

func (e TokenTransfer) Event() *types.Event {
	return &types.Event{
		Type: TypeTokenTransfer,
		Attributes: map[string]string{
			"from":  displayAddress(e.From),
			"to":    displayAddress(e.To),
			"value": formatAmount(e.Value),
		},
	}
}

// TokenApproval captures an allowance grant from an owner to a spender.
type TokenApproval struct {
	Owner   common.Address
	Spender common.Address
	Value   *uint256.Int
}

func (TokenApproval) EventType() string { return TypeTokenApproval }

func (e TokenApproval) Event() *types.Event {
	return &types.Event{
		Type: TypeTokenApproval,
		Attributes: map[string]string{
			"owner":   displayAddress(e.Owner),
			"spender": displayAddress(e.Spender),
			"value":   formatAmount(e.Value),
		},
	}
}
