package events

import (
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"tokenledger/core/types"
)

const (
	// TypeNFTTransfer is emitted whenever ownership of a token id changes,
	// including mints (from = zero address).
	TypeNFTTransfer = "nft.transfer"
	// TypeNFTApproval is emitted whenever the approved spender of a token id is set.
	TypeNFTApproval = "nft.approval"
	// TypeNFTApprovalForAll is emitted whenever an operator flag is toggled.
	TypeNFTApprovalForAll = "nft.approvalForAll"
)

// NFTTransfer captures an ownership change for a single token id.
type NFTTransfer struct {
	From    common.Address
	To      common.Address
	TokenID *uint256.Int
}

func (NFTTransfer) EventType() string { return TypeNFTTransfer }

func (e NFTTransfer) Event() *types.Event {
	return &types.Event{
		Type: TypeNFTTransfer,
		Attributes: map[string]string{
			"from":    displayAddress(e.From),
			"to":      displayAddress(e.To),
			"tokenId": formatAmount(e.TokenID),
		},
	}
}

// NFTApproval captures a per-token approval grant. A zero Approved address
// records that the slot was cleared.
type NFTApproval struct {
	Owner    common.Address
	Approved common.Address
	TokenID  *uint256.Int
}

func (NFTApproval) EventType() string { return TypeNFTApproval }

func (e NFTApproval) Event() *types.Event {
	return &types.Event{
		Type: TypeNFTApproval,
		Attributes: map[string]string{
			"owner":    displayAddress(e.Owner),
			"approved": displayAddress(e.Approved),
			"tokenId":  formatAmount(e.TokenID),
		},
	}
}

// NFTApprovalForAll captures an operator grant or revocation across a whole collection.
type NFTApprovalForAll struct {
	Owner    common.Address
	Operator common.Address
	Approved bool
}

func (NFTApprovalForAll) EventType() string { return TypeNFTApprovalForAll }

func (e NFTApprovalForAll) Event() *types.Event {
	return &types.Event{
		Type: TypeNFTApprovalForAll,
		Attributes: map[string]string{
			"owner":    displayAddress(e.Owner),
			"operator": displayAddress(e.Operator),
			"approved": strconv.FormatBool(e.Approved),
		},
	}
}
