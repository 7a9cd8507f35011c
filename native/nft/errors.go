package nft

import "errors"

var (
	ErrNotInitialised   = errors.New("nft: collection not initialised")
	ErrAlreadyMinted    = errors.New("nft: token already minted")
	ErrNotFound         = errors.New("nft: token not found")
	ErrNotOwner         = errors.New("nft: not token owner")
	ErrNotApproved      = errors.New("nft: caller not approved")
	ErrSupplyCapReached = errors.New("nft: max supply reached")
)
