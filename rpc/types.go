package rpc

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"tokenledger/crypto"
	"tokenledger/native/fungible"
	"tokenledger/native/nft"
)

// LedgerInfoResult summarises the committed ledger head.
type LedgerInfoResult struct {
	Root    string `json:"root"`
	Version uint64 `json:"version"`
}

// NFTMintResult echoes a committed mint.
type NFTMintResult struct {
	TokenID string `json:"tokenId"`
	Owner   string `json:"owner"`
	URI     string `json:"uri,omitempty"`
}

// NFTTransferResult echoes a committed ownership change.
type NFTTransferResult struct {
	TokenID string `json:"tokenId"`
	From    string `json:"from"`
	To      string `json:"to"`
}

// NFTApprovalResult echoes a committed approval; Approved is empty when the
// slot was cleared.
type NFTApprovalResult struct {
	TokenID  string `json:"tokenId"`
	Approved string `json:"approved,omitempty"`
}

// NFTApprovalForAllResult echoes a committed operator grant or revocation.
type NFTApprovalForAllResult struct {
	Owner    string `json:"owner"`
	Operator string `json:"operator"`
	Approved bool   `json:"approved"`
}

// TokenTransferResult echoes a committed balance movement.
type TokenTransferResult struct {
	From  string `json:"from,omitempty"`
	To    string `json:"to,omitempty"`
	Value string `json:"value"`
}

// TokenApprovalResult echoes a committed allowance overwrite.
type TokenApprovalResult struct {
	Owner   string `json:"owner"`
	Spender string `json:"spender"`
	Value   string `json:"value"`
}

// ledgerErrorStatus maps engine sentinels onto an HTTP status and JSON-RPC
// error code.
func ledgerErrorStatus(err error) (int, int) {
	switch {
	case errors.Is(err, nft.ErrNotFound):
		return http.StatusNotFound, codeServerError
	case errors.Is(err, nft.ErrNotInitialised), errors.Is(err, fungible.ErrNotInitialised):
		return http.StatusServiceUnavailable, codeServerError
	case errors.Is(err, nft.ErrNotOwner), errors.Is(err, nft.ErrNotApproved):
		return http.StatusForbidden, codeOperationRejected
	case errors.Is(err, nft.ErrAlreadyMinted),
		errors.Is(err, nft.ErrSupplyCapReached),
		errors.Is(err, fungible.ErrInsufficientBalance),
		errors.Is(err, fungible.ErrInsufficientAllowance),
		errors.Is(err, fungible.ErrArithmeticOverflow):
		return http.StatusConflict, codeOperationRejected
	}
	return http.StatusInternalServerError, codeServerError
}

func decodeBech32(value string) (common.Address, error) {
	var out common.Address
	decoded, err := crypto.DecodeAddress(strings.TrimSpace(value))
	if err != nil {
		return out, err
	}
	copy(out[:], decoded.Bytes())
	return out, nil
}

func displayAddress(addr common.Address) string {
	return crypto.MustNewAddress(crypto.TKLPrefix, addr.Bytes()).String()
}

func parseUint256(label, value string) (*uint256.Int, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, fmt.Errorf("%s is required", label)
	}
	parsed, err := uint256.FromDecimal(trimmed)
	if err != nil {
		return nil, fmt.Errorf("invalid %s", label)
	}
	return parsed, nil
}

func parseAmount(value string) (*uint256.Int, error) {
	return parseUint256("amount", value)
}

func parseTokenID(value string) (*uint256.Int, error) {
	return parseUint256("token id", value)
}

func formatAmount(v *uint256.Int) string {
	if v == nil {
		return "0"
	}
	return v.Dec()
}
