package events

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"tokenledger/crypto"
)

func displayAddress(addr common.Address) string {
	return crypto.MustNewAddress(crypto.TKLPrefix, addr.Bytes()).String()
}

func formatAmount(v *uint256.Int) string {
	if v == nil {
		return "0"
	}
	return v.Dec()
}
