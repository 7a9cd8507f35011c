package config

import (
	"fmt"
	"strings"

	"tokenledger/crypto"
)

// Validate checks the loaded configuration and names the offending field on
// failure.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Node.RPCAddress) == "" {
		return fmt.Errorf("node: RPCAddress is required")
	}
	if strings.TrimSpace(c.Node.DataDir) == "" {
		return fmt.Errorf("node: DataDir is required")
	}
	if c.Node.DBCacheMiB <= 0 {
		return fmt.Errorf("node: DBCacheMiB must be greater than zero")
	}
	if strings.TrimSpace(c.NFT.Name) == "" {
		return fmt.Errorf("nft: Name is required")
	}
	if strings.TrimSpace(c.NFT.Symbol) == "" {
		return fmt.Errorf("nft: Symbol is required")
	}
	if owner := strings.TrimSpace(c.NFT.Owner); owner != "" {
		if _, err := crypto.DecodeAddress(owner); err != nil {
			return fmt.Errorf("nft: invalid Owner address: %w", err)
		}
	} else if c.Node.RequireMintAuthority {
		return fmt.Errorf("nft: Owner is required when node.RequireMintAuthority is set")
	}
	if strings.TrimSpace(c.Token.Name) == "" {
		return fmt.Errorf("token: Name is required")
	}
	if strings.TrimSpace(c.Token.Symbol) == "" {
		return fmt.Errorf("token: Symbol is required")
	}
	return nil
}
