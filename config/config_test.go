package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"tokenledger/crypto"
)

func TestLoadCreatesDefaultConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("default config not written: %v", err)
	}
	if cfg.Node.RPCAddress != ":8080" {
		t.Fatalf("unexpected rpc address: %s", cfg.Node.RPCAddress)
	}
	if cfg.Node.DBCacheMiB != 16 {
		t.Fatalf("unexpected db cache: %d", cfg.Node.DBCacheMiB)
	}
	if _, err := os.Stat(cfg.Node.KeystorePath); err != nil {
		t.Fatalf("keystore not created: %v", err)
	}
	if _, err := crypto.DecodeAddress(cfg.NFT.Owner); err != nil {
		t.Fatalf("generated owner is not a valid address: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read config: %v", err)
	}
	if !strings.HasPrefix(string(raw), "# tokend configuration.") {
		t.Fatalf("default config missing header comment")
	}
}

func TestLoadParsesLedgerSettings(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	keystorePath := filepath.Join(dir, "node.keystore")

	key, err := crypto.GeneratePrivateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	if err := crypto.SaveToKeystore(keystorePath, key, ""); err != nil {
		t.Fatalf("save keystore: %v", err)
	}
	owner := key.PubKey().Address().String()

	contents := `[node]
RPCAddress = "127.0.0.1:9090"
DataDir = "./state"
DBCacheMiB = 64
Environment = "test"
KeystorePath = "` + keystorePath + `"
RequireMintAuthority = true

[nft]
Name = "Gallery"
Symbol = "GAL"
BaseURI = "https://img.example/"
Owner = "` + owner + `"
MaxSupply = 500

[token]
Name = "Gallery Coin"
Symbol = "GALC"
Decimals = 6
`
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Node.RPCAddress != "127.0.0.1:9090" {
		t.Fatalf("unexpected rpc address: %s", cfg.Node.RPCAddress)
	}
	if !cfg.Node.RequireMintAuthority {
		t.Fatalf("mint authority flag not parsed")
	}
	if cfg.NFT.MaxSupply != 500 {
		t.Fatalf("unexpected max supply: %d", cfg.NFT.MaxSupply)
	}
	if cfg.NFT.Owner != owner {
		t.Fatalf("unexpected owner: %s", cfg.NFT.Owner)
	}
	if cfg.Token.Decimals != 6 {
		t.Fatalf("unexpected decimals: %d", cfg.Token.Decimals)
	}
}

func TestValidateNamesOffendingField(t *testing.T) {
	cfg := &Config{
		Node:  Node{RPCAddress: ":8080", DataDir: "./data", DBCacheMiB: 16},
		NFT:   NFT{Name: "Gallery", Symbol: "GAL"},
		Token: Token{Name: "Gallery Coin"},
	}
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "token: Symbol") {
		t.Fatalf("expected token symbol error, got %v", err)
	}

	cfg.Token.Symbol = "GALC"
	cfg.Node.DBCacheMiB = 0
	err = cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "DBCacheMiB") {
		t.Fatalf("expected db cache error, got %v", err)
	}
}

func TestValidateRejectsBadOwner(t *testing.T) {
	cfg := &Config{
		Node:  Node{RPCAddress: ":8080", DataDir: "./data", DBCacheMiB: 16},
		NFT:   NFT{Name: "Gallery", Symbol: "GAL", Owner: "not-bech32"},
		Token: Token{Name: "Gallery Coin", Symbol: "GALC"},
	}
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "nft: invalid Owner") {
		t.Fatalf("expected owner error, got %v", err)
	}
}

func TestValidateRequiresOwnerForMintAuthority(t *testing.T) {
	cfg := &Config{
		Node:  Node{RPCAddress: ":8080", DataDir: "./data", DBCacheMiB: 16, RequireMintAuthority: true},
		NFT:   NFT{Name: "Gallery", Symbol: "GAL"},
		Token: Token{Name: "Gallery Coin", Symbol: "GALC"},
	}
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "Owner is required") {
		t.Fatalf("expected owner requirement error, got %v", err)
	}
}

func TestEnsureKeystoreBackfillsOwner(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	contents := `[node]
RPCAddress = ":8080"
DataDir = "./data"

[nft]
Name = "Gallery"
Symbol = "GAL"

[token]
Name = "Gallery Coin"
Symbol = "GALC"
`
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Node.KeystorePath == "" {
		t.Fatalf("keystore path not backfilled")
	}
	if _, err := crypto.DecodeAddress(cfg.NFT.Owner); err != nil {
		t.Fatalf("owner not backfilled from generated key: %v", err)
	}

	// The rewritten file must survive a reload with the same values.
	reloaded, err := Load(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.NFT.Owner != cfg.NFT.Owner {
		t.Fatalf("owner changed across reload: %s vs %s", reloaded.NFT.Owner, cfg.NFT.Owner)
	}
}
