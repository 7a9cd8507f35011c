package config

// Node groups the runtime settings of the ledger daemon.
type Node struct {
	RPCAddress           string `toml:"RPCAddress"`
	DataDir              string `toml:"DataDir"`
	DBCacheMiB           int    `toml:"DBCacheMiB"`
	Environment          string `toml:"Environment"`
	KeystorePath         string `toml:"KeystorePath"`
	RequireMintAuthority bool   `toml:"RequireMintAuthority"`
}

// NFT seeds the collection ledger at genesis. Owner is a bech32 address;
// MaxSupply of zero means the collection is unbounded.
type NFT struct {
	Name      string `toml:"Name"`
	Symbol    string `toml:"Symbol"`
	BaseURI   string `toml:"BaseURI"`
	Owner     string `toml:"Owner"`
	MaxSupply uint64 `toml:"MaxSupply"`
}

// Token seeds the fungible ledger at genesis.
type Token struct {
	Name     string `toml:"Name"`
	Symbol   string `toml:"Symbol"`
	Decimals uint8  `toml:"Decimals"`
}

// Config bundles the daemon and genesis settings loaded from disk.
type Config struct {
	Node  Node  `toml:"node"`
	NFT   NFT   `toml:"nft"`
	Token Token `toml:"token"`
}
