package config

import (
	"os"
	"path/filepath"
	"strings"

	"tokenledger/crypto"

	"github.com/BurntSushi/toml"
)

const configHeader = `# tokend configuration.
# Generated with defaults; adjust before exposing the node.

`

// Load reads the configuration at path. When the file does not exist a
// default configuration and a node keystore are created next to it.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}

	cfg := &Config{}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	if err := ensureKeystore(path, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if strings.TrimSpace(c.Node.RPCAddress) == "" {
		c.Node.RPCAddress = ":8080"
	}
	if strings.TrimSpace(c.Node.DataDir) == "" {
		c.Node.DataDir = "./ledger-data"
	}
	if c.Node.DBCacheMiB == 0 {
		c.Node.DBCacheMiB = 16
	}
}

// ensureKeystore guarantees the node has a key on disk. A freshly generated
// key also becomes the collection owner when none is configured.
func ensureKeystore(configPath string, cfg *Config) error {
	keystorePath := cfg.Node.KeystorePath
	if keystorePath == "" {
		keystorePath = defaultKeystorePath(configPath)
	}

	dirty := false
	if _, err := os.Stat(keystorePath); os.IsNotExist(err) {
		key, genErr := crypto.GeneratePrivateKey()
		if genErr != nil {
			return genErr
		}
		if err := crypto.SaveToKeystore(keystorePath, key, ""); err != nil {
			return err
		}
		if strings.TrimSpace(cfg.NFT.Owner) == "" {
			cfg.NFT.Owner = key.PubKey().Address().String()
			dirty = true
		}
	} else if err != nil {
		return err
	}

	if cfg.Node.KeystorePath != keystorePath {
		cfg.Node.KeystorePath = keystorePath
		dirty = true
	}
	if dirty {
		return persist(configPath, cfg)
	}
	return nil
}

// createDefault creates and saves a default configuration file.
func createDefault(path string) (*Config, error) {
	key, err := crypto.GeneratePrivateKey()
	if err != nil {
		return nil, err
	}

	keystorePath := defaultKeystorePath(path)
	if err := crypto.SaveToKeystore(keystorePath, key, ""); err != nil {
		return nil, err
	}

	cfg := &Config{
		Node: Node{
			RPCAddress:   ":8080",
			DataDir:      "./ledger-data",
			DBCacheMiB:   16,
			KeystorePath: keystorePath,
		},
		NFT: NFT{
			Name:    "Ledger Art",
			Symbol:  "LART",
			BaseURI: "",
			Owner:   key.PubKey().Address().String(),
		},
		Token: Token{
			Name:     "Ledger Coin",
			Symbol:   "LGC",
			Decimals: 18,
		},
	}

	if err := persist(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func persist(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.WriteString(configHeader); err != nil {
		return err
	}
	return toml.NewEncoder(f).Encode(cfg)
}

func defaultKeystorePath(configPath string) string {
	dir := filepath.Dir(configPath)
	if dir == "." || dir == "" {
		dir = ""
	}
	return filepath.Join(dir, "node.keystore")
}
