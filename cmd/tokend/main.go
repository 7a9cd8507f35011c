package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"tokenledger/config"
	"tokenledger/core"
	"tokenledger/core/events"
	"tokenledger/core/state"
	"tokenledger/core/types"
	"tokenledger/crypto"
	"tokenledger/observability"
	"tokenledger/observability/logging"
	"tokenledger/rpc"
	"tokenledger/storage"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

const envVarName = "TOKEND_ENV"

func main() {
	configFile := flag.String("config", "./config.toml", "Path to the node configuration file")
	flag.Parse()

	env := strings.TrimSpace(os.Getenv(envVarName))
	logger := logging.Setup("tokend", env)

	cfg, err := config.Load(*configFile)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	db, err := storage.NewLevelDB(cfg.Node.DataDir, cfg.Node.DBCacheMiB)
	if err != nil {
		panic(fmt.Sprintf("Failed to open database: %v", err))
	}
	defer db.Close()

	genesis, err := genesisFromConfig(cfg)
	if err != nil {
		panic(fmt.Sprintf("Invalid genesis settings: %v", err))
	}

	ledger, err := core.NewLedgerProcessor(db, genesis)
	if err != nil {
		panic(fmt.Sprintf("Failed to open ledger: %v", err))
	}
	ledger.SetEmitter(&eventTelemetry{log: logger})

	logger.Info("ledger ready",
		slog.String("root", ledger.CurrentRoot().Hex()),
		slog.Uint64("version", ledger.Version()),
		slog.Bool("mintAuthority", cfg.Node.RequireMintAuthority),
	)

	server := rpc.NewServer(ledger, rpc.ServerConfig{
		RequireMintAuthority: cfg.Node.RequireMintAuthority,
		Logger:               logger,
	})
	if err := server.Start(cfg.Node.RPCAddress); err != nil {
		logger.Error("rpc server stopped", slog.Any("error", err))
		os.Exit(1)
	}
}

// genesisFromConfig translates the TOML ledger sections into the seed applied
// to a fresh database. An existing database keeps its recorded metadata, so
// editing the config after first start has no effect on these fields.
func genesisFromConfig(cfg *config.Config) (*core.Genesis, error) {
	var owner common.Address
	if trimmed := strings.TrimSpace(cfg.NFT.Owner); trimmed != "" {
		decoded, err := crypto.DecodeAddress(trimmed)
		if err != nil {
			return nil, fmt.Errorf("nft owner: %w", err)
		}
		copy(owner[:], decoded.Bytes())
	}
	return &core.Genesis{
		Collection: state.Collection{
			Name:      cfg.NFT.Name,
			Symbol:    cfg.NFT.Symbol,
			BaseURI:   cfg.NFT.BaseURI,
			Owner:     owner,
			MaxSupply: uint256.NewInt(cfg.NFT.MaxSupply),
		},
		Token: state.TokenInfo{
			Name:     cfg.Token.Name,
			Symbol:   cfg.Token.Symbol,
			Decimals: cfg.Token.Decimals,
		},
	}, nil
}

// eventTelemetry forwards committed ledger events to the structured log and
// the event counter so operators can follow activity without an indexer.
type eventTelemetry struct {
	log *slog.Logger
}

func (t *eventTelemetry) Emit(evt events.Event) {
	observability.Events().RecordEvent(evt.EventType())
	attrs := []any{slog.String("type", evt.EventType())}
	if provider, ok := evt.(interface{ Event() *types.Event }); ok {
		for key, value := range provider.Event().Attributes {
			attrs = append(attrs, slog.String(key, value))
		}
	}
	t.log.Info("ledger event", attrs...)
}
