package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/predictrisk/engine/internal/cache/redis"
	"github.com/predictrisk/engine/internal/chain"
	"github.com/predictrisk/engine/internal/combat"
	"github.com/predictrisk/engine/internal/config"
	"github.com/predictrisk/engine/internal/domain"
	"github.com/predictrisk/engine/internal/ledger"
	"github.com/predictrisk/engine/internal/notify"
	"github.com/predictrisk/engine/internal/platform/polymarket"
	"github.com/predictrisk/engine/internal/projector"
	"github.com/predictrisk/engine/internal/rules"
	"github.com/predictrisk/engine/internal/signer"
	"github.com/predictrisk/engine/internal/store/postgres"
	"github.com/predictrisk/engine/internal/wallet"
	"github.com/predictrisk/engine/internal/worldmap"
)

// Dependencies bundles everything the modes need to operate. Constructed by
// Wire and torn down by the returned cleanup function.
type Dependencies struct {
	Graph     *worldmap.Graph
	Reader    domain.ChainReader
	Sender    domain.TxSender
	Proj      *projector.Projector
	Rules     *rules.Engine
	Previewer combat.Previewer
	Markets   domain.MarketData
	Signer    domain.BetSigner
	Ledger    *ledger.Service
	Notifier  *notify.Notifier

	// Actor is the acting wallet address, empty in read-only modes.
	Actor string
}

// Wire constructs all concrete implementations from configuration. Demo mode
// gets an in-memory world and the dice previewer; any mode with an RPC
// endpoint behind it uses the contract-exact deterministic previewer.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	graph, err := buildGraph(cfg.Map)
	if err != nil {
		return nil, nil, fmt.Errorf("wire: map: %w", err)
	}
	deps.Graph = graph

	deps.Rules = rules.NewEngine(cfg.Rules)
	deps.Notifier = notify.New(cfg.Notify, logger)

	// --- Chain reads and writes ---
	if strings.ToLower(cfg.Mode) == "demo" {
		dice := combat.NewDice(time.Now().UnixNano())
		world := newDemoWorld(graph, dice, deps.Rules.MinGarrison())
		deps.Reader = world
		deps.Sender = world
		deps.Previewer = dice
		deps.Actor = world.Sender()
	} else {
		client, err := chain.Dial(ctx, cfg.Chain, logger)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: chain: %w", err)
		}
		closers = append(closers, client.Close)
		deps.Reader = client
		deps.Previewer = deps.Rules.Previewer()

		key, err := wallet.Load(cfg.Wallet)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: wallet: %w", err)
		}
		if key != nil {
			w := chain.NewWallet(client, key)
			deps.Sender = w
			deps.Actor = w.Sender()
		}
	}

	gameAddr := strings.ToLower(cfg.Chain.GameAddress)
	escrowAddr := strings.ToLower(cfg.Chain.BetEscrow)
	deps.Proj = projector.New(deps.Reader, graph, gameAddr, escrowAddr, logger)

	// --- Market data, bet signing ---
	deps.Markets = polymarket.NewClient(cfg.Markets.ProxyHost, logger)
	if cfg.Signer.BaseURL != "" {
		deps.Signer = signer.NewClient(cfg.Signer.BaseURL)
	}

	// --- Bet ledger ---
	var store domain.BetStore
	switch strings.ToLower(cfg.Ledger.Backend) {
	case "postgres":
		pg, err := postgres.New(ctx, cfg.Postgres)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres: %w", err)
		}
		closers = append(closers, pg.Close)
		if cfg.Postgres.RunMigrations {
			if err := pg.RunMigrations(ctx); err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
			}
		}
		store = postgres.NewBetStore(pg)
	default:
		store = ledger.NewFileStore(cfg.Ledger.Path, cfg.Ledger.MaxRecords)
	}

	var quoteCache domain.QuoteCache
	if cfg.Redis.Addr != "" {
		rc, err := redis.New(ctx, cfg.Redis)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, func() { _ = rc.Close() })
		quoteCache = redis.NewQuoteCache(rc)
	}

	deps.Ledger = ledger.NewService(store, deps.Markets, quoteCache, cfg.Markets.QuoteTTL.Duration, logger)

	return deps, cleanup, nil
}

// buildGraph selects the adjacency source: the hardcoded classic board or
// the border dataset restricted to the codes drawn in the world map.
func buildGraph(cfg config.MapConfig) (*worldmap.Graph, error) {
	if strings.ToLower(cfg.Variant) != "world" {
		return worldmap.Classic(), nil
	}

	svg, err := os.ReadFile(cfg.WorldSVG)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", cfg.WorldSVG, err)
	}
	csv, err := os.ReadFile(cfg.BordersCSV)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", cfg.BordersCSV, err)
	}

	allowed := worldmap.ExtractMapCodes(string(svg))
	return worldmap.FromBorders(string(csv), allowed), nil
}
