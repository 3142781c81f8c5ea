package domain

import (
	"context"
	"time"
)

// BetStore persists the local bet ledger. The ledger is a convenience cache,
// not a source of truth: implementations replace the full list on every
// mutation, newest first, mirroring the client's storage layout.
type BetStore interface {
	// List returns all records, newest first.
	List(ctx context.Context) ([]BetRecord, error)
	// Replace rewrites the complete ledger.
	Replace(ctx context.Context, bets []BetRecord) error
}

// MarketData is the external prediction-market data proxy.
type MarketData interface {
	// Resolve looks a market up from a pasted URL, falling back to the
	// event's highest-volume market when the direct slug misses.
	Resolve(ctx context.Context, marketURL string) (MarketQuote, error)
	// Snapshot returns the current price in cents for one outcome of the
	// market identified by marketURL.
	Snapshot(ctx context.Context, marketURL string, outcomeIndex int) (int, error)
}

// QuoteCache caches market price snapshots so ledger refreshes don't hammer
// the proxy. Implementations may be absent; callers treat misses and errors
// identically.
type QuoteCache interface {
	GetSnapshot(ctx context.Context, marketURL string, outcomeIndex int) (int, error)
	SetSnapshot(ctx context.Context, marketURL string, outcomeIndex int, priceCents int, ttl time.Duration) error
}

// BetSigner is the off-chain service that authorizes bets with an EIP-712
// signature. The returned tuple is submitted verbatim to the escrow contract.
type BetSigner interface {
	SignBet(ctx context.Context, player, marketURL string, outcomeIndex int, amountRaw string) (SignedBet, error)
}
