package domain

import "time"

// BetStatus is the lifecycle state of a local bet record.
type BetStatus string

const (
	BetOpen   BetStatus = "open"
	BetClosed BetStatus = "closed"
)

// BetRecord is the client-side mirror of a prediction-market stake. The
// escrow contract independently tracks the authoritative bet; the two are
// correlated by market URL and player address but never merged, and the
// ledger tolerates permanent divergence.
type BetRecord struct {
	ID              string    `json:"id"`
	MarketURL       string    `json:"marketUrl"`
	MarketTitle     string    `json:"marketTitle"`
	OutcomeIndex    int       `json:"outcomeIndex"`
	OutcomeLabel    string    `json:"outcomeLabel"`
	EntryPriceCents int       `json:"entryPriceCents"`
	// Amount is the staked amount as the user entered it (decimal tokens).
	Amount    string    `json:"amount"`
	CreatedAt time.Time `json:"createdAt"`
	Status    BetStatus `json:"status"`
	// ClosedAt and ClosedPriceCents are set once on close and immutable
	// afterwards. ClosedPriceCents stays nil when the closing snapshot
	// fetch failed; the UI renders it as "—".
	ClosedAt         *time.Time `json:"closedAt,omitempty"`
	ClosedPriceCents *int       `json:"closedPriceCents,omitempty"`
}
