package domain

import "time"

// MarketOutcome is one side of a prediction market with its normalized price.
type MarketOutcome struct {
	Label string `json:"label"`
	Index int    `json:"index"`
	// Probability is the normalized 0..1 price.
	Probability float64 `json:"probability"`
	// PriceCents is the probability expressed as whole cents.
	PriceCents int `json:"priceCents"`
}

// MarketQuote is the display-ready view of an external prediction market.
type MarketQuote struct {
	Title      string          `json:"title"`
	Category   string          `json:"category"`
	EventSlug  string          `json:"eventSlug,omitempty"`
	MarketSlug string          `json:"marketSlug"`
	MarketURL  string          `json:"marketUrl"`
	Volume     float64         `json:"volume"`
	VolumeUnit string          `json:"volumeUnit"`
	EndDate    time.Time       `json:"endDate,omitzero"`
	Outcomes   []MarketOutcome `json:"outcomes"`
}

// MarketRef is a parsed market URL: either or both slugs may be present.
type MarketRef struct {
	EventSlug  string
	MarketSlug string
}

// IsZero reports whether the URL yielded no usable slug.
func (r MarketRef) IsZero() bool {
	return r.EventSlug == "" && r.MarketSlug == ""
}

// SignedBet is the tuple returned by the off-chain bet signer, submitted
// verbatim to the escrow contract's placeBet.
type SignedBet struct {
	Player    string `json:"player"`
	Market    string `json:"market"`
	Outcome   uint8  `json:"outcome"`
	Amount    string `json:"amount"`
	Nonce     string `json:"nonce"`
	Deadline  string `json:"deadline"`
	Signature string `json:"signature"`
}
