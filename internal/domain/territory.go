package domain

import (
	"math/big"
	"strings"
	"time"
)

// TerritoryView is the unified per-territory projection derived from four
// independent chain reads. Any read that has not resolved yet contributes its
// zero value; a view is never an error.
type TerritoryView struct {
	ID int
	// Exists reports whether the territory NFT has been minted.
	Exists bool
	// Owner is the lowercase owning address, or "" when unclaimed/unknown.
	Owner string
	// GarrisonRaw is the stationed army balance in base units. Never nil.
	GarrisonRaw *big.Int
	// Garrison is GarrisonRaw formatted as a decimal token string.
	Garrison string
	// SpawnProtectedUntil is the protection expiry; zero when unprotected.
	SpawnProtectedUntil time.Time
	// UpdatedAt is when the backing reads completed. Zero for an empty view.
	UpdatedAt time.Time
}

// EmptyTerritoryView returns the all-unknown view for a territory id.
func EmptyTerritoryView(id int) TerritoryView {
	return TerritoryView{ID: id, GarrisonRaw: new(big.Int), Garrison: "0"}
}

// ProtectedAt reports whether spawn protection is active at the given
// instant. Protection decays with time, so callers must pass the current
// clock rather than caching the result.
func (v TerritoryView) ProtectedAt(now time.Time) bool {
	return !v.SpawnProtectedUntil.IsZero() && now.Before(v.SpawnProtectedUntil)
}

// OwnedBy compares the owner against addr case-insensitively.
func (v TerritoryView) OwnedBy(addr string) bool {
	return v.Owner != "" && addr != "" && strings.EqualFold(v.Owner, addr)
}

// OwnedTerritory is one row of the player's dashboard scan.
type OwnedTerritory struct {
	ID       int
	Name     string
	Garrison string
}

// PlayerState bundles the acting player's account-level reads.
type PlayerState struct {
	Address        string
	BalanceRaw     *big.Int
	Balance        string
	AllowanceRaw   *big.Int
	EscrowAllowRaw *big.Int
	LastClaim      time.Time
}

// CanClaimAt reports whether the daily claim cooldown has elapsed.
func (p PlayerState) CanClaimAt(now time.Time, cooldown time.Duration) bool {
	return now.Sub(p.LastClaim) >= cooldown
}
