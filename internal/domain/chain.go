package domain

import (
	"context"
	"math/big"
	"time"
)

// ChainReader exposes the read surface of the game, army-token, and
// territory-NFT contracts. Every call is an independent asynchronous read
// with no ordering guarantees; consumers must tolerate any subset failing.
type ChainReader interface {
	// TerritoryExists reports whether the territory NFT has been minted.
	TerritoryExists(ctx context.Context, id int) (bool, error)
	// TerritoryOwner returns the owning address. ErrNotFound for unminted ids.
	TerritoryOwner(ctx context.Context, id int) (string, error)
	// TerritoryGarrison returns the stationed army balance in base units.
	TerritoryGarrison(ctx context.Context, id int) (*big.Int, error)
	// SpawnProtectionUntil returns the protection expiry, zero when none.
	SpawnProtectionUntil(ctx context.Context, id int) (time.Time, error)
	// TerritoryCount returns the total number of minted territories.
	TerritoryCount(ctx context.Context) (int, error)
	// ArmyBalance returns addr's fungible token balance in base units.
	ArmyBalance(ctx context.Context, addr string) (*big.Int, error)
	// ArmyAllowance returns the spender allowance granted by owner.
	ArmyAllowance(ctx context.Context, owner, spender string) (*big.Int, error)
	// LastClaim returns when addr last claimed daily armies, zero if never.
	LastClaim(ctx context.Context, addr string) (time.Time, error)
}

// TxResult reports a submitted transaction and whether it was mined
// successfully.
type TxResult struct {
	Hash      string
	Confirmed bool
}

// TxSender submits signed game transactions and waits for their receipts.
// The contract remains the final arbiter: a locally eligible action may
// still revert if state changed between check and submission.
type TxSender interface {
	Station(ctx context.Context, territoryID int, amountRaw *big.Int) (TxResult, error)
	Withdraw(ctx context.Context, territoryID int, amountRaw *big.Int) (TxResult, error)
	Attack(ctx context.Context, fromID, toID int, amountRaw *big.Int) (TxResult, error)
	ApproveGame(ctx context.Context, amountRaw *big.Int) (TxResult, error)
	ApproveEscrow(ctx context.Context, amountRaw *big.Int) (TxResult, error)
	ClaimDailyArmies(ctx context.Context) (TxResult, error)
	ClaimInitialTerritory(ctx context.Context, territoryID int) (TxResult, error)
	PlaceBet(ctx context.Context, bet SignedBet) (TxResult, error)
	// Sender returns the acting wallet address.
	Sender() string
}
