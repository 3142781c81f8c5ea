package chain

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/predictrisk/engine/internal/domain"
)

// Admin write surface used by deploy and operations tooling. These calls
// revert on chain unless the wallet holds the contract's owner role; the
// engine performs no local privilege check.

// MintTerritory mints a territory NFT to an address.
func (w *Wallet) MintTerritory(ctx context.Context, to string, territoryID int, uri string) (domain.TxResult, error) {
	return w.submit(ctx, w.client.nft, territoryABI, "mintTerritory",
		common.HexToAddress(to), big.NewInt(int64(territoryID)), uri)
}

// SetBorders writes a territory's neighbor list to the game contract.
func (w *Wallet) SetBorders(ctx context.Context, territoryID int, neighborIDs []int) (domain.TxResult, error) {
	neighbors := make([]*big.Int, len(neighborIDs))
	for i, id := range neighborIDs {
		neighbors[i] = big.NewInt(int64(id))
	}
	return w.submit(ctx, w.client.game, gameABI, "setBorders",
		big.NewInt(int64(territoryID)), neighbors)
}

// SetSpawnTerritories toggles the spawn-claimable flag on a set of
// territories.
func (w *Wallet) SetSpawnTerritories(ctx context.Context, territoryIDs []int, enabled bool) (domain.TxResult, error) {
	ids := make([]*big.Int, len(territoryIDs))
	for i, id := range territoryIDs {
		ids[i] = big.NewInt(int64(id))
	}
	return w.submit(ctx, w.client.game, gameABI, "setSpawnTerritories", ids, enabled)
}

// GrantInitialTerritory assigns a starting territory to a player directly.
func (w *Wallet) GrantInitialTerritory(ctx context.Context, player string, territoryID int) (domain.TxResult, error) {
	return w.submit(ctx, w.client.game, gameABI, "grantInitialTerritory",
		common.HexToAddress(player), big.NewInt(int64(territoryID)))
}

// ResolveMarket settles an escrow market on the given outcome, releasing
// winning stakes.
func (w *Wallet) ResolveMarket(ctx context.Context, marketURL string, outcome uint8) (domain.TxResult, error) {
	return w.submit(ctx, w.client.bets, escrowABI, "resolveMarket", marketURL, outcome)
}

// CancelMarket voids an escrow market, refunding all stakes.
func (w *Wallet) CancelMarket(ctx context.Context, marketURL string) (domain.TxResult, error) {
	return w.submit(ctx, w.client.bets, escrowABI, "cancelMarket", marketURL)
}

// EscrowWithdraw moves escrow funds to an address.
func (w *Wallet) EscrowWithdraw(ctx context.Context, to string, amountRaw *big.Int) (domain.TxResult, error) {
	return w.submit(ctx, w.client.bets, escrowABI, "withdraw",
		common.HexToAddress(to), amountRaw)
}
