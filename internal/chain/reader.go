package chain

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/predictrisk/engine/internal/domain"
)

// compile-time interface check
var _ domain.ChainReader = (*Client)(nil)

// TerritoryExists reports whether the territory NFT has been minted.
func (c *Client) TerritoryExists(ctx context.Context, id int) (bool, error) {
	out, err := c.call(ctx, c.nft, territoryABI, "exists", big.NewInt(int64(id)))
	if err != nil {
		return false, err
	}
	return asBool(out[0])
}

// TerritoryOwner returns the lowercase owning address. Unminted territories
// revert ownerOf on-chain; that surfaces as domain.ErrNotFound.
func (c *Client) TerritoryOwner(ctx context.Context, id int) (string, error) {
	out, err := c.call(ctx, c.nft, territoryABI, "ownerOf", big.NewInt(int64(id)))
	if err != nil {
		if strings.Contains(err.Error(), "revert") {
			return "", domain.ErrNotFound
		}
		return "", err
	}
	addr, ok := out[0].(common.Address)
	if !ok {
		return "", fmt.Errorf("chain: ownerOf returned %T", out[0])
	}
	return strings.ToLower(addr.Hex()), nil
}

// TerritoryGarrison returns the stationed army balance in base units.
func (c *Client) TerritoryGarrison(ctx context.Context, id int) (*big.Int, error) {
	out, err := c.call(ctx, c.game, gameABI, "territoryArmies", big.NewInt(int64(id)))
	if err != nil {
		return nil, err
	}
	return asBig(out[0])
}

// SpawnProtectionUntil returns the protection expiry. A zero timestamp on
// chain means no protection and maps to the zero time.
func (c *Client) SpawnProtectionUntil(ctx context.Context, id int) (time.Time, error) {
	out, err := c.call(ctx, c.game, gameABI, "spawnProtectionUntil", big.NewInt(int64(id)))
	if err != nil {
		return time.Time{}, err
	}
	return asUnixTime(out[0])
}

// TerritoryCount returns the total number of territories the game tracks.
func (c *Client) TerritoryCount(ctx context.Context) (int, error) {
	out, err := c.call(ctx, c.game, gameABI, "totalTerritories")
	if err != nil {
		return 0, err
	}
	n, err := asBig(out[0])
	if err != nil {
		return 0, err
	}
	return int(n.Int64()), nil
}

// ArmyBalance returns addr's fungible token balance in base units.
func (c *Client) ArmyBalance(ctx context.Context, addr string) (*big.Int, error) {
	out, err := c.call(ctx, c.army, erc20ABI, "balanceOf", common.HexToAddress(addr))
	if err != nil {
		return nil, err
	}
	return asBig(out[0])
}

// ArmyAllowance returns the spender allowance granted by owner.
func (c *Client) ArmyAllowance(ctx context.Context, owner, spender string) (*big.Int, error) {
	out, err := c.call(ctx, c.army, erc20ABI, "allowance", common.HexToAddress(owner), common.HexToAddress(spender))
	if err != nil {
		return nil, err
	}
	return asBig(out[0])
}

// LastClaim returns when addr last claimed daily armies, zero if never.
func (c *Client) LastClaim(ctx context.Context, addr string) (time.Time, error) {
	out, err := c.call(ctx, c.game, gameABI, "lastClaim", common.HexToAddress(addr))
	if err != nil {
		return time.Time{}, err
	}
	return asUnixTime(out[0])
}

func asBool(v any) (bool, error) {
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("chain: expected bool, got %T", v)
	}
	return b, nil
}

func asBig(v any) (*big.Int, error) {
	n, ok := v.(*big.Int)
	if !ok {
		return nil, fmt.Errorf("chain: expected uint256, got %T", v)
	}
	return n, nil
}

func asUnixTime(v any) (time.Time, error) {
	n, err := asBig(v)
	if err != nil {
		return time.Time{}, err
	}
	if n.Sign() == 0 {
		return time.Time{}, nil
	}
	return time.Unix(n.Int64(), 0), nil
}
