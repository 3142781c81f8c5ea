// Package chain implements the on-chain read and write surface over a
// JSON-RPC endpoint. Reads back the territory projector; writes submit
// signed game transactions and wait for their receipts.
package chain

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/predictrisk/engine/internal/config"
)

// Client wraps an RPC connection and the deployed contract addresses.
type Client struct {
	eth  *ethclient.Client
	log  *slog.Logger
	cfg  config.ChainConfig
	game common.Address
	nft  common.Address
	army common.Address
	bets common.Address
}

// Dial connects to the configured JSON-RPC endpoint.
func Dial(ctx context.Context, cfg config.ChainConfig, log *slog.Logger) (*Client, error) {
	eth, err := ethclient.DialContext(ctx, cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("chain: dial %s: %w", cfg.RPCURL, err)
	}

	return &Client{
		eth:  eth,
		log:  log.With("component", "chain"),
		cfg:  cfg,
		game: common.HexToAddress(cfg.GameAddress),
		nft:  common.HexToAddress(cfg.TerritoryNFT),
		army: common.HexToAddress(cfg.ArmyToken),
		bets: common.HexToAddress(cfg.BetEscrow),
	}, nil
}

// Close releases the RPC connection.
func (c *Client) Close() {
	c.eth.Close()
}

// call packs a view-function invocation, executes it against the latest
// block, and unpacks the results.
func (c *Client) call(ctx context.Context, to common.Address, parsed abi.ABI, method string, args ...any) ([]any, error) {
	data, err := parsed.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("chain: pack %s: %w", method, err)
	}

	out, err := c.eth.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("chain: call %s: %w", method, err)
	}

	results, err := parsed.Unpack(method, out)
	if err != nil {
		return nil, fmt.Errorf("chain: unpack %s: %w", method, err)
	}
	return results, nil
}
