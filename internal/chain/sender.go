package chain

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"github.com/predictrisk/engine/internal/domain"
)

// Wallet submits signed game transactions from a single key and blocks until
// each is mined. It implements domain.TxSender.
type Wallet struct {
	client  *Client
	key     *ecdsa.PrivateKey
	address common.Address
	chainID *big.Int
}

var _ domain.TxSender = (*Wallet)(nil)

// NewWallet binds a private key to the client's chain.
func NewWallet(client *Client, key *ecdsa.PrivateKey) *Wallet {
	return &Wallet{
		client:  client,
		key:     key,
		address: ethcrypto.PubkeyToAddress(key.PublicKey),
		chainID: big.NewInt(client.cfg.ChainID),
	}
}

// Sender returns the lowercase acting wallet address.
func (w *Wallet) Sender() string {
	return strings.ToLower(w.address.Hex())
}

// submit packs, signs, sends, and waits for one contract invocation. The
// returned result reports the mined receipt status; a revert is not an
// error here, the caller decides how to surface it.
func (w *Wallet) submit(ctx context.Context, to common.Address, parsed abi.ABI, method string, args ...any) (domain.TxResult, error) {
	data, err := parsed.Pack(method, args...)
	if err != nil {
		return domain.TxResult{}, fmt.Errorf("chain: pack %s: %w", method, err)
	}

	nonce, err := w.client.eth.PendingNonceAt(ctx, w.address)
	if err != nil {
		return domain.TxResult{}, fmt.Errorf("chain: nonce: %w", err)
	}
	gasPrice, err := w.client.eth.SuggestGasPrice(ctx)
	if err != nil {
		return domain.TxResult{}, fmt.Errorf("chain: gas price: %w", err)
	}
	gas, err := w.client.eth.EstimateGas(ctx, ethereum.CallMsg{
		From: w.address,
		To:   &to,
		Data: data,
	})
	if err != nil {
		return domain.TxResult{}, fmt.Errorf("chain: estimate %s: %w", method, err)
	}

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       &to,
		Gas:      gas,
		GasPrice: gasPrice,
		Data:     data,
	})
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(w.chainID), w.key)
	if err != nil {
		return domain.TxResult{}, fmt.Errorf("chain: sign %s: %w", method, err)
	}

	if err := w.client.eth.SendTransaction(ctx, signed); err != nil {
		return domain.TxResult{}, fmt.Errorf("chain: send %s: %w", method, err)
	}

	w.client.log.Info("transaction submitted", "method", method, "hash", signed.Hash().Hex())

	receipt, err := bind.WaitMined(ctx, w.client.eth, signed)
	if err != nil {
		return domain.TxResult{Hash: signed.Hash().Hex()}, fmt.Errorf("chain: wait %s: %w", method, err)
	}

	return domain.TxResult{
		Hash:      signed.Hash().Hex(),
		Confirmed: receipt.Status == types.ReceiptStatusSuccessful,
	}, nil
}

func (w *Wallet) Station(ctx context.Context, territoryID int, amountRaw *big.Int) (domain.TxResult, error) {
	return w.submit(ctx, w.client.game, gameABI, "stationArmies", big.NewInt(int64(territoryID)), amountRaw)
}

func (w *Wallet) Withdraw(ctx context.Context, territoryID int, amountRaw *big.Int) (domain.TxResult, error) {
	return w.submit(ctx, w.client.game, gameABI, "withdrawArmies", big.NewInt(int64(territoryID)), amountRaw)
}

func (w *Wallet) Attack(ctx context.Context, fromID, toID int, amountRaw *big.Int) (domain.TxResult, error) {
	return w.submit(ctx, w.client.game, gameABI, "attack", big.NewInt(int64(fromID)), big.NewInt(int64(toID)), amountRaw)
}

func (w *Wallet) ApproveGame(ctx context.Context, amountRaw *big.Int) (domain.TxResult, error) {
	return w.submit(ctx, w.client.army, erc20ABI, "approve", w.client.game, amountRaw)
}

func (w *Wallet) ApproveEscrow(ctx context.Context, amountRaw *big.Int) (domain.TxResult, error) {
	return w.submit(ctx, w.client.army, erc20ABI, "approve", w.client.bets, amountRaw)
}

func (w *Wallet) ClaimDailyArmies(ctx context.Context) (domain.TxResult, error) {
	return w.submit(ctx, w.client.game, gameABI, "claimDailyArmies")
}

func (w *Wallet) ClaimInitialTerritory(ctx context.Context, territoryID int) (domain.TxResult, error) {
	return w.submit(ctx, w.client.game, gameABI, "claimSpawnTerritory", big.NewInt(int64(territoryID)))
}

// escrowBet mirrors the placeBet tuple layout.
type escrowBet struct {
	Player   common.Address
	Market   string
	Outcome  uint8
	Amount   *big.Int
	Nonce    *big.Int
	Deadline *big.Int
}

// PlaceBet submits a signer-authorized bet to the escrow contract.
func (w *Wallet) PlaceBet(ctx context.Context, bet domain.SignedBet) (domain.TxResult, error) {
	amount, ok := new(big.Int).SetString(bet.Amount, 10)
	if !ok {
		return domain.TxResult{}, fmt.Errorf("chain: invalid bet amount %q", bet.Amount)
	}
	nonce, ok := new(big.Int).SetString(bet.Nonce, 10)
	if !ok {
		return domain.TxResult{}, fmt.Errorf("chain: invalid bet nonce %q", bet.Nonce)
	}
	deadline, ok := new(big.Int).SetString(bet.Deadline, 10)
	if !ok {
		return domain.TxResult{}, fmt.Errorf("chain: invalid bet deadline %q", bet.Deadline)
	}
	sig, err := hexutil.Decode(bet.Signature)
	if err != nil {
		return domain.TxResult{}, fmt.Errorf("chain: invalid bet signature: %w", err)
	}

	tuple := escrowBet{
		Player:   common.HexToAddress(bet.Player),
		Market:   bet.Market,
		Outcome:  bet.Outcome,
		Amount:   amount,
		Nonce:    nonce,
		Deadline: deadline,
	}
	return w.submit(ctx, w.client.bets, escrowABI, "placeBet", tuple, sig)
}
