package service

import (
	"context"
	"errors"
	"log/slog"
	"math/big"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/predictrisk/engine/internal/domain"
	"github.com/predictrisk/engine/internal/ledger"
	"github.com/predictrisk/engine/internal/projector"
	"github.com/predictrisk/engine/internal/worldmap"
)

type fakeMarketData struct {
	quote domain.MarketQuote
	err   error
}

func (f *fakeMarketData) Resolve(ctx context.Context, marketURL string) (domain.MarketQuote, error) {
	return f.quote, f.err
}

func (f *fakeMarketData) Snapshot(ctx context.Context, marketURL string, outcomeIndex int) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	return f.quote.Outcomes[outcomeIndex].PriceCents, nil
}

type fakeSigner struct {
	gotPlayer  string
	gotMarket  string
	gotOutcome int
	gotAmount  string
	err        error
	calls      int
}

func (f *fakeSigner) SignBet(ctx context.Context, player, marketURL string, outcomeIndex int, amountRaw string) (domain.SignedBet, error) {
	f.calls++
	f.gotPlayer = player
	f.gotMarket = marketURL
	f.gotOutcome = outcomeIndex
	f.gotAmount = amountRaw
	if f.err != nil {
		return domain.SignedBet{}, f.err
	}
	return domain.SignedBet{
		Player:    player,
		Market:    marketURL,
		Outcome:   uint8(outcomeIndex),
		Amount:    amountRaw,
		Nonce:     "1",
		Deadline:  "9999999999",
		Signature: "0xsig",
	}, nil
}

// zeroAllowanceChain reads as a player who never approved the escrow.
type zeroAllowanceChain struct{ *fakeChain }

func (c zeroAllowanceChain) ArmyAllowance(ctx context.Context, owner, spender string) (*big.Int, error) {
	return new(big.Int), nil
}

// revertingSender fails every bet submission.
type revertingSender struct{ *fakeChain }

func (s revertingSender) PlaceBet(ctx context.Context, bet domain.SignedBet) (domain.TxResult, error) {
	return domain.TxResult{}, errors.New("execution reverted")
}

func testQuote() domain.MarketQuote {
	return domain.MarketQuote{
		Title:      "Will it rain tomorrow?",
		MarketSlug: "will-it-rain-tomorrow",
		MarketURL:  "https://polymarket.com/event/weather/will-it-rain-tomorrow",
		Outcomes: []domain.MarketOutcome{
			{Label: "Yes", Index: 0, Probability: 0.42, PriceCents: 42},
			{Label: "No", Index: 1, Probability: 0.58, PriceCents: 58},
		},
	}
}

func newBetService(t *testing.T, reader domain.ChainReader, sender domain.TxSender, markets domain.MarketData, signer domain.BetSigner) (*BetService, *ledger.Service) {
	t.Helper()
	log := slog.New(slog.DiscardHandler)
	graph := worldmap.Classic()
	proj := projector.New(reader, graph, "0xgame", "0xescrow", log)

	store := ledger.NewFileStore(filepath.Join(t.TempDir(), "bets.json"), 100)
	ledgerSvc := ledger.NewService(store, markets, nil, time.Minute, log)

	return NewBetService(markets, signer, sender, ledgerSvc, proj, nil, log), ledgerSvc
}

func TestPlaceBet(t *testing.T) {
	chain := newFakeChain()
	markets := &fakeMarketData{quote: testQuote()}
	signer := &fakeSigner{}
	svc, ledgerSvc := newBetService(t, chain, chain, markets, signer)

	res, err := svc.PlaceBet(context.Background(), "https://polymarket.com/event/weather/will-it-rain-tomorrow", 0, "5")
	require.NoError(t, err)
	assert.NotEmpty(t, res.BetID)
	assert.True(t, res.Tx.Confirmed)
	assert.Equal(t, []string{"place-bet"}, chain.submitted)

	assert.Equal(t, actor, signer.gotPlayer)
	assert.Equal(t, testQuote().MarketURL, signer.gotMarket)
	assert.Equal(t, domain.Tokens(5).String(), signer.gotAmount)

	bets, err := ledgerSvc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, bets, 1)
	assert.Equal(t, res.BetID, bets[0].ID)
	assert.Equal(t, domain.BetOpen, bets[0].Status)
	assert.Equal(t, "Yes", bets[0].OutcomeLabel)
	assert.Equal(t, 42, bets[0].EntryPriceCents)
}

func TestPlaceBetAllowanceGate(t *testing.T) {
	chain := newFakeChain()
	markets := &fakeMarketData{quote: testQuote()}
	signer := &fakeSigner{}
	svc, ledgerSvc := newBetService(t, zeroAllowanceChain{chain}, chain, markets, signer)

	_, err := svc.PlaceBet(context.Background(), "https://polymarket.com/event/weather/will-it-rain-tomorrow", 0, "5")
	require.ErrorIs(t, err, domain.ErrNotEligible)
	assert.Contains(t, err.Error(), "escrow allowance")

	assert.Zero(t, signer.calls, "never reaches the signer")
	bets, _ := ledgerSvc.List(context.Background())
	assert.Empty(t, bets)
}

func TestPlaceBetKeepsRecordOnRevert(t *testing.T) {
	chain := newFakeChain()
	markets := &fakeMarketData{quote: testQuote()}
	signer := &fakeSigner{}
	svc, ledgerSvc := newBetService(t, chain, revertingSender{chain}, markets, signer)

	res, err := svc.PlaceBet(context.Background(), "https://polymarket.com/event/weather/will-it-rain-tomorrow", 1, "5")
	require.Error(t, err)
	assert.NotEmpty(t, res.BetID, "record id survives the failed submission")

	bets, _ := ledgerSvc.List(context.Background())
	require.Len(t, bets, 1)
	assert.Equal(t, res.BetID, bets[0].ID)
	assert.Equal(t, domain.BetOpen, bets[0].Status)
}

func TestPlaceBetSignerFailure(t *testing.T) {
	chain := newFakeChain()
	markets := &fakeMarketData{quote: testQuote()}
	signer := &fakeSigner{err: domain.ErrSignerFailed}
	svc, ledgerSvc := newBetService(t, chain, chain, markets, signer)

	_, err := svc.PlaceBet(context.Background(), "https://polymarket.com/event/weather/will-it-rain-tomorrow", 0, "5")
	require.ErrorIs(t, err, domain.ErrSignerFailed)

	// nothing recorded, nothing submitted
	bets, _ := ledgerSvc.List(context.Background())
	assert.Empty(t, bets)
	assert.Empty(t, chain.submitted)
}

func TestPlaceBetBadInput(t *testing.T) {
	chain := newFakeChain()
	markets := &fakeMarketData{quote: testQuote()}
	svc, _ := newBetService(t, chain, chain, markets, &fakeSigner{})

	_, err := svc.PlaceBet(context.Background(), "https://polymarket.com/event/weather/will-it-rain-tomorrow", 5, "5")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.PlaceBet(context.Background(), "https://polymarket.com/event/weather/will-it-rain-tomorrow", 0, "-3")
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)

	_, err = svc.PlaceBet(context.Background(), "https://polymarket.com/event/weather/will-it-rain-tomorrow", 0, "nope")
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)
}

func TestPlaceBetNoWallet(t *testing.T) {
	chain := newFakeChain()
	markets := &fakeMarketData{quote: testQuote()}
	svc, _ := newBetService(t, chain, nil, markets, &fakeSigner{})

	_, err := svc.PlaceBet(context.Background(), "https://polymarket.com/event/weather/will-it-rain-tomorrow", 0, "5")
	assert.ErrorIs(t, err, domain.ErrNoWallet)
}

func TestCloseBetThroughService(t *testing.T) {
	chain := newFakeChain()
	markets := &fakeMarketData{quote: testQuote()}
	svc, ledgerSvc := newBetService(t, chain, chain, markets, &fakeSigner{})

	id, err := ledgerSvc.RecordBet(context.Background(), ledger.NewBet{
		MarketURL:    testQuote().MarketURL,
		MarketTitle:  testQuote().Title,
		OutcomeLabel: "Yes",
		Amount:       "5",
	})
	require.NoError(t, err)

	rec, err := svc.CloseBet(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, domain.BetClosed, rec.Status)
	require.NotNil(t, rec.ClosedPriceCents)
	assert.Equal(t, 42, *rec.ClosedPriceCents)
}
