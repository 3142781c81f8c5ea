package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/predictrisk/engine/internal/domain"
	"github.com/predictrisk/engine/internal/ledger"
	"github.com/predictrisk/engine/internal/notify"
	"github.com/predictrisk/engine/internal/projector"
)

// BetService runs the bet placement flow: resolve market, gate on escrow
// allowance, obtain an off-chain signature, record optimistically, submit.
// The local record stays even if the transaction later reverts; the ledger
// tolerates that divergence.
type BetService struct {
	markets  domain.MarketData
	signer   domain.BetSigner
	sender   domain.TxSender
	ledger   *ledger.Service
	proj     *projector.Projector
	notifier *notify.Notifier
	log      *slog.Logger
}

// NewBetService wires a bet service. sender may be nil in read-only modes.
func NewBetService(
	markets domain.MarketData,
	betSigner domain.BetSigner,
	sender domain.TxSender,
	ledgerSvc *ledger.Service,
	proj *projector.Projector,
	notifier *notify.Notifier,
	log *slog.Logger,
) *BetService {
	return &BetService{
		markets:  markets,
		signer:   betSigner,
		sender:   sender,
		ledger:   ledgerSvc,
		proj:     proj,
		notifier: notifier,
		log:      log.With("component", "bets"),
	}
}

// PlaceBetResult reports a completed placement.
type PlaceBetResult struct {
	BetID string          `json:"betId"`
	Tx    domain.TxResult `json:"tx"`
}

// ResolveMarket looks up a quote for a pasted market URL.
func (s *BetService) ResolveMarket(ctx context.Context, marketURL string) (domain.MarketQuote, error) {
	return s.markets.Resolve(ctx, marketURL)
}

// PlaceBet stakes amount (decimal tokens) on one outcome of the market
// behind marketURL.
func (s *BetService) PlaceBet(ctx context.Context, marketURL string, outcomeIndex int, amount string) (PlaceBetResult, error) {
	if s.sender == nil {
		return PlaceBetResult{}, domain.ErrNoWallet
	}
	if s.signer == nil {
		return PlaceBetResult{}, fmt.Errorf("%w: no signer configured", domain.ErrSignerFailed)
	}

	amountRaw, err := domain.ParseAmount(amount)
	if err != nil {
		return PlaceBetResult{}, err
	}
	if amountRaw.Sign() <= 0 {
		return PlaceBetResult{}, fmt.Errorf("%w: amount must be positive", domain.ErrInvalidAmount)
	}

	quote, err := s.markets.Resolve(ctx, marketURL)
	if err != nil {
		return PlaceBetResult{}, err
	}
	if outcomeIndex < 0 || outcomeIndex >= len(quote.Outcomes) {
		return PlaceBetResult{}, fmt.Errorf("%w: outcome %d of %d", domain.ErrNotFound, outcomeIndex, len(quote.Outcomes))
	}
	outcome := quote.Outcomes[outcomeIndex]

	player := s.proj.Player(ctx, s.sender.Sender())
	if player.EscrowAllowRaw == nil || player.EscrowAllowRaw.Cmp(amountRaw) < 0 {
		return PlaceBetResult{}, fmt.Errorf("%w: escrow allowance too low, approve first", domain.ErrNotEligible)
	}

	signed, err := s.signer.SignBet(ctx, s.sender.Sender(), quote.MarketURL, outcomeIndex, amountRaw.String())
	if err != nil {
		return PlaceBetResult{}, err
	}

	// Record before submitting so the receipt survives even if the engine
	// dies mid-transaction. A revert leaves an orphaned open record.
	betID, err := s.ledger.RecordBet(ctx, ledger.NewBet{
		MarketURL:       quote.MarketURL,
		MarketTitle:     quote.Title,
		OutcomeIndex:    outcomeIndex,
		OutcomeLabel:    outcome.Label,
		EntryPriceCents: outcome.PriceCents,
		Amount:          amount,
	})
	if err != nil {
		return PlaceBetResult{}, err
	}

	res, err := s.sender.PlaceBet(ctx, signed)
	if err != nil {
		s.log.Warn("bet transaction failed, local record kept", "betId", betID, "error", err)
		return PlaceBetResult{BetID: betID}, err
	}

	s.log.Info("bet placed", "betId", betID, "market", quote.Title, "outcome", outcome.Label, "hash", res.Hash)
	if s.notifier != nil {
		s.notifier.BetPlaced(ctx, quote.Title, outcome.Label, amount)
	}
	return PlaceBetResult{BetID: betID, Tx: res}, nil
}

// CloseBet closes a ledger record with a best-effort price snapshot.
func (s *BetService) CloseBet(ctx context.Context, id string) (domain.BetRecord, error) {
	rec, err := s.ledger.CloseBet(ctx, id)
	if err != nil {
		return rec, err
	}
	if s.notifier != nil {
		s.notifier.BetClosed(ctx, rec)
	}
	return rec, nil
}
