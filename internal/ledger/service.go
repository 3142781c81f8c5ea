// Package ledger tracks the player's bet receipts locally. The ledger is a
// convenience mirror of on-chain escrow state: records are created
// optimistically when a bet is submitted and never reconciled beyond
// periodic price refreshes.
package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/predictrisk/engine/internal/domain"
)

// NewBet is the input for recording a freshly placed bet.
type NewBet struct {
	MarketURL       string
	MarketTitle     string
	OutcomeIndex    int
	OutcomeLabel    string
	EntryPriceCents int
	Amount          string
}

// Service owns the bet ledger lifecycle: record, remove, close, and
// periodic quote refresh. The quote cache is optional; a nil cache means
// every snapshot goes to the market data proxy.
type Service struct {
	store    domain.BetStore
	markets  domain.MarketData
	cache    domain.QuoteCache
	quoteTTL time.Duration
	log      *slog.Logger

	mu     sync.RWMutex
	prices map[string]int

	refreshSeq atomic.Uint64
}

// NewService wires a ledger service.
func NewService(store domain.BetStore, markets domain.MarketData, cache domain.QuoteCache, quoteTTL time.Duration, log *slog.Logger) *Service {
	return &Service{
		store:    store,
		markets:  markets,
		cache:    cache,
		quoteTTL: quoteTTL,
		log:      log.With("component", "ledger"),
		prices:   make(map[string]int),
	}
}

// List returns all records, newest first.
func (s *Service) List(ctx context.Context) ([]domain.BetRecord, error) {
	return s.store.List(ctx)
}

// RecordBet appends a new open record and returns its id. The record is
// prepended so the ledger stays newest first.
func (s *Service) RecordBet(ctx context.Context, bet NewBet) (string, error) {
	current, err := s.store.List(ctx)
	if err != nil {
		return "", fmt.Errorf("ledger: list: %w", err)
	}

	rec := domain.BetRecord{
		ID:              uuid.NewString(),
		MarketURL:       bet.MarketURL,
		MarketTitle:     bet.MarketTitle,
		OutcomeIndex:    bet.OutcomeIndex,
		OutcomeLabel:    bet.OutcomeLabel,
		EntryPriceCents: bet.EntryPriceCents,
		Amount:          bet.Amount,
		CreatedAt:       time.Now(),
		Status:          domain.BetOpen,
	}

	next := append([]domain.BetRecord{rec}, current...)
	if err := s.store.Replace(ctx, next); err != nil {
		return "", fmt.Errorf("ledger: persist: %w", err)
	}

	s.log.Info("bet recorded", "id", rec.ID, "market", rec.MarketTitle, "outcome", rec.OutcomeLabel)
	return rec.ID, nil
}

// RemoveBet deletes a record entirely. This is a hide operation, not a
// status change.
func (s *Service) RemoveBet(ctx context.Context, id string) error {
	current, err := s.store.List(ctx)
	if err != nil {
		return fmt.Errorf("ledger: list: %w", err)
	}

	next := make([]domain.BetRecord, 0, len(current))
	found := false
	for _, rec := range current {
		if rec.ID == id {
			found = true
			continue
		}
		next = append(next, rec)
	}
	if !found {
		return fmt.Errorf("ledger: %w: bet %s", domain.ErrNotFound, id)
	}
	return s.store.Replace(ctx, next)
}

// CloseBet transitions an open record to closed, stamping the close time and
// a best-effort price snapshot. A failed snapshot still closes the bet; the
// price just stays absent. Closing an already-closed record is a no-op.
func (s *Service) CloseBet(ctx context.Context, id string) (domain.BetRecord, error) {
	current, err := s.store.List(ctx)
	if err != nil {
		return domain.BetRecord{}, fmt.Errorf("ledger: list: %w", err)
	}

	for i, rec := range current {
		if rec.ID != id {
			continue
		}
		if rec.Status == domain.BetClosed {
			return rec, nil
		}

		now := time.Now()
		rec.Status = domain.BetClosed
		rec.ClosedAt = &now
		if cents, err := s.snapshot(ctx, rec.MarketURL, rec.OutcomeIndex); err == nil {
			rec.ClosedPriceCents = &cents
		} else {
			s.log.Warn("close snapshot failed, price omitted", "id", id, "error", err)
		}

		current[i] = rec
		if err := s.store.Replace(ctx, current); err != nil {
			return domain.BetRecord{}, fmt.Errorf("ledger: persist: %w", err)
		}
		return rec, nil
	}

	return domain.BetRecord{}, fmt.Errorf("ledger: %w: bet %s", domain.ErrNotFound, id)
}

// RefreshQuotes re-fetches the current price of every open bet. Results are
// published atomically; if a newer refresh started while this one was
// fetching, its results are discarded so prices never move backwards.
func (s *Service) RefreshQuotes(ctx context.Context) {
	ticket := s.refreshSeq.Add(1)

	bets, err := s.store.List(ctx)
	if err != nil {
		s.log.Warn("quote refresh: list failed", "error", err)
		return
	}

	prices := make(map[string]int)
	for _, rec := range bets {
		if rec.Status != domain.BetOpen {
			continue
		}
		cents, err := s.snapshot(ctx, rec.MarketURL, rec.OutcomeIndex)
		if err != nil {
			s.log.Debug("quote refresh failed", "id", rec.ID, "error", err)
			continue
		}
		prices[rec.ID] = cents
	}

	if s.refreshSeq.Load() != ticket {
		s.log.Debug("discarding stale quote refresh")
		return
	}

	s.mu.Lock()
	s.prices = prices
	s.mu.Unlock()
}

// CurrentPrice returns the latest refreshed price for an open bet.
func (s *Service) CurrentPrice(id string) (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cents, ok := s.prices[id]
	return cents, ok
}

// snapshot reads one outcome price, going through the cache when configured.
func (s *Service) snapshot(ctx context.Context, marketURL string, outcomeIndex int) (int, error) {
	if s.cache != nil {
		if cents, err := s.cache.GetSnapshot(ctx, marketURL, outcomeIndex); err == nil {
			return cents, nil
		}
	}

	cents, err := s.markets.Snapshot(ctx, marketURL, outcomeIndex)
	if err != nil {
		return 0, err
	}

	if s.cache != nil {
		if err := s.cache.SetSnapshot(ctx, marketURL, outcomeIndex, cents, s.quoteTTL); err != nil {
			s.log.Debug("quote cache write failed", "error", err)
		}
	}
	return cents, nil
}
