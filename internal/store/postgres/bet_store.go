package postgres

import (
	"context"
	"fmt"

	"github.com/predictrisk/engine/internal/domain"
)

// BetStore implements domain.BetStore on PostgreSQL. The ledger contract is
// a whole-list replace, so Replace rewrites the table in one transaction;
// the position column preserves newest-first ordering.
type BetStore struct {
	client *Client
}

var _ domain.BetStore = (*BetStore)(nil)

// NewBetStore creates a BetStore backed by the given client.
func NewBetStore(client *Client) *BetStore {
	return &BetStore{client: client}
}

// List returns all records, newest first.
func (s *BetStore) List(ctx context.Context) ([]domain.BetRecord, error) {
	const q = `
		SELECT id, market_url, market_title, outcome_index, outcome_label,
		       entry_price_cents, amount, created_at, status,
		       closed_at, closed_price_cents
		FROM bets
		ORDER BY position ASC`

	rows, err := s.client.pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("postgres: list bets: %w", err)
	}
	defer rows.Close()

	var bets []domain.BetRecord
	for rows.Next() {
		var rec domain.BetRecord
		if err := rows.Scan(
			&rec.ID, &rec.MarketURL, &rec.MarketTitle, &rec.OutcomeIndex,
			&rec.OutcomeLabel, &rec.EntryPriceCents, &rec.Amount,
			&rec.CreatedAt, &rec.Status, &rec.ClosedAt, &rec.ClosedPriceCents,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan bet: %w", err)
		}
		bets = append(bets, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list bets: %w", err)
	}
	return bets, nil
}

// Replace rewrites the complete ledger in one transaction.
func (s *BetStore) Replace(ctx context.Context, bets []domain.BetRecord) error {
	tx, err := s.client.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres: begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "DELETE FROM bets"); err != nil {
		return fmt.Errorf("postgres: clear bets: %w", err)
	}

	const q = `
		INSERT INTO bets (
			id, market_url, market_title, outcome_index, outcome_label,
			entry_price_cents, amount, created_at, status,
			closed_at, closed_price_cents, position
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	for i, rec := range bets {
		if _, err := tx.Exec(ctx, q,
			rec.ID, rec.MarketURL, rec.MarketTitle, rec.OutcomeIndex,
			rec.OutcomeLabel, rec.EntryPriceCents, rec.Amount,
			rec.CreatedAt, rec.Status, rec.ClosedAt, rec.ClosedPriceCents, i,
		); err != nil {
			return fmt.Errorf("postgres: insert bet %s: %w", rec.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("postgres: commit: %w", err)
	}
	return nil
}
