package ledger

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/predictrisk/engine/internal/domain"
)

type fakeMarkets struct {
	cents int
	err   error
	calls int
}

func (f *fakeMarkets) Resolve(ctx context.Context, marketURL string) (domain.MarketQuote, error) {
	return domain.MarketQuote{}, errors.New("not used")
}

func (f *fakeMarkets) Snapshot(ctx context.Context, marketURL string, outcomeIndex int) (int, error) {
	f.calls++
	return f.cents, f.err
}

func newTestService(t *testing.T, markets *fakeMarkets) *Service {
	t.Helper()
	store := NewFileStore(filepath.Join(t.TempDir(), "bets.json"), 50)
	return NewService(store, markets, nil, time.Minute, slog.New(slog.DiscardHandler))
}

func record(t *testing.T, s *Service) string {
	t.Helper()
	id, err := s.RecordBet(context.Background(), NewBet{
		MarketURL:       "https://polymarket.com/event/e/m",
		MarketTitle:     "Will it happen?",
		OutcomeIndex:    0,
		OutcomeLabel:    "Yes",
		EntryPriceCents: 42,
		Amount:          "5",
	})
	require.NoError(t, err)
	return id
}

func TestRecordBetNewestFirst(t *testing.T) {
	s := newTestService(t, &fakeMarkets{cents: 50})
	ctx := context.Background()

	first := record(t, s)
	second := record(t, s)

	bets, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, bets, 2)
	assert.Equal(t, second, bets[0].ID)
	assert.Equal(t, first, bets[1].ID)
	assert.Equal(t, domain.BetOpen, bets[0].Status)
	assert.NotEqual(t, first, second)
}

func TestFileStoreCapsRecords(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "bets.json"), 3)
	s := NewService(store, &fakeMarkets{}, nil, time.Minute, slog.New(slog.DiscardHandler))
	ctx := context.Background()

	var last string
	for i := 0; i < 5; i++ {
		last = record(t, s)
	}

	bets, err := s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, bets, 3)
	assert.Equal(t, last, bets[0].ID, "oldest records fall off the end")
}

func TestRemoveBet(t *testing.T) {
	s := newTestService(t, &fakeMarkets{})
	ctx := context.Background()

	id := record(t, s)
	keep := record(t, s)

	require.NoError(t, s.RemoveBet(ctx, id))

	bets, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, bets, 1)
	assert.Equal(t, keep, bets[0].ID)

	assert.ErrorIs(t, s.RemoveBet(ctx, "missing"), domain.ErrNotFound)
}

func TestCloseBetStampsSnapshot(t *testing.T) {
	s := newTestService(t, &fakeMarkets{cents: 61})
	ctx := context.Background()

	id := record(t, s)
	rec, err := s.CloseBet(ctx, id)
	require.NoError(t, err)

	assert.Equal(t, domain.BetClosed, rec.Status)
	require.NotNil(t, rec.ClosedAt)
	require.NotNil(t, rec.ClosedPriceCents)
	assert.Equal(t, 61, *rec.ClosedPriceCents)

	// persisted too
	bets, err := s.List(ctx)
	require.NoError(t, err)
	require.NotNil(t, bets[0].ClosedPriceCents)
}

func TestCloseBetSnapshotFailureStillCloses(t *testing.T) {
	s := newTestService(t, &fakeMarkets{err: errors.New("proxy down")})
	ctx := context.Background()

	id := record(t, s)
	rec, err := s.CloseBet(ctx, id)
	require.NoError(t, err)

	assert.Equal(t, domain.BetClosed, rec.Status)
	assert.NotNil(t, rec.ClosedAt)
	assert.Nil(t, rec.ClosedPriceCents, "absent price, never fabricated")
}

func TestCloseBetIdempotent(t *testing.T) {
	markets := &fakeMarkets{cents: 70}
	s := newTestService(t, markets)
	ctx := context.Background()

	id := record(t, s)
	first, err := s.CloseBet(ctx, id)
	require.NoError(t, err)
	callsAfterFirst := markets.calls

	second, err := s.CloseBet(ctx, id)
	require.NoError(t, err)

	require.NotNil(t, second.ClosedAt)
	assert.True(t, first.ClosedAt.Equal(*second.ClosedAt), "second close is a no-op")
	assert.Equal(t, callsAfterFirst, markets.calls, "no second snapshot fetch")
}

func TestCloseBetUnknownID(t *testing.T) {
	s := newTestService(t, &fakeMarkets{})
	_, err := s.CloseBet(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRefreshQuotes(t *testing.T) {
	markets := &fakeMarkets{cents: 33}
	s := newTestService(t, markets)
	ctx := context.Background()

	open := record(t, s)
	closed := record(t, s)
	_, err := s.CloseBet(ctx, closed)
	require.NoError(t, err)

	s.RefreshQuotes(ctx)

	cents, ok := s.CurrentPrice(open)
	require.True(t, ok)
	assert.Equal(t, 33, cents)

	_, ok = s.CurrentPrice(closed)
	assert.False(t, ok, "closed bets are not refreshed")
}

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bets.json")
	ctx := context.Background()

	store := NewFileStore(path, 50)
	now := time.Now().Truncate(time.Second)
	cents := 12
	want := []domain.BetRecord{{
		ID:               "abc",
		MarketURL:        "u",
		MarketTitle:      "t",
		OutcomeLabel:     "Yes",
		EntryPriceCents:  42,
		Amount:           "1.5",
		CreatedAt:        now,
		Status:           domain.BetClosed,
		ClosedAt:         &now,
		ClosedPriceCents: &cents,
	}}
	require.NoError(t, store.Replace(ctx, want))

	// a fresh store reads the same records back
	got, err := NewFileStore(path, 50).List(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, want[0].ID, got[0].ID)
	assert.Equal(t, want[0].Status, got[0].Status)
	require.NotNil(t, got[0].ClosedPriceCents)
	assert.Equal(t, 12, *got[0].ClosedPriceCents)
	assert.True(t, want[0].CreatedAt.Equal(got[0].CreatedAt))
}

func TestFileStoreMissingFile(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "absent.json"), 50)
	bets, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, bets)
}
