package projector

import (
	"context"
	"errors"
	"log/slog"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/predictrisk/engine/internal/domain"
	"github.com/predictrisk/engine/internal/worldmap"
)

type fakeReader struct {
	mu sync.Mutex

	exists     map[int]bool
	owners     map[int]string
	garrisons  map[int]*big.Int
	protection map[int]time.Time
	count      int

	failOwner    bool
	failGarrison bool

	garrisonDelay time.Duration
}

func newFakeReader() *fakeReader {
	return &fakeReader{
		exists:     make(map[int]bool),
		owners:     make(map[int]string),
		garrisons:  make(map[int]*big.Int),
		protection: make(map[int]time.Time),
		count:      10,
	}
}

func (f *fakeReader) TerritoryExists(ctx context.Context, id int) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.exists[id], nil
}

func (f *fakeReader) TerritoryOwner(ctx context.Context, id int) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failOwner {
		return "", errors.New("rpc: connection refused")
	}
	return f.owners[id], nil
}

func (f *fakeReader) TerritoryGarrison(ctx context.Context, id int) (*big.Int, error) {
	if f.garrisonDelay > 0 {
		time.Sleep(f.garrisonDelay)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failGarrison {
		return nil, errors.New("rpc: connection refused")
	}
	if g, ok := f.garrisons[id]; ok {
		return new(big.Int).Set(g), nil
	}
	return new(big.Int), nil
}

func (f *fakeReader) SpawnProtectionUntil(ctx context.Context, id int) (time.Time, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.protection[id], nil
}

func (f *fakeReader) TerritoryCount(ctx context.Context) (int, error) {
	return f.count, nil
}

func (f *fakeReader) ArmyBalance(ctx context.Context, addr string) (*big.Int, error) {
	return tokens(100), nil
}

func (f *fakeReader) ArmyAllowance(ctx context.Context, owner, spender string) (*big.Int, error) {
	return tokens(25), nil
}

func (f *fakeReader) LastClaim(ctx context.Context, addr string) (time.Time, error) {
	return time.Unix(1700000000, 0), nil
}

func tokens(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), domain.BaseUnit())
}

func discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func newTestProjector(f *fakeReader) *Projector {
	return New(f, worldmap.Classic(), "0xgame", "0xescrow", discard())
}

func TestRefreshAssemblesView(t *testing.T) {
	f := newFakeReader()
	f.exists[4] = true
	f.owners[4] = "0xABCD000000000000000000000000000000000001"
	f.garrisons[4] = tokens(30)
	f.protection[4] = time.Now().Add(time.Hour)

	p := newTestProjector(f)
	v := p.Refresh(context.Background(), 4)

	assert.True(t, v.Exists)
	assert.Equal(t, "0xabcd000000000000000000000000000000000001", v.Owner)
	assert.Equal(t, "30", v.Garrison)
	assert.True(t, v.ProtectedAt(time.Now()))
	assert.False(t, v.UpdatedAt.IsZero())

	cached, ok := p.View(4)
	require.True(t, ok)
	assert.Equal(t, v.Owner, cached.Owner)
}

func TestRefreshToleratesPartialFailure(t *testing.T) {
	f := newFakeReader()
	f.exists[2] = true
	f.garrisons[2] = tokens(5)
	f.failOwner = true

	p := newTestProjector(f)
	v := p.Refresh(context.Background(), 2)

	// the failed read degrades to its zero value, the rest still land
	assert.True(t, v.Exists)
	assert.Empty(t, v.Owner)
	assert.Equal(t, "5", v.Garrison)
}

func TestRefreshAllFailuresYieldEmptyView(t *testing.T) {
	f := newFakeReader()
	f.failOwner = true
	f.failGarrison = true

	p := newTestProjector(f)
	v := p.Refresh(context.Background(), 7)

	assert.False(t, v.Exists)
	assert.Empty(t, v.Owner)
	require.NotNil(t, v.GarrisonRaw)
	assert.Zero(t, v.GarrisonRaw.Sign())
}

func TestViewUnknownTerritory(t *testing.T) {
	p := newTestProjector(newFakeReader())

	v, ok := p.View(3)
	assert.False(t, ok)
	assert.Equal(t, 3, v.ID)
	assert.NotNil(t, v.GarrisonRaw)
}

func TestStaleRefreshDiscarded(t *testing.T) {
	f := newFakeReader()
	f.garrisons[1] = tokens(10)
	f.garrisonDelay = 50 * time.Millisecond

	p := newTestProjector(f)

	done := make(chan struct{})
	go func() {
		p.Refresh(context.Background(), 1)
		close(done)
	}()
	time.Sleep(10 * time.Millisecond)

	// second refresh starts later, sees the updated garrison, and must win
	// even though the first one finishes after it
	f.mu.Lock()
	f.garrisons[1] = tokens(99)
	f.garrisonDelay = 0
	f.mu.Unlock()

	p.Refresh(context.Background(), 1)
	<-done

	v, ok := p.View(1)
	require.True(t, ok)
	assert.Equal(t, "99", v.Garrison)
}

func TestRefreshAll(t *testing.T) {
	f := newFakeReader()
	for id := 0; id < 10; id++ {
		f.exists[id] = id%2 == 0
	}

	p := newTestProjector(f)
	require.NoError(t, p.RefreshAll(context.Background()))

	for id := 0; id < 10; id++ {
		v, ok := p.View(id)
		require.True(t, ok, "territory %d not refreshed", id)
		assert.Equal(t, id%2 == 0, v.Exists)
	}
}

func TestPlayerProjection(t *testing.T) {
	p := newTestProjector(newFakeReader())

	st := p.Player(context.Background(), "0xabc")
	assert.Equal(t, "100", st.Balance)
	assert.Zero(t, st.AllowanceRaw.Cmp(tokens(25)))
	assert.Zero(t, st.EscrowAllowRaw.Cmp(tokens(25)))
	assert.Equal(t, time.Unix(1700000000, 0), st.LastClaim)

	assert.False(t, st.CanClaimAt(st.LastClaim.Add(23*time.Hour), 24*time.Hour))
	assert.True(t, st.CanClaimAt(st.LastClaim.Add(24*time.Hour), 24*time.Hour))
}

func TestScanOwned(t *testing.T) {
	f := newFakeReader()
	f.exists[0] = true
	f.owners[0] = "0xAA00000000000000000000000000000000000001"
	f.garrisons[0] = tokens(12)
	f.exists[4] = true
	f.owners[4] = "0xaa00000000000000000000000000000000000001"
	f.garrisons[4] = tokens(7)
	f.exists[5] = true
	f.owners[5] = "0xBB00000000000000000000000000000000000002"

	p := newTestProjector(f)
	require.NoError(t, p.RefreshAll(context.Background()))

	owned := p.ScanOwned("0xAA00000000000000000000000000000000000001")
	require.Len(t, owned, 2)

	byID := map[int]domain.OwnedTerritory{}
	for _, o := range owned {
		byID[o.ID] = o
	}
	assert.Equal(t, "Heartland", byID[4].Name)
	assert.Equal(t, "7", byID[4].Garrison)
	assert.Equal(t, "Northland", byID[0].Name)
}
