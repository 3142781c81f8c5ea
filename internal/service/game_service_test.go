package service

import (
	"context"
	"log/slog"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/predictrisk/engine/internal/config"
	"github.com/predictrisk/engine/internal/domain"
	"github.com/predictrisk/engine/internal/projector"
	"github.com/predictrisk/engine/internal/rules"
	"github.com/predictrisk/engine/internal/worldmap"
)

const actor = "0xaa00000000000000000000000000000000000001"

// fakeChain serves both the reader and sender sides for service tests.
type fakeChain struct {
	mu        sync.Mutex
	owners    map[int]string
	garrisons map[int]*big.Int
	exists    map[int]bool

	submitted []string
	blockTx   chan struct{}
}

func newFakeChain() *fakeChain {
	return &fakeChain{
		owners:    map[int]string{},
		garrisons: map[int]*big.Int{},
		exists:    map[int]bool{},
	}
}

func (f *fakeChain) TerritoryExists(ctx context.Context, id int) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.exists[id], nil
}

func (f *fakeChain) TerritoryOwner(ctx context.Context, id int) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.owners[id], nil
}

func (f *fakeChain) TerritoryGarrison(ctx context.Context, id int) (*big.Int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if g, ok := f.garrisons[id]; ok {
		return new(big.Int).Set(g), nil
	}
	return new(big.Int), nil
}

func (f *fakeChain) SpawnProtectionUntil(ctx context.Context, id int) (time.Time, error) {
	return time.Time{}, nil
}

func (f *fakeChain) TerritoryCount(ctx context.Context) (int, error) { return 10, nil }

func (f *fakeChain) ArmyBalance(ctx context.Context, addr string) (*big.Int, error) {
	return domain.Tokens(1000), nil
}

func (f *fakeChain) ArmyAllowance(ctx context.Context, owner, spender string) (*big.Int, error) {
	return domain.Tokens(1000), nil
}

func (f *fakeChain) LastClaim(ctx context.Context, addr string) (time.Time, error) {
	return time.Now().Add(-48 * time.Hour), nil
}

func (f *fakeChain) record(op string) (domain.TxResult, error) {
	if f.blockTx != nil {
		<-f.blockTx
	}
	f.mu.Lock()
	f.submitted = append(f.submitted, op)
	f.mu.Unlock()
	return domain.TxResult{Hash: "0xhash", Confirmed: true}, nil
}

func (f *fakeChain) Station(ctx context.Context, id int, amt *big.Int) (domain.TxResult, error) {
	return f.record("station")
}

func (f *fakeChain) Withdraw(ctx context.Context, id int, amt *big.Int) (domain.TxResult, error) {
	return f.record("withdraw")
}

func (f *fakeChain) Attack(ctx context.Context, from, to int, amt *big.Int) (domain.TxResult, error) {
	return f.record("attack")
}

func (f *fakeChain) ApproveGame(ctx context.Context, amt *big.Int) (domain.TxResult, error) {
	return f.record("approve-game")
}

func (f *fakeChain) ApproveEscrow(ctx context.Context, amt *big.Int) (domain.TxResult, error) {
	return f.record("approve-escrow")
}

func (f *fakeChain) ClaimDailyArmies(ctx context.Context) (domain.TxResult, error) {
	return f.record("claim-daily")
}

func (f *fakeChain) ClaimInitialTerritory(ctx context.Context, id int) (domain.TxResult, error) {
	return f.record("claim-initial")
}

func (f *fakeChain) PlaceBet(ctx context.Context, bet domain.SignedBet) (domain.TxResult, error) {
	return f.record("place-bet")
}

func (f *fakeChain) Sender() string { return actor }

func newGameService(t *testing.T, chain *fakeChain) *GameService {
	t.Helper()
	log := slog.New(slog.DiscardHandler)
	graph := worldmap.Classic()
	proj := projector.New(chain, graph, "0xgame", "0xescrow", log)
	engine := rules.NewEngine(config.Defaults().Rules)
	require.NoError(t, proj.RefreshAll(context.Background()))
	return NewGameService(proj, engine, engine.Previewer(), graph, chain, nil, 24*time.Hour, log)
}

func TestAttackSubmitsWhenEligible(t *testing.T) {
	chain := newFakeChain()
	chain.exists[0] = true
	chain.owners[0] = actor
	chain.garrisons[0] = domain.Tokens(50)

	svc := newGameService(t, chain)
	res, err := svc.Attack(context.Background(), 0, 4, domain.Tokens(15))
	require.NoError(t, err)
	assert.True(t, res.Confirmed)
	assert.Equal(t, []string{"attack"}, chain.submitted)
}

func TestAttackRejectedLocally(t *testing.T) {
	chain := newFakeChain()
	chain.exists[0] = true
	chain.owners[0] = actor
	chain.garrisons[0] = domain.Tokens(50)
	chain.exists[4] = true
	chain.garrisons[4] = domain.Tokens(20)

	svc := newGameService(t, chain)

	// the boundary scenario: rules 5 and 6 pass but rule 4 rejects
	_, err := svc.Attack(context.Background(), 0, 4, domain.Tokens(54))
	require.ErrorIs(t, err, domain.ErrNotEligible)
	assert.Contains(t, err.Error(), "Leave at least 10 armies")
	assert.Empty(t, chain.submitted, "nothing reaches the chain")
}

func TestStationRejectsNonOwner(t *testing.T) {
	chain := newFakeChain()
	chain.exists[0] = true
	chain.owners[0] = "0xsomeoneelse0000000000000000000000000001"

	svc := newGameService(t, chain)
	_, err := svc.Station(context.Background(), 0, domain.Tokens(5))
	assert.ErrorIs(t, err, domain.ErrNotEligible)
}

func TestPendingGuard(t *testing.T) {
	chain := newFakeChain()
	chain.exists[0] = true
	chain.owners[0] = actor
	chain.garrisons[0] = domain.Tokens(50)
	chain.blockTx = make(chan struct{})

	svc := newGameService(t, chain)

	errc := make(chan error, 1)
	go func() {
		_, err := svc.Station(context.Background(), 0, domain.Tokens(5))
		errc <- err
	}()

	// wait for the first submission to grab the pending slot
	time.Sleep(100 * time.Millisecond)

	_, err := svc.Withdraw(context.Background(), 0, domain.Tokens(1))
	assert.ErrorIs(t, err, domain.ErrTxPending)

	close(chain.blockTx)
	require.NoError(t, <-errc)
}

func TestClaimDailyCooldown(t *testing.T) {
	chain := newFakeChain()
	svc := newGameService(t, chain)

	// last claim 48h ago, cooldown 24h
	_, err := svc.ClaimDaily(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"claim-daily"}, chain.submitted)
}

func TestClaimInitialRejectsClaimed(t *testing.T) {
	chain := newFakeChain()
	chain.exists[3] = true

	svc := newGameService(t, chain)
	_, err := svc.ClaimInitial(context.Background(), 3)
	assert.ErrorIs(t, err, domain.ErrNotEligible)
}

func TestNoWallet(t *testing.T) {
	chain := newFakeChain()
	log := slog.New(slog.DiscardHandler)
	graph := worldmap.Classic()
	proj := projector.New(chain, graph, "0xgame", "0xescrow", log)
	engine := rules.NewEngine(config.Defaults().Rules)
	svc := NewGameService(proj, engine, engine.Previewer(), graph, nil, nil, 24*time.Hour, log)

	_, err := svc.Station(context.Background(), 0, domain.Tokens(5))
	assert.ErrorIs(t, err, domain.ErrNoWallet)
}

func TestPreviewAttack(t *testing.T) {
	chain := newFakeChain()
	chain.exists[0] = true
	chain.owners[0] = actor
	chain.garrisons[0] = domain.Tokens(100)
	chain.exists[4] = true
	chain.garrisons[4] = domain.Tokens(20)

	svc := newGameService(t, chain)
	p := svc.PreviewAttack(context.Background(), 0, 4, domain.Tokens(60))

	assert.Equal(t, "28", p.Loss)
	assert.Equal(t, "32", p.Survivors)
	assert.True(t, p.Captured)
	assert.Equal(t, "54", p.MinAmount)
	assert.Equal(t, "90", p.MaxAmount)
}
