package app

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/predictrisk/engine/internal/combat"
	"github.com/predictrisk/engine/internal/domain"
	"github.com/predictrisk/engine/internal/worldmap"
)

const (
	demoActor = "0x1000000000000000000000000000000000000001"
	demoRival = "0x2000000000000000000000000000000000000002"
)

// demoWorld is the offline stand-in for the chain: an in-memory board that
// serves both the read and write surfaces so demo mode is fully playable
// without an RPC endpoint. Combat resolves through the dice previewer, which
// only exists here.
type demoWorld struct {
	mu        sync.Mutex
	count     int
	owners    map[int]string
	garrisons map[int]*big.Int
	protected map[int]time.Time
	balance   *big.Int
	lastClaim time.Time
	dice      *combat.Dice
	minStay   *big.Int
	txSeq     int
}

var (
	_ domain.ChainReader = (*demoWorld)(nil)
	_ domain.TxSender    = (*demoWorld)(nil)
)

// newDemoWorld seeds a board: the player holds one territory, a rival holds
// two, one of them spawn protected so the rule shows up in play.
func newDemoWorld(graph *worldmap.Graph, dice *combat.Dice, minStay *big.Int) *demoWorld {
	w := &demoWorld{
		count:     graph.Len(),
		owners:    map[int]string{},
		garrisons: map[int]*big.Int{},
		protected: map[int]time.Time{},
		balance:   domain.Tokens(500),
		dice:      dice,
		minStay:   minStay,
	}

	w.owners[0] = demoActor
	w.garrisons[0] = domain.Tokens(60)

	w.owners[4] = demoRival
	w.garrisons[4] = domain.Tokens(20)

	w.owners[7] = demoRival
	w.garrisons[7] = domain.Tokens(35)
	w.protected[7] = time.Now().Add(10 * time.Minute)

	return w
}

func (w *demoWorld) TerritoryExists(ctx context.Context, id int) (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, ok := w.owners[id]
	return ok, nil
}

func (w *demoWorld) TerritoryOwner(ctx context.Context, id int) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	owner, ok := w.owners[id]
	if !ok {
		return "", domain.ErrNotFound
	}
	return owner, nil
}

func (w *demoWorld) TerritoryGarrison(ctx context.Context, id int) (*big.Int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if g, ok := w.garrisons[id]; ok {
		return new(big.Int).Set(g), nil
	}
	return new(big.Int), nil
}

func (w *demoWorld) SpawnProtectionUntil(ctx context.Context, id int) (time.Time, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.protected[id], nil
}

func (w *demoWorld) TerritoryCount(ctx context.Context) (int, error) {
	return w.count, nil
}

func (w *demoWorld) ArmyBalance(ctx context.Context, addr string) (*big.Int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return new(big.Int).Set(w.balance), nil
}

func (w *demoWorld) ArmyAllowance(ctx context.Context, owner, spender string) (*big.Int, error) {
	// approvals are a no-op offline
	return domain.Tokens(1_000_000), nil
}

func (w *demoWorld) LastClaim(ctx context.Context, addr string) (time.Time, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastClaim, nil
}

func (w *demoWorld) Station(ctx context.Context, id int, amountRaw *big.Int) (domain.TxResult, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.balance.Cmp(amountRaw) < 0 {
		return domain.TxResult{}, fmt.Errorf("demo: insufficient balance")
	}
	w.balance.Sub(w.balance, amountRaw)
	w.garrisons[id] = new(big.Int).Add(w.garrison(id), amountRaw)
	return w.mined(), nil
}

func (w *demoWorld) Withdraw(ctx context.Context, id int, amountRaw *big.Int) (domain.TxResult, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	g := w.garrison(id)
	if g.Cmp(amountRaw) < 0 {
		return domain.TxResult{}, fmt.Errorf("demo: garrison too small")
	}
	w.garrisons[id] = new(big.Int).Sub(g, amountRaw)
	w.balance.Add(w.balance, amountRaw)
	return w.mined(), nil
}

func (w *demoWorld) Attack(ctx context.Context, from, to int, amountRaw *big.Int) (domain.TxResult, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	source := w.garrison(from)
	if source.Cmp(amountRaw) < 0 {
		return domain.TxResult{}, fmt.Errorf("demo: attacking force exceeds garrison")
	}
	w.garrisons[from] = new(big.Int).Sub(source, amountRaw)

	p := w.dice.Preview(amountRaw, w.garrison(to))
	if p.Captured {
		w.owners[to] = demoActor
		w.garrisons[to] = new(big.Int).Set(p.Survivors)
		delete(w.protected, to)
	} else {
		// survivors retreat home
		w.garrisons[from].Add(w.garrisons[from], p.Survivors)
	}
	return w.mined(), nil
}

func (w *demoWorld) ApproveGame(ctx context.Context, amountRaw *big.Int) (domain.TxResult, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.mined(), nil
}

func (w *demoWorld) ApproveEscrow(ctx context.Context, amountRaw *big.Int) (domain.TxResult, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.mined(), nil
}

func (w *demoWorld) ClaimDailyArmies(ctx context.Context) (domain.TxResult, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.balance.Add(w.balance, domain.Tokens(100))
	w.lastClaim = time.Now()
	return w.mined(), nil
}

func (w *demoWorld) ClaimInitialTerritory(ctx context.Context, id int) (domain.TxResult, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, taken := w.owners[id]; taken {
		return domain.TxResult{}, fmt.Errorf("demo: territory already claimed")
	}
	w.owners[id] = demoActor
	w.garrisons[id] = new(big.Int).Set(w.minStay)
	w.protected[id] = time.Now().Add(10 * time.Minute)
	return w.mined(), nil
}

func (w *demoWorld) PlaceBet(ctx context.Context, bet domain.SignedBet) (domain.TxResult, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.mined(), nil
}

func (w *demoWorld) Sender() string { return demoActor }

// garrison reads a garrison under the held lock, zero when absent.
func (w *demoWorld) garrison(id int) *big.Int {
	if g, ok := w.garrisons[id]; ok {
		return g
	}
	return new(big.Int)
}

// mined fabricates a confirmed receipt under the held lock.
func (w *demoWorld) mined() domain.TxResult {
	w.txSeq++
	return domain.TxResult{
		Hash:      fmt.Sprintf("0xdemo%064d", w.txSeq),
		Confirmed: true,
	}
}
