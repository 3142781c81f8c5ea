package rules

import (
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/predictrisk/engine/internal/config"
	"github.com/predictrisk/engine/internal/domain"
)

const (
	owner = "0xAbCd000000000000000000000000000000000001"
	rival = "0x1111000000000000000000000000000000000002"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	return NewEngine(config.Defaults().Rules)
}

func tokens(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), domain.BaseUnit())
}

func view(id int, garrisonTokens int64) domain.TerritoryView {
	v := domain.EmptyTerritoryView(id)
	v.Exists = true
	v.Owner = "0xabcd000000000000000000000000000000000001"
	v.GarrisonRaw = tokens(garrisonTokens)
	return v
}

func TestCheckStation(t *testing.T) {
	e := newTestEngine(t)
	src := view(0, 50)

	d := e.CheckStation(src, owner, tokens(5), tokens(100))
	assert.True(t, d.OK)
	assert.False(t, d.NeedsApproval)

	// allowance below the amount flips the approval gate, amount > allowance
	d = e.CheckStation(src, owner, tokens(5), tokens(4))
	assert.True(t, d.OK)
	assert.True(t, d.NeedsApproval)

	// amount == allowance does not need approval
	d = e.CheckStation(src, owner, tokens(5), tokens(5))
	assert.True(t, d.OK)
	assert.False(t, d.NeedsApproval)

	d = e.CheckStation(src, rival, tokens(5), tokens(100))
	assert.False(t, d.OK)
	assert.Equal(t, "You do not own this territory.", d.Reason)

	d = e.CheckStation(src, owner, big.NewInt(0), tokens(100))
	assert.False(t, d.OK)
}

func TestCheckStationOwnerCaseInsensitive(t *testing.T) {
	e := newTestEngine(t)
	src := view(0, 50)

	d := e.CheckStation(src, "0xABCD000000000000000000000000000000000001", tokens(1), tokens(1))
	assert.True(t, d.OK)
}

func TestCheckWithdraw(t *testing.T) {
	e := newTestEngine(t)
	src := view(0, 50)

	assert.True(t, e.CheckWithdraw(src, owner, tokens(5)).OK)
	assert.False(t, e.CheckWithdraw(src, rival, tokens(5)).OK)
	assert.False(t, e.CheckWithdraw(src, owner, big.NewInt(-1)).OK)

	// no local stationed-balance check, the contract enforces it
	assert.True(t, e.CheckWithdraw(src, owner, tokens(500)).OK)
}

func TestCheckAttackRuleOrder(t *testing.T) {
	e := newTestEngine(t)
	now := time.Now()
	src := view(0, 50)

	// rule 1: no target
	d := e.CheckAttack(src, nil, tokens(15), now)
	require.False(t, d.OK)
	assert.Equal(t, "Select a target territory.", d.Reason)

	// rule 2: protection beats every later rule, even absurd amounts
	tgt := view(1, 20)
	tgt.SpawnProtectedUntil = now.Add(time.Hour)
	for _, amt := range []int64{0, 10, 1000} {
		d = e.CheckAttack(src, &tgt, tokens(amt), now)
		require.False(t, d.OK)
		assert.Equal(t, "Target is protected.", d.Reason)
	}

	// rule 3: below the 10-token minimum
	tgt = view(1, 20)
	d = e.CheckAttack(src, &tgt, tokens(9), now)
	require.False(t, d.OK)
	assert.Equal(t, "Attack with at least 10 armies.", d.Reason)

	// rule 4: cannot strip the source below the minimum
	d = e.CheckAttack(src, &tgt, tokens(41), now)
	require.False(t, d.OK)
	assert.Equal(t, "Leave at least 10 armies on your territory.", d.Reason)

	// rule 5: ratio against the defender
	big50 := view(0, 500)
	d = e.CheckAttack(big50, &tgt, tokens(53), now)
	require.False(t, d.OK)
	assert.Equal(t, "Need 2.7x armies vs defender.", d.Reason)

	// all pass
	d = e.CheckAttack(big50, &tgt, tokens(54), now)
	assert.True(t, d.OK)
}

func TestCheckAttackExpiredProtection(t *testing.T) {
	e := newTestEngine(t)
	now := time.Now()
	src := view(0, 500)
	tgt := view(1, 20)
	tgt.SpawnProtectedUntil = now.Add(-time.Second)

	d := e.CheckAttack(src, &tgt, tokens(54), now)
	assert.True(t, d.OK)
}

func TestCheckAttackUnclaimedTargetSkipsDefenderRules(t *testing.T) {
	e := newTestEngine(t)
	now := time.Now()
	src := view(0, 50)
	tgt := domain.EmptyTerritoryView(1)

	// 15 >= 10, remaining 35 >= 10, no defender rules
	d := e.CheckAttack(src, &tgt, tokens(15), now)
	assert.True(t, d.OK)
}

func TestCheckAttackBoundaryScenario(t *testing.T) {
	// source 50, defender 20, amount 54: ratio 540 >= 540 passes at
	// equality, conquest floor 28+10=38 < 54 passes, but the source cannot
	// send more than it holds minus the minimum.
	e := newTestEngine(t)
	now := time.Now()
	src := view(0, 50)
	tgt := view(1, 20)

	d := e.CheckAttack(src, &tgt, tokens(54), now)
	require.False(t, d.OK)
	assert.Equal(t, "Leave at least 10 armies on your territory.", d.Reason)
}

func TestCheckAttackConquestFloor(t *testing.T) {
	// defender 5: ratio needs 13.5 but the conquest floor needs
	// loss(5)+10 = 17, which binds.
	e := newTestEngine(t)
	now := time.Now()
	src := view(0, 500)
	tgt := view(1, 5)

	d := e.CheckAttack(src, &tgt, tokens(14), now)
	require.False(t, d.OK)
	assert.Equal(t, "Attack too small to leave 10 on conquered territory.", d.Reason)

	d = e.CheckAttack(src, &tgt, tokens(17), now)
	assert.True(t, d.OK)
}

func TestAttackWindow(t *testing.T) {
	e := newTestEngine(t)

	src := view(0, 100)
	tgt := view(1, 20)

	lower, upper := e.AttackWindow(src, tgt)
	assert.Zero(t, lower.Cmp(tokens(54)), "lower = ceil(20*2.7)")
	assert.Zero(t, upper.Cmp(tokens(90)), "upper = 100-10")

	// every amount inside the window passes, the edges outside fail
	now := time.Now()
	assert.True(t, e.CheckAttack(src, &tgt, lower, now).OK)
	assert.True(t, e.CheckAttack(src, &tgt, upper, now).OK)
	assert.False(t, e.CheckAttack(src, &tgt, new(big.Int).Sub(lower, big.NewInt(1)), now).OK)
	assert.False(t, e.CheckAttack(src, &tgt, new(big.Int).Add(upper, big.NewInt(1)), now).OK)
}

func TestAttackWindowUnclaimedTarget(t *testing.T) {
	e := newTestEngine(t)

	lower, upper := e.AttackWindow(view(0, 50), domain.EmptyTerritoryView(1))
	assert.Zero(t, lower.Cmp(tokens(10)))
	assert.Zero(t, upper.Cmp(tokens(40)))
}

func TestAttackWindowEmptyWhenSourceTooSmall(t *testing.T) {
	e := newTestEngine(t)

	lower, upper := e.AttackWindow(view(0, 15), view(1, 20))
	assert.Positive(t, lower.Cmp(upper), "no eligible amount")
}
