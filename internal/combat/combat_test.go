package combat

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tokens(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil))
}

func TestDeterministicLoss(t *testing.T) {
	d := NewDeterministic(14, 10)

	assert.Zero(t, d.Loss(big.NewInt(0)).Sign())

	// 1 token garrison costs 1.4 tokens
	want := new(big.Int).Mul(big.NewInt(14), new(big.Int).Exp(big.NewInt(10), big.NewInt(17), nil))
	assert.Zero(t, d.Loss(tokens(1)).Cmp(want))

	// floor division, no rounding up
	assert.Zero(t, d.Loss(big.NewInt(1)).Cmp(big.NewInt(1)))
	assert.Zero(t, d.Loss(big.NewInt(7)).Cmp(big.NewInt(9)))
}

func TestDeterministicLossMonotonic(t *testing.T) {
	d := NewDeterministic(14, 10)

	prev := big.NewInt(-1)
	for _, g := range []int64{0, 1, 5, 10, 100, 1000} {
		loss := d.Loss(tokens(g))
		require.Positive(t, loss.Cmp(prev))
		prev = loss
	}
}

func TestDeterministicPreview(t *testing.T) {
	d := NewDeterministic(14, 10)

	p := d.Preview(tokens(54), tokens(20))
	assert.True(t, p.Captured)
	assert.Zero(t, p.AttackerLoss.Cmp(tokens(28)))
	assert.Zero(t, p.Survivors.Cmp(tokens(26)))
}

func TestDeterministicPreviewClampsSurvivors(t *testing.T) {
	d := NewDeterministic(14, 10)

	p := d.Preview(tokens(1), tokens(20))
	assert.Zero(t, p.Survivors.Sign())
}

func TestDicePreviewBounds(t *testing.T) {
	d := NewDice(1)

	for i := 0; i < 100; i++ {
		p := d.Preview(tokens(50), tokens(20))
		require.LessOrEqual(t, p.AttackerLoss.Cmp(tokens(50)), 0)
		require.GreaterOrEqual(t, p.AttackerLoss.Sign(), 0)
		require.GreaterOrEqual(t, p.Survivors.Sign(), 0)
	}
}
