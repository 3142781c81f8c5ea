// Package combat previews attack outcomes before a transaction is submitted.
// The deterministic previewer mirrors the contract's loss formula exactly;
// the dice previewer is a local toy for offline demos and never reaches a
// live chain.
package combat

import (
	"math/big"
	"math/rand"
)

// Preview is the projected result of an attack at current state.
type Preview struct {
	// AttackerLoss is the army amount the attacker forfeits, base units.
	AttackerLoss *big.Int
	// Survivors is the attacking force left to garrison the target.
	Survivors *big.Int
	// Captured reports whether the attack succeeds under this preview.
	Captured bool
}

// Previewer projects the outcome of sending force against a defending
// garrison. Amounts are base units and never mutated.
type Previewer interface {
	Preview(force, garrison *big.Int) Preview
}

// Deterministic previews with the contract's fixed-loss rule: the attacker
// loses garrison scaled by lossNum/lossDen, rounded down. An eligible attack
// always captures.
type Deterministic struct {
	lossNum *big.Int
	lossDen *big.Int
}

// NewDeterministic builds a previewer with the given loss ratio, typically
// 14/10.
func NewDeterministic(lossNum, lossDen int64) *Deterministic {
	return &Deterministic{
		lossNum: big.NewInt(lossNum),
		lossDen: big.NewInt(lossDen),
	}
}

// Loss returns the attacker's forfeit for a defending garrison: floor of
// garrison*lossNum/lossDen.
func (d *Deterministic) Loss(garrison *big.Int) *big.Int {
	loss := new(big.Int).Mul(garrison, d.lossNum)
	return loss.Quo(loss, d.lossDen)
}

func (d *Deterministic) Preview(force, garrison *big.Int) Preview {
	loss := d.Loss(garrison)
	survivors := new(big.Int).Sub(force, loss)
	if survivors.Sign() < 0 {
		survivors.SetInt64(0)
	}
	return Preview{
		AttackerLoss: loss,
		Survivors:    survivors,
		Captured:     true,
	}
}

// Dice is the offline demo previewer: each side rolls and the higher roll
// wins, with losses proportional to the roll spread. It exists so the demo
// mode has something to show without a chain behind it.
type Dice struct {
	rng *rand.Rand
}

// NewDice seeds a dice previewer. A fixed seed gives reproducible demos.
func NewDice(seed int64) *Dice {
	return &Dice{rng: rand.New(rand.NewSource(seed))}
}

func (d *Dice) Preview(force, garrison *big.Int) Preview {
	atk := d.rng.Intn(6) + 1
	def := d.rng.Intn(6) + 1

	if atk > def {
		loss := new(big.Int).Mul(garrison, big.NewInt(int64(def)))
		loss.Quo(loss, big.NewInt(6))
		survivors := new(big.Int).Sub(force, loss)
		if survivors.Sign() < 0 {
			survivors.SetInt64(0)
		}
		return Preview{AttackerLoss: loss, Survivors: survivors, Captured: true}
	}

	loss := new(big.Int).Mul(force, big.NewInt(int64(def)))
	loss.Quo(loss, big.NewInt(6))
	survivors := new(big.Int).Sub(force, loss)
	if survivors.Sign() < 0 {
		survivors.SetInt64(0)
	}
	return Preview{AttackerLoss: loss, Survivors: survivors, Captured: false}
}
