// Package rules is the local action-eligibility engine. It mirrors the game
// contract's revert conditions so a doomed transaction is rejected before it
// is ever signed. Best effort only: state can change between check and
// submission, so the contract stays the final authority.
package rules

import (
	"fmt"
	"math/big"
	"strconv"
	"time"

	"github.com/predictrisk/engine/internal/combat"
	"github.com/predictrisk/engine/internal/config"
	"github.com/predictrisk/engine/internal/domain"
)

// Engine evaluates station, withdraw, and attack eligibility against
// projected territory state. Thresholds come from configuration and must
// match the deployed contract.
type Engine struct {
	min      *big.Int
	ratioNum *big.Int
	ratioDen *big.Int
	preview  *combat.Deterministic

	msgTargetMissing string
	msgProtected     string
	msgMinAttack     string
	msgLeaveBehind   string
	msgRatio         string
	msgConquestFloor string
}

// NewEngine builds an engine from the rule thresholds. The rejection
// messages are fixed per rule and rendered from the configured values.
func NewEngine(cfg config.RulesConfig) *Engine {
	min := new(big.Int).Mul(big.NewInt(cfg.MinGarrisonTokens), domain.BaseUnit())
	ratio := strconv.FormatFloat(float64(cfg.AttackRatioNum)/float64(cfg.AttackRatioDen), 'f', -1, 64)

	return &Engine{
		min:      min,
		ratioNum: big.NewInt(cfg.AttackRatioNum),
		ratioDen: big.NewInt(cfg.AttackRatioDen),
		preview:  combat.NewDeterministic(cfg.LossNum, cfg.LossDen),

		msgTargetMissing: "Select a target territory.",
		msgProtected:     "Target is protected.",
		msgMinAttack:     fmt.Sprintf("Attack with at least %d armies.", cfg.MinGarrisonTokens),
		msgLeaveBehind:   fmt.Sprintf("Leave at least %d armies on your territory.", cfg.MinGarrisonTokens),
		msgRatio:         fmt.Sprintf("Need %sx armies vs defender.", ratio),
		msgConquestFloor: fmt.Sprintf("Attack too small to leave %d on conquered territory.", cfg.MinGarrisonTokens),
	}
}

// MinGarrison returns the minimum garrison threshold in base units.
func (e *Engine) MinGarrison() *big.Int {
	return new(big.Int).Set(e.min)
}

// Previewer returns the deterministic combat previewer sharing the engine's
// loss ratio.
func (e *Engine) Previewer() *combat.Deterministic {
	return e.preview
}

// CheckStation validates stationing amount onto source by actor. The
// NeedsApproval flag reports that the game contract's spender allowance is
// insufficient, so the caller must approve before stationing.
func (e *Engine) CheckStation(source domain.TerritoryView, actor string, amount, allowance *big.Int) domain.Decision {
	if !source.OwnedBy(actor) {
		return domain.Deny("You do not own this territory.")
	}
	if amount == nil || amount.Sign() <= 0 {
		return domain.Deny("Enter an amount greater than zero.")
	}
	d := domain.Allow()
	if allowance == nil || amount.Cmp(allowance) > 0 {
		d.NeedsApproval = true
	}
	return d
}

// CheckWithdraw validates withdrawing amount from source by actor. Whether
// enough is actually stationed is left to the contract.
func (e *Engine) CheckWithdraw(source domain.TerritoryView, actor string, amount *big.Int) domain.Decision {
	if !source.OwnedBy(actor) {
		return domain.Deny("You do not own this territory.")
	}
	if amount == nil || amount.Sign() <= 0 {
		return domain.Deny("Enter an amount greater than zero.")
	}
	return domain.Allow()
}

// CheckAttack validates sending amount from source against target at the
// given instant. Rules run in a fixed order and short-circuit: only the
// first failing reason is surfaced. A nil target means nothing is selected.
// Unminted targets skip the defender rules, since there is no garrison to
// beat.
func (e *Engine) CheckAttack(source domain.TerritoryView, target *domain.TerritoryView, amount *big.Int, now time.Time) domain.Decision {
	if target == nil {
		return domain.Deny(e.msgTargetMissing)
	}
	if target.ProtectedAt(now) {
		return domain.Deny(e.msgProtected)
	}
	if amount == nil || amount.Cmp(e.min) < 0 {
		return domain.Deny(e.msgMinAttack)
	}

	required := new(big.Int).Add(amount, e.min)
	if source.GarrisonRaw == nil || source.GarrisonRaw.Cmp(required) < 0 {
		return domain.Deny(e.msgLeaveBehind)
	}

	if target.Exists {
		// amount*den >= garrison*num, integer form of the 2.7x rule
		lhs := new(big.Int).Mul(amount, e.ratioDen)
		rhs := new(big.Int).Mul(target.GarrisonRaw, e.ratioNum)
		if lhs.Cmp(rhs) < 0 {
			return domain.Deny(e.msgRatio)
		}

		floor := new(big.Int).Add(e.preview.Loss(target.GarrisonRaw), e.min)
		if amount.Cmp(floor) < 0 {
			return domain.Deny(e.msgConquestFloor)
		}
	}

	return domain.Allow()
}

// AttackWindow returns the inclusive interval of eligible attack amounts
// from source against target, in base units. Lower is the tightest of the
// minimum threshold, the defender ratio, and the conquest floor; upper is
// what the source can send while keeping the minimum behind. Upper < lower
// means no amount is eligible.
func (e *Engine) AttackWindow(source, target domain.TerritoryView) (lower, upper *big.Int) {
	lower = new(big.Int).Set(e.min)

	if target.Exists && target.GarrisonRaw != nil {
		ratio := new(big.Int).Mul(target.GarrisonRaw, e.ratioNum)
		ratio = ceilDiv(ratio, e.ratioDen)
		if ratio.Cmp(lower) > 0 {
			lower = ratio
		}
		floor := new(big.Int).Add(e.preview.Loss(target.GarrisonRaw), e.min)
		if floor.Cmp(lower) > 0 {
			lower = floor
		}
	}

	garrison := source.GarrisonRaw
	if garrison == nil {
		garrison = new(big.Int)
	}
	upper = new(big.Int).Sub(garrison, e.min)
	return lower, upper
}

func ceilDiv(a, b *big.Int) *big.Int {
	q, r := new(big.Int).QuoRem(a, b, new(big.Int))
	if r.Sign() != 0 {
		q.Add(q, big.NewInt(1))
	}
	return q
}
