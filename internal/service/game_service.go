// Package service orchestrates the engine's use cases: eligibility-checked
// game transactions and the bet placement flow.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"sync"
	"time"

	"github.com/predictrisk/engine/internal/combat"
	"github.com/predictrisk/engine/internal/domain"
	"github.com/predictrisk/engine/internal/notify"
	"github.com/predictrisk/engine/internal/projector"
	"github.com/predictrisk/engine/internal/rules"
	"github.com/predictrisk/engine/internal/worldmap"
)

// GameService runs the check-submit-invalidate cycle for every game action.
// The eligibility check is a local filter; the contract still arbitrates.
type GameService struct {
	proj     *projector.Projector
	rules    *rules.Engine
	preview  combat.Previewer
	graph    *worldmap.Graph
	sender   domain.TxSender
	notifier *notify.Notifier
	cooldown time.Duration
	log      *slog.Logger

	mu      sync.Mutex
	pending bool
}

// NewGameService wires a game service. sender may be nil in read-only modes;
// write operations then fail with domain.ErrNoWallet.
func NewGameService(
	proj *projector.Projector,
	engine *rules.Engine,
	preview combat.Previewer,
	graph *worldmap.Graph,
	sender domain.TxSender,
	notifier *notify.Notifier,
	cooldown time.Duration,
	log *slog.Logger,
) *GameService {
	return &GameService{
		proj:     proj,
		rules:    engine,
		preview:  preview,
		graph:    graph,
		sender:   sender,
		notifier: notifier,
		cooldown: cooldown,
		log:      log.With("component", "game"),
	}
}

// AttackPreview is the pre-submission projection shown before confirming.
type AttackPreview struct {
	Loss      string `json:"loss"`
	Survivors string `json:"survivors"`
	Captured  bool   `json:"captured"`
	// MinAmount/MaxAmount bound the eligible attack interval; max below min
	// means no amount works.
	MinAmount string `json:"minAmount"`
	MaxAmount string `json:"maxAmount"`
}

// Check evaluates a proposed action against current projected state without
// submitting anything.
func (s *GameService) Check(ctx context.Context, action domain.PendingAction) domain.Decision {
	actor := ""
	if s.sender != nil {
		actor = s.sender.Sender()
	}

	source, _ := s.proj.View(action.Source)

	switch action.Kind {
	case domain.ActionStation:
		player := s.proj.Player(ctx, actor)
		return s.rules.CheckStation(source, actor, action.AmountRaw, player.AllowanceRaw)
	case domain.ActionWithdraw:
		return s.rules.CheckWithdraw(source, actor, action.AmountRaw)
	case domain.ActionAttack:
		var target *domain.TerritoryView
		if action.Target != nil {
			v, _ := s.proj.View(*action.Target)
			target = &v
		}
		return s.rules.CheckAttack(source, target, action.AmountRaw, time.Now())
	default:
		return domain.Deny(fmt.Sprintf("unknown action %q", action.Kind))
	}
}

// PreviewAttack projects the outcome of an attack plus the eligible amount
// window at current state.
func (s *GameService) PreviewAttack(ctx context.Context, sourceID, targetID int, amountRaw *big.Int) AttackPreview {
	source, _ := s.proj.View(sourceID)
	target, _ := s.proj.View(targetID)

	garrison := target.GarrisonRaw
	if !target.Exists || garrison == nil {
		garrison = new(big.Int)
	}
	p := s.preview.Preview(amountRaw, garrison)
	lower, upper := s.rules.AttackWindow(source, target)

	return AttackPreview{
		Loss:      domain.FormatAmount(p.AttackerLoss),
		Survivors: domain.FormatAmount(p.Survivors),
		Captured:  p.Captured,
		MinAmount: domain.FormatAmount(lower),
		MaxAmount: domain.FormatAmount(upper),
	}
}

// Station submits a station transaction after the local check passes.
func (s *GameService) Station(ctx context.Context, territoryID int, amountRaw *big.Int) (domain.TxResult, error) {
	if s.sender == nil {
		return domain.TxResult{}, domain.ErrNoWallet
	}
	action := domain.PendingAction{Kind: domain.ActionStation, Source: territoryID, AmountRaw: amountRaw}
	d := s.Check(ctx, action)
	if !d.OK {
		return domain.TxResult{}, fmt.Errorf("%w: %s", domain.ErrNotEligible, d.Reason)
	}
	if d.NeedsApproval {
		return domain.TxResult{}, fmt.Errorf("%w: token allowance too low, approve first", domain.ErrNotEligible)
	}

	return s.submit(ctx, "station", func(ctx context.Context) (domain.TxResult, error) {
		return s.sender.Station(ctx, territoryID, amountRaw)
	}, territoryID)
}

// Withdraw submits a withdraw transaction after the local check passes.
func (s *GameService) Withdraw(ctx context.Context, territoryID int, amountRaw *big.Int) (domain.TxResult, error) {
	if s.sender == nil {
		return domain.TxResult{}, domain.ErrNoWallet
	}
	action := domain.PendingAction{Kind: domain.ActionWithdraw, Source: territoryID, AmountRaw: amountRaw}
	if d := s.Check(ctx, action); !d.OK {
		return domain.TxResult{}, fmt.Errorf("%w: %s", domain.ErrNotEligible, d.Reason)
	}

	return s.submit(ctx, "withdraw", func(ctx context.Context) (domain.TxResult, error) {
		return s.sender.Withdraw(ctx, territoryID, amountRaw)
	}, territoryID)
}

// Attack submits an attack transaction after the local check passes, then
// refreshes both territories.
func (s *GameService) Attack(ctx context.Context, fromID, toID int, amountRaw *big.Int) (domain.TxResult, error) {
	if s.sender == nil {
		return domain.TxResult{}, domain.ErrNoWallet
	}
	action := domain.PendingAction{Kind: domain.ActionAttack, Source: fromID, Target: &toID, AmountRaw: amountRaw}
	if d := s.Check(ctx, action); !d.OK {
		return domain.TxResult{}, fmt.Errorf("%w: %s", domain.ErrNotEligible, d.Reason)
	}

	res, err := s.submit(ctx, "attack", func(ctx context.Context) (domain.TxResult, error) {
		return s.sender.Attack(ctx, fromID, toID, amountRaw)
	}, fromID, toID)
	if err != nil {
		return res, err
	}

	if s.notifier != nil {
		fromName := s.territoryName(fromID)
		toName := s.territoryName(toID)
		s.notifier.AttackConfirmed(ctx, fromName, toName, domain.FormatAmount(amountRaw), res)
	}
	return res, nil
}

// ApproveGame grants the game contract a spender allowance.
func (s *GameService) ApproveGame(ctx context.Context, amountRaw *big.Int) (domain.TxResult, error) {
	return s.submit(ctx, "approve-game", func(ctx context.Context) (domain.TxResult, error) {
		return s.sender.ApproveGame(ctx, amountRaw)
	})
}

// ApproveEscrow grants the bet escrow a spender allowance.
func (s *GameService) ApproveEscrow(ctx context.Context, amountRaw *big.Int) (domain.TxResult, error) {
	return s.submit(ctx, "approve-escrow", func(ctx context.Context) (domain.TxResult, error) {
		return s.sender.ApproveEscrow(ctx, amountRaw)
	})
}

// ClaimDaily claims the daily army drop, gated by the cooldown.
func (s *GameService) ClaimDaily(ctx context.Context) (domain.TxResult, error) {
	if s.sender == nil {
		return domain.TxResult{}, domain.ErrNoWallet
	}
	player := s.proj.Player(ctx, s.sender.Sender())
	if !player.CanClaimAt(time.Now(), s.cooldown) {
		next := player.LastClaim.Add(s.cooldown)
		return domain.TxResult{}, fmt.Errorf("%w: next claim at %s", domain.ErrNotEligible, next.Format(time.RFC3339))
	}

	res, err := s.submit(ctx, "claim-daily", func(ctx context.Context) (domain.TxResult, error) {
		return s.sender.ClaimDailyArmies(ctx)
	})
	if err == nil && s.notifier != nil {
		s.notifier.Claimed(ctx, res)
	}
	return res, err
}

// ClaimInitial claims a starting territory for the acting player.
func (s *GameService) ClaimInitial(ctx context.Context, territoryID int) (domain.TxResult, error) {
	view, _ := s.proj.View(territoryID)
	if view.Exists {
		return domain.TxResult{}, fmt.Errorf("%w: territory already claimed", domain.ErrNotEligible)
	}

	return s.submit(ctx, "claim-initial", func(ctx context.Context) (domain.TxResult, error) {
		return s.sender.ClaimInitialTerritory(ctx, territoryID)
	}, territoryID)
}

// submit serializes transaction submission: one pending transaction at a
// time, refreshing the touched territories once mined.
func (s *GameService) submit(ctx context.Context, op string, send func(context.Context) (domain.TxResult, error), invalidate ...int) (domain.TxResult, error) {
	if s.sender == nil {
		return domain.TxResult{}, domain.ErrNoWallet
	}

	s.mu.Lock()
	if s.pending {
		s.mu.Unlock()
		return domain.TxResult{}, domain.ErrTxPending
	}
	s.pending = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.pending = false
		s.mu.Unlock()
	}()

	res, err := send(ctx)
	if err != nil {
		s.log.Error("transaction failed", "op", op, "error", err)
		if s.notifier != nil {
			s.notifier.Error(ctx, op, err)
		}
		return res, err
	}

	s.log.Info("transaction mined", "op", op, "hash", res.Hash, "confirmed", res.Confirmed)
	s.proj.Invalidate(ctx, invalidate...)
	return res, nil
}

func (s *GameService) territoryName(id int) string {
	if code, ok := s.graph.CodeForID(id); ok {
		return s.graph.Name(code)
	}
	return fmt.Sprintf("territory %d", id)
}
