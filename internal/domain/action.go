package domain

import "math/big"

// ActionKind identifies a proposed territory operation.
type ActionKind string

const (
	ActionStation  ActionKind = "station"
	ActionWithdraw ActionKind = "withdraw"
	ActionAttack   ActionKind = "attack"
)

// PendingAction is a proposed operation built from user input. It lives only
// between input and submission and is never persisted.
type PendingAction struct {
	Kind   ActionKind
	Source int
	// Target is the victim territory; only meaningful for attacks.
	Target *int
	// AmountRaw is the parsed amount in base units.
	AmountRaw *big.Int
}

// Decision is the eligibility verdict for a pending action. A legal action
// has OK set; otherwise Reason carries the single user-facing message for
// the first failing rule.
type Decision struct {
	OK     bool
	Reason string
	// NeedsApproval is set when the action is legal but the game contract's
	// spender allowance does not cover the amount, so the UI should offer
	// "Approve" instead of the action button.
	NeedsApproval bool
}

// Allow returns a passing decision.
func Allow() Decision { return Decision{OK: true} }

// Deny returns a failing decision with the given message.
func Deny(reason string) Decision { return Decision{Reason: reason} }
