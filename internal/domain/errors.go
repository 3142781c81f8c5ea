package domain

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrBetClosed     = errors.New("bet already closed")
	ErrInvalidAmount = errors.New("invalid amount")
	ErrNotEligible   = errors.New("action not eligible")
	ErrTxPending     = errors.New("transaction already pending")
	ErrNoWallet      = errors.New("no wallet configured")
	ErrSignerFailed  = errors.New("bet signer request failed")
)
