// Package notify pushes game events to operator channels. Each event type
// can be filtered independently so an operator can subscribe to confirmed
// attacks without hearing about every bet refresh.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/predictrisk/engine/internal/config"
	"github.com/predictrisk/engine/internal/domain"
)

// Event identifies a notifiable occurrence.
type Event string

const (
	EventAttackConfirmed Event = "attack_confirmed"
	EventBetPlaced       Event = "bet_placed"
	EventBetClosed       Event = "bet_closed"
	EventClaim           Event = "claim"
	EventError           Event = "error"
)

// Sender delivers a rendered notification to one channel.
type Sender interface {
	Send(ctx context.Context, title, message string) error
	Name() string
}

// Notifier fans events out to every configured sender, filtered by the
// allowed event set. An empty set allows everything.
type Notifier struct {
	senders []Sender
	allowed map[Event]bool
	log     *slog.Logger
}

// New builds a notifier from configuration. Channels without credentials
// are skipped; a notifier with no senders swallows every event.
func New(cfg config.NotifyConfig, log *slog.Logger) *Notifier {
	var senders []Sender
	if cfg.TelegramToken != "" && cfg.TelegramChatID != "" {
		senders = append(senders, newTelegram(cfg.TelegramToken, cfg.TelegramChatID))
	}
	if cfg.DiscordWebhookURL != "" {
		senders = append(senders, newDiscord(cfg.DiscordWebhookURL))
	}

	allowed := make(map[Event]bool, len(cfg.Events))
	for _, e := range cfg.Events {
		allowed[Event(strings.TrimSpace(e))] = true
	}

	return &Notifier{
		senders: senders,
		allowed: allowed,
		log:     log.With("component", "notify"),
	}
}

// AttackConfirmed reports a mined attack transaction.
func (n *Notifier) AttackConfirmed(ctx context.Context, fromName, toName, amount string, res domain.TxResult) {
	outcome := "captured"
	if !res.Confirmed {
		outcome = "reverted"
	}
	n.emit(ctx, EventAttackConfirmed, "Attack "+outcome,
		fmt.Sprintf("%s -> %s with %s armies (tx %s)", fromName, toName, amount, res.Hash))
}

// BetPlaced reports a submitted escrow bet.
func (n *Notifier) BetPlaced(ctx context.Context, title, outcome, amount string) {
	n.emit(ctx, EventBetPlaced, "Bet placed",
		fmt.Sprintf("%s on %q for %s armies", outcome, title, amount))
}

// BetClosed reports a closed ledger record.
func (n *Notifier) BetClosed(ctx context.Context, rec domain.BetRecord) {
	price := "—"
	if rec.ClosedPriceCents != nil {
		price = fmt.Sprintf("%d¢", *rec.ClosedPriceCents)
	}
	n.emit(ctx, EventBetClosed, "Bet closed",
		fmt.Sprintf("%q closed at %s (entry %d¢)", rec.MarketTitle, price, rec.EntryPriceCents))
}

// Claimed reports a successful daily claim.
func (n *Notifier) Claimed(ctx context.Context, res domain.TxResult) {
	n.emit(ctx, EventClaim, "Daily armies claimed", "tx "+res.Hash)
}

// Error reports an operational failure.
func (n *Notifier) Error(ctx context.Context, scope string, err error) {
	n.emit(ctx, EventError, "Engine error", scope+": "+err.Error())
}

func (n *Notifier) emit(ctx context.Context, event Event, title, message string) {
	if len(n.senders) == 0 {
		return
	}
	if len(n.allowed) > 0 && !n.allowed[event] {
		return
	}

	for _, s := range n.senders {
		if err := s.Send(ctx, title, message); err != nil {
			n.log.Warn("notification delivery failed", "sender", s.Name(), "event", string(event), "error", err)
		}
	}
}

// postJSON is the shared HTTP delivery used by the channel senders.
func postJSON(ctx context.Context, client *http.Client, url string, payload any, scope string) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("%s: marshal payload: %w", scope, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%s: create request: %w", scope, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%s: send request: %w", scope, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("%s: unexpected status %d: %s", scope, resp.StatusCode, string(respBody))
	}
	return nil
}
