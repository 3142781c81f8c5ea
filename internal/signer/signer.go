// Package signer is the client for the off-chain bet authorization service.
// The service signs an EIP-712 bet tuple that the escrow contract verifies
// on placeBet.
package signer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/predictrisk/engine/internal/domain"
)

// Client talks to the bet-signing service.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

var _ domain.BetSigner = (*Client)(nil)

// NewClient creates a signer client. baseURL is the service root, e.g.
// "http://localhost:3002".
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

type signBetRequest struct {
	Player  string `json:"player"`
	Market  string `json:"market"`
	Outcome int    `json:"outcome"`
	Amount  string `json:"amount"`
}

type signBetResponse struct {
	Signature string `json:"signature"`
	Bet       struct {
		Player   string      `json:"player"`
		Market   string      `json:"market"`
		Outcome  json.Number `json:"outcome"`
		Amount   string      `json:"amount"`
		Nonce    string      `json:"nonce"`
		Deadline string      `json:"deadline"`
	} `json:"bet"`
	Error string `json:"error"`
}

// SignBet requests a signed bet tuple. The returned struct is submitted
// verbatim to the escrow contract; the service owns nonce and deadline.
func (c *Client) SignBet(ctx context.Context, player, marketURL string, outcomeIndex int, amountRaw string) (domain.SignedBet, error) {
	body, err := json.Marshal(signBetRequest{
		Player:  player,
		Market:  marketURL,
		Outcome: outcomeIndex,
		Amount:  amountRaw,
	})
	if err != nil {
		return domain.SignedBet{}, fmt.Errorf("signer: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/sign-bet", bytes.NewReader(body))
	if err != nil {
		return domain.SignedBet{}, fmt.Errorf("signer: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.SignedBet{}, fmt.Errorf("signer: %w: %v", domain.ErrSignerFailed, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return domain.SignedBet{}, fmt.Errorf("signer: read response: %w", err)
	}

	var payload signBetResponse
	if err := json.Unmarshal(raw, &payload); err != nil {
		if resp.StatusCode != http.StatusOK {
			return domain.SignedBet{}, fmt.Errorf("signer: %w: status %d", domain.ErrSignerFailed, resp.StatusCode)
		}
		return domain.SignedBet{}, fmt.Errorf("signer: decode response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		msg := payload.Error
		if msg == "" {
			msg = fmt.Sprintf("status %d", resp.StatusCode)
		}
		return domain.SignedBet{}, fmt.Errorf("signer: %w: %s", domain.ErrSignerFailed, msg)
	}
	if payload.Signature == "" || payload.Bet.Player == "" {
		return domain.SignedBet{}, fmt.Errorf("signer: %w: incomplete response", domain.ErrSignerFailed)
	}

	outcome, err := payload.Bet.Outcome.Int64()
	if err != nil || outcome < 0 || outcome > 255 {
		return domain.SignedBet{}, fmt.Errorf("signer: %w: bad outcome %q", domain.ErrSignerFailed, payload.Bet.Outcome)
	}

	return domain.SignedBet{
		Player:    payload.Bet.Player,
		Market:    payload.Bet.Market,
		Outcome:   uint8(outcome),
		Amount:    payload.Bet.Amount,
		Nonce:     payload.Bet.Nonce,
		Deadline:  payload.Bet.Deadline,
		Signature: payload.Signature,
	}, nil
}
