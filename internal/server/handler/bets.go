package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/predictrisk/engine/internal/domain"
	"github.com/predictrisk/engine/internal/service"
)

// BetService is what the bet handler needs from the service layer.
type BetService interface {
	ResolveMarket(ctx context.Context, marketURL string) (domain.MarketQuote, error)
	PlaceBet(ctx context.Context, marketURL string, outcomeIndex int, amount string) (service.PlaceBetResult, error)
	CloseBet(ctx context.Context, id string) (domain.BetRecord, error)
}

// BetLedger is the ledger surface the handler reads and prunes.
type BetLedger interface {
	List(ctx context.Context) ([]domain.BetRecord, error)
	RemoveBet(ctx context.Context, id string) error
	CurrentPrice(id string) (int, bool)
}

// BetHandler serves the bet ledger and market resolution endpoints.
type BetHandler struct {
	bets   BetService
	ledger BetLedger
	log    *slog.Logger
}

// NewBetHandler creates a bet handler.
func NewBetHandler(bets BetService, ledger BetLedger, log *slog.Logger) *BetHandler {
	return &BetHandler{bets: bets, ledger: ledger, log: log}
}

type placeBetRequest struct {
	MarketURL    string `json:"marketUrl"`
	OutcomeIndex int    `json:"outcomeIndex"`
	Amount       string `json:"amount"`
}

// betJSON is a ledger record enriched with the latest refreshed price.
type betJSON struct {
	domain.BetRecord
	CurrentPriceCents *int `json:"currentPriceCents,omitempty"`
}

// ListBets returns the full ledger, newest first, with live prices where a
// refresh has produced one.
// GET /api/bets
func (h *BetHandler) ListBets(w http.ResponseWriter, r *http.Request) {
	records, err := h.ledger.List(r.Context())
	if err != nil {
		h.log.ErrorContext(r.Context(), "list bets failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "failed to list bets")
		return
	}

	out := make([]betJSON, 0, len(records))
	for _, rec := range records {
		b := betJSON{BetRecord: rec}
		if cents, ok := h.ledger.CurrentPrice(rec.ID); ok {
			b.CurrentPriceCents = &cents
		}
		out = append(out, b)
	}
	writeJSON(w, http.StatusOK, map[string]any{"bets": out})
}

// PlaceBet resolves, signs, records, and submits a new bet.
// POST /api/bets
func (h *BetHandler) PlaceBet(w http.ResponseWriter, r *http.Request) {
	var req placeBetRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.MarketURL == "" {
		writeError(w, http.StatusBadRequest, "marketUrl is required")
		return
	}

	res, err := h.bets.PlaceBet(r.Context(), req.MarketURL, req.OutcomeIndex, req.Amount)
	if err != nil {
		// the record may exist even though the transaction failed
		if res.BetID != "" {
			writeJSON(w, statusFor(err), map[string]string{
				"error": err.Error(),
				"betId": res.BetID,
			})
			return
		}
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// RemoveBet deletes a ledger record.
// DELETE /api/bets/{id}
func (h *BetHandler) RemoveBet(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing bet id")
		return
	}
	if err := h.ledger.RemoveBet(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "removed", "id": id})
}

// CloseBet marks a bet closed with a best-effort price snapshot. Closing an
// already-closed bet returns the record unchanged.
// POST /api/bets/{id}/close
func (h *BetHandler) CloseBet(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing bet id")
		return
	}
	rec, err := h.bets.CloseBet(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// ResolveMarket looks up a quote for a pasted market URL.
// GET /api/markets/resolve?url=...
func (h *BetHandler) ResolveMarket(w http.ResponseWriter, r *http.Request) {
	url := r.URL.Query().Get("url")
	if url == "" {
		writeError(w, http.StatusBadRequest, "url query parameter required")
		return
	}
	quote, err := h.bets.ResolveMarket(r.Context(), url)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, quote)
}
