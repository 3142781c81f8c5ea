package handler

import (
	"context"
	"log/slog"
	"math/big"
	"net/http"
	"time"

	"github.com/predictrisk/engine/internal/domain"
	"github.com/predictrisk/engine/internal/projector"
	"github.com/predictrisk/engine/internal/service"
)

// GameService is what the game handler needs from the service layer.
type GameService interface {
	Check(ctx context.Context, action domain.PendingAction) domain.Decision
	PreviewAttack(ctx context.Context, sourceID, targetID int, amountRaw *big.Int) service.AttackPreview
	Station(ctx context.Context, territoryID int, amountRaw *big.Int) (domain.TxResult, error)
	Withdraw(ctx context.Context, territoryID int, amountRaw *big.Int) (domain.TxResult, error)
	Attack(ctx context.Context, fromID, toID int, amountRaw *big.Int) (domain.TxResult, error)
	ApproveGame(ctx context.Context, amountRaw *big.Int) (domain.TxResult, error)
	ApproveEscrow(ctx context.Context, amountRaw *big.Int) (domain.TxResult, error)
	ClaimDaily(ctx context.Context) (domain.TxResult, error)
	ClaimInitial(ctx context.Context, territoryID int) (domain.TxResult, error)
}

// GameHandler serves action checks, previews, and transaction endpoints.
type GameHandler struct {
	game  GameService
	proj  *projector.Projector
	actor string
	log   *slog.Logger
}

// NewGameHandler creates a game handler. actor is the configured wallet
// address, empty in read-only modes.
func NewGameHandler(game GameService, proj *projector.Projector, actor string, log *slog.Logger) *GameHandler {
	return &GameHandler{game: game, proj: proj, actor: actor, log: log}
}

type actionRequest struct {
	Kind   string `json:"kind"`
	Source int    `json:"source"`
	Target *int   `json:"target,omitempty"`
	Amount string `json:"amount"`
}

type attackRequest struct {
	From   int    `json:"from"`
	To     int    `json:"to"`
	Amount string `json:"amount"`
}

type territoryRequest struct {
	TerritoryID int    `json:"territoryId"`
	Amount      string `json:"amount,omitempty"`
}

type amountRequest struct {
	Amount string `json:"amount"`
}

// CheckAction runs the local eligibility check without submitting.
// POST /api/actions/check
func (h *GameHandler) CheckAction(w http.ResponseWriter, r *http.Request) {
	var req actionRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	amountRaw, err := domain.ParseAmount(req.Amount)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	d := h.game.Check(r.Context(), domain.PendingAction{
		Kind:      domain.ActionKind(req.Kind),
		Source:    req.Source,
		Target:    req.Target,
		AmountRaw: amountRaw,
	})
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":            d.OK,
		"reason":        d.Reason,
		"needsApproval": d.NeedsApproval,
	})
}

// PreviewAttack returns the projected combat outcome and the eligible
// amount window.
// POST /api/actions/preview
func (h *GameHandler) PreviewAttack(w http.ResponseWriter, r *http.Request) {
	var req attackRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	amountRaw, err := domain.ParseAmount(req.Amount)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.game.PreviewAttack(r.Context(), req.From, req.To, amountRaw))
}

// Station stations armies on an owned territory.
// POST /api/actions/station
func (h *GameHandler) Station(w http.ResponseWriter, r *http.Request) {
	h.submitTerritoryTx(w, r, h.game.Station)
}

// Withdraw pulls armies back from an owned territory.
// POST /api/actions/withdraw
func (h *GameHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	h.submitTerritoryTx(w, r, h.game.Withdraw)
}

// Attack submits an attack between adjacent territories.
// POST /api/actions/attack
func (h *GameHandler) Attack(w http.ResponseWriter, r *http.Request) {
	var req attackRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	amountRaw, err := domain.ParseAmount(req.Amount)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	res, err := h.game.Attack(r.Context(), req.From, req.To, amountRaw)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// ApproveGame raises the game contract's token allowance.
// POST /api/approve/game
func (h *GameHandler) ApproveGame(w http.ResponseWriter, r *http.Request) {
	h.submitApproval(w, r, h.game.ApproveGame)
}

// ApproveEscrow raises the bet escrow's token allowance.
// POST /api/approve/escrow
func (h *GameHandler) ApproveEscrow(w http.ResponseWriter, r *http.Request) {
	h.submitApproval(w, r, h.game.ApproveEscrow)
}

// ClaimDaily claims the daily army drop.
// POST /api/claim
func (h *GameHandler) ClaimDaily(w http.ResponseWriter, r *http.Request) {
	res, err := h.game.ClaimDaily(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// ClaimInitial claims an unminted starting territory.
// POST /api/claim-initial
func (h *GameHandler) ClaimInitial(w http.ResponseWriter, r *http.Request) {
	var req territoryRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	res, err := h.game.ClaimInitial(r.Context(), req.TerritoryID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// GetPlayer returns the acting player's balances, allowances, claim state,
// and owned territories. An explicit address query overrides the configured
// wallet for read-only inspection.
// GET /api/player
func (h *GameHandler) GetPlayer(w http.ResponseWriter, r *http.Request) {
	addr := r.URL.Query().Get("address")
	if addr == "" {
		addr = h.actor
	}
	if addr == "" {
		writeError(w, http.StatusBadRequest, "no wallet configured; pass ?address=")
		return
	}

	player := h.proj.Player(r.Context(), addr)
	owned := h.proj.ScanOwned(addr)

	resp := map[string]any{
		"address":         player.Address,
		"balance":         player.Balance,
		"gameAllowance":   domain.FormatAmount(player.AllowanceRaw),
		"escrowAllowance": domain.FormatAmount(player.EscrowAllowRaw),
		"territories":     owned,
	}
	if !player.LastClaim.IsZero() {
		resp["lastClaim"] = player.LastClaim.Format(time.RFC3339)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *GameHandler) submitTerritoryTx(w http.ResponseWriter, r *http.Request, send func(context.Context, int, *big.Int) (domain.TxResult, error)) {
	var req territoryRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	amountRaw, err := domain.ParseAmount(req.Amount)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	res, err := send(r.Context(), req.TerritoryID, amountRaw)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *GameHandler) submitApproval(w http.ResponseWriter, r *http.Request, send func(context.Context, *big.Int) (domain.TxResult, error)) {
	var req amountRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	amountRaw, err := domain.ParseAmount(req.Amount)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	res, err := send(r.Context(), amountRaw)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
