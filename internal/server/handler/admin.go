package handler

import (
	"context"
	"log/slog"
	"math/big"
	"net/http"

	"github.com/predictrisk/engine/internal/domain"
)

// AdminService is the privileged contract surface: deploy-time board setup
// and escrow settlement. The contracts enforce the owner role; these
// endpoints just forward.
type AdminService interface {
	MintTerritory(ctx context.Context, to string, territoryID int, uri string) (domain.TxResult, error)
	SetBorders(ctx context.Context, territoryID int, neighborIDs []int) (domain.TxResult, error)
	SetSpawnTerritories(ctx context.Context, territoryIDs []int, enabled bool) (domain.TxResult, error)
	GrantInitialTerritory(ctx context.Context, player string, territoryID int) (domain.TxResult, error)
	ResolveMarket(ctx context.Context, marketURL string, outcome uint8) (domain.TxResult, error)
	CancelMarket(ctx context.Context, marketURL string) (domain.TxResult, error)
	EscrowWithdraw(ctx context.Context, to string, amountRaw *big.Int) (domain.TxResult, error)
}

// AdminHandler serves the operator endpoints. It is only registered when
// the engine runs with a real wallet.
type AdminHandler struct {
	admin AdminService
	log   *slog.Logger
}

// NewAdminHandler creates an admin handler.
func NewAdminHandler(admin AdminService, log *slog.Logger) *AdminHandler {
	return &AdminHandler{admin: admin, log: log}
}

// MintTerritory mints a territory NFT.
// POST /api/admin/mint
func (h *AdminHandler) MintTerritory(w http.ResponseWriter, r *http.Request) {
	var req struct {
		To          string `json:"to"`
		TerritoryID int    `json:"territoryId"`
		URI         string `json:"uri,omitempty"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.To == "" {
		writeError(w, http.StatusBadRequest, "to is required")
		return
	}
	h.respond(w, r, func(ctx context.Context) (domain.TxResult, error) {
		return h.admin.MintTerritory(ctx, req.To, req.TerritoryID, req.URI)
	})
}

// SetBorders writes one territory's neighbor list.
// POST /api/admin/borders
func (h *AdminHandler) SetBorders(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TerritoryID int   `json:"territoryId"`
		Neighbors   []int `json:"neighbors"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if len(req.Neighbors) == 0 {
		writeError(w, http.StatusBadRequest, "neighbors is required")
		return
	}
	h.respond(w, r, func(ctx context.Context) (domain.TxResult, error) {
		return h.admin.SetBorders(ctx, req.TerritoryID, req.Neighbors)
	})
}

// SetSpawnTerritories toggles spawn claiming on a territory set.
// POST /api/admin/spawns
func (h *AdminHandler) SetSpawnTerritories(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TerritoryIDs []int `json:"territoryIds"`
		Enabled      bool  `json:"enabled"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if len(req.TerritoryIDs) == 0 {
		writeError(w, http.StatusBadRequest, "territoryIds is required")
		return
	}
	h.respond(w, r, func(ctx context.Context) (domain.TxResult, error) {
		return h.admin.SetSpawnTerritories(ctx, req.TerritoryIDs, req.Enabled)
	})
}

// GrantInitialTerritory assigns a starting territory to a player.
// POST /api/admin/grant
func (h *AdminHandler) GrantInitialTerritory(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Player      string `json:"player"`
		TerritoryID int    `json:"territoryId"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Player == "" {
		writeError(w, http.StatusBadRequest, "player is required")
		return
	}
	h.respond(w, r, func(ctx context.Context) (domain.TxResult, error) {
		return h.admin.GrantInitialTerritory(ctx, req.Player, req.TerritoryID)
	})
}

// ResolveMarket settles an escrow market on an outcome.
// POST /api/admin/markets/resolve
func (h *AdminHandler) ResolveMarket(w http.ResponseWriter, r *http.Request) {
	var req struct {
		MarketURL string `json:"marketUrl"`
		Outcome   uint8  `json:"outcome"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.MarketURL == "" {
		writeError(w, http.StatusBadRequest, "marketUrl is required")
		return
	}
	h.respond(w, r, func(ctx context.Context) (domain.TxResult, error) {
		return h.admin.ResolveMarket(ctx, req.MarketURL, req.Outcome)
	})
}

// CancelMarket voids an escrow market.
// POST /api/admin/markets/cancel
func (h *AdminHandler) CancelMarket(w http.ResponseWriter, r *http.Request) {
	var req struct {
		MarketURL string `json:"marketUrl"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.MarketURL == "" {
		writeError(w, http.StatusBadRequest, "marketUrl is required")
		return
	}
	h.respond(w, r, func(ctx context.Context) (domain.TxResult, error) {
		return h.admin.CancelMarket(ctx, req.MarketURL)
	})
}

// EscrowWithdraw moves escrow funds to an address.
// POST /api/admin/withdraw
func (h *AdminHandler) EscrowWithdraw(w http.ResponseWriter, r *http.Request) {
	var req struct {
		To     string `json:"to"`
		Amount string `json:"amount"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.To == "" {
		writeError(w, http.StatusBadRequest, "to is required")
		return
	}
	amountRaw, err := domain.ParseAmount(req.Amount)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	h.respond(w, r, func(ctx context.Context) (domain.TxResult, error) {
		return h.admin.EscrowWithdraw(ctx, req.To, amountRaw)
	})
}

func (h *AdminHandler) respond(w http.ResponseWriter, r *http.Request, send func(context.Context) (domain.TxResult, error)) {
	res, err := send(r.Context())
	if err != nil {
		h.log.ErrorContext(r.Context(), "admin call failed", slog.String("error", err.Error()))
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
