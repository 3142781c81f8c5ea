package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/predictrisk/engine/internal/domain"
	"github.com/predictrisk/engine/internal/projector"
	"github.com/predictrisk/engine/internal/worldmap"
)

// MapHandler serves the adjacency catalog and projected territory state.
type MapHandler struct {
	graph *worldmap.Graph
	proj  *projector.Projector
	log   *slog.Logger
}

// NewMapHandler creates a map handler over the graph and the projector.
func NewMapHandler(graph *worldmap.Graph, proj *projector.Projector, log *slog.Logger) *MapHandler {
	return &MapHandler{graph: graph, proj: proj, log: log}
}

// catalogEntry is one country of the map response, with its contract id
// when the code is addressable on chain.
type catalogEntry struct {
	Code       string   `json:"code"`
	Name       string   `json:"name"`
	Neighbors  []string `json:"neighbors"`
	ContractID *int     `json:"contractId,omitempty"`
}

// territoryJSON is the wire form of a projected territory view.
type territoryJSON struct {
	ID             int    `json:"id"`
	Code           string `json:"code,omitempty"`
	Name           string `json:"name,omitempty"`
	Exists         bool   `json:"exists"`
	Owner          string `json:"owner,omitempty"`
	Garrison       string `json:"garrison"`
	Protected      bool   `json:"protected"`
	ProtectedUntil string `json:"protectedUntil,omitempty"`
	UpdatedAt      string `json:"updatedAt,omitempty"`
}

// GetMap returns the full catalog with adjacency and contract ids.
// GET /api/map
func (h *MapHandler) GetMap(w http.ResponseWriter, r *http.Request) {
	countries := h.graph.Countries()
	out := make([]catalogEntry, 0, len(countries))
	for _, c := range countries {
		entry := catalogEntry{Code: c.Code, Name: c.Name, Neighbors: c.Neighbors}
		if id, ok := h.graph.ContractID(c.Code); ok {
			entry.ContractID = &id
		}
		out = append(out, entry)
	}
	writeJSON(w, http.StatusOK, map[string]any{"countries": out})
}

// ListTerritories returns the projected state of every on-chain territory.
// GET /api/territories
func (h *MapHandler) ListTerritories(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	out := make([]territoryJSON, 0, h.graph.Len())
	for _, c := range h.graph.Countries() {
		id, ok := h.graph.ContractID(c.Code)
		if !ok {
			continue
		}
		view, _ := h.proj.View(id)
		out = append(out, h.render(view, now))
	}
	writeJSON(w, http.StatusOK, map[string]any{"territories": out})
}

// GetTerritory returns one projected territory view.
// GET /api/territories/{id}
func (h *MapHandler) GetTerritory(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid territory id")
		return
	}
	view, ok := h.proj.View(id)
	if !ok {
		view = domain.EmptyTerritoryView(id)
	}
	writeJSON(w, http.StatusOK, h.render(view, time.Now()))
}

// RefreshTerritory forces a re-read of one territory from the chain.
// POST /api/territories/{id}/refresh
func (h *MapHandler) RefreshTerritory(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid territory id")
		return
	}
	view := h.proj.Refresh(r.Context(), id)
	writeJSON(w, http.StatusOK, h.render(view, time.Now()))
}

func (h *MapHandler) render(view domain.TerritoryView, now time.Time) territoryJSON {
	out := territoryJSON{
		ID:        view.ID,
		Exists:    view.Exists,
		Owner:     view.Owner,
		Garrison:  view.Garrison,
		Protected: view.ProtectedAt(now),
	}
	if code, ok := h.graph.CodeForID(view.ID); ok {
		out.Code = code
		out.Name = h.graph.Name(code)
	}
	if !view.SpawnProtectedUntil.IsZero() {
		out.ProtectedUntil = view.SpawnProtectedUntil.Format(time.RFC3339)
	}
	if !view.UpdatedAt.IsZero() {
		out.UpdatedAt = view.UpdatedAt.Format(time.RFC3339)
	}
	return out
}
