// Package server exposes the engine over HTTP and WebSocket.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/predictrisk/engine/internal/config"
	"github.com/predictrisk/engine/internal/server/handler"
	"github.com/predictrisk/engine/internal/server/middleware"
	"github.com/predictrisk/engine/internal/server/ws"
)

// Handlers aggregates everything the server registers on its mux. Admin is
// optional and only set when the engine runs with a real wallet.
type Handlers struct {
	Health *handler.HealthHandler
	Map    *handler.MapHandler
	Game   *handler.GameHandler
	Bets   *handler.BetHandler
	Admin  *handler.AdminHandler
}

// Server is the HTTP plus WebSocket front of the engine.
type Server struct {
	httpServer *http.Server
	log        *slog.Logger
}

// New registers all routes and builds the middleware chain: CORS outermost,
// then request logging, then auth. Health stays reachable without a key via
// the auth middleware's empty-key bypass only; with a key configured every
// route requires it.
func New(cfg config.ServerConfig, handlers Handlers, hub *ws.Hub, log *slog.Logger) *Server {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/health", handlers.Health.HealthCheck)

	mux.HandleFunc("GET /api/map", handlers.Map.GetMap)
	mux.HandleFunc("GET /api/territories", handlers.Map.ListTerritories)
	mux.HandleFunc("GET /api/territories/{id}", handlers.Map.GetTerritory)
	mux.HandleFunc("POST /api/territories/{id}/refresh", handlers.Map.RefreshTerritory)

	mux.HandleFunc("GET /api/player", handlers.Game.GetPlayer)
	mux.HandleFunc("POST /api/actions/check", handlers.Game.CheckAction)
	mux.HandleFunc("POST /api/actions/preview", handlers.Game.PreviewAttack)
	mux.HandleFunc("POST /api/actions/station", handlers.Game.Station)
	mux.HandleFunc("POST /api/actions/withdraw", handlers.Game.Withdraw)
	mux.HandleFunc("POST /api/actions/attack", handlers.Game.Attack)
	mux.HandleFunc("POST /api/approve/game", handlers.Game.ApproveGame)
	mux.HandleFunc("POST /api/approve/escrow", handlers.Game.ApproveEscrow)
	mux.HandleFunc("POST /api/claim", handlers.Game.ClaimDaily)
	mux.HandleFunc("POST /api/claim-initial", handlers.Game.ClaimInitial)

	mux.HandleFunc("GET /api/bets", handlers.Bets.ListBets)
	mux.HandleFunc("POST /api/bets", handlers.Bets.PlaceBet)
	mux.HandleFunc("DELETE /api/bets/{id}", handlers.Bets.RemoveBet)
	mux.HandleFunc("POST /api/bets/{id}/close", handlers.Bets.CloseBet)
	mux.HandleFunc("GET /api/markets/resolve", handlers.Bets.ResolveMarket)

	if handlers.Admin != nil {
		mux.HandleFunc("POST /api/admin/mint", handlers.Admin.MintTerritory)
		mux.HandleFunc("POST /api/admin/borders", handlers.Admin.SetBorders)
		mux.HandleFunc("POST /api/admin/spawns", handlers.Admin.SetSpawnTerritories)
		mux.HandleFunc("POST /api/admin/grant", handlers.Admin.GrantInitialTerritory)
		mux.HandleFunc("POST /api/admin/markets/resolve", handlers.Admin.ResolveMarket)
		mux.HandleFunc("POST /api/admin/markets/cancel", handlers.Admin.CancelMarket)
		mux.HandleFunc("POST /api/admin/withdraw", handlers.Admin.EscrowWithdraw)
	}

	if hub != nil {
		mux.HandleFunc("GET /ws", hub.HandleWS)
	}

	var h http.Handler = mux
	h = middleware.Auth(cfg.APIKey)(h)
	h = middleware.Logging(log)(h)
	h = middleware.CORS(cfg.CORSOrigins)(h)

	return &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Port),
			Handler:      h,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		log: log,
	}
}

// Start listens and blocks until the server errors or shuts down.
func (s *Server) Start() error {
	s.log.Info("server starting", slog.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: listen: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests within the context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("server shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}
