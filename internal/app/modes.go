package app

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/predictrisk/engine/internal/chain"
	"github.com/predictrisk/engine/internal/domain"
	"github.com/predictrisk/engine/internal/server"
	"github.com/predictrisk/engine/internal/server/handler"
	"github.com/predictrisk/engine/internal/server/ws"
	"github.com/predictrisk/engine/internal/service"
)

// ServeMode runs the full engine: the HTTP and WebSocket API, the periodic
// territory refresh, and the bet quote refresh. Demo mode runs through here
// too, backed by the in-memory world instead of a chain.
func (a *App) ServeMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting serve mode", slog.String("actor", deps.Actor))

	g, ctx := errgroup.WithContext(ctx)

	hub := ws.NewHub(a.cfg.Mode, a.logger)
	deps.Proj.SetOnUpdate(func(v domain.TerritoryView) {
		hub.Publish("territory", territoryEvent(v))
	})
	g.Go(func() error {
		return hub.Run(ctx)
	})

	gameSvc := service.NewGameService(
		deps.Proj, deps.Rules, deps.Previewer, deps.Graph,
		deps.Sender, deps.Notifier, a.cfg.Rules.ClaimCooldown.Duration, a.logger,
	)
	betSvc := service.NewBetService(
		deps.Markets, deps.Signer, deps.Sender, deps.Ledger,
		deps.Proj, deps.Notifier, a.logger,
	)

	if a.cfg.Server.Enabled {
		handlers := server.Handlers{
			Health: handler.NewHealthHandler(a.cfg.Mode),
			Map:    handler.NewMapHandler(deps.Graph, deps.Proj, a.logger),
			Game:   handler.NewGameHandler(gameSvc, deps.Proj, deps.Actor, a.logger),
			Bets:   handler.NewBetHandler(betSvc, deps.Ledger, a.logger),
		}
		// Operator endpoints only exist when a real wallet backs the sender.
		if w, ok := deps.Sender.(*chain.Wallet); ok {
			handlers.Admin = handler.NewAdminHandler(w, a.logger)
		}
		srv := server.New(a.cfg.Server, handlers, hub, a.logger)

		g.Go(func() error {
			return srv.Start()
		})
		g.Go(func() error {
			<-ctx.Done()
			shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutCtx)
		})
	}

	g.Go(func() error {
		return a.refreshLoop(ctx, deps)
	})
	g.Go(func() error {
		return a.quoteLoop(ctx, deps)
	})

	return g.Wait()
}

// WatchMode projects chain state without a wallet or an API: every refresh
// is logged, nothing is ever submitted.
func (a *App) WatchMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting watch mode")

	deps.Proj.SetOnUpdate(func(v domain.TerritoryView) {
		a.logger.InfoContext(ctx, "territory updated",
			slog.Int("id", v.ID),
			slog.String("owner", v.Owner),
			slog.String("garrison", v.Garrison),
		)
	})

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return a.refreshLoop(ctx, deps)
	})
	g.Go(func() error {
		return a.quoteLoop(ctx, deps)
	})
	return g.Wait()
}

// refreshLoop re-projects the whole board at the configured interval.
func (a *App) refreshLoop(ctx context.Context, deps *Dependencies) error {
	interval := a.cfg.Chain.RefreshInterval.Duration
	if interval <= 0 {
		interval = 15 * time.Second
	}

	if err := deps.Proj.RefreshAll(ctx); err != nil {
		a.logger.WarnContext(ctx, "initial refresh failed", slog.String("error", err.Error()))
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := deps.Proj.RefreshAll(ctx); err != nil {
				a.logger.WarnContext(ctx, "refresh failed", slog.String("error", err.Error()))
			}
		}
	}
}

// quoteLoop refreshes open-bet prices at the quote TTL cadence.
func (a *App) quoteLoop(ctx context.Context, deps *Dependencies) error {
	interval := a.cfg.Markets.QuoteTTL.Duration
	if interval <= 0 {
		interval = time.Minute
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			deps.Ledger.RefreshQuotes(ctx)
		}
	}
}

// territoryEvent is the WebSocket payload for a refreshed territory.
func territoryEvent(v domain.TerritoryView) map[string]any {
	out := map[string]any{
		"id":       v.ID,
		"exists":   v.Exists,
		"owner":    v.Owner,
		"garrison": v.Garrison,
	}
	if !v.SpawnProtectedUntil.IsZero() {
		out["protectedUntil"] = v.SpawnProtectedUntil.Format(time.RFC3339)
	}
	return out
}
