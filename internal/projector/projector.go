// Package projector maintains the unified per-territory view derived from
// independent chain reads. Reads resolve asynchronously; a view is assembled
// from whatever resolved, never an error.
package projector

import (
	"context"
	"log/slog"
	"math/big"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/predictrisk/engine/internal/domain"
	"github.com/predictrisk/engine/internal/worldmap"
)

// Projector caches territory and player projections and refreshes them from
// the chain on demand. Refreshes are sequenced per territory so a slow read
// can never overwrite a newer one.
type Projector struct {
	reader     domain.ChainReader
	graph      *worldmap.Graph
	gameAddr   string
	escrowAddr string
	log        *slog.Logger

	mu       sync.RWMutex
	views    map[int]domain.TerritoryView
	seq      map[int]uint64
	onUpdate func(domain.TerritoryView)
}

// New builds a projector over reader. gameAddr and escrowAddr are the
// spenders whose allowances the player projection tracks.
func New(reader domain.ChainReader, graph *worldmap.Graph, gameAddr, escrowAddr string, log *slog.Logger) *Projector {
	return &Projector{
		reader:     reader,
		graph:      graph,
		gameAddr:   gameAddr,
		escrowAddr: escrowAddr,
		log:        log.With("component", "projector"),
		views:      make(map[int]domain.TerritoryView),
		seq:        make(map[int]uint64),
	}
}

// SetOnUpdate registers a callback invoked after a refresh lands. Must be
// called before the projector is shared across goroutines.
func (p *Projector) SetOnUpdate(fn func(domain.TerritoryView)) {
	p.onUpdate = fn
}

// Refresh re-reads one territory. The four facts are fetched in parallel and
// each failure degrades to its zero value, so a flaky provider yields a
// partial view rather than no view. The assembled view is dropped if a newer
// refresh for the same id started while this one was in flight.
func (p *Projector) Refresh(ctx context.Context, id int) domain.TerritoryView {
	p.mu.Lock()
	p.seq[id]++
	ticket := p.seq[id]
	p.mu.Unlock()

	v := domain.EmptyTerritoryView(id)

	g, ctx := errgroup.WithContext(ctx)
	var (
		exists   bool
		owner    string
		garrison *big.Int
		until    time.Time
	)
	g.Go(func() error {
		var err error
		if exists, err = p.reader.TerritoryExists(ctx, id); err != nil {
			p.log.Debug("exists read failed", "territory", id, "error", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if owner, err = p.reader.TerritoryOwner(ctx, id); err != nil {
			p.log.Debug("owner read failed", "territory", id, "error", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if garrison, err = p.reader.TerritoryGarrison(ctx, id); err != nil {
			p.log.Debug("garrison read failed", "territory", id, "error", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if until, err = p.reader.SpawnProtectionUntil(ctx, id); err != nil {
			p.log.Debug("protection read failed", "territory", id, "error", err)
		}
		return nil
	})
	_ = g.Wait()

	v.Exists = exists
	v.Owner = strings.ToLower(owner)
	if garrison != nil {
		v.GarrisonRaw = garrison
		v.Garrison = domain.FormatAmount(garrison)
	}
	v.SpawnProtectedUntil = until
	v.UpdatedAt = time.Now()

	p.mu.Lock()
	stale := p.seq[id] != ticket
	if !stale {
		p.views[id] = v
	}
	p.mu.Unlock()

	if stale {
		p.log.Debug("discarding stale refresh", "territory", id)
		p.mu.RLock()
		v = p.views[id]
		p.mu.RUnlock()
		return v
	}

	if p.onUpdate != nil {
		p.onUpdate(v)
	}
	return v
}

// RefreshAll refreshes every territory the contract reports. Territories are
// refreshed concurrently; the count read is the only hard failure.
func (p *Projector) RefreshAll(ctx context.Context) error {
	count, err := p.reader.TerritoryCount(ctx)
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for id := 0; id < count; id++ {
		g.Go(func() error {
			p.Refresh(ctx, id)
			return nil
		})
	}
	return g.Wait()
}

// View returns the cached projection for a territory. An id never refreshed
// yields the empty view and false.
func (p *Projector) View(id int) (domain.TerritoryView, bool) {
	p.mu.RLock()
	v, ok := p.views[id]
	p.mu.RUnlock()
	if !ok {
		return domain.EmptyTerritoryView(id), false
	}
	return v, true
}

// Invalidate re-reads the given territories after a confirmed transaction.
func (p *Projector) Invalidate(ctx context.Context, ids ...int) {
	for _, id := range ids {
		p.Refresh(ctx, id)
	}
}

// Player assembles the account-level projection for addr. Like territory
// reads, every fact degrades independently to its zero value.
func (p *Projector) Player(ctx context.Context, addr string) domain.PlayerState {
	st := domain.PlayerState{
		Address:        addr,
		BalanceRaw:     new(big.Int),
		Balance:        "0",
		AllowanceRaw:   new(big.Int),
		EscrowAllowRaw: new(big.Int),
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if b, err := p.reader.ArmyBalance(ctx, addr); err == nil && b != nil {
			st.BalanceRaw = b
		}
		return nil
	})
	g.Go(func() error {
		if a, err := p.reader.ArmyAllowance(ctx, addr, p.gameAddr); err == nil && a != nil {
			st.AllowanceRaw = a
		}
		return nil
	})
	g.Go(func() error {
		if a, err := p.reader.ArmyAllowance(ctx, addr, p.escrowAddr); err == nil && a != nil {
			st.EscrowAllowRaw = a
		}
		return nil
	})
	g.Go(func() error {
		if ts, err := p.reader.LastClaim(ctx, addr); err == nil {
			st.LastClaim = ts
		}
		return nil
	})
	_ = g.Wait()

	st.Balance = domain.FormatAmount(st.BalanceRaw)
	return st
}

// ScanOwned lists the cached territories owned by addr, in catalog order.
func (p *Projector) ScanOwned(addr string) []domain.OwnedTerritory {
	p.mu.RLock()
	defer p.mu.RUnlock()

	var owned []domain.OwnedTerritory
	for _, c := range p.graph.Countries() {
		id, ok := p.graph.ContractID(c.Code)
		if !ok {
			continue
		}
		v, ok := p.views[id]
		if !ok || !v.OwnedBy(addr) {
			continue
		}
		owned = append(owned, domain.OwnedTerritory{
			ID:       id,
			Name:     c.Name,
			Garrison: v.Garrison,
		})
	}
	return owned
}
