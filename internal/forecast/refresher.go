package forecast

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"

	"github.com/windwardlabs/regatta-forecast/internal/domain"
	"github.com/windwardlabs/regatta-forecast/internal/observability"
)

// BundleRebuilder rebuilds one area's bundle, bypassing freshness checks.
type BundleRebuilder interface {
	Rebuild(ctx context.Context, area domain.RaceArea) (domain.AreaBundle, error)
}

// Refresher rebuilds every registered area's bundle: once at startup to
// warm the cache, on demand for the refresh endpoint, and on a fixed
// interval when one is configured.
type Refresher struct {
	areas       []domain.RaceArea
	rebuilder   BundleRebuilder
	clock       clockwork.Clock
	interval    time.Duration
	concurrency int
	metrics     *observability.Metrics
	logger      *slog.Logger
	ready       atomic.Bool
}

// NewRefresher creates a Refresher over a fixed set of areas. An interval
// of zero disables the periodic loop; Run then performs only the startup
// pass.
func NewRefresher(areas []domain.RaceArea, rebuilder BundleRebuilder, clock clockwork.Clock, interval time.Duration, concurrency int, metrics *observability.Metrics, logger *slog.Logger) *Refresher {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Refresher{
		areas:       areas,
		rebuilder:   rebuilder,
		clock:       clock,
		interval:    interval,
		concurrency: concurrency,
		metrics:     metrics,
		logger:      logger,
	}
}

// CheckReadiness returns nil once at least one bundle has been built
// successfully, or an error describing why the service is not yet ready.
func (r *Refresher) CheckReadiness(_ context.Context) error {
	if !r.ready.Load() {
		return errors.New("no bundle has been built yet")
	}
	return nil
}

// RefreshAll rebuilds every area with bounded parallelism. Failures are
// isolated per area: the returned map carries an entry for each area that
// failed and nothing else.
func (r *Refresher) RefreshAll(ctx context.Context) map[string]error {
	var (
		mu     sync.Mutex
		failed = make(map[string]error)
	)

	g := new(errgroup.Group)
	g.SetLimit(r.concurrency)
	for _, area := range r.areas {
		g.Go(func() error {
			if _, err := r.rebuilder.Rebuild(ctx, area); err != nil {
				r.logger.Error("area refresh failed", "area", area.Key, "error", err)
				mu.Lock()
				failed[area.Key] = err
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	if len(failed) < len(r.areas) {
		r.ready.Store(true)
	}
	r.logger.Info("refresh pass complete",
		"refreshed", len(r.areas)-len(failed), "failed", len(failed))
	return failed
}

// Run performs the startup refresh pass, then keeps refreshing on the
// configured interval until the context is cancelled. Without an interval
// it returns after the startup pass.
func (r *Refresher) Run(ctx context.Context) error {
	r.metrics.RefreshRunning.Set(1)
	defer r.metrics.RefreshRunning.Set(0)

	r.logger.Info("refresher started",
		"areas", len(r.areas), "interval", r.interval.String(), "concurrency", r.concurrency)
	r.RefreshAll(ctx)

	if r.interval <= 0 {
		return nil
	}

	ticker := r.clock.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			r.logger.Info("refresher stopping", "reason", ctx.Err())
			return nil
		case <-ticker.Chan():
			r.RefreshAll(ctx)
		}
	}
}
