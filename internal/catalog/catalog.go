// Package catalog keeps the crime-type list in memory and refreshes it on a
// cron schedule so the filter UI never waits on the crime backend.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/couchcryptid/safepath-navigator/internal/domain"
	"github.com/couchcryptid/safepath-navigator/internal/observability"
	"github.com/robfig/cron/v3"
)

// refreshTimeout bounds one scheduled refresh.
const refreshTimeout = 30 * time.Second

// ErrNotLoaded is reported until the first successful refresh.
var ErrNotLoaded = errors.New("crime type catalog not loaded")

// TypeLister is the part of domain.CrimeSource the catalog needs.
type TypeLister interface {
	CrimeTypes(ctx context.Context) ([]string, error)
}

// Catalog caches the crime-type list.
type Catalog struct {
	source  TypeLister
	metrics *observability.Metrics
	logger  *slog.Logger

	mu       sync.RWMutex
	types    []string
	loadedAt time.Time

	sched *cron.Cron
}

// New creates an empty catalog backed by source.
func New(source TypeLister, metrics *observability.Metrics, logger *slog.Logger) *Catalog {
	return &Catalog{source: source, metrics: metrics, logger: logger}
}

// Refresh reloads the list. On failure the previous list is kept.
func (c *Catalog) Refresh(ctx context.Context) error {
	types, err := c.source.CrimeTypes(ctx)
	if err != nil {
		c.metrics.CatalogRefreshes.WithLabelValues("error").Inc()
		return fmt.Errorf("refresh crime types: %w", err)
	}
	c.metrics.CatalogRefreshes.WithLabelValues("success").Inc()
	c.metrics.CatalogSize.Set(float64(len(types)))

	c.mu.Lock()
	c.types = append([]string(nil), types...)
	c.loadedAt = domain.Now()
	c.mu.Unlock()

	c.logger.Info("crime type catalog refreshed", "types", len(types))
	return nil
}

// Types returns the cached list. If nothing has been loaded yet it tries one
// synchronous refresh; an empty list is returned when that fails.
func (c *Catalog) Types(ctx context.Context) []string {
	if out, ok := c.snapshot(); ok {
		return out
	}
	if err := c.Refresh(ctx); err != nil {
		c.logger.Warn("crime types unavailable", "error", err)
		return []string{}
	}
	out, _ := c.snapshot()
	return out
}

// LoadedAt reports when the list was last refreshed.
func (c *Catalog) LoadedAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loadedAt
}

// CheckReadiness reports ErrNotLoaded until the first successful refresh.
func (c *Catalog) CheckReadiness(_ context.Context) error {
	if c.LoadedAt().IsZero() {
		return ErrNotLoaded
	}
	return nil
}

// Start schedules periodic refreshes. An empty schedule disables them.
func (c *Catalog) Start(schedule string) error {
	if schedule == "" {
		c.logger.Info("crime type catalog refresh disabled")
		return nil
	}
	sched := cron.New()
	_, err := sched.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
		defer cancel()
		if err := c.Refresh(ctx); err != nil {
			c.logger.Warn("scheduled catalog refresh failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("schedule catalog refresh %q: %w", schedule, err)
	}
	c.sched = sched
	sched.Start()
	c.logger.Info("crime type catalog refresh scheduled", "schedule", schedule)
	return nil
}

// Stop halts the schedule and waits for a running refresh to finish or ctx to end.
func (c *Catalog) Stop(ctx context.Context) {
	if c.sched == nil {
		return
	}
	select {
	case <-c.sched.Stop().Done():
	case <-ctx.Done():
	}
}

func (c *Catalog) snapshot() ([]string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.loadedAt.IsZero() {
		return nil, false
	}
	out := make([]string, len(c.types))
	copy(out, c.types)
	return out, true
}
