// Package session owns the navigator's per-map state: the active filter, the
// crime records on screen, and the current ranked route plan with its
// highlight state.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	"github.com/couchcryptid/safepath-navigator/internal/domain"
	"github.com/couchcryptid/safepath-navigator/internal/observability"
	"github.com/google/uuid"
)

// ErrSuperseded is returned by PlanRoutes when a plan from a newer request was
// stored before this one finished. The stale plan is discarded.
var ErrSuperseded = errors.New("route request superseded by a newer request")

// PlanPublisher receives every plan that becomes current.
type PlanPublisher interface {
	Publish(ctx context.Context, plan domain.RoutePlan) error
}

// Options wires a Controller to its collaborators. Directions and Publisher
// may be nil; route planning then fails and publication is skipped.
type Options struct {
	Crimes     domain.CrimeSource
	Risk       domain.RiskScorer
	Directions domain.DirectionsProvider
	Publisher  PlanPublisher
	QueryLimit int
}

// Controller serializes state changes behind a mutex. Crime refreshes and
// route plans carry independent sequence numbers so a slow response never
// overwrites a newer one.
type Controller struct {
	crimes     domain.CrimeSource
	risk       domain.RiskScorer
	directions domain.DirectionsProvider
	publisher  PlanPublisher
	queryLimit int
	metrics    *observability.Metrics
	logger     *slog.Logger

	mu        sync.Mutex
	filter    domain.FilterState
	viewport  *domain.Viewport
	records   []domain.CrimeRecord
	plan      *domain.RoutePlan
	highlight domain.Highlighter
	crimeSeq  sequence
	routeSeq  sequence
}

// New creates a Controller with an empty filter.
func New(opts Options, metrics *observability.Metrics, logger *slog.Logger) *Controller {
	return &Controller{
		crimes:     opts.Crimes,
		risk:       opts.Risk,
		directions: opts.Directions,
		publisher:  opts.Publisher,
		queryLimit: opts.QueryLimit,
		metrics:    metrics,
		logger:     logger,
		records:    []domain.CrimeRecord{},
	}
}

// Filter returns a copy of the active filter.
func (c *Controller) Filter() domain.FilterState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.filter.Clone()
}

// SetFilter replaces the active filter. When a viewport has already been
// reported the records are refreshed against it; the current records are
// returned either way.
func (c *Controller) SetFilter(ctx context.Context, f domain.FilterState) []domain.CrimeRecord {
	c.mu.Lock()
	c.filter = f.Clone()
	vp := c.viewport
	c.mu.Unlock()

	if vp == nil {
		return c.Records()
	}
	return c.RefreshCrimes(ctx, *vp)
}

// Records returns a copy of the records currently on screen.
func (c *Controller) Records() []domain.CrimeRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	return cloneRecords(c.records)
}

// RefreshCrimes queries the crime backend for the viewport under the active
// filter and stores the filtered result if no newer refresh was issued in the
// meantime. Backend failures store an empty list. The returned records are
// whatever is current once this refresh has been applied or discarded.
func (c *Controller) RefreshCrimes(ctx context.Context, vp domain.Viewport) []domain.CrimeRecord {
	c.mu.Lock()
	seq := c.crimeSeq.next()
	f := c.filter.Clone()
	c.viewport = &vp
	c.mu.Unlock()

	q := domain.BuildQuery(f, vp, domain.Now(), c.queryLimit)
	raw, err := c.crimes.FilterQuery(ctx, q)
	if err != nil {
		c.logger.Warn("crime query failed, showing no records",
			"error", err, "radius_m", q.RadiusMeters, "types", len(q.CrimeTypes))
		raw = nil
	}
	filtered := domain.FilterRecords(f, raw)
	c.metrics.RecordsFiltered.Add(float64(len(raw) - len(filtered)))

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.crimeSeq.isLatest(seq) {
		c.metrics.StaleResponses.WithLabelValues("crimes").Inc()
		c.logger.Debug("discarding stale crime response", "seq", seq)
		return cloneRecords(c.records)
	}
	c.records = filtered
	return cloneRecords(filtered)
}

// RangeCrimes runs a bounding-box query under the active filter's types and
// time window. Records with coordinates outside the box are dropped; records
// without coordinates are kept. It does not change the records on screen.
func (c *Controller) RangeCrimes(ctx context.Context, b domain.Bounds) []domain.CrimeRecord {
	f := c.Filter()
	raw, err := c.crimes.RangeQuery(ctx, domain.BuildRangeQuery(f, b, domain.Now()))
	if err != nil {
		c.logger.Warn("crime range query failed", "error", err)
		return []domain.CrimeRecord{}
	}

	out := make([]domain.CrimeRecord, 0, len(raw))
	for _, rec := range domain.FilterRecords(f, raw) {
		if rec.Coordinates != nil && !b.Contains(*rec.Coordinates) {
			continue
		}
		out = append(out, rec)
	}
	c.metrics.RecordsFiltered.Add(float64(len(raw) - len(out)))
	return out
}

// PlanRoutes computes driving alternatives, scores them, and ranks them by
// ascending risk. A failed risk call leaves the routes unscored in their
// original order. Directions failures are returned as
// domain.ErrDirectionsFailed. A plan finishing after a newer plan was stored
// returns ErrSuperseded; newer requests that fail do not supersede it.
func (c *Controller) PlanRoutes(ctx context.Context, origin, destination string) (domain.RoutePlan, error) {
	if err := domain.ValidateTrip(origin, destination); err != nil {
		return domain.RoutePlan{}, err
	}
	if c.directions == nil {
		return domain.RoutePlan{}, fmt.Errorf("%w: no directions provider configured", domain.ErrDirectionsFailed)
	}

	c.mu.Lock()
	seq := c.routeSeq.next()
	c.mu.Unlock()

	candidates, err := c.directions.Routes(ctx, origin, destination)
	if err != nil {
		if !errors.Is(err, domain.ErrDirectionsFailed) {
			err = fmt.Errorf("%w: %w", domain.ErrDirectionsFailed, err)
		}
		return domain.RoutePlan{}, err
	}
	if len(candidates) > domain.MaxRouteCandidates {
		candidates = candidates[:domain.MaxRouteCandidates]
	}

	analysis := c.scoreRoutes(ctx, candidates)
	plan := domain.RoutePlan{
		ID:          uuid.NewString(),
		Origin:      origin,
		Destination: destination,
		Routes:      domain.RankRoutes(candidates, analysis),
		CreatedAt:   domain.Now(),
	}

	c.mu.Lock()
	if !c.routeSeq.apply(seq) {
		c.mu.Unlock()
		c.metrics.StaleResponses.WithLabelValues("routes").Inc()
		return domain.RoutePlan{}, ErrSuperseded
	}
	c.plan = &plan
	c.highlight = domain.Highlighter{}
	c.mu.Unlock()

	c.metrics.RoutePlans.WithLabelValues(strconv.FormatBool(plan.Scored())).Inc()
	c.logger.Info("route plan ready",
		"plan_id", plan.ID, "routes", len(plan.Routes), "scored", plan.Scored())
	c.publish(ctx, plan)
	return plan, nil
}

func (c *Controller) scoreRoutes(ctx context.Context, candidates []domain.RouteCandidate) *domain.RiskAnalysis {
	if c.risk == nil || len(candidates) == 0 {
		return nil
	}
	analysis, err := c.risk.AnalyzeRoutes(ctx, candidates)
	if err != nil {
		c.logger.Warn("route risk unavailable, showing unranked routes", "error", err)
		return nil
	}
	return analysis
}

func (c *Controller) publish(ctx context.Context, plan domain.RoutePlan) {
	if c.publisher == nil {
		return
	}
	if err := c.publisher.Publish(ctx, plan); err != nil {
		c.metrics.PublishErrors.Inc()
		c.logger.Warn("route plan publish failed", "plan_id", plan.ID, "error", err)
	}
}

// Plan returns the current route plan, if any.
func (c *Controller) Plan() (domain.RoutePlan, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.plan == nil {
		return domain.RoutePlan{}, false
	}
	return *c.plan, true
}

// Hover highlights the route with the given original index.
func (c *Controller) Hover(originalIndex int) ([]domain.DisplayState, error) {
	return c.interact(originalIndex, (*domain.Highlighter).Hover)
}

// Leave ends a hover on the route with the given original index.
func (c *Controller) Leave(originalIndex int) ([]domain.DisplayState, error) {
	return c.interact(originalIndex, (*domain.Highlighter).Leave)
}

// Select makes the route with the given original index the sticky selection.
func (c *Controller) Select(originalIndex int) ([]domain.DisplayState, error) {
	return c.interact(originalIndex, (*domain.Highlighter).Select)
}

// DisplayStates reports each route's rendering by original index.
func (c *Controller) DisplayStates() []domain.DisplayState {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.plan == nil {
		return []domain.DisplayState{}
	}
	return c.highlight.States(len(c.plan.Routes))
}

func (c *Controller) interact(originalIndex int, apply func(*domain.Highlighter, int)) ([]domain.DisplayState, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.plan == nil {
		return nil, domain.ErrUnknownRoute
	}
	if _, ok := domain.FindOriginal(c.plan.Routes, originalIndex); !ok {
		return nil, fmt.Errorf("%w: %d", domain.ErrUnknownRoute, originalIndex)
	}
	apply(&c.highlight, originalIndex)
	return c.highlight.States(len(c.plan.Routes)), nil
}

func cloneRecords(in []domain.CrimeRecord) []domain.CrimeRecord {
	out := make([]domain.CrimeRecord, len(in))
	copy(out, in)
	return out
}
