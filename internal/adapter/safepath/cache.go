package safepath

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/couchcryptid/safepath-navigator/internal/domain"
	"github.com/couchcryptid/safepath-navigator/internal/observability"
	lru "github.com/hashicorp/golang-lru/v2"
)

// CachedRiskScorer wraps a RiskScorer with an in-memory LRU cache keyed by the
// serialized candidate set. Repeated trips usually yield identical alternatives.
type CachedRiskScorer struct {
	inner   domain.RiskScorer
	cache   *lru.Cache[string, *domain.RiskAnalysis] // nil when disabled
	metrics *observability.Metrics
}

// NewCachedRiskScorer creates a cache decorator around a risk scorer. A
// non-positive maxEntries disables caching.
func NewCachedRiskScorer(inner domain.RiskScorer, maxEntries int, metrics *observability.Metrics) *CachedRiskScorer {
	c := &CachedRiskScorer{inner: inner, metrics: metrics}
	if maxEntries > 0 {
		// lru.New only fails for a non-positive size.
		c.cache, _ = lru.New[string, *domain.RiskAnalysis](maxEntries)
	}
	return c
}

func (c *CachedRiskScorer) AnalyzeRoutes(ctx context.Context, candidates []domain.RouteCandidate) (*domain.RiskAnalysis, error) {
	if c.cache == nil {
		return c.inner.AnalyzeRoutes(ctx, candidates)
	}
	key, err := cacheKey(candidates)
	if err != nil {
		return c.inner.AnalyzeRoutes(ctx, candidates)
	}
	if analysis, ok := c.cache.Get(key); ok {
		c.metrics.RiskCache.WithLabelValues("hit").Inc()
		return cloneAnalysis(analysis), nil
	}
	c.metrics.RiskCache.WithLabelValues("miss").Inc()

	analysis, err := c.inner.AnalyzeRoutes(ctx, candidates)
	if err != nil {
		return nil, err
	}
	// Failures are never cached so the next plan retries the backend.
	if analysis != nil {
		c.cache.Add(key, cloneAnalysis(analysis))
	}
	return analysis, nil
}

// Len reports the number of cached analyses.
func (c *CachedRiskScorer) Len() int {
	if c.cache == nil {
		return 0
	}
	return c.cache.Len()
}

func cacheKey(candidates []domain.RouteCandidate) (string, error) {
	b, err := json.Marshal(newRiskRequest(candidates))
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}

func cloneAnalysis(a *domain.RiskAnalysis) *domain.RiskAnalysis {
	out := &domain.RiskAnalysis{Routes: make([]domain.RouteRisk, len(a.Routes))}
	for i, r := range a.Routes {
		r.StepRisks = append([]domain.StepRisk(nil), r.StepRisks...)
		out.Routes[i] = r
	}
	return out
}
