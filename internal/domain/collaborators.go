package domain

import "context"

// CrimeSource fetches crime reports from the SafePath crime backend.
type CrimeSource interface {
	// CrimeTypes lists the crime types the backend knows about, in display order.
	CrimeTypes(ctx context.Context) ([]string, error)

	// FilterQuery runs a radius query.
	FilterQuery(ctx context.Context, q CrimeQuery) ([]CrimeRecord, error)

	// RangeQuery runs a bounding-box query.
	RangeQuery(ctx context.Context, q RangeQuery) ([]CrimeRecord, error)
}

// RiskScorer scores candidate routes. The returned analysis is aligned by
// index with candidates.
type RiskScorer interface {
	AnalyzeRoutes(ctx context.Context, candidates []RouteCandidate) (*RiskAnalysis, error)
}

// DirectionsProvider computes driving alternatives between two places.
type DirectionsProvider interface {
	Routes(ctx context.Context, origin, destination string) ([]RouteCandidate, error)
}
