package session

import (
	"context"
	"errors"
	"sync"

	"github.com/couchcryptid/safepath-navigator/internal/domain"
)

var errBackend = errors.New("backend unavailable")

// fakeCrimes answers filter queries from a queue of canned results. A result
// with a non-nil gate blocks until the gate is closed.
type fakeCrimes struct {
	mu      sync.Mutex
	results []crimeResult
	ranged   []domain.CrimeRecord
	rangeErr error
	queries  []domain.CrimeQuery
}

type crimeResult struct {
	records []domain.CrimeRecord
	err     error
	gate    chan struct{}
}

func (f *fakeCrimes) push(r crimeResult) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.results = append(f.results, r)
}

func (f *fakeCrimes) CrimeTypes(context.Context) ([]string, error) {
	return []string{"ASSAULT OFFENSES", "ROBBERY"}, nil
}

func (f *fakeCrimes) FilterQuery(_ context.Context, q domain.CrimeQuery) ([]domain.CrimeRecord, error) {
	f.mu.Lock()
	f.queries = append(f.queries, q)
	var r crimeResult
	if len(f.results) > 0 {
		r, f.results = f.results[0], f.results[1:]
	}
	f.mu.Unlock()

	if r.gate != nil {
		<-r.gate
	}
	return r.records, r.err
}

func (f *fakeCrimes) RangeQuery(context.Context, domain.RangeQuery) ([]domain.CrimeRecord, error) {
	if f.rangeErr != nil {
		return nil, f.rangeErr
	}
	return f.ranged, nil
}

func (f *fakeCrimes) lastQuery() domain.CrimeQuery {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.queries[len(f.queries)-1]
}

// fakeDirections returns candidates, or err. Calls consume gates and
// callErrs in order; a queued error overrides err for that call only.
type fakeDirections struct {
	mu         sync.Mutex
	candidates []domain.RouteCandidate
	err        error
	gates      []chan struct{}
	callErrs   []error
}

func (f *fakeDirections) Routes(context.Context, string, string) ([]domain.RouteCandidate, error) {
	f.mu.Lock()
	var gate chan struct{}
	if len(f.gates) > 0 {
		gate, f.gates = f.gates[0], f.gates[1:]
	}
	err := f.err
	if len(f.callErrs) > 0 {
		err, f.callErrs = f.callErrs[0], f.callErrs[1:]
	}
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if err != nil {
		return nil, err
	}
	return f.candidates, nil
}

type fakeRisk struct {
	analysis *domain.RiskAnalysis
	err      error
	calls    int
	got      []domain.RouteCandidate
}

func (f *fakeRisk) AnalyzeRoutes(_ context.Context, candidates []domain.RouteCandidate) (*domain.RiskAnalysis, error) {
	f.calls++
	f.got = candidates
	return f.analysis, f.err
}

type fakePublisher struct {
	mu    sync.Mutex
	plans []domain.RoutePlan
	err   error
}

func (f *fakePublisher) Publish(_ context.Context, plan domain.RoutePlan) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.plans = append(f.plans, plan)
	return f.err
}
