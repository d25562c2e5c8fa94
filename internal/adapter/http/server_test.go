package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	httpadapter "github.com/couchcryptid/safepath-navigator/internal/adapter/http"
	"github.com/couchcryptid/safepath-navigator/internal/domain"
	"github.com/couchcryptid/safepath-navigator/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockReadiness struct {
	err error
}

func (m *mockReadiness) CheckReadiness(_ context.Context) error { return m.err }

type stubCatalog struct{ types []string }

func (s stubCatalog) Types(context.Context) []string { return s.types }

// stubNavigator records the last inputs and returns canned outputs.
type stubNavigator struct {
	filter    domain.FilterState
	records   []domain.CrimeRecord
	viewport  *domain.Viewport
	bounds    *domain.Bounds
	plan      *domain.RoutePlan
	planErr   error
	states    []domain.DisplayState
	lastIndex int
	action    string
}

func (n *stubNavigator) Filter() domain.FilterState { return n.filter }

func (n *stubNavigator) SetFilter(_ context.Context, f domain.FilterState) []domain.CrimeRecord {
	n.filter = f
	return n.records
}

func (n *stubNavigator) Records() []domain.CrimeRecord { return n.records }

func (n *stubNavigator) RefreshCrimes(_ context.Context, vp domain.Viewport) []domain.CrimeRecord {
	n.viewport = &vp
	return n.records
}

func (n *stubNavigator) RangeCrimes(_ context.Context, b domain.Bounds) []domain.CrimeRecord {
	n.bounds = &b
	return n.records
}

func (n *stubNavigator) PlanRoutes(_ context.Context, origin, destination string) (domain.RoutePlan, error) {
	if err := domain.ValidateTrip(origin, destination); err != nil {
		return domain.RoutePlan{}, err
	}
	if n.planErr != nil {
		return domain.RoutePlan{}, n.planErr
	}
	return *n.plan, nil
}

func (n *stubNavigator) Plan() (domain.RoutePlan, bool) {
	if n.plan == nil {
		return domain.RoutePlan{}, false
	}
	return *n.plan, true
}

func (n *stubNavigator) interact(action string, i int) ([]domain.DisplayState, error) {
	if n.plan == nil || i >= len(n.plan.Routes) {
		return nil, domain.ErrUnknownRoute
	}
	n.action, n.lastIndex = action, i
	return n.states, nil
}

func (n *stubNavigator) Hover(i int) ([]domain.DisplayState, error)  { return n.interact("hover", i) }
func (n *stubNavigator) Leave(i int) ([]domain.DisplayState, error)  { return n.interact("leave", i) }
func (n *stubNavigator) Select(i int) ([]domain.DisplayState, error) { return n.interact("select", i) }
func (n *stubNavigator) DisplayStates() []domain.DisplayState        { return n.states }

func newTestServer(nav *stubNavigator, readyErr error) *httpadapter.Server {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	catalog := stubCatalog{types: []string{"ASSAULT OFFENSES", "ROBBERY"}}
	return httpadapter.NewServer(":0", nav, catalog, &mockReadiness{err: readyErr}, logger)
}

func do(t *testing.T, srv *httpadapter.Server, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(method, target, r))
	return rec
}

func samplePlan() *domain.RoutePlan {
	candidates := []domain.RouteCandidate{{Summary: "I-5 S"}, {Summary: "Aurora Ave"}}
	analysis := &domain.RiskAnalysis{Routes: []domain.RouteRisk{{TotalRiskScore: 5}, {TotalRiskScore: 1}}}
	return &domain.RoutePlan{ID: "plan-1", Origin: "A", Destination: "B", Routes: domain.RankRoutes(candidates, analysis)}
}

// --- health ---

func TestHealthzReturns200(t *testing.T) {
	rec := do(t, newTestServer(&stubNavigator{}, nil), http.MethodGet, "/healthz", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}

func TestReadyzReturns200WhenReady(t *testing.T) {
	rec := do(t, newTestServer(&stubNavigator{}, nil), http.MethodGet, "/readyz", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ready", body["status"])
}

func TestReadyzReturns503WhenNotReady(t *testing.T) {
	rec := do(t, newTestServer(&stubNavigator{}, fmt.Errorf("not ready yet")), http.MethodGet, "/readyz", nil)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "not ready", body["status"])
	assert.Equal(t, "not ready yet", body["error"])
}

func TestMetricsEndpoint(t *testing.T) {
	rec := do(t, newTestServer(&stubNavigator{}, nil), http.MethodGet, "/metrics", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

// --- crimes and filter ---

func TestCrimeTypes(t *testing.T) {
	rec := do(t, newTestServer(&stubNavigator{}, nil), http.MethodGet, "/api/crime-types", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `["ASSAULT OFFENSES","ROBBERY"]`, rec.Body.String())
}

func TestPutFilter_Preset(t *testing.T) {
	nav := &stubNavigator{records: []domain.CrimeRecord{}}
	srv := newTestServer(nav, nil)

	rec := do(t, srv, http.MethodPut, "/api/filter", map[string]any{
		"crime_types": []string{"ROBBERY", "ASSAULT OFFENSES"},
		"preset":      "24h",
	})

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, []string{"ASSAULT OFFENSES", "ROBBERY"}, nav.filter.Types())
	assert.Equal(t, 1.0, nav.filter.TimeRange.RelativeDays)
	assert.Nil(t, nav.filter.TimeRange.Custom)
	assert.Contains(t, rec.Body.String(), `"crime_types":["ASSAULT OFFENSES","ROBBERY"]`)
}

func TestPutFilter_CustomRangeWinsOverPreset(t *testing.T) {
	nav := &stubNavigator{}
	srv := newTestServer(nav, nil)

	rec := do(t, srv, http.MethodPut, "/api/filter", map[string]any{
		"preset": "7d",
		"start":  "2025-05-01T08:00",
		"end":    "2025-05-02T08:00",
	})

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, nav.filter.TimeRange.Custom)
	assert.Zero(t, nav.filter.TimeRange.RelativeDays)
	assert.Equal(t, time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC), nav.filter.TimeRange.Custom.Start)
}

func TestPutFilter_BadInput(t *testing.T) {
	srv := newTestServer(&stubNavigator{}, nil)

	rec := do(t, srv, http.MethodPut, "/api/filter", map[string]any{"preset": "forever"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, srv, http.MethodPut, "/api/filter", map[string]any{"start": "yesterday", "end": "today"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	bad := httptest.NewRecorder()
	srv.ServeHTTP(bad, httptest.NewRequest(http.MethodPut, "/api/filter", bytes.NewReader([]byte(`{`))))
	assert.Equal(t, http.StatusBadRequest, bad.Code)
}

func TestPutFilter_NonFinitePresetRejected(t *testing.T) {
	for _, preset := range []string{"nan", "NaN", "inf", "+Inf", "Infinity", "1e300", "3651d"} {
		t.Run(preset, func(t *testing.T) {
			nav := &stubNavigator{filter: domain.NewFilterState([]string{"ROBBERY"}, domain.Relative(7))}
			srv := newTestServer(nav, nil)

			rec := do(t, srv, http.MethodPut, "/api/filter", map[string]any{
				"crime_types": []string{"ROBBERY"},
				"preset":      preset,
			})
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), "unknown time preset")

			rec = do(t, srv, http.MethodGet, "/api/filter", nil)
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Contains(t, rec.Body.String(), `"relative_days":7`)
		})
	}
}

func TestGetFilter_EncodeFailureIs500(t *testing.T) {
	nav := &stubNavigator{filter: domain.FilterState{TimeRange: domain.TimeRange{RelativeDays: math.NaN()}}}
	srv := newTestServer(nav, nil)

	rec := do(t, srv, http.MethodGet, "/api/filter", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"response encoding failed"}`, rec.Body.String())
}

func TestRefreshCrimes(t *testing.T) {
	nav := &stubNavigator{records: []domain.CrimeRecord{{ID: "1", Type: "ROBBERY"}}}
	srv := newTestServer(nav, nil)

	rec := do(t, srv, http.MethodPost, "/api/crimes/refresh", map[string]any{
		"bounds": map[string]any{
			"northeast": map[string]float64{"lat": 47.62, "lng": -122.32},
			"southwest": map[string]float64{"lat": 47.60, "lng": -122.35},
		},
		"center": map[string]float64{"lat": 47.61, "lng": -122.33},
	})

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, nav.viewport)
	require.NotNil(t, nav.viewport.Center)
	assert.Equal(t, 47.61, nav.viewport.Center.Lat)

	var body struct {
		Count   int                  `json:"count"`
		Records []domain.CrimeRecord `json:"records"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Count)
}

func TestRefreshCrimes_RequiresBounds(t *testing.T) {
	rec := do(t, newTestServer(&stubNavigator{}, nil), http.MethodPost, "/api/crimes/refresh", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRangeCrimes(t *testing.T) {
	nav := &stubNavigator{records: []domain.CrimeRecord{}}
	srv := newTestServer(nav, nil)

	rec := do(t, srv, http.MethodGet, "/api/crimes/range?min_lat=47.5&max_lat=47.7&min_lng=-122.4&max_lng=-122.2", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, nav.bounds)
	assert.Equal(t, domain.LatLng{Lat: 47.7, Lng: -122.2}, nav.bounds.NorthEast)
	assert.Equal(t, domain.LatLng{Lat: 47.5, Lng: -122.4}, nav.bounds.SouthWest)

	rec = do(t, srv, http.MethodGet, "/api/crimes/range?min_lat=47.5", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "max_lat")
}

// --- routes ---

func TestPlanRoutes(t *testing.T) {
	nav := &stubNavigator{plan: samplePlan(), states: []domain.DisplayState{"normal", "normal"}}
	srv := newTestServer(nav, nil)

	rec := do(t, srv, http.MethodPost, "/api/routes", map[string]string{"origin": "A", "destination": "B"})
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Plan struct {
			ID     string `json:"id"`
			Routes []struct {
				OriginalIndex int    `json:"original_index"`
				Summary       string `json:"summary"`
			} `json:"routes"`
		} `json:"plan"`
		States []string `json:"states"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "plan-1", body.Plan.ID)
	assert.Equal(t, "Aurora Ave", body.Plan.Routes[0].Summary)
	assert.Equal(t, 1, body.Plan.Routes[0].OriginalIndex)
	assert.Len(t, body.States, 2)
}

func TestPlanRoutes_ErrorMapping(t *testing.T) {
	tests := []struct {
		name    string
		trip    map[string]string
		planErr error
		want    int
	}{
		{"missing endpoints", map[string]string{"origin": "A"}, nil, http.StatusBadRequest},
		{"directions failed", map[string]string{"origin": "A", "destination": "B"}, fmt.Errorf("%w: timeout", domain.ErrDirectionsFailed), http.StatusBadGateway},
		{"superseded", map[string]string{"origin": "A", "destination": "B"}, session.ErrSuperseded, http.StatusConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nav := &stubNavigator{plan: samplePlan(), planErr: tt.planErr}
			rec := do(t, newTestServer(nav, nil), http.MethodPost, "/api/routes", tt.trip)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestGetRoutes_NoPlan(t *testing.T) {
	rec := do(t, newTestServer(&stubNavigator{}, nil), http.MethodGet, "/api/routes", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouteInteractions(t *testing.T) {
	nav := &stubNavigator{plan: samplePlan(), states: []domain.DisplayState{"dimmed", "highlighted"}}
	srv := newTestServer(nav, nil)

	for _, action := range []string{"hover", "leave", "select"} {
		rec := do(t, srv, http.MethodPost, "/api/routes/1/"+action, nil)
		require.Equal(t, http.StatusOK, rec.Code, action)
		assert.Equal(t, action, nav.action)
		assert.Equal(t, 1, nav.lastIndex)
		assert.JSONEq(t, `{"states":["dimmed","highlighted"]}`, rec.Body.String())
	}

	rec := do(t, srv, http.MethodPost, "/api/routes/9/select", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, srv, http.MethodPost, "/api/routes/1/wiggle", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
