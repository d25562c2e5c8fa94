package directions

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/couchcryptid/safepath-navigator/internal/domain"
	"github.com/couchcryptid/safepath-navigator/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const directionsPath = "/maps/api/directions/json"

// Two alternatives, the first spanning two legs.
const directionsOK = `{
  "status": "OK",
  "geocoded_waypoints": [],
  "routes": [
    {
      "summary": "I-5 S",
      "legs": [
        {"steps": [
          {"html_instructions": "Head <b>south</b>", "distance": {"text": "0.2 km", "value": 200},
           "duration": {"text": "1 min", "value": 45},
           "start_location": {"lat": 47.6097, "lng": -122.3331},
           "end_location": {"lat": 47.6080, "lng": -122.3340},
           "polyline": {"points": "_p~iF~ps|U_ulLnnqC"}, "travel_mode": "DRIVING"}
        ]},
        {"steps": [
          {"html_instructions": "Merge onto I-5", "distance": {"text": "5.0 km", "value": 5000},
           "duration": {"text": "5 mins", "value": 300},
           "start_location": {"lat": 47.6080, "lng": -122.3340},
           "end_location": {"lat": 47.5600, "lng": -122.3200},
           "polyline": {"points": ""}, "travel_mode": "DRIVING"}
        ]}
      ],
      "overview_polyline": {"points": ""}
    },
    {
      "summary": "Aurora Ave N",
      "legs": [{"steps": [
        {"html_instructions": "Head north", "distance": {"text": "0.3 km", "value": 300},
         "duration": {"text": "1 min", "value": 50},
         "start_location": {"lat": 47.6097, "lng": -122.3331},
         "end_location": {"lat": 47.6120, "lng": -122.3331},
         "polyline": {"points": ""}, "travel_mode": "DRIVING"}
      ]}],
      "overview_polyline": {"points": ""}
    }
  ]
}`

func testProvider(t *testing.T, baseURL string) *Provider {
	t.Helper()
	p, err := NewProvider("test-key", baseURL, 5*time.Second,
		observability.NewMetricsForTesting(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return p
}

func TestProvider_Routes_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, directionsPath, r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "Pike Place Market", q.Get("origin"))
		assert.Equal(t, "Columbia City", q.Get("destination"))
		assert.Equal(t, "true", q.Get("alternatives"))
		assert.Equal(t, "test-key", q.Get("key"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(directionsOK))
	}))
	defer srv.Close()

	p := testProvider(t, srv.URL)
	routes, err := p.Routes(context.Background(), "Pike Place Market", "Columbia City")
	require.NoError(t, err)
	require.Len(t, routes, 2)

	first := routes[0]
	assert.Equal(t, "I-5 S", first.Summary)
	require.Len(t, first.Legs, 2)
	steps := first.FlatSteps()
	require.Len(t, steps, 2)

	s := steps[0]
	assert.Equal(t, "Head <b>south</b>", s.Instructions)
	assert.Equal(t, domain.TextValue{Text: "0.2 km", Value: 200}, s.Distance)
	assert.Equal(t, 45, s.Duration.Value)
	assert.Equal(t, "45 secs", s.Duration.Text)
	assert.Equal(t, domain.LatLng{Lat: 47.6097, Lng: -122.3331}, s.Start)
	assert.Equal(t, "_p~iF~ps|U_ulLnnqC", s.Polyline)
	require.Len(t, s.Path, 2)
	assert.InDelta(t, 38.5, s.Path[0].Lat, 1e-5)
	assert.InDelta(t, -120.2, s.Path[0].Lng, 1e-5)

	assert.Empty(t, steps[1].Path, "empty polyline decodes to no path")
	assert.Equal(t, 5200, first.DistanceMeters())
}

func TestProvider_Routes_ZeroResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ZERO_RESULTS","routes":[]}`))
	}))
	defer srv.Close()

	p := testProvider(t, srv.URL)
	_, err := p.Routes(context.Background(), "Seattle", "Honolulu")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrDirectionsFailed))
}

func TestProvider_Routes_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	p := testProvider(t, srv.URL)
	_, err := p.Routes(context.Background(), "A", "B")
	assert.ErrorIs(t, err, domain.ErrDirectionsFailed)
}
