// Package directions adapts the Google Directions API to domain.DirectionsProvider.
package directions

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/safepath-navigator/internal/domain"
	"github.com/couchcryptid/safepath-navigator/internal/observability"
	"googlemaps.github.io/maps"
)

// Provider computes driving alternatives with the Google Directions API.
type Provider struct {
	client  *maps.Client
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewProvider creates a directions provider authenticated with apiKey. An
// empty baseURL uses the public Google endpoint.
func NewProvider(apiKey, baseURL string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) (*Provider, error) {
	clientOpts := []maps.ClientOption{
		maps.WithAPIKey(apiKey),
		maps.WithHTTPClient(&http.Client{Timeout: timeout}),
	}
	if baseURL != "" {
		clientOpts = append(clientOpts, maps.WithBaseURL(baseURL))
	}
	client, err := maps.NewClient(clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("create maps client: %w", err)
	}
	return &Provider{client: client, metrics: metrics, logger: logger}, nil
}

// Routes asks for driving directions with alternatives. Every failure,
// including a ZERO_RESULTS status, is reported as domain.ErrDirectionsFailed.
func (p *Provider) Routes(ctx context.Context, origin, destination string) ([]domain.RouteCandidate, error) {
	req := &maps.DirectionsRequest{
		Origin:       origin,
		Destination:  destination,
		Mode:         maps.TravelModeDriving,
		Alternatives: true,
	}

	start := time.Now()
	routes, _, err := p.client.Directions(ctx, req)
	p.metrics.BackendDuration.WithLabelValues("directions").Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrDirectionsFailed, err)
	}
	if len(routes) == 0 {
		return nil, fmt.Errorf("%w: no routes between %q and %q", domain.ErrDirectionsFailed, origin, destination)
	}

	candidates := make([]domain.RouteCandidate, 0, len(routes))
	for _, r := range routes {
		candidates = append(candidates, p.toCandidate(r))
	}
	return candidates, nil
}

func (p *Provider) toCandidate(r maps.Route) domain.RouteCandidate {
	c := domain.RouteCandidate{Summary: r.Summary, Legs: make([]domain.Leg, 0, len(r.Legs))}
	for _, leg := range r.Legs {
		if leg == nil {
			continue
		}
		steps := make([]domain.Step, 0, len(leg.Steps))
		for _, s := range leg.Steps {
			if s == nil {
				continue
			}
			steps = append(steps, p.toStep(s))
		}
		c.Legs = append(c.Legs, domain.Leg{Steps: steps})
	}
	return c
}

func (p *Provider) toStep(s *maps.Step) domain.Step {
	seconds := int(s.Duration / time.Second)
	step := domain.Step{
		Instructions: s.HTMLInstructions,
		Distance:     domain.TextValue{Text: s.Distance.HumanReadable, Value: s.Distance.Meters},
		Duration:     domain.TextValue{Text: domain.FormatDuration(seconds), Value: seconds},
		Start:        toLatLng(s.StartLocation),
		End:          toLatLng(s.EndLocation),
		Polyline:     s.Polyline.Points,
	}
	if step.Polyline != "" {
		path, err := maps.DecodePolyline(step.Polyline)
		if err != nil {
			p.logger.Warn("undecodable step polyline", "error", err)
		} else {
			step.Path = make([]domain.LatLng, len(path))
			for i, ll := range path {
				step.Path[i] = toLatLng(ll)
			}
		}
	}
	return step
}

func toLatLng(ll maps.LatLng) domain.LatLng {
	return domain.LatLng{Lat: ll.Lat, Lng: ll.Lng}
}
