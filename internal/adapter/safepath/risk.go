package safepath

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/couchcryptid/safepath-navigator/internal/domain"
	"github.com/couchcryptid/safepath-navigator/internal/observability"
)

const riskPath = "/api/routes/risk"

// RiskClient implements domain.RiskScorer against the route-risk service.
type RiskClient struct {
	httpClient *http.Client
	baseURL    string
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewRiskClient creates a risk backend client rooted at baseURL.
func NewRiskClient(baseURL string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *RiskClient {
	return &RiskClient{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		metrics:    metrics,
		logger:     logger,
	}
}

// AnalyzeRoutes posts the candidates and returns the backend's analysis,
// aligned by index with candidates.
func (c *RiskClient) AnalyzeRoutes(ctx context.Context, candidates []domain.RouteCandidate) (*domain.RiskAnalysis, error) {
	payload, err := json.Marshal(newRiskRequest(candidates))
	if err != nil {
		return nil, fmt.Errorf("encode risk request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+riskPath, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.BackendDuration.WithLabelValues("risk").Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.RiskRequests.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("risk request: %w", err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp, "risk"); err != nil {
		c.metrics.RiskRequests.WithLabelValues("error").Inc()
		c.logger.Warn("risk backend rejected request", "status", statusLabel(err), "routes", len(candidates))
		return nil, err
	}

	var analysis domain.RiskAnalysis
	if err := json.NewDecoder(resp.Body).Decode(&analysis); err != nil {
		c.metrics.RiskRequests.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("decode risk response: %w", err)
	}
	c.metrics.RiskRequests.WithLabelValues("success").Inc()

	for i := range analysis.Routes {
		if analysis.Routes[i].RouteName == "" && i < len(candidates) {
			analysis.Routes[i].RouteName = candidates[i].Summary
		}
	}
	return &analysis, nil
}

// Risk service request types. The service expects the directions provider's
// own JSON layout, so polylines are nested under "points".

type riskRequest struct {
	Routes []riskRoute `json:"routes"`
}

type riskRoute struct {
	Summary string    `json:"summary"`
	Legs    []riskLeg `json:"legs"`
}

type riskLeg struct {
	Steps []riskStep `json:"steps"`
}

type riskStep struct {
	Instructions  string           `json:"instructions"`
	Distance      domain.TextValue `json:"distance"`
	Duration      domain.TextValue `json:"duration"`
	StartLocation domain.LatLng    `json:"start_location"`
	EndLocation   domain.LatLng    `json:"end_location"`
	Polyline      riskPolyline     `json:"polyline"`
}

type riskPolyline struct {
	Points string `json:"points"`
}

func newRiskRequest(candidates []domain.RouteCandidate) riskRequest {
	req := riskRequest{Routes: make([]riskRoute, len(candidates))}
	for i, c := range candidates {
		route := riskRoute{Summary: c.Summary, Legs: make([]riskLeg, len(c.Legs))}
		for j, leg := range c.Legs {
			steps := make([]riskStep, len(leg.Steps))
			for k, s := range leg.Steps {
				steps[k] = riskStep{
					Instructions:  s.Instructions,
					Distance:      s.Distance,
					Duration:      s.Duration,
					StartLocation: s.Start,
					EndLocation:   s.End,
					Polyline:      riskPolyline{Points: s.Polyline},
				}
			}
			route.Legs[j] = riskLeg{Steps: steps}
		}
		req.Routes[i] = route
	}
	return req
}
