package domain

import (
	"fmt"
	"strings"
)

// MaxRouteCandidates is the number of alternatives the presenter considers.
const MaxRouteCandidates = 3

// Risk labels reported per step by the risk backend.
const (
	RiskLow     = "LOW"
	RiskMedium  = "MEDIUM"
	RiskHigh    = "HIGH"
	RiskUnknown = "UNKNOWN"
)

// TextValue is a human-readable quantity with its machine value
// (meters for distance, seconds for duration).
type TextValue struct {
	Text  string `json:"text"`
	Value int    `json:"value"`
}

// Step is one driving instruction.
type Step struct {
	Instructions string    `json:"instructions"`
	Distance     TextValue `json:"distance"`
	Duration     TextValue `json:"duration"`
	Start        LatLng    `json:"start_location"`
	End          LatLng    `json:"end_location"`
	Polyline     string    `json:"polyline"`       // encoded
	Path         []LatLng  `json:"path,omitempty"` // decoded Polyline
}

// Leg is the portion of a route between two waypoints.
type Leg struct {
	Steps []Step `json:"steps"`
}

// RouteCandidate is one alternative returned by the directions provider.
type RouteCandidate struct {
	Summary string `json:"summary"`
	Legs    []Leg  `json:"legs"`
}

// FlatSteps returns the route's steps across all legs, in travel order.
func (r RouteCandidate) FlatSteps() []Step {
	var steps []Step
	for _, leg := range r.Legs {
		steps = append(steps, leg.Steps...)
	}
	return steps
}

// DistanceMeters sums step distances.
func (r RouteCandidate) DistanceMeters() int {
	total := 0
	for _, s := range r.FlatSteps() {
		total += s.Distance.Value
	}
	return total
}

// DurationSeconds sums step durations.
func (r RouteCandidate) DurationSeconds() int {
	total := 0
	for _, s := range r.FlatSteps() {
		total += s.Duration.Value
	}
	return total
}

// StepRisk is the risk backend's verdict for one step.
type StepRisk struct {
	AverageRiskScore  float64 `json:"averageRiskScore"`
	DominantRiskLabel string  `json:"dominantRiskLabel"`
}

// RouteRisk is the risk backend's verdict for one route.
type RouteRisk struct {
	RouteName      string     `json:"routeName"`
	TotalRiskScore float64    `json:"totalRiskScore"`
	TotalSteps     int        `json:"totalSteps"`
	StepRisks      []StepRisk `json:"stepRisks"`
}

// RiskAnalysis is aligned by index with the candidate list it was computed for.
type RiskAnalysis struct {
	Routes []RouteRisk `json:"routes"`
}

// At returns the analysis for original index i, or nil when absent.
func (a *RiskAnalysis) At(i int) *RouteRisk {
	if a == nil || i < 0 || i >= len(a.Routes) {
		return nil
	}
	return &a.Routes[i]
}

// NormalizeRiskLabel upper-cases a label and maps blanks to UNKNOWN.
func NormalizeRiskLabel(label string) string {
	label = strings.ToUpper(strings.TrimSpace(label))
	if label == "" {
		return RiskUnknown
	}
	return label
}

// FormatDuration renders seconds the way driving directions do: "45 secs",
// "12 mins", "1 hour 5 mins".
func FormatDuration(seconds int) string {
	if seconds < 60 {
		return plural(seconds, "sec")
	}
	mins := (seconds + 30) / 60
	if mins < 60 {
		return plural(mins, "min")
	}
	hours, rem := mins/60, mins%60
	if rem == 0 {
		return plural(hours, "hour")
	}
	return plural(hours, "hour") + " " + plural(rem, "min")
}

// FormatDistance renders meters as "850 m" or "3.4 km".
func FormatDistance(meters int) string {
	if meters < 1000 {
		return fmt.Sprintf("%d m", meters)
	}
	return fmt.Sprintf("%.1f km", float64(meters)/1000)
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
