package domain

import (
	"math"
	"sort"
)

// AnnotatedStep is a step with its risk verdict, if the backend supplied one.
type AnnotatedStep struct {
	Step
	Risk *StepRisk `json:"risk,omitempty"`
}

// RankedRoute is a candidate placed in display order.
type RankedRoute struct {
	OriginalIndex int             `json:"original_index"`
	DisplayIndex  int             `json:"display_index"`
	Candidate     RouteCandidate  `json:"-"`
	Summary       string          `json:"summary"`
	Distance      TextValue       `json:"distance"`
	Duration      TextValue       `json:"duration"`
	Risk          *RouteRisk      `json:"risk,omitempty"`
	Steps         []AnnotatedStep `json:"steps"`
}

// Scored reports whether the route carries a total risk score.
func (r RankedRoute) Scored() bool {
	return r.Risk != nil
}

// sortKey is the total risk score, or +Inf for unscored routes.
func (r RankedRoute) sortKey() float64 {
	if r.Risk == nil {
		return math.Inf(1)
	}
	return r.Risk.TotalRiskScore
}

// RankRoutes pairs candidates with the risk analysis by original index and
// orders them by ascending total risk. Unscored routes sort after every scored
// one and keep their relative order, so a nil analysis leaves the candidate
// order unchanged. Only the first MaxRouteCandidates candidates are considered.
func RankRoutes(candidates []RouteCandidate, analysis *RiskAnalysis) []RankedRoute {
	if len(candidates) > MaxRouteCandidates {
		candidates = candidates[:MaxRouteCandidates]
	}

	ranked := make([]RankedRoute, len(candidates))
	for i, c := range candidates {
		risk := analysis.At(i)
		distance := c.DistanceMeters()
		duration := c.DurationSeconds()
		ranked[i] = RankedRoute{
			OriginalIndex: i,
			Candidate:     c,
			Summary:       c.Summary,
			Distance:      TextValue{Text: FormatDistance(distance), Value: distance},
			Duration:      TextValue{Text: FormatDuration(duration), Value: duration},
			Risk:          risk,
			Steps:         annotateSteps(c.FlatSteps(), risk),
		}
	}

	sort.SliceStable(ranked, func(a, b int) bool {
		return ranked[a].sortKey() < ranked[b].sortKey()
	})
	for i := range ranked {
		ranked[i].DisplayIndex = i
	}
	return ranked
}

// annotateSteps pairs flattened step k with risk.StepRisks[k]. Steps beyond the
// backend's breakdown, or all steps when risk is nil, carry no annotation.
func annotateSteps(steps []Step, risk *RouteRisk) []AnnotatedStep {
	out := make([]AnnotatedStep, len(steps))
	for k, s := range steps {
		out[k] = AnnotatedStep{Step: s}
		if risk != nil && k < len(risk.StepRisks) {
			sr := risk.StepRisks[k]
			sr.DominantRiskLabel = NormalizeRiskLabel(sr.DominantRiskLabel)
			out[k].Risk = &sr
		}
	}
	return out
}

// FindOriginal returns the ranked route with the given original index.
func FindOriginal(routes []RankedRoute, originalIndex int) (RankedRoute, bool) {
	for _, r := range routes {
		if r.OriginalIndex == originalIndex {
			return r, true
		}
	}
	return RankedRoute{}, false
}
