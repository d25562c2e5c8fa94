package domain

import "time"

// RoutePlan is one ranked answer to a trip request.
type RoutePlan struct {
	ID          string        `json:"id"`
	Origin      string        `json:"origin"`
	Destination string        `json:"destination"`
	Routes      []RankedRoute `json:"routes"`
	CreatedAt   time.Time     `json:"created_at"`
}

// Scored reports whether any route in the plan carries a risk score.
func (p RoutePlan) Scored() bool {
	for _, r := range p.Routes {
		if r.Scored() {
			return true
		}
	}
	return false
}

// Safest returns the first displayed route, if any.
func (p RoutePlan) Safest() (RankedRoute, bool) {
	if len(p.Routes) == 0 {
		return RankedRoute{}, false
	}
	return p.Routes[0], true
}
