package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMissingEndpoints is returned when a trip lacks an origin or destination.
	ErrMissingEndpoints = errors.New("origin and destination must both be provided")

	// ErrDirectionsFailed marks a terminal directions-computation failure.
	ErrDirectionsFailed = errors.New("directions request failed")

	// ErrUnknownRoute is returned when an interaction addresses a route that
	// is not part of the current plan.
	ErrUnknownRoute = errors.New("unknown route index")
)

// StatusError reports a non-success HTTP status from a backend.
type StatusError struct {
	Endpoint   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d: %s", e.Endpoint, e.StatusCode, e.Body)
}

// ValidateTrip checks that both trip endpoints are present.
func ValidateTrip(origin, destination string) error {
	if strings.TrimSpace(origin) == "" || strings.TrimSpace(destination) == "" {
		return ErrMissingEndpoints
	}
	return nil
}
