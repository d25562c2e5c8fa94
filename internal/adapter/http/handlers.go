package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/couchcryptid/safepath-navigator/internal/domain"
	"github.com/couchcryptid/safepath-navigator/internal/session"
	"github.com/gorilla/mux"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// filterRequest is the PUT /api/filter body. Start and End together select a
// custom range and win over Preset; neither means the default lookback.
type filterRequest struct {
	CrimeTypes []string `json:"crime_types"`
	Preset     string   `json:"preset,omitempty"`
	Start      string   `json:"start,omitempty"`
	End        string   `json:"end,omitempty"`
}

type filterResponse struct {
	Filter  domain.FilterState   `json:"filter"`
	Records []domain.CrimeRecord `json:"records"`
}

type recordsResponse struct {
	Count   int                  `json:"count"`
	Records []domain.CrimeRecord `json:"records"`
}

type tripRequest struct {
	Origin      string `json:"origin"`
	Destination string `json:"destination"`
}

type planResponse struct {
	Plan   domain.RoutePlan      `json:"plan"`
	States []domain.DisplayState `json:"states"`
}

func (s *Server) handleCrimeTypes(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.catalog.Types(r.Context()))
}

func (s *Server) handleGetFilter(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.nav.Filter())
}

func (s *Server) handlePutFilter(w http.ResponseWriter, r *http.Request) {
	var req filterRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	tr, err := req.timeRange()
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	f := domain.NewFilterState(req.CrimeTypes, tr)
	records := s.nav.SetFilter(r.Context(), f)
	s.writeJSON(w, http.StatusOK, filterResponse{Filter: s.nav.Filter(), Records: records})
}

func (s *Server) handleGetCrimes(w http.ResponseWriter, _ *http.Request) {
	records := s.nav.Records()
	s.writeJSON(w, http.StatusOK, recordsResponse{Count: len(records), Records: records})
}

func (s *Server) handleRefreshCrimes(w http.ResponseWriter, r *http.Request) {
	var vp domain.Viewport
	if !s.decodeBody(w, r, &vp) {
		return
	}
	if vp.Bounds.IsZero() {
		s.writeError(w, http.StatusBadRequest, "viewport bounds are required")
		return
	}
	records := s.nav.RefreshCrimes(r.Context(), vp)
	s.writeJSON(w, http.StatusOK, recordsResponse{Count: len(records), Records: records})
}

func (s *Server) handleRangeCrimes(w http.ResponseWriter, r *http.Request) {
	b, err := boundsFromQuery(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	records := s.nav.RangeCrimes(r.Context(), b)
	s.writeJSON(w, http.StatusOK, recordsResponse{Count: len(records), Records: records})
}

func (s *Server) handleGetRoutes(w http.ResponseWriter, _ *http.Request) {
	plan, ok := s.nav.Plan()
	if !ok {
		s.writeError(w, http.StatusNotFound, "no route plan")
		return
	}
	s.writeJSON(w, http.StatusOK, planResponse{Plan: plan, States: s.nav.DisplayStates()})
}

func (s *Server) handlePlanRoutes(w http.ResponseWriter, r *http.Request) {
	var req tripRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	plan, err := s.nav.PlanRoutes(r.Context(), req.Origin, req.Destination)
	switch {
	case errors.Is(err, domain.ErrMissingEndpoints):
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, domain.ErrDirectionsFailed):
		s.logger.Warn("directions failed", "error", err)
		s.writeError(w, http.StatusBadGateway, domain.ErrDirectionsFailed.Error())
		return
	case errors.Is(err, session.ErrSuperseded):
		s.writeError(w, http.StatusConflict, err.Error())
		return
	case err != nil:
		s.logger.Error("route planning failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, "route planning failed")
		return
	}
	s.writeJSON(w, http.StatusOK, planResponse{Plan: plan, States: s.nav.DisplayStates()})
}

func (s *Server) handleInteraction(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	idx, err := strconv.Atoi(vars["index"])
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid route index")
		return
	}

	var states []domain.DisplayState
	switch vars["action"] {
	case "hover":
		states, err = s.nav.Hover(idx)
	case "leave":
		states, err = s.nav.Leave(idx)
	default:
		states, err = s.nav.Select(idx)
	}
	if errors.Is(err, domain.ErrUnknownRoute) {
		s.writeError(w, http.StatusNotFound, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, map[string][]domain.DisplayState{"states": states})
}

func (req filterRequest) timeRange() (domain.TimeRange, error) {
	if req.Start != "" && req.End != "" {
		start, err := parseFilterTime(req.Start)
		if err != nil {
			return domain.TimeRange{}, fmt.Errorf("invalid start: %w", err)
		}
		end, err := parseFilterTime(req.End)
		if err != nil {
			return domain.TimeRange{}, fmt.Errorf("invalid end: %w", err)
		}
		return domain.Custom(start, end), nil
	}
	if req.Preset != "" {
		days, err := domain.ParseTimePreset(req.Preset)
		if err != nil {
			return domain.TimeRange{}, err
		}
		return domain.Relative(days), nil
	}
	return domain.TimeRange{}, nil
}

func parseFilterTime(s string) (time.Time, error) {
	if t, err := time.Parse(domain.QueryTimeLayout, s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

func boundsFromQuery(r *http.Request) (domain.Bounds, error) {
	q := r.URL.Query()
	var vals [4]float64
	for i, key := range []string{"min_lat", "max_lat", "min_lng", "max_lng"} {
		v, err := strconv.ParseFloat(q.Get(key), 64)
		if err != nil {
			return domain.Bounds{}, fmt.Errorf("invalid or missing %s", key)
		}
		vals[i] = v
	}
	return domain.Bounds{
		SouthWest: domain.LatLng{Lat: vals[0], Lng: vals[2]},
		NorthEast: domain.LatLng{Lat: vals[1], Lng: vals[3]},
	}, nil
}

func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return false
	}
	return true
}
