package domain

import (
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// DefaultQueryLimit caps the number of records requested per filter query.
const DefaultQueryLimit = 200

// CrimeQuery is a radius filter query against the crime backend.
type CrimeQuery struct {
	Center       LatLng
	RadiusMeters float64
	CrimeTypes   []string // empty means no type restriction
	Window       TimeWindow
	Limit        int
}

// RangeQuery is a bounding-box query against the crime backend.
type RangeQuery struct {
	Bounds Bounds
	Window TimeWindow
}

// BuildQuery translates the filter state and viewport into one backend query.
// The center is the reported map center when present, otherwise the bounds
// midpoint; the radius always comes from the bounds. A non-positive limit
// falls back to DefaultQueryLimit.
func BuildQuery(f FilterState, vp Viewport, now time.Time, limit int) CrimeQuery {
	if limit <= 0 {
		limit = DefaultQueryLimit
	}
	return CrimeQuery{
		Center:       vp.QueryCenter(),
		RadiusMeters: SearchRadius(vp.Bounds),
		CrimeTypes:   f.Types(),
		Window:       f.TimeRange.Resolve(now),
		Limit:        limit,
	}
}

// BuildRangeQuery pairs a bounding box with the filter's time window.
func BuildRangeQuery(f FilterState, b Bounds, now time.Time) RangeQuery {
	return RangeQuery{Bounds: b, Window: f.TimeRange.Resolve(now)}
}

// Values encodes the query as the backend's action=filter parameters.
// The radius is rounded up to whole meters so the buffer is never reduced.
func (q CrimeQuery) Values() url.Values {
	v := url.Values{
		"action":    {"filter"},
		"lat":       {formatCoord(q.Center.Lat)},
		"lon":       {formatCoord(q.Center.Lng)},
		"radius":    {strconv.Itoa(int(math.Ceil(q.RadiusMeters)))},
		"timeStart": {FormatQueryTime(q.Window.Start)},
		"timeEnd":   {FormatQueryTime(q.Window.End)},
		"limit":     {strconv.Itoa(q.Limit)},
	}
	if len(q.CrimeTypes) > 0 {
		v.Set("crimeTypes", strings.Join(q.CrimeTypes, ","))
	}
	return v
}

// Values encodes the query as the backend's action=range parameters.
func (q RangeQuery) Values() url.Values {
	sw, ne := q.Bounds.SouthWest, q.Bounds.NorthEast
	return url.Values{
		"action":     {"range"},
		"min_lat":    {formatCoord(math.Min(sw.Lat, ne.Lat))},
		"max_lat":    {formatCoord(math.Max(sw.Lat, ne.Lat))},
		"min_lng":    {formatCoord(math.Min(sw.Lng, ne.Lng))},
		"max_lng":    {formatCoord(math.Max(sw.Lng, ne.Lng))},
		"start_date": {FormatQueryTime(q.Window.Start)},
		"end_date":   {FormatQueryTime(q.Window.End)},
	}
}

func formatCoord(f float64) string {
	return strconv.FormatFloat(f, 'f', 6, 64)
}
