package domain

import "math"

const (
	// metersPerDegreeLat is the flat-earth approximation used by the crime backend.
	metersPerDegreeLat = 111_000.0

	// radiusBuffer over-includes edge-of-viewport records.
	radiusBuffer = 1.5
)

// LatLng is a WGS-84 coordinate pair.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Bounds is a map rectangle given by its northeast and southwest corners.
type Bounds struct {
	NorthEast LatLng `json:"northeast"`
	SouthWest LatLng `json:"southwest"`
}

// Viewport is the visible map area. Center is the map center when the map
// reports one; it may differ from the bounds midpoint on projected maps.
type Viewport struct {
	Bounds Bounds  `json:"bounds"`
	Center *LatLng `json:"center,omitempty"`
}

// Midpoint returns the arithmetic center of the rectangle.
func (b Bounds) Midpoint() LatLng {
	return LatLng{
		Lat: (b.NorthEast.Lat + b.SouthWest.Lat) / 2,
		Lng: (b.NorthEast.Lng + b.SouthWest.Lng) / 2,
	}
}

// IsZero reports whether both corners are unset.
func (b Bounds) IsZero() bool {
	return b == Bounds{}
}

// SpanMeters converts the rectangle's latitude and longitude spans to meters.
// Longitude is corrected by the cosine of the average latitude.
func (b Bounds) SpanMeters() (latMeters, lngMeters float64) {
	latSpan := math.Abs(b.NorthEast.Lat - b.SouthWest.Lat)
	lngSpan := math.Abs(b.NorthEast.Lng - b.SouthWest.Lng)
	avgLat := (b.NorthEast.Lat + b.SouthWest.Lat) / 2

	latMeters = latSpan * metersPerDegreeLat
	lngMeters = lngSpan * metersPerDegreeLat * math.Cos(avgLat*math.Pi/180)
	return latMeters, math.Abs(lngMeters)
}

// SearchRadius returns the query radius in meters for a viewport rectangle:
// the larger span in meters times 1.5.
func SearchRadius(b Bounds) float64 {
	latMeters, lngMeters := b.SpanMeters()
	return math.Max(latMeters, lngMeters) * radiusBuffer
}

// QueryCenter resolves the query center: the reported map center when available,
// otherwise the bounds midpoint.
func (v Viewport) QueryCenter() LatLng {
	if v.Center != nil {
		return *v.Center
	}
	return v.Bounds.Midpoint()
}

// Contains reports whether p lies inside the rectangle, inclusive of edges.
func (b Bounds) Contains(p LatLng) bool {
	minLat, maxLat := math.Min(b.SouthWest.Lat, b.NorthEast.Lat), math.Max(b.SouthWest.Lat, b.NorthEast.Lat)
	minLng, maxLng := math.Min(b.SouthWest.Lng, b.NorthEast.Lng), math.Max(b.SouthWest.Lng, b.NorthEast.Lng)
	return p.Lat >= minLat && p.Lat <= maxLat && p.Lng >= minLng && p.Lng <= maxLng
}
