// Package domain models SafePath crime reports and risk-ranked driving routes.
//
// # Crime Queries
//
// The crime backend answers a radius query around a center point. The radius is
// derived from the visible map rectangle:
//
//	latSpan = |ne.lat - sw.lat| * 111,000 m
//	lngSpan = |ne.lng - sw.lng| * 111,000 m * cos(average latitude)
//	radius  = max(latSpan, lngSpan) * 1.5
//
// The 1.5 factor over-includes on purpose so records near the viewport edge are
// not lost before the client-side secondary filter runs. See [SearchRadius].
//
// Time windows resolve in this order: an explicit custom start/end, a relative
// day preset ("24h" is exactly 1.0 day), then a 30-day default lookback. Window
// bounds are sent as local wall-clock minutes, "2006-01-02T15:04".
//
// # Type Matching
//
// Backends disagree on crime taxonomies ("Theft" vs "LARCENY-THEFT", or an
// aggregated "ASSAULT OFFENSES, ROBBERY" column), so the secondary filter matches
// a selected type against each comma-separated token of a record's type in both
// directions, case-insensitively. Records without a type always pass. See
// [MatchesFilter].
//
// # Record Shapes
//
// Crime records arrive as loosely typed JSON from more than one servlet. Field
// aliases (offenseType, crimeType, type, ...) are collapsed into [CrimeRecord] by
// [NormalizeRecord] at the ingestion boundary; nothing past that point looks at
// raw maps.
//
// # Route Ranking
//
// The directions provider returns up to three candidate routes. The risk backend
// returns a parallel array of scores aligned by position with that list.
// [RankRoutes] pairs them by index, sorts ascending by total risk with unscored
// routes last, and keeps each route's original index because highlight and
// selection address routes by original index, never by display position.
package domain
