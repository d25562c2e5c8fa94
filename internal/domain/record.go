package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// CrimeRecord is the canonical crime report shape after ingestion.
// Every field is optional; a missing field is left at its zero value.
type CrimeRecord struct {
	ID            string    `json:"id,omitempty"`
	Type          string    `json:"type,omitempty"` // may be a comma-joined list
	Location      string    `json:"location,omitempty"`
	Neighborhood  string    `json:"neighborhood,omitempty"`
	Precinct      string    `json:"precinct,omitempty"`
	Sector        string    `json:"sector,omitempty"`
	Beat          string    `json:"beat,omitempty"`
	ReportedAt    time.Time `json:"reported_at,omitzero"`
	ReportedAtRaw string    `json:"reported_at_raw,omitempty"`
	Coordinates   *LatLng   `json:"coordinates,omitempty"`
}

// Field aliases seen across the SafePath servlets, in priority order.
var (
	idFields       = []string{"reportNumber", "report_number", "id"}
	typeFields     = []string{"offenseType", "offense_type", "crimeType", "crime_type", "type", "offense_types_agg"}
	locationFields = []string{"description", "blurredAddress", "blurred_address", "location", "address"}
	timeFields     = []string{"reportDatetime", "report_datetime", "timestamp", "datetime"}
	latFields      = []string{"latitude", "lat", "blurredLatitude", "blurred_latitude"}
	lngFields      = []string{"longitude", "lng", "lon", "blurredLongitude", "blurred_longitude"}
)

// Layouts tried when parsing report timestamps.
var reportTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	QueryTimeLayout,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// recordEnvelopeKeys are the object keys under which backends wrap record arrays.
var recordEnvelopeKeys = []string{"crimes", "data", "results", "records"}

// NormalizeRecord maps a loosely typed record onto CrimeRecord. It never fails:
// unknown shapes produce an empty record rather than an error.
func NormalizeRecord(raw map[string]any) CrimeRecord {
	rec := CrimeRecord{
		ID:           firstString(raw, idFields),
		Type:         firstString(raw, typeFields),
		Location:     firstString(raw, locationFields),
		Neighborhood: firstString(raw, []string{"neighborhood", "mcppNeighborhood", "mcpp_neighborhood"}),
		Precinct:     firstString(raw, []string{"precinct"}),
		Sector:       firstString(raw, []string{"sector"}),
		Beat:         firstString(raw, []string{"beat"}),
	}

	rec.ReportedAtRaw = firstString(raw, timeFields)
	rec.ReportedAt = parseReportTime(rec.ReportedAtRaw)

	lat, latOK := firstFloat(raw, latFields)
	lng, lngOK := firstFloat(raw, lngFields)
	if latOK && lngOK {
		rec.Coordinates = &LatLng{Lat: lat, Lng: lng}
	}

	if rec.Location == "" {
		rec.Location = rec.Neighborhood
	}
	return rec
}

// DecodeRecords parses a backend response body holding either a bare array of
// records or an object wrapping one. Non-object array elements are skipped.
func DecodeRecords(body []byte) ([]CrimeRecord, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 || bytes.Equal(body, []byte("null")) {
		return []CrimeRecord{}, nil
	}

	var items []json.RawMessage
	switch body[0] {
	case '[':
		if err := json.Unmarshal(body, &items); err != nil {
			return nil, fmt.Errorf("decode record array: %w", err)
		}
	case '{':
		var envelope map[string]json.RawMessage
		if err := json.Unmarshal(body, &envelope); err != nil {
			return nil, fmt.Errorf("decode record envelope: %w", err)
		}
		for _, key := range recordEnvelopeKeys {
			if inner, ok := envelope[key]; ok {
				if err := json.Unmarshal(inner, &items); err != nil {
					return nil, fmt.Errorf("decode %q array: %w", key, err)
				}
				break
			}
		}
	default:
		return nil, fmt.Errorf("unexpected record payload starting with %q", body[0])
	}

	records := make([]CrimeRecord, 0, len(items))
	for _, item := range items {
		var raw map[string]any
		if err := json.Unmarshal(item, &raw); err != nil || raw == nil {
			continue
		}
		records = append(records, NormalizeRecord(raw))
	}
	return records, nil
}

func firstString(raw map[string]any, keys []string) string {
	for _, k := range keys {
		v, ok := raw[k]
		if !ok || v == nil {
			continue
		}
		var s string
		switch t := v.(type) {
		case string:
			s = t
		case float64:
			s = strconv.FormatFloat(t, 'f', -1, 64)
		case bool:
			s = strconv.FormatBool(t)
		default:
			continue
		}
		if s = strings.TrimSpace(s); s != "" {
			return s
		}
	}
	return ""
}

func firstFloat(raw map[string]any, keys []string) (float64, bool) {
	for _, k := range keys {
		switch t := raw[k].(type) {
		case float64:
			return t, true
		case string:
			if f, err := strconv.ParseFloat(strings.TrimSpace(t), 64); err == nil {
				return f, true
			}
		}
	}
	return 0, false
}

func parseReportTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range reportTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
