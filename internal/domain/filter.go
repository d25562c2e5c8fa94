package domain

import (
	"encoding/json"
	"sort"
	"strings"
)

// FilterState is the user's current crime filter selection.
type FilterState struct {
	SelectedCrimeTypes map[string]struct{} `json:"-"`
	TimeRange          TimeRange           `json:"time_range"`
}

// NewFilterState builds a FilterState from a list of selected types.
// Blank entries and duplicates are dropped.
func NewFilterState(types []string, tr TimeRange) FilterState {
	fs := FilterState{TimeRange: tr}
	for _, t := range types {
		fs.Select(t)
	}
	return fs
}

// Select adds a crime type to the selection.
func (f *FilterState) Select(crimeType string) {
	crimeType = strings.TrimSpace(crimeType)
	if crimeType == "" {
		return
	}
	if f.SelectedCrimeTypes == nil {
		f.SelectedCrimeTypes = make(map[string]struct{})
	}
	f.SelectedCrimeTypes[crimeType] = struct{}{}
}

// Deselect removes a crime type from the selection.
func (f *FilterState) Deselect(crimeType string) {
	delete(f.SelectedCrimeTypes, strings.TrimSpace(crimeType))
}

// Types returns the selected crime types in sorted order.
func (f FilterState) Types() []string {
	types := make([]string, 0, len(f.SelectedCrimeTypes))
	for t := range f.SelectedCrimeTypes {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// Clone returns a deep copy so callers can hand state across goroutines.
func (f FilterState) Clone() FilterState {
	out := FilterState{TimeRange: f.TimeRange}
	if f.TimeRange.Custom != nil {
		c := *f.TimeRange.Custom
		out.TimeRange.Custom = &c
	}
	for t := range f.SelectedCrimeTypes {
		out.Select(t)
	}
	return out
}

type filterStateJSON struct {
	CrimeTypes []string  `json:"crime_types"`
	TimeRange  TimeRange `json:"time_range"`
}

// MarshalJSON encodes the selection as a sorted list.
func (f FilterState) MarshalJSON() ([]byte, error) {
	return json.Marshal(filterStateJSON{CrimeTypes: f.Types(), TimeRange: f.TimeRange})
}

// UnmarshalJSON decodes {"crime_types": [...], "time_range": {...}}.
func (f *FilterState) UnmarshalJSON(data []byte) error {
	var v filterStateJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*f = NewFilterState(v.CrimeTypes, v.TimeRange)
	return nil
}

// MatchesFilter reports whether a record passes the secondary type filter.
//
// An empty selection matches everything. A record with a blank type always
// matches. Otherwise the record matches when any selected type and any
// comma-separated token of the record type contain one another,
// case-insensitively. Empty tokens never match.
func MatchesFilter(f FilterState, rec CrimeRecord) bool {
	if len(f.SelectedCrimeTypes) == 0 {
		return true
	}
	if strings.TrimSpace(rec.Type) == "" {
		return true
	}

	tokens := typeTokens(rec.Type)
	if len(tokens) == 0 {
		return true
	}
	for selected := range f.SelectedCrimeTypes {
		want := strings.ToLower(strings.TrimSpace(selected))
		if want == "" {
			continue
		}
		for _, tok := range tokens {
			if strings.Contains(tok, want) || strings.Contains(want, tok) {
				return true
			}
		}
	}
	return false
}

// FilterRecords applies MatchesFilter to every record, preserving order.
// It never returns nil.
func FilterRecords(f FilterState, records []CrimeRecord) []CrimeRecord {
	out := make([]CrimeRecord, 0, len(records))
	for _, rec := range records {
		if MatchesFilter(f, rec) {
			out = append(out, rec)
		}
	}
	return out
}

func typeTokens(recordType string) []string {
	parts := strings.Split(recordType, ",")
	tokens := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
			tokens = append(tokens, p)
		}
	}
	return tokens
}
