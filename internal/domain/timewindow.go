package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// QueryTimeLayout is the wall-clock minute format the crime backend parses.
const QueryTimeLayout = "2006-01-02T15:04"

// DefaultLookbackDays applies when no time range is selected.
const DefaultLookbackDays = 30.0

// MaxLookbackDays bounds relative ranges; longer lookbacks are clamped.
const MaxLookbackDays = 3650.0

// Named relative-day presets offered by the time filter.
var timePresets = map[string]float64{
	"24h": 1.0,
	"7d":  7,
	"30d": 30,
	"90d": 90,
}

// TimeRange selects the report window. At most one of RelativeDays and Custom
// is set; neither means the default lookback.
type TimeRange struct {
	RelativeDays float64      `json:"relative_days,omitempty"`
	Custom       *CustomRange `json:"custom,omitempty"`
}

// CustomRange is an explicit start/end pair chosen by the user.
type CustomRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// TimeWindow is a resolved, ordered [Start, End] interval.
type TimeWindow struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Relative returns a TimeRange for a day count, clearing any custom range.
func Relative(days float64) TimeRange {
	return TimeRange{RelativeDays: days}
}

// Custom returns a TimeRange for an explicit interval, clearing any preset.
func Custom(start, end time.Time) TimeRange {
	return TimeRange{Custom: &CustomRange{Start: start, End: end}}
}

// ParseTimePreset maps a preset name ("24h", "7d", "30d", "90d") or a bare
// day count ("14", "0.5") to a number of days.
func ParseTimePreset(name string) (float64, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if days, ok := timePresets[name]; ok {
		return days, nil
	}
	days, err := strconv.ParseFloat(strings.TrimSuffix(name, "d"), 64)
	if err != nil || !validDays(days) {
		return 0, fmt.Errorf("unknown time preset %q", name)
	}
	return days, nil
}

func validDays(days float64) bool {
	return days > 0 && days <= MaxLookbackDays && !math.IsNaN(days) && !math.IsInf(days, 0)
}

// Resolve turns the range into an ordered window relative to now. Custom
// ranges win over presets, presets over the default lookback. A reversed
// custom range is swapped so Start never follows End.
func (r TimeRange) Resolve(now time.Time) TimeWindow {
	now = now.Truncate(time.Minute)

	if r.Custom != nil && !r.Custom.Start.IsZero() && !r.Custom.End.IsZero() {
		start, end := r.Custom.Start.Truncate(time.Minute), r.Custom.End.Truncate(time.Minute)
		if start.After(end) {
			start, end = end, start
		}
		return TimeWindow{Start: start, End: end}
	}

	days := DefaultLookbackDays
	switch {
	case r.RelativeDays > MaxLookbackDays:
		days = MaxLookbackDays
	case validDays(r.RelativeDays):
		days = r.RelativeDays
	}
	lookback := time.Duration(days * float64(24*time.Hour))
	return TimeWindow{Start: now.Add(-lookback).Truncate(time.Minute), End: now}
}

// ResolveTimeWindow is the free-function form of TimeRange.Resolve.
func ResolveTimeWindow(r TimeRange, now time.Time) (start, end time.Time) {
	w := r.Resolve(now)
	return w.Start, w.End
}

// FormatQueryTime renders t in the backend's minute layout.
func FormatQueryTime(t time.Time) string {
	return t.Format(QueryTimeLayout)
}
