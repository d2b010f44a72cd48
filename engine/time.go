package engine

import (
	"fmt"
	"strings"
	"time"
)

// =============================================================================
// NORMALIZE - Raw date-like values to a comparable timestamp
// =============================================================================

// dateLayouts is the accepted ISO-8601 family, tried in order. Layouts without
// a zone are read as UTC. Locale-dependent forms (10/15/2020, 15-10-2020) are
// deliberately not accepted.
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Normalize converts a raw date field into a timestamp. ok is false for
// absent, empty, zero or unparseable input; that is never an error.
func Normalize(raw any) (time.Time, bool) {
	switch v := raw.(type) {
	case nil:
		return time.Time{}, false
	case time.Time:
		return v, !v.IsZero()
	case *time.Time:
		if v == nil || v.IsZero() {
			return time.Time{}, false
		}
		return *v, true
	case string:
		return parseDate(v)
	}
	return time.Time{}, false
}

func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// =============================================================================
// RANGE - Half-open and closed time windows
// =============================================================================

// RangeKind says whether the end of a Range is included.
type RangeKind int

const (
	// HalfOpen is [Start, End). Used for calendar months.
	HalfOpen RangeKind = iota
	// Closed is [Start, End]. Used for explicit date-to-date windows.
	Closed
)

// Range is a time window. The two kinds are not interchangeable: each query
// states which one it means.
type Range struct {
	Start time.Time
	End   time.Time
	Kind  RangeKind
}

// MonthRange returns the half-open range covering a calendar month in UTC.
func MonthRange(year int, month time.Month) Range {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return Range{Start: start, End: start.AddDate(0, 1, 0), Kind: HalfOpen}
}

// ClosedRange returns [start, end].
func ClosedRange(start, end time.Time) Range {
	return Range{Start: start, End: end, Kind: Closed}
}

// Contains reports whether t falls inside the range.
func (r Range) Contains(t time.Time) bool {
	if t.Before(r.Start) {
		return false
	}
	if r.Kind == Closed {
		return !t.After(r.End)
	}
	return t.Before(r.End)
}

// Valid returns ErrInvalidRange when the end precedes the start.
func (r Range) Valid() error {
	if r.End.Before(r.Start) {
		return fmt.Errorf("%w: %s", ErrInvalidRange, r)
	}
	return nil
}

func (r Range) String() string {
	closing := ")"
	if r.Kind == Closed {
		closing = "]"
	}
	return "[" + r.Start.UTC().Format(time.RFC3339) + ", " + r.End.UTC().Format(time.RFC3339) + closing
}
