/*
loader.go - Seed ingestion with date normalization

PURPOSE:
  Replaces each named collection with its seed records, after adding a
  normalized timestamp next to every raw date field.

DERIVED FIELDS:
  date       -> dateISO
  drive_date -> drive_dateISO

  Raw field present and parseable:   derived = time.Time
  Raw field present, unparseable:    derived = nil (counted as malformed)
  Raw field absent or blank:         derived absent
    (null, "", false, 0, zero time)

  Original fields are never renamed, changed or dropped.

FAILURE MODEL:
  A malformed date never aborts a load. An empty record set still drops the
  collection and reports 0. Only store faults are returned.
*/
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// DateField maps a raw date field to its normalized companion.
type DateField struct {
	Raw        string
	Normalized string
}

// DefaultDateFields are the date fields carried by the seed collections.
var DefaultDateFields = []DateField{
	{Raw: "date", Normalized: "dateISO"},
	{Raw: "drive_date", Normalized: "drive_dateISO"},
}

// Seed holds already-deserialized record sets keyed by collection name.
type Seed map[string][]Document

// Loader writes seed collections through a Store.
type Loader struct {
	Store  Store
	Fields []DateField
	Log    zerolog.Logger
}

// NewLoader returns a Loader using DefaultDateFields.
func NewLoader(store Store, log zerolog.Logger) *Loader {
	return &Loader{Store: store, Fields: DefaultDateFields, Log: log}
}

// Prepare returns copies of records with derived timestamp fields added, and
// the number of raw dates that could not be parsed.
func (l *Loader) Prepare(records []Document) ([]Document, int) {
	prepared := make([]Document, 0, len(records))
	malformed := 0
	for _, rec := range records {
		c := rec.Clone()
		for _, f := range l.Fields {
			raw, ok := rec[f.Raw]
			if !ok || isBlank(raw) {
				continue
			}
			if t, ok := Normalize(raw); ok {
				c[f.Normalized] = t
			} else {
				c[f.Normalized] = nil
				malformed++
			}
		}
		prepared = append(prepared, c)
	}
	return prepared, malformed
}

// isBlank reports whether a raw date holds no value at all: nil, false, a
// numeric zero, "" or a zero time. Such fields get no derived field and are
// not counted as malformed.
func isBlank(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case bool:
		return !t
	case time.Time:
		return t.IsZero()
	case *time.Time:
		return t == nil || t.IsZero()
	}
	if n, ok := ToDecimal(v); ok {
		return n.IsZero()
	}
	return false
}

// Load replaces collection name with records. Returns the number inserted.
func (l *Loader) Load(ctx context.Context, name string, records []Document) (int, error) {
	prepared, malformed := l.Prepare(records)
	if malformed > 0 {
		l.Log.Warn().
			Str("collection", name).
			Int("malformed_dates", malformed).
			Msg("Unparseable dates stored without a timestamp")
	}

	n, err := l.Store.ReplaceAll(ctx, name, prepared)
	if err != nil {
		return 0, fmt.Errorf("load %s: %w", name, err)
	}

	l.Log.Info().Str("collection", name).Int("count", n).Msgf("Inserted %d into %s", n, name)
	return n, nil
}

// LoadAll loads each named collection in order. The first store fault stops
// the load. Names without seed records are loaded empty.
func (l *Loader) LoadAll(ctx context.Context, names []string, seed Seed) (map[string]int, error) {
	counts := make(map[string]int, len(names))
	for _, name := range names {
		n, err := l.Load(ctx, name, seed[name])
		if err != nil {
			return counts, err
		}
		counts[name] = n
	}
	return counts, nil
}
