/*
Package engine provides the query and aggregation layer of zenreport.

PURPOSE:
  Everything with nontrivial logic lives here: date normalization, the
  collection loader, joins, grouped aggregates and compound filters. The
  package knows nothing about users, drives or mentors; the zenclass package
  supplies the collection names and field names.

KEY CONCEPTS IN THIS FILE (document.go):
  - Document: an open record (map) with typed accessors for known fields
  - Value equality: ids compare by value, numbers numerically

DESIGN PRINCIPLES:
  1. Open records: unknown fields are carried through untouched
  2. No ambient state: the Store is passed explicitly to every component
  3. Primitives compose: Filter, Lookup, Group, Size, Project are each
     usable on their own and inside a Pipeline

SEE ALSO:
  - store.go: Store contract implemented by memory, sqlite and mongo
  - pipeline.go: Composable query stages
*/
package engine

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// IDField is the identifier field of every stored record.
const IDField = "_id"

// =============================================================================
// DOCUMENT - Open record with typed accessors
// =============================================================================

// Document is a single stored record. Known fields are read by name, the
// remainder is passed through opaquely.
type Document map[string]any

// Get returns the value at path. Dotted paths descend into sub-documents.
func (d Document) Get(path string) (any, bool) {
	if d == nil {
		return nil, false
	}
	head, rest, nested := strings.Cut(path, ".")
	v, ok := d[head]
	if !ok {
		return nil, false
	}
	if !nested {
		return v, true
	}
	sub, ok := AsDocument(v)
	if !ok {
		return nil, false
	}
	return sub.Get(rest)
}

// ID returns the record identifier.
func (d Document) ID() any { return d[IDField] }

// String returns the field as a string, or "" when absent or not a string.
func (d Document) String(path string) string {
	v, ok := d.Get(path)
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// Bool returns the field as a bool. ok is false when absent or not a bool.
func (d Document) Bool(path string) (value bool, ok bool) {
	v, found := d.Get(path)
	if !found {
		return false, false
	}
	b, ok := v.(bool)
	return b, ok
}

// Time returns a normalized timestamp field. Raw strings are not parsed here;
// use Normalize for that.
func (d Document) Time(path string) (time.Time, bool) {
	v, ok := d.Get(path)
	if !ok {
		return time.Time{}, false
	}
	switch t := v.(type) {
	case time.Time:
		return t, !t.IsZero()
	case *time.Time:
		if t == nil {
			return time.Time{}, false
		}
		return *t, !t.IsZero()
	}
	return time.Time{}, false
}

// Decimal returns a numeric field. Absent, null and non-numeric values read as zero.
func (d Document) Decimal(path string) decimal.Decimal {
	v, ok := d.Get(path)
	if !ok {
		return decimal.Zero
	}
	n, ok := ToDecimal(v)
	if !ok {
		return decimal.Zero
	}
	return n
}

// Array returns a sequence field. ok is false when absent or not a sequence.
func (d Document) Array(path string) ([]any, bool) {
	v, ok := d.Get(path)
	if !ok {
		return nil, false
	}
	return AsArray(v)
}

// Docs returns a sequence of sub-documents, skipping elements that are not documents.
func (d Document) Docs(path string) []Document {
	arr, ok := d.Array(path)
	if !ok {
		return nil
	}
	out := make([]Document, 0, len(arr))
	for _, v := range arr {
		if sub, ok := AsDocument(v); ok {
			out = append(out, sub)
		}
	}
	return out
}

// Doc returns a sub-document field.
func (d Document) Doc(path string) (Document, bool) {
	v, ok := d.Get(path)
	if !ok {
		return nil, false
	}
	return AsDocument(v)
}

// Clone returns a shallow copy. Nested values are shared.
func (d Document) Clone() Document {
	out := make(Document, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

// Pick returns a new document holding only the listed fields that are present.
// An empty list returns a shallow copy of the whole document.
func (d Document) Pick(fields []string) Document {
	if len(fields) == 0 {
		return d.Clone()
	}
	out := make(Document, len(fields))
	for _, f := range fields {
		if v, ok := d[f]; ok {
			out[f] = v
		}
	}
	return out
}

// =============================================================================
// VALUE HELPERS
// =============================================================================

// AsDocument converts v to a Document when it is one.
func AsDocument(v any) (Document, bool) {
	switch m := v.(type) {
	case Document:
		return m, true
	case map[string]any:
		return Document(m), true
	}
	return nil, false
}

// AsArray converts the sequence shapes produced by JSON decoding, the stores
// and the joins into a []any.
func AsArray(v any) ([]any, bool) {
	switch a := v.(type) {
	case []any:
		return a, true
	case []Document:
		out := make([]any, len(a))
		for i := range a {
			out[i] = a[i]
		}
		return out, true
	case []map[string]any:
		out := make([]any, len(a))
		for i := range a {
			out[i] = Document(a[i])
		}
		return out, true
	case []string:
		out := make([]any, len(a))
		for i := range a {
			out[i] = a[i]
		}
		return out, true
	case []float64:
		out := make([]any, len(a))
		for i := range a {
			out[i] = a[i]
		}
		return out, true
	case []int:
		out := make([]any, len(a))
		for i := range a {
			out[i] = a[i]
		}
		return out, true
	}
	return nil, false
}

// ToDecimal converts any Go numeric value to a decimal. NaN and infinities
// are not numbers here.
func ToDecimal(v any) (decimal.Decimal, bool) {
	switch n := v.(type) {
	case decimal.Decimal:
		return n, true
	case int:
		return decimal.NewFromInt(int64(n)), true
	case int32:
		return decimal.NewFromInt32(n), true
	case int64:
		return decimal.NewFromInt(n), true
	case float32:
		if !finite(float64(n)) {
			return decimal.Zero, false
		}
		return decimal.NewFromFloat32(n), true
	case float64:
		if !finite(n) {
			return decimal.Zero, false
		}
		return decimal.NewFromFloat(n), true
	case json.Number:
		d, err := decimal.NewFromString(n.String())
		return d, err == nil
	}
	return decimal.Zero, false
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// SameValue reports whether two ids or field values are equal. Numbers are
// compared numerically so that 1 (float64 from JSON) equals 1 (int32 from the
// store).
func SameValue(a, b any) bool {
	return ValueKey(a) == ValueKey(b)
}

// ValueKey returns a string that is equal for equal values. Used to index
// documents by id for joins, grouping and distinct.
func ValueKey(v any) string {
	if v == nil {
		return "null"
	}
	if n, ok := ToDecimal(v); ok {
		return "n:" + n.String()
	}
	switch t := v.(type) {
	case string:
		return "s:" + t
	case bool:
		if t {
			return "b:true"
		}
		return "b:false"
	case time.Time:
		return "t:" + t.UTC().Format(time.RFC3339Nano)
	case fmt.Stringer:
		return "x:" + t.String()
	}
	return fmt.Sprintf("x:%v", v)
}
