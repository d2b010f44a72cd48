/*
aggregate.go - Grouped sums and derived metrics

PURPOSE:
  Computes the numeric answers: per-group sums, the global total, the size
  of a nested sequence, and threshold checks on any of them.

PRECISION:
  Sums use decimal.Decimal. Seed numbers arrive as float64 from JSON and as
  int32/int64 from the document store; both convert exactly.

NULL HANDLING:
  Absent, null and non-numeric values contribute 0 to a sum.
  An absent or non-sequence field has size 0.

ORDERING:
  Groups come out in discovery order. Nothing here sorts.
*/
package engine

import "github.com/shopspring/decimal"

// GroupSum is one group of a grouped sum.
type GroupSum struct {
	Key   any // nil for the global group
	Sum   decimal.Decimal
	Count int
}

// SumBy sums field per distinct value of key. An empty key puts every
// document in one global group. No documents means no groups.
func SumBy(docs []Document, field, key string) []GroupSum {
	var groups []GroupSum
	pos := make(map[string]int)
	for _, d := range docs {
		var k any
		if key != "" {
			k, _ = d.Get(key)
		}
		id := ValueKey(k)
		i, ok := pos[id]
		if !ok {
			i = len(groups)
			pos[id] = i
			groups = append(groups, GroupSum{Key: k, Sum: decimal.Zero})
		}
		groups[i].Sum = groups[i].Sum.Add(d.Decimal(field))
		groups[i].Count++
	}
	return groups
}

// Total sums field across all documents. Zero for an empty collection.
func Total(docs []Document, field string) decimal.Decimal {
	total := decimal.Zero
	for _, d := range docs {
		total = total.Add(d.Decimal(field))
	}
	return total
}

// SizeOf returns the length of a sequence field, 0 when absent.
func SizeOf(d Document, field string) int {
	arr, ok := d.Array(field)
	if !ok {
		return 0
	}
	return len(arr)
}

// Exceeds reports whether value is strictly greater than threshold.
func Exceeds(value, threshold decimal.Decimal) bool {
	return Gt.Holds(value, threshold)
}
