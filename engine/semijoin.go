package engine

import (
	"context"
	"fmt"
)

// Semijoin is the two-stage filter-intersect: collect the ids in Source that
// satisfy SourceFilter, then keep the Target records whose TargetField is one
// of those ids and that satisfy TargetFilter.
//
// It never returns Target records combined with Source attributes, only the
// distinct TargetField values that survive both stages.
type Semijoin struct {
	Source       string
	SourceField  string
	SourceFilter Filter

	Target       string
	TargetField  string
	TargetFilter Filter
}

// SemijoinResult holds the output of both stages.
type SemijoinResult struct {
	Sources []any // distinct SourceField values passing stage 1
	Matched []any // distinct TargetField values passing stage 2
}

// Run executes both stages against store. An empty stage 1 short-circuits
// without a second store call.
func (s Semijoin) Run(ctx context.Context, store Store) (SemijoinResult, error) {
	sources, err := store.Distinct(ctx, s.Source, s.SourceField, s.SourceFilter)
	if err != nil {
		return SemijoinResult{}, fmt.Errorf("semijoin stage 1: %w", err)
	}
	if len(sources) == 0 {
		return SemijoinResult{Sources: []any{}, Matched: []any{}}, nil
	}

	filter := s.TargetFilter.And(In(s.TargetField, sources))
	matched, err := store.Distinct(ctx, s.Target, s.TargetField, filter)
	if err != nil {
		return SemijoinResult{}, fmt.Errorf("semijoin stage 2: %w", err)
	}
	if matched == nil {
		matched = []any{}
	}
	return SemijoinResult{Sources: sources, Matched: matched}, nil
}
