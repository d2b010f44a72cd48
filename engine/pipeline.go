/*
pipeline.go - Composable query stages

PURPOSE:
  A Pipeline is an ordered list of stages run over one collection. Each
  stage is also usable alone (Filter.Apply, Lookup.Resolve, SumBy, SizeOf).

STAGES:
  Match:   keep documents satisfying a Filter
  Lookup:  attach records from another collection (join.go)
  Group:   one output document per key: {_id: key, <As>: sum}
  Size:    add the length of a sequence field
  Project: keep only named fields, optionally renamed from a dotted path

EVALUATION:
  Memory and SQLite stores evaluate pipelines in process with Run. The Mongo
  store translates the same stages to a native aggregation pipeline, so every
  stage here has a direct server-side equivalent.

EXAMPLE:
  engine.Pipeline{
      engine.Group{By: "user_id", Sum: "problems_solved", As: "problems_solved"},
      engine.Lookup{From: "users", LocalField: "_id", ForeignField: "_id", As: "user", Single: true},
      engine.Project{Fields: []engine.Field{engine.Keep("_id"), engine.Alias("user", "user.name")}},
  }
*/
package engine

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// Stage is one step of a Pipeline.
type Stage interface {
	Apply(ctx context.Context, docs []Document, src Source) ([]Document, error)
}

// Pipeline runs its stages in order.
type Pipeline []Stage

// Run evaluates the pipeline over docs. src resolves Lookup targets.
func (p Pipeline) Run(ctx context.Context, docs []Document, src Source) ([]Document, error) {
	out := docs
	for i, stage := range p {
		var err error
		out, err = stage.Apply(ctx, out, src)
		if err != nil {
			return nil, fmt.Errorf("stage %d (%T): %w", i, stage, err)
		}
	}
	return out, nil
}

// =============================================================================
// STAGES
// =============================================================================

// Match keeps documents satisfying Filter.
type Match struct {
	Filter Filter
}

func (m Match) Apply(_ context.Context, docs []Document, _ Source) ([]Document, error) {
	return m.Filter.Apply(docs), nil
}

// Apply reads the From collection from src and resolves the lookup.
func (l Lookup) Apply(ctx context.Context, docs []Document, src Source) ([]Document, error) {
	targets, err := src.Documents(ctx, l.From)
	if err != nil {
		return nil, err
	}
	return l.Resolve(docs, targets), nil
}

// Group sums Sum per value of By and emits {_id: key, As: sum}. An empty By
// is the global group with _id nil.
type Group struct {
	By  string
	Sum string
	As  string
}

func (g Group) Apply(_ context.Context, docs []Document, _ Source) ([]Document, error) {
	groups := SumBy(docs, g.Sum, g.By)
	out := make([]Document, 0, len(groups))
	for _, gs := range groups {
		out = append(out, Document{IDField: gs.Key, g.As: gs.Sum})
	}
	return out, nil
}

// Size adds As = length of the sequence Field, 0 when absent.
type Size struct {
	Field string
	As    string
}

func (s Size) Apply(_ context.Context, docs []Document, _ Source) ([]Document, error) {
	out := make([]Document, 0, len(docs))
	for _, d := range docs {
		c := d.Clone()
		c[s.As] = decimal.NewFromInt(int64(SizeOf(d, s.Field)))
		out = append(out, c)
	}
	return out, nil
}

// Field is one projected output field: As takes the value found at Path.
type Field struct {
	As   string
	Path string
}

// Keep projects a field under its own name.
func Keep(name string) Field { return Field{As: name, Path: name} }

// Alias projects the value at path under a new name.
func Alias(as, path string) Field { return Field{As: as, Path: path} }

// Project keeps only Fields. _id is dropped unless listed.
type Project struct {
	Fields []Field
}

// KeepFields is shorthand for a Project of plain field names.
func KeepFields(names ...string) Project {
	fields := make([]Field, len(names))
	for i, n := range names {
		fields[i] = Keep(n)
	}
	return Project{Fields: fields}
}

func (p Project) Apply(_ context.Context, docs []Document, _ Source) ([]Document, error) {
	out := make([]Document, 0, len(docs))
	for _, d := range docs {
		projected := make(Document, len(p.Fields))
		for _, f := range p.Fields {
			if v, ok := d.Get(f.Path); ok {
				projected[f.As] = v
			}
		}
		out = append(out, projected)
	}
	return out, nil
}
