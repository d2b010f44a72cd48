package mongo

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/zenclass/zenreport/engine"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	mongodrv "go.mongodb.org/mongo-driver/mongo"
)

// =============================================================================
// FILTERS
// =============================================================================

// FilterDoc translates an engine.Filter to a query document.
func FilterDoc(f engine.Filter) bson.D {
	switch len(f) {
	case 0:
		return bson.D{}
	case 1:
		return condDoc(f[0])
	}
	clauses := make(bson.A, 0, len(f))
	for _, c := range f {
		clauses = append(clauses, condDoc(c))
	}
	return bson.D{{Key: "$and", Value: clauses}}
}

func condDoc(c engine.Cond) bson.D {
	switch c.Op {
	case engine.OpIn:
		return bson.D{{Key: c.Field, Value: bson.D{{Key: "$in", Value: bson.A(c.Values)}}}}
	case engine.OpWithin:
		upper := "$lt"
		if c.Range.Kind == engine.Closed {
			upper = "$lte"
		}
		return bson.D{{Key: c.Field, Value: bson.D{
			{Key: "$gte", Value: c.Range.Start},
			{Key: upper, Value: c.Range.End},
		}}}
	case engine.OpCompare:
		return bson.D{{Key: c.Field, Value: bson.D{{Key: "$" + string(c.Cmp), Value: number(c.Threshold)}}}}
	}
	return bson.D{{Key: c.Field, Value: c.Value}}
}

func number(d decimal.Decimal) any {
	if d.IsInteger() {
		return d.IntPart()
	}
	return d.InexactFloat64()
}

// =============================================================================
// PIPELINES
// =============================================================================

// PipelineDoc translates an engine.Pipeline to an aggregation pipeline.
func PipelineDoc(p engine.Pipeline) (mongodrv.Pipeline, error) {
	var out mongodrv.Pipeline
	for i, stage := range p {
		docs, err := stageDocs(stage)
		if err != nil {
			return nil, fmt.Errorf("stage %d: %w", i, err)
		}
		out = append(out, docs...)
	}
	return out, nil
}

func stageDocs(stage engine.Stage) ([]bson.D, error) {
	switch s := stage.(type) {
	case engine.Match:
		return []bson.D{{{Key: "$match", Value: FilterDoc(s.Filter)}}}, nil
	case engine.Lookup:
		return lookupDocs(s), nil
	case engine.Group:
		var key any
		if s.By != "" {
			key = "$" + s.By
		}
		return []bson.D{{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: key},
			{Key: s.As, Value: bson.D{{Key: "$sum", Value: "$" + s.Sum}}},
		}}}}, nil
	case engine.Size:
		field := "$" + s.Field
		return []bson.D{{{Key: "$addFields", Value: bson.D{
			{Key: s.As, Value: bson.D{{Key: "$cond", Value: bson.A{
				bson.D{{Key: "$isArray", Value: field}},
				bson.D{{Key: "$size", Value: field}},
				0,
			}}}},
		}}}}, nil
	case engine.Project:
		return []bson.D{{{Key: "$project", Value: projectDoc(s)}}}, nil
	}
	return nil, fmt.Errorf("unsupported stage %T", stage)
}

func projectDoc(p engine.Project) bson.D {
	doc := bson.D{}
	hasID := false
	for _, f := range p.Fields {
		if f.As == engine.IDField {
			hasID = true
		}
		doc = append(doc, bson.E{Key: f.As, Value: "$" + f.Path})
	}
	if !hasID {
		doc = append(bson.D{{Key: engine.IDField, Value: 0}}, doc...)
	}
	return doc
}

// lookupDocs emits $lookup plus the stages that give it engine semantics:
// joined records follow the order of an array local field, the foreign key is
// hidden again when it was not requested, and Single unwinds while keeping
// parents that matched nothing.
func lookupDocs(l engine.Lookup) []bson.D {
	lookup := bson.D{
		{Key: "from", Value: l.From},
		{Key: "localField", Value: l.LocalField},
		{Key: "foreignField", Value: l.ForeignField},
	}
	hideForeign := false
	if len(l.Fields) > 0 {
		keep := append([]string{}, l.Fields...)
		if !contains(keep, l.ForeignField) {
			keep = append(keep, l.ForeignField)
			hideForeign = true
		}
		proj := bson.D{}
		if !contains(keep, engine.IDField) {
			proj = append(proj, bson.E{Key: engine.IDField, Value: 0})
		}
		for _, f := range keep {
			proj = append(proj, bson.E{Key: f, Value: 1})
		}
		lookup = append(lookup, bson.E{Key: "pipeline", Value: bson.A{bson.D{{Key: "$project", Value: proj}}}})
	}
	lookup = append(lookup, bson.E{Key: "as", Value: l.As})

	docs := []bson.D{{{Key: "$lookup", Value: lookup}}}
	if !l.Single {
		docs = append(docs, reorderDoc(l))
	}
	if hideForeign {
		docs = append(docs, bson.D{{Key: "$unset", Value: l.As + "." + l.ForeignField}})
	}
	if l.Single {
		docs = append(docs, bson.D{{Key: "$unwind", Value: bson.D{
			{Key: "path", Value: "$" + l.As},
			{Key: "preserveNullAndEmptyArrays", Value: true},
		}}})
	}
	return docs
}

// reorderDoc rebuilds the joined array in the order of the local ids when the
// local field is an array, taking each repeated id once. Scalar locals keep the foreign collection order.
func reorderDoc(l engine.Lookup) bson.D {
	local := "$" + l.LocalField
	joined := "$" + l.As
	uniqueIDs := bson.D{{Key: "$reduce", Value: bson.D{
		{Key: "input", Value: local},
		{Key: "initialValue", Value: bson.A{}},
		{Key: "in", Value: bson.D{{Key: "$cond", Value: bson.A{
			bson.D{{Key: "$in", Value: bson.A{"$$this", "$$value"}}},
			"$$value",
			bson.D{{Key: "$concatArrays", Value: bson.A{"$$value", bson.A{"$$this"}}}},
		}}}},
	}}}
	perID := bson.D{{Key: "$map", Value: bson.D{
		{Key: "input", Value: uniqueIDs},
		{Key: "as", Value: "id"},
		{Key: "in", Value: bson.D{{Key: "$filter", Value: bson.D{
			{Key: "input", Value: joined},
			{Key: "as", Value: "m"},
			{Key: "cond", Value: bson.D{{Key: "$eq", Value: bson.A{"$$m." + l.ForeignField, "$$id"}}}},
		}}}},
	}}}
	flattened := bson.D{{Key: "$reduce", Value: bson.D{
		{Key: "input", Value: perID},
		{Key: "initialValue", Value: bson.A{}},
		{Key: "in", Value: bson.D{{Key: "$concatArrays", Value: bson.A{"$$value", "$$this"}}}},
	}}}
	return bson.D{{Key: "$addFields", Value: bson.D{
		{Key: l.As, Value: bson.D{{Key: "$cond", Value: bson.A{
			bson.D{{Key: "$isArray", Value: local}},
			flattened,
			joined,
		}}}},
	}}}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// =============================================================================
// RESULTS
// =============================================================================

// fromBSON converts decoded driver values into engine values: documents become
// engine.Document, arrays []any and BSON dates time.Time.
func fromBSON(v any) any {
	switch t := v.(type) {
	case bson.M:
		out := make(engine.Document, len(t))
		for k, el := range t {
			out[k] = fromBSON(el)
		}
		return out
	case map[string]any:
		return fromBSON(bson.M(t))
	case bson.D:
		out := make(engine.Document, len(t))
		for _, e := range t {
			out[e.Key] = fromBSON(e.Value)
		}
		return out
	case bson.A:
		return fromBSON([]any(t))
	case []any:
		out := make([]any, len(t))
		for i := range t {
			out[i] = fromBSON(t[i])
		}
		return out
	case primitive.DateTime:
		return t.Time().UTC()
	case primitive.Decimal128:
		if d, err := decimal.NewFromString(t.String()); err == nil {
			return d
		}
	}
	return v
}

// toBSON converts engine values for insertion.
func toBSON(v any) any {
	switch t := v.(type) {
	case engine.Document:
		out := make(bson.M, len(t))
		for k, el := range t {
			out[k] = toBSON(el)
		}
		return out
	case map[string]any:
		return toBSON(engine.Document(t))
	case []engine.Document:
		out := make(bson.A, len(t))
		for i := range t {
			out[i] = toBSON(t[i])
		}
		return out
	case []any:
		out := make(bson.A, len(t))
		for i := range t {
			out[i] = toBSON(t[i])
		}
		return out
	case decimal.Decimal:
		return t.InexactFloat64()
	}
	return v
}
