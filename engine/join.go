package engine

// =============================================================================
// LOOKUP - Attach referenced records from another collection
// =============================================================================

// Lookup attaches the records of From whose ForeignField equals the source
// record's LocalField, under the new field As.
//
// A scalar local value attaches every match in target order (one-to-many).
// An array local value attaches, for each id in order, its matches; ids that
// match nothing are skipped and a repeated id attaches its matches once. With Single set the first match is attached as a
// sub-document and the field is left absent when nothing matches. The parent
// record is always kept.
type Lookup struct {
	From         string
	LocalField   string
	ForeignField string
	As           string

	// Fields limits which target fields are attached. Empty attaches all.
	Fields []string

	Single bool
}

// Resolve applies the lookup to docs using targets as the From collection.
// Neither docs nor targets are modified; every output record is a copy.
func (l Lookup) Resolve(docs, targets []Document) []Document {
	index := make(map[string][]Document)
	for _, t := range targets {
		v, ok := t.Get(l.ForeignField)
		if !ok {
			continue
		}
		k := ValueKey(v)
		index[k] = append(index[k], t)
	}

	out := make([]Document, 0, len(docs))
	for _, d := range docs {
		enriched := d.Clone()
		matches := l.matches(d, index)

		if l.Single {
			if len(matches) > 0 {
				enriched[l.As] = matches[0].Pick(l.Fields)
			} else {
				delete(enriched, l.As)
			}
			out = append(out, enriched)
			continue
		}

		joined := make([]Document, 0, len(matches))
		for _, m := range matches {
			joined = append(joined, m.Pick(l.Fields))
		}
		enriched[l.As] = joined
		out = append(out, enriched)
	}
	return out
}

func (l Lookup) matches(d Document, index map[string][]Document) []Document {
	v, ok := d.Get(l.LocalField)
	if !ok || v == nil {
		return nil
	}
	if ids, isArr := AsArray(v); isArr {
		var found []Document
		seen := make(map[string]bool, len(ids))
		for _, id := range ids {
			k := ValueKey(id)
			if seen[k] {
				continue
			}
			seen[k] = true
			found = append(found, index[k]...)
		}
		return found
	}
	return index[ValueKey(v)]
}
