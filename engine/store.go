/*
store.go - Document store contract

PURPOSE:
  Defines the four primitives the query layer needs from a document store.
  Anything offering them is substitutable.

KEY INTERFACES:
  Store:  replace-all, find, aggregate, distinct
  Source: whole-collection reads, used by in-process pipeline evaluation

REPLACE-ALL CONTRACT:
  ReplaceAll drops the prior contents of the collection before inserting.
  Loading the same seed twice leaves the same contents and the same count.
  An empty batch still drops.

IMPLEMENTATIONS:
  - engine/store/memory.go: In-memory, for tests and dry runs
  - store/sqlite/sqlite.go: JSON documents in SQLite
  - store/mongo/mongo.go:   MongoDB with native filters and pipelines

SEE ALSO:
  - loader.go: Writes through ReplaceAll
  - pipeline.go: What Aggregate evaluates
*/
package engine

import "context"

// Store is the document store the query layer runs against.
// Read operations never mutate stored documents.
type Store interface {
	// ReplaceAll drops the collection and inserts docs. Returns the number inserted.
	ReplaceAll(ctx context.Context, collection string, docs []Document) (int, error)

	// Find returns the documents matching filter, in collection order.
	Find(ctx context.Context, collection string, filter Filter) ([]Document, error)

	// Aggregate runs a pipeline over the collection.
	Aggregate(ctx context.Context, collection string, pipeline Pipeline) ([]Document, error)

	// Distinct returns the distinct values of field among documents matching filter.
	// Array fields contribute each element.
	Distinct(ctx context.Context, collection, field string, filter Filter) ([]any, error)

	// Close releases the connection.
	Close() error
}

// Source reads whole collections. Stores that evaluate pipelines in process
// hand themselves to Pipeline.Run as the Source for lookups.
type Source interface {
	Documents(ctx context.Context, collection string) ([]Document, error)
}
