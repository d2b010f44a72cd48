// Package store provides an in-memory engine.Store.
package store

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/zenclass/zenreport/engine"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dry runs)
// =============================================================================

type Memory struct {
	mu          sync.RWMutex
	collections map[string][]engine.Document
	closed      bool
}

func NewMemory() *Memory {
	return &Memory{collections: make(map[string][]engine.Document)}
}

var _ engine.Store = (*Memory)(nil)
var _ engine.Source = (*Memory)(nil)

// ReplaceAll drops the collection and stores copies of docs. Documents
// without an _id get a generated one.
func (m *Memory) ReplaceAll(_ context.Context, collection string, docs []engine.Document) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.checkOpen("replace_all", collection); err != nil {
		return 0, err
	}

	stored := make([]engine.Document, 0, len(docs))
	for _, d := range docs {
		c := d.Clone()
		if _, ok := c[engine.IDField]; !ok {
			c[engine.IDField] = uuid.NewString()
		}
		stored = append(stored, c)
	}
	m.collections[collection] = stored
	return len(stored), nil
}

func (m *Memory) Find(_ context.Context, collection string, filter engine.Filter) ([]engine.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.checkOpen("find", collection); err != nil {
		return nil, err
	}
	return copyAll(filter.Apply(m.collections[collection])), nil
}

func (m *Memory) Aggregate(ctx context.Context, collection string, pipeline engine.Pipeline) ([]engine.Document, error) {
	docs, err := m.Documents(ctx, collection)
	if err != nil {
		return nil, err
	}
	out, err := pipeline.Run(ctx, docs, m)
	return out, engine.OpError("aggregate", collection, err)
}

func (m *Memory) Distinct(_ context.Context, collection, field string, filter engine.Filter) ([]any, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.checkOpen("distinct", collection); err != nil {
		return nil, err
	}
	values := engine.DistinctValues(filter.Apply(m.collections[collection]), field)
	if values == nil {
		values = []any{}
	}
	return values, nil
}

// Documents returns copies of every document in the collection.
// An unknown collection is empty.
func (m *Memory) Documents(_ context.Context, collection string) ([]engine.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.checkOpen("find", collection); err != nil {
		return nil, err
	}
	return copyAll(m.collections[collection]), nil
}

// Close marks the store closed. Later calls fail with a store fault.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *Memory) checkOpen(op, collection string) error {
	if m.closed {
		return engine.OpError(op, collection, errClosed)
	}
	return nil
}

var errClosed = errors.New("memory store is closed")

func copyAll(docs []engine.Document) []engine.Document {
	out := make([]engine.Document, len(docs))
	for i, d := range docs {
		out[i] = d.Clone()
	}
	return out
}
