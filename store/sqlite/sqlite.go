/*
Package sqlite provides a SQLite-backed engine.Store.

PURPOSE:
  Persists each collection as JSON documents in a single table, so a run can
  be replayed and inspected without a MongoDB server. Query primitives are
  evaluated in Go over the decoded documents, the same way the memory store
  does it.

KEY TABLE:
  documents: (collection, seq) primary key, one row per document.
  seq keeps insertion order, which is the natural collection order.

TIME VALUES:
  JSON has no date type. time.Time values are written as {"$date": RFC3339Nano}
  and decoded back to time.Time on read, so normalized timestamps survive a
  round trip and range filters keep working.

REPLACE-ALL:
  DELETE of the collection and every INSERT run in one transaction: a failed
  load leaves the previous contents in place.

USAGE:
  store, err := sqlite.New("./zenclass.db")
  if err != nil {
      return err
  }
  defer store.Close()

SEE ALSO:
  - engine/store.go: Interface definition
  - engine/store/memory.go: In-memory implementation
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/zenclass/zenreport/engine"
)

// Store implements engine.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var _ engine.Store = (*Store)(nil)
var _ engine.Source = (*Store)(nil)

// New opens (or creates) the database at dbPath.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL")
	if err != nil {
		return nil, engine.OpError("connect", "", fmt.Errorf("failed to open database: %w", err))
	}
	// A ":memory:" database exists per connection.
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, engine.OpError("connect", "", fmt.Errorf("failed to migrate database: %w", err))
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS documents (
		collection TEXT NOT NULL,
		seq INTEGER NOT NULL,
		doc_id TEXT,
		body TEXT NOT NULL,
		created_at TEXT NOT NULL,
		PRIMARY KEY (collection, seq)
	);

	CREATE INDEX IF NOT EXISTS idx_documents_doc_id
		ON documents(collection, doc_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// WRITES
// =============================================================================

// ReplaceAll drops the collection and inserts docs in one transaction.
func (s *Store) ReplaceAll(ctx context.Context, collection string, docs []engine.Document) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, engine.OpError("replace_all", collection, fmt.Errorf("failed to begin transaction: %w", err))
	}
	defer sqlTx.Rollback()

	if _, err := sqlTx.ExecContext(ctx, "DELETE FROM documents WHERE collection = ?", collection); err != nil {
		return 0, engine.OpError("replace_all", collection, err)
	}

	now := time.Now().UTC().Format(time.RFC3339)
	for i, d := range docs {
		c := d.Clone()
		if _, ok := c[engine.IDField]; !ok {
			c[engine.IDField] = uuid.NewString()
		}
		body, err := json.Marshal(encodeValue(c))
		if err != nil {
			return 0, engine.OpError("replace_all", collection, fmt.Errorf("failed to encode document %d: %w", i, err))
		}
		_, err = sqlTx.ExecContext(ctx, `
			INSERT INTO documents (collection, seq, doc_id, body, created_at)
			VALUES (?, ?, ?, ?, ?)
		`, collection, i, engine.ValueKey(c[engine.IDField]), string(body), now)
		if err != nil {
			return 0, engine.OpError("replace_all", collection, fmt.Errorf("failed to insert document %d: %w", i, err))
		}
	}

	if err := sqlTx.Commit(); err != nil {
		return 0, engine.OpError("replace_all", collection, err)
	}
	return len(docs), nil
}

// =============================================================================
// READS
// =============================================================================

// Documents returns every document of the collection in insertion order.
func (s *Store) Documents(ctx context.Context, collection string) ([]engine.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT body FROM documents WHERE collection = ? ORDER BY seq ASC", collection)
	if err != nil {
		return nil, engine.OpError("find", collection, fmt.Errorf("failed to query documents: %w", err))
	}
	defer rows.Close()

	var docs []engine.Document
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, engine.OpError("find", collection, fmt.Errorf("failed to scan document: %w", err))
		}
		d, err := decodeDocument(body)
		if err != nil {
			return nil, engine.OpError("find", collection, err)
		}
		docs = append(docs, d)
	}
	return docs, engine.OpError("find", collection, rows.Err())
}

func (s *Store) Find(ctx context.Context, collection string, filter engine.Filter) ([]engine.Document, error) {
	docs, err := s.Documents(ctx, collection)
	if err != nil {
		return nil, err
	}
	return filter.Apply(docs), nil
}

func (s *Store) Aggregate(ctx context.Context, collection string, pipeline engine.Pipeline) ([]engine.Document, error) {
	docs, err := s.Documents(ctx, collection)
	if err != nil {
		return nil, err
	}
	out, err := pipeline.Run(ctx, docs, s)
	return out, engine.OpError("aggregate", collection, err)
}

func (s *Store) Distinct(ctx context.Context, collection, field string, filter engine.Filter) ([]any, error) {
	docs, err := s.Find(ctx, collection, filter)
	if err != nil {
		return nil, err
	}
	values := engine.DistinctValues(docs, field)
	if values == nil {
		values = []any{}
	}
	return values, nil
}

// Count returns the number of stored documents in a collection.
func (s *Store) Count(ctx context.Context, collection string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM documents WHERE collection = ?", collection,
	).Scan(&count)
	return count, engine.OpError("count", collection, err)
}

// =============================================================================
// ENCODING
// =============================================================================

const dateKey = "$date"

func encodeValue(v any) any {
	switch t := v.(type) {
	case time.Time:
		return map[string]any{dateKey: t.UTC().Format(time.RFC3339Nano)}
	case decimal.Decimal:
		return json.Number(t.String())
	case engine.Document:
		return encodeMap(t)
	case map[string]any:
		return encodeMap(t)
	case []engine.Document:
		out := make([]any, len(t))
		for i := range t {
			out[i] = encodeMap(t[i])
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i := range t {
			out[i] = encodeValue(t[i])
		}
		return out
	}
	return v
}

func encodeMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = encodeValue(v)
	}
	return out
}

func decodeDocument(body string) (engine.Document, error) {
	var raw map[string]any
	if err := json.Unmarshal([]byte(body), &raw); err != nil {
		return nil, fmt.Errorf("failed to decode document: %w", err)
	}
	d, _ := decodeValue(raw).(engine.Document)
	return d, nil
}

func decodeValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		if s, ok := t[dateKey].(string); ok && len(t) == 1 {
			if ts, err := time.Parse(time.RFC3339Nano, s); err == nil {
				return ts
			}
		}
		out := make(engine.Document, len(t))
		for k, el := range t {
			out[k] = decodeValue(el)
		}
		return out
	case []any:
		for i := range t {
			t[i] = decodeValue(t[i])
		}
		return t
	}
	return v
}
