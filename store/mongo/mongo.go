/*
Package mongo provides a MongoDB-backed engine.Store.

PURPOSE:
  Runs the query layer against a real document store. Filters and pipelines
  are translated to native query documents (translate.go) and executed
  server-side; Distinct is the native distinct command.

SERVER REQUIREMENTS:
  $lookup with both localField and a projection sub-pipeline needs
  MongoDB 5.0 or later.

USAGE:
  store, err := mongo.New(ctx, mongo.Options{URI: uri, Database: "zenclass"})
  if err != nil {
      return err
  }
  defer store.Close()

SEE ALSO:
  - translate.go: engine.Filter / engine.Pipeline to BSON
  - engine/store.go: Interface definition
*/
package mongo

import (
	"context"
	"fmt"
	"time"

	"github.com/zenclass/zenreport/engine"
	"go.mongodb.org/mongo-driver/bson"
	mongodrv "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Options configures the connection.
type Options struct {
	URI      string
	Database string
	Timeout  time.Duration // connect and server selection; 0 means 10s
}

// Store implements engine.Store on a MongoDB database.
type Store struct {
	client  *mongodrv.Client
	db      *mongodrv.Database
	timeout time.Duration
}

var _ engine.Store = (*Store)(nil)

// New connects and pings the server. A server that cannot be reached is
// reported as engine.ErrStoreUnavailable.
func New(ctx context.Context, opts Options) (*Store, error) {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	clientOpts := options.Client().
		ApplyURI(opts.URI).
		SetConnectTimeout(timeout).
		SetServerSelectionTimeout(timeout)

	client, err := mongodrv.Connect(ctx, clientOpts)
	if err != nil {
		return nil, engine.OpError("connect", "", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, engine.OpError("connect", "", err)
	}

	return &Store{client: client, db: client.Database(opts.Database), timeout: timeout}, nil
}

// Close disconnects the client.
func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// ReplaceAll drops the collection, then inserts docs. Dropping a collection
// that does not exist is not an error.
func (s *Store) ReplaceAll(ctx context.Context, collection string, docs []engine.Document) (int, error) {
	coll := s.db.Collection(collection)
	if err := coll.Drop(ctx); err != nil {
		return 0, engine.OpError("replace_all", collection, fmt.Errorf("drop: %w", err))
	}
	if len(docs) == 0 {
		return 0, nil
	}

	batch := make([]any, len(docs))
	for i, d := range docs {
		batch[i] = toBSON(d)
	}
	res, err := coll.InsertMany(ctx, batch)
	if err != nil {
		return 0, engine.OpError("replace_all", collection, fmt.Errorf("insert: %w", err))
	}
	return len(res.InsertedIDs), nil
}

func (s *Store) Find(ctx context.Context, collection string, filter engine.Filter) ([]engine.Document, error) {
	cur, err := s.db.Collection(collection).Find(ctx, FilterDoc(filter))
	if err != nil {
		return nil, engine.OpError("find", collection, err)
	}
	docs, err := decodeAll(ctx, cur)
	return docs, engine.OpError("find", collection, err)
}

func (s *Store) Aggregate(ctx context.Context, collection string, pipeline engine.Pipeline) ([]engine.Document, error) {
	stages, err := PipelineDoc(pipeline)
	if err != nil {
		return nil, engine.OpError("aggregate", collection, err)
	}
	cur, err := s.db.Collection(collection).Aggregate(ctx, stages)
	if err != nil {
		return nil, engine.OpError("aggregate", collection, err)
	}
	docs, err := decodeAll(ctx, cur)
	return docs, engine.OpError("aggregate", collection, err)
}

func (s *Store) Distinct(ctx context.Context, collection, field string, filter engine.Filter) ([]any, error) {
	values, err := s.db.Collection(collection).Distinct(ctx, field, FilterDoc(filter))
	if err != nil {
		return nil, engine.OpError("distinct", collection, err)
	}
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = fromBSON(v)
	}
	return out, nil
}

func decodeAll(ctx context.Context, cur *mongodrv.Cursor) ([]engine.Document, error) {
	var raw []bson.M
	if err := cur.All(ctx, &raw); err != nil {
		return nil, err
	}
	docs := make([]engine.Document, 0, len(raw))
	for _, m := range raw {
		if d, ok := fromBSON(m).(engine.Document); ok {
			docs = append(docs, d)
		}
	}
	return docs, nil
}
