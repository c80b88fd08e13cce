package pgx

import (
	"context"

	pgxv5 "github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alaris-labs/papergraph/pkg/store"
)

type pgxIConn interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, optionsAndArgs ...any) (pgxv5.Rows, error)
	QueryRow(ctx context.Context, sql string, optionsAndArgs ...any) pgxv5.Row
	Begin(ctx context.Context) (pgxv5.Tx, error)
}

var (
	_ pgxIConn           = (*pgxpool.Pool)(nil)
	_ store.GraphStorage = (*GraphDBStorage)(nil)
)

// defaultBatchSize bounds the statements queued on one pgx.Batch.
const defaultBatchSize = 500

// GraphDBStorage implements store.GraphStorage on PostgreSQL. Nodes live in
// the nodes table with their payload as jsonb; edges in the edges table keyed
// by (from_id, to_id, type).
type GraphDBStorage struct {
	conn      pgxIConn
	batchSize int
}

type GraphDBStorageOption func(*GraphDBStorage)

// WithBatchSize sets how many rows are upserted per round trip.
func WithBatchSize(n int) GraphDBStorageOption {
	return func(s *GraphDBStorage) {
		if n > 0 {
			s.batchSize = n
		}
	}
}

// NewGraphDBStorageWithConnection creates a GraphDBStorage using an existing
// connection or pool.
func NewGraphDBStorageWithConnection(conn pgxIConn, opts ...GraphDBStorageOption) *GraphDBStorage {
	s := &GraphDBStorage{
		conn:      conn,
		batchSize: defaultBatchSize,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(s)
	}
	return s
}

// NewPool opens a connection pool for databaseURL and pings it.
func NewPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}
