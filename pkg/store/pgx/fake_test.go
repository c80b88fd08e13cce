package pgx

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	pgxv5 "github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type queued struct {
	sql  string
	args []any
}

type fakeConn struct {
	tx       *fakeTx
	beginErr error

	rows    [][][]any
	row     []any
	rowErr  error
	queries []queued
}

func (c *fakeConn) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, errors.New("unexpected Exec")
}

func (c *fakeConn) Query(ctx context.Context, sql string, args ...any) (pgxv5.Rows, error) {
	c.queries = append(c.queries, queued{sql: sql, args: args})
	if len(c.rows) == 0 {
		return &fakeRows{}, nil
	}
	r := c.rows[0]
	c.rows = c.rows[1:]
	return &fakeRows{values: r}, nil
}

func (c *fakeConn) QueryRow(ctx context.Context, sql string, args ...any) pgxv5.Row {
	c.queries = append(c.queries, queued{sql: sql, args: args})
	if c.rowErr != nil {
		return fakeRow{err: c.rowErr}
	}
	return fakeRow{values: c.row}
}

func (c *fakeConn) Begin(ctx context.Context) (pgxv5.Tx, error) {
	if c.beginErr != nil {
		return nil, c.beginErr
	}
	return c.tx, nil
}

// fakeTx records batches. Methods not overridden panic through the nil
// embedded interface.
type fakeTx struct {
	pgxv5.Tx

	execErrAt int // 1-based statement index that fails, 0 for none
	commitErr error

	executed   []queued
	committed  bool
	rolledBack bool
}

func (t *fakeTx) SendBatch(ctx context.Context, b *pgxv5.Batch) pgxv5.BatchResults {
	return &fakeBatchResults{tx: t, batch: b}
}

func (t *fakeTx) Commit(ctx context.Context) error {
	if t.commitErr != nil {
		return t.commitErr
	}
	t.committed = true
	return nil
}

func (t *fakeTx) Rollback(ctx context.Context) error {
	if t.committed {
		return pgxv5.ErrTxClosed
	}
	t.rolledBack = true
	return nil
}

type fakeBatchResults struct {
	pgxv5.BatchResults

	tx    *fakeTx
	batch *pgxv5.Batch
	next  int
}

func (r *fakeBatchResults) Exec() (pgconn.CommandTag, error) {
	q := r.batch.QueuedQueries[r.next]
	r.next++
	r.tx.executed = append(r.tx.executed, queued{sql: q.SQL, args: q.Arguments})
	if r.tx.execErrAt == len(r.tx.executed) {
		return pgconn.CommandTag{}, errors.New("constraint violation")
	}
	return pgconn.CommandTag{}, nil
}

func (r *fakeBatchResults) Close() error { return nil }

type fakeRows struct {
	pgxv5.Rows

	values [][]any
	i      int
	err    error
}

func (r *fakeRows) Next() bool {
	if r.i >= len(r.values) {
		return false
	}
	r.i++
	return true
}

func (r *fakeRows) Scan(dest ...any) error { return assign(dest, r.values[r.i-1]) }
func (r *fakeRows) Err() error { return r.err }
func (r *fakeRows) Close() {}

type fakeRow struct {
	values []any
	err    error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if r.values == nil {
		return pgxv5.ErrNoRows
	}
	return assign(dest, r.values)
}

func assign(dest []any, values []any) error {
	if len(dest) != len(values) {
		return fmt.Errorf("scan: %d destinations for %d values", len(dest), len(values))
	}
	for i, d := range dest {
		reflect.ValueOf(d).Elem().Set(reflect.ValueOf(values[i]))
	}
	return nil
}
