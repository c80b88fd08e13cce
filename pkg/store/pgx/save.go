package pgx

import (
	"context"
	"fmt"

	pgxv5 "github.com/jackc/pgx/v5"

	"github.com/alaris-labs/papergraph/internal/util"
	"github.com/alaris-labs/papergraph/pkg/graph"
	"github.com/alaris-labs/papergraph/pkg/logger"
	"github.com/alaris-labs/papergraph/pkg/store"
)

const upsertNodeSQL = `
INSERT INTO nodes (id, type, title, data)
VALUES ($1, $2, $3, $4)
ON CONFLICT (id) DO UPDATE SET
	type = EXCLUDED.type,
	title = EXCLUDED.title,
	data = EXCLUDED.data,
	updated_at = now()`

const insertEdgeSQL = `
INSERT INTO edges (from_id, to_id, type)
VALUES ($1, $2, $3)
ON CONFLICT DO NOTHING`

// SaveGraph writes g in a single transaction. Nodes are upserted before
// edges so every edge finds its endpoints. On any error nothing is kept.
func (s *GraphDBStorage) SaveGraph(ctx context.Context, g graph.Graph) (err error) {
	if err := g.Validate(); err != nil {
		return fmt.Errorf("refusing to save invalid graph: %w", err)
	}

	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		// Rollback after a successful commit is a no-op.
		_ = tx.Rollback(ctx)
	}()

	err = store.ChunkRange(len(g.Nodes), s.batchSize, func(start, end int) error {
		batch := &pgxv5.Batch{}
		for _, n := range g.Nodes[start:end] {
			data, err := store.EncodeNodeData(n.Data)
			if err != nil {
				return fmt.Errorf("node %q: %w", n.ID, err)
			}
			batch.Queue(upsertNodeSQL, n.ID, n.Type.String(), util.SanitizePostgresText(n.Title()), data)
		}
		return sendBatch(ctx, tx, batch)
	})
	if err != nil {
		return fmt.Errorf("failed to upsert nodes: %w", err)
	}

	err = store.ChunkRange(len(g.Edges), s.batchSize, func(start, end int) error {
		batch := &pgxv5.Batch{}
		for _, e := range g.Edges[start:end] {
			batch.Queue(insertEdgeSQL, e.From, e.To, e.Type.String())
		}
		return sendBatch(ctx, tx, batch)
	})
	if err != nil {
		return fmt.Errorf("failed to insert edges: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit graph: %w", err)
	}

	logger.Debug("[Store] Saved graph", "nodes", len(g.Nodes), "edges", len(g.Edges))
	return nil
}

func sendBatch(ctx context.Context, tx pgxv5.Tx, batch *pgxv5.Batch) error {
	if batch.Len() == 0 {
		return nil
	}
	br := tx.SendBatch(ctx, batch)
	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			return err
		}
	}
	return br.Close()
}
