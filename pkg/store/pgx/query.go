package pgx

import (
	"context"
	"errors"
	"fmt"
	"strings"

	pgxv5 "github.com/jackc/pgx/v5"

	"github.com/alaris-labs/papergraph/pkg/graph"
	"github.com/alaris-labs/papergraph/pkg/store"
)

const listPapersSQL = `
SELECT id, COALESCE(title, '')
FROM nodes
WHERE type = 'Paper'
ORDER BY title, id`

const getNodeSQL = `
SELECT id, type, COALESCE(title, ''), data
FROM nodes
WHERE id = $1 AND type = $2`

// outgoingNodesSQL selects the targets of edges of one type leaving a node.
const outgoingNodesSQL = `
SELECT n.id, n.type, COALESCE(n.title, ''), n.data
FROM edges e
JOIN nodes n ON n.id = e.to_id
WHERE e.from_id = $1 AND e.type = $2
ORDER BY n.id`

const conceptSearchSQL = `
SELECT c.id, COALESCE(c.title, ''), p.id, COALESCE(p.title, '')
FROM nodes c
JOIN edges e ON e.to_id = c.id AND e.type = 'discusses'
JOIN nodes p ON p.id = e.from_id AND p.type = 'Paper'
WHERE c.type = 'Concept' AND (c.id = $1 OR c.title ILIKE $2 ESCAPE '\')
ORDER BY c.title, c.id, p.title, p.id`

const titleSearchSQL = `
SELECT id, COALESCE(title, '')
FROM nodes
WHERE type = 'Paper' AND title ILIKE $1 ESCAPE '\'
ORDER BY title, id
LIMIT $2`

const similarPapersSQL = `
WITH target AS (
	SELECT to_id AS concept_id
	FROM edges
	WHERE from_id = $1 AND type = 'discusses'
)
SELECT p.id, COALESCE(p.title, ''), COUNT(DISTINCT e.to_id) AS shared
FROM edges e
JOIN target t ON t.concept_id = e.to_id
JOIN nodes p ON p.id = e.from_id AND p.type = 'Paper'
WHERE e.type = 'discusses' AND e.from_id <> $1
GROUP BY p.id, p.title
ORDER BY shared DESC, p.title, p.id
LIMIT $2`

// likePattern wraps s for a substring ILIKE, escaping wildcards in s.
func likePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(s) + "%"
}

func (s *GraphDBStorage) ListPapers(ctx context.Context) ([]store.PaperSummary, error) {
	return s.queryPapers(ctx, listPapersSQL)
}

// GetPaper loads a single Paper node, or store.ErrNotFound.
func (s *GraphDBStorage) GetPaper(ctx context.Context, paperID string) (store.NodeRow, error) {
	row := s.conn.QueryRow(ctx, getNodeSQL, paperID, graph.NodeTypePaper.String())
	n, err := scanNode(row)
	if errors.Is(err, pgxv5.ErrNoRows) {
		return store.NodeRow{}, fmt.Errorf("paper %q: %w", paperID, store.ErrNotFound)
	}
	if err != nil {
		return store.NodeRow{}, fmt.Errorf("failed to load paper %q: %w", paperID, err)
	}
	return n, nil
}

func (s *GraphDBStorage) GetPaperConcepts(ctx context.Context, paperID string) ([]store.NodeRow, error) {
	return s.queryOutgoing(ctx, paperID, graph.EdgeDiscusses)
}

func (s *GraphDBStorage) GetPaperAuthors(ctx context.Context, paperID string) ([]store.NodeRow, error) {
	return s.queryOutgoing(ctx, paperID, graph.EdgeAuthoredBy)
}

func (s *GraphDBStorage) GetPaperSections(ctx context.Context, paperID string) ([]store.NodeRow, error) {
	return s.queryOutgoing(ctx, paperID, graph.EdgeHasSection)
}

// SearchPapersByConcept finds concepts whose id equals search or whose title
// contains it, and returns the papers discussing each of them.
func (s *GraphDBStorage) SearchPapersByConcept(ctx context.Context, search string) ([]store.ConceptMatch, error) {
	rows, err := s.conn.Query(ctx, conceptSearchSQL, search, likePattern(search))
	if err != nil {
		return nil, fmt.Errorf("failed to search concepts: %w", err)
	}
	defer rows.Close()

	var found []store.ConceptPaperRow
	for rows.Next() {
		var r store.ConceptPaperRow
		if err := rows.Scan(&r.ConceptID, &r.ConceptTitle, &r.PaperID, &r.PaperTitle); err != nil {
			return nil, err
		}
		found = append(found, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return store.GroupConceptMatches(found), nil
}

func (s *GraphDBStorage) SearchPapersByTitle(ctx context.Context, title string, limit int) ([]store.PaperSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.queryPapers(ctx, titleSearchSQL, likePattern(title), limit)
}

// SimilarPapers ranks other papers by the number of concepts they share with
// paperID.
func (s *GraphDBStorage) SimilarPapers(ctx context.Context, paperID string, limit int) ([]store.SimilarPaper, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.conn.Query(ctx, similarPapersSQL, paperID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query similar papers: %w", err)
	}
	defer rows.Close()

	out := make([]store.SimilarPaper, 0)
	for rows.Next() {
		var p store.SimilarPaper
		if err := rows.Scan(&p.ID, &p.Title, &p.SharedConcepts); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *GraphDBStorage) queryPapers(ctx context.Context, sql string, args ...any) ([]store.PaperSummary, error) {
	rows, err := s.conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query papers: %w", err)
	}
	defer rows.Close()

	out := make([]store.PaperSummary, 0)
	for rows.Next() {
		var p store.PaperSummary
		if err := rows.Scan(&p.ID, &p.Title); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *GraphDBStorage) queryOutgoing(ctx context.Context, nodeID string, edgeType graph.EdgeType) ([]store.NodeRow, error) {
	rows, err := s.conn.Query(ctx, outgoingNodesSQL, nodeID, edgeType.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query %s of %q: %w", edgeType, nodeID, err)
	}
	defer rows.Close()

	out := make([]store.NodeRow, 0)
	for rows.Next() {
		n, err := scanNode(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func scanNode(row pgxv5.Row) (store.NodeRow, error) {
	var (
		n        store.NodeRow
		nodeType string
		raw      []byte
	)
	if err := row.Scan(&n.ID, &nodeType, &n.Title, &raw); err != nil {
		return store.NodeRow{}, err
	}
	t, d, err := store.DecodeNodeData(nodeType, raw)
	if err != nil {
		return store.NodeRow{}, fmt.Errorf("node %q: %w", n.ID, err)
	}
	n.Type = t
	n.Data = d
	return n, nil
}
