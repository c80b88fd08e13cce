package store

import (
	"context"
	"errors"

	"github.com/alaris-labs/papergraph/pkg/graph"
)

// ErrNotFound is returned by readers when the requested node does not exist.
var ErrNotFound = errors.New("not found")

// GraphSaver persists a document graph. Saving is idempotent: nodes are
// upserted by id and edges are inserted once per (from, to, type) triple.
type GraphSaver interface {
	SaveGraph(ctx context.Context, g graph.Graph) error
}

// GraphReader answers the read queries of the API over persisted graphs.
type GraphReader interface {
	ListPapers(ctx context.Context) ([]PaperSummary, error)
	GetPaper(ctx context.Context, paperID string) (NodeRow, error)
	GetPaperConcepts(ctx context.Context, paperID string) ([]NodeRow, error)
	GetPaperAuthors(ctx context.Context, paperID string) ([]NodeRow, error)
	GetPaperSections(ctx context.Context, paperID string) ([]NodeRow, error)
	SearchPapersByConcept(ctx context.Context, search string) ([]ConceptMatch, error)
	SearchPapersByTitle(ctx context.Context, title string, limit int) ([]PaperSummary, error)
	SimilarPapers(ctx context.Context, paperID string, limit int) ([]SimilarPaper, error)
}

// GraphStorage is the full persistence surface.
type GraphStorage interface {
	GraphSaver
	GraphReader
}

// NodeRow is a persisted node.
type NodeRow struct {
	ID    string         `json:"id"`
	Type  graph.NodeType `json:"type"`
	Title string         `json:"title"`
	Data  graph.NodeData `json:"data,omitempty"`
}

type PaperSummary struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// ConceptMatch groups the papers discussing one concept.
type ConceptMatch struct {
	ConceptID    string         `json:"conceptId"`
	ConceptTitle string         `json:"conceptTitle"`
	Papers       []PaperSummary `json:"papers"`
}

// SimilarPaper is a paper sharing discussed concepts with another one.
type SimilarPaper struct {
	ID             string `json:"id"`
	Title          string `json:"title"`
	SharedConcepts int    `json:"sharedConcepts"`
}

// ConceptPaperRow is one (concept, paper) pair of a concept search.
type ConceptPaperRow struct {
	ConceptID    string
	ConceptTitle string
	PaperID      string
	PaperTitle   string
}

// GroupConceptMatches groups concept search rows by concept, keeping the
// order in which concepts first appear. A concept without a title is
// labelled with its id.
func GroupConceptMatches(rows []ConceptPaperRow) []ConceptMatch {
	out := make([]ConceptMatch, 0)
	index := make(map[string]int)
	for _, r := range rows {
		i, ok := index[r.ConceptID]
		if !ok {
			title := r.ConceptTitle
			if title == "" {
				title = r.ConceptID
			}
			out = append(out, ConceptMatch{
				ConceptID:    r.ConceptID,
				ConceptTitle: title,
				Papers:       make([]PaperSummary, 0),
			})
			i = len(out) - 1
			index[r.ConceptID] = i
		}
		out[i].Papers = append(out[i].Papers, PaperSummary{ID: r.PaperID, Title: r.PaperTitle})
	}
	return out
}
