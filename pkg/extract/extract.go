package extract

import (
	"context"
	"errors"
	"fmt"

	"github.com/alaris-labs/papergraph/pkg/graph"
)

// ConceptExtractor returns the key concepts of a paper text.
type ConceptExtractor interface {
	ExtractConcepts(ctx context.Context, text string) ([]graph.Concept, error)
}

// AuthorExtractor returns the authors listed in a paper text.
type AuthorExtractor interface {
	ExtractAuthors(ctx context.Context, text string) ([]graph.Author, error)
}

// ErrNoJSON is returned when the model answer contains no JSON object.
var ErrNoJSON = errors.New("no JSON object in model output")

// ValidationError reports model output that could not be turned into
// records: malformed JSON, a wrong shape or a missing top level array.
type ValidationError struct {
	Kind string
	Err  error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s response: %v", e.Kind, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Static returns fixed records. It backs tests and offline runs where no
// model is available.
type Static struct {
	Concepts []graph.Concept
	Authors  []graph.Author
	Err      error
}

func (s Static) ExtractConcepts(ctx context.Context, text string) ([]graph.Concept, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	return append([]graph.Concept(nil), s.Concepts...), nil
}

func (s Static) ExtractAuthors(ctx context.Context, text string) ([]graph.Author, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	return append([]graph.Author(nil), s.Authors...), nil
}
