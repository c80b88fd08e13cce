package store

import (
	"encoding/json"
	"fmt"

	"github.com/alaris-labs/papergraph/internal/util"
	"github.com/alaris-labs/papergraph/pkg/graph"
)

// ChunkRange calls fn for consecutive [start, end) windows of at most
// chunkSize items.
func ChunkRange(total, chunkSize int, fn func(start, end int) error) error {
	if total <= 0 {
		return nil
	}
	if chunkSize <= 0 {
		chunkSize = total
	}
	for start := 0; start < total; start += chunkSize {
		end := min(start+chunkSize, total)
		if err := fn(start, end); err != nil {
			return err
		}
	}
	return nil
}

func sanitizeAll(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = util.SanitizePostgresText(s)
	}
	return out
}

// sanitizeNodeData strips bytes Postgres cannot store from every text field.
func sanitizeNodeData(d graph.NodeData) (graph.NodeData, error) {
	s := util.SanitizePostgresText
	switch v := d.(type) {
	case graph.PaperData:
		v.Title = s(v.Title)
		if v.Abstract != nil {
			abstract := s(*v.Abstract)
			v.Abstract = &abstract
		}
		v.References = sanitizeAll(v.References)
		return v, nil
	case graph.SectionData:
		v.Heading = s(v.Heading)
		v.Text = s(v.Text)
		return v, nil
	case graph.ConceptData:
		v.Name = s(v.Name)
		v.Description = s(v.Description)
		return v, nil
	case graph.AuthorData:
		v.Name = s(v.Name)
		v.Affiliation = s(v.Affiliation)
		v.Email = s(v.Email)
		return v, nil
	default:
		return nil, fmt.Errorf("unsupported node payload %T", d)
	}
}

// EncodeNodeData serializes a node payload for the data column.
func EncodeNodeData(d graph.NodeData) ([]byte, error) {
	clean, err := sanitizeNodeData(d)
	if err != nil {
		return nil, err
	}
	b, err := json.Marshal(clean)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", clean.Kind(), err)
	}
	return b, nil
}

// DecodeNodeData parses the type and data columns of a node row.
func DecodeNodeData(nodeType string, raw []byte) (graph.NodeType, graph.NodeData, error) {
	t, err := graph.ParseNodeType(nodeType)
	if err != nil {
		return 0, nil, err
	}
	if len(raw) == 0 {
		raw = []byte("{}")
	}
	d, err := graph.DecodeNodeData(t, raw)
	if err != nil {
		return 0, nil, err
	}
	return t, d, nil
}
