package store

import (
	"errors"
	"reflect"
	"testing"

	"github.com/alaris-labs/papergraph/pkg/graph"
)

func TestChunkRange(t *testing.T) {
	tests := []struct {
		name      string
		total     int
		chunkSize int
		want      [][2]int
	}{
		{name: "empty", total: 0, chunkSize: 3, want: nil},
		{name: "exact", total: 4, chunkSize: 2, want: [][2]int{{0, 2}, {2, 4}}},
		{name: "remainder", total: 5, chunkSize: 2, want: [][2]int{{0, 2}, {2, 4}, {4, 5}}},
		{name: "no chunk size", total: 3, chunkSize: 0, want: [][2]int{{0, 3}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got [][2]int
			err := ChunkRange(tt.total, tt.chunkSize, func(start, end int) error {
				got = append(got, [2]int{start, end})
				return nil
			})
			if err != nil {
				t.Fatalf("ChunkRange() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("ChunkRange() windows = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestChunkRangeStopsOnError(t *testing.T) {
	calls := 0
	boom := errors.New("boom")
	err := ChunkRange(10, 2, func(start, end int) error {
		calls++
		return boom
	})
	if !errors.Is(err, boom) || calls != 1 {
		t.Fatalf("ChunkRange() = %v after %d calls", err, calls)
	}
}

func TestNodeDataCodec(t *testing.T) {
	abstract := "We\x00 splat."
	tests := []struct {
		name string
		in   graph.NodeData
		want graph.NodeData
	}{
		{
			name: "paper sanitized",
			in:   graph.PaperData{Title: "Splats", Abstract: &abstract, References: []string{"Kerbl\x00 2023"}},
			want: graph.PaperData{Title: "Splats", Abstract: ptr("We splat."), References: []string{"Kerbl 2023"}},
		},
		{
			name: "section",
			in:   graph.SectionData{Heading: "method", Text: string([]byte{'a', 0xff, 'b'})},
			want: graph.SectionData{Heading: "method", Text: "ab"},
		},
		{
			name: "concept",
			in:   graph.ConceptData{Name: "NeRF", Description: "Radiance fields."},
			want: graph.ConceptData{Name: "NeRF", Description: "Radiance fields."},
		},
		{
			name: "author",
			in:   graph.AuthorData{Name: "Jane Doe", Affiliation: "MIT"},
			want: graph.AuthorData{Name: "Jane Doe", Affiliation: "MIT"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := EncodeNodeData(tt.in)
			if err != nil {
				t.Fatalf("EncodeNodeData() error = %v", err)
			}
			nt, got, err := DecodeNodeData(tt.in.Kind().String(), raw)
			if err != nil {
				t.Fatalf("DecodeNodeData() error = %v", err)
			}
			if nt != tt.in.Kind() {
				t.Fatalf("type = %v, want %v", nt, tt.in.Kind())
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("DecodeNodeData() = %#v, want %#v", got, tt.want)
			}
		})
	}

	if abstract != "We\x00 splat." {
		t.Fatalf("input payload was modified")
	}
}

func TestDecodeNodeDataErrors(t *testing.T) {
	if _, _, err := DecodeNodeData("Reference", []byte(`{}`)); err == nil {
		t.Fatalf("expected error for unknown type")
	}
	if _, _, err := DecodeNodeData("Concept", []byte(`{"name":`)); err == nil {
		t.Fatalf("expected error for broken payload")
	}
	_, d, err := DecodeNodeData("Concept", nil)
	if err != nil || d != (graph.ConceptData{}) {
		t.Fatalf("empty payload = (%v, %v)", d, err)
	}
}

func TestGroupConceptMatches(t *testing.T) {
	rows := []ConceptPaperRow{
		{ConceptID: "concept:nerf", ConceptTitle: "NeRF", PaperID: "paper:A", PaperTitle: "A"},
		{ConceptID: "concept:splat", ConceptTitle: "", PaperID: "paper:A", PaperTitle: "A"},
		{ConceptID: "concept:nerf", ConceptTitle: "NeRF", PaperID: "paper:B", PaperTitle: "B"},
	}

	want := []ConceptMatch{
		{ConceptID: "concept:nerf", ConceptTitle: "NeRF", Papers: []PaperSummary{{ID: "paper:A", Title: "A"}, {ID: "paper:B", Title: "B"}}},
		{ConceptID: "concept:splat", ConceptTitle: "concept:splat", Papers: []PaperSummary{{ID: "paper:A", Title: "A"}}},
	}
	if got := GroupConceptMatches(rows); !reflect.DeepEqual(got, want) {
		t.Fatalf("GroupConceptMatches() = %+v, want %+v", got, want)
	}
	if got := GroupConceptMatches(nil); got == nil || len(got) != 0 {
		t.Fatalf("GroupConceptMatches(nil) = %#v, want empty", got)
	}
}

func ptr(s string) *string { return &s }
