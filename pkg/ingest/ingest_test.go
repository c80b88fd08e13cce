package ingest

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/alaris-labs/papergraph/pkg/loader"
	"github.com/alaris-labs/papergraph/pkg/paper"
)

type memLoader map[string]string

func (m memLoader) GetFileBytes(ctx context.Context, file loader.SourceFile) ([]byte, error) {
	b, ok := m[file.FilePath]
	if !ok {
		return nil, errors.New("not found")
	}
	return []byte(b), nil
}

const splatPaper = `arXiv:2308.04079v1
3D Gaussian Splatting for Real-Time Radiance Field Rendering

Abstract
Radiance field methods have recently revolutionized novel-view synthesis.
We introduce three key elements.

Introduction
Meshes and points are the most common 3D scene representations.

Method
We start from sparse points.

References
1. Mildenhall et al. NeRF. 2020.
2. Kerbl et al. Splats. 2023.
`

func TestFromText(t *testing.T) {
	doc := FromText(splatPaper, "fallback.txt")

	if doc.Metadata.Title != "3D Gaussian Splatting for Real-Time Radiance Field Rendering" {
		t.Fatalf("title = %q", doc.Metadata.Title)
	}
	if !doc.HasAbstract() || *doc.Abstract != "Radiance field methods have recently revolutionized novel-view synthesis. We introduce three key elements." {
		t.Fatalf("abstract = %v", doc.Abstract)
	}
	wantSections := []paper.Section{
		{Heading: "introduction", Level: 1, Text: "Meshes and points are the most common 3D scene representations."},
		{Heading: "method", Level: 1, Text: "We start from sparse points.\n\nReferences\n1. Mildenhall et al. NeRF. 2020.\n2. Kerbl et al. Splats. 2023."},
	}
	if !reflect.DeepEqual(doc.Sections, wantSections) {
		t.Fatalf("sections = %#v", doc.Sections)
	}
	wantRefs := []paper.Reference{
		{ID: "reference:1", Raw: "Mildenhall et al. NeRF. 2020."},
		{ID: "reference:2", Raw: "Kerbl et al. Splats. 2023."},
	}
	if !reflect.DeepEqual(doc.References, wantRefs) {
		t.Fatalf("references = %#v", doc.References)
	}
	if doc.RawText != splatPaper {
		t.Fatalf("raw text not preserved")
	}
}

func TestFromTextFallbackTitle(t *testing.T) {
	doc := FromText("short\n\nnospace_line_that_is_long\n", " notes.txt ")
	if doc.Metadata.Title != "notes.txt" {
		t.Fatalf("title = %q", doc.Metadata.Title)
	}
	if doc.HasAbstract() {
		t.Fatalf("unexpected abstract %q", *doc.Abstract)
	}
	if len(doc.Sections) != 0 || len(doc.References) != 0 {
		t.Fatalf("unexpected sections or references: %+v", doc)
	}
}

func TestIngest(t *testing.T) {
	l := memLoader{"papers/untitled.txt": "tiny\n"}

	doc, err := Ingest(t.Context(), loader.NewSourceFile("1", "papers/untitled.txt", l))
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	if doc.Metadata.Title != "untitled.txt" {
		t.Fatalf("title = %q", doc.Metadata.Title)
	}

	if _, err := Ingest(t.Context(), loader.NewSourceFile("2", "missing.txt", l)); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
