package ingest

import (
	"context"
	"fmt"
	"strings"

	"github.com/alaris-labs/papergraph/pkg/loader"
	"github.com/alaris-labs/papergraph/pkg/logger"
	"github.com/alaris-labs/papergraph/pkg/paper"
	"github.com/alaris-labs/papergraph/pkg/segment"
)

// FromText segments raw paper text into a Document. fallbackTitle is used
// when no line of the text qualifies as a title.
func FromText(rawText string, fallbackTitle string) paper.Document {
	res := segment.Segment(rawText)

	title := res.Title
	if !res.TitleFound {
		title = strings.TrimSpace(fallbackTitle)
	}

	return paper.Document{
		Metadata: paper.Metadata{
			Title: title,
		},
		Abstract:   res.Abstract,
		Sections:   res.Sections,
		RawText:    rawText,
		References: segment.ExtractReferences(rawText),
	}
}

// Ingest loads file through its loader and segments it. The file name
// stands in for the title when none is found.
func Ingest(ctx context.Context, file loader.SourceFile) (paper.Document, error) {
	content, err := file.GetBytes(ctx)
	if err != nil {
		return paper.Document{}, fmt.Errorf("failed to load %s: %w", file.FilePath, err)
	}

	doc := FromText(string(content), file.Name())
	logger.Debug(
		"[Ingest] Document segmented",
		"file", file.FilePath,
		"title", doc.Metadata.Title,
		"sections", len(doc.Sections),
		"references", len(doc.References),
		"abstract", doc.HasAbstract(),
	)
	return doc, nil
}
