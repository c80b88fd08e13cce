package pdf

import (
	"context"

	"github.com/alaris-labs/papergraph/pkg/loader"
)

// TextLoader wraps another loader and turns PDF sources into plain text.
// Text sources are passed through unchanged.
type TextLoader struct {
	loader    loader.SourceLoader
	converter Converter
	cache     *loader.Cache
}

// NewTextLoader creates a TextLoader converting with pdftotext.
func NewTextLoader(l loader.SourceLoader) *TextLoader {
	return NewTextLoaderWithConverter(l, PdfToText{})
}

// NewTextLoaderWithConverter creates a TextLoader with a custom converter.
func NewTextLoaderWithConverter(l loader.SourceLoader, c Converter) *TextLoader {
	return &TextLoader{
		loader:    l,
		converter: c,
		cache:     loader.NewCache(),
	}
}

// GetFileBytes returns the text content of file.
func (l *TextLoader) GetFileBytes(ctx context.Context, file loader.SourceFile) ([]byte, error) {
	if file.FileType != loader.SourceFileTypePDF {
		return l.loader.GetFileBytes(ctx, file)
	}

	return l.cache.Get(loader.CacheKey(file), func() ([]byte, error) {
		content, err := l.loader.GetFileBytes(ctx, file)
		if err != nil {
			return nil, err
		}
		return l.converter.Convert(ctx, content)
	})
}
