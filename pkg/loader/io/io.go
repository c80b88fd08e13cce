package io

import (
	"context"
	"fmt"
	"os"

	"github.com/alaris-labs/papergraph/pkg/loader"
)

// FileLoader loads files directly from the local filesystem with caching.
type FileLoader struct {
	cache *loader.Cache
}

// NewFileLoader creates a new filesystem-based file loader.
func NewFileLoader() *FileLoader {
	return &FileLoader{
		cache: loader.NewCache(),
	}
}

// GetFileBytes reads the file content from the filesystem. Results are cached.
func (l *FileLoader) GetFileBytes(ctx context.Context, file loader.SourceFile) ([]byte, error) {
	return l.cache.Get(loader.CacheKey(file), func() ([]byte, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		b, err := os.ReadFile(file.FilePath)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", file.FilePath, err)
		}
		return b, nil
	})
}
