package loader

import (
	"context"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"
)

type SourceFileType string

const (
	SourceFileTypeText SourceFileType = "text"
	SourceFileTypePDF  SourceFileType = "pdf"
)

// SourceFile is a paper source to ingest. The content is retrieved through
// the associated SourceLoader.
type SourceFile struct {
	ID       string
	FilePath string
	FileType SourceFileType
	Loader   SourceLoader
}

// SourceLoader loads the raw bytes of a SourceFile. Implementations may
// read from disk, object storage or wrap another loader.
type SourceLoader interface {
	GetFileBytes(ctx context.Context, file SourceFile) ([]byte, error)
}

// DetectFileType maps a path to its SourceFileType by extension. Anything
// that is not a PDF is read as text.
func DetectFileType(path string) SourceFileType {
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		return SourceFileTypePDF
	}
	return SourceFileTypeText
}

// NewSourceFile creates a SourceFile with its type detected from path.
func NewSourceFile(id string, path string, l SourceLoader) SourceFile {
	return SourceFile{
		ID:       id,
		FilePath: path,
		FileType: DetectFileType(path),
		Loader:   l,
	}
}

// GetBytes retrieves the content of the file using its Loader.
//
// Example:
//
//	text, err := file.GetBytes(ctx)
//	if err != nil {
//		return err
//	}
func (f SourceFile) GetBytes(ctx context.Context) ([]byte, error) {
	return f.Loader.GetFileBytes(ctx, f)
}

// Name is the last element of the file path.
func (f SourceFile) Name() string {
	return filepath.Base(f.FilePath)
}

// CacheKey identifies a file in loader caches.
func CacheKey(file SourceFile) string {
	return file.ID + ":" + file.FilePath
}

// Cache memoizes loaded bytes per key. Concurrent loads of the same key
// share one call.
type Cache struct {
	mu    sync.RWMutex
	items map[string][]byte
	group singleflight.Group
}

func NewCache() *Cache {
	return &Cache{items: make(map[string][]byte)}
}

func (c *Cache) lookup(key string) ([]byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	b, ok := c.items[key]
	return b, ok
}

// Get returns the cached bytes for key or calls load once to fill them.
// Failed loads are not cached.
func (c *Cache) Get(key string, load func() ([]byte, error)) ([]byte, error) {
	if cached, ok := c.lookup(key); ok {
		return cached, nil
	}

	result, err, _ := c.group.Do(key, func() (any, error) {
		if cached, ok := c.lookup(key); ok {
			return cached, nil
		}
		b, err := load()
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.items[key] = b
		c.mu.Unlock()
		return b, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]byte), nil
}
