package web

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"codeberg.org/readeck/go-readability/v2"

	"github.com/alaris-labs/papergraph/pkg/loader"
)

// maxBodySize caps downloads at 64 MiB.
const maxBodySize = 64 << 20

// WebLoader fetches papers by URL. HTML pages are reduced to their main
// article text with readability; other content is returned as downloaded.
type WebLoader struct {
	client *http.Client
	cache  *loader.Cache
}

// NewWebLoader creates a loader using client, or http.DefaultClient when nil.
func NewWebLoader(client *http.Client) *WebLoader {
	if client == nil {
		client = http.DefaultClient
	}
	return &WebLoader{
		client: client,
		cache:  loader.NewCache(),
	}
}

// IsURL reports whether path is an http or https URL.
func IsURL(path string) bool {
	u, err := url.Parse(path)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// GetFileBytes downloads file.FilePath. Results are cached.
func (l *WebLoader) GetFileBytes(ctx context.Context, file loader.SourceFile) ([]byte, error) {
	return l.cache.Get(loader.CacheKey(file), func() ([]byte, error) {
		return l.fetch(ctx, file.FilePath)
	})
}

func (l *WebLoader) fetch(ctx context.Context, rawURL string) ([]byte, error) {
	pageURL, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse url: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch url: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("failed to fetch %s: status %d", rawURL, resp.StatusCode)
	}
	body := io.LimitReader(resp.Body, maxBodySize)

	if strings.Contains(resp.Header.Get("Content-Type"), "text/html") {
		article, err := readability.FromReader(body, pageURL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse html: %w", err)
		}
		var builder strings.Builder
		if err := article.RenderText(&builder); err != nil {
			return nil, fmt.Errorf("failed to render article text: %w", err)
		}
		return []byte(builder.String()), nil
	}

	return io.ReadAll(body)
}
