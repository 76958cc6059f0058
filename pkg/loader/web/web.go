package web

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/OFFIS-RIT/papergraph/internal/util"
	"github.com/OFFIS-RIT/papergraph/pkg/loader"
	"github.com/OFFIS-RIT/papergraph/pkg/loader/pdf"

	"codeberg.org/readeck/go-readability/v2"
	"golang.org/x/net/html/charset"
	"golang.org/x/sync/singleflight"
)

type fetched struct {
	contentType string
	body        []byte
}

// WebGraphLoader loads papers from web URLs. HTML pages are reduced to their
// main article text with readability; PDFs are parsed page by page.
type WebGraphLoader struct {
	client *http.Client

	cache   map[string]fetched
	cacheMu sync.RWMutex
	group   singleflight.Group
}

// NewWebGraphLoader creates a new web loader using client, or
// http.DefaultClient when client is nil.
func NewWebGraphLoader(client *http.Client) *WebGraphLoader {
	if client == nil {
		client = http.DefaultClient
	}
	return &WebGraphLoader{
		client: client,
		cache:  make(map[string]fetched),
	}
}

// GetFileBytes downloads the URL and returns the raw body.
func (l *WebGraphLoader) GetFileBytes(ctx context.Context, file loader.PaperFile) ([]byte, error) {
	f, err := l.fetch(ctx, file)
	if err != nil {
		return nil, err
	}
	return f.body, nil
}

// LoadPages fetches a URL and extracts readable text content.
func (l *WebGraphLoader) LoadPages(ctx context.Context, file loader.PaperFile) ([]loader.Page, error) {
	f, err := l.fetch(ctx, file)
	if err != nil {
		return nil, err
	}

	mediaType, _, _ := mime.ParseMediaType(f.contentType)
	switch {
	case mediaType == "application/pdf" || file.Extension() == ".pdf":
		return pdf.ParsePages(f.body)
	case mediaType == "text/html" || mediaType == "application/xhtml+xml":
		text, err := renderArticle(f, file.FilePath)
		if err != nil {
			return nil, err
		}
		return []loader.Page{{Number: 1, Text: text, DOI: pdf.FindDOI(text)}}, nil
	default:
		text := util.CleanText(string(f.body))
		return []loader.Page{{Number: 1, Text: text, DOI: pdf.FindDOI(text)}}, nil
	}
}

func renderArticle(f fetched, rawURL string) (string, error) {
	pageURL, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("failed to parse url: %w", err)
	}

	body, err := charset.NewReader(bytes.NewReader(f.body), f.contentType)
	if err != nil {
		return "", fmt.Errorf("failed to decode html: %w", err)
	}

	article, err := readability.FromReader(body, pageURL)
	if err != nil {
		return "", fmt.Errorf("failed to parse html: %w", err)
	}
	var builder strings.Builder
	if err := article.RenderText(&builder); err != nil {
		return "", fmt.Errorf("failed to render article text: %w", err)
	}

	return util.CleanText(builder.String()), nil
}

func (l *WebGraphLoader) fetch(ctx context.Context, file loader.PaperFile) (fetched, error) {
	key := loader.CacheKey(file)

	l.cacheMu.RLock()
	if cached, ok := l.cache[key]; ok {
		l.cacheMu.RUnlock()
		return cached, nil
	}
	l.cacheMu.RUnlock()

	result, err, _ := l.group.Do(key, func() (any, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, file.FilePath, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}

		resp, err := l.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch url: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, fmt.Errorf("failed to fetch url: unexpected status %s", resp.Status)
		}

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, err
		}

		f := fetched{contentType: resp.Header.Get("Content-Type"), body: body}

		l.cacheMu.Lock()
		l.cache[key] = f
		l.cacheMu.Unlock()

		return f, nil
	})
	if err != nil {
		return fetched{}, err
	}

	return result.(fetched), nil
}
