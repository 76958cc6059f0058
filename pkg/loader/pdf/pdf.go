package pdf

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/OFFIS-RIT/papergraph/internal/util"
	"github.com/OFFIS-RIT/papergraph/pkg/loader"
	"github.com/OFFIS-RIT/papergraph/pkg/logger"

	"github.com/ledongthuc/pdf"
	"golang.org/x/sync/singleflight"
)

// DOI pattern: 10.XXXX/... where XXXX is 4-9 digits.
var doiPattern = regexp.MustCompile(`10\.\d{4,9}/[^\s<>"{}|\\^~\[\]` + "`" + `]+`)

// doiSearchPages is how many leading pages are scanned for a DOI.
const doiSearchPages = 3

// PDFGraphLoader loads PDF files through a byte loader and extracts one
// text block per page.
type PDFGraphLoader struct {
	loader loader.ByteLoader

	cache   map[string][]loader.Page
	cacheMu sync.RWMutex
	group   singleflight.Group
}

// NewPDFGraphLoader creates a PDF loader that reads bytes with the given loader.
func NewPDFGraphLoader(l loader.ByteLoader) *PDFGraphLoader {
	return &PDFGraphLoader{
		loader: l,
		cache:  make(map[string][]loader.Page),
	}
}

// LoadPages extracts the text of every page. Pages without a content stream
// or whose text cannot be decoded are skipped. The first DOI found on the
// leading pages is attached to the page it was found on.
func (l *PDFGraphLoader) LoadPages(ctx context.Context, file loader.PaperFile) ([]loader.Page, error) {
	key := loader.CacheKey(file)

	l.cacheMu.RLock()
	if cached, ok := l.cache[key]; ok {
		l.cacheMu.RUnlock()
		return cached, nil
	}
	l.cacheMu.RUnlock()

	result, err, _ := l.group.Do(key, func() (any, error) {
		content, err := l.bytes(ctx, file)
		if err != nil {
			return nil, err
		}

		pages, err := ParsePages(content)
		if err != nil {
			return nil, fmt.Errorf("failed to parse pdf %s: %w", file.FilePath, err)
		}

		l.cacheMu.Lock()
		l.cache[key] = pages
		l.cacheMu.Unlock()

		return pages, nil
	})
	if err != nil {
		return nil, err
	}

	return result.([]loader.Page), nil
}

func (l *PDFGraphLoader) bytes(ctx context.Context, file loader.PaperFile) ([]byte, error) {
	if file.Loader != nil {
		return file.GetBytes(ctx)
	}
	if l.loader == nil {
		return nil, loader.ErrNoLoader
	}
	return l.loader.GetFileBytes(ctx, file)
}

// ParsePages extracts page-level text from raw PDF bytes. Malformed
// documents make the underlying parser panic, which is turned into an error.
func ParsePages(content []byte) (pages []loader.Page, err error) {
	defer func() {
		if r := recover(); r != nil {
			pages = nil
			err = fmt.Errorf("malformed pdf: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, err
	}

	doiFound := false
	total := reader.NumPage()
	pages = make([]loader.Page, 0, total)
	for i := 1; i <= total; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			logger.Debug("[PDF] Skipping undecodable page", "page", i, "err", err)
			continue
		}

		p := loader.Page{
			Number: i,
			Text:   util.CleanText(text),
		}
		if !doiFound && i <= doiSearchPages {
			if doi := FindDOI(p.Text); doi != "" {
				p.DOI = doi
				doiFound = true
			}
		}
		pages = append(pages, p)
	}

	return pages, nil
}

// FindDOI returns the first plausible DOI in text, or "".
func FindDOI(text string) string {
	for _, match := range doiPattern.FindAllString(text, -1) {
		match = strings.TrimRight(match, ".,;:)")
		if isValidDOI(match) {
			return match
		}
	}
	return ""
}

func isValidDOI(doi string) bool {
	if len(doi) < 10 || !strings.HasPrefix(doi, "10.") {
		return false
	}
	slashIdx := strings.Index(doi, "/")
	return slashIdx != -1 && slashIdx < len(doi)-1
}
