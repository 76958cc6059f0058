package text

import (
	"context"
	"strings"

	"github.com/OFFIS-RIT/papergraph/internal/util"
	"github.com/OFFIS-RIT/papergraph/pkg/loader"
	"github.com/OFFIS-RIT/papergraph/pkg/loader/pdf"
)

// TextGraphLoader loads plain text and markdown papers. Form feeds mark
// page breaks, as produced by pdftotext.
type TextGraphLoader struct {
	loader loader.ByteLoader
}

func NewTextGraphLoader(l loader.ByteLoader) *TextGraphLoader {
	return &TextGraphLoader{loader: l}
}

func (l *TextGraphLoader) LoadPages(ctx context.Context, file loader.PaperFile) ([]loader.Page, error) {
	var (
		content []byte
		err     error
	)
	if file.Loader != nil {
		content, err = file.GetBytes(ctx)
	} else if l.loader != nil {
		content, err = l.loader.GetFileBytes(ctx, file)
	} else {
		err = loader.ErrNoLoader
	}
	if err != nil {
		return nil, err
	}

	return SplitPages(string(content)), nil
}

// SplitPages splits text on form feeds into numbered pages.
func SplitPages(content string) []loader.Page {
	content = util.CleanText(content)
	parts := strings.Split(content, "\f")
	pages := make([]loader.Page, 0, len(parts))
	doiFound := false
	for i, part := range parts {
		p := loader.Page{Number: i + 1, Text: part}
		if !doiFound {
			if doi := pdf.FindDOI(part); doi != "" {
				p.DOI = doi
				doiFound = true
			}
		}
		pages = append(pages, p)
	}
	return pages
}
