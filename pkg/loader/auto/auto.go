package auto

import (
	"context"
	"errors"
	"fmt"

	"github.com/OFFIS-RIT/papergraph/pkg/loader"
	"github.com/OFFIS-RIT/papergraph/pkg/loader/pdf"
	"github.com/OFFIS-RIT/papergraph/pkg/loader/text"
	"github.com/OFFIS-RIT/papergraph/pkg/loader/web"
)

// ErrUnsupported is wrapped by LoadPages for file types no loader handles.
var ErrUnsupported = errors.New("unsupported file type")

// AutoGraphLoader dispatches to the page loader matching a file's source
// and extension.
type AutoGraphLoader struct {
	pdf  *pdf.PDFGraphLoader
	text *text.TextGraphLoader
	web  *web.WebGraphLoader
}

// NewAutoGraphLoaderParams configures the byte loader used for non-URL files
// and the web loader used for URLs.
type NewAutoGraphLoaderParams struct {
	Files loader.ByteLoader
	Web   *web.WebGraphLoader
}

func NewAutoGraphLoader(params NewAutoGraphLoaderParams) *AutoGraphLoader {
	w := params.Web
	if w == nil {
		w = web.NewWebGraphLoader(nil)
	}
	return &AutoGraphLoader{
		pdf:  pdf.NewPDFGraphLoader(params.Files),
		text: text.NewTextGraphLoader(params.Files),
		web:  w,
	}
}

// Supported reports whether a loader exists for file.
func Supported(file loader.PaperFile) bool {
	if file.Source == loader.PaperSourceURL {
		return true
	}
	switch file.Extension() {
	case ".pdf", ".txt", ".md", ".markdown":
		return true
	}
	return false
}

func (l *AutoGraphLoader) LoadPages(ctx context.Context, file loader.PaperFile) ([]loader.Page, error) {
	if file.Source == loader.PaperSourceURL {
		return l.web.LoadPages(ctx, file)
	}

	switch file.Extension() {
	case ".pdf":
		return l.pdf.LoadPages(ctx, file)
	case ".txt", ".md", ".markdown":
		return l.text.LoadPages(ctx, file)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupported, file.Extension())
}
