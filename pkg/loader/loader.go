package loader

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
)

// ErrNoLoader is returned when a file has no byte loader attached.
var ErrNoLoader = errors.New("no loader configured for file")

type PaperSource string

const (
	PaperSourceFile PaperSource = "file"
	PaperSourceS3   PaperSource = "s3"
	PaperSourceURL  PaperSource = "url"
)

// PaperFile is a source document to be ingested. FilePath is interpreted by
// the attached Loader: a local path, an object key or a URL.
type PaperFile struct {
	ID        string
	FilePath  string
	PaperName string
	Source    PaperSource
	Loader    ByteLoader
}

// NewPaperFileParams defines the input parameters for creating a new PaperFile.
// PaperName defaults to the base name of FilePath without its extension.
type NewPaperFileParams struct {
	ID        string
	FilePath  string
	PaperName string
	Source    PaperSource
	Loader    ByteLoader
}

// NewPaperFile creates a PaperFile, filling in the paper name and source
// when they are not given.
func NewPaperFile(params NewPaperFileParams) PaperFile {
	name := params.PaperName
	if name == "" {
		name = PaperNameFromPath(params.FilePath)
	}
	source := params.Source
	if source == "" {
		source = PaperSourceFile
		if IsURL(params.FilePath) {
			source = PaperSourceURL
		}
	}
	return PaperFile{
		ID:        params.ID,
		FilePath:  params.FilePath,
		PaperName: name,
		Source:    source,
		Loader:    params.Loader,
	}
}

// Extension returns the lower-cased file extension including the dot.
func (f *PaperFile) Extension() string {
	p := f.FilePath
	if i := strings.IndexAny(p, "?#"); i >= 0 && IsURL(p) {
		p = p[:i]
	}
	return strings.ToLower(filepath.Ext(p))
}

// GetBytes retrieves the raw content of the file using its Loader.
func (f *PaperFile) GetBytes(ctx context.Context) ([]byte, error) {
	if f.Loader == nil {
		return nil, ErrNoLoader
	}
	return f.Loader.GetFileBytes(ctx, *f)
}

// Page is one page-level text block of a source document. DOI is only set
// on the page where an identifier was found.
type Page struct {
	Number int
	Text   string
	DOI    string
}

// ByteLoader defines the interface for loading the raw contents of a PaperFile.
// Implementations may load files from disk, object storage or other sources.
type ByteLoader interface {
	GetFileBytes(ctx context.Context, file PaperFile) ([]byte, error)
}

// PageLoader turns a PaperFile into page-level text blocks.
type PageLoader interface {
	LoadPages(ctx context.Context, file PaperFile) ([]Page, error)
}
