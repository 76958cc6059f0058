package storage

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/OFFIS-RIT/papergraph/internal/config"
	"github.com/OFFIS-RIT/papergraph/pkg/loader"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Storage keeps uploaded source documents until they are ingested. Put
// returns a PaperFile whose loader reads the stored bytes back.
type Storage interface {
	Put(ctx context.Context, name string, r io.Reader) (loader.PaperFile, error)
	Delete(ctx context.Context, file loader.PaperFile) error
}

// New returns the backend selected by cfg.Backend.
func New(ctx context.Context, cfg config.Storage) (Storage, error) {
	switch cfg.Backend {
	case "", "local":
		return NewLocalStorage(cfg.UploadDir), nil
	case "s3":
		client, err := NewS3Client(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return NewS3Storage(client, cfg.Bucket, filepath.ToSlash(cfg.UploadDir)), nil
	}
	return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
}

// cleanFileName keeps only the base name of an uploaded file.
func cleanFileName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		return "upload"
	}
	return name
}

func newID() (string, error) {
	return gonanoid.New()
}
