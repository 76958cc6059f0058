package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/OFFIS-RIT/papergraph/pkg/loader"
	ioloader "github.com/OFFIS-RIT/papergraph/pkg/loader/io"
	"github.com/OFFIS-RIT/papergraph/pkg/logger"
)

// LocalStorage writes uploads to <dir>/<id>/<file name>.
type LocalStorage struct {
	dir    string
	loader *ioloader.IOGraphFileLoader
	newID  func() (string, error)
}

func NewLocalStorage(dir string) *LocalStorage {
	return &LocalStorage{
		dir:    dir,
		loader: ioloader.NewIOGraphFileLoader(),
		newID:  newID,
	}
}

func (s *LocalStorage) Put(ctx context.Context, name string, r io.Reader) (loader.PaperFile, error) {
	id, err := s.newID()
	if err != nil {
		return loader.PaperFile{}, fmt.Errorf("failed to generate upload id: %w", err)
	}
	name = cleanFileName(name)

	dir := filepath.Join(s.dir, id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return loader.PaperFile{}, fmt.Errorf("failed to create upload directory: %w", err)
	}

	p := filepath.Join(dir, name)
	f, err := os.Create(p)
	if err != nil {
		return loader.PaperFile{}, fmt.Errorf("failed to create upload file: %w", err)
	}
	defer f.Close()
	if _, err := io.Copy(f, r); err != nil {
		return loader.PaperFile{}, fmt.Errorf("failed to write upload file: %w", err)
	}

	logger.Debug("Stored upload", "file", p)
	return loader.NewPaperFile(loader.NewPaperFileParams{
		ID:       id,
		FilePath: p,
		Source:   loader.PaperSourceFile,
		Loader:   s.loader,
	}), nil
}

func (s *LocalStorage) Delete(ctx context.Context, file loader.PaperFile) error {
	s.loader.Forget(file)
	if err := os.RemoveAll(filepath.Dir(file.FilePath)); err != nil {
		return fmt.Errorf("failed to delete upload: %w", err)
	}
	return nil
}
