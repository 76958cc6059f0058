package io

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/OFFIS-RIT/papergraph/pkg/loader"
)

func TestIOGraphFileLoader_CachesContent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "paper.txt")
	if err := os.WriteFile(path, []byte("first"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	l := NewIOGraphFileLoader()
	file := loader.NewPaperFile(loader.NewPaperFileParams{ID: "1", FilePath: path, Loader: l})

	got, err := file.GetBytes(context.Background())
	if err != nil {
		t.Fatalf("GetBytes: %v", err)
	}
	if string(got) != "first" {
		t.Fatalf("expected first, got %q", got)
	}

	if err := os.WriteFile(path, []byte("second"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, _ = file.GetBytes(context.Background())
	if string(got) != "first" {
		t.Fatalf("expected cached content, got %q", got)
	}

	l.Forget(file)
	got, _ = file.GetBytes(context.Background())
	if string(got) != "second" {
		t.Fatalf("expected fresh content after Forget, got %q", got)
	}
}

func TestIOGraphFileLoader_MissingFile(t *testing.T) {
	l := NewIOGraphFileLoader()
	file := loader.NewPaperFile(loader.NewPaperFileParams{FilePath: filepath.Join(t.TempDir(), "missing.pdf"), Loader: l})
	if _, err := file.GetBytes(context.Background()); err == nil {
		t.Fatal("expected error for missing file")
	}
}
