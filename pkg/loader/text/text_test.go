package text

import (
	"context"
	"testing"

	"github.com/OFFIS-RIT/papergraph/pkg/loader"
)

type staticBytes string

func (s staticBytes) GetFileBytes(ctx context.Context, file loader.PaperFile) ([]byte, error) {
	return []byte(s), nil
}

func TestTextGraphLoader_FormFeedPages(t *testing.T) {
	l := NewTextGraphLoader(staticBytes("Page one\r\ntext\fPage two 10.1000/xyz123\fPage three"))
	pages, err := l.LoadPages(context.Background(), loader.NewPaperFile(loader.NewPaperFileParams{FilePath: "a.txt"}))
	if err != nil {
		t.Fatalf("LoadPages: %v", err)
	}
	if len(pages) != 3 {
		t.Fatalf("expected 3 pages, got %d", len(pages))
	}
	if pages[0].Text != "Page one\ntext" {
		t.Fatalf("unexpected first page %q", pages[0].Text)
	}
	if pages[1].Number != 2 || pages[1].DOI != "10.1000/xyz123" {
		t.Fatalf("unexpected second page %+v", pages[1])
	}
	if pages[2].DOI != "" {
		t.Fatalf("expected DOI only on the first page it appears, got %+v", pages[2])
	}
}

func TestTextGraphLoader_NoLoader(t *testing.T) {
	l := NewTextGraphLoader(nil)
	if _, err := l.LoadPages(context.Background(), loader.PaperFile{FilePath: "a.txt"}); err == nil {
		t.Fatal("expected error without loader")
	}
}
