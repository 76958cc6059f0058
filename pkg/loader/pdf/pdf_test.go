package pdf

import (
	"context"
	"testing"

	"github.com/OFFIS-RIT/papergraph/pkg/loader"
)

func TestFindDOI(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"Plain", "doi: 10.1145/3292500.3330701 and more", "10.1145/3292500.3330701"},
		{"TrailingPunctuation", "See https://doi.org/10.48550/arXiv.1706.03762.", "10.48550/arXiv.1706.03762"},
		{"FirstWins", "10.1000/182 then 10.1038/nphys1170", "10.1000/182"},
		{"None", "no identifier here", ""},
		{"TooShortPrefix", "10.12/abc", ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := FindDOI(tc.text); got != tc.want {
				t.Fatalf("FindDOI(%q) = %q, want %q", tc.text, got, tc.want)
			}
		})
	}
}

func TestParsePages_InvalidInput(t *testing.T) {
	pages, err := ParsePages([]byte("definitely not a pdf"))
	if err == nil {
		t.Fatal("expected error for invalid pdf")
	}
	if len(pages) != 0 {
		t.Fatalf("expected no pages, got %d", len(pages))
	}
}

type staticBytes []byte

func (s staticBytes) GetFileBytes(ctx context.Context, file loader.PaperFile) ([]byte, error) {
	return s, nil
}

func TestPDFGraphLoader_ReportsParseError(t *testing.T) {
	l := NewPDFGraphLoader(staticBytes("garbage"))
	file := loader.NewPaperFile(loader.NewPaperFileParams{ID: "1", FilePath: "broken.pdf"})
	if _, err := l.LoadPages(context.Background(), file); err == nil {
		t.Fatal("expected error for broken pdf")
	}
}
