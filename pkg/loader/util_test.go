package loader

import "testing"

func TestPaperNameFromPath(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"LocalPDF", "uploads/Attention Is All You Need.pdf", "Attention Is All You Need"},
		{"NoExtension", "/tmp/notes", "notes"},
		{"URL", "https://arxiv.org/abs/1706.03762", "1706"},
		{"URLWithQuery", "https://example.org/papers/bert.pdf?download=1", "bert"},
		{"URLTrailingSlash", "https://example.org/blog/post/", "post"},
		{"Empty", "", ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := PaperNameFromPath(tc.in); got != tc.want {
				t.Fatalf("PaperNameFromPath(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestNewPaperFileDefaults(t *testing.T) {
	f := NewPaperFile(NewPaperFileParams{ID: "1", FilePath: "uploads/BERT.PDF"})
	if f.PaperName != "BERT" {
		t.Fatalf("expected paper name BERT, got %q", f.PaperName)
	}
	if f.Source != PaperSourceFile {
		t.Fatalf("expected file source, got %q", f.Source)
	}
	if f.Extension() != ".pdf" {
		t.Fatalf("expected .pdf, got %q", f.Extension())
	}

	u := NewPaperFile(NewPaperFileParams{FilePath: "https://example.org/a.html?x=1"})
	if u.Source != PaperSourceURL {
		t.Fatalf("expected url source, got %q", u.Source)
	}
	if u.Extension() != ".html" {
		t.Fatalf("expected .html, got %q", u.Extension())
	}
}
