package chunker

import (
	"errors"
	"math/rand"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/OFFIS-RIT/papergraph/pkg/loader"
)

func mustChunker(t *testing.T, size, overlap int, seps ...string) *Chunker {
	t.Helper()
	c, err := NewChunker(NewChunkerParams{ChunkSize: size, ChunkOverlap: overlap, Separators: seps})
	if err != nil {
		t.Fatalf("NewChunker: %v", err)
	}
	return c
}

func texts(text string, spans []Span) []string {
	out := make([]string, len(spans))
	for i, s := range spans {
		out[i] = text[s.Start:s.End]
	}
	return out
}

func TestNewChunker_InvalidParams(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		overlap int
		want    error
	}{
		{"ZeroSize", 0, 0, ErrInvalidSize},
		{"NegativeOverlap", 10, -1, ErrInvalidOverlap},
		{"OverlapEqualsSize", 10, 10, ErrInvalidOverlap},
		{"OverlapLargerThanSize", 10, 11, ErrInvalidOverlap},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewChunker(NewChunkerParams{ChunkSize: tc.size, ChunkOverlap: tc.overlap})
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestSplit_PrefersParagraphs(t *testing.T) {
	c := mustChunker(t, 20, 0)
	text := "aaaa bbbb\n\ncccc dddd\n\neeee"
	got := texts(text, c.Split(text))
	want := []string{"aaaa bbbb\n\n", "cccc dddd\n\neeee"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestSplit_Overlap(t *testing.T) {
	c := mustChunker(t, 10, 4)
	text := "aa bb cc dd ee ff gg"
	got := texts(text, c.Split(text))
	want := []string{"aa bb cc ", "cc dd ee ", "ee ff gg"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestSplit_ShortTextIsSingleChunk(t *testing.T) {
	c := mustChunker(t, 100, 10)
	text := "A short abstract."
	spans := c.Split(text)
	if len(spans) != 1 || spans[0] != (Span{Start: 0, End: len(text)}) {
		t.Fatalf("expected one span covering the text, got %+v", spans)
	}
	if got := c.Split(""); got != nil {
		t.Fatalf("expected nil for empty text, got %+v", got)
	}
}

func TestSplit_CountsCharactersNotBytes(t *testing.T) {
	c := mustChunker(t, 2, 0)
	text := "ééééé"
	got := texts(text, c.Split(text))
	want := []string{"éé", "éé", "é"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestSplit_AtomicUnitExceedingSize(t *testing.T) {
	c := mustChunker(t, 5, 1, " ")
	text := "ab supercalifragilistic cd"
	got := texts(text, c.Split(text))
	want := []string{"ab ", "supercalifragilistic ", "cd"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func randomText(r *rand.Rand) string {
	words := []string{"graph", "attention", "transformer", "Vaswani", "NeurIPS", "résumé", "a", "knowledge", "extraordinarilylongtokenwithoutspaces"}
	seps := []string{" ", " ", " ", "\n", "\n\n"}
	var b strings.Builder
	n := r.Intn(400)
	for i := 0; i < n; i++ {
		b.WriteString(words[r.Intn(len(words))])
		b.WriteString(seps[r.Intn(len(seps))])
	}
	return b.String()
}

func TestSplit_Properties(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	configs := []struct{ size, overlap int }{
		{10, 0}, {10, 3}, {25, 5}, {50, 49}, {200, 20}, {1000, 100},
	}

	for iter := 0; iter < 200; iter++ {
		text := randomText(r)
		cfg := configs[iter%len(configs)]
		c := mustChunker(t, cfg.size, cfg.overlap)
		spans := c.Split(text)

		if got := Reconstruct(text, spans); got != text {
			t.Fatalf("size=%d overlap=%d: reconstruction mismatch\nwant %q\ngot  %q", cfg.size, cfg.overlap, text, got)
		}

		for i, s := range spans {
			if n := utf8.RuneCountInString(text[s.Start:s.End]); n > cfg.size {
				t.Fatalf("size=%d: chunk %d has %d characters", cfg.size, i, n)
			}
			if i == 0 {
				if s.Start != 0 {
					t.Fatalf("first chunk starts at %d", s.Start)
				}
				continue
			}
			prev := spans[i-1]
			if s.End <= prev.End {
				t.Fatalf("chunk %d does not advance: %+v after %+v", i, s, prev)
			}
			if s.Start > prev.End {
				t.Fatalf("gap between chunk %d and %d", i-1, i)
			}
			if overlap := utf8.RuneCountInString(text[s.Start:prev.End]); overlap > cfg.overlap {
				t.Fatalf("overlap=%d: chunk %d overlaps by %d", cfg.overlap, i, overlap)
			}
		}
	}
}

func TestChunkPages(t *testing.T) {
	c := mustChunker(t, 20, 0)
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return fixed }

	file := loader.NewPaperFile(loader.NewPaperFileParams{ID: "1", FilePath: "uploads/Attention.pdf"})
	pages := []loader.Page{
		{Number: 1, Text: "aaaa bbbb\n\ncccc dddd\n\neeee", DOI: "10.48550/arXiv.1706.03762"},
		{Number: 2, Text: "   \n\n  "},
		{Number: 3, Text: "final page"},
	}

	chunks := c.ChunkPages(file, pages)
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	for i, ch := range chunks {
		m := ch.Metadata
		if m.ChunkIndex != i || m.TotalChunks != 3 {
			t.Fatalf("chunk %d: unexpected index/total %d/%d", i, m.ChunkIndex, m.TotalChunks)
		}
		if m.PaperName != "Attention" || m.SourcePath != "uploads/Attention.pdf" {
			t.Fatalf("chunk %d: unexpected provenance %+v", i, m)
		}
		if !m.ExtractedAt.Equal(fixed) {
			t.Fatalf("chunk %d: unexpected timestamp %v", i, m.ExtractedAt)
		}
		if m.DOI != "10.48550/arXiv.1706.03762" {
			t.Fatalf("chunk %d: expected DOI to be stamped, got %q", i, m.DOI)
		}
	}
	if chunks[2].Metadata.Page != 3 || chunks[2].Text != "final page" {
		t.Fatalf("unexpected last chunk %+v", chunks[2])
	}
}

func TestChunkPages_NoPages(t *testing.T) {
	c := mustChunker(t, 20, 0)
	chunks := c.ChunkPages(loader.PaperFile{PaperName: "empty"}, nil)
	if len(chunks) != 0 {
		t.Fatalf("expected no chunks, got %d", len(chunks))
	}
}
