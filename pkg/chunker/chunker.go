package chunker

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/OFFIS-RIT/papergraph/pkg/common"
	"github.com/OFFIS-RIT/papergraph/pkg/loader"
	"github.com/OFFIS-RIT/papergraph/pkg/logger"

	"github.com/pkoukk/tiktoken-go"
)

var (
	ErrInvalidSize    = errors.New("chunk size must be positive")
	ErrInvalidOverlap = errors.New("chunk overlap must be non-negative and smaller than the chunk size")
)

// DefaultSeparators are tried in order: paragraphs, lines, words, characters.
var DefaultSeparators = []string{"\n\n", "\n", " ", ""}

// Chunker splits page text into overlapping chunks of at most ChunkSize
// characters, preferring the coarsest separator that fits.
//
// A Chunker should be created using NewChunker.
type Chunker struct {
	chunkSize    int
	chunkOverlap int
	separators   []string
	encoder      *tiktoken.Tiktoken
	now          func() time.Time
}

// NewChunkerParams defines the configuration parameters for creating a
// new Chunker.
//
// Separators defaults to DefaultSeparators. When TokenEncoder is set each
// chunk is annotated with its token count.
type NewChunkerParams struct {
	ChunkSize    int
	ChunkOverlap int
	Separators   []string
	TokenEncoder string
}

// Span is a byte range [Start, End) of the split text.
type Span struct {
	Start int
	End   int
}

func NewChunker(params NewChunkerParams) (*Chunker, error) {
	if params.ChunkSize <= 0 {
		return nil, ErrInvalidSize
	}
	if params.ChunkOverlap < 0 || params.ChunkOverlap >= params.ChunkSize {
		return nil, ErrInvalidOverlap
	}

	separators := params.Separators
	if len(separators) == 0 {
		separators = DefaultSeparators
	}

	c := &Chunker{
		chunkSize:    params.ChunkSize,
		chunkOverlap: params.ChunkOverlap,
		separators:   separators,
		now:          time.Now,
	}

	if params.TokenEncoder != "" {
		enc, err := tiktoken.GetEncoding(params.TokenEncoder)
		if err != nil {
			return nil, err
		}
		c.encoder = enc
	}

	return c, nil
}

// Split returns the chunk spans of text in order. Consecutive spans overlap
// by at most ChunkOverlap characters and together cover the whole text.
func (c *Chunker) Split(text string) []Span {
	if text == "" {
		return nil
	}
	pieces := c.pieces(text, 0, c.separators, nil)
	return c.merge(text, pieces)
}

// pieces splits text into ordered, contiguous spans no longer than the chunk
// size, recursing into finer separators for oversized pieces. Separators
// stay attached to the end of the piece they terminate.
func (c *Chunker) pieces(text string, base int, separators []string, out []Span) []Span {
	if utf8.RuneCountInString(text) <= c.chunkSize {
		return append(out, Span{Start: base, End: base + len(text)})
	}

	sep, rest, ok := pickSeparator(text, separators)
	if !ok {
		// no separator left: the piece is atomic
		return append(out, Span{Start: base, End: base + len(text)})
	}

	if sep == "" {
		start, count := 0, 0
		for i := range text {
			if count == c.chunkSize {
				out = append(out, Span{Start: base + start, End: base + i})
				start, count = i, 0
			}
			count++
		}
		return append(out, Span{Start: base + start, End: base + len(text)})
	}

	pos := 0
	for pos < len(text) {
		end := len(text)
		if idx := strings.Index(text[pos:], sep); idx >= 0 {
			end = pos + idx + len(sep)
		}
		piece := text[pos:end]
		if utf8.RuneCountInString(piece) <= c.chunkSize {
			out = append(out, Span{Start: base + pos, End: base + end})
		} else {
			out = c.pieces(piece, base+pos, rest, out)
		}
		pos = end
	}
	return out
}

func pickSeparator(text string, separators []string) (string, []string, bool) {
	for i, sep := range separators {
		if sep == "" || strings.Contains(text, sep) {
			return sep, separators[i+1:], true
		}
	}
	return "", nil, false
}

// merge greedily packs pieces into chunks, carrying trailing pieces of up to
// chunkOverlap characters into the next chunk.
func (c *Chunker) merge(text string, pieces []Span) []Span {
	var (
		spans   []Span
		window  []Span
		lengths []int
		total   int
	)

	for _, p := range pieces {
		l := utf8.RuneCountInString(text[p.Start:p.End])
		if total+l > c.chunkSize && len(window) > 0 {
			spans = append(spans, Span{Start: window[0].Start, End: window[len(window)-1].End})
			for total > c.chunkOverlap || (total+l > c.chunkSize && total > 0) {
				total -= lengths[0]
				window = window[1:]
				lengths = lengths[1:]
			}
		}
		window = append(window, p)
		lengths = append(lengths, l)
		total += l
	}

	if len(window) > 0 {
		spans = append(spans, Span{Start: window[0].Start, End: window[len(window)-1].End})
	}
	return spans
}

// Reconstruct joins the spans of text with their overlaps removed.
func Reconstruct(text string, spans []Span) string {
	var b strings.Builder
	b.Grow(len(text))
	covered := 0
	for _, s := range spans {
		if s.End <= covered {
			continue
		}
		b.WriteString(text[max(s.Start, covered):s.End])
		covered = s.End
	}
	return b.String()
}

// ChunkPages splits every page of a paper independently, so chunks never
// straddle a page break, and stamps each chunk with its provenance. Blank
// pages and whitespace-only chunks are dropped.
func (c *Chunker) ChunkPages(file loader.PaperFile, pages []loader.Page) []common.Chunk {
	extractedAt := c.now().UTC()

	doi := ""
	for _, p := range pages {
		if p.DOI != "" {
			doi = p.DOI
			break
		}
	}

	chunks := make([]common.Chunk, 0)
	for _, page := range pages {
		if strings.TrimSpace(page.Text) == "" {
			continue
		}
		for _, span := range c.Split(page.Text) {
			content := page.Text[span.Start:span.End]
			if strings.TrimSpace(content) == "" {
				continue
			}
			meta := common.ChunkMetadata{
				PaperName:   file.PaperName,
				SourcePath:  file.FilePath,
				ExtractedAt: extractedAt,
				Page:        page.Number,
				Start:       span.Start,
				End:         span.End,
				DOI:         doi,
			}
			if c.encoder != nil {
				meta.Tokens = len(c.encoder.Encode(content, nil, nil))
			}
			chunks = append(chunks, common.Chunk{Text: content, Metadata: meta})
		}
	}

	for i := range chunks {
		chunks[i].Metadata.ChunkIndex = i
		chunks[i].Metadata.TotalChunks = len(chunks)
	}

	logger.Debug("[Chunker] Split paper", "paper", file.PaperName, "pages", len(pages), "chunks", len(chunks))
	return chunks
}
