package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/OFFIS-RIT/papergraph/pkg/common"
	"github.com/OFFIS-RIT/papergraph/pkg/logger"
)

const (
	maxCleanName = 50
	extractedExt = ".json"
	fallbackName = "paper"
)

// ExtractedPaper is the cached chunk set of one source document.
type ExtractedPaper struct {
	PaperName      string           `json:"paper_name"`
	ExtractionTime time.Time        `json:"extraction_time"`
	TotalChunks    int              `json:"total_chunks"`
	Chunks         []ExtractedChunk `json:"chunks"`
}

type ExtractedChunk struct {
	Content  string               `json:"content"`
	Metadata common.ChunkMetadata `json:"metadata"`
	ChunkID  int                  `json:"chunk_id"`
}

// ExtractedStore writes one JSON file per processed paper into a directory.
// The files present are what counts as "processed".
type ExtractedStore struct {
	dir string
	now func() time.Time
}

func NewExtractedStore(dir string) *ExtractedStore {
	return &ExtractedStore{dir: dir, now: time.Now}
}

// CleanName turns a paper name into a file name stem: only letters, digits,
// space, "-" and "_" are kept, trailing spaces are dropped, spaces become
// underscores and the result is cut to 50 characters.
func CleanName(paperName string) string {
	var b strings.Builder
	for _, r := range paperName {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' || r == '-' || r == '_' {
			b.WriteRune(r)
		}
	}
	name := strings.ReplaceAll(strings.TrimRight(b.String(), " "), " ", "_")
	if runes := []rune(name); len(runes) > maxCleanName {
		name = string(runes[:maxCleanName])
	}
	if name == "" {
		return fallbackName
	}
	return name
}

func (s *ExtractedStore) path(paperName string) string {
	return filepath.Join(s.dir, CleanName(paperName)+extractedExt)
}

// Save writes the chunks of one paper, replacing an earlier file of the same
// clean name.
func (s *ExtractedStore) Save(paperName string, chunks []common.Chunk) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create extracted directory: %w", err)
	}

	out := ExtractedPaper{
		PaperName:      paperName,
		ExtractionTime: s.now().UTC(),
		TotalChunks:    len(chunks),
		Chunks:         make([]ExtractedChunk, 0, len(chunks)),
	}
	for _, c := range chunks {
		out.Chunks = append(out.Chunks, ExtractedChunk{
			Content:  c.Text,
			Metadata: c.Metadata,
			ChunkID:  c.Metadata.ChunkIndex,
		})
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode extracted content: %w", err)
	}
	p := s.path(paperName)
	if err := os.WriteFile(p, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to save extracted content: %w", err)
	}
	logger.Debug("[Registry] Saved extracted content", "paper", paperName, "file", p, "chunks", len(chunks))
	return p, nil
}

// Load reads back the cached chunks of a paper.
func (s *ExtractedStore) Load(paperName string) (ExtractedPaper, error) {
	data, err := os.ReadFile(s.path(paperName))
	if err != nil {
		return ExtractedPaper{}, fmt.Errorf("failed to read extracted content for %q: %w", paperName, err)
	}
	var out ExtractedPaper
	if err := json.Unmarshal(data, &out); err != nil {
		return ExtractedPaper{}, fmt.Errorf("failed to decode extracted content for %q: %w", paperName, err)
	}
	return out, nil
}

// ToChunks rebuilds the chunk list of a cached paper.
func (p ExtractedPaper) ToChunks() []common.Chunk {
	chunks := make([]common.Chunk, 0, len(p.Chunks))
	for _, c := range p.Chunks {
		chunks = append(chunks, common.Chunk{Text: c.Content, Metadata: c.Metadata})
	}
	return chunks
}

// ListPapers returns the clean names of all cached papers, sorted. A missing
// directory yields no papers.
func (s *ExtractedStore) ListPapers() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list extracted content: %w", err)
	}

	papers := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), extractedExt) {
			continue
		}
		papers = append(papers, strings.TrimSuffix(e.Name(), extractedExt))
	}
	sort.Strings(papers)
	return papers, nil
}
