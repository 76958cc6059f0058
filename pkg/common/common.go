package common

import "time"

// Chunk is a bounded slice of a paper's text together with the provenance
// needed to trace extracted facts back to their source. Chunks are created
// by the chunker and never modified afterwards.
type Chunk struct {
	Text     string        `json:"content"`
	Metadata ChunkMetadata `json:"metadata"`
}

// ChunkMetadata records where a chunk came from.
//
// Start and End are byte offsets into the text of Page. TotalChunks is the
// number of chunks produced for the whole paper and is only used for display.
type ChunkMetadata struct {
	ChunkIndex  int       `json:"chunk_id"`
	TotalChunks int       `json:"total_chunks"`
	PaperName   string    `json:"paper_name"`
	SourcePath  string    `json:"file_path"`
	ExtractedAt time.Time `json:"extraction_time"`
	Page        int       `json:"page"`
	Start       int       `json:"start"`
	End         int       `json:"end"`
	Tokens      int       `json:"tokens,omitempty"`
	DOI         string    `json:"doi,omitempty"`
}

// Node is an entity proposed by the extractor. Its identity is the pair
// (ID, Type); ID doubles as the display name.
type Node struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

// Key returns the identity of the node.
func (n Node) Key() string {
	return n.Type + "\x00" + n.ID
}

// Relationship is a directed, typed edge between two nodes.
// Multiple extractions of the same (Source, Target, Type) collapse into one edge.
type Relationship struct {
	Source Node   `json:"source"`
	Target Node   `json:"target"`
	Type   string `json:"type"`
}

// Key returns the identity of the relationship.
func (r Relationship) Key() string {
	return r.Source.Key() + "\x00" + r.Type + "\x00" + r.Target.Key()
}

// GraphMetadata is stamped uniformly across all documents of one extraction
// batch so every result can be traced back to the same ingest call.
type GraphMetadata struct {
	BatchID              string            `json:"batch_id"`
	SourcePapers         []string          `json:"source_papers"`
	ExtractionTime       time.Time         `json:"extraction_time"`
	TotalChunksProcessed int               `json:"total_chunks_processed"`
	ModelUsed            string            `json:"model_used"`
	PromptType           string            `json:"prompt_type"`
	PaperDOIs            map[string]string `json:"paper_dois,omitempty"`
}

// FirstSourcePaper returns the paper edges are attributed to.
func (m GraphMetadata) FirstSourcePaper() string {
	if len(m.SourcePapers) == 0 {
		return "unknown"
	}
	return m.SourcePapers[0]
}

// GraphDocument is the node and relationship set extracted from one chunk.
// It is consumed immediately by the graph store and never persisted as is.
type GraphDocument struct {
	Nodes         []Node         `json:"nodes"`
	Relationships []Relationship `json:"relationships"`
	Metadata      GraphMetadata  `json:"metadata"`
}

// Empty reports whether the document carries no graph data.
func (d GraphDocument) Empty() bool {
	return len(d.Nodes) == 0 && len(d.Relationships) == 0
}

// Dataset is a named graph and the papers ingested into it.
type Dataset struct {
	Name      string    `json:"name"`
	Papers    []string  `json:"papers"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// GraphStats describes the content of one graph namespace.
type GraphStats struct {
	Database      string           `json:"database"`
	Nodes         int64            `json:"nodes"`
	Relationships int64            `json:"relationships"`
	Labels        map[string]int64 `json:"labels,omitempty"`
}

// Schema lists the distinct labels, relationship types and property keys of
// a namespace. Order carries no meaning.
type Schema struct {
	Labels            []string `json:"labels"`
	RelationshipTypes []string `json:"relationship_types"`
	PropertyKeys      []string `json:"property_keys"`
}
