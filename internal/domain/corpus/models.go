package corpus

import "time"

type DocType string

var (
	PDF  DocType = "PDF"
	WORD DocType = "WORD" //docx, doc, txt, rtf, odt - everything cat handles
	ERR  DocType = "ERROR"
)

// Document is the extraction output for one source file. Immutable once
// produced; only its derived chunks are persisted.
type Document struct {
	SourcePath  string    `json:"source_path"`
	Name        string    `json:"doc_name"`
	RawText     string    `json:"-"`
	ContentType DocType   `json:"content_type"`
	ExtractedAt time.Time `json:"extracted_at"`
}

// Chunk is the unit of retrieval: a bounded slice of a document's text.
// Position is the chunk's order within its document and breaks ranking ties.
type Chunk struct {
	ChunkId    string `json:"chunk_id"`
	Text       string `json:"content"`
	SourcePath string `json:"source_path"`
	Category   string `json:"category"`
	Position   int    `json:"position"`
}

// SearchHit is a retrieved chunk with its similarity score.
type SearchHit struct {
	Chunk
	Score float32 `json:"score"`
}

// CategorizationRecord is one append-only log entry per ingested document.
type CategorizationRecord struct {
	DocumentPath     string    `json:"document_path"`
	AssignedCategory string    `json:"assigned_category"`
	Reasoning        string    `json:"reasoning,omitempty"`
	Timestamp        time.Time `json:"timestamp"`
}

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one conversation entry, ordered chronologically per session.
type Turn struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}
