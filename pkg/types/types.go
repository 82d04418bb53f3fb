package types

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DocumentStatus represents the processing state of a document.
type DocumentStatus string

const (
	// DocumentProcessing is the initial status assigned when ingestion starts.
	DocumentProcessing DocumentStatus = "processing"
	// DocumentProcessed means every chunk of the document has been persisted.
	DocumentProcessed DocumentStatus = "processed"
	// DocumentError means a mandatory ingestion step failed. The failure
	// message is captured on the document.
	DocumentError DocumentStatus = "error"
)

// Document is the unit of ingestion. A document owns its chunks and is only
// ever mutated by the ingestion pipeline; retrieval treats it as read-only.
type Document struct {
	ID         string            `json:"id"`
	Name       string            `json:"name,omitempty"`
	Status     DocumentStatus    `json:"status"`
	Error      string            `json:"error,omitempty"`
	ChunkCount int               `json:"chunk_count"`
	UploadedAt time.Time         `json:"uploaded_at"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// NewDocument creates a document in the processing state with a fresh ID.
func NewDocument(name string, metadata map[string]string) *Document {
	return &Document{
		ID:         uuid.New().String(),
		Name:       name,
		Status:     DocumentProcessing,
		UploadedAt: time.Now().UTC(),
		Metadata:   metadata,
	}
}

// Chunk is a bounded contiguous slice of a document's text, the unit of
// retrieval. Immutable after creation except for HasEntities, which records
// whether best-effort entity extraction succeeded for this chunk.
type Chunk struct {
	ID          string    `json:"id"`
	DocumentID  string    `json:"document_id"`
	Index       int       `json:"index"`
	Text        string    `json:"text"`
	Embedding   []float32 `json:"embedding,omitempty"`
	HasEntities bool      `json:"has_entities"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewChunk creates a chunk belonging to the given document.
func NewChunk(documentID string, index int, text string) *Chunk {
	return &Chunk{
		ID:         uuid.New().String(),
		DocumentID: documentID,
		Index:      index,
		Text:       text,
		CreatedAt:  time.Now().UTC(),
	}
}

// Entity is a named, typed span of text treated as a graph node. Identity is
// the (name, type) pair: mentions of the same pair across chunks and
// documents resolve to a single node.
type Entity struct {
	Name       string            `json:"name"`
	Type       string            `json:"type"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// Key returns the identity key of the entity. Two entities with equal keys
// are the same graph node.
func (e Entity) Key() string {
	return strings.ToLower(e.Name) + "\x1f" + strings.ToLower(e.Type)
}

// Relationship is a directed edge between two entities, identified by their
// names, evidenced by the chunk it was extracted from.
type Relationship struct {
	Source     string  `json:"source"`
	Target     string  `json:"target"`
	Type       string  `json:"type"`
	Confidence float64 `json:"confidence,omitempty"`
}

// Key returns a deduplication key for the relationship.
func (r Relationship) Key() string {
	return strings.ToLower(r.Source) + "\x1f" + strings.ToLower(r.Type) + "\x1f" + strings.ToLower(r.Target)
}

// ExtractionResult is the structured output of the entity/relationship
// extraction capability for a single chunk of text.
type ExtractionResult struct {
	Entities      []Entity       `json:"entities"`
	Relationships []Relationship `json:"relationships"`
}

// SignalScores carries the raw per-signal score contributions of an evidence
// item before fusion weighting.
type SignalScores struct {
	Vector  float64 `json:"vector,omitempty"`
	Lexical float64 `json:"lexical,omitempty"`
	Graph   float64 `json:"graph,omitempty"`
}

// EvidenceItem is one ranked, scored unit of retrieved context. Items are
// created fresh per query and never persisted. The content string is the
// deduplication key across signals.
type EvidenceItem struct {
	Content       string         `json:"content"`
	DocumentID    string         `json:"document_id"`
	Score         float64        `json:"score"`
	Signals       SignalScores   `json:"signals"`
	Entities      []Entity       `json:"entities,omitempty"`
	Relationships []Relationship `json:"relationships,omitempty"`
}

var (
	// ErrInvalidInput is returned when a question, scope, or document text is
	// rejected before any I/O is performed.
	ErrInvalidInput = errors.New("invalid input")
	// ErrDocumentNotFound is returned when a document ID does not exist.
	ErrDocumentNotFound = errors.New("document not found")
	// ErrIngestionFailed is returned when a mandatory ingestion step fails
	// and the document has been moved to the error status.
	ErrIngestionFailed = errors.New("ingestion failed")
)
