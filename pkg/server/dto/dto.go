// Package dto defines the request and response shapes of the HTTP API.
package dto

import (
	"errors"
	"strings"

	"github.com/docgraph-io/docgraph/pkg/types"
)

// MaxDocumentBytes bounds a single ingested document.
const MaxDocumentBytes = 10 << 20

var ErrDocumentTooLarge = errors.New("document exceeds maximum size")

// IngestRequest represents a document ingestion request.
type IngestRequest struct {
	Text     string            `json:"text" binding:"required"`
	Name     string            `json:"name,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Validate performs validation on IngestRequest.
func (r *IngestRequest) Validate() error {
	if strings.TrimSpace(r.Text) == "" {
		return errors.New("text cannot be empty")
	}
	if len(r.Text) > MaxDocumentBytes {
		return ErrDocumentTooLarge
	}
	return nil
}

// IngestResponse reports the outcome of an ingestion.
type IngestResponse struct {
	DocumentID string `json:"document_id"`
	Status     string `json:"status"`
	Error      string `json:"error,omitempty"`
}

// QueryRequest represents a question over a set of documents.
type QueryRequest struct {
	Question    string   `json:"question" binding:"required"`
	Scope       []string `json:"scope"`
	ResultCount int      `json:"result_count,omitempty"`
	Stream      bool     `json:"stream,omitempty"`
}

// Validate performs validation on QueryRequest.
func (r *QueryRequest) Validate() error {
	if strings.TrimSpace(r.Question) == "" {
		return errors.New("question cannot be empty")
	}
	if r.ResultCount < 0 {
		return errors.New("result_count cannot be negative")
	}
	return nil
}

// QueryResponse carries a generated answer and its evidence.
type QueryResponse struct {
	Question   string               `json:"question"`
	Answer     string               `json:"answer"`
	NoEvidence bool                 `json:"no_evidence,omitempty"`
	Evidence   []types.EvidenceItem `json:"evidence,omitempty"`
}

// DocumentResponse is the API view of a document.
type DocumentResponse struct {
	ID         string            `json:"id"`
	Name       string            `json:"name,omitempty"`
	Status     string            `json:"status"`
	Error      string            `json:"error,omitempty"`
	ChunkCount int               `json:"chunk_count"`
	UploadedAt string            `json:"uploaded_at"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// FromDocument converts a document to its API view.
func FromDocument(doc *types.Document) DocumentResponse {
	return DocumentResponse{
		ID:         doc.ID,
		Name:       doc.Name,
		Status:     string(doc.Status),
		Error:      doc.Error,
		ChunkCount: doc.ChunkCount,
		UploadedAt: doc.UploadedAt.Format("2006-01-02T15:04:05Z07:00"),
		Metadata:   doc.Metadata,
	}
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
