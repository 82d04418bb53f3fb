package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/docgraph-io/docgraph"
	"github.com/docgraph-io/docgraph/pkg/server/dto"
	"github.com/docgraph-io/docgraph/pkg/types"
)

// IngestHandler handles document ingestion requests.
type IngestHandler struct {
	engine docgraph.Service
}

// NewIngestHandler creates a new ingest handler.
func NewIngestHandler(engine docgraph.Service) *IngestHandler {
	return &IngestHandler{engine: engine}
}

// Ingest handles POST /api/v1/ingest. The request blocks until the document
// reaches a terminal status so the response can report it.
func (h *IngestHandler) Ingest(c *gin.Context) {
	var req dto.IngestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid_request", Message: err.Error()})
		return
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid_request", Message: err.Error()})
		return
	}

	docID, err := h.engine.Ingest(c.Request.Context(), req.Text, req.Name, req.Metadata)
	if err != nil {
		if errors.Is(err, types.ErrInvalidInput) {
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid_input", Message: err.Error()})
			return
		}
		// The document exists in the error status; report both.
		c.JSON(http.StatusUnprocessableEntity, dto.IngestResponse{
			DocumentID: docID,
			Status:     string(types.DocumentError),
			Error:      err.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, dto.IngestResponse{
		DocumentID: docID,
		Status:     string(types.DocumentProcessed),
	})
}
