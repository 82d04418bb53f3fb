package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/docgraph-io/docgraph"
	"github.com/docgraph-io/docgraph/pkg/server/dto"
	"github.com/docgraph-io/docgraph/pkg/types"
)

// DocumentsHandler exposes document status.
type DocumentsHandler struct {
	engine docgraph.Service
}

// NewDocumentsHandler creates a new documents handler.
func NewDocumentsHandler(engine docgraph.Service) *DocumentsHandler {
	return &DocumentsHandler{engine: engine}
}

// List handles GET /api/v1/documents.
func (h *DocumentsHandler) List(c *gin.Context) {
	docs, err := h.engine.Documents(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "list_failed", Message: err.Error()})
		return
	}

	out := make([]dto.DocumentResponse, 0, len(docs))
	for _, doc := range docs {
		out = append(out, dto.FromDocument(doc))
	}
	c.JSON(http.StatusOK, gin.H{"documents": out})
}

// Get handles GET /api/v1/documents/:id.
func (h *DocumentsHandler) Get(c *gin.Context) {
	doc, err := h.engine.Document(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, types.ErrDocumentNotFound) {
			c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "not_found", Message: err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "get_failed", Message: err.Error()})
		return
	}
	c.JSON(http.StatusOK, dto.FromDocument(doc))
}
