package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/docgraph-io/docgraph"
	"github.com/docgraph-io/docgraph/pkg/server/dto"
	"github.com/docgraph-io/docgraph/pkg/types"
)

// QueryHandler handles question answering requests.
type QueryHandler struct {
	engine docgraph.Service
}

// NewQueryHandler creates a new query handler.
func NewQueryHandler(engine docgraph.Service) *QueryHandler {
	return &QueryHandler{engine: engine}
}

// Query handles POST /api/v1/query. With "stream": true the response is
// server-sent events; otherwise a single JSON document.
func (h *QueryHandler) Query(c *gin.Context) {
	var req dto.QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid_request", Message: err.Error()})
		return
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid_request", Message: err.Error()})
		return
	}

	opts := &docgraph.QueryOptions{ResultCount: req.ResultCount}

	if req.Stream {
		h.stream(c, req, opts)
		return
	}

	answer, err := h.engine.Ask(c.Request.Context(), req.Question, req.Scope, opts)
	if err != nil {
		if errors.Is(err, types.ErrInvalidInput) {
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid_input", Message: err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "query_failed", Message: err.Error()})
		return
	}

	c.JSON(http.StatusOK, dto.QueryResponse{
		Question:   answer.Question,
		Answer:     answer.Answer,
		NoEvidence: answer.NoEvidence,
		Evidence:   answer.Evidence,
	})
}

func (h *QueryHandler) stream(c *gin.Context, req dto.QueryRequest, opts *docgraph.QueryOptions) {
	events, err := h.engine.AskStream(c.Request.Context(), req.Question, req.Scope, opts)
	if err != nil {
		if errors.Is(err, types.ErrInvalidInput) {
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid_input", Message: err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "query_failed", Message: err.Error()})
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	c.Stream(func(w io.Writer) bool {
		event, ok := <-events
		if !ok {
			return false
		}
		switch event.Type {
		case docgraph.StreamDelta:
			c.SSEvent("delta", gin.H{"delta": event.Delta})
		case docgraph.StreamDone:
			c.SSEvent("done", dto.QueryResponse{
				Question:   event.Answer.Question,
				Answer:     event.Answer.Answer,
				NoEvidence: event.Answer.NoEvidence,
				Evidence:   event.Answer.Evidence,
			})
		case docgraph.StreamError:
			c.SSEvent("error", gin.H{"error": event.Err.Error()})
		}
		return event.Type == docgraph.StreamDelta
	})
}
