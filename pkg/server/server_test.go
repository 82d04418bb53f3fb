package server

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docgraph-io/docgraph"
	"github.com/docgraph-io/docgraph/pkg/config"
	"github.com/docgraph-io/docgraph/pkg/graph"
	"github.com/docgraph-io/docgraph/pkg/llm"
	"github.com/docgraph-io/docgraph/pkg/server/dto"
	"github.com/docgraph-io/docgraph/pkg/types"
)

type fixedEmbedder struct{}

func (fixedEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 0, 0}
	}
	return out, nil
}

func (fixedEmbedder) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	return []float32{1, 0, 0}, nil
}

func (fixedEmbedder) Dimensions() int { return 3 }
func (fixedEmbedder) Close() error    { return nil }

type fixedLLM struct{}

func (fixedLLM) Chat(ctx context.Context, messages []llm.Message) (*llm.Response, error) {
	return &llm.Response{Content: "Paris."}, nil
}

func (fixedLLM) ChatStream(ctx context.Context, messages []llm.Message) (<-chan llm.StreamDelta, error) {
	out := make(chan llm.StreamDelta, 1)
	out <- llm.StreamDelta{Content: "Paris."}
	close(out)
	return out, nil
}

func (fixedLLM) Close() error { return nil }

func newTestServer(t *testing.T) *Server {
	t.Helper()

	engine, err := docgraph.NewEngine(graph.NewMemoryStore(), fixedEmbedder{}, fixedLLM{}, nil,
		docgraph.Config{Logger: slog.New(slog.DiscardHandler)})
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, engine.Close(context.Background()))
	})

	cfg := &config.Config{}
	cfg.Server.Mode = gin.TestMode
	srv := New(cfg, engine)
	srv.Setup()
	return srv
}

func doJSON(t *testing.T, srv *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestIngestAndQueryRoundTrip(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/ingest", dto.IngestRequest{
		Text: "Paris is the capital of France.",
		Name: "cities.txt",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var ingestResp dto.IngestResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ingestResp))
	assert.NotEmpty(t, ingestResp.DocumentID)
	assert.Equal(t, string(types.DocumentProcessed), ingestResp.Status)

	rec = doJSON(t, srv, http.MethodPost, "/api/v1/query", dto.QueryRequest{
		Question: "What is the capital of France?",
		Scope:    []string{ingestResp.DocumentID},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var queryResp dto.QueryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &queryResp))
	assert.Equal(t, "Paris.", queryResp.Answer)
	assert.False(t, queryResp.NoEvidence)
	assert.NotEmpty(t, queryResp.Evidence)
}

func TestQueryEmptyScopeIsNoEvidence(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/query", dto.QueryRequest{
		Question: "anything",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var queryResp dto.QueryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &queryResp))
	assert.True(t, queryResp.NoEvidence)
}

func TestIngestValidation(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/ingest", map[string]string{"name": "x"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, srv, http.MethodPost, "/api/v1/ingest", dto.IngestRequest{Text: "   "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestQueryValidation(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/query", map[string]any{"scope": []string{"x"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDocumentsEndpoints(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/ingest", dto.IngestRequest{
		Text: "Some document body.",
		Name: "doc.txt",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var ingestResp dto.IngestResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ingestResp))

	rec = doJSON(t, srv, http.MethodGet, "/api/v1/documents", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), ingestResp.DocumentID)

	rec = doJSON(t, srv, http.MethodGet, "/api/v1/documents/"+ingestResp.DocumentID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var docResp dto.DocumentResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &docResp))
	assert.Equal(t, "doc.txt", docResp.Name)
	assert.Equal(t, string(types.DocumentProcessed), docResp.Status)

	rec = doJSON(t, srv, http.MethodGet, "/api/v1/documents/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// sseRecorder adds the CloseNotify method gin's Stream helper requires of the
// response writer, which httptest.ResponseRecorder does not implement.
type sseRecorder struct {
	*httptest.ResponseRecorder
	closed chan bool
}

func newSSERecorder() *sseRecorder {
	return &sseRecorder{
		ResponseRecorder: httptest.NewRecorder(),
		closed:           make(chan bool, 1),
	}
}

func (r *sseRecorder) CloseNotify() <-chan bool { return r.closed }

func TestQueryStreamEndpoint(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/ingest", dto.IngestRequest{
		Text: "Paris is the capital of France.",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var ingestResp dto.IngestResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ingestResp))

	payload, err := json.Marshal(dto.QueryRequest{
		Question: "What is the capital of France?",
		Scope:    []string{ingestResp.DocumentID},
		Stream:   true,
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/query", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	stream := newSSERecorder()
	srv.Router().ServeHTTP(stream, req)

	require.Equal(t, http.StatusOK, stream.Code, stream.Body.String())
	assert.True(t, strings.HasPrefix(stream.Header().Get("Content-Type"), "text/event-stream"))
	assert.Contains(t, stream.Body.String(), "event:delta")
	assert.Contains(t, stream.Body.String(), "event:done")
}
