package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/aurelia-labs/docq/internal/api/middleware"
	"github.com/aurelia-labs/docq/internal/domain"
	"github.com/aurelia-labs/docq/internal/service"
)

type MockDocumentService struct {
	mock.Mock
}

func (m *MockDocumentService) Ingest(ctx context.Context, req service.IngestRequest) (*domain.Document, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Document), args.Error(1)
}

func (m *MockDocumentService) GetDocument(ctx context.Context, documentID, ownerID string) (*domain.Document, error) {
	args := m.Called(ctx, documentID, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Document), args.Error(1)
}

func (m *MockDocumentService) Delete(ctx context.Context, documentID, ownerID string) error {
	args := m.Called(ctx, documentID, ownerID)
	return args.Error(0)
}

type MockDocumentLister struct {
	mock.Mock
}

func (m *MockDocumentLister) ListByOwner(ctx context.Context, ownerID string) ([]*domain.Document, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Document), args.Error(1)
}

type MockSummaryService struct {
	mock.Mock
}

func (m *MockSummaryService) Summarize(ctx context.Context, documentID, ownerID string) (string, error) {
	args := m.Called(ctx, documentID, ownerID)
	return args.String(0), args.Error(1)
}

func newTestDoc() *domain.Document {
	doc := domain.NewDocument(
		"doc-123",
		"owner-456",
		"Test Document",
		"normalized content",
		map[string]string{"lang": "en"},
		time.Now().UTC(),
	)
	doc.ChunkCount = 2
	return doc
}

func requestWithOwnerID(method, url string, body []byte) *http.Request {
	req := httptest.NewRequest(method, url, bytes.NewReader(body))
	ctx := context.WithValue(req.Context(), middleware.OwnerIDKey, "owner-456")
	return req.WithContext(ctx)
}

func withURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func newDocumentHandler() (*DocumentHandler, *MockDocumentService, *MockDocumentLister, *MockSummaryService) {
	svc := new(MockDocumentService)
	lister := new(MockDocumentLister)
	summary := new(MockSummaryService)
	return NewDocumentHandler(svc, lister, summary), svc, lister, summary
}

func TestDocumentHandler_Ingest_Success(t *testing.T) {
	handler, svc, _, _ := newDocumentHandler()

	expected := newTestDoc()
	svc.On("Ingest", mock.Anything, mock.MatchedBy(func(req service.IngestRequest) bool {
		return req.OwnerID == "owner-456" && req.Content == "some document text"
	})).Return(expected, nil)

	body := `{"title":"Test Document","content":"some document text","metadata":{"lang":"en"}}`
	req := requestWithOwnerID(http.MethodPost, "/documents", []byte(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	handler.Ingest(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, "doc-123", data["id"])
	assert.Equal(t, float64(2), data["chunk_count"])
	svc.AssertExpectations(t)
}

func TestDocumentHandler_Ingest_Unauthorized(t *testing.T) {
	handler, _, _, _ := newDocumentHandler()

	req := httptest.NewRequest(http.MethodPost, "/documents", bytes.NewReader([]byte(`{"content":"x"}`)))
	w := httptest.NewRecorder()

	handler.Ingest(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestDocumentHandler_Ingest_InvalidJSON(t *testing.T) {
	handler, _, _, _ := newDocumentHandler()

	req := requestWithOwnerID(http.MethodPost, "/documents", []byte(`{invalid`))
	w := httptest.NewRecorder()

	handler.Ingest(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid request body")
}

func TestDocumentHandler_Ingest_MissingContent(t *testing.T) {
	handler, _, _, _ := newDocumentHandler()

	req := requestWithOwnerID(http.MethodPost, "/documents", []byte(`{"title":"no content"}`))
	w := httptest.NewRecorder()

	handler.Ingest(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "content is required")
}

func TestDocumentHandler_Ingest_ProviderError(t *testing.T) {
	handler, svc, _, _ := newDocumentHandler()

	svc.On("Ingest", mock.Anything, mock.Anything).
		Return(nil, domain.ErrEmbeddingProvider)

	req := requestWithOwnerID(http.MethodPost, "/documents", []byte(`{"content":"text"}`))
	w := httptest.NewRecorder()

	handler.Ingest(w, req)

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), domain.ErrCodeEmbeddingProvider)
}

func TestDocumentHandler_Get_Success(t *testing.T) {
	handler, svc, _, _ := newDocumentHandler()

	svc.On("GetDocument", mock.Anything, "doc-123", "owner-456").Return(newTestDoc(), nil)

	req := withURLParam(requestWithOwnerID(http.MethodGet, "/documents/doc-123", nil), "id", "doc-123")
	w := httptest.NewRecorder()

	handler.Get(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "doc-123")
	svc.AssertExpectations(t)
}

func TestDocumentHandler_Get_NotFound(t *testing.T) {
	handler, svc, _, _ := newDocumentHandler()

	svc.On("GetDocument", mock.Anything, "missing", "owner-456").
		Return(nil, domain.ErrDocumentNotFound)

	req := withURLParam(requestWithOwnerID(http.MethodGet, "/documents/missing", nil), "id", "missing")
	w := httptest.NewRecorder()

	handler.Get(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDocumentHandler_List_Success(t *testing.T) {
	handler, _, lister, _ := newDocumentHandler()

	lister.On("ListByOwner", mock.Anything, "owner-456").
		Return([]*domain.Document{newTestDoc()}, nil)

	req := requestWithOwnerID(http.MethodGet, "/documents", nil)
	w := httptest.NewRecorder()

	handler.List(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].([]interface{})
	assert.Len(t, data, 1)
}

func TestDocumentHandler_Delete_Success(t *testing.T) {
	handler, svc, _, _ := newDocumentHandler()

	svc.On("Delete", mock.Anything, "doc-123", "owner-456").Return(nil)

	req := withURLParam(requestWithOwnerID(http.MethodDelete, "/documents/doc-123", nil), "id", "doc-123")
	w := httptest.NewRecorder()

	handler.Delete(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	svc.AssertExpectations(t)
}

func TestDocumentHandler_Delete_WrongOwner(t *testing.T) {
	handler, svc, _, _ := newDocumentHandler()

	svc.On("Delete", mock.Anything, "doc-123", "owner-456").
		Return(domain.ErrNotOwner)

	req := withURLParam(requestWithOwnerID(http.MethodDelete, "/documents/doc-123", nil), "id", "doc-123")
	w := httptest.NewRecorder()

	handler.Delete(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestDocumentHandler_Summarize_Success(t *testing.T) {
	handler, _, _, summary := newDocumentHandler()

	summary.On("Summarize", mock.Anything, "doc-123", "owner-456").
		Return("A summary of the document.", nil)

	req := withURLParam(requestWithOwnerID(http.MethodPost, "/documents/doc-123/summary", nil), "id", "doc-123")
	w := httptest.NewRecorder()

	handler.Summarize(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "A summary of the document.")
	summary.AssertExpectations(t)
}

func TestDocumentHandler_Summarize_NoChunks(t *testing.T) {
	handler, _, _, summary := newDocumentHandler()

	summary.On("Summarize", mock.Anything, "doc-123", "owner-456").
		Return("", domain.ErrNoRelevantContent)

	req := withURLParam(requestWithOwnerID(http.MethodPost, "/documents/doc-123/summary", nil), "id", "doc-123")
	w := httptest.NewRecorder()

	handler.Summarize(w, req)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}
