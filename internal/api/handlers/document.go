package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/aurelia-labs/docq/internal/api"
	"github.com/aurelia-labs/docq/internal/api/middleware"
	"github.com/aurelia-labs/docq/internal/domain"
	"github.com/aurelia-labs/docq/internal/service"
)

type DocumentService interface {
	Ingest(ctx context.Context, req service.IngestRequest) (*domain.Document, error)
	GetDocument(ctx context.Context, documentID, ownerID string) (*domain.Document, error)
	Delete(ctx context.Context, documentID, ownerID string) error
}

type DocumentLister interface {
	ListByOwner(ctx context.Context, ownerID string) ([]*domain.Document, error)
}

type SummaryService interface {
	Summarize(ctx context.Context, documentID, ownerID string) (string, error)
}

type DocumentHandler struct {
	svc     DocumentService
	lister  DocumentLister
	summary SummaryService
}

func NewDocumentHandler(svc DocumentService, lister DocumentLister, summary SummaryService) *DocumentHandler {
	return &DocumentHandler{svc: svc, lister: lister, summary: summary}
}

type IngestDocumentRequest struct {
	Title    string            `json:"title"`
	Content  string            `json:"content"`
	Metadata map[string]string `json:"metadata"`
}

type DocumentResponse struct {
	ID         string            `json:"id"`
	Title      string            `json:"title"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	ChunkCount int               `json:"chunk_count"`
	CreatedAt  string            `json:"created_at"`
}

type SummaryResponse struct {
	DocumentID string `json:"document_id"`
	Summary    string `json:"summary"`
}

func documentToResponse(d *domain.Document) *DocumentResponse {
	return &DocumentResponse{
		ID:         d.ID,
		Title:      d.Title,
		Metadata:   d.Metadata,
		ChunkCount: d.ChunkCount,
		CreatedAt:  d.CreatedAt.Format(time.RFC3339),
	}
}

func (h *DocumentHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	ownerID := middleware.GetOwnerID(r.Context())
	if ownerID == "" {
		api.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req IngestDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Content == "" {
		api.Error(w, http.StatusBadRequest, "content is required")
		return
	}

	doc, err := h.svc.Ingest(r.Context(), service.IngestRequest{
		OwnerID:  ownerID,
		Title:    req.Title,
		Content:  req.Content,
		Metadata: req.Metadata,
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusCreated, documentToResponse(doc))
}

func (h *DocumentHandler) Get(w http.ResponseWriter, r *http.Request) {
	ownerID := middleware.GetOwnerID(r.Context())
	if ownerID == "" {
		api.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	doc, err := h.svc.GetDocument(r.Context(), chi.URLParam(r, "id"), ownerID)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, documentToResponse(doc))
}

func (h *DocumentHandler) List(w http.ResponseWriter, r *http.Request) {
	ownerID := middleware.GetOwnerID(r.Context())
	if ownerID == "" {
		api.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	docs, err := h.lister.ListByOwner(r.Context(), ownerID)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	resp := make([]*DocumentResponse, 0, len(docs))
	for _, d := range docs {
		resp = append(resp, documentToResponse(d))
	}
	api.Success(w, http.StatusOK, resp)
}

func (h *DocumentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ownerID := middleware.GetOwnerID(r.Context())
	if ownerID == "" {
		api.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "id"), ownerID); err != nil {
		api.HandleError(w, err)
		return
	}

	api.JSON(w, http.StatusNoContent, nil)
}

func (h *DocumentHandler) Summarize(w http.ResponseWriter, r *http.Request) {
	ownerID := middleware.GetOwnerID(r.Context())
	if ownerID == "" {
		api.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	documentID := chi.URLParam(r, "id")
	summary, err := h.summary.Summarize(r.Context(), documentID, ownerID)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, &SummaryResponse{DocumentID: documentID, Summary: summary})
}
