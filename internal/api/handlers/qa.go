package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/aurelia-labs/docq/internal/api"
	"github.com/aurelia-labs/docq/internal/api/middleware"
	"github.com/aurelia-labs/docq/internal/domain"
)

type AnswerService interface {
	Ask(ctx context.Context, question, documentID string) (*domain.AnswerResult, error)
}

// QAHandler serves question answering over ingested documents.
type QAHandler struct {
	answers AnswerService
	docs    DocumentService
}

func NewQAHandler(answers AnswerService, docs DocumentService) *QAHandler {
	return &QAHandler{answers: answers, docs: docs}
}

type AskRequest struct {
	Question   string `json:"question"`
	DocumentID string `json:"document_id"`
}

type SourceRefResponse struct {
	DocumentID   string `json:"document_id"`
	ChunkOrdinal int    `json:"chunk_ordinal"`
}

type AskResponse struct {
	Question   string              `json:"question"`
	Answer     string              `json:"answer"`
	Confidence float64             `json:"confidence"`
	Sources    []SourceRefResponse `json:"sources"`
}

func (h *QAHandler) Ask(w http.ResponseWriter, r *http.Request) {
	ownerID := middleware.GetOwnerID(r.Context())
	if ownerID == "" {
		api.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Question == "" {
		api.Error(w, http.StatusBadRequest, "question is required")
		return
	}
	if req.DocumentID == "" {
		api.Error(w, http.StatusBadRequest, "document_id is required")
		return
	}

	// The index is shared between owners, so ownership is checked before
	// any retrieval happens.
	if _, err := h.docs.GetDocument(r.Context(), req.DocumentID, ownerID); err != nil {
		api.HandleError(w, err)
		return
	}

	result, err := h.answers.Ask(r.Context(), req.Question, req.DocumentID)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	sources := make([]SourceRefResponse, 0, len(result.Sources))
	for _, s := range result.Sources {
		sources = append(sources, SourceRefResponse{
			DocumentID:   s.DocumentID,
			ChunkOrdinal: s.ChunkOrdinal,
		})
	}

	api.Success(w, http.StatusOK, &AskResponse{
		Question:   result.Question,
		Answer:     result.Answer,
		Confidence: result.Confidence,
		Sources:    sources,
	})
}
