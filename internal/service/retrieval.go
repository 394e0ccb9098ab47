package service

import (
	"context"
	"strings"

	"github.com/aurelia-labs/docq/internal/domain"
	"github.com/aurelia-labs/docq/internal/index"
)

// DefaultTopK is the number of chunks retrieved per question.
const DefaultTopK = 3

// Retriever embeds a question and finds the most similar chunks. An empty
// corpus, or an empty per-document subset, is reported as no relevant
// content rather than as an empty result.
type Retriever struct {
	embedder EmbeddingClient
	index    VectorIndex
	topK     int
}

// NewRetriever creates a new Retriever instance.
func NewRetriever(embedder EmbeddingClient, idx VectorIndex, topK int) (*Retriever, error) {
	if topK <= 0 {
		return nil, domain.ErrInvalidTopK
	}
	return &Retriever{embedder: embedder, index: idx, topK: topK}, nil
}

// Retrieve returns up to topK chunks ranked by cosine similarity to the
// question. When documentID is non-empty, only that document's chunks are
// candidates.
func (r *Retriever) Retrieve(ctx context.Context, question, documentID string) ([]index.Result, error) {
	if strings.TrimSpace(question) == "" {
		return nil, domain.ErrEmptyQuestion
	}

	if r.index.Len(documentID) == 0 {
		err := domain.ErrNoRelevantContent
		if documentID != "" {
			err = err.WithContext("document_id", documentID)
		}
		return nil, err
	}

	queryVec, err := r.embedder.GenerateEmbedding(ctx, question)
	if err != nil {
		return nil, err
	}

	results, err := r.index.Search(queryVec, r.topK, documentID)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, domain.ErrNoRelevantContent
	}
	return results, nil
}
