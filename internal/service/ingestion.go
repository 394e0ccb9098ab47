package service

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/aurelia-labs/docq/internal/domain"
	"github.com/aurelia-labs/docq/internal/index"
	"github.com/aurelia-labs/docq/internal/telemetry"
)

// DefaultEmbedConcurrency bounds concurrent embedding requests per document.
const DefaultEmbedConcurrency = 4

// EmbeddingClient defines the provider interface for generating embeddings
type EmbeddingClient interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
	GenerateEmbeddings(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
}

// VectorIndex defines the in-memory index operations the services need.
type VectorIndex interface {
	Insert(chunkID string, vector []float32, meta index.EntryMetadata) error
	Search(query []float32, k int, documentID string) ([]index.Result, error)
	DeleteDocument(documentID string)
	Len(documentID string) int
}

// IngestionDocumentRepository defines the repository interface for document persistence
type IngestionDocumentRepository interface {
	Create(ctx context.Context, doc *domain.Document) error
	GetByID(ctx context.Context, id string) (*domain.Document, error)
	Delete(ctx context.Context, id string) error
}

// IngestionChunkRepository defines the repository interface for chunk persistence
type IngestionChunkRepository interface {
	ReplaceChunks(ctx context.Context, documentID string, chunks []*domain.Chunk) error
}

// IngestionService turns raw text into a persisted, searchable document:
// normalize, chunk, embed, then store and index. Embedding failures abort
// the whole document; a document is never partially indexed.
type IngestionService struct {
	embedder    EmbeddingClient
	docs        IngestionDocumentRepository
	chunks      IngestionChunkRepository
	index       VectorIndex
	chunker     *Chunker
	concurrency int
}

// NewIngestionService creates a new IngestionService instance
func NewIngestionService(
	embedder EmbeddingClient,
	docs IngestionDocumentRepository,
	chunks IngestionChunkRepository,
	idx VectorIndex,
	chunker *Chunker,
	concurrency int,
) *IngestionService {
	if concurrency <= 0 {
		concurrency = DefaultEmbedConcurrency
	}
	return &IngestionService{
		embedder:    embedder,
		docs:        docs,
		chunks:      chunks,
		index:       idx,
		chunker:     chunker,
		concurrency: concurrency,
	}
}

// IngestRequest carries the inputs for ingesting one document.
type IngestRequest struct {
	OwnerID  string
	Title    string
	Content  string
	Metadata map[string]string
}

// Ingest normalizes and chunks the content, generates all embeddings up
// front, and only then persists the document and inserts its vectors. If any
// chunk fails to embed, nothing is stored and nothing is indexed.
func (s *IngestionService) Ingest(ctx context.Context, req IngestRequest) (*domain.Document, error) {
	ctx, span := telemetry.StartSpan(ctx, "IngestionService.Ingest", telemetry.SpanAttributes{
		OwnerID:   req.OwnerID,
		Operation: "ingest",
	})
	defer span.End()

	if req.OwnerID == "" {
		return nil, domain.ErrMissingRequiredField.WithContext("field", "owner_id")
	}
	if strings.TrimSpace(req.Content) == "" {
		return nil, domain.ErrEmptyContent
	}

	normalized, err := NormalizeText(req.Content)
	if err != nil {
		return nil, err
	}
	if normalized == "" {
		return nil, domain.ErrEmptyContent
	}

	pieces := s.chunker.Split(normalized)
	if len(pieces) == 0 {
		return nil, domain.ErrEmptyContent
	}

	doc := domain.NewDocument(uuid.NewString(), req.OwnerID, req.Title, normalized, req.Metadata, time.Now().UTC())
	doc.ChunkCount = len(pieces)

	chunks := make([]*domain.Chunk, len(pieces))
	for i, p := range pieces {
		chunks[i] = &domain.Chunk{
			ID:         uuid.NewString(),
			DocumentID: doc.ID,
			Ordinal:    i,
			Content:    p.Content,
			Overlap:    p.Overlap,
			CreatedAt:  doc.CreatedAt,
		}
	}

	// All embeddings are staged before anything is persisted or indexed.
	// Vectors land at their chunk's position, so ordinal order survives
	// concurrent generation.
	vectors := make([][]float32, len(chunks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, ch := range chunks {
		g.Go(func() error {
			v, embErr := s.embedder.GenerateEmbedding(gctx, ch.Content)
			if embErr != nil {
				return embErr
			}
			vectors[i] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	for i, ch := range chunks {
		ch.Embedding = vectors[i]
	}

	if err := s.docs.Create(ctx, doc); err != nil {
		return nil, err
	}
	if err := s.chunks.ReplaceChunks(ctx, doc.ID, chunks); err != nil {
		s.rollback(ctx, doc.ID)
		return nil, err
	}

	for _, ch := range chunks {
		insErr := s.index.Insert(ch.ID, ch.Embedding, index.EntryMetadata{
			DocumentID: doc.ID,
			Ordinal:    ch.Ordinal,
			Content:    ch.Content,
		})
		if insErr != nil {
			s.rollback(ctx, doc.ID)
			return nil, insErr
		}
	}

	return doc, nil
}

// GetDocument fetches a document and enforces ownership.
func (s *IngestionService) GetDocument(ctx context.Context, documentID, ownerID string) (*domain.Document, error) {
	doc, err := s.docs.GetByID(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if doc.OwnerID != ownerID {
		return nil, domain.ErrNotOwner.WithContext("document_id", documentID)
	}
	return doc, nil
}

// Delete removes a document, its chunks, and its index entries. Deleting a
// document that does not exist returns a not-found error.
func (s *IngestionService) Delete(ctx context.Context, documentID, ownerID string) error {
	ctx, span := telemetry.StartSpan(ctx, "IngestionService.Delete", telemetry.SpanAttributes{
		OwnerID:    ownerID,
		DocumentID: documentID,
		Operation:  "delete",
	})
	defer span.End()

	doc, err := s.docs.GetByID(ctx, documentID)
	if err != nil {
		return err
	}
	if doc.OwnerID != ownerID {
		return domain.ErrNotOwner.WithContext("document_id", documentID)
	}

	// Database first: if this fails the document stays fully searchable.
	// The in-memory removal afterwards cannot fail.
	if err := s.docs.Delete(ctx, documentID); err != nil {
		return err
	}
	s.index.DeleteDocument(documentID)
	return nil
}

// rollback undoes a partially ingested document. It runs detached from the
// request's cancellation so an aborted request cannot strand a document row.
func (s *IngestionService) rollback(ctx context.Context, documentID string) {
	s.index.DeleteDocument(documentID)
	if err := s.docs.Delete(context.WithoutCancel(ctx), documentID); err != nil {
		log.Printf("rollback failed to remove document %s: %v", documentID, err)
	}
}
