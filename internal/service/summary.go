package service

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/aurelia-labs/docq/internal/domain"
	"github.com/aurelia-labs/docq/internal/telemetry"
)

// SummaryDocumentRepository defines the repository interface for summary operations
type SummaryDocumentRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Document, error)
}

// SummaryChunkRepository lists a document's chunks in ordinal order.
type SummaryChunkRepository interface {
	ListByDocument(ctx context.Context, documentID string) ([]*domain.Chunk, error)
}

// SummaryService produces document summaries with a two-pass map-reduce:
// each chunk is summarized to one sentence, then the partial summaries are
// combined into a final summary. Single-chunk documents get one direct pass.
type SummaryService struct {
	docs        SummaryDocumentRepository
	chunks      SummaryChunkRepository
	model       LanguageModel
	concurrency int
}

// NewSummaryService creates a new SummaryService instance
func NewSummaryService(docs SummaryDocumentRepository, chunks SummaryChunkRepository, model LanguageModel, concurrency int) *SummaryService {
	if concurrency <= 0 {
		concurrency = DefaultEmbedConcurrency
	}
	return &SummaryService{
		docs:        docs,
		chunks:      chunks,
		model:       model,
		concurrency: concurrency,
	}
}

// Summarize generates a summary of the document's full text. Overlap
// prefixes are stripped before summarization so repeated text is not
// weighted twice.
func (s *SummaryService) Summarize(ctx context.Context, documentID, ownerID string) (string, error) {
	ctx, span := telemetry.StartSpan(ctx, "SummaryService.Summarize", telemetry.SpanAttributes{
		OwnerID:    ownerID,
		DocumentID: documentID,
		Operation:  "summarize",
	})
	defer span.End()

	doc, err := s.docs.GetByID(ctx, documentID)
	if err != nil {
		return "", err
	}
	if doc.OwnerID != ownerID {
		return "", domain.ErrNotOwner.WithContext("document_id", documentID)
	}

	chunks, err := s.chunks.ListByDocument(ctx, documentID)
	if err != nil {
		return "", err
	}
	if len(chunks) == 0 {
		return "", domain.ErrNoRelevantContent.WithContext("document_id", documentID)
	}

	texts := make([]string, len(chunks))
	for i, ch := range chunks {
		texts[i] = stripOverlap(ch)
	}

	if len(texts) == 1 {
		summary, err := s.model.Complete(ctx, fmt.Sprintf(
			"Write a concise summary of the following text:\n\n%s\n\nSummary:", texts[0]))
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(summary), nil
	}

	// Map pass. Partial summaries land at their chunk's position so document
	// order survives concurrent generation.
	partials := make([]string, len(texts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, text := range texts {
		g.Go(func() error {
			partial, mapErr := s.model.Complete(gctx, fmt.Sprintf(
				"Summarize the following passage in one sentence:\n\n%s", text))
			if mapErr != nil {
				return mapErr
			}
			partials[i] = strings.TrimSpace(partial)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return "", err
	}

	// Reduce pass.
	var b strings.Builder
	b.WriteString("Combine the following partial summaries into a single coherent summary of the document:\n\n")
	for _, p := range partials {
		fmt.Fprintf(&b, "- %s\n", p)
	}
	b.WriteString("\nSummary:")

	summary, err := s.model.Complete(ctx, b.String())
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(summary), nil
}

func stripOverlap(ch *domain.Chunk) string {
	if ch.Overlap <= 0 {
		return ch.Content
	}
	runes := []rune(ch.Content)
	if ch.Overlap >= len(runes) {
		return ""
	}
	return string(runes[ch.Overlap:])
}
