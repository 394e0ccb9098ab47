package service

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/aurelia-labs/docq/internal/domain"
	"github.com/aurelia-labs/docq/internal/index"
	"github.com/aurelia-labs/docq/internal/telemetry"
)

const (
	// DefaultMaxSources is the source count at which confidence saturates.
	DefaultMaxSources = 3
	// DefaultMaxContextRunes bounds the combined size of context blocks in a
	// single prompt. Above it, chunks are condensed per-chunk before the
	// final answer pass.
	DefaultMaxContextRunes = 12000
)

const answerInstruction = "Use the following pieces of context to answer the question. " +
	"If the answer is not contained in the context, say that you don't know; do not make up an answer."

// LanguageModel defines the completion interface for answer synthesis
type LanguageModel interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// ChunkRetriever is the retrieval surface used by answer synthesis.
type ChunkRetriever interface {
	Retrieve(ctx context.Context, question, documentID string) ([]index.Result, error)
}

// AnswerService answers questions grounded in retrieved chunks.
type AnswerService struct {
	retriever       ChunkRetriever
	model           LanguageModel
	maxSources      int
	maxContextRunes int
}

// NewAnswerService creates a new AnswerService instance
func NewAnswerService(retriever ChunkRetriever, model LanguageModel, maxSources int) *AnswerService {
	if maxSources <= 0 {
		maxSources = DefaultMaxSources
	}
	return &AnswerService{
		retriever:       retriever,
		model:           model,
		maxSources:      maxSources,
		maxContextRunes: DefaultMaxContextRunes,
	}
}

// Ask retrieves context for the question, synthesizes an answer, and reports
// confidence as the number of distinct sources relative to the configured
// maximum, clamped to 1.0. Sources are listed in retrieval rank order.
func (s *AnswerService) Ask(ctx context.Context, question, documentID string) (*domain.AnswerResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "AnswerService.Ask", telemetry.SpanAttributes{
		DocumentID: documentID,
		Operation:  "ask",
	})
	defer span.End()

	question = strings.TrimSpace(question)
	if question == "" {
		return nil, domain.ErrEmptyQuestion
	}

	results, err := s.retriever.Retrieve(ctx, question, documentID)
	if err != nil {
		return nil, err
	}

	blocks := make([]string, len(results))
	total := 0
	for i, r := range results {
		blocks[i] = r.Content
		total += utf8.RuneCountInString(r.Content)
	}

	// Oversized context gets a map pass first: each chunk is condensed to
	// what matters for this question, then the condensed blocks feed the
	// normal answer prompt.
	if total > s.maxContextRunes {
		blocks, err = s.condense(ctx, question, results)
		if err != nil {
			return nil, err
		}
	}

	answer, err := s.model.Complete(ctx, buildAnswerPrompt(question, blocks))
	if err != nil {
		return nil, err
	}

	sources := distinctSources(results)
	confidence := float64(len(sources)) / float64(s.maxSources)
	if confidence > 1.0 {
		confidence = 1.0
	}

	return &domain.AnswerResult{
		Question:   question,
		Answer:     strings.TrimSpace(answer),
		Confidence: confidence,
		Sources:    sources,
	}, nil
}

func (s *AnswerService) condense(ctx context.Context, question string, results []index.Result) ([]string, error) {
	blocks := make([]string, len(results))
	for i, r := range results {
		prompt := fmt.Sprintf(
			"Condense the following passage to the information relevant to this question. "+
				"If nothing is relevant, reply with an empty response.\n\nQuestion: %s\n\nPassage:\n%s",
			question, r.Content)
		condensed, err := s.model.Complete(ctx, prompt)
		if err != nil {
			return nil, err
		}
		blocks[i] = strings.TrimSpace(condensed)
	}
	return blocks, nil
}

func buildAnswerPrompt(question string, blocks []string) string {
	var b strings.Builder
	b.WriteString(answerInstruction)
	b.WriteString("\n\nContext:\n")
	for i, block := range blocks {
		if block == "" {
			continue
		}
		fmt.Fprintf(&b, "[Source %d]\n%s\n\n", i+1, block)
	}
	fmt.Fprintf(&b, "Question: %s\nAnswer:", question)
	return b.String()
}

// distinctSources keeps the first occurrence of each (document, ordinal)
// pair, preserving rank order.
func distinctSources(results []index.Result) []domain.SourceRef {
	seen := make(map[domain.SourceRef]struct{}, len(results))
	sources := make([]domain.SourceRef, 0, len(results))
	for _, r := range results {
		ref := domain.SourceRef{DocumentID: r.DocumentID, ChunkOrdinal: r.Ordinal}
		if _, ok := seen[ref]; ok {
			continue
		}
		seen[ref] = struct{}{}
		sources = append(sources, ref)
	}
	return sources
}
