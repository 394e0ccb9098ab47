package domain

import "fmt"

// SourceRef points at a chunk that contributed to an answer.
type SourceRef struct {
	DocumentID   string
	ChunkOrdinal int
}

// AnswerResult is the outcome of one question. It is transient: constructed
// per query and never persisted.
//
// Confidence is "source coverage": the retrieved-source count relative to the
// configured maximum expected source count, clamped to [0,1]. It is a
// heuristic proxy, not a model-calibrated probability.
type AnswerResult struct {
	Question   string
	Answer     string
	Confidence float64
	Sources    []SourceRef
}

// ValidateAnswerResult validates an AnswerResult instance
func ValidateAnswerResult(a *AnswerResult) error {
	if a == nil {
		return fmt.Errorf("answer result cannot be nil")
	}

	if a.Question == "" {
		return fmt.Errorf("answer result Question is required")
	}

	if a.Confidence < 0 || a.Confidence > 1 {
		return fmt.Errorf("answer result Confidence must be in [0,1], got %f", a.Confidence)
	}

	for i, s := range a.Sources {
		if s.DocumentID == "" {
			return fmt.Errorf("source %d missing DocumentID", i)
		}
		if s.ChunkOrdinal < 0 {
			return fmt.Errorf("source %d has negative ChunkOrdinal", i)
		}
	}

	return nil
}
