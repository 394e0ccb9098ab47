package domain

import (
	"errors"
	"fmt"
)

// DomainError represents a domain-specific error
type DomainError struct {
	Code    string
	Message string
	Context map[string]string
	Err     error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *DomainError) Unwrap() error {
	return e.Err
}

// WithContext returns a copy of the error carrying an additional context entry.
// Context is structured detail for rendering user-facing messages; it must not
// contain prompts or provider credentials.
func (e *DomainError) WithContext(key, value string) *DomainError {
	ctx := make(map[string]string, len(e.Context)+1)
	for k, v := range e.Context {
		ctx[k] = v
	}
	ctx[key] = value
	return &DomainError{Code: e.Code, Message: e.Message, Context: ctx, Err: e.Err}
}

// IsErrorCode reports whether err is a DomainError with the given code.
func IsErrorCode(err error, code string) bool {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// NewDomainError creates a new DomainError
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     nil,
	}
}

// NewDomainErrorWithCause creates a new DomainError with an underlying cause
func NewDomainErrorWithCause(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common domain error codes
const (
	ErrCodeValidation        = "VALIDATION_ERROR"
	ErrCodeNotFound          = "NOT_FOUND"
	ErrCodeUnauthorized      = "UNAUTHORIZED"
	ErrCodeEmbeddingProvider = "EMBEDDING_PROVIDER_ERROR"
	ErrCodeAnswerSynthesis   = "ANSWER_SYNTHESIS_ERROR"
	ErrCodeDimensionMismatch = "DIMENSION_MISMATCH"
	ErrCodeNoRelevantContent = "NO_RELEVANT_CONTENT"
	ErrCodeInternalError     = "INTERNAL_ERROR"
)

// Validation errors
var (
	ErrEmptyContent         = NewDomainError(ErrCodeValidation, "document content cannot be empty")
	ErrEmptyQuestion        = NewDomainError(ErrCodeValidation, "question cannot be empty")
	ErrEmptyEmbeddingInput  = NewDomainError(ErrCodeValidation, "embedding input cannot be empty")
	ErrInvalidEncoding      = NewDomainError(ErrCodeValidation, "text is not valid UTF-8")
	ErrInvalidChunkSize     = NewDomainError(ErrCodeValidation, "chunk size must be greater than 0")
	ErrInvalidChunkOverlap  = NewDomainError(ErrCodeValidation, "chunk overlap must be non-negative and smaller than chunk size")
	ErrInvalidTopK          = NewDomainError(ErrCodeValidation, "top_k must be greater than 0")
	ErrMissingRequiredField = NewDomainError(ErrCodeValidation, "missing required field")
)

// Not found errors
var (
	ErrDocumentNotFound = NewDomainError(ErrCodeNotFound, "document not found")
	ErrChunkNotFound    = NewDomainError(ErrCodeNotFound, "chunk not found")
)

// Provider errors. Transient provider failures are retried at the client
// layer; these surface only after retries are exhausted.
var (
	ErrEmbeddingProvider = NewDomainError(ErrCodeEmbeddingProvider, "embedding provider request failed")
	ErrAnswerSynthesis   = NewDomainError(ErrCodeAnswerSynthesis, "language model request failed")
)

// ErrDimensionMismatch indicates a vector whose dimensionality does not match
// the index. This is configuration or data corruption and is never
// auto-corrected.
var ErrDimensionMismatch = NewDomainError(ErrCodeDimensionMismatch, "vector dimensionality does not match index")

// ErrNoRelevantContent is returned when a query targets an empty corpus or an
// empty filtered subset. It is expected and user-facing, not a server fault.
var ErrNoRelevantContent = NewDomainError(ErrCodeNoRelevantContent, "no content available to answer from")

// Authorization errors
var (
	ErrInvalidToken = NewDomainError(ErrCodeUnauthorized, "invalid api token")
	ErrNotOwner     = NewDomainError(ErrCodeUnauthorized, "document belongs to a different owner")
)
