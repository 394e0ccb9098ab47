package domain

import (
	"fmt"
	"time"
)

// Document represents an ingested document. Content is immutable once the
// document is created; re-uploading produces a new Document.
type Document struct {
	ID         string
	OwnerID    string
	Title      string
	Content    string // normalized text
	Metadata   map[string]string
	ChunkCount int
	IndexKey   string // storage location of the index snapshot covering this document
	CreatedAt  time.Time
}

// NewDocument creates a new Document instance
func NewDocument(id, ownerID, title, content string, metadata map[string]string, createdAt time.Time) *Document {
	return &Document{
		ID:        id,
		OwnerID:   ownerID,
		Title:     title,
		Content:   content,
		Metadata:  metadata,
		CreatedAt: createdAt,
	}
}

// ValidateDocument validates a Document instance
func ValidateDocument(d *Document) error {
	if d == nil {
		return fmt.Errorf("document cannot be nil")
	}

	if d.ID == "" {
		return fmt.Errorf("document ID is required")
	}

	if d.OwnerID == "" {
		return fmt.Errorf("document OwnerID is required")
	}

	if d.Content == "" {
		return fmt.Errorf("document Content is required")
	}

	return nil
}
