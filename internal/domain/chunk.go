package domain

import (
	"fmt"
	"strings"
	"time"
)

// Chunk represents a bounded contiguous slice of a document's normalized
// text. Ordinals within a document are contiguous starting at 0. Each chunk
// after the first carries the trailing Overlap characters of its predecessor,
// so concatenating chunk contents minus overlaps reconstructs the document.
type Chunk struct {
	ID         string
	DocumentID string
	Ordinal    int
	Content    string
	Overlap    int // characters shared with the previous chunk
	Embedding  []float32
	CreatedAt  time.Time
}

// ValidateChunk validates a Chunk instance
func ValidateChunk(c *Chunk) error {
	if c == nil {
		return fmt.Errorf("chunk cannot be nil")
	}

	if c.ID == "" {
		return fmt.Errorf("chunk ID is required")
	}

	if c.DocumentID == "" {
		return fmt.Errorf("chunk DocumentID is required")
	}

	if c.Ordinal < 0 {
		return fmt.Errorf("chunk Ordinal cannot be negative")
	}

	if c.Content == "" {
		return fmt.Errorf("chunk Content is required")
	}

	if c.Overlap < 0 {
		return fmt.Errorf("chunk Overlap cannot be negative")
	}

	if c.Ordinal == 0 && c.Overlap != 0 {
		return fmt.Errorf("first chunk cannot carry overlap")
	}

	return nil
}

// ValidateChunkSequence checks that chunk ordinals are contiguous from 0.
func ValidateChunkSequence(chunks []*Chunk) error {
	for i, c := range chunks {
		if c == nil {
			return fmt.Errorf("chunk %d is nil", i)
		}
		if c.Ordinal != i {
			return fmt.Errorf("chunk ordinals are not contiguous: expected %d, got %d", i, c.Ordinal)
		}
	}
	return nil
}

// ReassembleChunks concatenates chunk contents stripping per-chunk overlaps,
// reconstructing the normalized document text.
func ReassembleChunks(chunks []*Chunk) string {
	var b strings.Builder
	for _, c := range chunks {
		content := c.Content
		if c.Overlap > 0 {
			runes := []rune(content)
			if c.Overlap < len(runes) {
				content = string(runes[c.Overlap:])
			} else {
				content = ""
			}
		}
		b.WriteString(content)
	}
	return b.String()
}
