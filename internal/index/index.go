// Package index implements an in-memory vector index with brute-force cosine
// similarity search. Search cost is O(n*D) per query; the contract (descending
// score, insertion-order tie-break, cosine metric) is what callers and tests
// observe, so any replacement structure must preserve it.
package index

import (
	"math"
	"sort"
	"sync"

	"github.com/aurelia-labs/docq/internal/domain"
)

// EntryMetadata is the metadata snapshot stored alongside a vector at insert
// time and used at search time.
type EntryMetadata struct {
	DocumentID string
	Ordinal    int
	Content    string
}

// Entry associates a chunk id with its vector and metadata snapshot. Entries
// reference chunks, they do not own them; deleting a chunk must be reflected
// here or searches return dangling ids.
type Entry struct {
	ChunkID  string
	Vector   []float32
	Metadata EntryMetadata
}

// Result is one search hit. Content is the chunk text captured at insert
// time so callers can build prompts without a second lookup.
type Result struct {
	ChunkID    string
	DocumentID string
	Ordinal    int
	Content    string
	Score      float32
}

// Index maps chunk ids to vectors and supports k-nearest-neighbor search by
// cosine similarity. Safe for concurrent use: a search in flight observes
// either the pre- or post-insert state of a concurrent insert, never a
// partially written entry.
type Index struct {
	mu        sync.RWMutex
	dimension int
	entries   []Entry // insertion order; order is the tie-break for equal scores
	positions map[string]int
	dirty     bool
}

// New creates an Index for vectors of the given dimensionality.
func New(dimension int) (*Index, error) {
	if dimension <= 0 {
		return nil, domain.NewDomainError(domain.ErrCodeValidation, "index dimension must be greater than 0")
	}
	return &Index{
		dimension: dimension,
		positions: make(map[string]int),
	}, nil
}

// Dimension returns the fixed vector dimensionality.
func (ix *Index) Dimension() int {
	return ix.dimension
}

// Contains reports whether an entry exists for chunkID.
func (ix *Index) Contains(chunkID string) bool {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	_, ok := ix.positions[chunkID]
	return ok
}

// Len returns the number of entries, scoped to one document when documentID
// is non-empty.
func (ix *Index) Len(documentID string) int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	if documentID == "" {
		return len(ix.entries)
	}
	n := 0
	for i := range ix.entries {
		if ix.entries[i].Metadata.DocumentID == documentID {
			n++
		}
	}
	return n
}

// Insert adds one entry. The vector and its metadata become visible as one
// atomic unit. Inserting an existing chunk id replaces its entry in place,
// keeping its original insertion position.
func (ix *Index) Insert(chunkID string, vector []float32, meta EntryMetadata) error {
	if chunkID == "" {
		return domain.NewDomainError(domain.ErrCodeValidation, "chunk id is required")
	}
	if len(vector) != ix.dimension {
		return domain.ErrDimensionMismatch.
			WithContext("chunk_id", chunkID)
	}

	copied := make([]float32, len(vector))
	copy(copied, vector)
	entry := Entry{ChunkID: chunkID, Vector: copied, Metadata: meta}

	ix.mu.Lock()
	defer ix.mu.Unlock()

	if pos, ok := ix.positions[chunkID]; ok {
		ix.entries[pos] = entry
	} else {
		ix.positions[chunkID] = len(ix.entries)
		ix.entries = append(ix.entries, entry)
	}
	ix.dirty = true
	return nil
}

// Search returns up to k entries ordered by descending cosine similarity to
// the query vector. Equal scores rank by insertion order, earlier first. A
// non-empty documentID restricts the scan to that document's entries.
// Searching an empty index returns an empty slice.
func (ix *Index) Search(query []float32, k int, documentID string) ([]Result, error) {
	if k <= 0 {
		return nil, domain.ErrInvalidTopK
	}
	if len(query) != ix.dimension {
		return nil, domain.ErrDimensionMismatch
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	results := make([]Result, 0, len(ix.entries))
	for i := range ix.entries {
		e := &ix.entries[i]
		if documentID != "" && e.Metadata.DocumentID != documentID {
			continue
		}
		results = append(results, Result{
			ChunkID:    e.ChunkID,
			DocumentID: e.Metadata.DocumentID,
			Ordinal:    e.Metadata.Ordinal,
			Content:    e.Metadata.Content,
			Score:      cosineSimilarity(query, e.Vector),
		})
	}

	// Stable sort keeps insertion order for equal scores.
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// Delete removes the entry for chunkID. Absent ids are a no-op, not an error.
func (ix *Index) Delete(chunkID string) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	pos, ok := ix.positions[chunkID]
	if !ok {
		return
	}

	// Remove preserving the relative order of the remaining entries, since
	// that order is the search tie-break.
	ix.entries = append(ix.entries[:pos], ix.entries[pos+1:]...)
	delete(ix.positions, chunkID)
	for i := pos; i < len(ix.entries); i++ {
		ix.positions[ix.entries[i].ChunkID] = i
	}
	ix.dirty = true
}

// DeleteDocument removes every entry belonging to documentID.
func (ix *Index) DeleteDocument(documentID string) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	kept := ix.entries[:0]
	removed := false
	for _, e := range ix.entries {
		if e.Metadata.DocumentID == documentID {
			delete(ix.positions, e.ChunkID)
			removed = true
			continue
		}
		kept = append(kept, e)
	}
	if !removed {
		return
	}
	ix.entries = kept
	for i := range ix.entries {
		ix.positions[ix.entries[i].ChunkID] = i
	}
	ix.dirty = true
}

// Dirty reports whether the index changed since the last MarkClean.
func (ix *Index) Dirty() bool {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.dirty
}

// MarkClean clears the dirty flag after a successful snapshot persist.
func (ix *Index) MarkClean() {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.dirty = false
}

// MarkDirty sets the dirty flag. Callers that cleared the flag before a
// snapshot attempt use this to put the entries back in scope for the next
// attempt when persisting fails.
func (ix *Index) MarkDirty() {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.dirty = true
}

func cosineSimilarity(a, b []float32) float32 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}
