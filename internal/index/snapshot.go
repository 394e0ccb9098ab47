package index

import (
	"context"
	"encoding/json"
	"fmt"
)

// SnapshotStore persists serialized index snapshots at a named location.
// Implementations live in internal/storage (local file, S3).
type SnapshotStore interface {
	Save(ctx context.Context, name string, data []byte) error
	Load(ctx context.Context, name string) ([]byte, error)
}

type snapshotEntry struct {
	ChunkID    string    `json:"chunk_id"`
	DocumentID string    `json:"document_id"`
	Ordinal    int       `json:"ordinal"`
	Content    string    `json:"content"`
	Vector     []float32 `json:"vector"`
}

type snapshot struct {
	Version   int             `json:"version"`
	Dimension int             `json:"dimension"`
	Entries   []snapshotEntry `json:"entries"`
}

const snapshotVersion = 1

// Snapshot serializes the full entry set. Entry order in the snapshot is the
// insertion order, so a restored index reproduces identical search ordering
// for identical queries, ties included.
func (ix *Index) Snapshot() ([]byte, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	snap := snapshot{
		Version:   snapshotVersion,
		Dimension: ix.dimension,
		Entries:   make([]snapshotEntry, 0, len(ix.entries)),
	}
	for _, e := range ix.entries {
		snap.Entries = append(snap.Entries, snapshotEntry{
			ChunkID:    e.ChunkID,
			DocumentID: e.Metadata.DocumentID,
			Ordinal:    e.Metadata.Ordinal,
			Content:    e.Metadata.Content,
			Vector:     e.Vector,
		})
	}

	return json.Marshal(snap)
}

// Restore builds an Index from a serialized snapshot. The round-trip is
// lossless for vectors, content, and metadata.
func Restore(data []byte) (*Index, error) {
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to decode index snapshot: %w", err)
	}
	if snap.Version != snapshotVersion {
		return nil, fmt.Errorf("unsupported index snapshot version %d", snap.Version)
	}

	ix, err := New(snap.Dimension)
	if err != nil {
		return nil, err
	}
	for _, e := range snap.Entries {
		if err := ix.Insert(e.ChunkID, e.Vector, EntryMetadata{
			DocumentID: e.DocumentID,
			Ordinal:    e.Ordinal,
			Content:    e.Content,
		}); err != nil {
			return nil, err
		}
	}
	ix.dirty = false
	return ix, nil
}
