package jobs

import (
	"context"
	"fmt"
	"log"
)

// SnapshotIndex is the index surface the snapshot processor needs.
type SnapshotIndex interface {
	Dirty() bool
	MarkClean()
	MarkDirty()
	Snapshot() ([]byte, error)
}

// SnapshotStore persists index snapshots by key.
type SnapshotStore interface {
	Save(ctx context.Context, name string, data []byte) error
}

// SnapshotProcessor persists the vector index whenever it has changed since
// the last snapshot. It runs under the polling Worker.
type SnapshotProcessor struct {
	index SnapshotIndex
	store SnapshotStore
	key   string
}

// NewSnapshotProcessor creates a new SnapshotProcessor instance
func NewSnapshotProcessor(index SnapshotIndex, store SnapshotStore, key string) *SnapshotProcessor {
	return &SnapshotProcessor{index: index, store: store, key: key}
}

// ProcessJobs writes a snapshot if the index is dirty. The dirty flag is
// cleared before serializing; an insert racing the snapshot re-marks the
// index and is picked up on the next tick. On failure the flag is set again
// so the next tick retries instead of treating the unsaved state as
// persisted.
func (p *SnapshotProcessor) ProcessJobs(ctx context.Context) error {
	if !p.index.Dirty() {
		return nil
	}

	p.index.MarkClean()

	data, err := p.index.Snapshot()
	if err != nil {
		p.index.MarkDirty()
		return fmt.Errorf("failed to serialize index snapshot: %w", err)
	}

	if err := p.store.Save(ctx, p.key, data); err != nil {
		p.index.MarkDirty()
		return fmt.Errorf("failed to persist index snapshot: %w", err)
	}

	log.Printf("index snapshot persisted: key=%s bytes=%d", p.key, len(data))
	return nil
}
