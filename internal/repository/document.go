package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aurelia-labs/docq/internal/domain"
)

type DocumentRepository struct {
	db dbtx
}

func NewDocumentRepository(pool *pgxpool.Pool) *DocumentRepository {
	return &DocumentRepository{db: pool}
}

func NewDocumentRepositoryWithTx(tx pgx.Tx) *DocumentRepository {
	return &DocumentRepository{db: tx}
}

func (r *DocumentRepository) Create(ctx context.Context, doc *domain.Document) error {
	metadata := doc.Metadata
	if metadata == nil {
		metadata = map[string]string{}
	}
	_, err := r.db.Exec(ctx,
		`INSERT INTO documents (id, owner_id, title, content, metadata, chunk_count, index_key, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		doc.ID, doc.OwnerID, doc.Title, doc.Content, metadata, doc.ChunkCount, doc.IndexKey, doc.CreatedAt,
	)
	return err
}

func (r *DocumentRepository) GetByID(ctx context.Context, id string) (*domain.Document, error) {
	var d domain.Document
	err := r.db.QueryRow(ctx,
		`SELECT id, owner_id, title, content, metadata, chunk_count, index_key, created_at
		 FROM documents WHERE id = $1`,
		id,
	).Scan(&d.ID, &d.OwnerID, &d.Title, &d.Content, &d.Metadata, &d.ChunkCount, &d.IndexKey, &d.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrDocumentNotFound
		}
		return nil, err
	}
	return &d, nil
}

func (r *DocumentRepository) ListByOwner(ctx context.Context, ownerID string) ([]*domain.Document, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, owner_id, title, content, metadata, chunk_count, index_key, created_at
		 FROM documents WHERE owner_id = $1 ORDER BY created_at DESC`,
		ownerID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []*domain.Document
	for rows.Next() {
		var d domain.Document
		if err := rows.Scan(&d.ID, &d.OwnerID, &d.Title, &d.Content, &d.Metadata, &d.ChunkCount, &d.IndexKey, &d.CreatedAt); err != nil {
			return nil, err
		}
		docs = append(docs, &d)
	}
	return docs, rows.Err()
}

// Delete removes the document. Chunks go with it through the foreign key
// cascade. Deleting an absent id reports not found.
func (r *DocumentRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrDocumentNotFound
	}
	return nil
}
