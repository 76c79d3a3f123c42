package documents

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"growf/platform-backend/internal/apperrors"
	"growf/platform-backend/internal/database"
)

type Repository interface {
	Create(ctx context.Context, doc *Document) error
	GetByID(ctx context.Context, id uuid.UUID) (*Document, error)
	ListByApplication(ctx context.Context, applicationID uuid.UUID) ([]Document, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type postgresRepository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) Create(ctx context.Context, doc *Document) error {
	query := `
		INSERT INTO documents (
			id, application_id, uploaded_by, name, mime_type, size, storage_key, created_at
		) VALUES (
			:id, :application_id, :uploaded_by, :name, :mime_type, :size, :storage_key, :created_at
		)`
	_, err := r.db.NamedExecContext(ctx, query, doc)
	return database.TranslateError(err, "document")
}

func (r *postgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Document, error) {
	var doc Document
	err := r.db.GetContext(ctx, &doc, `
		SELECT id, application_id, uploaded_by, name, mime_type, size, storage_key, created_at
		FROM documents WHERE id = $1`, id)
	if err != nil {
		return nil, database.TranslateError(err, "document")
	}
	return &doc, nil
}

func (r *postgresRepository) ListByApplication(ctx context.Context, applicationID uuid.UUID) ([]Document, error) {
	docs := []Document{}
	err := r.db.SelectContext(ctx, &docs, `
		SELECT id, application_id, uploaded_by, name, mime_type, size, storage_key, created_at
		FROM documents WHERE application_id = $1 ORDER BY created_at ASC`, applicationID)
	if err != nil {
		return nil, database.TranslateError(err, "document")
	}
	return docs, nil
}

func (r *postgresRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM documents WHERE id = $1", id)
	if err != nil {
		return database.TranslateError(err, "document")
	}
	n, err := result.RowsAffected()
	if err != nil {
		return database.TranslateError(err, "document")
	}
	if n == 0 {
		return apperrors.NotFound("document")
	}
	return nil
}
