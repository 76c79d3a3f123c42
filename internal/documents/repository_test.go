package documents

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"growf/platform-backend/internal/apperrors"
)

func newMockRepo(t *testing.T) (Repository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewRepository(sqlx.NewDb(db, "postgres")), mock
}

func TestCreateDocument(t *testing.T) {
	repo, mock := newMockRepo(t)
	doc := &Document{
		ID:            uuid.New(),
		ApplicationID: uuid.New(),
		UploadedBy:    uuid.New(),
		Name:          "pitch.pdf",
		MimeType:      "application/pdf",
		Size:          42,
		StorageKey:    "applications/a/documents/b/pitch.pdf",
		CreatedAt:     time.Now(),
	}

	mock.ExpectExec(`INSERT INTO documents`).
		WithArgs(doc.ID, doc.ApplicationID, doc.UploadedBy, doc.Name, doc.MimeType, doc.Size, doc.StorageKey, doc.CreatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, repo.Create(context.Background(), doc))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetDocumentNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)
	id := uuid.New()

	mock.ExpectQuery(`SELECT .* FROM documents WHERE id = \$1`).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.GetByID(context.Background(), id)

	assert.True(t, apperrors.Is(err, apperrors.CodeNotFound))
}

func TestListDocumentsByApplication(t *testing.T) {
	repo, mock := newMockRepo(t)
	appID := uuid.New()
	cols := []string{"id", "application_id", "uploaded_by", "name", "mime_type", "size", "storage_key", "created_at"}

	mock.ExpectQuery(`SELECT .* FROM documents WHERE application_id = \$1 ORDER BY created_at ASC`).
		WithArgs(appID).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow(uuid.New().String(), appID.String(), uuid.New().String(), "a.pdf", "application/pdf", 10, "k1", time.Now()).
			AddRow(uuid.New().String(), appID.String(), uuid.New().String(), "b.pdf", "application/pdf", 20, "k2", time.Now()))

	docs, err := repo.ListByApplication(context.Background(), appID)

	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "b.pdf", docs[1].Name)
	assert.Equal(t, appID, docs[0].ApplicationID)
}

func TestDeleteMissingDocument(t *testing.T) {
	repo, mock := newMockRepo(t)
	id := uuid.New()

	mock.ExpectExec(`DELETE FROM documents WHERE id = \$1`).WithArgs(id).WillReturnResult(sqlmock.NewResult(0, 0))

	assert.True(t, apperrors.Is(repo.Delete(context.Background(), id), apperrors.CodeNotFound))
}
