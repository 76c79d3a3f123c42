package messages

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"growf/platform-backend/internal/apperrors"
	"growf/platform-backend/pkg/pagination"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return db, mock
}

func TestListByApplicationOrdersOldestFirst(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRepository(db)
	appID := uuid.New()

	mock.ExpectQuery(`SELECT count\(\*\) FROM "messages" WHERE application_id = \$1`).
		WithArgs(appID).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectQuery(`SELECT \* FROM "messages" WHERE application_id = \$1 ORDER BY created_at ASC LIMIT \$2`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "application_id", "body", "created_at"}).
			AddRow(uuid.New(), appID, "first", time.Now().Add(-time.Hour)).
			AddRow(uuid.New(), appID, "second", time.Now()))

	msgs, total, err := repo.ListByApplication(context.Background(), appID, pagination.Params{Page: 1, Limit: 20})

	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, msgs, 2)
	assert.Equal(t, "first", msgs[0].Body)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetMissingMessage(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRepository(db)

	mock.ExpectQuery(`SELECT \* FROM "messages" WHERE id = \$1`).
		WillReturnError(gorm.ErrRecordNotFound)

	_, err := repo.GetByID(context.Background(), uuid.New())

	assert.Equal(t, apperrors.CodeNotFound, apperrors.CodeOf(err))
}
