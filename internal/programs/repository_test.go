package programs

import (
	"context"
	"testing"

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

func TestListAppliesFiltersAndPaging(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRepository(db)
	orgID := uuid.New()
	sector := "energy"
	search := "Green"

	mock.ExpectQuery(`SELECT count\(\*\) FROM "programs" WHERE organization_id = \$1 AND sector && \$2 AND \(lower\(title\) LIKE \$3 OR lower\(description\) LIKE \$4\)`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(23))
	mock.ExpectQuery(`SELECT \* FROM "programs" WHERE .* ORDER BY created_at DESC LIMIT \$5 OFFSET \$6`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "organization_id", "title"}).
			AddRow(uuid.New(), orgID, "Green Tech").
			AddRow(uuid.New(), orgID, "Green Build").
			AddRow(uuid.New(), orgID, "Green Water"))

	programs, total, err := repo.List(context.Background(), Filter{
		OrganizationID: &orgID,
		Sector:         &sector,
		Search:         &search,
	}, pagination.Params{Page: 3, Limit: 10})

	require.NoError(t, err)
	assert.Equal(t, int64(23), total)
	assert.Len(t, programs, 3)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteMissingProgram(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRepository(db)
	id := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "programs" WHERE id = \$1`).WithArgs(id).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err := repo.Delete(context.Background(), id)

	assert.True(t, apperrors.Is(err, apperrors.CodeNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}
