package users

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"growf/platform-backend/internal/apperrors"
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

func TestDeleteOrganizationWithUserCommitsBothDeletes(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRepository(db)
	org := &Organization{ID: uuid.New(), UserID: uuid.New()}

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "organizations"`).WithArgs(org.ID).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM "users"`).WithArgs(org.UserID).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.DeleteOrganizationWithUser(context.Background(), org)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteOrganizationWithUserRollsBackOnFailure(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRepository(db)
	org := &Organization{ID: uuid.New(), UserID: uuid.New()}

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "organizations"`).WithArgs(org.ID).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM "users"`).WithArgs(org.UserID).WillReturnError(errors.New("connection lost"))
	mock.ExpectRollback()

	err := repo.DeleteOrganizationWithUser(context.Background(), org)

	assert.True(t, apperrors.Is(err, apperrors.CodeInternal))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteCompanyWithUserRollsBackOnFailure(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRepository(db)
	company := &Company{ID: uuid.New(), UserID: uuid.New()}

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "companies"`).WithArgs(company.ID).WillReturnError(errors.New("lock timeout"))
	mock.ExpectRollback()

	err := repo.DeleteCompanyWithUser(context.Background(), company)

	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetOrganizationNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRepository(db)
	id := uuid.New()

	mock.ExpectQuery(`SELECT \* FROM "organizations"`).WillReturnRows(sqlmock.NewRows([]string{"id"}))

	org, err := repo.GetOrganization(context.Background(), id)

	assert.Nil(t, org)
	assert.True(t, apperrors.Is(err, apperrors.CodeNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}
