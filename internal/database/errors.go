package database

import (
	"database/sql"
	"errors"

	"gorm.io/gorm"

	"growf/platform-backend/internal/apperrors"
)

// TranslateError maps gorm and database/sql sentinel errors onto the application taxonomy.
// entity names the row kind in NOT_FOUND and CONFLICT messages.
func TranslateError(err error, entity string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound), errors.Is(err, sql.ErrNoRows):
		return apperrors.NotFound(entity)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return apperrors.New(apperrors.CodeConflict, entity+" already exists", err)
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return apperrors.New(apperrors.CodeValidation, entity+" references a missing record", err)
	default:
		return apperrors.Internal(err)
	}
}
