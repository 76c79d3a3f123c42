package database

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	"growf/platform-backend/internal/apperrors"
)

func TestTranslateError(t *testing.T) {
	assert.NoError(t, TranslateError(nil, "program"))

	notFound := TranslateError(fmt.Errorf("query: %w", gorm.ErrRecordNotFound), "program")
	assert.True(t, apperrors.Is(notFound, apperrors.CodeNotFound))
	assert.Equal(t, "program not found", notFound.Error())

	assert.True(t, apperrors.Is(TranslateError(sql.ErrNoRows, "document"), apperrors.CodeNotFound))

	dup := TranslateError(gorm.ErrDuplicatedKey, "application")
	assert.True(t, apperrors.Is(dup, apperrors.CodeConflict))

	fk := TranslateError(gorm.ErrForeignKeyViolated, "document")
	assert.True(t, apperrors.Is(fk, apperrors.CodeValidation))

	other := TranslateError(errors.New("connection reset"), "program")
	assert.True(t, apperrors.Is(other, apperrors.CodeInternal))
}
