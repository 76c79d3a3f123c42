package httpx

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"growf/platform-backend/internal/apperrors"
	"growf/platform-backend/pkg/pagination"
)

// UUIDParam parses a path parameter.
func UUIDParam(c *gin.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, apperrors.NewValidation("invalid "+name, map[string]string{name: "must be a uuid"})
	}
	return id, nil
}

// OptionalUUIDQuery parses an optional query parameter.
func OptionalUUIDQuery(c *gin.Context, name string) (*uuid.UUID, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, apperrors.NewValidation("invalid "+name, map[string]string{name: "must be a uuid"})
	}
	return &id, nil
}

// PageParams reads page and limit from the query string.
func PageParams(c *gin.Context) pagination.Params {
	return pagination.Params{
		Page:  IntQuery(c, "page", pagination.DefaultPage),
		Limit: IntQuery(c, "limit", pagination.DefaultLimit),
	}.Normalize()
}

// IntQuery gets an integer query parameter with a default value
func IntQuery(c *gin.Context, key string, defaultVal int) int {
	if val := c.Query(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

// StringQuery returns nil for an absent or blank parameter.
func StringQuery(c *gin.Context, key string) *string {
	v := strings.TrimSpace(c.Query(key))
	if v == "" {
		return nil
	}
	return &v
}

// BindJSON binds the body and converts binding failures to VALIDATION.
func BindJSON(c *gin.Context, dst any) error {
	if err := c.ShouldBindJSON(dst); err != nil {
		return apperrors.New(apperrors.CodeValidation, "invalid request body", err)
	}
	return nil
}
