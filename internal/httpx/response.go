package httpx

import (
	"errors"

	"github.com/gin-gonic/gin"

	"growf/platform-backend/internal/apperrors"
	"growf/platform-backend/pkg/pagination"
)

// Envelope is the body of every API response.
type Envelope struct {
	Success    bool              `json:"success"`
	Data       any               `json:"data,omitempty"`
	Message    string            `json:"message,omitempty"`
	Error      string            `json:"error,omitempty"`
	Fields     map[string]string `json:"fields,omitempty"`
	Pagination *pagination.Meta  `json:"pagination,omitempty"`
}

// OK writes a success envelope.
func OK(c *gin.Context, status int, data any) {
	c.JSON(status, Envelope{Success: true, Data: data})
}

// Message writes a success envelope with only a message.
func Message(c *gin.Context, status int, message string) {
	c.JSON(status, Envelope{Success: true, Message: message})
}

// Paged writes a list envelope with its pagination block.
func Paged[T any](c *gin.Context, status int, page pagination.Page[T]) {
	meta := page.Pagination
	c.JSON(status, Envelope{Success: true, Data: page.Items, Pagination: &meta})
}

// Error maps err to its status code. Internal messages are only exposed in
// development.
func Error(c *gin.Context, err error, devMode bool) {
	code := apperrors.CodeOf(err)
	status := apperrors.HTTPStatus(code)

	body := Envelope{Success: false, Error: string(code)}
	var appErr *apperrors.Error
	switch {
	case code == apperrors.CodeInternal && !devMode:
		body.Message = "internal server error"
	case errors.As(err, &appErr):
		body.Message = appErr.Message
		body.Fields = appErr.Fields
		if code == apperrors.CodeInternal && appErr.Err != nil {
			body.Message = appErr.Error()
		}
	default:
		body.Message = err.Error()
	}
	c.AbortWithStatusJSON(status, body)
}
