package documents

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"growf/platform-backend/internal/apperrors"
	"growf/platform-backend/internal/httpx"
)

type Handler struct {
	service *Service
	logger  *zap.Logger
	devMode bool
}

func NewHandler(service *Service, logger *zap.Logger, devMode bool) *Handler {
	return &Handler{service: service, logger: logger, devMode: devMode}
}

// RegisterRoutes expects rg to be behind httpx.Authenticate.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/applications/:id/documents", h.Upload)
	rg.GET("/applications/:id/documents", h.List)

	docs := rg.Group("/documents")
	{
		docs.GET("/:id", h.Download)
		docs.DELETE("/:id", h.Delete)
	}
}

func (h *Handler) fail(c *gin.Context, msg string, err error) {
	h.logger.Warn(msg, zap.Error(err), zap.String("path", c.Request.URL.Path))
	httpx.Error(c, err, h.devMode)
}

func (h *Handler) Upload(c *gin.Context) {
	applicationID, err := httpx.UUIDParam(c, "id")
	if err != nil {
		httpx.Error(c, err, h.devMode)
		return
	}
	file, err := c.FormFile("file")
	if err != nil {
		httpx.Error(c, apperrors.NewValidation("file is required", map[string]string{"file": "multipart field is missing"}), h.devMode)
		return
	}
	f, err := file.Open()
	if err != nil {
		h.fail(c, "Failed to open upload", apperrors.Internal(err))
		return
	}
	defer f.Close()

	p, _ := httpx.PrincipalFrom(c)
	doc, err := h.service.Upload(c.Request.Context(), p, applicationID, UploadInput{
		Name:     file.Filename,
		MimeType: file.Header.Get("Content-Type"),
		Size:     file.Size,
		Body:     f,
	})
	if err != nil {
		h.fail(c, "Failed to upload document", err)
		return
	}
	httpx.OK(c, http.StatusCreated, doc)
}

func (h *Handler) List(c *gin.Context) {
	applicationID, err := httpx.UUIDParam(c, "id")
	if err != nil {
		httpx.Error(c, err, h.devMode)
		return
	}
	p, _ := httpx.PrincipalFrom(c)
	docs, err := h.service.List(c.Request.Context(), p, applicationID)
	if err != nil {
		h.fail(c, "Failed to list documents", err)
		return
	}
	httpx.OK(c, http.StatusOK, docs)
}

func (h *Handler) Download(c *gin.Context) {
	id, err := httpx.UUIDParam(c, "id")
	if err != nil {
		httpx.Error(c, err, h.devMode)
		return
	}
	p, _ := httpx.PrincipalFrom(c)
	link, err := h.service.DownloadURL(c.Request.Context(), p, id)
	if err != nil {
		h.fail(c, "Failed to sign document download", err)
		return
	}
	if c.Query("redirect") == "true" {
		c.Redirect(http.StatusFound, link.URL)
		return
	}
	httpx.OK(c, http.StatusOK, link)
}

func (h *Handler) Delete(c *gin.Context) {
	id, err := httpx.UUIDParam(c, "id")
	if err != nil {
		httpx.Error(c, err, h.devMode)
		return
	}
	p, _ := httpx.PrincipalFrom(c)
	if err := h.service.Delete(c.Request.Context(), p, id); err != nil {
		h.fail(c, "Failed to delete document", err)
		return
	}
	httpx.Message(c, http.StatusOK, "document deleted")
}
