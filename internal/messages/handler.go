package messages

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

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
	rg.POST("/applications/:id/messages", h.send)
	rg.GET("/applications/:id/messages", h.list)
	rg.PATCH("/messages/:id/read", h.markRead)
}

func (h *Handler) fail(c *gin.Context, msg string, err error) {
	h.logger.Warn(msg, zap.Error(err), zap.String("path", c.Request.URL.Path))
	httpx.Error(c, err, h.devMode)
}

func (h *Handler) send(c *gin.Context) {
	applicationID, err := httpx.UUIDParam(c, "id")
	if err != nil {
		httpx.Error(c, err, h.devMode)
		return
	}
	var req SendRequest
	if err := httpx.BindJSON(c, &req); err != nil {
		httpx.Error(c, err, h.devMode)
		return
	}
	p, _ := httpx.PrincipalFrom(c)
	msg, err := h.service.Send(c.Request.Context(), p, applicationID, req)
	if err != nil {
		h.fail(c, "Failed to send message", err)
		return
	}
	httpx.OK(c, http.StatusCreated, msg)
}

func (h *Handler) list(c *gin.Context) {
	applicationID, err := httpx.UUIDParam(c, "id")
	if err != nil {
		httpx.Error(c, err, h.devMode)
		return
	}
	p, _ := httpx.PrincipalFrom(c)
	page, err := h.service.List(c.Request.Context(), p, applicationID, httpx.PageParams(c))
	if err != nil {
		h.fail(c, "Failed to list messages", err)
		return
	}
	httpx.Paged(c, http.StatusOK, page)
}

func (h *Handler) markRead(c *gin.Context) {
	id, err := httpx.UUIDParam(c, "id")
	if err != nil {
		httpx.Error(c, err, h.devMode)
		return
	}
	p, _ := httpx.PrincipalFrom(c)
	msg, err := h.service.MarkRead(c.Request.Context(), p, id)
	if err != nil {
		h.fail(c, "Failed to mark message as read", err)
		return
	}
	httpx.OK(c, http.StatusOK, msg)
}
