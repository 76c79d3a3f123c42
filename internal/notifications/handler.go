package notifications

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"growf/platform-backend/internal/httpx"
	"growf/platform-backend/internal/notifications/websocket"
)

type Handler struct {
	service *Service
	hub     *websocket.Manager
	logger  *zap.Logger
	devMode bool
}

func NewHandler(service *Service, hub *websocket.Manager, logger *zap.Logger, devMode bool) *Handler {
	return &Handler{service: service, hub: hub, logger: logger, devMode: devMode}
}

// RegisterRoutes expects rg to be behind httpx.Authenticate.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	n := rg.Group("/notifications")
	{
		n.GET("", h.list)
		n.GET("/unread-count", h.unreadCount)
		n.PATCH("/read-all", h.markAllRead)
		n.PATCH("/:id/read", h.markRead)
		n.DELETE("/:id", h.delete)
		n.GET("/ws", h.connect)
	}
}

func (h *Handler) fail(c *gin.Context, msg string, err error) {
	h.logger.Warn(msg, zap.Error(err), zap.String("path", c.Request.URL.Path))
	httpx.Error(c, err, h.devMode)
}

func (h *Handler) list(c *gin.Context) {
	p, _ := httpx.PrincipalFrom(c)
	unreadOnly := c.Query("unread") == "true"
	page, err := h.service.List(c.Request.Context(), p.UserID, unreadOnly, httpx.PageParams(c))
	if err != nil {
		h.fail(c, "Failed to list notifications", err)
		return
	}
	httpx.Paged(c, http.StatusOK, page)
}

func (h *Handler) unreadCount(c *gin.Context) {
	p, _ := httpx.PrincipalFrom(c)
	count, err := h.service.UnreadCount(c.Request.Context(), p.UserID)
	if err != nil {
		h.fail(c, "Failed to count notifications", err)
		return
	}
	httpx.OK(c, http.StatusOK, UnreadCount{Count: count})
}

func (h *Handler) markRead(c *gin.Context) {
	id, err := httpx.UUIDParam(c, "id")
	if err != nil {
		httpx.Error(c, err, h.devMode)
		return
	}
	p, _ := httpx.PrincipalFrom(c)
	if err := h.service.MarkRead(c.Request.Context(), p.UserID, id); err != nil {
		h.fail(c, "Failed to mark notification as read", err)
		return
	}
	httpx.Message(c, http.StatusOK, "notification marked as read")
}

func (h *Handler) markAllRead(c *gin.Context) {
	p, _ := httpx.PrincipalFrom(c)
	updated, err := h.service.MarkAllRead(c.Request.Context(), p.UserID)
	if err != nil {
		h.fail(c, "Failed to mark notifications as read", err)
		return
	}
	httpx.OK(c, http.StatusOK, gin.H{"updated": updated})
}

func (h *Handler) delete(c *gin.Context) {
	id, err := httpx.UUIDParam(c, "id")
	if err != nil {
		httpx.Error(c, err, h.devMode)
		return
	}
	p, _ := httpx.PrincipalFrom(c)
	if err := h.service.Delete(c.Request.Context(), p.UserID, id); err != nil {
		h.fail(c, "Failed to delete notification", err)
		return
	}
	httpx.Message(c, http.StatusOK, "notification deleted")
}

func (h *Handler) connect(c *gin.Context) {
	p, _ := httpx.PrincipalFrom(c)
	if err := h.hub.Serve(c.Writer, c.Request, p.UserID); err != nil {
		// The upgrader has already written the HTTP error.
		h.logger.Warn("Failed to open websocket", zap.Error(err), zap.String("user_id", p.UserID.String()))
	}
}
