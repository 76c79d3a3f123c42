package auth

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

func NewHandler(s *Service, logger *zap.Logger, devMode bool) *Handler {
	return &Handler{service: s, logger: logger, devMode: devMode}
}

// RegisterRoutes registers the public endpoints on public and /me on
// authenticated. loginLimit may be nil.
func (h *Handler) RegisterRoutes(public, authenticated *gin.RouterGroup, loginLimit gin.HandlerFunc) {
	group := public.Group("/auth")
	if loginLimit != nil {
		group.POST("/login", loginLimit, h.Login)
		group.POST("/register", loginLimit, h.Register)
	} else {
		group.POST("/login", h.Login)
		group.POST("/register", h.Register)
	}
	authenticated.GET("/auth/me", h.Me)
}

func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := httpx.BindJSON(c, &req); err != nil {
		httpx.Error(c, err, h.devMode)
		return
	}
	session, err := h.service.Register(c.Request.Context(), req)
	if err != nil {
		h.logger.Warn("Registration failed", zap.Error(err))
		httpx.Error(c, err, h.devMode)
		return
	}
	httpx.OK(c, http.StatusCreated, session)
}

func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := httpx.BindJSON(c, &req); err != nil {
		httpx.Error(c, err, h.devMode)
		return
	}
	session, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		if !apperrors.Is(err, apperrors.CodeUnauthorized) {
			h.logger.Error("Login failed", zap.Error(err))
		}
		httpx.Error(c, err, h.devMode)
		return
	}
	httpx.OK(c, http.StatusOK, session)
}

func (h *Handler) Me(c *gin.Context) {
	p, _ := httpx.PrincipalFrom(c)
	session, err := h.service.Me(c.Request.Context(), p.UserID)
	if err != nil {
		httpx.Error(c, err, h.devMode)
		return
	}
	httpx.OK(c, http.StatusOK, session)
}
