package programs

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"growf/platform-backend/internal/httpx"
	"growf/platform-backend/internal/identity"
)

type Handler struct {
	service *Service
	logger  *zap.Logger
	devMode bool
}

func NewHandler(service *Service, logger *zap.Logger, devMode bool) *Handler {
	return &Handler{service: service, logger: logger, devMode: devMode}
}

// RegisterPublicRoutes mounts the anonymous catalogue.
func (h *Handler) RegisterPublicRoutes(rg *gin.RouterGroup) {
	public := rg.Group("/programs/public")
	{
		public.GET("", h.listPublic)
		public.GET("/:id", h.getPublic)
	}
}

// RegisterRoutes expects rg to be behind httpx.Authenticate.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	managers := httpx.RequireRoles(h.devMode, identity.RoleOrganization, identity.RoleAdmin, identity.RoleSuperadmin)
	readers := httpx.RequireRoles(h.devMode, identity.RoleOrganization, identity.RoleAdmin, identity.RoleSuperadmin, identity.RoleAnalyst)

	programs := rg.Group("/programs")
	{
		programs.GET("", readers, h.listPrograms)
		programs.POST("", managers, h.createProgram)
		programs.GET("/:id", readers, h.getProgram)
		programs.PUT("/:id", managers, h.updateProgram)
		programs.PATCH("/:id/status", managers, h.setStatus)
		programs.POST("/:id/duplicate", managers, h.duplicateProgram)
		programs.DELETE("/:id", managers, h.deleteProgram)
	}
}

func (h *Handler) fail(c *gin.Context, msg string, err error) {
	h.logger.Warn(msg, zap.Error(err), zap.String("path", c.Request.URL.Path))
	httpx.Error(c, err, h.devMode)
}

func filterFromQuery(c *gin.Context) Filter {
	filter := Filter{
		Sector:   httpx.StringQuery(c, "sector"),
		Location: httpx.StringQuery(c, "location"),
		Search:   httpx.StringQuery(c, "search"),
	}
	if raw := httpx.StringQuery(c, "status"); raw != nil {
		status := Status(*raw)
		filter.Status = &status
	}
	return filter
}

func (h *Handler) listPublic(c *gin.Context) {
	page, err := h.service.ListPublic(c.Request.Context(), filterFromQuery(c), httpx.PageParams(c))
	if err != nil {
		h.fail(c, "Failed to list public programs", err)
		return
	}
	httpx.Paged(c, http.StatusOK, page)
}

func (h *Handler) getPublic(c *gin.Context) {
	id, err := httpx.UUIDParam(c, "id")
	if err != nil {
		httpx.Error(c, err, h.devMode)
		return
	}
	program, err := h.service.GetPublic(c.Request.Context(), id)
	if err != nil {
		h.fail(c, "Failed to get public program", err)
		return
	}
	httpx.OK(c, http.StatusOK, program)
}

func (h *Handler) listPrograms(c *gin.Context) {
	p, _ := httpx.PrincipalFrom(c)
	filter := filterFromQuery(c)
	orgID, err := httpx.OptionalUUIDQuery(c, "organizationId")
	if err != nil {
		httpx.Error(c, err, h.devMode)
		return
	}
	filter.OrganizationID = orgID

	page, err := h.service.List(c.Request.Context(), p, filter, httpx.PageParams(c))
	if err != nil {
		h.fail(c, "Failed to list programs", err)
		return
	}
	httpx.Paged(c, http.StatusOK, page)
}

func (h *Handler) createProgram(c *gin.Context) {
	var req CreateProgramRequest
	if err := httpx.BindJSON(c, &req); err != nil {
		httpx.Error(c, err, h.devMode)
		return
	}
	p, _ := httpx.PrincipalFrom(c)
	program, err := h.service.Create(c.Request.Context(), p, req)
	if err != nil {
		h.fail(c, "Failed to create program", err)
		return
	}
	httpx.OK(c, http.StatusCreated, program)
}

func (h *Handler) getProgram(c *gin.Context) {
	id, err := httpx.UUIDParam(c, "id")
	if err != nil {
		httpx.Error(c, err, h.devMode)
		return
	}
	p, _ := httpx.PrincipalFrom(c)
	program, err := h.service.GetFor(c.Request.Context(), p, id)
	if err != nil {
		h.fail(c, "Failed to get program", err)
		return
	}
	httpx.OK(c, http.StatusOK, program)
}

func (h *Handler) updateProgram(c *gin.Context) {
	id, err := httpx.UUIDParam(c, "id")
	if err != nil {
		httpx.Error(c, err, h.devMode)
		return
	}
	var req UpdateProgramRequest
	if err := httpx.BindJSON(c, &req); err != nil {
		httpx.Error(c, err, h.devMode)
		return
	}
	p, _ := httpx.PrincipalFrom(c)
	program, err := h.service.Update(c.Request.Context(), p, id, req)
	if err != nil {
		h.fail(c, "Failed to update program", err)
		return
	}
	httpx.OK(c, http.StatusOK, program)
}

func (h *Handler) setStatus(c *gin.Context) {
	id, err := httpx.UUIDParam(c, "id")
	if err != nil {
		httpx.Error(c, err, h.devMode)
		return
	}
	var req StatusRequest
	if err := httpx.BindJSON(c, &req); err != nil {
		httpx.Error(c, err, h.devMode)
		return
	}
	p, _ := httpx.PrincipalFrom(c)
	program, err := h.service.SetStatus(c.Request.Context(), p, id, req.Status)
	if err != nil {
		h.fail(c, "Failed to change program status", err)
		return
	}
	httpx.OK(c, http.StatusOK, program)
}

func (h *Handler) duplicateProgram(c *gin.Context) {
	id, err := httpx.UUIDParam(c, "id")
	if err != nil {
		httpx.Error(c, err, h.devMode)
		return
	}
	p, _ := httpx.PrincipalFrom(c)
	program, err := h.service.Duplicate(c.Request.Context(), p, id)
	if err != nil {
		h.fail(c, "Failed to duplicate program", err)
		return
	}
	httpx.OK(c, http.StatusCreated, program)
}

func (h *Handler) deleteProgram(c *gin.Context) {
	id, err := httpx.UUIDParam(c, "id")
	if err != nil {
		httpx.Error(c, err, h.devMode)
		return
	}
	p, _ := httpx.PrincipalFrom(c)
	if err := h.service.Delete(c.Request.Context(), p, id); err != nil {
		h.fail(c, "Failed to delete program", err)
		return
	}
	httpx.Message(c, http.StatusOK, "program deleted")
}
