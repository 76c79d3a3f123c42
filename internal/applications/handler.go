package applications

import (
	"bytes"
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

// RegisterRoutes expects rg to be behind httpx.Authenticate. createLimit,
// when non-nil, guards application creation.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, createLimit gin.HandlerFunc) {
	company := httpx.RequireRoles(h.devMode, identity.RoleCompany)
	reviewers := httpx.RequireRoles(h.devMode, identity.RoleOrganization, identity.RoleAdmin, identity.RoleSuperadmin)
	readers := httpx.RequireRoles(h.devMode, identity.RoleOrganization, identity.RoleAdmin, identity.RoleSuperadmin, identity.RoleAnalyst)

	create := []gin.HandlerFunc{company}
	if createLimit != nil {
		create = append(create, createLimit)
	}
	create = append(create, h.createApplication)

	apps := rg.Group("/applications")
	{
		apps.POST("", create...)
		apps.GET("", readers, h.listApplications)
		apps.GET("/me", company, h.listMine)
		apps.GET("/stats", h.stats)
		apps.GET("/:id", h.getApplication)
		apps.GET("/:id/history", h.history)
		apps.GET("/:id/dossier", h.dossier)
		apps.PUT("/:id", company, h.updateApplication)
		apps.DELETE("/:id", company, h.deleteApplication)
		apps.POST("/:id/submit", company, h.submit)
		apps.PATCH("/:id/status", reviewers, h.updateStatus)
		apps.POST("/:id/review", reviewers, h.review)
	}

	programs := rg.Group("/programs/:id/applications", readers)
	{
		programs.GET("", h.listByProgram)
		programs.GET("/export", h.export)
	}
}

func (h *Handler) fail(c *gin.Context, msg string, err error) {
	h.logger.Warn(msg, zap.Error(err), zap.String("path", c.Request.URL.Path))
	httpx.Error(c, err, h.devMode)
}

func filterFromQuery(c *gin.Context) (Filter, error) {
	filter := Filter{Search: httpx.StringQuery(c, "search")}
	if raw := httpx.StringQuery(c, "status"); raw != nil {
		status := Status(*raw)
		filter.Status = &status
	}
	programID, err := httpx.OptionalUUIDQuery(c, "programId")
	if err != nil {
		return Filter{}, err
	}
	filter.ProgramID = programID
	return filter, nil
}

func (h *Handler) createApplication(c *gin.Context) {
	var req CreateApplicationRequest
	if err := httpx.BindJSON(c, &req); err != nil {
		httpx.Error(c, err, h.devMode)
		return
	}
	p, _ := httpx.PrincipalFrom(c)
	app, err := h.service.Create(c.Request.Context(), p, req)
	if err != nil {
		h.fail(c, "Failed to create application", err)
		return
	}
	httpx.OK(c, http.StatusCreated, app)
}

func (h *Handler) listApplications(c *gin.Context) {
	filter, err := filterFromQuery(c)
	if err != nil {
		httpx.Error(c, err, h.devMode)
		return
	}
	p, _ := httpx.PrincipalFrom(c)
	page, err := h.service.List(c.Request.Context(), p, filter, httpx.PageParams(c))
	if err != nil {
		h.fail(c, "Failed to list applications", err)
		return
	}
	httpx.Paged(c, http.StatusOK, page)
}

func (h *Handler) listMine(c *gin.Context) {
	filter, err := filterFromQuery(c)
	if err != nil {
		httpx.Error(c, err, h.devMode)
		return
	}
	p, _ := httpx.PrincipalFrom(c)
	page, err := h.service.ListMine(c.Request.Context(), p, filter, httpx.PageParams(c))
	if err != nil {
		h.fail(c, "Failed to list own applications", err)
		return
	}
	httpx.Paged(c, http.StatusOK, page)
}

func (h *Handler) listByProgram(c *gin.Context) {
	programID, err := httpx.UUIDParam(c, "id")
	if err != nil {
		httpx.Error(c, err, h.devMode)
		return
	}
	filter, err := filterFromQuery(c)
	if err != nil {
		httpx.Error(c, err, h.devMode)
		return
	}
	p, _ := httpx.PrincipalFrom(c)
	page, err := h.service.ListByProgram(c.Request.Context(), p, programID, filter, httpx.PageParams(c))
	if err != nil {
		h.fail(c, "Failed to list program applications", err)
		return
	}
	httpx.Paged(c, http.StatusOK, page)
}

func (h *Handler) export(c *gin.Context) {
	programID, err := httpx.UUIDParam(c, "id")
	if err != nil {
		httpx.Error(c, err, h.devMode)
		return
	}
	format, err := ParseExportFormat(c.Query("format"))
	if err != nil {
		httpx.Error(c, err, h.devMode)
		return
	}
	p, _ := httpx.PrincipalFrom(c)
	var buf bytes.Buffer
	filename, err := h.service.Export(c.Request.Context(), p, programID, format, &buf)
	if err != nil {
		h.fail(c, "Failed to export applications", err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, format.ContentType(), buf.Bytes())
}

func (h *Handler) dossier(c *gin.Context) {
	id, err := httpx.UUIDParam(c, "id")
	if err != nil {
		httpx.Error(c, err, h.devMode)
		return
	}
	p, _ := httpx.PrincipalFrom(c)
	var buf bytes.Buffer
	filename, err := h.service.Dossier(c.Request.Context(), p, id, &buf)
	if err != nil {
		h.fail(c, "Failed to render application dossier", err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}

func (h *Handler) stats(c *gin.Context) {
	p, _ := httpx.PrincipalFrom(c)
	stats, err := h.service.Stats(c.Request.Context(), p)
	if err != nil {
		h.fail(c, "Failed to compute application stats", err)
		return
	}
	httpx.OK(c, http.StatusOK, stats)
}

func (h *Handler) getApplication(c *gin.Context) {
	id, err := httpx.UUIDParam(c, "id")
	if err != nil {
		httpx.Error(c, err, h.devMode)
		return
	}
	p, _ := httpx.PrincipalFrom(c)
	app, err := h.service.Get(c.Request.Context(), p, id)
	if err != nil {
		h.fail(c, "Failed to get application", err)
		return
	}
	httpx.OK(c, http.StatusOK, app)
}

func (h *Handler) history(c *gin.Context) {
	id, err := httpx.UUIDParam(c, "id")
	if err != nil {
		httpx.Error(c, err, h.devMode)
		return
	}
	p, _ := httpx.PrincipalFrom(c)
	changes, err := h.service.History(c.Request.Context(), p, id)
	if err != nil {
		h.fail(c, "Failed to get application history", err)
		return
	}
	httpx.OK(c, http.StatusOK, changes)
}

func (h *Handler) updateApplication(c *gin.Context) {
	id, err := httpx.UUIDParam(c, "id")
	if err != nil {
		httpx.Error(c, err, h.devMode)
		return
	}
	var req UpdateApplicationRequest
	if err := httpx.BindJSON(c, &req); err != nil {
		httpx.Error(c, err, h.devMode)
		return
	}
	p, _ := httpx.PrincipalFrom(c)
	app, err := h.service.Update(c.Request.Context(), p, id, req)
	if err != nil {
		h.fail(c, "Failed to update application", err)
		return
	}
	httpx.OK(c, http.StatusOK, app)
}

func (h *Handler) deleteApplication(c *gin.Context) {
	id, err := httpx.UUIDParam(c, "id")
	if err != nil {
		httpx.Error(c, err, h.devMode)
		return
	}
	p, _ := httpx.PrincipalFrom(c)
	if err := h.service.Delete(c.Request.Context(), p, id); err != nil {
		h.fail(c, "Failed to delete application", err)
		return
	}
	httpx.Message(c, http.StatusOK, "application deleted")
}

func (h *Handler) submit(c *gin.Context) {
	id, err := httpx.UUIDParam(c, "id")
	if err != nil {
		httpx.Error(c, err, h.devMode)
		return
	}
	p, _ := httpx.PrincipalFrom(c)
	app, err := h.service.Submit(c.Request.Context(), p, id)
	if err != nil {
		h.fail(c, "Failed to submit application", err)
		return
	}
	httpx.OK(c, http.StatusOK, app)
}

func (h *Handler) updateStatus(c *gin.Context) {
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
	app, err := h.service.UpdateStatus(c.Request.Context(), p, id, req)
	if err != nil {
		h.fail(c, "Failed to update application status", err)
		return
	}
	httpx.OK(c, http.StatusOK, app)
}

func (h *Handler) review(c *gin.Context) {
	id, err := httpx.UUIDParam(c, "id")
	if err != nil {
		httpx.Error(c, err, h.devMode)
		return
	}
	var req ReviewRequest
	if err := httpx.BindJSON(c, &req); err != nil {
		httpx.Error(c, err, h.devMode)
		return
	}
	p, _ := httpx.PrincipalFrom(c)
	app, err := h.service.Review(c.Request.Context(), p, id, req)
	if err != nil {
		h.fail(c, "Failed to review application", err)
		return
	}
	httpx.OK(c, http.StatusOK, app)
}
