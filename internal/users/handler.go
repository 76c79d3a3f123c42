package users

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

// RegisterRoutes expects rg to be behind httpx.Authenticate.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	staff := httpx.RequireRoles(h.devMode, identity.RoleAdmin, identity.RoleSuperadmin)
	staffOrAnalyst := httpx.RequireRoles(h.devMode, identity.RoleAdmin, identity.RoleSuperadmin, identity.RoleAnalyst)

	orgs := rg.Group("/organizations")
	{
		orgs.GET("", staffOrAnalyst, h.listOrganizations)
		orgs.GET("/:id", h.getOrganization)
		orgs.PUT("/:id", h.updateOrganization)
		orgs.DELETE("/:id", staff, h.deleteOrganization)
	}

	companies := rg.Group("/companies")
	{
		companies.GET("", staffOrAnalyst, h.listCompanies)
		companies.GET("/:id", h.getCompany)
		companies.PUT("/:id", h.updateCompany)
		companies.DELETE("/:id", staff, h.deleteCompany)
	}
}

func (h *Handler) fail(c *gin.Context, msg string, err error) {
	h.logger.Warn(msg, zap.Error(err), zap.String("path", c.Request.URL.Path))
	httpx.Error(c, err, h.devMode)
}

func (h *Handler) listOrganizations(c *gin.Context) {
	p, _ := httpx.PrincipalFrom(c)
	page, err := h.service.ListOrganizations(c.Request.Context(), p, ListFilter{Search: httpx.StringQuery(c, "search")}, httpx.PageParams(c))
	if err != nil {
		h.fail(c, "Failed to list organizations", err)
		return
	}
	httpx.Paged(c, http.StatusOK, page)
}

func (h *Handler) getOrganization(c *gin.Context) {
	id, err := httpx.UUIDParam(c, "id")
	if err != nil {
		httpx.Error(c, err, h.devMode)
		return
	}
	p, _ := httpx.PrincipalFrom(c)
	org, err := h.service.GetOrganization(c.Request.Context(), p, id)
	if err != nil {
		h.fail(c, "Failed to get organization", err)
		return
	}
	httpx.OK(c, http.StatusOK, org)
}

func (h *Handler) updateOrganization(c *gin.Context) {
	id, err := httpx.UUIDParam(c, "id")
	if err != nil {
		httpx.Error(c, err, h.devMode)
		return
	}
	var req UpdateOrganizationRequest
	if err := httpx.BindJSON(c, &req); err != nil {
		httpx.Error(c, err, h.devMode)
		return
	}
	p, _ := httpx.PrincipalFrom(c)
	org, err := h.service.UpdateOrganization(c.Request.Context(), p, id, req)
	if err != nil {
		h.fail(c, "Failed to update organization", err)
		return
	}
	httpx.OK(c, http.StatusOK, org)
}

func (h *Handler) deleteOrganization(c *gin.Context) {
	id, err := httpx.UUIDParam(c, "id")
	if err != nil {
		httpx.Error(c, err, h.devMode)
		return
	}
	p, _ := httpx.PrincipalFrom(c)
	if err := h.service.DeleteOrganization(c.Request.Context(), p, id); err != nil {
		h.fail(c, "Failed to delete organization", err)
		return
	}
	httpx.Message(c, http.StatusOK, "organization deleted")
}

func (h *Handler) listCompanies(c *gin.Context) {
	p, _ := httpx.PrincipalFrom(c)
	page, err := h.service.ListCompanies(c.Request.Context(), p, ListFilter{Search: httpx.StringQuery(c, "search")}, httpx.PageParams(c))
	if err != nil {
		h.fail(c, "Failed to list companies", err)
		return
	}
	httpx.Paged(c, http.StatusOK, page)
}

func (h *Handler) getCompany(c *gin.Context) {
	id, err := httpx.UUIDParam(c, "id")
	if err != nil {
		httpx.Error(c, err, h.devMode)
		return
	}
	p, _ := httpx.PrincipalFrom(c)
	company, err := h.service.GetCompany(c.Request.Context(), p, id)
	if err != nil {
		h.fail(c, "Failed to get company", err)
		return
	}
	httpx.OK(c, http.StatusOK, company)
}

func (h *Handler) updateCompany(c *gin.Context) {
	id, err := httpx.UUIDParam(c, "id")
	if err != nil {
		httpx.Error(c, err, h.devMode)
		return
	}
	var req UpdateCompanyRequest
	if err := httpx.BindJSON(c, &req); err != nil {
		httpx.Error(c, err, h.devMode)
		return
	}
	p, _ := httpx.PrincipalFrom(c)
	company, err := h.service.UpdateCompany(c.Request.Context(), p, id, req)
	if err != nil {
		h.fail(c, "Failed to update company", err)
		return
	}
	httpx.OK(c, http.StatusOK, company)
}

func (h *Handler) deleteCompany(c *gin.Context) {
	id, err := httpx.UUIDParam(c, "id")
	if err != nil {
		httpx.Error(c, err, h.devMode)
		return
	}
	p, _ := httpx.PrincipalFrom(c)
	if err := h.service.DeleteCompany(c.Request.Context(), p, id); err != nil {
		h.fail(c, "Failed to delete company", err)
		return
	}
	httpx.Message(c, http.StatusOK, "company deleted")
}
