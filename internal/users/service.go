package users

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"growf/platform-backend/internal/apperrors"
	"growf/platform-backend/internal/identity"
	"growf/platform-backend/pkg/pagination"
)

// Service manages organization and company profiles.
type Service struct {
	repo   Repository
	logger *zap.Logger
}

func NewService(repo Repository, logger *zap.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

func (s *Service) GetOrganization(ctx context.Context, p identity.Principal, id uuid.UUID) (*Organization, error) {
	org, err := s.repo.GetOrganization(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.IsStaff() && !p.HasRole(identity.RoleAnalyst) && !p.OwnsOrganization(id) {
		return nil, apperrors.Forbidden("organization belongs to another account")
	}
	return org, nil
}

func (s *Service) ListOrganizations(ctx context.Context, p identity.Principal, filter ListFilter, page pagination.Params) (pagination.Page[Organization], error) {
	if !p.IsStaff() && !p.HasRole(identity.RoleAnalyst) {
		return pagination.Page[Organization]{}, apperrors.Forbidden("only administrators may list organizations")
	}
	page = page.Normalize()
	orgs, total, err := s.repo.ListOrganizations(ctx, filter, page)
	if err != nil {
		return pagination.Page[Organization]{}, err
	}
	return pagination.NewPage(orgs, page, total), nil
}

func (s *Service) UpdateOrganization(ctx context.Context, p identity.Principal, id uuid.UUID, req UpdateOrganizationRequest) (*Organization, error) {
	org, err := s.repo.GetOrganization(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.IsStaff() && !p.OwnsOrganization(id) {
		return nil, apperrors.Forbidden("organization belongs to another account")
	}
	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			return nil, apperrors.NewValidation("name is required", map[string]string{"name": "must not be empty"})
		}
		org.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		org.Description = *req.Description
	}
	if req.Website != nil {
		org.Website = strings.TrimSpace(*req.Website)
	}
	if err := s.repo.UpdateOrganization(ctx, org); err != nil {
		return nil, err
	}
	return org, nil
}

// DeleteOrganization removes the organization and its login account together.
func (s *Service) DeleteOrganization(ctx context.Context, p identity.Principal, id uuid.UUID) error {
	if !p.IsStaff() {
		return apperrors.Forbidden("only administrators may delete organizations")
	}
	org, err := s.repo.GetOrganization(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteOrganizationWithUser(ctx, org); err != nil {
		return err
	}
	s.logger.Info("Organization deleted",
		zap.String("organization_id", id.String()),
		zap.String("deleted_by", p.UserID.String()))
	return nil
}

// GetCompany is open to reviewers so they can see who applied.
func (s *Service) GetCompany(ctx context.Context, p identity.Principal, id uuid.UUID) (*Company, error) {
	company, err := s.repo.GetCompany(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Role == identity.RoleCompany && !p.OwnsCompany(id) {
		return nil, apperrors.Forbidden("company belongs to another account")
	}
	return company, nil
}

func (s *Service) ListCompanies(ctx context.Context, p identity.Principal, filter ListFilter, page pagination.Params) (pagination.Page[Company], error) {
	if !p.IsStaff() && !p.HasRole(identity.RoleAnalyst) {
		return pagination.Page[Company]{}, apperrors.Forbidden("only administrators may list companies")
	}
	page = page.Normalize()
	companies, total, err := s.repo.ListCompanies(ctx, filter, page)
	if err != nil {
		return pagination.Page[Company]{}, err
	}
	return pagination.NewPage(companies, page, total), nil
}

func (s *Service) UpdateCompany(ctx context.Context, p identity.Principal, id uuid.UUID, req UpdateCompanyRequest) (*Company, error) {
	company, err := s.repo.GetCompany(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.IsStaff() && !p.OwnsCompany(id) {
		return nil, apperrors.Forbidden("company belongs to another account")
	}
	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			return nil, apperrors.NewValidation("name is required", map[string]string{"name": "must not be empty"})
		}
		company.Name = strings.TrimSpace(*req.Name)
	}
	if req.Sector != nil {
		company.Sector = *req.Sector
	}
	if req.Location != nil {
		company.Location = *req.Location
	}
	if req.Size != nil {
		company.Size = *req.Size
	}
	if req.Siret != nil {
		company.Siret = strings.ReplaceAll(*req.Siret, " ", "")
	}
	if err := s.repo.UpdateCompany(ctx, company); err != nil {
		return nil, err
	}
	return company, nil
}

// DeleteCompany removes the company and its login account together.
func (s *Service) DeleteCompany(ctx context.Context, p identity.Principal, id uuid.UUID) error {
	if !p.IsStaff() {
		return apperrors.Forbidden("only administrators may delete companies")
	}
	company, err := s.repo.GetCompany(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteCompanyWithUser(ctx, company); err != nil {
		return err
	}
	s.logger.Info("Company deleted",
		zap.String("company_id", id.String()),
		zap.String("deleted_by", p.UserID.String()))
	return nil
}
