package programs

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"growf/platform-backend/internal/apperrors"
	"growf/platform-backend/internal/identity"
	"growf/platform-backend/internal/users"
	"growf/platform-backend/pkg/pagination"
	"growf/platform-backend/pkg/workflows"
)

// OrganizationLookup resolves the owner of a program created by an administrator.
type OrganizationLookup interface {
	GetOrganization(ctx context.Context, id uuid.UUID) (*users.Organization, error)
}

// Service holds the program lifecycle rules.
type Service struct {
	repo    Repository
	orgs    OrganizationLookup
	machine *workflows.StateMachine
	logger  *zap.Logger
	cache   *publicCache
	now     func() time.Time
}

func NewService(repo Repository, orgs OrganizationLookup, strictTransitions bool, logger *zap.Logger) *Service {
	return &Service{
		repo:    repo,
		orgs:    orgs,
		machine: workflows.NewProgramStateMachine(strictTransitions),
		logger:  logger,
		now:     time.Now,
	}
}

// Get loads a program without any visibility check. Used by collaborators
// that apply their own authorization.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Program, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Create(ctx context.Context, p identity.Principal, req CreateProgramRequest) (*Program, error) {
	var orgID uuid.UUID
	switch {
	case p.HasRole(identity.RoleOrganization) && p.OrganizationID != nil:
		orgID = *p.OrganizationID
	case p.IsStaff():
		if req.OrganizationID == nil {
			return nil, apperrors.NewValidation("organizationId is required", map[string]string{"organizationId": "required when creating as administrator"})
		}
		if _, err := s.orgs.GetOrganization(ctx, *req.OrganizationID); err != nil {
			return nil, err
		}
		orgID = *req.OrganizationID
	default:
		return nil, apperrors.Forbidden("only organizations may create programs")
	}

	if fields := validateCreate(req); len(fields) > 0 {
		return nil, apperrors.NewValidation("invalid program", fields)
	}

	program := &Program{
		OrganizationID:  orgID,
		Title:           strings.TrimSpace(req.Title),
		Description:     strings.TrimSpace(req.Description),
		Sector:          req.Sector,
		Location:        req.Location,
		CompanySize:     req.CompanySize,
		AmountMin:       req.AmountMin,
		AmountMax:       req.AmountMax,
		Deadline:        req.Deadline,
		Criteria:        req.Criteria,
		ApplicationForm: req.ApplicationForm,
		Status:          StatusDraft,
	}
	if err := s.repo.Create(ctx, program); err != nil {
		return nil, err
	}
	s.logger.Info("program created",
		zap.String("program_id", program.ID.String()),
		zap.String("organization_id", orgID.String()))
	return program, nil
}

// GetFor returns a program if p may see it. Owners, staff and analysts see
// every status; everyone else only sees programs open for application.
func (s *Service) GetFor(ctx context.Context, p identity.Principal, id uuid.UUID) (*Program, error) {
	program, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if identity.CanManageProgram(p, program.OrganizationID) || p.HasRole(identity.RoleAnalyst) {
		return program, nil
	}
	if !program.IsOpenForApplication(s.now()) {
		return nil, apperrors.NotFound("program")
	}
	return program, nil
}

// GetPublic hides anything not currently open. Openness is checked on every
// call, cached or not.
func (s *Service) GetPublic(ctx context.Context, id uuid.UUID) (*Program, error) {
	var program *Program
	if s.cache != nil {
		cached, err := s.cache.items.GetOrSet(id.String(), func() (Program, error) {
			p, err := s.repo.GetByID(ctx, id)
			if err != nil {
				return Program{}, err
			}
			return *p, nil
		})
		if err != nil {
			return nil, err
		}
		program = &cached
	} else {
		p, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		program = p
	}
	if !program.IsOpenForApplication(s.now()) {
		return nil, apperrors.NotFound("program")
	}
	return program, nil
}

// ListPublic returns open programs. With the cache on, a page may lag a
// deadline by at most the cache TTL.
func (s *Service) ListPublic(ctx context.Context, filter Filter, page pagination.Params) (pagination.Page[Program], error) {
	filter.OrganizationID = nil
	filter.Status = nil
	page = page.Normalize()
	if s.cache == nil {
		return s.listOpen(ctx, filter, page)
	}
	return s.cache.pages.GetOrSet(pageKey(filter, page), func() (pagination.Page[Program], error) {
		return s.listOpen(ctx, filter, page)
	})
}

func (s *Service) listOpen(ctx context.Context, filter Filter, page pagination.Params) (pagination.Page[Program], error) {
	now := s.now()
	filter.OpenAt = &now
	return s.list(ctx, filter, page)
}

// List scopes the query by role: organizations see their own programs,
// staff and analysts see all, companies see open programs only.
func (s *Service) List(ctx context.Context, p identity.Principal, filter Filter, page pagination.Params) (pagination.Page[Program], error) {
	switch {
	case p.IsStaff() || p.HasRole(identity.RoleAnalyst):
	case p.HasRole(identity.RoleOrganization) && p.OrganizationID != nil:
		filter.OrganizationID = p.OrganizationID
	default:
		return s.ListPublic(ctx, filter, page)
	}
	return s.list(ctx, filter, page)
}

func (s *Service) list(ctx context.Context, filter Filter, page pagination.Params) (pagination.Page[Program], error) {
	page = page.Normalize()
	programs, total, err := s.repo.List(ctx, filter, page)
	if err != nil {
		return pagination.Page[Program]{}, err
	}
	return pagination.NewPage(programs, page, total), nil
}

// ListDeadlineBetween returns published programs whose deadline falls in [from, to].
func (s *Service) ListDeadlineBetween(ctx context.Context, from, to time.Time) ([]Program, error) {
	status := StatusPublished
	filter := Filter{Status: &status, DeadlineFrom: &from, DeadlineTo: &to}
	var all []Program
	page := pagination.Params{Page: 1, Limit: pagination.MaxLimit}
	for {
		batch, total, err := s.repo.List(ctx, filter, page)
		if err != nil {
			return nil, err
		}
		all = append(all, batch...)
		if len(batch) == 0 || int64(len(all)) >= total {
			return all, nil
		}
		page.Page++
	}
}

func (s *Service) Update(ctx context.Context, p identity.Principal, id uuid.UUID, req UpdateProgramRequest) (*Program, error) {
	program, err := s.loadManaged(ctx, p, id)
	if err != nil {
		return nil, err
	}

	fields := map[string]string{}
	if req.Title != nil {
		if strings.TrimSpace(*req.Title) == "" {
			fields["title"] = "must not be empty"
		}
		program.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		if strings.TrimSpace(*req.Description) == "" {
			fields["description"] = "must not be empty"
		}
		program.Description = strings.TrimSpace(*req.Description)
	}
	if req.Sector != nil {
		if len(*req.Sector) == 0 {
			fields["sector"] = "at least one sector is required"
		}
		program.Sector = *req.Sector
	}
	if req.Location != nil {
		if len(*req.Location) == 0 {
			fields["location"] = "at least one location is required"
		}
		program.Location = *req.Location
	}
	if req.CompanySize != nil {
		if len(*req.CompanySize) == 0 {
			fields["companySize"] = "at least one company size is required"
		}
		program.CompanySize = *req.CompanySize
	}
	if req.ClearAmounts {
		program.AmountMin, program.AmountMax = nil, nil
	}
	if req.AmountMin != nil {
		program.AmountMin = req.AmountMin
	}
	if req.AmountMax != nil {
		program.AmountMax = req.AmountMax
	}
	validateAmounts(program.AmountMin, program.AmountMax, fields)
	if req.ClearDeadline {
		program.Deadline = nil
	}
	if req.Deadline != nil {
		program.Deadline = req.Deadline
	}
	if req.Criteria != nil {
		program.Criteria = *req.Criteria
	}
	if req.ApplicationForm != nil {
		program.ApplicationForm = *req.ApplicationForm
	}
	if len(fields) > 0 {
		return nil, apperrors.NewValidation("invalid program", fields)
	}

	if err := s.repo.Update(ctx, program); err != nil {
		return nil, err
	}
	s.invalidate(program.ID)
	return program, nil
}

// SetStatus moves a program to status. Any known transition is accepted
// unless strict transitions are configured.
func (s *Service) SetStatus(ctx context.Context, p identity.Principal, id uuid.UUID, status Status) (*Program, error) {
	if !status.Valid() {
		return nil, apperrors.NewValidation("invalid status", map[string]string{"status": "must be one of DRAFT, PUBLISHED, CLOSED, ARCHIVED"})
	}
	program, err := s.loadManaged(ctx, p, id)
	if err != nil {
		return nil, err
	}
	if program.Status == status {
		return program, nil
	}
	if !s.machine.CanTransition(string(program.Status), string(status)) {
		return nil, apperrors.InvalidState("cannot move program from " + string(program.Status) + " to " + string(status))
	}

	from := program.Status
	program.Status = status
	if err := s.repo.Update(ctx, program); err != nil {
		return nil, err
	}
	s.invalidate(program.ID)
	s.logger.Info("program status changed",
		zap.String("program_id", program.ID.String()),
		zap.String("from", string(from)),
		zap.String("to", string(status)),
		zap.String("actor_id", p.UserID.String()))
	return program, nil
}

// Duplicate copies a program into a new DRAFT titled "<title> (Copy)".
func (s *Service) Duplicate(ctx context.Context, p identity.Principal, id uuid.UUID) (*Program, error) {
	source, err := s.loadManaged(ctx, p, id)
	if err != nil {
		return nil, err
	}
	program := &Program{
		OrganizationID:  source.OrganizationID,
		Title:           source.Title + " (Copy)",
		Description:     source.Description,
		Sector:          append([]string(nil), source.Sector...),
		Location:        append([]string(nil), source.Location...),
		CompanySize:     append([]string(nil), source.CompanySize...),
		AmountMin:       source.AmountMin,
		AmountMax:       source.AmountMax,
		Deadline:        source.Deadline,
		Criteria:        source.Criteria,
		ApplicationForm: source.ApplicationForm,
		Status:          StatusDraft,
	}
	if err := s.repo.Create(ctx, program); err != nil {
		return nil, err
	}
	return program, nil
}

func (s *Service) Delete(ctx context.Context, p identity.Principal, id uuid.UUID) error {
	if _, err := s.loadManaged(ctx, p, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(id)
	s.logger.Info("program deleted", zap.String("program_id", id.String()), zap.String("actor_id", p.UserID.String()))
	return nil
}

func (s *Service) loadManaged(ctx context.Context, p identity.Principal, id uuid.UUID) (*Program, error) {
	program, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !identity.CanManageProgram(p, program.OrganizationID) {
		return nil, apperrors.Forbidden("program belongs to another organization")
	}
	return program, nil
}

func validateCreate(req CreateProgramRequest) map[string]string {
	fields := map[string]string{}
	if strings.TrimSpace(req.Title) == "" {
		fields["title"] = "required"
	}
	if strings.TrimSpace(req.Description) == "" {
		fields["description"] = "required"
	}
	if len(req.Sector) == 0 {
		fields["sector"] = "at least one sector is required"
	}
	if len(req.CompanySize) == 0 {
		fields["companySize"] = "at least one company size is required"
	}
	if len(req.Location) == 0 {
		fields["location"] = "at least one location is required"
	}
	validateAmounts(req.AmountMin, req.AmountMax, fields)
	return fields
}

func validateAmounts(lo, hi *float64, fields map[string]string) {
	if lo != nil && *lo < 0 {
		fields["amountMin"] = "must not be negative"
	}
	if hi != nil && *hi < 0 {
		fields["amountMax"] = "must not be negative"
	}
	if lo != nil && hi != nil && *lo > *hi {
		fields["amountMin"] = "must not exceed amountMax"
	}
}
