package applications

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"growf/platform-backend/internal/apperrors"
	"growf/platform-backend/internal/identity"
	"growf/platform-backend/internal/notifications"
	"growf/platform-backend/internal/programs"
	"growf/platform-backend/pkg/pagination"
	"growf/platform-backend/pkg/workflows"
)

// ProgramReader loads the parent program of an application.
type ProgramReader interface {
	Get(ctx context.Context, id uuid.UUID) (*programs.Program, error)
}

// Notifier delivers workflow notifications.
type Notifier interface {
	Notify(ctx context.Context, in notifications.Input) (*notifications.Notification, error)
}

// Service holds the application lifecycle rules.
type Service struct {
	repo     Repository
	programs ProgramReader
	notifier Notifier
	machine  *workflows.StateMachine
	logger   *zap.Logger
	now      func() time.Time
}

func NewService(repo Repository, programs ProgramReader, notifier Notifier, strictTransitions bool, logger *zap.Logger) *Service {
	return &Service{
		repo:     repo,
		programs: programs,
		notifier: notifier,
		machine:  workflows.NewApplicationStateMachine(strictTransitions),
		logger:   logger,
		now:      time.Now,
	}
}

// Create opens a DRAFT application for the calling company.
func (s *Service) Create(ctx context.Context, p identity.Principal, req CreateApplicationRequest) (*Application, error) {
	if !p.HasRole(identity.RoleCompany) || p.CompanyID == nil {
		return nil, apperrors.Forbidden("only companies may apply to programs")
	}
	program, err := s.programs.Get(ctx, req.ProgramID)
	if err != nil {
		return nil, err
	}
	if !program.IsOpenForApplication(s.now()) {
		return nil, apperrors.InvalidState("program is not open for applications")
	}
	exists, err := s.repo.Exists(ctx, program.ID, *p.CompanyID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperrors.Conflict("an application already exists for this program")
	}

	app := &Application{
		ProgramID: program.ID,
		CompanyID: *p.CompanyID,
		Data:      req.Data,
		Status:    StatusDraft,
		Version:   1,
	}
	if err := s.repo.Create(ctx, app); err != nil {
		return nil, err
	}
	app.Program = program

	s.logger.Info("application created",
		zap.String("application_id", app.ID.String()),
		zap.String("program_id", program.ID.String()),
		zap.String("company_id", p.CompanyID.String()))
	return app, nil
}

// Get returns the application if p may view it.
func (s *Service) Get(ctx context.Context, p identity.Principal, id uuid.UUID) (*Application, error) {
	app, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanView(p, app) {
		return nil, apperrors.Forbidden("application belongs to another account")
	}
	return app, nil
}

func (s *Service) History(ctx context.Context, p identity.Principal, id uuid.UUID) ([]StatusChange, error) {
	if _, err := s.Get(ctx, p, id); err != nil {
		return nil, err
	}
	changes, err := s.repo.History(ctx, id)
	if err != nil {
		return nil, err
	}
	if changes == nil {
		changes = []StatusChange{}
	}
	return changes, nil
}

// Update replaces the form answers of a DRAFT application.
func (s *Service) Update(ctx context.Context, p identity.Principal, id uuid.UUID, req UpdateApplicationRequest) (*Application, error) {
	app, err := s.loadOwnedDraft(ctx, p, id)
	if err != nil {
		return nil, err
	}
	app.Data = req.Data
	if err := s.repo.Save(ctx, app, nil); err != nil {
		return nil, err
	}
	return app, nil
}

// Submit moves a DRAFT application to SUBMITTED while its program is open.
func (s *Service) Submit(ctx context.Context, p identity.Principal, id uuid.UUID) (*Application, error) {
	app, err := s.loadOwnedDraft(ctx, p, id)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if app.Program.DeadlinePassed(now) {
		return nil, apperrors.New(apperrors.CodeDeadlineExceeded, "the program deadline has passed", nil)
	}
	if app.Program.Status != programs.StatusPublished {
		return nil, apperrors.InvalidState("program is not open for applications")
	}

	err = s.transition(ctx, p, app, StatusSubmitted, "", func(at time.Time) {
		app.SubmittedAt = &at
	})
	if err != nil {
		return nil, err
	}

	if org := app.Program.Organization; org != nil {
		s.notify(ctx, notifications.Input{
			UserID: org.UserID,
			Type:   notifications.TypeApplicationSubmitted,
			Title:  "New application submitted",
			Body:   fmt.Sprintf("%s submitted an application to %s.", companyName(app), app.Program.Title),
			Data:   applicationData(app),
		})
	}
	return app, nil
}

// Delete removes a DRAFT application owned by the caller.
func (s *Service) Delete(ctx context.Context, p identity.Principal, id uuid.UUID) error {
	app, err := s.loadOwnedDraft(ctx, p, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, app); err != nil {
		return err
	}
	s.logger.Info("application deleted", zap.String("application_id", id.String()), zap.String("actor_id", p.UserID.String()))
	return nil
}

// UpdateStatus lets a reviewer set any status. reviewedAt is stamped every time.
func (s *Service) UpdateStatus(ctx context.Context, p identity.Principal, id uuid.UUID, req StatusRequest) (*Application, error) {
	if !req.Status.Valid() {
		return nil, apperrors.NewValidation("invalid status", map[string]string{"status": "unknown application status"})
	}
	app, err := s.loadForReview(ctx, p, id)
	if err != nil {
		return nil, err
	}
	err = s.transition(ctx, p, app, req.Status, req.Note, func(at time.Time) {
		app.ReviewedAt = &at
	})
	if err != nil {
		return nil, err
	}

	s.notifyCompany(ctx, app, notifications.TypeApplicationStatusChanged,
		"Application status updated",
		fmt.Sprintf("Your application to %s is now %s.", app.Program.Title, app.Status))
	return app, nil
}

// Review records a score and comments and moves the application to UNDER_REVIEW.
func (s *Service) Review(ctx context.Context, p identity.Principal, id uuid.UUID, req ReviewRequest) (*Application, error) {
	if req.Score != nil && (*req.Score < 0 || *req.Score > 100) {
		return nil, apperrors.NewValidation("invalid score", map[string]string{"score": "must be between 0 and 100"})
	}
	app, err := s.loadForReview(ctx, p, id)
	if err != nil {
		return nil, err
	}
	err = s.transition(ctx, p, app, StatusUnderReview, req.Comments, func(at time.Time) {
		app.ReviewedAt = &at
		app.Score = req.Score
		app.ReviewComments = req.Comments
	})
	if err != nil {
		return nil, err
	}

	s.notifyCompany(ctx, app, notifications.TypeApplicationReviewed,
		"Application under review",
		fmt.Sprintf("Your application to %s is being reviewed.", app.Program.Title))
	return app, nil
}

// ListMine returns the calling company's applications.
func (s *Service) ListMine(ctx context.Context, p identity.Principal, filter Filter, page pagination.Params) (pagination.Page[Application], error) {
	if !p.HasRole(identity.RoleCompany) || p.CompanyID == nil {
		return pagination.Page[Application]{}, apperrors.Forbidden("only companies have their own applications")
	}
	filter.CompanyID = p.CompanyID
	filter.OrganizationID = nil
	return s.list(ctx, filter, page)
}

// List applies the role scope: companies see their own, organizations see
// those on their programs, staff and analysts see all.
func (s *Service) List(ctx context.Context, p identity.Principal, filter Filter, page pagination.Params) (pagination.Page[Application], error) {
	scoped, err := scope(p, filter)
	if err != nil {
		return pagination.Page[Application]{}, err
	}
	return s.list(ctx, scoped, page)
}

func (s *Service) ListByProgram(ctx context.Context, p identity.Principal, programID uuid.UUID, filter Filter, page pagination.Params) (pagination.Page[Application], error) {
	if _, err := s.loadProgramForReading(ctx, p, programID); err != nil {
		return pagination.Page[Application]{}, err
	}
	filter.ProgramID = &programID
	filter.CompanyID = nil
	filter.OrganizationID = nil
	return s.list(ctx, filter, page)
}

func (s *Service) list(ctx context.Context, filter Filter, page pagination.Params) (pagination.Page[Application], error) {
	page = page.Normalize()
	apps, total, err := s.repo.List(ctx, filter, page)
	if err != nil {
		return pagination.Page[Application]{}, err
	}
	return pagination.NewPage(apps, page, total), nil
}

// Stats counts applications per status within the caller's scope.
func (s *Service) Stats(ctx context.Context, p identity.Principal) (*Stats, error) {
	filter, err := scope(p, Filter{})
	if err != nil {
		return nil, err
	}
	counts, err := s.repo.CountByStatus(ctx, filter)
	if err != nil {
		return nil, err
	}
	stats := &Stats{ByStatus: make(map[Status]int64, len(AllStatuses))}
	for _, status := range AllStatuses {
		stats.ByStatus[status] = counts[status]
		stats.Total += counts[status]
	}
	return stats, nil
}

// DraftsForPrograms returns DRAFT applications against the given programs.
func (s *Service) DraftsForPrograms(ctx context.Context, programIDs []uuid.UUID) ([]Application, error) {
	if len(programIDs) == 0 {
		return nil, nil
	}
	status := StatusDraft
	return s.repo.ListAll(ctx, Filter{ProgramIDs: programIDs, Status: &status})
}

func (s *Service) transition(ctx context.Context, p identity.Principal, app *Application, to Status, note string, stamp func(at time.Time)) error {
	from := app.Status
	if from != to && !s.machine.CanTransition(string(from), string(to)) {
		return apperrors.InvalidState(fmt.Sprintf("cannot move application from %s to %s", from, to))
	}

	now := s.now()
	app.Status = to
	stamp(now)

	var change *StatusChange
	if from != to {
		change = &StatusChange{
			ApplicationID: app.ID,
			FromStatus:    from,
			ToStatus:      to,
			ChangedBy:     p.UserID,
			Note:          note,
			ChangedAt:     now,
		}
	}
	if err := s.repo.Save(ctx, app, change); err != nil {
		return err
	}

	s.logger.Info("application status changed",
		zap.String("application_id", app.ID.String()),
		zap.String("from", string(from)),
		zap.String("to", string(to)),
		zap.String("actor_id", p.UserID.String()))
	return nil
}

func (s *Service) load(ctx context.Context, id uuid.UUID) (*Application, error) {
	app, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if app.Program == nil {
		program, err := s.programs.Get(ctx, app.ProgramID)
		if err != nil {
			return nil, err
		}
		app.Program = program
	}
	return app, nil
}

func (s *Service) loadOwnedDraft(ctx context.Context, p identity.Principal, id uuid.UUID) (*Application, error) {
	app, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !IsOwner(p, app) {
		return nil, apperrors.Forbidden("application belongs to another company")
	}
	if app.Status != StatusDraft {
		return nil, apperrors.InvalidState("only draft applications can be changed")
	}
	return app, nil
}

func (s *Service) loadForReview(ctx context.Context, p identity.Principal, id uuid.UUID) (*Application, error) {
	app, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !IsReviewer(p, app) {
		return nil, apperrors.Forbidden("only the program's organization or an administrator may review this application")
	}
	return app, nil
}

func (s *Service) loadProgramForReading(ctx context.Context, p identity.Principal, programID uuid.UUID) (*programs.Program, error) {
	program, err := s.programs.Get(ctx, programID)
	if err != nil {
		return nil, err
	}
	if !identity.CanManageProgram(p, program.OrganizationID) && !p.HasRole(identity.RoleAnalyst) {
		return nil, apperrors.Forbidden("program belongs to another organization")
	}
	return program, nil
}

func (s *Service) notifyCompany(ctx context.Context, app *Application, kind notifications.Type, title, body string) {
	if app.Company == nil {
		return
	}
	s.notify(ctx, notifications.Input{
		UserID: app.Company.UserID,
		Type:   kind,
		Title:  title,
		Body:   body,
		Data:   applicationData(app),
	})
}

func (s *Service) notify(ctx context.Context, in notifications.Input) {
	if s.notifier == nil {
		return
	}
	if _, err := s.notifier.Notify(ctx, in); err != nil {
		s.logger.Warn("Failed to record notification", zap.Error(err), zap.String("type", string(in.Type)))
	}
}

func scope(p identity.Principal, filter Filter) (Filter, error) {
	switch {
	case p.IsStaff() || p.HasRole(identity.RoleAnalyst):
	case p.HasRole(identity.RoleOrganization) && p.OrganizationID != nil:
		filter.OrganizationID = p.OrganizationID
		filter.CompanyID = nil
	case p.HasRole(identity.RoleCompany) && p.CompanyID != nil:
		filter.CompanyID = p.CompanyID
		filter.OrganizationID = nil
	default:
		return Filter{}, apperrors.Forbidden("no application scope for this account")
	}
	return filter, nil
}

func companyName(app *Application) string {
	if app.Company != nil && app.Company.Name != "" {
		return app.Company.Name
	}
	return "A company"
}

func applicationData(app *Application) map[string]any {
	return map[string]any{
		"applicationId": app.ID.String(),
		"programId":     app.ProgramID.String(),
		"status":        string(app.Status),
	}
}
