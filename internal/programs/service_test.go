package programs

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"growf/platform-backend/internal/apperrors"
	"growf/platform-backend/internal/identity"
	"growf/platform-backend/internal/users"
	"growf/platform-backend/pkg/pagination"
)

// MockRepository is a mock implementation of the Repository interface
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Create(ctx context.Context, program *Program) error {
	args := m.Called(ctx, program)
	return args.Error(0)
}

func (m *MockRepository) GetByID(ctx context.Context, id uuid.UUID) (*Program, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Program), args.Error(1)
}

func (m *MockRepository) Update(ctx context.Context, program *Program) error {
	args := m.Called(ctx, program)
	return args.Error(0)
}

func (m *MockRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockRepository) List(ctx context.Context, filter Filter, page pagination.Params) ([]Program, int64, error) {
	args := m.Called(ctx, filter, page)
	return args.Get(0).([]Program), args.Get(1).(int64), args.Error(2)
}

type mockOrgs struct {
	mock.Mock
}

func (m *mockOrgs) GetOrganization(ctx context.Context, id uuid.UUID) (*users.Organization, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*users.Organization), args.Error(1)
}

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestService(repo *MockRepository, strict bool) *Service {
	svc := NewService(repo, &mockOrgs{}, strict, zap.NewNop())
	svc.now = func() time.Time { return fixedNow }
	return svc
}

func orgPrincipal(orgID uuid.UUID) identity.Principal {
	return identity.Principal{UserID: uuid.New(), Role: identity.RoleOrganization, OrganizationID: &orgID}
}

func validCreate() CreateProgramRequest {
	return CreateProgramRequest{
		Title:       "Green Tech Grant",
		Description: "Funding for clean energy startups",
		Sector:      []string{"energy"},
		Location:    []string{"Occitanie"},
		CompanySize: []string{"SMALL"},
	}
}

func ptr[T any](v T) *T { return &v }

func TestIsOpenForApplication(t *testing.T) {
	past := fixedNow.Add(-time.Hour)
	future := fixedNow.Add(time.Hour)

	assert.True(t, IsOpenForApplication(StatusPublished, nil, fixedNow))
	assert.True(t, IsOpenForApplication(StatusPublished, &future, fixedNow))
	assert.True(t, IsOpenForApplication(StatusPublished, &fixedNow, fixedNow))
	assert.False(t, IsOpenForApplication(StatusPublished, &past, fixedNow))
	assert.False(t, IsOpenForApplication(StatusDraft, nil, fixedNow))
	assert.False(t, IsOpenForApplication(StatusClosed, &future, fixedNow))
	assert.False(t, IsOpenForApplication(StatusArchived, nil, fixedNow))
}

func TestCreateProgram(t *testing.T) {
	mockRepo := new(MockRepository)
	svc := newTestService(mockRepo, false)
	orgID := uuid.New()

	mockRepo.On("Create", mock.Anything, mock.AnythingOfType("*programs.Program")).Return(nil)

	program, err := svc.Create(context.Background(), orgPrincipal(orgID), validCreate())

	require.NoError(t, err)
	assert.Equal(t, StatusDraft, program.Status)
	assert.Equal(t, orgID, program.OrganizationID)
	mockRepo.AssertExpectations(t)
}

func TestCreateProgramValidation(t *testing.T) {
	svc := newTestService(new(MockRepository), false)
	orgID := uuid.New()

	req := validCreate()
	req.Title = "  "
	req.Sector = nil
	req.AmountMin = ptr(5000.0)
	req.AmountMax = ptr(1000.0)

	_, err := svc.Create(context.Background(), orgPrincipal(orgID), req)

	var appErr *apperrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.CodeValidation, appErr.Code)
	assert.Contains(t, appErr.Fields, "title")
	assert.Contains(t, appErr.Fields, "sector")
	assert.Contains(t, appErr.Fields, "amountMin")
}

func TestCreateProgramRejectsCompany(t *testing.T) {
	svc := newTestService(new(MockRepository), false)
	companyID := uuid.New()
	p := identity.Principal{UserID: uuid.New(), Role: identity.RoleCompany, CompanyID: &companyID}

	_, err := svc.Create(context.Background(), p, validCreate())

	assert.True(t, apperrors.Is(err, apperrors.CodeForbidden))
}

func TestCreateProgramAsAdminRequiresOrganization(t *testing.T) {
	mockRepo := new(MockRepository)
	orgs := new(mockOrgs)
	svc := NewService(mockRepo, orgs, false, zap.NewNop())
	admin := identity.Principal{UserID: uuid.New(), Role: identity.RoleAdmin}

	_, err := svc.Create(context.Background(), admin, validCreate())
	assert.True(t, apperrors.Is(err, apperrors.CodeValidation))

	orgID := uuid.New()
	orgs.On("GetOrganization", mock.Anything, orgID).Return(&users.Organization{ID: orgID}, nil)
	mockRepo.On("Create", mock.Anything, mock.AnythingOfType("*programs.Program")).Return(nil)

	req := validCreate()
	req.OrganizationID = &orgID
	program, err := svc.Create(context.Background(), admin, req)

	require.NoError(t, err)
	assert.Equal(t, orgID, program.OrganizationID)
}

func TestSetStatusPermissive(t *testing.T) {
	mockRepo := new(MockRepository)
	svc := newTestService(mockRepo, false)
	orgID := uuid.New()
	program := &Program{ID: uuid.New(), OrganizationID: orgID, Status: StatusArchived}

	mockRepo.On("GetByID", mock.Anything, program.ID).Return(program, nil)
	mockRepo.On("Update", mock.Anything, program).Return(nil)

	updated, err := svc.SetStatus(context.Background(), orgPrincipal(orgID), program.ID, StatusPublished)

	require.NoError(t, err)
	assert.Equal(t, StatusPublished, updated.Status)
}

func TestSetStatusStrictRejectsIllegalMove(t *testing.T) {
	mockRepo := new(MockRepository)
	svc := newTestService(mockRepo, true)
	orgID := uuid.New()
	program := &Program{ID: uuid.New(), OrganizationID: orgID, Status: StatusArchived}

	mockRepo.On("GetByID", mock.Anything, program.ID).Return(program, nil)

	_, err := svc.SetStatus(context.Background(), orgPrincipal(orgID), program.ID, StatusPublished)

	assert.True(t, apperrors.Is(err, apperrors.CodeInvalidState))
	mockRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestSetStatusOtherOrganizationForbidden(t *testing.T) {
	mockRepo := new(MockRepository)
	svc := newTestService(mockRepo, false)
	program := &Program{ID: uuid.New(), OrganizationID: uuid.New(), Status: StatusDraft}

	mockRepo.On("GetByID", mock.Anything, program.ID).Return(program, nil)

	_, err := svc.SetStatus(context.Background(), orgPrincipal(uuid.New()), program.ID, StatusPublished)

	assert.True(t, apperrors.Is(err, apperrors.CodeForbidden))
}

func TestSetStatusUnknownValue(t *testing.T) {
	svc := newTestService(new(MockRepository), false)

	_, err := svc.SetStatus(context.Background(), orgPrincipal(uuid.New()), uuid.New(), Status("LIVE"))

	assert.True(t, apperrors.Is(err, apperrors.CodeValidation))
}

func TestDuplicateProgram(t *testing.T) {
	mockRepo := new(MockRepository)
	svc := newTestService(mockRepo, false)
	orgID := uuid.New()
	source := &Program{
		ID:             uuid.New(),
		OrganizationID: orgID,
		Title:          "Seed Fund",
		Sector:         []string{"ai"},
		Status:         StatusPublished,
	}

	mockRepo.On("GetByID", mock.Anything, source.ID).Return(source, nil)
	mockRepo.On("Create", mock.Anything, mock.AnythingOfType("*programs.Program")).Return(nil)

	copyProgram, err := svc.Duplicate(context.Background(), orgPrincipal(orgID), source.ID)

	require.NoError(t, err)
	assert.Equal(t, "Seed Fund (Copy)", copyProgram.Title)
	assert.Equal(t, StatusDraft, copyProgram.Status)
	assert.Equal(t, StatusPublished, source.Status)
}

func TestGetPublicHidesDraft(t *testing.T) {
	mockRepo := new(MockRepository)
	svc := newTestService(mockRepo, false)
	program := &Program{ID: uuid.New(), Status: StatusDraft}

	mockRepo.On("GetByID", mock.Anything, program.ID).Return(program, nil)

	_, err := svc.GetPublic(context.Background(), program.ID)

	assert.True(t, apperrors.Is(err, apperrors.CodeNotFound))
}

func TestListScopesOrganization(t *testing.T) {
	mockRepo := new(MockRepository)
	svc := newTestService(mockRepo, false)
	orgID := uuid.New()
	other := uuid.New()

	mockRepo.On("List", mock.Anything, mock.MatchedBy(func(f Filter) bool {
		return f.OrganizationID != nil && *f.OrganizationID == orgID && f.OpenAt == nil
	}), pagination.Params{Page: 1, Limit: 10}).Return([]Program{{OrganizationID: orgID}}, int64(1), nil)

	page, err := svc.List(context.Background(), orgPrincipal(orgID), Filter{OrganizationID: &other}, pagination.Params{})

	require.NoError(t, err)
	assert.Len(t, page.Items, 1)
	assert.Equal(t, int64(1), page.Pagination.Total)
}

func TestListForCompanyOnlyOpen(t *testing.T) {
	mockRepo := new(MockRepository)
	svc := newTestService(mockRepo, false)
	companyID := uuid.New()
	p := identity.Principal{UserID: uuid.New(), Role: identity.RoleCompany, CompanyID: &companyID}

	mockRepo.On("List", mock.Anything, mock.MatchedBy(func(f Filter) bool {
		return f.OpenAt != nil && f.OpenAt.Equal(fixedNow) && f.Status == nil
	}), mock.Anything).Return([]Program{}, int64(0), nil)

	page, err := svc.List(context.Background(), p, Filter{}, pagination.Params{Page: 1, Limit: 10})

	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.Equal(t, 0, page.Pagination.TotalPages)
}

func TestPublicCacheServesRepeatReads(t *testing.T) {
	mockRepo := new(MockRepository)
	svc := newTestService(mockRepo, false)
	svc.EnablePublicCache(time.Minute)
	defer svc.Close()
	program := &Program{ID: uuid.New(), Status: StatusPublished}

	mockRepo.On("GetByID", mock.Anything, program.ID).Return(program, nil).Once()
	mockRepo.On("List", mock.Anything, mock.Anything, mock.Anything).Return([]Program{*program}, int64(1), nil).Once()

	for i := 0; i < 3; i++ {
		got, err := svc.GetPublic(context.Background(), program.ID)
		require.NoError(t, err)
		assert.Equal(t, program.ID, got.ID)

		page, err := svc.ListPublic(context.Background(), Filter{}, pagination.Params{Page: 1, Limit: 10})
		require.NoError(t, err)
		assert.Len(t, page.Items, 1)
	}

	mockRepo.AssertExpectations(t)
	items, pages := svc.CacheStats()
	assert.Equal(t, int64(2), items.Hits)
	assert.Equal(t, int64(2), pages.Hits)
}

func TestPublicCacheDroppedOnStatusChange(t *testing.T) {
	mockRepo := new(MockRepository)
	svc := newTestService(mockRepo, false)
	svc.EnablePublicCache(time.Minute)
	defer svc.Close()
	orgID := uuid.New()
	stored := &Program{ID: uuid.New(), OrganizationID: orgID, Status: StatusPublished}

	// The cache keeps a copy, so only invalidation can surface the new status.
	mockRepo.On("GetByID", mock.Anything, stored.ID).Return(stored, nil)
	mockRepo.On("Update", mock.Anything, stored).Return(nil)

	_, err := svc.GetPublic(context.Background(), stored.ID)
	require.NoError(t, err)

	_, err = svc.SetStatus(context.Background(), orgPrincipal(orgID), stored.ID, StatusClosed)
	require.NoError(t, err)

	_, err = svc.GetPublic(context.Background(), stored.ID)
	assert.True(t, apperrors.Is(err, apperrors.CodeNotFound))
}

func TestPublicCacheSkipsReadRacingAWrite(t *testing.T) {
	mockRepo := new(MockRepository)
	svc := newTestService(mockRepo, false)
	svc.EnablePublicCache(time.Minute)
	defer svc.Close()
	before := &Program{ID: uuid.New(), Title: "Solar grants", Status: StatusPublished}
	after := &Program{ID: before.ID, Title: "Solar and wind grants", Status: StatusPublished}

	// A write lands while the first read is still loading.
	mockRepo.On("GetByID", mock.Anything, before.ID).Return(before, nil).Once().
		Run(func(mock.Arguments) { svc.invalidate(before.ID) })
	mockRepo.On("GetByID", mock.Anything, before.ID).Return(after, nil).Once()

	first, err := svc.GetPublic(context.Background(), before.ID)
	require.NoError(t, err)
	assert.Equal(t, "Solar grants", first.Title)

	second, err := svc.GetPublic(context.Background(), before.ID)
	require.NoError(t, err)
	assert.Equal(t, "Solar and wind grants", second.Title)
	mockRepo.AssertExpectations(t)
}
