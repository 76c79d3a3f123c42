package documents

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"growf/platform-backend/internal/apperrors"
	"growf/platform-backend/internal/applications"
	"growf/platform-backend/internal/identity"
	"growf/platform-backend/internal/programs"
	"growf/platform-backend/pkg/storage"
)

// MockRepository is a mock implementation of the Repository interface
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Create(ctx context.Context, doc *Document) error {
	args := m.Called(ctx, doc)
	return args.Error(0)
}

func (m *MockRepository) GetByID(ctx context.Context, id uuid.UUID) (*Document, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Document), args.Error(1)
}

func (m *MockRepository) ListByApplication(ctx context.Context, applicationID uuid.UUID) ([]Document, error) {
	args := m.Called(ctx, applicationID)
	return args.Get(0).([]Document), args.Error(1)
}

func (m *MockRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockApplications struct {
	mock.Mock
}

func (m *MockApplications) Get(ctx context.Context, p identity.Principal, id uuid.UUID) (*applications.Application, error) {
	args := m.Called(ctx, p, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*applications.Application), args.Error(1)
}

type setup struct {
	svc     *Service
	repo    *MockRepository
	apps    *MockApplications
	store   *storage.MemoryStore
	app     *applications.Application
	company identity.Principal
	org     identity.Principal
}

func newSetup(status applications.Status) *setup {
	orgID, companyID := uuid.New(), uuid.New()
	s := &setup{
		repo:    new(MockRepository),
		apps:    new(MockApplications),
		store:   storage.NewMemoryStore(),
		company: identity.Principal{UserID: uuid.New(), Role: identity.RoleCompany, CompanyID: &companyID},
		org:     identity.Principal{UserID: uuid.New(), Role: identity.RoleOrganization, OrganizationID: &orgID},
		app: &applications.Application{
			ID:        uuid.New(),
			CompanyID: companyID,
			Status:    status,
			Program:   &programs.Program{OrganizationID: orgID},
		},
	}
	s.svc = NewService(s.repo, s.apps, s.store, Options{MaxFileSize: 1024}, zap.NewNop())
	s.apps.On("Get", mock.Anything, mock.Anything, s.app.ID).Return(s.app, nil)
	return s
}

func upload(body string) UploadInput {
	return UploadInput{Name: "pitch.pdf", MimeType: "application/pdf", Size: int64(len(body)), Body: strings.NewReader(body)}
}

func TestUploadByCompanyWhileDraft(t *testing.T) {
	s := newSetup(applications.StatusDraft)
	s.repo.On("Create", mock.Anything, mock.AnythingOfType("*documents.Document")).Return(nil)

	doc, err := s.svc.Upload(context.Background(), s.company, s.app.ID, upload("%PDF-1.7"))

	require.NoError(t, err)
	assert.Equal(t, "applications/"+s.app.ID.String()+"/documents/"+doc.ID.String()+"/pitch.pdf", doc.StorageKey)
	obj, ok := s.store.Get(doc.StorageKey)
	require.True(t, ok)
	assert.Equal(t, "%PDF-1.7", string(obj.Body))
}

func TestUploadByCompanyAfterSubmitRejected(t *testing.T) {
	s := newSetup(applications.StatusSubmitted)

	_, err := s.svc.Upload(context.Background(), s.company, s.app.ID, upload("x"))

	assert.True(t, apperrors.Is(err, apperrors.CodeInvalidState))
	s.repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestUploadByReviewerAnyStatus(t *testing.T) {
	s := newSetup(applications.StatusUnderReview)
	s.repo.On("Create", mock.Anything, mock.AnythingOfType("*documents.Document")).Return(nil)

	_, err := s.svc.Upload(context.Background(), s.org, s.app.ID, upload("report"))

	assert.NoError(t, err)
}

func TestUploadByAnalystForbidden(t *testing.T) {
	s := newSetup(applications.StatusDraft)
	analyst := identity.Principal{UserID: uuid.New(), Role: identity.RoleAnalyst}

	_, err := s.svc.Upload(context.Background(), analyst, s.app.ID, upload("x"))

	assert.True(t, apperrors.Is(err, apperrors.CodeForbidden))
}

func TestUploadTooLarge(t *testing.T) {
	s := newSetup(applications.StatusDraft)

	_, err := s.svc.Upload(context.Background(), s.company, s.app.ID, upload(strings.Repeat("a", 2048)))

	assert.True(t, apperrors.Is(err, apperrors.CodeValidation))
}

func TestUploadRemovesObjectWhenRowFails(t *testing.T) {
	s := newSetup(applications.StatusDraft)
	var key string
	s.repo.On("Create", mock.Anything, mock.AnythingOfType("*documents.Document")).
		Run(func(args mock.Arguments) { key = args.Get(1).(*Document).StorageKey }).
		Return(apperrors.Internal(assert.AnError))

	_, err := s.svc.Upload(context.Background(), s.company, s.app.ID, upload("x"))

	assert.Error(t, err)
	require.NotEmpty(t, key)
	_, stored := s.store.Get(key)
	assert.False(t, stored)
}

func TestDeleteOnlyByUploaderOrAdmin(t *testing.T) {
	s := newSetup(applications.StatusDraft)
	doc := &Document{ID: uuid.New(), ApplicationID: s.app.ID, UploadedBy: s.company.UserID, StorageKey: "k"}
	s.repo.On("GetByID", mock.Anything, doc.ID).Return(doc, nil)
	s.repo.On("Delete", mock.Anything, doc.ID).Return(nil)

	err := s.svc.Delete(context.Background(), s.org, doc.ID)
	assert.True(t, apperrors.Is(err, apperrors.CodeForbidden))

	admin := identity.Principal{UserID: uuid.New(), Role: identity.RoleAdmin}
	assert.NoError(t, s.svc.Delete(context.Background(), admin, doc.ID))
}

func TestDownloadURLIsPresigned(t *testing.T) {
	s := newSetup(applications.StatusDraft)
	doc := &Document{ID: uuid.New(), ApplicationID: s.app.ID, StorageKey: "applications/x/documents/y/a.pdf"}
	require.NoError(t, s.store.Upload(context.Background(), doc.StorageKey, strings.NewReader("a"), "application/pdf"))
	s.repo.On("GetByID", mock.Anything, doc.ID).Return(doc, nil)

	link, err := s.svc.DownloadURL(context.Background(), s.company, doc.ID)

	require.NoError(t, err)
	assert.Contains(t, link.URL, "expires=900")
}

func TestSanitizeFileName(t *testing.T) {
	assert.Equal(t, "passwd", sanitizeFileName("../../etc/passwd"))
	assert.Equal(t, "report.pdf", sanitizeFileName(`C:\Users\me\report.pdf`))
	assert.Equal(t, "file", sanitizeFileName("  "))
}
