package messages

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"growf/platform-backend/internal/apperrors"
	"growf/platform-backend/internal/applications"
	"growf/platform-backend/internal/identity"
	"growf/platform-backend/internal/notifications"
	"growf/platform-backend/internal/programs"
	"growf/platform-backend/internal/users"
	"growf/platform-backend/pkg/pagination"
)

type memoryRepository struct {
	mu   sync.Mutex
	msgs []Message
	tick time.Time
}

func (r *memoryRepository) Create(_ context.Context, msg *Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tick = r.tick.Add(time.Second)
	msg.ID = uuid.New()
	msg.CreatedAt = r.tick
	r.msgs = append(r.msgs, *msg)
	return nil
}

func (r *memoryRepository) GetByID(_ context.Context, id uuid.UUID) (*Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.msgs {
		if m.ID == id {
			return &m, nil
		}
	}
	return nil, apperrors.NotFound("message")
}

func (r *memoryRepository) ListByApplication(_ context.Context, applicationID uuid.UUID, page pagination.Params) ([]Message, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Message
	for _, m := range r.msgs {
		if m.ApplicationID == applicationID {
			out = append(out, m)
		}
	}
	return pagination.Slice(out, page), int64(len(out)), nil
}

func (r *memoryRepository) MarkRead(_ context.Context, id uuid.UUID, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.msgs {
		if r.msgs[i].ID == id && r.msgs[i].ReadAt == nil {
			r.msgs[i].ReadAt = &at
		}
	}
	return nil
}

type stubApps struct {
	items map[uuid.UUID]*applications.Application
}

func (s *stubApps) Get(_ context.Context, p identity.Principal, id uuid.UUID) (*applications.Application, error) {
	app, ok := s.items[id]
	if !ok {
		return nil, apperrors.NotFound("application")
	}
	if !applications.CanView(p, app) {
		return nil, apperrors.Forbidden("not allowed to view this application")
	}
	return app, nil
}

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) Notify(ctx context.Context, in notifications.Input) (*notifications.Notification, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*notifications.Notification), args.Error(1)
}

type thread struct {
	svc      *Service
	repo     *memoryRepository
	notifier *mockNotifier
	app      *applications.Application
	company  identity.Principal
	org      identity.Principal
}

func newThread() *thread {
	orgID, companyID := uuid.New(), uuid.New()
	org := identity.Principal{UserID: uuid.New(), Role: identity.RoleOrganization, OrganizationID: &orgID}
	company := identity.Principal{UserID: uuid.New(), Role: identity.RoleCompany, CompanyID: &companyID}
	app := &applications.Application{
		ID:        uuid.New(),
		CompanyID: companyID,
		Status:    applications.StatusSubmitted,
		Company:   &users.Company{ID: companyID, UserID: company.UserID},
		Program: &programs.Program{
			ID:             uuid.New(),
			OrganizationID: orgID,
			Organization:   &users.Organization{ID: orgID, UserID: org.UserID},
		},
	}
	app.ProgramID = app.Program.ID

	th := &thread{
		repo:     &memoryRepository{tick: time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)},
		notifier: new(mockNotifier),
		app:      app,
		company:  company,
		org:      org,
	}
	apps := &stubApps{items: map[uuid.UUID]*applications.Application{app.ID: app}}
	th.svc = NewService(th.repo, apps, th.notifier, zap.NewNop())
	th.svc.now = func() time.Time { return time.Date(2026, 5, 2, 8, 0, 0, 0, time.UTC) }
	return th
}

func TestCompanyMessageNotifiesOrganization(t *testing.T) {
	th := newThread()
	th.notifier.On("Notify", mock.Anything, mock.MatchedBy(func(in notifications.Input) bool {
		return in.UserID == th.org.UserID && in.Type == notifications.TypeNewMessage
	})).Return(&notifications.Notification{}, nil).Once()

	msg, err := th.svc.Send(context.Background(), th.company, th.app.ID, SendRequest{Body: "  When will we hear back?  "})

	require.NoError(t, err)
	assert.Equal(t, "When will we hear back?", msg.Body)
	assert.Equal(t, th.company.UserID, msg.SenderID)
	th.notifier.AssertExpectations(t)
}

func TestReviewerMessageNotifiesCompany(t *testing.T) {
	th := newThread()
	th.notifier.On("Notify", mock.Anything, mock.MatchedBy(func(in notifications.Input) bool {
		return in.UserID == th.company.UserID
	})).Return(&notifications.Notification{}, nil).Once()

	_, err := th.svc.Send(context.Background(), th.org, th.app.ID, SendRequest{Body: "Please upload your balance sheet"})

	require.NoError(t, err)
	th.notifier.AssertExpectations(t)
}

func TestNotificationFailureDoesNotFailSend(t *testing.T) {
	th := newThread()
	th.notifier.On("Notify", mock.Anything, mock.Anything).Return(nil, apperrors.Internal(assert.AnError)).Once()

	msg, err := th.svc.Send(context.Background(), th.org, th.app.ID, SendRequest{Body: "hello"})

	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, msg.ID)
}

func TestSendValidation(t *testing.T) {
	th := newThread()

	_, err := th.svc.Send(context.Background(), th.company, th.app.ID, SendRequest{Body: "   "})
	assert.Equal(t, apperrors.CodeValidation, apperrors.CodeOf(err))

	_, err = th.svc.Send(context.Background(), th.company, th.app.ID, SendRequest{Body: strings.Repeat("x", maxBodyLength+1)})
	assert.Equal(t, apperrors.CodeValidation, apperrors.CodeOf(err))
}

func TestAnalystCannotSend(t *testing.T) {
	th := newThread()
	analyst := identity.Principal{UserID: uuid.New(), Role: identity.RoleAnalyst}

	_, err := th.svc.Send(context.Background(), analyst, th.app.ID, SendRequest{Body: "hi"})

	assert.Equal(t, apperrors.CodeForbidden, apperrors.CodeOf(err))
}

func TestOutsiderCannotRead(t *testing.T) {
	th := newThread()
	otherCompany := uuid.New()
	outsider := identity.Principal{UserID: uuid.New(), Role: identity.RoleCompany, CompanyID: &otherCompany}

	_, err := th.svc.List(context.Background(), outsider, th.app.ID, pagination.Params{Page: 1, Limit: 10})

	assert.Equal(t, apperrors.CodeForbidden, apperrors.CodeOf(err))
}

func TestListOldestFirst(t *testing.T) {
	th := newThread()
	th.notifier.On("Notify", mock.Anything, mock.Anything).Return(&notifications.Notification{}, nil)

	for _, body := range []string{"first", "second", "third"} {
		_, err := th.svc.Send(context.Background(), th.company, th.app.ID, SendRequest{Body: body})
		require.NoError(t, err)
	}

	page, err := th.svc.List(context.Background(), th.org, th.app.ID, pagination.Params{Page: 1, Limit: 2})

	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "first", page.Items[0].Body)
	assert.Equal(t, "second", page.Items[1].Body)
	assert.EqualValues(t, 3, page.Pagination.Total)
}

func TestMarkReadOnlyByRecipient(t *testing.T) {
	th := newThread()
	th.notifier.On("Notify", mock.Anything, mock.Anything).Return(&notifications.Notification{}, nil)
	msg, err := th.svc.Send(context.Background(), th.company, th.app.ID, SendRequest{Body: "ping"})
	require.NoError(t, err)

	_, err = th.svc.MarkRead(context.Background(), th.company, msg.ID)
	assert.Equal(t, apperrors.CodeForbidden, apperrors.CodeOf(err))

	read, err := th.svc.MarkRead(context.Background(), th.org, msg.ID)
	require.NoError(t, err)
	require.NotNil(t, read.ReadAt)

	again, err := th.svc.MarkRead(context.Background(), th.org, msg.ID)
	require.NoError(t, err)
	assert.Equal(t, *read.ReadAt, *again.ReadAt)
}

func TestAnalystCannotMarkRead(t *testing.T) {
	th := newThread()
	th.notifier.On("Notify", mock.Anything, mock.Anything).Return(&notifications.Notification{}, nil)
	msg, err := th.svc.Send(context.Background(), th.company, th.app.ID, SendRequest{Body: "ping"})
	require.NoError(t, err)
	analyst := identity.Principal{UserID: uuid.New(), Role: identity.RoleAnalyst}

	_, err = th.svc.MarkRead(context.Background(), analyst, msg.ID)

	assert.Equal(t, apperrors.CodeForbidden, apperrors.CodeOf(err))
	stored, err := th.repo.GetByID(context.Background(), msg.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.ReadAt)
}

func TestPreviewTruncates(t *testing.T) {
	long := strings.Repeat("é", 200)
	got := preview(long)
	assert.True(t, strings.HasSuffix(got, "..."))
	assert.Equal(t, 143, len([]rune(got)))
}
