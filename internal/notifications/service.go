package notifications

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"growf/platform-backend/internal/apperrors"
	"growf/platform-backend/internal/notifications/websocket"
	"growf/platform-backend/internal/users"
	"growf/platform-backend/pkg/pagination"
)

const emailTimeout = 10 * time.Second

// Pusher delivers live frames to connected users.
type Pusher interface {
	SendToUser(userID uuid.UUID, msg websocket.Message) bool
}

// RecipientLookup resolves the email address of a user.
type RecipientLookup interface {
	GetUserByID(ctx context.Context, id uuid.UUID) (*users.User, error)
}

// Service persists notifications and fans them out to live and email channels.
type Service struct {
	store      Store
	pusher     Pusher
	email      EmailSender
	recipients RecipientLookup
	logger     *zap.Logger
	now        func() time.Time
}

// NewService wires the channels. pusher and email may be nil to disable them.
func NewService(store Store, pusher Pusher, email EmailSender, recipients RecipientLookup, logger *zap.Logger) *Service {
	return &Service{
		store:      store,
		pusher:     pusher,
		email:      email,
		recipients: recipients,
		logger:     logger,
		now:        time.Now,
	}
}

// Notify stores the notification and attempts live and email delivery.
// Only a storage failure is returned.
func (s *Service) Notify(ctx context.Context, in Input) (*Notification, error) {
	if in.UserID == uuid.Nil || strings.TrimSpace(in.Title) == "" {
		return nil, apperrors.NewValidation("notification needs a recipient and a title", nil)
	}

	n := &Notification{
		UserID: in.UserID,
		Type:   in.Type,
		Title:  in.Title,
		Body:   in.Body,
	}
	if len(in.Data) > 0 {
		raw, err := json.Marshal(in.Data)
		if err != nil {
			return nil, apperrors.Internal(err)
		}
		n.Data = datatypes.JSON(raw)
	}
	if err := s.store.Create(ctx, n); err != nil {
		return nil, err
	}

	if s.pusher != nil {
		s.pusher.SendToUser(n.UserID, websocket.Message{Type: "notification", Data: n, Timestamp: s.now()})
	}
	if s.email != nil && emailed[n.Type] {
		s.sendEmail(ctx, n)
	}
	return n, nil
}

func (s *Service) sendEmail(ctx context.Context, n *Notification) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), emailTimeout)
	defer cancel()

	user, err := s.recipients.GetUserByID(ctx, n.UserID)
	if err != nil {
		s.logger.Warn("Failed to resolve notification recipient", zap.Error(err), zap.String("user_id", n.UserID.String()))
		return
	}
	if err := s.email.Send(ctx, user.Email, n.Title, n.Body); err != nil {
		s.logger.Warn("Failed to email notification",
			zap.Error(err),
			zap.String("notification_id", n.ID.String()),
			zap.String("type", string(n.Type)))
	}
}

func (s *Service) List(ctx context.Context, userID uuid.UUID, unreadOnly bool, page pagination.Params) (pagination.Page[Notification], error) {
	page = page.Normalize()
	items, total, err := s.store.List(ctx, userID, unreadOnly, page)
	if err != nil {
		return pagination.Page[Notification]{}, err
	}
	return pagination.NewPage(items, page, total), nil
}

func (s *Service) MarkRead(ctx context.Context, userID, id uuid.UUID) error {
	return s.store.MarkRead(ctx, id, userID, s.now())
}

func (s *Service) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.store.MarkAllRead(ctx, userID, s.now())
}

func (s *Service) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.store.UnreadCount(ctx, userID)
}

func (s *Service) Delete(ctx context.Context, userID, id uuid.UUID) error {
	return s.store.Delete(ctx, id, userID)
}
