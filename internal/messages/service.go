package messages

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"growf/platform-backend/internal/apperrors"
	"growf/platform-backend/internal/applications"
	"growf/platform-backend/internal/identity"
	"growf/platform-backend/internal/notifications"
	"growf/platform-backend/pkg/pagination"
)

const maxBodyLength = 5000

// ApplicationReader returns an application only if the caller may view it.
type ApplicationReader interface {
	Get(ctx context.Context, p identity.Principal, id uuid.UUID) (*applications.Application, error)
}

type Notifier interface {
	Notify(ctx context.Context, in notifications.Input) (*notifications.Notification, error)
}

// Service runs the conversation between a company and its reviewers.
type Service struct {
	repo     Repository
	apps     ApplicationReader
	notifier Notifier
	logger   *zap.Logger
	now      func() time.Time
}

func NewService(repo Repository, apps ApplicationReader, notifier Notifier, logger *zap.Logger) *Service {
	return &Service{repo: repo, apps: apps, notifier: notifier, logger: logger, now: time.Now}
}

// Send posts a message. Only the owning company and reviewers take part.
func (s *Service) Send(ctx context.Context, p identity.Principal, applicationID uuid.UUID, req SendRequest) (*Message, error) {
	body := strings.TrimSpace(req.Body)
	if body == "" || utf8.RuneCountInString(body) > maxBodyLength {
		return nil, apperrors.NewValidation("invalid message", map[string]string{"body": "must be between 1 and 5000 characters"})
	}
	app, err := s.apps.Get(ctx, p, applicationID)
	if err != nil {
		return nil, err
	}
	fromCompany := applications.IsOwner(p, app)
	if !fromCompany && !applications.IsReviewer(p, app) {
		return nil, apperrors.Forbidden("only participants may post messages")
	}

	msg := &Message{ApplicationID: app.ID, SenderID: p.UserID, Body: body}
	if err := s.repo.Create(ctx, msg); err != nil {
		return nil, err
	}

	if recipient, ok := counterpart(app, fromCompany); ok && s.notifier != nil {
		_, err := s.notifier.Notify(ctx, notifications.Input{
			UserID: recipient,
			Type:   notifications.TypeNewMessage,
			Title:  "New message",
			Body:   preview(body),
			Data: map[string]any{
				"applicationId": app.ID.String(),
				"messageId":     msg.ID.String(),
			},
		})
		if err != nil {
			s.logger.Warn("Failed to record message notification", zap.Error(err), zap.String("message_id", msg.ID.String()))
		}
	}
	return msg, nil
}

// List returns the thread oldest first.
func (s *Service) List(ctx context.Context, p identity.Principal, applicationID uuid.UUID, page pagination.Params) (pagination.Page[Message], error) {
	if _, err := s.apps.Get(ctx, p, applicationID); err != nil {
		return pagination.Page[Message]{}, err
	}
	page = page.Normalize()
	msgs, total, err := s.repo.ListByApplication(ctx, applicationID, page)
	if err != nil {
		return pagination.Page[Message]{}, err
	}
	return pagination.NewPage(msgs, page, total), nil
}

// MarkRead is only meaningful for a recipient. Senders and read-only viewers get FORBIDDEN.
func (s *Service) MarkRead(ctx context.Context, p identity.Principal, id uuid.UUID) (*Message, error) {
	msg, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	app, err := s.apps.Get(ctx, p, msg.ApplicationID)
	if err != nil {
		return nil, err
	}
	if !applications.IsOwner(p, app) && !applications.IsReviewer(p, app) {
		return nil, apperrors.Forbidden("only participants may mark messages as read")
	}
	if msg.SenderID == p.UserID {
		return nil, apperrors.Forbidden("senders cannot mark their own message as read")
	}
	if msg.ReadAt != nil {
		return msg, nil
	}
	now := s.now()
	if err := s.repo.MarkRead(ctx, id, now); err != nil {
		return nil, err
	}
	msg.ReadAt = &now
	return msg, nil
}

// counterpart is the user on the other side of the thread.
func counterpart(app *applications.Application, fromCompany bool) (uuid.UUID, bool) {
	if fromCompany {
		if app.Program != nil && app.Program.Organization != nil {
			return app.Program.Organization.UserID, true
		}
		return uuid.Nil, false
	}
	if app.Company != nil {
		return app.Company.UserID, true
	}
	return uuid.Nil, false
}

func preview(body string) string {
	const limit = 140
	if utf8.RuneCountInString(body) <= limit {
		return body
	}
	runes := []rune(body)
	return string(runes[:limit]) + "..."
}
