package documents

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"growf/platform-backend/internal/apperrors"
	"growf/platform-backend/internal/applications"
	"growf/platform-backend/internal/identity"
	"growf/platform-backend/pkg/storage"
)

// ApplicationReader returns an application only if the caller may view it.
type ApplicationReader interface {
	Get(ctx context.Context, p identity.Principal, id uuid.UUID) (*applications.Application, error)
}

type Options struct {
	MaxFileSize int64
	PresignTTL  time.Duration
}

// Service manages files attached to applications.
type Service struct {
	repo   Repository
	apps   ApplicationReader
	store  storage.ObjectStore
	opts   Options
	logger *zap.Logger
	now    func() time.Time
}

func NewService(repo Repository, apps ApplicationReader, store storage.ObjectStore, opts Options, logger *zap.Logger) *Service {
	if opts.PresignTTL <= 0 {
		opts.PresignTTL = 15 * time.Minute
	}
	return &Service{repo: repo, apps: apps, store: store, opts: opts, logger: logger, now: time.Now}
}

// Upload stores a file. The owning company may upload while the application
// is a DRAFT; reviewers may upload at any status.
func (s *Service) Upload(ctx context.Context, p identity.Principal, applicationID uuid.UUID, in UploadInput) (*Document, error) {
	app, err := s.apps.Get(ctx, p, applicationID)
	if err != nil {
		return nil, err
	}
	switch {
	case applications.IsReviewer(p, app):
	case applications.IsOwner(p, app):
		if app.Status != applications.StatusDraft {
			return nil, apperrors.InvalidState("documents can only be added to draft applications")
		}
	default:
		return nil, apperrors.Forbidden("read-only access to this application")
	}

	fields := map[string]string{}
	if strings.TrimSpace(in.Name) == "" {
		fields["file"] = "file name is required"
	}
	if in.Size <= 0 {
		fields["file"] = "file is empty"
	}
	if s.opts.MaxFileSize > 0 && in.Size > s.opts.MaxFileSize {
		fields["file"] = "file exceeds the size limit"
	}
	if len(fields) > 0 {
		return nil, apperrors.NewValidation("invalid upload", fields)
	}
	if in.MimeType == "" {
		in.MimeType = "application/octet-stream"
	}

	doc := &Document{
		ID:            uuid.New(),
		ApplicationID: app.ID,
		UploadedBy:    p.UserID,
		Name:          sanitizeFileName(in.Name),
		MimeType:      in.MimeType,
		Size:          in.Size,
		CreatedAt:     s.now().UTC(),
	}
	doc.StorageKey = objectKey(app.ID, doc.ID, doc.Name)

	if err := s.store.Upload(ctx, doc.StorageKey, in.Body, doc.MimeType); err != nil {
		return nil, apperrors.Internal(err)
	}
	if err := s.repo.Create(ctx, doc); err != nil {
		if delErr := s.store.Delete(ctx, doc.StorageKey); delErr != nil {
			s.logger.Warn("Failed to remove orphaned object", zap.Error(delErr), zap.String("key", doc.StorageKey))
		}
		return nil, err
	}

	s.logger.Info("document uploaded",
		zap.String("document_id", doc.ID.String()),
		zap.String("application_id", app.ID.String()),
		zap.Int64("size", doc.Size))
	return doc, nil
}

func (s *Service) List(ctx context.Context, p identity.Principal, applicationID uuid.UUID) ([]Document, error) {
	if _, err := s.apps.Get(ctx, p, applicationID); err != nil {
		return nil, err
	}
	return s.repo.ListByApplication(ctx, applicationID)
}

// DownloadURL returns a short-lived presigned link to the file body.
func (s *Service) DownloadURL(ctx context.Context, p identity.Principal, id uuid.UUID) (*DownloadLink, error) {
	doc, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.apps.Get(ctx, p, doc.ApplicationID); err != nil {
		return nil, err
	}
	url, err := s.store.PresignedURL(ctx, doc.StorageKey, s.opts.PresignTTL)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return &DownloadLink{URL: url, ExpiresAt: s.now().Add(s.opts.PresignTTL)}, nil
}

// Delete is allowed to the uploader and to administrators.
func (s *Service) Delete(ctx context.Context, p identity.Principal, id uuid.UUID) error {
	doc, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if _, err := s.apps.Get(ctx, p, doc.ApplicationID); err != nil {
		return err
	}
	if doc.UploadedBy != p.UserID && !p.IsStaff() {
		return apperrors.Forbidden("only the uploader may delete this document")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, doc.StorageKey); err != nil {
		s.logger.Warn("Failed to delete object", zap.Error(err), zap.String("key", doc.StorageKey))
	}
	return nil
}
