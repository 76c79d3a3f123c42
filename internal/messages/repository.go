package messages

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"growf/platform-backend/internal/database"
	"growf/platform-backend/pkg/pagination"
)

type Repository interface {
	Create(ctx context.Context, msg *Message) error
	GetByID(ctx context.Context, id uuid.UUID) (*Message, error)
	ListByApplication(ctx context.Context, applicationID uuid.UUID, page pagination.Params) ([]Message, int64, error)
	MarkRead(ctx context.Context, id uuid.UUID, at time.Time) error
}

type gormRepository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) Create(ctx context.Context, msg *Message) error {
	return database.TranslateError(r.db.WithContext(ctx).Omit("Application").Create(msg).Error, "message")
}

func (r *gormRepository) GetByID(ctx context.Context, id uuid.UUID) (*Message, error) {
	var msg Message
	if err := r.db.WithContext(ctx).First(&msg, "id = ?", id).Error; err != nil {
		return nil, database.TranslateError(err, "message")
	}
	return &msg, nil
}

func (r *gormRepository) ListByApplication(ctx context.Context, applicationID uuid.UUID, page pagination.Params) ([]Message, int64, error) {
	query := r.db.WithContext(ctx).Model(&Message{}).Where("application_id = ?", applicationID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, database.TranslateError(err, "message")
	}

	var msgs []Message
	err := query.Order("created_at ASC").Limit(page.Limit).Offset(page.Offset()).Find(&msgs).Error
	if err != nil {
		return nil, 0, database.TranslateError(err, "message")
	}
	return msgs, total, nil
}

// MarkRead keeps the first read time.
func (r *gormRepository) MarkRead(ctx context.Context, id uuid.UUID, at time.Time) error {
	err := r.db.WithContext(ctx).Model(&Message{}).
		Where("id = ? AND read_at IS NULL", id).
		Update("read_at", at).Error
	return database.TranslateError(err, "message")
}
