package programs

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"growf/platform-backend/internal/database"
	"growf/platform-backend/pkg/pagination"
)

type Repository interface {
	Create(ctx context.Context, program *Program) error
	GetByID(ctx context.Context, id uuid.UUID) (*Program, error)
	Update(ctx context.Context, program *Program) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter Filter, page pagination.Params) ([]Program, int64, error)
}

type gormRepository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) Create(ctx context.Context, program *Program) error {
	return database.TranslateError(r.db.WithContext(ctx).Create(program).Error, "program")
}

func (r *gormRepository) GetByID(ctx context.Context, id uuid.UUID) (*Program, error) {
	var program Program
	if err := r.db.WithContext(ctx).First(&program, "id = ?", id).Error; err != nil {
		return nil, database.TranslateError(err, "program")
	}
	return &program, nil
}

func (r *gormRepository) Update(ctx context.Context, program *Program) error {
	return database.TranslateError(r.db.WithContext(ctx).Save(program).Error, "program")
}

// Delete relies on ON DELETE CASCADE for applications and their children.
func (r *gormRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&Program{}, "id = ?", id)
	if result.Error != nil {
		return database.TranslateError(result.Error, "program")
	}
	if result.RowsAffected == 0 {
		return database.TranslateError(gorm.ErrRecordNotFound, "program")
	}
	return nil
}

func (r *gormRepository) List(ctx context.Context, filter Filter, page pagination.Params) ([]Program, int64, error) {
	query := applyFilter(r.db.WithContext(ctx).Model(&Program{}), filter)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, database.TranslateError(err, "program")
	}

	var programs []Program
	err := query.Order("created_at DESC").
		Limit(page.Limit).
		Offset(page.Offset()).
		Find(&programs).Error
	if err != nil {
		return nil, 0, database.TranslateError(err, "program")
	}
	return programs, total, nil
}

func applyFilter(query *gorm.DB, filter Filter) *gorm.DB {
	if filter.OrganizationID != nil {
		query = query.Where("organization_id = ?", *filter.OrganizationID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.Sector != nil {
		query = query.Where("sector && ?", pq.StringArray{*filter.Sector})
	}
	if filter.Location != nil {
		query = query.Where("location && ?", pq.StringArray{*filter.Location})
	}
	if filter.Search != nil {
		like := "%" + strings.ToLower(*filter.Search) + "%"
		query = query.Where("lower(title) LIKE ? OR lower(description) LIKE ?", like, like)
	}
	if filter.OpenAt != nil {
		query = query.Where("status = ? AND (deadline IS NULL OR deadline >= ?)", StatusPublished, *filter.OpenAt)
	}
	if filter.DeadlineFrom != nil {
		query = query.Where("deadline >= ?", *filter.DeadlineFrom)
	}
	if filter.DeadlineTo != nil {
		query = query.Where("deadline <= ?", *filter.DeadlineTo)
	}
	return query
}
