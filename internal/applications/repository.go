package applications

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"growf/platform-backend/internal/apperrors"
	"growf/platform-backend/internal/database"
	"growf/platform-backend/pkg/pagination"
)

type Repository interface {
	Create(ctx context.Context, app *Application) error
	GetByID(ctx context.Context, id uuid.UUID) (*Application, error)
	Exists(ctx context.Context, programID, companyID uuid.UUID) (bool, error)
	// Save writes app if its version is unchanged since it was read, then
	// bumps the version. change, when set, is recorded in the same transaction.
	Save(ctx context.Context, app *Application, change *StatusChange) error
	Delete(ctx context.Context, app *Application) error
	List(ctx context.Context, filter Filter, page pagination.Params) ([]Application, int64, error)
	ListAll(ctx context.Context, filter Filter) ([]Application, error)
	History(ctx context.Context, applicationID uuid.UUID) ([]StatusChange, error)
	CountByStatus(ctx context.Context, filter Filter) (map[Status]int64, error)
}

type gormRepository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) Create(ctx context.Context, app *Application) error {
	err := r.db.WithContext(ctx).Omit("Program", "Company").Create(app).Error
	if err != nil {
		if apperrors.Is(database.TranslateError(err, "application"), apperrors.CodeConflict) {
			return apperrors.Conflict("an application already exists for this program")
		}
		return database.TranslateError(err, "application")
	}
	return nil
}

func (r *gormRepository) GetByID(ctx context.Context, id uuid.UUID) (*Application, error) {
	var app Application
	err := r.db.WithContext(ctx).
		Preload("Program.Organization").
		Preload("Company").
		First(&app, "applications.id = ?", id).Error
	if err != nil {
		return nil, database.TranslateError(err, "application")
	}
	return &app, nil
}

func (r *gormRepository) Exists(ctx context.Context, programID, companyID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&Application{}).
		Where("program_id = ? AND company_id = ?", programID, companyID).
		Count(&count).Error
	if err != nil {
		return false, database.TranslateError(err, "application")
	}
	return count > 0, nil
}

func (r *gormRepository) Save(ctx context.Context, app *Application, change *StatusChange) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&Application{}).
			Where("id = ? AND version = ?", app.ID, app.Version).
			Updates(map[string]any{
				"data":            app.Data,
				"status":          app.Status,
				"score":           app.Score,
				"review_comments": app.ReviewComments,
				"submitted_at":    app.SubmittedAt,
				"reviewed_at":     app.ReviewedAt,
				"version":         gorm.Expr("version + 1"),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return apperrors.Conflict("application was modified concurrently, reload and retry")
		}
		if change != nil {
			if err := tx.Omit("Application").Create(change).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if apperrors.CodeOf(err) == apperrors.CodeConflict {
			return err
		}
		return database.TranslateError(err, "application")
	}
	app.Version++
	return nil
}

// Delete relies on ON DELETE CASCADE for documents, messages and history.
func (r *gormRepository) Delete(ctx context.Context, app *Application) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND version = ?", app.ID, app.Version).
		Delete(&Application{})
	if result.Error != nil {
		return database.TranslateError(result.Error, "application")
	}
	if result.RowsAffected == 0 {
		return apperrors.Conflict("application was modified concurrently, reload and retry")
	}
	return nil
}

func (r *gormRepository) List(ctx context.Context, filter Filter, page pagination.Params) ([]Application, int64, error) {
	query := applyFilter(r.db.WithContext(ctx).Model(&Application{}), filter)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, database.TranslateError(err, "application")
	}

	var apps []Application
	err := query.Preload("Program").Preload("Company").
		Order("applications.created_at DESC").
		Limit(page.Limit).
		Offset(page.Offset()).
		Find(&apps).Error
	if err != nil {
		return nil, 0, database.TranslateError(err, "application")
	}
	return apps, total, nil
}

func (r *gormRepository) ListAll(ctx context.Context, filter Filter) ([]Application, error) {
	var apps []Application
	err := applyFilter(r.db.WithContext(ctx).Model(&Application{}), filter).
		Preload("Program").Preload("Company").
		Order("applications.created_at ASC").
		Find(&apps).Error
	if err != nil {
		return nil, database.TranslateError(err, "application")
	}
	return apps, nil
}

func (r *gormRepository) History(ctx context.Context, applicationID uuid.UUID) ([]StatusChange, error) {
	var changes []StatusChange
	err := r.db.WithContext(ctx).
		Where("application_id = ?", applicationID).
		Order("changed_at ASC").
		Find(&changes).Error
	if err != nil {
		return nil, database.TranslateError(err, "application status change")
	}
	return changes, nil
}

func (r *gormRepository) CountByStatus(ctx context.Context, filter Filter) (map[Status]int64, error) {
	var rows []struct {
		Status Status
		Count  int64
	}
	err := applyFilter(r.db.WithContext(ctx).Model(&Application{}), filter).
		Select("applications.status AS status, count(*) AS count").
		Group("applications.status").
		Scan(&rows).Error
	if err != nil {
		return nil, database.TranslateError(err, "application")
	}
	counts := make(map[Status]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

func applyFilter(query *gorm.DB, filter Filter) *gorm.DB {
	if filter.OrganizationID != nil || filter.Search != nil {
		query = query.Joins("JOIN programs ON programs.id = applications.program_id")
	}
	if filter.CompanyID != nil {
		query = query.Where("applications.company_id = ?", *filter.CompanyID)
	}
	if filter.OrganizationID != nil {
		query = query.Where("programs.organization_id = ?", *filter.OrganizationID)
	}
	if filter.ProgramID != nil {
		query = query.Where("applications.program_id = ?", *filter.ProgramID)
	}
	if len(filter.ProgramIDs) > 0 {
		query = query.Where("applications.program_id IN ?", filter.ProgramIDs)
	}
	if filter.Status != nil {
		query = query.Where("applications.status = ?", *filter.Status)
	}
	if filter.Search != nil {
		like := "%" + strings.ToLower(*filter.Search) + "%"
		query = query.Where("lower(programs.title) LIKE ? OR lower(programs.description) LIKE ?", like, like)
	}
	return query
}
