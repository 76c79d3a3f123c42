package users

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"growf/platform-backend/internal/database"
	"growf/platform-backend/pkg/pagination"
)

type Repository interface {
	// CreateUser inserts the user and, if given, its profile in one transaction.
	CreateUser(ctx context.Context, user *User, org *Organization, company *Company) error
	GetUserByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)

	GetOrganization(ctx context.Context, id uuid.UUID) (*Organization, error)
	GetOrganizationByUserID(ctx context.Context, userID uuid.UUID) (*Organization, error)
	ListOrganizations(ctx context.Context, filter ListFilter, page pagination.Params) ([]Organization, int64, error)
	UpdateOrganization(ctx context.Context, org *Organization) error
	DeleteOrganizationWithUser(ctx context.Context, org *Organization) error

	GetCompany(ctx context.Context, id uuid.UUID) (*Company, error)
	GetCompanyByUserID(ctx context.Context, userID uuid.UUID) (*Company, error)
	ListCompanies(ctx context.Context, filter ListFilter, page pagination.Params) ([]Company, int64, error)
	UpdateCompany(ctx context.Context, company *Company) error
	DeleteCompanyWithUser(ctx context.Context, company *Company) error
}

type gormRepository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) CreateUser(ctx context.Context, user *User, org *Organization, company *Company) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return err
		}
		if org != nil {
			org.UserID = user.ID
			if err := tx.Create(org).Error; err != nil {
				return err
			}
		}
		if company != nil {
			company.UserID = user.ID
			if err := tx.Create(company).Error; err != nil {
				return err
			}
		}
		return nil
	})
	return database.TranslateError(err, "user")
}

func (r *gormRepository) GetUserByID(ctx context.Context, id uuid.UUID) (*User, error) {
	var user User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, database.TranslateError(err, "user")
	}
	return &user, nil
}

func (r *gormRepository) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	var user User
	if err := r.db.WithContext(ctx).First(&user, "lower(email) = ?", strings.ToLower(email)).Error; err != nil {
		return nil, database.TranslateError(err, "user")
	}
	return &user, nil
}

func (r *gormRepository) GetOrganization(ctx context.Context, id uuid.UUID) (*Organization, error) {
	var org Organization
	if err := r.db.WithContext(ctx).First(&org, "id = ?", id).Error; err != nil {
		return nil, database.TranslateError(err, "organization")
	}
	return &org, nil
}

func (r *gormRepository) GetOrganizationByUserID(ctx context.Context, userID uuid.UUID) (*Organization, error) {
	var org Organization
	if err := r.db.WithContext(ctx).First(&org, "user_id = ?", userID).Error; err != nil {
		return nil, database.TranslateError(err, "organization")
	}
	return &org, nil
}

func (r *gormRepository) ListOrganizations(ctx context.Context, filter ListFilter, page pagination.Params) ([]Organization, int64, error) {
	query := r.db.WithContext(ctx).Model(&Organization{})
	if filter.Search != nil {
		like := "%" + strings.ToLower(*filter.Search) + "%"
		query = query.Where("lower(name) LIKE ? OR lower(description) LIKE ?", like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, database.TranslateError(err, "organization")
	}

	var orgs []Organization
	err := query.Order("created_at DESC").Limit(page.Limit).Offset(page.Offset()).Find(&orgs).Error
	if err != nil {
		return nil, 0, database.TranslateError(err, "organization")
	}
	return orgs, total, nil
}

func (r *gormRepository) UpdateOrganization(ctx context.Context, org *Organization) error {
	return database.TranslateError(r.db.WithContext(ctx).Omit("User").Save(org).Error, "organization")
}

func (r *gormRepository) DeleteOrganizationWithUser(ctx context.Context, org *Organization) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&Organization{}, "id = ?", org.ID).Error; err != nil {
			return err
		}
		return tx.Delete(&User{}, "id = ?", org.UserID).Error
	})
	return database.TranslateError(err, "organization")
}

func (r *gormRepository) GetCompany(ctx context.Context, id uuid.UUID) (*Company, error) {
	var company Company
	if err := r.db.WithContext(ctx).First(&company, "id = ?", id).Error; err != nil {
		return nil, database.TranslateError(err, "company")
	}
	return &company, nil
}

func (r *gormRepository) GetCompanyByUserID(ctx context.Context, userID uuid.UUID) (*Company, error) {
	var company Company
	if err := r.db.WithContext(ctx).First(&company, "user_id = ?", userID).Error; err != nil {
		return nil, database.TranslateError(err, "company")
	}
	return &company, nil
}

func (r *gormRepository) ListCompanies(ctx context.Context, filter ListFilter, page pagination.Params) ([]Company, int64, error) {
	query := r.db.WithContext(ctx).Model(&Company{})
	if filter.Search != nil {
		like := "%" + strings.ToLower(*filter.Search) + "%"
		query = query.Where("lower(name) LIKE ? OR lower(sector) LIKE ?", like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, database.TranslateError(err, "company")
	}

	var companies []Company
	err := query.Order("created_at DESC").Limit(page.Limit).Offset(page.Offset()).Find(&companies).Error
	if err != nil {
		return nil, 0, database.TranslateError(err, "company")
	}
	return companies, total, nil
}

func (r *gormRepository) UpdateCompany(ctx context.Context, company *Company) error {
	return database.TranslateError(r.db.WithContext(ctx).Omit("User").Save(company).Error, "company")
}

func (r *gormRepository) DeleteCompanyWithUser(ctx context.Context, company *Company) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&Company{}, "id = ?", company.ID).Error; err != nil {
			return err
		}
		return tx.Delete(&User{}, "id = ?", company.UserID).Error
	})
	return database.TranslateError(err, "company")
}
