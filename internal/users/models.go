package users

import (
	"time"

	"github.com/google/uuid"

	"growf/platform-backend/internal/identity"
)

// User is a login account. Company and organization profiles hang off it.
type User struct {
	ID           uuid.UUID     `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Email        string        `gorm:"not null;uniqueIndex" json:"email"`
	PasswordHash string        `gorm:"not null" json:"-"`
	Name         string        `json:"name"`
	Role         identity.Role `gorm:"type:varchar(20);not null;index" json:"role"`
	CreatedAt    time.Time     `json:"createdAt"`
	UpdatedAt    time.Time     `json:"updatedAt"`
}

// Organization publishes funding programs.
type Organization struct {
	ID          uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"userId"`
	Name        string    `gorm:"not null" json:"name"`
	Description string    `json:"description"`
	Website     string    `json:"website"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
	User        *User     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user,omitempty"`
}

// Company applies to programs.
type Company struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"userId"`
	Name      string    `gorm:"not null" json:"name"`
	Sector    string    `json:"sector"`
	Location  string    `json:"location"`
	Size      string    `json:"size"`
	Siret     string    `gorm:"index" json:"siret"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	User      *User     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user,omitempty"`
}

// ListFilter narrows organization and company listings.
type ListFilter struct {
	Search *string
}

type UpdateOrganizationRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Website     *string `json:"website"`
}

type UpdateCompanyRequest struct {
	Name     *string `json:"name"`
	Sector   *string `json:"sector"`
	Location *string `json:"location"`
	Size     *string `json:"size"`
	Siret    *string `json:"siret"`
}
