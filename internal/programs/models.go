package programs

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/datatypes"

	"growf/platform-backend/internal/users"
)

type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusPublished Status = "PUBLISHED"
	StatusClosed    Status = "CLOSED"
	StatusArchived  Status = "ARCHIVED"
)

func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusPublished, StatusClosed, StatusArchived:
		return true
	default:
		return false
	}
}

// Program is a funding opportunity owned by one organization.
type Program struct {
	ID              uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrganizationID  uuid.UUID      `gorm:"type:uuid;not null;index" json:"organizationId"`
	Title           string         `gorm:"not null" json:"title"`
	Description     string         `gorm:"type:text;not null" json:"description"`
	Sector          pq.StringArray `gorm:"type:text[];not null" json:"sector"`
	Location        pq.StringArray `gorm:"type:text[];not null" json:"location"`
	CompanySize     pq.StringArray `gorm:"type:text[];not null" json:"companySize"`
	AmountMin       *float64       `gorm:"type:numeric(14,2)" json:"amountMin,omitempty"`
	AmountMax       *float64       `gorm:"type:numeric(14,2)" json:"amountMax,omitempty"`
	Deadline        *time.Time     `gorm:"index" json:"deadline,omitempty"`
	Criteria        datatypes.JSON `gorm:"type:jsonb" json:"criteria,omitempty"`
	ApplicationForm datatypes.JSON `gorm:"type:jsonb" json:"applicationForm,omitempty"`
	Status          Status         `gorm:"type:varchar(20);not null;default:'DRAFT';index" json:"status"`
	CreatedAt       time.Time      `json:"createdAt"`
	UpdatedAt       time.Time      `json:"updatedAt"`

	Organization *users.Organization `gorm:"foreignKey:OrganizationID;constraint:OnDelete:CASCADE" json:"organization,omitempty"`
}

// IsOpenForApplication is true iff status is PUBLISHED and the deadline, if
// any, has not passed at now.
func IsOpenForApplication(status Status, deadline *time.Time, now time.Time) bool {
	if status != StatusPublished {
		return false
	}
	return deadline == nil || !deadline.Before(now)
}

func (p *Program) IsOpenForApplication(now time.Time) bool {
	return IsOpenForApplication(p.Status, p.Deadline, now)
}

// DeadlinePassed is true when a deadline exists and is before now.
func (p *Program) DeadlinePassed(now time.Time) bool {
	return p.Deadline != nil && p.Deadline.Before(now)
}

// Filter narrows program queries. Zero values mean no constraint.
type Filter struct {
	OrganizationID *uuid.UUID
	Status         *Status
	Sector         *string
	Location       *string
	Search         *string
	// OpenAt restricts to programs open for application at that instant.
	OpenAt *time.Time
	// DeadlineFrom and DeadlineTo bound the deadline, both inclusive.
	DeadlineFrom *time.Time
	DeadlineTo   *time.Time
}

type CreateProgramRequest struct {
	// OrganizationID is only read when an administrator creates a program.
	OrganizationID  *uuid.UUID     `json:"organizationId"`
	Title           string         `json:"title"`
	Description     string         `json:"description"`
	Sector          []string       `json:"sector"`
	Location        []string       `json:"location"`
	CompanySize     []string       `json:"companySize"`
	AmountMin       *float64       `json:"amountMin"`
	AmountMax       *float64       `json:"amountMax"`
	Deadline        *time.Time     `json:"deadline"`
	Criteria        datatypes.JSON `json:"criteria"`
	ApplicationForm datatypes.JSON `json:"applicationForm"`
}

type UpdateProgramRequest struct {
	Title           *string         `json:"title"`
	Description     *string         `json:"description"`
	Sector          *[]string       `json:"sector"`
	Location        *[]string       `json:"location"`
	CompanySize     *[]string       `json:"companySize"`
	AmountMin       *float64        `json:"amountMin"`
	AmountMax       *float64        `json:"amountMax"`
	ClearAmounts    bool            `json:"clearAmounts"`
	Deadline        *time.Time      `json:"deadline"`
	ClearDeadline   bool            `json:"clearDeadline"`
	Criteria        *datatypes.JSON `json:"criteria"`
	ApplicationForm *datatypes.JSON `json:"applicationForm"`
}

type StatusRequest struct {
	Status Status `json:"status" binding:"required"`
}
