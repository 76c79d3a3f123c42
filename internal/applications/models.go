package applications

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"growf/platform-backend/internal/programs"
	"growf/platform-backend/internal/users"
)

type Status string

const (
	StatusDraft       Status = "DRAFT"
	StatusSubmitted   Status = "SUBMITTED"
	StatusUnderReview Status = "UNDER_REVIEW"
	StatusApproved    Status = "APPROVED"
	StatusRejected    Status = "REJECTED"
)

var AllStatuses = []Status{StatusDraft, StatusSubmitted, StatusUnderReview, StatusApproved, StatusRejected}

func (s Status) Valid() bool {
	for _, known := range AllStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// Application is one company's submission against one program.
type Application struct {
	ID             uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ProgramID      uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_applications_program_company,priority:1" json:"programId"`
	CompanyID      uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_applications_program_company,priority:2;index" json:"companyId"`
	Data           datatypes.JSON `gorm:"type:jsonb" json:"data,omitempty"`
	Status         Status         `gorm:"type:varchar(20);not null;default:'DRAFT';index" json:"status"`
	Score          *float64       `gorm:"type:numeric(5,2)" json:"score,omitempty"`
	ReviewComments string         `gorm:"type:text" json:"reviewComments,omitempty"`
	SubmittedAt    *time.Time     `json:"submittedAt,omitempty"`
	ReviewedAt     *time.Time     `json:"reviewedAt,omitempty"`
	Version        int            `gorm:"not null;default:1" json:"version"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`

	Program *programs.Program `gorm:"foreignKey:ProgramID;constraint:OnDelete:CASCADE" json:"program,omitempty"`
	Company *users.Company    `gorm:"foreignKey:CompanyID;constraint:OnDelete:CASCADE" json:"company,omitempty"`
}

// StatusChange is one row of an application's audit trail.
type StatusChange struct {
	ID            uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ApplicationID uuid.UUID `gorm:"type:uuid;not null;index" json:"applicationId"`
	FromStatus    Status    `gorm:"type:varchar(20);not null" json:"from"`
	ToStatus      Status    `gorm:"type:varchar(20);not null" json:"to"`
	ChangedBy     uuid.UUID `gorm:"type:uuid;not null" json:"changedBy"`
	Note          string    `gorm:"type:text" json:"note,omitempty"`
	ChangedAt     time.Time `gorm:"not null" json:"changedAt"`

	Application *Application `gorm:"foreignKey:ApplicationID;constraint:OnDelete:CASCADE" json:"-"`
}

func (StatusChange) TableName() string { return "application_status_changes" }

// Filter narrows application queries. Zero values mean no constraint.
type Filter struct {
	CompanyID      *uuid.UUID
	OrganizationID *uuid.UUID
	ProgramID      *uuid.UUID
	ProgramIDs     []uuid.UUID
	Status         *Status
	// Search matches the program title or description case-insensitively.
	Search *string
}

type CreateApplicationRequest struct {
	ProgramID uuid.UUID      `json:"programId" binding:"required"`
	Data      datatypes.JSON `json:"data"`
}

type UpdateApplicationRequest struct {
	Data datatypes.JSON `json:"data" binding:"required"`
}

type StatusRequest struct {
	Status Status `json:"status" binding:"required"`
	Note   string `json:"note"`
}

type ReviewRequest struct {
	Score    *float64 `json:"score"`
	Comments string   `json:"comments"`
}

// Stats counts applications per status within the caller's scope.
type Stats struct {
	Total    int64            `json:"total"`
	ByStatus map[Status]int64 `json:"byStatus"`
}
