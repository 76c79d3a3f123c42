package notifications

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Type string

const (
	TypeApplicationSubmitted     Type = "APPLICATION_SUBMITTED"
	TypeApplicationStatusChanged Type = "APPLICATION_STATUS_CHANGED"
	TypeApplicationReviewed      Type = "APPLICATION_REVIEWED"
	TypeNewMessage               Type = "NEW_MESSAGE"
	TypeDeadlineReminder         Type = "DEADLINE_REMINDER"
)

// emailed lists the types that are also delivered by email.
var emailed = map[Type]bool{
	TypeApplicationStatusChanged: true,
	TypeApplicationReviewed:      true,
	TypeDeadlineReminder:         true,
}

// Notification is an in-app notice addressed to one user.
type Notification struct {
	ID        uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID    uuid.UUID      `gorm:"type:uuid;not null;index:idx_notifications_user_created,priority:1" json:"userId"`
	Type      Type           `gorm:"type:varchar(40);not null" json:"type"`
	Title     string         `gorm:"not null" json:"title"`
	Body      string         `gorm:"type:text" json:"body"`
	Data      datatypes.JSON `gorm:"type:jsonb" json:"data,omitempty"`
	ReadAt    *time.Time     `json:"readAt,omitempty"`
	CreatedAt time.Time      `gorm:"index:idx_notifications_user_created,priority:2" json:"createdAt"`
}

func (n *Notification) IsRead() bool { return n.ReadAt != nil }

// Input describes a notification to deliver.
type Input struct {
	UserID uuid.UUID
	Type   Type
	Title  string
	Body   string
	Data   map[string]any
}

type UnreadCount struct {
	Count int64 `json:"count"`
}
