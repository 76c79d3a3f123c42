package messages

import (
	"time"

	"github.com/google/uuid"

	"growf/platform-backend/internal/applications"
)

// Message is one entry of the thread attached to an application.
type Message struct {
	ID            uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ApplicationID uuid.UUID  `gorm:"type:uuid;not null;index:idx_messages_application_created,priority:1" json:"applicationId"`
	SenderID      uuid.UUID  `gorm:"type:uuid;not null" json:"senderId"`
	Body          string     `gorm:"type:text;not null" json:"body"`
	ReadAt        *time.Time `json:"readAt,omitempty"`
	CreatedAt     time.Time  `gorm:"index:idx_messages_application_created,priority:2" json:"createdAt"`

	Application *applications.Application `gorm:"foreignKey:ApplicationID;constraint:OnDelete:CASCADE" json:"-"`
}

type SendRequest struct {
	Body string `json:"body" binding:"required"`
}
