package documents

import (
	"io"
	"time"

	"github.com/google/uuid"

	"growf/platform-backend/internal/applications"
)

// Document is a file attached to an application. The body lives in object storage.
type Document struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" db:"id" json:"id"`
	ApplicationID uuid.UUID `gorm:"type:uuid;not null;index" db:"application_id" json:"applicationId"`
	UploadedBy    uuid.UUID `gorm:"type:uuid;not null" db:"uploaded_by" json:"uploadedBy"`
	Name          string    `gorm:"not null" db:"name" json:"name"`
	MimeType      string    `gorm:"not null" db:"mime_type" json:"mimeType"`
	Size          int64     `gorm:"not null" db:"size" json:"size"`
	StorageKey    string    `gorm:"not null" db:"storage_key" json:"-"`
	CreatedAt     time.Time `gorm:"not null" db:"created_at" json:"createdAt"`

	Application *applications.Application `gorm:"foreignKey:ApplicationID;constraint:OnDelete:CASCADE" db:"-" json:"-"`
}

// UploadInput is a file received from a client.
type UploadInput struct {
	Name     string
	MimeType string
	Size     int64
	Body     io.Reader
}

type DownloadLink struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt"`
}
