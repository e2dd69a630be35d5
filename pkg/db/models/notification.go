package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/parceltrack/logistics-backend/pkg/enums"
)

// Notification stores in-app notification payloads scoped to users. Read
// state is a nullable timestamp; the wire format exposes it as the legacy
// "true"/"false" string.
type Notification struct {
	ID         uuid.UUID              `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID     uuid.UUID              `gorm:"type:uuid;not null;index"`
	Type       enums.NotificationType `gorm:"type:text;not null"`
	Title      string                 `gorm:"type:text;not null"`
	Message    string                 `gorm:"type:text;not null"`
	ActionURL  *string                `gorm:"type:text"`
	DeliveryID *uuid.UUID             `gorm:"type:uuid"`
	ReadAt     *time.Time             `gorm:"type:timestamptz"`
	CreatedAt  time.Time              `gorm:"type:timestamptz;default:now()"`
}

// IsRead reports whether the notification has been read.
func (n Notification) IsRead() bool {
	return n.ReadAt != nil
}
