package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/parceltrack/logistics-backend/pkg/enums"
)

// User is the account row shared by customers, drivers, agents and admins.
type User struct {
	ID            uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Email         string         `gorm:"type:text;not null;uniqueIndex"`
	Name          string         `gorm:"type:text;not null"`
	Role          enums.UserRole `gorm:"type:text;not null;default:'customer'"`
	Address       *string        `gorm:"type:text"`
	ContactNumber *string        `gorm:"type:text"`
	CreatedAt     time.Time      `gorm:"type:timestamptz;default:now()"`
	UpdatedAt     time.Time      `gorm:"type:timestamptz;default:now()"`
}
