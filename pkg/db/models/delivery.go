package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/parceltrack/logistics-backend/pkg/enums"
)

// Delivery is a shipment owned by a customer, optionally assigned to a driver.
type Delivery struct {
	ID              uuid.UUID            `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID          uuid.UUID            `gorm:"type:uuid;not null;index"`
	DriverID        *uuid.UUID           `gorm:"type:uuid"`
	Status          enums.DeliveryStatus `gorm:"type:text;not null;default:'Pending'"`
	PickupAddress   string               `gorm:"type:text;not null"`
	DeliveryAddress string               `gorm:"type:text;not null"`
	Weight          *string              `gorm:"type:text"`
	PackageType     *string              `gorm:"type:text"`
	PickupDate      time.Time            `gorm:"type:timestamptz;not null"`
	DeliveryDate    *time.Time           `gorm:"type:timestamptz"`
	TrackingNumber  string               `gorm:"type:text;not null;uniqueIndex"`
	CreatedAt       time.Time            `gorm:"type:timestamptz;default:now()"`
	UpdatedAt       time.Time            `gorm:"type:timestamptz;default:now()"`
}
