package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/parceltrack/logistics-backend/pkg/enums"
)

// Ticket is a customer support request, optionally routed to an agent.
type Ticket struct {
	ID         uuid.UUID          `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID     uuid.UUID          `gorm:"type:uuid;not null;index"`
	AgentID    *uuid.UUID         `gorm:"type:uuid"`
	DeliveryID *uuid.UUID         `gorm:"type:uuid"`
	Subject    string             `gorm:"type:text;not null"`
	Body       string             `gorm:"type:text;not null"`
	Status     enums.TicketStatus `gorm:"type:text;not null;default:'open'"`
	CreatedAt  time.Time          `gorm:"type:timestamptz;default:now()"`
	UpdatedAt  time.Time          `gorm:"type:timestamptz;default:now()"`
}

// TicketReply is a message appended to a ticket by the customer or an agent.
type TicketReply struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	TicketID  uuid.UUID `gorm:"type:uuid;not null;index"`
	AuthorID  uuid.UUID `gorm:"type:uuid;not null"`
	Body      string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"type:timestamptz;default:now()"`
}
