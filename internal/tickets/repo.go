package tickets

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/parceltrack/logistics-backend/pkg/db/models"
	"github.com/parceltrack/logistics-backend/pkg/enums"
)

// Repository exposes persistence helpers for support tickets.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, ticket *models.Ticket) error
	Get(ctx context.Context, ticketID uuid.UUID) (*models.Ticket, error)
	ListForUser(ctx context.Context, userID uuid.UUID, limit int) ([]models.Ticket, error)
	UpdateStatus(ctx context.Context, ticketID uuid.UUID, status enums.TicketStatus) (int64, error)
	CreateReply(ctx context.Context, reply *models.TicketReply) error
	ListReplies(ctx context.Context, ticketID uuid.UUID) ([]models.TicketReply, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a tickets repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Create(ctx context.Context, ticket *models.Ticket) error {
	return r.db.WithContext(ctx).Create(ticket).Error
}

func (r *repositoryImpl) Get(ctx context.Context, ticketID uuid.UUID) (*models.Ticket, error) {
	var ticket models.Ticket
	err := r.db.WithContext(ctx).Where("id = ?", ticketID).First(&ticket).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &ticket, nil
}

func (r *repositoryImpl) ListForUser(ctx context.Context, userID uuid.UUID, limit int) ([]models.Ticket, error) {
	var tickets []models.Ticket
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&tickets).Error
	return tickets, err
}

func (r *repositoryImpl) UpdateStatus(ctx context.Context, ticketID uuid.UUID, status enums.TicketStatus) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Ticket{}).
		Where("id = ?", ticketID).
		UpdateColumn("status", status)
	return result.RowsAffected, result.Error
}

func (r *repositoryImpl) CreateReply(ctx context.Context, reply *models.TicketReply) error {
	return r.db.WithContext(ctx).Create(reply).Error
}

func (r *repositoryImpl) ListReplies(ctx context.Context, ticketID uuid.UUID) ([]models.TicketReply, error) {
	var replies []models.TicketReply
	err := r.db.WithContext(ctx).
		Where("ticket_id = ?", ticketID).
		Order("created_at ASC, id ASC").
		Find(&replies).Error
	return replies, err
}
