package tickets

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/parceltrack/logistics-backend/api/validators"
	"github.com/parceltrack/logistics-backend/internal/notifications"
	"github.com/parceltrack/logistics-backend/pkg/db/models"
	"github.com/parceltrack/logistics-backend/pkg/enums"
	pkgerrors "github.com/parceltrack/logistics-backend/pkg/errors"
	"github.com/parceltrack/logistics-backend/pkg/logger"
)

const (
	maxSubjectLen = 200
	maxBodyLen    = 5000
)

// notifier is the slice of the notifications service the producers need.
type notifier interface {
	Create(ctx context.Context, params notifications.CreateParams) (*models.Notification, error)
}

// Service defines support ticket operations.
type Service interface {
	Create(ctx context.Context, params CreateParams) (*models.Ticket, error)
	Get(ctx context.Context, ticketID uuid.UUID) (*TicketWithReplies, error)
	ListForUser(ctx context.Context, userID uuid.UUID, limit int) ([]models.Ticket, error)
	Reply(ctx context.Context, params ReplyParams) (*models.TicketReply, error)
	UpdateStatus(ctx context.Context, ticketID uuid.UUID, status enums.TicketStatus) error
}

type service struct {
	repo     Repository
	notifier notifier
	logg     *logger.Logger
}

// CreateParams describes a new support ticket.
type CreateParams struct {
	UserID     uuid.UUID
	DeliveryID *uuid.UUID
	Subject    string
	Body       string
}

// ReplyParams describes a message appended to an existing ticket.
type ReplyParams struct {
	TicketID   uuid.UUID
	AuthorID   uuid.UUID
	AuthorRole enums.UserRole
	Body       string
}

// TicketWithReplies bundles a ticket and its conversation.
type TicketWithReplies struct {
	Ticket  models.Ticket        `json:"ticket"`
	Replies []models.TicketReply `json:"replies"`
}

// NewService wires ticket dependencies.
func NewService(repo Repository, notifier notifier, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "tickets repository required")
	}
	return &service{repo: repo, notifier: notifier, logg: logg}, nil
}

func (s *service) Create(ctx context.Context, params CreateParams) (*models.Ticket, error) {
	if params.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	subject := validators.SanitizeString(params.Subject, maxSubjectLen)
	body := validators.SanitizeString(params.Body, maxBodyLen)
	if subject == "" || body == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "subject and body required")
	}

	ticket := &models.Ticket{
		ID:         uuid.New(),
		UserID:     params.UserID,
		DeliveryID: params.DeliveryID,
		Subject:    subject,
		Body:       body,
		Status:     enums.TicketStatusOpen,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, ticket); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create ticket")
	}
	return ticket, nil
}

func (s *service) Get(ctx context.Context, ticketID uuid.UUID) (*TicketWithReplies, error) {
	if ticketID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "ticket id required")
	}

	ticket, err := s.repo.Get(ctx, ticketID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load ticket")
	}
	if ticket == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "ticket not found")
	}

	replies, err := s.repo.ListReplies(ctx, ticketID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load ticket replies")
	}
	return &TicketWithReplies{Ticket: *ticket, Replies: replies}, nil
}

func (s *service) ListForUser(ctx context.Context, userID uuid.UUID, limit int) ([]models.Ticket, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	tickets, err := s.repo.ListForUser(ctx, userID, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list tickets")
	}
	return tickets, nil
}

func (s *service) Reply(ctx context.Context, params ReplyParams) (*models.TicketReply, error) {
	if params.AuthorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "author id required")
	}
	body := validators.SanitizeString(params.Body, maxBodyLen)
	if body == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reply body required")
	}

	ticket, err := s.repo.Get(ctx, params.TicketID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load ticket")
	}
	if ticket == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "ticket not found")
	}
	if ticket.Status == enums.TicketStatusClosed {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "ticket is closed")
	}

	reply := &models.TicketReply{
		ID:        uuid.New(),
		TicketID:  ticket.ID,
		AuthorID:  params.AuthorID,
		Body:      body,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.CreateReply(ctx, reply); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create ticket reply")
	}

	// An agent reply notifies the customer; the customer's own replies don't.
	if params.AuthorID != ticket.UserID {
		s.notify(ctx, notifications.CreateParams{
			UserID:     ticket.UserID,
			Type:       enums.NotificationTypeInfo,
			Title:      "Support replied",
			Message:    fmt.Sprintf("You have a new reply on ticket %q.", ticket.Subject),
			DeliveryID: ticket.DeliveryID,
		})
	}
	return reply, nil
}

func (s *service) UpdateStatus(ctx context.Context, ticketID uuid.UUID, status enums.TicketStatus) error {
	if !status.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid ticket status")
	}

	ticket, err := s.repo.Get(ctx, ticketID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load ticket")
	}
	if ticket == nil {
		return pkgerrors.New(pkgerrors.CodeNotFound, "ticket not found")
	}
	if ticket.Status == status {
		return nil
	}

	updated, err := s.repo.UpdateStatus(ctx, ticketID, status)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update ticket status")
	}
	if updated == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "ticket not found")
	}

	if status == enums.TicketStatusResolved {
		s.notify(ctx, notifications.CreateParams{
			UserID:  ticket.UserID,
			Type:    enums.NotificationTypeSuccess,
			Title:   "Ticket resolved",
			Message: fmt.Sprintf("Your ticket %q has been resolved.", ticket.Subject),
		})
	}
	return nil
}

func (s *service) notify(ctx context.Context, params notifications.CreateParams) {
	if s.notifier == nil {
		return
	}
	if _, err := s.notifier.Create(ctx, params); err != nil && s.logg != nil {
		logCtx := s.logg.WithUserID(ctx, params.UserID.String())
		s.logg.Error(logCtx, "tickets.notify_failed", err)
	}
}
