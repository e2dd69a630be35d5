package tickets

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/parceltrack/logistics-backend/internal/notifications"
	"github.com/parceltrack/logistics-backend/pkg/db/models"
	"github.com/parceltrack/logistics-backend/pkg/enums"
	pkgerrors "github.com/parceltrack/logistics-backend/pkg/errors"
)

type fakeRepository struct {
	createFn      func(ctx context.Context, ticket *models.Ticket) error
	getFn         func(ctx context.Context, ticketID uuid.UUID) (*models.Ticket, error)
	createReplyFn func(ctx context.Context, reply *models.TicketReply) error
	updateFn      func(ctx context.Context, ticketID uuid.UUID, status enums.TicketStatus) (int64, error)
}

func (f *fakeRepository) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRepository) Create(ctx context.Context, ticket *models.Ticket) error {
	if f.createFn != nil {
		return f.createFn(ctx, ticket)
	}
	return nil
}

func (f *fakeRepository) Get(ctx context.Context, ticketID uuid.UUID) (*models.Ticket, error) {
	if f.getFn != nil {
		return f.getFn(ctx, ticketID)
	}
	return nil, nil
}

func (f *fakeRepository) ListForUser(ctx context.Context, userID uuid.UUID, limit int) ([]models.Ticket, error) {
	return nil, nil
}

func (f *fakeRepository) UpdateStatus(ctx context.Context, ticketID uuid.UUID, status enums.TicketStatus) (int64, error) {
	if f.updateFn != nil {
		return f.updateFn(ctx, ticketID, status)
	}
	return 1, nil
}

func (f *fakeRepository) CreateReply(ctx context.Context, reply *models.TicketReply) error {
	if f.createReplyFn != nil {
		return f.createReplyFn(ctx, reply)
	}
	return nil
}

func (f *fakeRepository) ListReplies(ctx context.Context, ticketID uuid.UUID) ([]models.TicketReply, error) {
	return nil, nil
}

type fakeNotifier struct {
	created []notifications.CreateParams
}

func (f *fakeNotifier) Create(ctx context.Context, params notifications.CreateParams) (*models.Notification, error) {
	f.created = append(f.created, params)
	return &models.Notification{ID: uuid.New()}, nil
}

func openTicket(customerID uuid.UUID) *models.Ticket {
	return &models.Ticket{
		ID:      uuid.New(),
		UserID:  customerID,
		Subject: "Parcel stuck at depot",
		Body:    "No movement for three days.",
		Status:  enums.TicketStatusOpen,
	}
}

func TestService_CreateTrimsAndValidates(t *testing.T) {
	var created *models.Ticket
	repo := &fakeRepository{
		createFn: func(ctx context.Context, ticket *models.Ticket) error {
			created = ticket
			return nil
		},
	}
	svc, _ := NewService(repo, nil, nil)

	_, err := svc.Create(context.Background(), CreateParams{
		UserID:  uuid.New(),
		Subject: "  Lost parcel  ",
		Body:    "  It never arrived.  ",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.Subject != "Lost parcel" || created.Body != "It never arrived." {
		t.Fatalf("expected trimmed fields, got %+v", created)
	}
	if created.Status != enums.TicketStatusOpen {
		t.Fatalf("tickets must open as open, got %s", created.Status)
	}

	_, err = svc.Create(context.Background(), CreateParams{UserID: uuid.New(), Subject: "  "})
	if err == nil || pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestService_AgentReplyNotifiesCustomer(t *testing.T) {
	customerID := uuid.New()
	agentID := uuid.New()
	ticket := openTicket(customerID)
	notifier := &fakeNotifier{}
	repo := &fakeRepository{
		getFn: func(ctx context.Context, id uuid.UUID) (*models.Ticket, error) {
			return ticket, nil
		},
	}

	svc, _ := NewService(repo, notifier, nil)
	reply, err := svc.Reply(context.Background(), ReplyParams{
		TicketID:   ticket.ID,
		AuthorID:   agentID,
		AuthorRole: enums.UserRoleAgent,
		Body:       "We located your parcel.",
	})
	if err != nil {
		t.Fatalf("reply: %v", err)
	}
	if reply.TicketID != ticket.ID {
		t.Fatalf("reply bound to wrong ticket: %+v", reply)
	}
	if len(notifier.created) != 1 || notifier.created[0].UserID != customerID {
		t.Fatalf("expected customer notification, got %+v", notifier.created)
	}
}

func TestService_CustomerReplyDoesNotNotifySelf(t *testing.T) {
	customerID := uuid.New()
	ticket := openTicket(customerID)
	notifier := &fakeNotifier{}
	repo := &fakeRepository{
		getFn: func(ctx context.Context, id uuid.UUID) (*models.Ticket, error) {
			return ticket, nil
		},
	}

	svc, _ := NewService(repo, notifier, nil)
	if _, err := svc.Reply(context.Background(), ReplyParams{
		TicketID:   ticket.ID,
		AuthorID:   customerID,
		AuthorRole: enums.UserRoleCustomer,
		Body:       "Any update?",
	}); err != nil {
		t.Fatalf("reply: %v", err)
	}
	if len(notifier.created) != 0 {
		t.Fatalf("customer replies must not notify, got %+v", notifier.created)
	}
}

func TestService_ReplyToClosedTicketRejected(t *testing.T) {
	ticket := openTicket(uuid.New())
	ticket.Status = enums.TicketStatusClosed
	repo := &fakeRepository{
		getFn: func(ctx context.Context, id uuid.UUID) (*models.Ticket, error) {
			return ticket, nil
		},
	}
	svc, _ := NewService(repo, nil, nil)
	_, err := svc.Reply(context.Background(), ReplyParams{
		TicketID: ticket.ID,
		AuthorID: uuid.New(),
		Body:     "hello?",
	})
	if err == nil || pkgerrors.As(err).Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict error, got %v", err)
	}
}

func TestService_ResolveNotifiesCustomer(t *testing.T) {
	customerID := uuid.New()
	ticket := openTicket(customerID)
	notifier := &fakeNotifier{}
	repo := &fakeRepository{
		getFn: func(ctx context.Context, id uuid.UUID) (*models.Ticket, error) {
			return ticket, nil
		},
	}
	svc, _ := NewService(repo, notifier, nil)
	if err := svc.UpdateStatus(context.Background(), ticket.ID, enums.TicketStatusResolved); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(notifier.created) != 1 || notifier.created[0].Type != enums.NotificationTypeSuccess {
		t.Fatalf("expected success notification, got %+v", notifier.created)
	}
}
