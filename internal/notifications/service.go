package notifications

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/parceltrack/logistics-backend/pkg/db/models"
	"github.com/parceltrack/logistics-backend/pkg/enums"
	pkgerrors "github.com/parceltrack/logistics-backend/pkg/errors"
	"github.com/parceltrack/logistics-backend/pkg/logger"
	"github.com/parceltrack/logistics-backend/pkg/pagination"
)

// unreadPublisher fans the new unread count out to connected clients after a
// mutation. Satisfied by the push package; nil disables fan-out.
type unreadPublisher interface {
	PublishUnread(ctx context.Context, userID uuid.UUID, unread int64) error
}

// Service defines notification list/read/delete operations.
type Service interface {
	List(ctx context.Context, params ListParams) (*ListResult, error)
	Get(ctx context.Context, userID, notificationID uuid.UUID) (*Item, error)
	UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error)
	MarkRead(ctx context.Context, userID, notificationID uuid.UUID) (*MutationResult, error)
	MarkAllRead(ctx context.Context, userID uuid.UUID) (*MutationResult, error)
	Delete(ctx context.Context, userID, notificationID uuid.UUID) (*MutationResult, error)
	Create(ctx context.Context, params CreateParams) (*models.Notification, error)
}

type service struct {
	repo   Repository
	pusher unreadPublisher
	logg   *logger.Logger
}

// ListParams configures a notification page.
type ListParams struct {
	UserID     uuid.UUID
	Limit      int
	UnreadOnly bool
}

// ListResult wraps a notification page plus the authoritative unread count.
type ListResult struct {
	Items       []Item `json:"notifications"`
	UnreadCount int64  `json:"unread_count"`
}

// MutationResult reports the unread count after a read/delete mutation.
type MutationResult struct {
	UnreadCount int64 `json:"unread_count"`
	Updated     int64 `json:"updated"`
}

// CreateParams describes a notification produced by another module.
type CreateParams struct {
	UserID     uuid.UUID
	Type       enums.NotificationType
	Title      string
	Message    string
	ActionURL  *string
	DeliveryID *uuid.UUID
}

// NewService wires notifications dependencies.
func NewService(repo Repository, pusher unreadPublisher, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notifications repository required")
	}
	return &service{repo: repo, pusher: pusher, logg: logg}, nil
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	if params.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}

	rows, err := s.repo.List(ctx, listNotificationsParams{
		UserID:     params.UserID,
		Limit:      pagination.NormalizeLimit(params.Limit),
		UnreadOnly: params.UnreadOnly,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list notifications")
	}

	unread, err := s.repo.CountUnread(ctx, params.UserID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count unread notifications")
	}

	return &ListResult{
		Items:       ItemsFromModels(rows),
		UnreadCount: unread,
	}, nil
}

func (s *service) Get(ctx context.Context, userID, notificationID uuid.UUID) (*Item, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if notificationID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "notification id required")
	}

	notification, err := s.repo.Get(ctx, userID, notificationID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load notification")
	}
	if notification == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "notification not found")
	}

	item := ItemFromModel(*notification)
	return &item, nil
}

func (s *service) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	if userID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}

	count, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count unread notifications")
	}
	return count, nil
}

func (s *service) MarkRead(ctx context.Context, userID, notificationID uuid.UUID) (*MutationResult, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if notificationID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "notification id required")
	}

	result, err := s.repo.MarkRead(ctx, userID, notificationID, time.Now().UTC())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notification read")
	}
	if !result.Found {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "notification not found")
	}

	updated := int64(0)
	if result.Updated {
		updated = 1
	}
	return s.finishMutation(ctx, userID, updated)
}

func (s *service) MarkAllRead(ctx context.Context, userID uuid.UUID) (*MutationResult, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}

	count, err := s.repo.MarkAllRead(ctx, userID, time.Now().UTC())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notifications read")
	}
	return s.finishMutation(ctx, userID, count)
}

func (s *service) Delete(ctx context.Context, userID, notificationID uuid.UUID) (*MutationResult, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if notificationID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "notification id required")
	}

	result, err := s.repo.Delete(ctx, userID, notificationID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete notification")
	}
	if !result.Found {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "notification not found")
	}
	return s.finishMutation(ctx, userID, 1)
}

func (s *service) Create(ctx context.Context, params CreateParams) (*models.Notification, error) {
	if params.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if params.Title == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "title required")
	}
	if !params.Type.IsValid() {
		params.Type = enums.NotificationTypeInfo
	}

	notification := &models.Notification{
		ID:         uuid.New(),
		UserID:     params.UserID,
		Type:       params.Type,
		Title:      params.Title,
		Message:    params.Message,
		ActionURL:  params.ActionURL,
		DeliveryID: params.DeliveryID,
		CreatedAt:  time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, notification); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create notification")
	}

	s.publishUnread(ctx, params.UserID)
	return notification, nil
}

// finishMutation fetches the authoritative unread count and fans it out.
func (s *service) finishMutation(ctx context.Context, userID uuid.UUID, updated int64) (*MutationResult, error) {
	unread, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count unread notifications")
	}

	if updated > 0 {
		s.publishWithCount(ctx, userID, unread)
	}
	return &MutationResult{UnreadCount: unread, Updated: updated}, nil
}

// publishUnread recounts and fans out; fan-out failures never fail the mutation.
func (s *service) publishUnread(ctx context.Context, userID uuid.UUID) {
	if s.pusher == nil {
		return
	}
	unread, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		s.logError(ctx, userID, err)
		return
	}
	s.publishWithCount(ctx, userID, unread)
}

func (s *service) publishWithCount(ctx context.Context, userID uuid.UUID, unread int64) {
	if s.pusher == nil {
		return
	}
	if err := s.pusher.PublishUnread(ctx, userID, unread); err != nil {
		s.logError(ctx, userID, err)
	}
}

func (s *service) logError(ctx context.Context, userID uuid.UUID, err error) {
	if s.logg == nil {
		return
	}
	ctx = s.logg.WithUserID(ctx, userID.String())
	s.logg.Error(ctx, "notifications.push_failed", err)
}
