package deliveries

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/parceltrack/logistics-backend/internal/notifications"
	"github.com/parceltrack/logistics-backend/pkg/db"
	"github.com/parceltrack/logistics-backend/pkg/db/models"
	"github.com/parceltrack/logistics-backend/pkg/enums"
	pkgerrors "github.com/parceltrack/logistics-backend/pkg/errors"
	"github.com/parceltrack/logistics-backend/pkg/logger"
)

const trackingNumberAttempts = 5

// notifier is the slice of the notifications service the producers need.
type notifier interface {
	Create(ctx context.Context, params notifications.CreateParams) (*models.Notification, error)
}

// Service defines delivery lifecycle operations.
type Service interface {
	Create(ctx context.Context, params CreateParams) (*models.Delivery, error)
	Get(ctx context.Context, deliveryID uuid.UUID) (*models.Delivery, error)
	Track(ctx context.Context, trackingNumber string) (*models.Delivery, error)
	ListForUser(ctx context.Context, userID uuid.UUID, limit int) ([]models.Delivery, error)
	UpdateStatus(ctx context.Context, deliveryID uuid.UUID, status enums.DeliveryStatus) error
	AssignDriver(ctx context.Context, deliveryID, driverID uuid.UUID) error
}

type service struct {
	repo     Repository
	notifier notifier
	logg     *logger.Logger
}

// CreateParams describes a new shipment request.
type CreateParams struct {
	UserID          uuid.UUID
	PickupAddress   string
	DeliveryAddress string
	Weight          *string
	PackageType     *string
	PickupDate      time.Time
}

// NewService wires delivery dependencies.
func NewService(repo Repository, notifier notifier, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "deliveries repository required")
	}
	return &service{repo: repo, notifier: notifier, logg: logg}, nil
}

func (s *service) Create(ctx context.Context, params CreateParams) (*models.Delivery, error) {
	if params.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if params.PickupAddress == "" || params.DeliveryAddress == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "pickup and delivery addresses required")
	}
	if params.PickupDate.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "pickup date required")
	}

	delivery := &models.Delivery{
		ID:              uuid.New(),
		UserID:          params.UserID,
		Status:          enums.DeliveryStatusPending,
		PickupAddress:   params.PickupAddress,
		DeliveryAddress: params.DeliveryAddress,
		Weight:          params.Weight,
		PackageType:     params.PackageType,
		PickupDate:      params.PickupDate,
		CreatedAt:       time.Now().UTC(),
	}

	// Tracking numbers are random; retry on the rare collision.
	var lastErr error
	for attempt := 0; attempt < trackingNumberAttempts; attempt++ {
		delivery.TrackingNumber = newTrackingNumber()
		err := s.repo.Create(ctx, delivery)
		if err == nil {
			lastErr = nil
			break
		}
		lastErr = err
		if !db.IsUniqueViolation(err, "idx_deliveries_tracking_number") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create delivery")
		}
	}
	if lastErr != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, lastErr, "tracking number collision")
	}

	s.notify(ctx, notifications.CreateParams{
		UserID:     delivery.UserID,
		Type:       enums.NotificationTypeInfo,
		Title:      "Delivery scheduled",
		Message:    fmt.Sprintf("Your delivery %s has been scheduled.", delivery.TrackingNumber),
		DeliveryID: &delivery.ID,
	})
	return delivery, nil
}

func (s *service) Get(ctx context.Context, deliveryID uuid.UUID) (*models.Delivery, error) {
	if deliveryID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "delivery id required")
	}
	delivery, err := s.repo.Get(ctx, deliveryID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load delivery")
	}
	if delivery == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "delivery not found")
	}
	return delivery, nil
}

func (s *service) Track(ctx context.Context, trackingNumber string) (*models.Delivery, error) {
	trackingNumber = strings.TrimSpace(trackingNumber)
	if trackingNumber == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tracking number required")
	}
	delivery, err := s.repo.GetByTrackingNumber(ctx, trackingNumber)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load delivery")
	}
	if delivery == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "delivery not found")
	}
	return delivery, nil
}

func (s *service) ListForUser(ctx context.Context, userID uuid.UUID, limit int) ([]models.Delivery, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	deliveries, err := s.repo.ListForUser(ctx, userID, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list deliveries")
	}
	return deliveries, nil
}

func (s *service) UpdateStatus(ctx context.Context, deliveryID uuid.UUID, status enums.DeliveryStatus) error {
	if !status.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid delivery status")
	}

	delivery, err := s.Get(ctx, deliveryID)
	if err != nil {
		return err
	}
	if delivery.Status.IsTerminal() {
		return pkgerrors.New(pkgerrors.CodeConflict, "delivery already finalized")
	}
	if delivery.Status == status {
		return nil
	}

	updated, err := s.repo.UpdateStatus(ctx, deliveryID, status)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update delivery status")
	}
	if updated == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "delivery not found")
	}

	s.notify(ctx, statusNotification(delivery, status))
	return nil
}

func (s *service) AssignDriver(ctx context.Context, deliveryID, driverID uuid.UUID) error {
	if driverID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "driver id required")
	}

	delivery, err := s.Get(ctx, deliveryID)
	if err != nil {
		return err
	}
	if delivery.Status.IsTerminal() {
		return pkgerrors.New(pkgerrors.CodeConflict, "delivery already finalized")
	}

	updated, err := s.repo.AssignDriver(ctx, deliveryID, driverID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "assign driver")
	}
	if updated == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "delivery not found")
	}

	s.notify(ctx, notifications.CreateParams{
		UserID:     delivery.UserID,
		Type:       enums.NotificationTypeInfo,
		Title:      "Driver assigned",
		Message:    fmt.Sprintf("A driver has been assigned to delivery %s.", delivery.TrackingNumber),
		DeliveryID: &delivery.ID,
	})
	return nil
}

// notify creates the in-app notification; failures are logged, the delivery
// operation itself already succeeded.
func (s *service) notify(ctx context.Context, params notifications.CreateParams) {
	if s.notifier == nil {
		return
	}
	if _, err := s.notifier.Create(ctx, params); err != nil && s.logg != nil {
		logCtx := s.logg.WithUserID(ctx, params.UserID.String())
		s.logg.Error(logCtx, "deliveries.notify_failed", err)
	}
}

func statusNotification(delivery *models.Delivery, status enums.DeliveryStatus) notifications.CreateParams {
	params := notifications.CreateParams{
		UserID:     delivery.UserID,
		DeliveryID: &delivery.ID,
	}
	switch status {
	case enums.DeliveryStatusInProgress:
		params.Type = enums.NotificationTypeInfo
		params.Title = "Delivery in progress"
		params.Message = fmt.Sprintf("Delivery %s is on its way.", delivery.TrackingNumber)
	case enums.DeliveryStatusDelivered:
		params.Type = enums.NotificationTypeSuccess
		params.Title = "Delivery completed"
		params.Message = fmt.Sprintf("Delivery %s has been delivered.", delivery.TrackingNumber)
	case enums.DeliveryStatusCancelled:
		params.Type = enums.NotificationTypeWarning
		params.Title = "Delivery cancelled"
		params.Message = fmt.Sprintf("Delivery %s was cancelled.", delivery.TrackingNumber)
	default:
		params.Type = enums.NotificationTypeInfo
		params.Title = "Delivery updated"
		params.Message = fmt.Sprintf("Delivery %s status changed to %s.", delivery.TrackingNumber, status)
	}
	return params
}

func newTrackingNumber() string {
	buf := make([]byte, 5)
	if _, err := rand.Read(buf); err != nil {
		return "PT-" + strings.ToUpper(uuid.NewString()[:10])
	}
	return "PT-" + strings.ToUpper(hex.EncodeToString(buf))
}
