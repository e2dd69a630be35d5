package deliveries

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/parceltrack/logistics-backend/pkg/db/models"
	"github.com/parceltrack/logistics-backend/pkg/enums"
)

// Repository exposes persistence helpers for deliveries.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, delivery *models.Delivery) error
	Get(ctx context.Context, deliveryID uuid.UUID) (*models.Delivery, error)
	GetByTrackingNumber(ctx context.Context, trackingNumber string) (*models.Delivery, error)
	ListForUser(ctx context.Context, userID uuid.UUID, limit int) ([]models.Delivery, error)
	UpdateStatus(ctx context.Context, deliveryID uuid.UUID, status enums.DeliveryStatus) (int64, error)
	AssignDriver(ctx context.Context, deliveryID, driverID uuid.UUID) (int64, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a deliveries repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Create(ctx context.Context, delivery *models.Delivery) error {
	return r.db.WithContext(ctx).Create(delivery).Error
}

func (r *repositoryImpl) Get(ctx context.Context, deliveryID uuid.UUID) (*models.Delivery, error) {
	var delivery models.Delivery
	err := r.db.WithContext(ctx).Where("id = ?", deliveryID).First(&delivery).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &delivery, nil
}

func (r *repositoryImpl) GetByTrackingNumber(ctx context.Context, trackingNumber string) (*models.Delivery, error) {
	var delivery models.Delivery
	err := r.db.WithContext(ctx).Where("tracking_number = ?", trackingNumber).First(&delivery).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &delivery, nil
}

func (r *repositoryImpl) ListForUser(ctx context.Context, userID uuid.UUID, limit int) ([]models.Delivery, error) {
	var deliveries []models.Delivery
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&deliveries).Error
	return deliveries, err
}

func (r *repositoryImpl) UpdateStatus(ctx context.Context, deliveryID uuid.UUID, status enums.DeliveryStatus) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Delivery{}).
		Where("id = ?", deliveryID).
		UpdateColumn("status", status)
	return result.RowsAffected, result.Error
}

func (r *repositoryImpl) AssignDriver(ctx context.Context, deliveryID, driverID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Delivery{}).
		Where("id = ?", deliveryID).
		UpdateColumn("driver_id", driverID)
	return result.RowsAffected, result.Error
}
