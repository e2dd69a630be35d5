package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/parceltrack/logistics-backend/api/responses"
	"github.com/parceltrack/logistics-backend/api/validators"
	"github.com/parceltrack/logistics-backend/internal/deliveries"
	"github.com/parceltrack/logistics-backend/pkg/enums"
	pkgerrors "github.com/parceltrack/logistics-backend/pkg/errors"
	"github.com/parceltrack/logistics-backend/pkg/logger"
	"github.com/parceltrack/logistics-backend/pkg/pagination"
)

type createDeliveryRequest struct {
	PickupAddress   string  `json:"pickup_address" validate:"required"`
	DeliveryAddress string  `json:"delivery_address" validate:"required"`
	Weight          *string `json:"weight,omitempty"`
	PackageType     *string `json:"package_type,omitempty"`
	PickupDate      string  `json:"pickup_date" validate:"required"`
}

type updateDeliveryStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

type assignDriverRequest struct {
	DriverID string `json:"driver_id" validate:"required,uuid"`
}

// CreateDelivery schedules a new shipment for the caller.
func CreateDelivery(svc deliveries.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := authedUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body createDeliveryRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		pickupDate, err := time.Parse(time.RFC3339, body.PickupDate)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "pickup_date must be RFC3339"))
			return
		}

		delivery, err := svc.Create(r.Context(), deliveries.CreateParams{
			UserID:          userID,
			PickupAddress:   body.PickupAddress,
			DeliveryAddress: body.DeliveryAddress,
			Weight:          body.Weight,
			PackageType:     body.PackageType,
			PickupDate:      pickupDate,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, delivery)
	}
}

// ListDeliveries returns the caller's shipments, newest first.
func ListDeliveries(svc deliveries.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := authedUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, err := svc.ListForUser(r.Context(), userID, limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

// GetDelivery returns one shipment by id.
func GetDelivery(svc deliveries.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		deliveryID, err := uuid.Parse(chi.URLParam(r, "deliveryID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid delivery id"))
			return
		}

		delivery, err := svc.Get(r.Context(), deliveryID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, delivery)
	}
}

// TrackDelivery resolves a shipment by its public tracking number.
func TrackDelivery(svc deliveries.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		delivery, err := svc.Track(r.Context(), chi.URLParam(r, "trackingNumber"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, delivery)
	}
}

// UpdateDeliveryStatus transitions a shipment and notifies the customer.
func UpdateDeliveryStatus(svc deliveries.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		deliveryID, err := uuid.Parse(chi.URLParam(r, "deliveryID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid delivery id"))
			return
		}

		var body updateDeliveryStatusRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, err := enums.ParseDeliveryStatus(body.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
			return
		}

		if err := svc.UpdateStatus(r.Context(), deliveryID, status); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": string(status)})
	}
}

// AssignDriver attaches a driver to a pending shipment.
func AssignDriver(svc deliveries.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		deliveryID, err := uuid.Parse(chi.URLParam(r, "deliveryID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid delivery id"))
			return
		}

		var body assignDriverRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		driverID, err := uuid.Parse(body.DriverID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid driver id"))
			return
		}

		if err := svc.AssignDriver(r.Context(), deliveryID, driverID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"assigned": true})
	}
}
