package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/parceltrack/logistics-backend/api/middleware"
	"github.com/parceltrack/logistics-backend/api/responses"
	"github.com/parceltrack/logistics-backend/api/validators"
	"github.com/parceltrack/logistics-backend/internal/tickets"
	"github.com/parceltrack/logistics-backend/pkg/enums"
	pkgerrors "github.com/parceltrack/logistics-backend/pkg/errors"
	"github.com/parceltrack/logistics-backend/pkg/logger"
	"github.com/parceltrack/logistics-backend/pkg/pagination"
)

type createTicketRequest struct {
	Subject    string  `json:"subject" validate:"required"`
	Body       string  `json:"body" validate:"required"`
	DeliveryID *string `json:"delivery_id,omitempty"`
}

type replyTicketRequest struct {
	Body string `json:"body" validate:"required"`
}

type updateTicketStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// CreateTicket opens a support ticket for the caller.
func CreateTicket(svc tickets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := authedUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body createTicketRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params := tickets.CreateParams{
			UserID:  userID,
			Subject: body.Subject,
			Body:    body.Body,
		}
		if body.DeliveryID != nil {
			deliveryID, err := uuid.Parse(*body.DeliveryID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid delivery id"))
				return
			}
			params.DeliveryID = &deliveryID
		}

		ticket, err := svc.Create(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, ticket)
	}
}

// ListTickets returns the caller's tickets, newest first.
func ListTickets(svc tickets.Service, logg *logger.Logger) http.HandlerFunc {
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

// GetTicket returns a ticket with its conversation.
func GetTicket(svc tickets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ticketID, err := uuid.Parse(chi.URLParam(r, "ticketID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid ticket id"))
			return
		}

		ticket, err := svc.Get(r.Context(), ticketID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, ticket)
	}
}

// ReplyTicket appends a reply; agent replies notify the customer.
func ReplyTicket(svc tickets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := authedUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		ticketID, err := uuid.Parse(chi.URLParam(r, "ticketID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid ticket id"))
			return
		}

		var body replyTicketRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		reply, err := svc.Reply(r.Context(), tickets.ReplyParams{
			TicketID:   ticketID,
			AuthorID:   userID,
			AuthorRole: enums.UserRole(middleware.RoleFromContext(r.Context())),
			Body:       body.Body,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, reply)
	}
}

// UpdateTicketStatus moves a ticket through its workflow.
func UpdateTicketStatus(svc tickets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ticketID, err := uuid.Parse(chi.URLParam(r, "ticketID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid ticket id"))
			return
		}

		var body updateTicketStatusRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, err := enums.ParseTicketStatus(body.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
			return
		}

		if err := svc.UpdateStatus(r.Context(), ticketID, status); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": string(status)})
	}
}
