package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/parceltrack/logistics-backend/api/controllers"
	"github.com/parceltrack/logistics-backend/api/middleware"
	"github.com/parceltrack/logistics-backend/internal/deliveries"
	"github.com/parceltrack/logistics-backend/internal/notifications"
	"github.com/parceltrack/logistics-backend/internal/push"
	"github.com/parceltrack/logistics-backend/internal/tickets"
	"github.com/parceltrack/logistics-backend/pkg/config"
	"github.com/parceltrack/logistics-backend/pkg/enums"
	"github.com/parceltrack/logistics-backend/pkg/logger"
)

// Deps bundles everything the router needs.
type Deps struct {
	Cfg           *config.Config
	Logg          *logger.Logger
	Pingers       map[string]controllers.Pinger
	Hub           *push.Hub
	Notifications notifications.Service
	Deliveries    deliveries.Service
	Tickets       tickets.Service
}

// NewRouter builds the API handler. The notification and websocket paths
// keep the trailing slashes of the legacy contract.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(d.Logg),
		middleware.RequestID(d.Logg),
		middleware.Logging(d.Logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(d.Cfg))
		r.Get("/ready", controllers.HealthReady(d.Cfg, d.Logg, d.Pingers))
	})
	r.Handle("/metrics", promhttp.Handler())

	// Websocket handshake authenticates with a token query parameter, not
	// the Authorization header, so it sits outside the Auth middleware.
	r.Get("/ws/notifications/{userID}/", controllers.NotificationSocket(d.Hub, d.Cfg.JWT, d.Logg))

	// Public tracking lookup.
	r.Get("/api/track/{trackingNumber}/", controllers.TrackDelivery(d.Deliveries, d.Logg))

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Auth(d.Cfg.JWT, d.Logg))

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(d.Notifications, d.Logg))
			r.Get("/unread-count/", controllers.NotificationUnreadCount(d.Notifications, d.Logg))
			r.Post("/read-all/", controllers.MarkAllNotificationsRead(d.Notifications, d.Logg))
			r.Get("/{notificationID}/", controllers.GetNotification(d.Notifications, d.Logg))
			r.Post("/{notificationID}/read/", controllers.MarkNotificationRead(d.Notifications, d.Logg))
			r.Delete("/{notificationID}/delete/", controllers.DeleteNotification(d.Notifications, d.Logg))
		})

		r.Route("/deliveries", func(r chi.Router) {
			r.Get("/", controllers.ListDeliveries(d.Deliveries, d.Logg))
			r.Post("/", controllers.CreateDelivery(d.Deliveries, d.Logg))
			r.Get("/{deliveryID}/", controllers.GetDelivery(d.Deliveries, d.Logg))
			r.With(middleware.RequireRole(string(enums.UserRoleDriver), d.Logg)).
				Post("/{deliveryID}/status/", controllers.UpdateDeliveryStatus(d.Deliveries, d.Logg))
			r.With(middleware.RequireRole(string(enums.UserRoleAdmin), d.Logg)).
				Post("/{deliveryID}/assign/", controllers.AssignDriver(d.Deliveries, d.Logg))
		})

		r.Route("/tickets", func(r chi.Router) {
			r.Get("/", controllers.ListTickets(d.Tickets, d.Logg))
			r.Post("/", controllers.CreateTicket(d.Tickets, d.Logg))
			r.Get("/{ticketID}/", controllers.GetTicket(d.Tickets, d.Logg))
			r.Post("/{ticketID}/reply/", controllers.ReplyTicket(d.Tickets, d.Logg))
			r.With(middleware.RequireRole(string(enums.UserRoleAgent), d.Logg)).
				Post("/{ticketID}/status/", controllers.UpdateTicketStatus(d.Tickets, d.Logg))
		})
	})

	return r
}
