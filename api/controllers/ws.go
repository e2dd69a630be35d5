package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/parceltrack/logistics-backend/api/responses"
	"github.com/parceltrack/logistics-backend/internal/push"
	pkgAuth "github.com/parceltrack/logistics-backend/pkg/auth"
	"github.com/parceltrack/logistics-backend/pkg/config"
	pkgerrors "github.com/parceltrack/logistics-backend/pkg/errors"
	"github.com/parceltrack/logistics-backend/pkg/logger"
)

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Cross-origin policy is enforced by the CORS middleware for REST; the
	// websocket handshake authenticates with a signed token instead.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// NotificationSocket upgrades to a websocket and registers the connection
// with the push hub. Browsers cannot set headers on websocket handshakes,
// so the JWT rides in the token query parameter. The path user id must
// match the token's subject.
func NotificationSocket(hub *push.Hub, cfg config.JWTConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimSpace(r.URL.Query().Get("token"))
		if token == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
			return
		}

		claims, err := pkgAuth.ParseAccessToken(cfg, token)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
			return
		}

		pathUserID := chi.URLParam(r, "userID")
		if pathUserID != claims.UserID.String() {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "token does not match requested stream"))
			return
		}

		conn, err := wsUpgrader.Upgrade(w, r, nil)
		if err != nil {
			// Upgrade already wrote the handshake failure.
			if logg != nil {
				logg.Error(r.Context(), "ws.upgrade_failed", err)
			}
			return
		}

		userID := claims.UserID.String()
		hub.Register(userID, conn)
		if logg != nil {
			logCtx := logg.WithUserID(r.Context(), userID)
			logg.Info(logCtx, "ws.connected")
		}

		// The stream is server-to-client only; the read loop exists to
		// detect the peer closing.
		go func() {
			defer func() {
				hub.Unregister(userID, conn)
				_ = conn.Close()
			}()
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()
	}
}
