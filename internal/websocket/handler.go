package websocket

import (
	"log/slog"
	"net/http"

	ws "github.com/coder/websocket"

	"github.com/dukerupert/habitloop/internal/auth"
)

// HandleWebSocket upgrades an authenticated request and serves the caller's
// change feed on it until the peer disconnects.
func HandleWebSocket(hub *Hub, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := auth.UserID(r.Context())
		if userID == 0 {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		conn, err := ws.Accept(w, r, &ws.AcceptOptions{
			InsecureSkipVerify: true, // CLI clients send no Origin
		})
		if err != nil {
			logger.Warn("websocket accept", "user_id", userID, "error", err)
			return
		}

		logger.Debug("feed connected", "user_id", userID)
		NewClient(hub, conn, userID).Run(r.Context())
		logger.Debug("feed disconnected", "user_id", userID)
	}
}
