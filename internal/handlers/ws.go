package handlers

import (
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/dcastillo/friendhub/internal/logging"
	"github.com/dcastillo/friendhub/internal/realtime"
)

// WSHandler upgrades authenticated requests to websocket connections and ties
// each connection's lifetime to its hub registration: registered on upgrade,
// deregistered when the read loop ends. Channels for the same user are fully
// independent; one closing never affects its siblings.
type WSHandler struct {
	hub      *realtime.Hub
	upgrader websocket.Upgrader
}

func NewWSHandler(hub *realtime.Hub) *WSHandler {
	return &WSHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

func (h *WSHandler) Connect(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written an error response.
		logging.Warn("Websocket upgrade failed", map[string]interface{}{
			"error":   err.Error(),
			"user_id": user.ID.String(),
		})
		return
	}

	ch := realtime.NewWebsocketChannel(conn)
	h.hub.Register(user.ID, ch)
	go ch.WritePump()

	ch.ReadPump()

	h.hub.Deregister(user.ID, ch)
	ch.Close()
}
