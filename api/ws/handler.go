package ws

import (
	"net/http"

	"github.com/google/uuid"
	gws "github.com/gorilla/websocket"

	"github.com/sudoSubh/Collaborative-whiteboard/internal/websocket"
	"github.com/sudoSubh/Collaborative-whiteboard/pkg/logger"
	"github.com/sudoSubh/Collaborative-whiteboard/service"
)

var upgrader = gws.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

func HandleWebSocket(
	hub *websocket.Hub,
	relay service.RelayService,
	logg logger.Logger,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logg.Errorf("[WS HANDLER] Upgrade error: %v", err)
			return
		}

		sessionID := uuid.NewString()
		session := websocket.NewSession(sessionID, conn, hub, relay, logg)

		select {
		case hub.Register <- session:
		case <-hub.Done():
			conn.Close()
			return
		}
		logg.Infof("[WS HANDLER] New connection from %s (session=%s)", conn.RemoteAddr(), sessionID)

		go session.ReadPump()
		go session.WritePump()
	}
}
