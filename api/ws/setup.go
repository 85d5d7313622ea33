package ws

import (
	"context"
	"net/http"

	"github.com/sudoSubh/Collaborative-whiteboard/internal/websocket"
	"github.com/sudoSubh/Collaborative-whiteboard/pkg/logger"
	"github.com/sudoSubh/Collaborative-whiteboard/service"
)

type WSConfig struct {
	Relay   service.RelayService
	Hub     *websocket.Hub
	RootCtx context.Context
}

func SetupRoutes(cfg WSConfig) http.Handler {
	mux := http.NewServeMux()
	log := logger.FromContext(cfg.RootCtx).WithModule("websocket")
	mux.HandleFunc("/ws", HandleWebSocket(cfg.Hub, cfg.Relay, log))
	mux.HandleFunc("/api/rooms", HandleListRooms(cfg.Relay, log))
	return mux
}
