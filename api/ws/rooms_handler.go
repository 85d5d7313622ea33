package ws

import (
	"encoding/json"
	"net/http"

	"github.com/sudoSubh/Collaborative-whiteboard/pkg/logger"
	"github.com/sudoSubh/Collaborative-whiteboard/service"
)

// HandleListRooms serves GET /api/rooms: every live room with its
// occupancy and creation time.
func HandleListRooms(relay service.RelayService, logg logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(relay.ListRooms()); err != nil {
			logg.Errorf("[ROOMS HANDLER] Failed to encode room list: %v", err)
		}
	}
}
