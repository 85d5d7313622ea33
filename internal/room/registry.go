package room

import (
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/sudoSubh/Collaborative-whiteboard/internal/domain"
	"github.com/sudoSubh/Collaborative-whiteboard/pkg/logger"
)

// ErrRoomNotFound is returned when a join references an unknown code.
var ErrRoomNotFound = errors.New("room not found")

// Registry owns the live room map. It is the only writer of that map;
// rooms guard their own internals, so lookups from different
// connections do not contend beyond the registry read lock.
type Registry struct {
	mu       sync.RWMutex
	rooms    map[string]*Room
	capacity int
	log      logger.Logger

	// OnCreate and OnDelete, when set, fire outside the registry lock
	// after a room is inserted or removed. Set once during wiring,
	// before any traffic. Used to attach and detach the bus bridge.
	OnCreate func(roomID string)
	OnDelete func(roomID string)
}

// NewRegistry builds an empty registry. capacity is the member-count
// ceiling used only by random-join placement; join-by-code is uncapped.
func NewRegistry(capacity int, log logger.Logger) *Registry {
	return &Registry{
		rooms:    make(map[string]*Room),
		capacity: capacity,
		log:      log.WithModule("registry"),
	}
}

// CreateRoom inserts a fresh empty room under a newly generated code
// and returns it. Collisions are retried; at 36^6 codes they are
// effectively theoretical for the live-room counts this serves.
func (g *Registry) CreateRoom() *Room {
	g.mu.Lock()
	var id string
	for {
		id = generateCode()
		if _, taken := g.rooms[id]; !taken {
			break
		}
	}
	rm := New(id)
	g.rooms[id] = rm
	g.mu.Unlock()

	g.log.Infof("created room %s", id)
	if g.OnCreate != nil {
		g.OnCreate(id)
	}
	return rm
}

// GetRoom looks up a room by its normalized code.
func (g *Registry) GetRoom(roomID string) (*Room, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	rm, ok := g.rooms[roomID]
	return rm, ok
}

// PickRoomForRandomJoin returns a uniformly chosen room whose member
// count is below the capacity ceiling, creating a new room when none
// qualifies. The count is checked at selection time only.
func (g *Registry) PickRoomForRandomJoin() *Room {
	g.mu.RLock()
	candidates := make([]*Room, 0, len(g.rooms))
	for _, rm := range g.rooms {
		if rm.UserCount() < g.capacity {
			candidates = append(candidates, rm)
		}
	}
	g.mu.RUnlock()

	if len(candidates) == 0 {
		return g.CreateRoom()
	}
	return candidates[rand.Intn(len(candidates))]
}

// DeleteRoom removes the room. Calling it for an id that is already
// gone is a no-op.
func (g *Registry) DeleteRoom(roomID string) {
	g.mu.Lock()
	_, existed := g.rooms[roomID]
	delete(g.rooms, roomID)
	g.mu.Unlock()

	if existed {
		g.log.Infof("deleted room %s", roomID)
		if g.OnDelete != nil {
			g.OnDelete(roomID)
		}
	}
}

// ReapIfStillEmpty deletes the room only when it is still present,
// still empty, and was emptied at exactly emptiedAt. Reports whether a
// deletion happened. A false return is the benign stale-timer case.
// The room is tombstoned before the map delete, so an in-flight join
// that already resolved the pointer gets refused by Admit rather than
// seated in a room the registry no longer lists.
func (g *Registry) ReapIfStillEmpty(roomID string, emptiedAt time.Time) bool {
	g.mu.Lock()
	rm, ok := g.rooms[roomID]
	if !ok || !rm.reap(emptiedAt) {
		g.mu.Unlock()
		return false
	}
	delete(g.rooms, roomID)
	g.mu.Unlock()

	g.log.Infof("reaped empty room %s", roomID)
	if g.OnDelete != nil {
		g.OnDelete(roomID)
	}
	return true
}

// ListRooms snapshots every live room for the /api/rooms listing.
func (g *Registry) ListRooms() []domain.RoomInfo {
	g.mu.RLock()
	rooms := make([]*Room, 0, len(g.rooms))
	for _, rm := range g.rooms {
		rooms = append(rooms, rm)
	}
	g.mu.RUnlock()

	list := make([]domain.RoomInfo, 0, len(rooms))
	for _, rm := range rooms {
		list = append(list, domain.RoomInfo{
			ID:        rm.ID,
			UserCount: rm.UserCount(),
			CreatedAt: rm.CreatedAt,
		})
	}
	return list
}

// Len reports the number of live rooms.
func (g *Registry) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.rooms)
}
