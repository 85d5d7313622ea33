package room

import (
	"sync"
	"time"

	"github.com/sudoSubh/Collaborative-whiteboard/internal/domain"
)

const sendBuffer = 256

// Member is one session's seat in a room. Events reach the session
// through Send; the owning connection drains it from its write loop.
type Member struct {
	SessionID string
	Username  string
	Send      chan domain.Envelope
}

func NewMember(sessionID string) *Member {
	return &Member{
		SessionID: sessionID,
		Send:      make(chan domain.Envelope, sendBuffer),
	}
}

// Room holds one whiteboard's membership and drawing history. All
// mutation goes through its methods; the mutex also serializes fan-out
// so members observe events in relay arrival order.
type Room struct {
	ID        string
	CreatedAt time.Time

	mu        sync.Mutex
	members   map[string]*Member
	drawings  []domain.DrawingEvent
	emptiedAt time.Time
	reaped    bool
}

func New(id string) *Room {
	return &Room{
		ID:        id,
		CreatedAt: time.Now(),
		members:   make(map[string]*Member),
	}
}

// Admit adds m to the room, resets the empty marker, and returns the
// state a new member needs: the full drawing replay and the current
// participant list including m itself. It reports false, touching
// nothing, when the room has already been reaped; the caller must then
// resolve a room again through the registry.
//
// Both callbacks run inside the critical section when non-nil. The
// welcome envelope is queued to m first, so the replay always precedes
// any live event in m's channel; the announce envelope goes to every
// other member, so nobody can observe a later event before learning of
// the arrival.
func (r *Room) Admit(m *Member, welcome, announce func(domain.RoomState) (domain.Envelope, bool)) (domain.RoomState, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.reaped {
		return domain.RoomState{}, false
	}

	r.members[m.SessionID] = m
	r.emptiedAt = time.Time{}

	replay := make([]domain.DrawingEvent, len(r.drawings))
	copy(replay, r.drawings)

	state := domain.RoomState{
		RoomID:       r.ID,
		DrawingData:  replay,
		Participants: r.participantsLocked(),
		UserCount:    len(r.members),
	}

	if welcome != nil {
		if env, ok := welcome(state); ok {
			select {
			case m.Send <- env:
			default:
			}
		}
	}
	if announce != nil {
		if env, ok := announce(state); ok {
			r.broadcastLocked(env, m.SessionID)
		}
	}
	return state, true
}

// Remove drops the session from the room. removed is false when the
// session was not a member (a stale or repeated leave). When the room
// just became empty it records the moment and reports it so the caller
// can schedule a reap against that exact timestamp.
func (r *Room) Remove(sessionID string) (removed, becameEmpty bool, emptiedAt time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.members[sessionID]; !ok {
		return false, false, time.Time{}
	}
	delete(r.members, sessionID)
	if len(r.members) == 0 {
		r.emptiedAt = time.Now()
		return true, true, r.emptiedAt
	}
	return true, false, time.Time{}
}

// Broadcast delivers env to every member except the one whose session
// id equals except. Pass an empty string to reach everyone. Sends never
// block: a member with a full or gone buffer simply misses the event.
func (r *Room) Broadcast(env domain.Envelope, except string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.broadcastLocked(env, except)
}

// AppendAndBroadcast records a drawing event and fans it out in one
// critical section, keeping the replay log and live delivery in the
// same order.
func (r *Room) AppendAndBroadcast(ev domain.DrawingEvent, env domain.Envelope, except string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.drawings = append(r.drawings, ev)
	r.broadcastLocked(env, except)
}

// ClearAndBroadcast wipes the drawing history and notifies members.
// Membership is untouched.
func (r *Room) ClearAndBroadcast(env domain.Envelope, except string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.drawings = nil
	r.broadcastLocked(env, except)
}

func (r *Room) broadcastLocked(env domain.Envelope, except string) {
	for id, m := range r.members {
		if id == except {
			continue
		}
		select {
		case m.Send <- env:
		default:
		}
	}
}

// Participants snapshots the member list for broadcast payloads.
func (r *Room) Participants() []domain.Participant {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.participantsLocked()
}

func (r *Room) participantsLocked() []domain.Participant {
	list := make([]domain.Participant, 0, len(r.members))
	for _, m := range r.members {
		list = append(list, domain.Participant{Username: m.Username, SessionID: m.SessionID})
	}
	return list
}

func (r *Room) UserCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.members)
}

// DrawingLog returns a copy of the replay log.
func (r *Room) DrawingLog() []domain.DrawingEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	replay := make([]domain.DrawingEvent, len(r.drawings))
	copy(replay, r.drawings)
	return replay
}

// canReap reports whether the room is still empty and was emptied at
// exactly the snapshot a reap timer captured. A mismatch means the room
// was repopulated, or emptied again at a different time, after the
// timer was set.
func (r *Room) canReap(emptiedAt time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.reapableLocked(emptiedAt)
}

func (r *Room) reapableLocked(emptiedAt time.Time) bool {
	return !r.reaped && len(r.members) == 0 &&
		!r.emptiedAt.IsZero() && r.emptiedAt.Equal(emptiedAt)
}

// reap marks the room dead when the snapshot still matches. Marking
// and the emptiness check share one critical section, and Admit
// refuses marked rooms, so a join holding a pointer resolved before
// the reap can never seat a member in a deleted room.
func (r *Room) reap(emptiedAt time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.reapableLocked(emptiedAt) {
		return false
	}
	r.reaped = true
	return true
}
