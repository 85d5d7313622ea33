package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/sudoSubh/Collaborative-whiteboard/internal/bus"
	"github.com/sudoSubh/Collaborative-whiteboard/internal/domain"
	"github.com/sudoSubh/Collaborative-whiteboard/internal/presence"
	"github.com/sudoSubh/Collaborative-whiteboard/internal/room"
	"github.com/sudoSubh/Collaborative-whiteboard/pkg/logger"
)

const (
	maxChatLength     = 500
	maxUsernameLength = 32
	defaultUsername   = "Anonymous"
)

// RelayService is the fan-out protocol between sessions sharing a
// room: it admits sessions, replays drawing history to joiners, and
// forwards drawing, clear and chat events to the right recipient sets.
type RelayService interface {
	// CreateAndJoin makes a fresh room and seats m in it. Never fails.
	CreateAndJoin(m *room.Member, username string) domain.RoomState
	// JoinByCode seats m in an existing room, or returns
	// room.ErrRoomNotFound without touching any state.
	JoinByCode(m *room.Member, roomID, username string) (domain.RoomState, error)
	// JoinRandom seats m in a room with free capacity, creating one
	// when every room is full. Never fails.
	JoinRandom(m *room.Member, username string) domain.RoomState

	RelayDrawing(roomID, senderID string, ev domain.DrawingEvent)
	RelayClear(roomID, senderID string)
	RelayChat(roomID string, msg domain.ChatMessage)

	// Leave removes m from its room, notifies the remaining members,
	// and schedules a reap when the room just became empty.
	Leave(roomID string, m *room.Member)

	ListRooms() []domain.RoomInfo
}

type relayService struct {
	ctx      context.Context
	registry *room.Registry
	reaper   *room.Reaper
	bus      *bus.Client
	presence *presence.Client
	logger   logger.Logger
}

// NewRelayService wires the relay over the registry and reaper.
// busClient and presenceClient may be nil for single-instance,
// mirror-less operation.
func NewRelayService(
	ctx context.Context,
	registry *room.Registry,
	reaper *room.Reaper,
	busClient *bus.Client,
	presenceClient *presence.Client,
) RelayService {
	s := &relayService{
		ctx:      ctx,
		registry: registry,
		reaper:   reaper,
		bus:      busClient,
		presence: presenceClient,
		logger:   logger.FromContext(ctx).WithModule("relay"),
	}

	if s.bus != nil {
		registry.OnCreate = func(roomID string) {
			err := s.bus.SubscribeRoom(roomID, func(env domain.Envelope) {
				s.applyRemote(roomID, env)
			})
			if err != nil {
				s.logger.Errorf("bus subscribe for room %s failed: %v", roomID, err)
			}
		}
	}
	if s.bus != nil || s.presence != nil {
		registry.OnDelete = func(roomID string) {
			if s.bus != nil {
				if err := s.bus.UnsubscribeRoom(roomID); err != nil {
					s.logger.Errorf("bus unsubscribe for room %s failed: %v", roomID, err)
				}
			}
			if s.presence != nil {
				if err := s.presence.DropRoom(s.ctx, roomID); err != nil {
					s.logger.Errorf("presence mirror drop room failed: %v", err)
				}
			}
		}
	}

	return s
}

func (s *relayService) CreateAndJoin(m *room.Member, username string) domain.RoomState {
	for {
		rm := s.registry.CreateRoom()
		if state, ok := s.admit(rm, m, username, domain.EventRoomCreated); ok {
			return state
		}
	}
}

func (s *relayService) JoinByCode(m *room.Member, roomID, username string) (domain.RoomState, error) {
	code := room.NormalizeCode(roomID)
	for {
		rm, ok := s.registry.GetRoom(code)
		if !ok {
			return domain.RoomState{}, room.ErrRoomNotFound
		}
		if state, ok := s.admit(rm, m, username, domain.EventRoomJoined); ok {
			return state, nil
		}
		// The room was reaped between lookup and admission; the next
		// lookup sees it gone.
	}
}

func (s *relayService) JoinRandom(m *room.Member, username string) domain.RoomState {
	for {
		rm := s.registry.PickRoomForRandomJoin()
		if state, ok := s.admit(rm, m, username, domain.EventRoomJoined); ok {
			return state
		}
	}
}

// admit seats the member and tells everyone already in the room, both
// inside the room's critical section so every existing member sees the
// arrival before any event the joiner causes. The joiner learns about
// itself from the queued result envelope, not from the user-joined
// broadcast. Reports false when the room was reaped first; the caller
// resolves a room again.
func (s *relayService) admit(rm *room.Room, m *room.Member, username string, result domain.EventType) (domain.RoomState, bool) {
	m.Username = sanitizeUsername(username)
	state, ok := rm.Admit(m,
		func(st domain.RoomState) (domain.Envelope, bool) {
			return s.envelope(result, st)
		},
		func(st domain.RoomState) (domain.Envelope, bool) {
			return s.envelope(domain.EventUserJoined, domain.UserJoined{
				Username:     m.Username,
				UserCount:    st.UserCount,
				Participants: st.Participants,
			})
		})
	if !ok {
		s.logger.Debugf("room %s reaped before %s could join", rm.ID, m.Username)
		return domain.RoomState{}, false
	}

	s.logger.Infof("%s joined room %s (%d members)", m.Username, rm.ID, state.UserCount)
	s.mirrorJoin(rm.ID, m.Username)
	return state, true
}

func (s *relayService) RelayDrawing(roomID, senderID string, ev domain.DrawingEvent) {
	rm, ok := s.registry.GetRoom(roomID)
	if !ok {
		return
	}
	env, ok := s.envelope(domain.EventDrawing, ev)
	if !ok {
		return
	}
	rm.AppendAndBroadcast(ev, env, senderID)
	s.publishBus(roomID, env)
}

func (s *relayService) RelayClear(roomID, senderID string) {
	rm, ok := s.registry.GetRoom(roomID)
	if !ok {
		return
	}
	env := domain.Envelope{Type: domain.EventClearCanvas}
	rm.ClearAndBroadcast(env, senderID)
	s.publishBus(roomID, env)
}

func (s *relayService) RelayChat(roomID string, msg domain.ChatMessage) {
	rm, ok := s.registry.GetRoom(roomID)
	if !ok {
		return
	}
	// Missing pieces make the message a no-op, not an error.
	if msg.Username == "" || msg.Message == "" {
		s.logger.Debugf("dropping malformed chat message in room %s", roomID)
		return
	}
	msg.Message = truncateRunes(msg.Message, maxChatLength)
	if msg.Timestamp == 0 {
		msg.Timestamp = time.Now().UnixMilli()
	}

	env, ok := s.envelope(domain.EventChatMessage, msg)
	if !ok {
		return
	}
	// Chat reaches the sender too: its UI shows the authoritative,
	// server-timestamped copy. Nothing is retained for replay.
	rm.Broadcast(env, "")
	s.publishBus(roomID, env)
}

func (s *relayService) Leave(roomID string, m *room.Member) {
	rm, ok := s.registry.GetRoom(roomID)
	if !ok {
		return
	}

	removed, becameEmpty, emptiedAt := rm.Remove(m.SessionID)
	if !removed {
		return
	}
	s.logger.Infof("%s left room %s", m.Username, roomID)
	s.mirrorLeave(roomID, m.Username)

	if becameEmpty {
		s.reaper.Schedule(roomID, emptiedAt)
		return
	}

	if env, ok := s.envelope(domain.EventUserLeft, domain.UserLeft{
		UserCount:    rm.UserCount(),
		Participants: rm.Participants(),
	}); ok {
		rm.Broadcast(env, m.SessionID)
	}
}

func (s *relayService) ListRooms() []domain.RoomInfo {
	return s.registry.ListRooms()
}

// applyRemote feeds an event published by a sibling instance into the
// local room. Membership events stay instance-local because the
// participant lists they carry only describe one instance.
func (s *relayService) applyRemote(roomID string, env domain.Envelope) {
	rm, ok := s.registry.GetRoom(roomID)
	if !ok {
		return
	}
	switch env.Type {
	case domain.EventDrawing:
		var ev domain.DrawingEvent
		if err := json.Unmarshal(env.Data, &ev); err != nil {
			return
		}
		rm.AppendAndBroadcast(ev, env, "")
	case domain.EventClearCanvas:
		rm.ClearAndBroadcast(env, "")
	case domain.EventChatMessage:
		rm.Broadcast(env, "")
	}
}

func (s *relayService) envelope(t domain.EventType, payload interface{}) (domain.Envelope, bool) {
	env, err := domain.NewEnvelope(t, payload)
	if err != nil {
		s.logger.Errorf("failed to encode %s event: %v", t, err)
		return domain.Envelope{}, false
	}
	return env, true
}

func (s *relayService) publishBus(roomID string, env domain.Envelope) {
	if s.bus == nil {
		return
	}
	if err := s.bus.PublishRoom(roomID, env); err != nil {
		s.logger.Errorf("bus publish for room %s failed: %v", roomID, err)
	}
}

func (s *relayService) mirrorJoin(roomID, username string) {
	if s.presence == nil {
		return
	}
	if err := s.presence.AddActiveUser(s.ctx, username); err != nil {
		s.logger.Errorf("presence mirror add user failed: %v", err)
	}
	if err := s.presence.AddRoomMember(s.ctx, roomID, username); err != nil {
		s.logger.Errorf("presence mirror join failed: %v", err)
	}
}

func (s *relayService) mirrorLeave(roomID, username string) {
	if s.presence == nil {
		return
	}
	if err := s.presence.RemoveRoomMember(s.ctx, roomID, username); err != nil {
		s.logger.Errorf("presence mirror leave failed: %v", err)
	}
	if err := s.presence.RemoveActiveUser(s.ctx, username); err != nil {
		s.logger.Errorf("presence mirror remove user failed: %v", err)
	}
}

func sanitizeUsername(username string) string {
	username = strings.TrimSpace(username)
	if username == "" {
		return defaultUsername
	}
	return truncateRunes(username, maxUsernameLength)
}

func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
