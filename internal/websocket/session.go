package websocket

import (
	"encoding/json"

	"github.com/gorilla/websocket"

	"github.com/sudoSubh/Collaborative-whiteboard/internal/domain"
	"github.com/sudoSubh/Collaborative-whiteboard/internal/room"
	"github.com/sudoSubh/Collaborative-whiteboard/pkg/logger"
	"github.com/sudoSubh/Collaborative-whiteboard/service"
)

type sessionState int

// A session moves Connecting -> Joining -> Joined -> Left. There is no
// way back to Joining; switching rooms takes a fresh connection.
const (
	stateConnecting sessionState = iota
	stateJoining
	stateJoined
	stateLeft
)

// Session binds one websocket connection to at most one room. All
// state transitions happen on the read pump goroutine, so the fields
// below need no locking.
type Session struct {
	ID     string
	ws     *websocket.Conn
	hub    *Hub
	relay  service.RelayService
	logger logger.Logger

	member *room.Member
	state  sessionState
	roomID string
}

func NewSession(id string, ws *websocket.Conn, hub *Hub, relay service.RelayService, logg logger.Logger) *Session {
	return &Session{
		ID:     id,
		ws:     ws,
		hub:    hub,
		relay:  relay,
		logger: logg,
		member: room.NewMember(id),
		state:  stateConnecting,
	}
}

// ReadPump consumes client frames until the connection drops, then
// tears the session down: leave the room first so no further fan-out
// can target the member, and only then close its send channel.
func (c *Session) ReadPump() {
	defer func() {
		if c.state == stateJoined {
			c.relay.Leave(c.roomID, c.member)
		}
		c.state = stateLeft

		select {
		case c.hub.Unregister <- c:
		case <-c.hub.done:
		}
		close(c.member.Send)
		c.ws.Close()
	}()

	for {
		var env domain.Envelope
		if err := c.ws.ReadJSON(&env); err != nil {
			c.logger.Debugf("session %s read ended: %v", c.ID, err)
			return
		}
		c.dispatch(env)
	}
}

// WritePump drains the member channel onto the wire until the channel
// is closed by ReadPump's teardown.
func (c *Session) WritePump() {
	defer c.ws.Close()

	for env := range c.member.Send {
		if err := c.ws.WriteJSON(env); err != nil {
			c.logger.Debugf("session %s write ended: %v", c.ID, err)
			return
		}
	}
	c.ws.WriteMessage(websocket.CloseMessage, []byte{})
}

func (c *Session) dispatch(env domain.Envelope) {
	switch env.Type {
	case domain.EventCreateRoom, domain.EventJoinRoom, domain.EventJoinRandom:
		c.handleJoin(env)
	case domain.EventDrawing:
		if c.state != stateJoined {
			return
		}
		var ev domain.DrawingEvent
		if err := json.Unmarshal(env.Data, &ev); err != nil {
			c.logger.Debugf("session %s sent bad drawing payload: %v", c.ID, err)
			return
		}
		c.relay.RelayDrawing(c.roomID, c.ID, ev)
	case domain.EventClearCanvas:
		if c.state != stateJoined {
			return
		}
		c.relay.RelayClear(c.roomID, c.ID)
	case domain.EventChatMessage:
		if c.state != stateJoined {
			return
		}
		var msg domain.ChatMessage
		if err := json.Unmarshal(env.Data, &msg); err != nil {
			c.logger.Debugf("session %s sent bad chat payload: %v", c.ID, err)
			return
		}
		c.relay.RelayChat(c.roomID, msg)
	default:
		c.logger.Debugf("session %s sent unknown event %q", c.ID, env.Type)
	}
}

func (c *Session) handleJoin(env domain.Envelope) {
	if c.state != stateConnecting {
		c.logger.Debugf("session %s repeated join intent ignored", c.ID)
		return
	}

	var req domain.JoinRequest
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, &req); err != nil {
			c.logger.Debugf("session %s sent bad join payload: %v", c.ID, err)
			return
		}
	}

	c.state = stateJoining
	var state domain.RoomState
	switch env.Type {
	case domain.EventCreateRoom:
		state = c.relay.CreateAndJoin(c.member, req.Username)
	case domain.EventJoinRoom:
		var err error
		state, err = c.relay.JoinByCode(c.member, req.RoomID, req.Username)
		if err != nil {
			// The client may retry with another code.
			c.state = stateConnecting
			c.send(domain.EventRoomError, domain.RoomError{Error: "Room not found"})
			return
		}
	case domain.EventJoinRandom:
		state = c.relay.JoinRandom(c.member, req.Username)
	}

	c.roomID = state.RoomID
	c.state = stateJoined
}

// send queues an event straight to this session, outside any room.
func (c *Session) send(t domain.EventType, payload interface{}) {
	env, err := domain.NewEnvelope(t, payload)
	if err != nil {
		c.logger.Errorf("failed to encode %s event: %v", t, err)
		return
	}
	select {
	case c.member.Send <- env:
	default:
	}
}
