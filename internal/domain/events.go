package domain

import (
	"encoding/json"
	"time"
)

type EventType string

// Client -> server intents.
const (
	EventCreateRoom  EventType = "create-room"
	EventJoinRoom    EventType = "join-room"
	EventJoinRandom  EventType = "join-random"
	EventDrawing     EventType = "drawing"
	EventClearCanvas EventType = "clear-canvas"
	EventChatMessage EventType = "chat-message"
)

// Server -> client results and broadcasts. Drawing, clear-canvas and
// chat-message are re-emitted under the same names they arrived with.
const (
	EventRoomCreated EventType = "room-created"
	EventRoomJoined  EventType = "room-joined"
	EventRoomError   EventType = "room-error"
	EventUserJoined  EventType = "user-joined"
	EventUserLeft    EventType = "user-left"
)

// Envelope is the wire frame for every websocket message in both
// directions. Data holds the event payload still in JSON form so a
// single marshaled envelope can be fanned out to many sessions.
type Envelope struct {
	Type EventType       `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// NewEnvelope marshals payload into an Envelope of the given type.
func NewEnvelope(t EventType, payload interface{}) (Envelope, error) {
	if payload == nil {
		return Envelope{Type: t}, nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{Type: t, Data: data}, nil
}

// JoinRequest is the payload of the three join intents. RoomID is only
// meaningful for join-room.
type JoinRequest struct {
	RoomID   string `json:"roomId,omitempty"`
	Username string `json:"username"`
}

// DrawingEvent is a single stroke segment. The relay never interprets
// it, the fields exist so the payload survives a decode/encode round
// trip byte-for-byte in meaning.
type DrawingEvent struct {
	X0    float64 `json:"x0"`
	Y0    float64 `json:"y0"`
	X1    float64 `json:"x1"`
	Y1    float64 `json:"y1"`
	Color string  `json:"color"`
	Size  float64 `json:"size"`
	Tool  string  `json:"tool"`
}

// ChatMessage carries a room chat line. Timestamp is milliseconds since
// epoch, assigned by the server when the client omits it.
type ChatMessage struct {
	Username  string `json:"username"`
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp,omitempty"`
}

type Participant struct {
	Username  string `json:"username"`
	SessionID string `json:"sessionId"`
}

// RoomState is the payload of room-created and room-joined: everything
// a fresh member needs to render the current canvas.
type RoomState struct {
	RoomID       string         `json:"roomId"`
	DrawingData  []DrawingEvent `json:"drawingData"`
	Participants []Participant  `json:"participants"`
	UserCount    int            `json:"userCount"`
}

type RoomError struct {
	Error string `json:"error"`
}

type UserJoined struct {
	Username     string        `json:"username"`
	UserCount    int           `json:"userCount"`
	Participants []Participant `json:"participants"`
}

type UserLeft struct {
	UserCount    int           `json:"userCount"`
	Participants []Participant `json:"participants"`
}

// RoomInfo is one entry of the GET /api/rooms listing.
type RoomInfo struct {
	ID        string    `json:"id"`
	UserCount int       `json:"userCount"`
	CreatedAt time.Time `json:"createdAt"`
}
