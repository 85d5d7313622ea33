package bus

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/sudoSubh/Collaborative-whiteboard/internal/domain"
)

// Client bridges room events between relay instances over NATS. Each
// live local room holds one subscription on its subject; events carry
// the publishing instance's id so a client never re-applies its own
// traffic.
type Client struct {
	Conn       *nats.Conn
	InstanceID string

	mu         sync.Mutex
	subMapping map[string]*nats.Subscription
}

func NewClient(url string) (*Client, error) {
	nc, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return &Client{
		Conn:       nc,
		InstanceID: uuid.NewString(),
		subMapping: make(map[string]*nats.Subscription),
	}, nil
}

func roomSubject(roomID string) string {
	return fmt.Sprintf("board.room.%s", roomID)
}

// roomEvent is the wire shape on the bus: an envelope plus the origin
// instance id used for echo suppression.
type roomEvent struct {
	Origin string           `json:"origin"`
	Type   domain.EventType `json:"type"`
	Data   json.RawMessage  `json:"data,omitempty"`
}

// PublishRoom forwards env to every other instance subscribed to the
// room's subject.
func (c *Client) PublishRoom(roomID string, env domain.Envelope) error {
	data, err := json.Marshal(roomEvent{
		Origin: c.InstanceID,
		Type:   env.Type,
		Data:   env.Data,
	})
	if err != nil {
		return fmt.Errorf("failed to serialize room event: %w", err)
	}
	return c.Conn.Publish(roomSubject(roomID), data)
}

// SubscribeRoom starts delivering other instances' events for roomID to
// handleFunc. Subscribing a room twice is a no-op.
func (c *Client) SubscribeRoom(roomID string, handleFunc func(domain.Envelope)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.subMapping[roomID]; exists {
		return nil
	}

	sub, err := c.Conn.Subscribe(roomSubject(roomID), func(msg *nats.Msg) {
		var ev roomEvent
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			return // skip invalid messages
		}
		if ev.Origin == c.InstanceID {
			return
		}
		handleFunc(domain.Envelope{Type: ev.Type, Data: ev.Data})
	})
	if err != nil {
		return fmt.Errorf("failed to subscribe to room %s: %w", roomID, err)
	}

	c.subMapping[roomID] = sub
	return nil
}

// UnsubscribeRoom tears down the room's subscription if one exists.
func (c *Client) UnsubscribeRoom(roomID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if sub, exists := c.subMapping[roomID]; exists {
		if err := sub.Unsubscribe(); err != nil {
			return fmt.Errorf("failed to unsubscribe: %w", err)
		}
		delete(c.subMapping, roomID)
	}
	return nil
}

// CleanupSubscriptions drops every active subscription, ignoring
// unsubscribe errors so shutdown always completes.
func (c *Client) CleanupSubscriptions() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for roomID, sub := range c.subMapping {
		_ = sub.Unsubscribe()
		delete(c.subMapping, roomID)
	}
}

func (c *Client) Close() {
	c.CleanupSubscriptions()
	c.Conn.Close()
}
