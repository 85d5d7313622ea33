package presence

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Client mirrors who is connected and which room they sit in into
// Redis, so operators and sibling services can inspect occupancy
// without asking a relay instance. The in-memory registry stays the
// source of truth; mirror errors are reported but never break a join.
type Client struct {
	client *redis.Client
}

func NewClient(ctx context.Context, redisURL string) (*Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opts)
	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Client{client: client}, nil
}

// AddActiveUser adds a user to the active users set.
func (c *Client) AddActiveUser(ctx context.Context, username string) error {
	return c.client.SAdd(ctx, "active_users", username).Err()
}

// RemoveActiveUser removes a user from the active users set.
func (c *Client) RemoveActiveUser(ctx context.Context, username string) error {
	return c.client.SRem(ctx, "active_users", username).Err()
}

// ActiveUsers retrieves all currently connected usernames.
func (c *Client) ActiveUsers(ctx context.Context) ([]string, error) {
	return c.client.SMembers(ctx, "active_users").Result()
}

// AddRoomMember records username as a member of the room and keeps the
// room visible in the all_rooms index.
func (c *Client) AddRoomMember(ctx context.Context, roomID, username string) error {
	if err := c.client.SAdd(ctx, "room:"+roomID, username).Err(); err != nil {
		return fmt.Errorf("failed to add room member: %w", err)
	}
	if err := c.client.SAdd(ctx, "all_rooms", roomID).Err(); err != nil {
		return fmt.Errorf("failed to index room: %w", err)
	}
	return nil
}

// RemoveRoomMember drops username from the room's member set.
func (c *Client) RemoveRoomMember(ctx context.Context, roomID, username string) error {
	return c.client.SRem(ctx, "room:"+roomID, username).Err()
}

// RoomMembers lists the mirrored member set of a room.
func (c *Client) RoomMembers(ctx context.Context, roomID string) ([]string, error) {
	return c.client.SMembers(ctx, "room:"+roomID).Result()
}

// Rooms lists every room id present in the mirror.
func (c *Client) Rooms(ctx context.Context) ([]string, error) {
	return c.client.SMembers(ctx, "all_rooms").Result()
}

// DropRoom removes a deleted room's member set and index entry.
func (c *Client) DropRoom(ctx context.Context, roomID string) error {
	if err := c.client.Del(ctx, "room:"+roomID).Err(); err != nil {
		return fmt.Errorf("failed to drop room set: %w", err)
	}
	return c.client.SRem(ctx, "all_rooms", roomID).Err()
}

// FlushAll wipes the mirror. Test helper.
func (c *Client) FlushAll(ctx context.Context) error {
	return c.client.FlushAll(ctx).Err()
}

func (c *Client) Close() error {
	return c.client.Close()
}
