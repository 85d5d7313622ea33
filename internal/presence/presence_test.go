package presence

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupPresenceClient(t *testing.T) (*Client, context.Context) {
	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		url = "redis://127.0.0.1:6379/15"
	}

	ctx := context.Background()
	client, err := NewClient(ctx, url)
	if err != nil {
		t.Skipf("Redis not available at %s: %v", url, err)
	}
	require.NoError(t, client.FlushAll(ctx))

	t.Cleanup(func() {
		client.FlushAll(ctx)
		client.Close()
	})
	return client, ctx
}

func TestActiveUserMirror(t *testing.T) {
	client, ctx := setupPresenceClient(t)

	require.NoError(t, client.AddActiveUser(ctx, "alice"))
	require.NoError(t, client.AddActiveUser(ctx, "bob"))

	users, err := client.ActiveUsers(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"alice", "bob"}, users)

	require.NoError(t, client.RemoveActiveUser(ctx, "alice"))
	users, err = client.ActiveUsers(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"bob"}, users)
}

func TestRoomMembershipMirror(t *testing.T) {
	client, ctx := setupPresenceClient(t)

	require.NoError(t, client.AddRoomMember(ctx, "ABC123", "alice"))
	require.NoError(t, client.AddRoomMember(ctx, "ABC123", "bob"))

	members, err := client.RoomMembers(ctx, "ABC123")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"alice", "bob"}, members)

	rooms, err := client.Rooms(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"ABC123"}, rooms)

	require.NoError(t, client.RemoveRoomMember(ctx, "ABC123", "alice"))
	members, err = client.RoomMembers(ctx, "ABC123")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"bob"}, members)
}

func TestDropRoom(t *testing.T) {
	client, ctx := setupPresenceClient(t)

	require.NoError(t, client.AddRoomMember(ctx, "ABC123", "alice"))
	require.NoError(t, client.DropRoom(ctx, "ABC123"))

	members, err := client.RoomMembers(ctx, "ABC123")
	require.NoError(t, err)
	assert.Empty(t, members)

	rooms, err := client.Rooms(ctx)
	require.NoError(t, err)
	assert.Empty(t, rooms)
}
