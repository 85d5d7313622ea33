package room

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sudoSubh/Collaborative-whiteboard/pkg/logger"
)

func TestReaperDeletesRoomLeftEmpty(t *testing.T) {
	registry := newTestRegistry(10)
	reaper := NewReaper(registry, 20*time.Millisecond, logger.NewLogger("error", ""))

	rm := registry.CreateRoom()
	rm.Admit(NewMember("s1"), nil, nil)
	_, becameEmpty, emptiedAt := rm.Remove("s1")
	require.True(t, becameEmpty)

	reaper.Schedule(rm.ID, emptiedAt)

	assert.Eventually(t, func() bool {
		_, ok := registry.GetRoom(rm.ID)
		return !ok
	}, time.Second, 5*time.Millisecond)
}

func TestReaperSparesRepopulatedRoom(t *testing.T) {
	registry := newTestRegistry(10)
	reaper := NewReaper(registry, 20*time.Millisecond, logger.NewLogger("error", ""))

	rm := registry.CreateRoom()
	m := NewMember("s1")
	rm.Admit(m, nil, nil)
	_, becameEmpty, emptiedAt := rm.Remove("s1")
	require.True(t, becameEmpty)

	reaper.Schedule(rm.ID, emptiedAt)
	rm.Admit(m, nil, nil) // rejoin before the grace period elapses

	time.Sleep(60 * time.Millisecond)
	_, ok := registry.GetRoom(rm.ID)
	assert.True(t, ok, "repopulated room must not be reaped by a stale timer")
}
