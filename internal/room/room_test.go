package room

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sudoSubh/Collaborative-whiteboard/internal/domain"
)

func stroke(n int) domain.DrawingEvent {
	return domain.DrawingEvent{X0: float64(n), Y0: float64(n), X1: float64(n + 1), Y1: float64(n + 1), Color: "#000000", Size: 2, Tool: "pen"}
}

func drawingEnvelope(t *testing.T, ev domain.DrawingEvent) domain.Envelope {
	env, err := domain.NewEnvelope(domain.EventDrawing, ev)
	require.NoError(t, err)
	return env
}

func TestAdmitAndRemoveLifecycle(t *testing.T) {
	rm := New("ABC123")

	alice := NewMember("s1")
	alice.Username = "alice"
	bob := NewMember("s2")
	bob.Username = "bob"

	state, _ := rm.Admit(alice, nil, nil)
	assert.Equal(t, "ABC123", state.RoomID)
	assert.Equal(t, 1, state.UserCount)

	state, _ = rm.Admit(bob, nil, nil)
	assert.Equal(t, 2, state.UserCount)
	assert.ElementsMatch(t, []domain.Participant{
		{Username: "alice", SessionID: "s1"},
		{Username: "bob", SessionID: "s2"},
	}, state.Participants)

	_, becameEmpty, _ := rm.Remove("s1")
	assert.False(t, becameEmpty)
	assert.Equal(t, 1, rm.UserCount())

	_, becameEmpty, emptiedAt := rm.Remove("s2")
	assert.True(t, becameEmpty)
	assert.False(t, emptiedAt.IsZero())
	assert.True(t, rm.canReap(emptiedAt))

	// A rejoin before the reap fires invalidates the snapshot.
	rm.Admit(alice, nil, nil)
	assert.False(t, rm.canReap(emptiedAt))
}

func TestRemoveUnknownSessionIsNoop(t *testing.T) {
	rm := New("ABC123")
	m := NewMember("s1")
	rm.Admit(m, nil, nil)

	removed, becameEmpty, emptiedAt := rm.Remove("missing")
	assert.False(t, removed)
	assert.False(t, becameEmpty)
	assert.True(t, emptiedAt.IsZero())
	assert.Equal(t, 1, rm.UserCount())
}

func TestAdmitQueuesWelcomeBeforeLiveEvents(t *testing.T) {
	rm := New("ABC123")
	first := NewMember("s1")
	rm.Admit(first, nil, nil)

	for i := 0; i < 3; i++ {
		rm.AppendAndBroadcast(stroke(i), drawingEnvelope(t, stroke(i)), "s1")
	}

	joiner := NewMember("s2")
	welcome, err := domain.NewEnvelope(domain.EventRoomJoined, nil)
	require.NoError(t, err)
	state, admitted := rm.Admit(joiner, func(st domain.RoomState) (domain.Envelope, bool) {
		require.Len(t, st.DrawingData, 3)
		return welcome, true
	}, nil)
	require.True(t, admitted)

	require.Len(t, state.DrawingData, 3)
	for i, ev := range state.DrawingData {
		assert.Equal(t, stroke(i), ev)
	}

	// The welcome envelope must be the first thing in the channel even
	// if live events were broadcast right after admission.
	rm.AppendAndBroadcast(stroke(99), drawingEnvelope(t, stroke(99)), "s1")
	require.GreaterOrEqual(t, len(joiner.Send), 2)
	env := <-joiner.Send
	assert.Equal(t, domain.EventRoomJoined, env.Type)
	env = <-joiner.Send
	assert.Equal(t, domain.EventDrawing, env.Type)
}

func TestBroadcastExcludesSender(t *testing.T) {
	rm := New("ABC123")
	sender := NewMember("s1")
	receiver := NewMember("s2")
	rm.Admit(sender, nil, nil)
	rm.Admit(receiver, nil, nil)

	env := drawingEnvelope(t, stroke(1))
	rm.Broadcast(env, "s1")

	assert.Len(t, receiver.Send, 1)
	assert.Len(t, sender.Send, 0)

	// An empty exclusion reaches everyone.
	rm.Broadcast(env, "")
	assert.Len(t, receiver.Send, 2)
	assert.Len(t, sender.Send, 1)
}

func TestAppendAndBroadcastPreservesOrder(t *testing.T) {
	rm := New("ABC123")
	sender := NewMember("s1")
	receiver := NewMember("s2")
	rm.Admit(sender, nil, nil)
	rm.Admit(receiver, nil, nil)

	const n = 10
	for i := 0; i < n; i++ {
		rm.AppendAndBroadcast(stroke(i), drawingEnvelope(t, stroke(i)), "s1")
	}

	log := rm.DrawingLog()
	require.Len(t, log, n)
	for i := 0; i < n; i++ {
		assert.Equal(t, stroke(i), log[i], fmt.Sprintf("log position %d", i))

		env := <-receiver.Send
		expected := drawingEnvelope(t, stroke(i))
		assert.Equal(t, expected, env, fmt.Sprintf("delivery position %d", i))
	}
	assert.Len(t, sender.Send, 0)
}

func TestClearResetsLogOnly(t *testing.T) {
	rm := New("ABC123")
	sender := NewMember("s1")
	other := NewMember("s2")
	rm.Admit(sender, nil, nil)
	rm.Admit(other, nil, nil)

	rm.AppendAndBroadcast(stroke(1), drawingEnvelope(t, stroke(1)), "s1")
	rm.ClearAndBroadcast(domain.Envelope{Type: domain.EventClearCanvas}, "s1")

	assert.Empty(t, rm.DrawingLog())
	assert.Equal(t, 2, rm.UserCount())

	<-other.Send // the drawing
	env := <-other.Send
	assert.Equal(t, domain.EventClearCanvas, env.Type)
	assert.Len(t, sender.Send, 0)
}

func TestAdmitAnnouncesToExistingMembers(t *testing.T) {
	rm := New("ABC123")
	resident := NewMember("s1")
	rm.Admit(resident, nil, nil)

	announce, err := domain.NewEnvelope(domain.EventUserJoined, nil)
	require.NoError(t, err)

	joiner := NewMember("s2")
	rm.Admit(joiner, nil, func(st domain.RoomState) (domain.Envelope, bool) {
		require.Equal(t, 2, st.UserCount)
		return announce, true
	})

	// Residents hear the arrival; the joiner never hears about itself.
	require.Len(t, resident.Send, 1)
	env := <-resident.Send
	assert.Equal(t, domain.EventUserJoined, env.Type)
	assert.Len(t, joiner.Send, 0)
}

func TestAdmitRefusedAfterReap(t *testing.T) {
	rm := New("ABC123")
	m := NewMember("s1")
	rm.Admit(m, nil, nil)
	_, becameEmpty, emptiedAt := rm.Remove("s1")
	require.True(t, becameEmpty)

	require.True(t, rm.reap(emptiedAt))

	_, admitted := rm.Admit(NewMember("s2"), nil, nil)
	assert.False(t, admitted)
	assert.Equal(t, 0, rm.UserCount())

	// A marked room never matches a snapshot again.
	assert.False(t, rm.reap(emptiedAt))
}

func TestBroadcastDropsWhenBufferFull(t *testing.T) {
	rm := New("ABC123")
	slow := &Member{SessionID: "s1", Send: make(chan domain.Envelope)}
	rm.Admit(slow, nil, nil)

	// No reader on an unbuffered channel: the send must be dropped,
	// not block. A blocking delivery would hang the test here.
	rm.Broadcast(drawingEnvelope(t, stroke(1)), "")
	assert.Len(t, slow.Send, 0)
}
