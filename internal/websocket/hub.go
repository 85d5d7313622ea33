package websocket

import "sync"

// Hub tracks every live session so shutdown can unwind them. Room
// membership lives in the room registry; the hub only knows who is
// connected.
type Hub struct {
	mu       sync.Mutex
	sessions map[*Session]bool

	Register   chan *Session
	Unregister chan *Session
	done       chan struct{}
}

func NewHub() *Hub {
	return &Hub{
		sessions:   make(map[*Session]bool),
		Register:   make(chan *Session),
		Unregister: make(chan *Session),
		done:       make(chan struct{}),
	}
}

// Run processes registration traffic until Close is called.
func (h *Hub) Run() {
	for {
		select {
		case s := <-h.Register:
			h.addSession(s)
		case s := <-h.Unregister:
			h.removeSession(s)
		case <-h.done:
			return
		}
	}
}

// Close stops the loop and closes every live connection, which unwinds
// each session through its normal read-pump teardown.
func (h *Hub) Close() {
	close(h.done)

	h.mu.Lock()
	defer h.mu.Unlock()
	for s := range h.sessions {
		s.ws.Close()
		delete(h.sessions, s)
	}
}

func (h *Hub) addSession(s *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sessions[s] = true
}

func (h *Hub) removeSession(s *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.sessions, s)
}

// Done is closed when the hub is shutting down. Senders on Register
// and Unregister must select against it, since Run no longer drains
// the channels.
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

// Len reports the number of connected sessions.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sessions)
}
