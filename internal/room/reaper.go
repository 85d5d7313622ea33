package room

import (
	"time"

	"github.com/sudoSubh/Collaborative-whiteboard/pkg/logger"
)

// Reaper deletes rooms that stay empty through a grace period. Timers
// are fire-and-forget: each became-empty signal schedules one check
// carrying the emptiedAt snapshot, and checks whose snapshot no longer
// matches the room's state do nothing, so timers never need cancelling.
type Reaper struct {
	registry *Registry
	grace    time.Duration
	log      logger.Logger
}

func NewReaper(registry *Registry, grace time.Duration, log logger.Logger) *Reaper {
	return &Reaper{
		registry: registry,
		grace:    grace,
		log:      log.WithModule("reaper"),
	}
}

// Schedule arms a deferred reap check for roomID against the emptiedAt
// value captured when the room became empty.
func (p *Reaper) Schedule(roomID string, emptiedAt time.Time) {
	p.log.Debugf("room %s empty, reap check in %s", roomID, p.grace)
	time.AfterFunc(p.grace, func() {
		if !p.registry.ReapIfStillEmpty(roomID, emptiedAt) {
			p.log.Debugf("reap check for room %s superseded", roomID)
		}
	})
}
