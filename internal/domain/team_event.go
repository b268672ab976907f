package domain

import "sync/atomic"

// TeamEventReason names the team change a TeamEvent announces.
type TeamEventReason string

// TeamEventInvite is published before an invite is committed.
const TeamEventInvite TeamEventReason = "invite"

// TeamEvent is a cancellable notification offered to listeners before a
// team change takes effect.
type TeamEvent struct {
	IslandID       string          `json:"island_id"`
	Reason         TeamEventReason `json:"reason"`
	ActorID        string          `json:"actor_id"`
	InvolvedPlayer string          `json:"involved_player"`

	cancelled atomic.Bool
}

// Cancel vetoes the change.
func (e *TeamEvent) Cancel() {
	e.cancelled.Store(true)
}

// Cancelled reports whether any listener vetoed the change.
func (e *TeamEvent) Cancelled() bool {
	return e.cancelled.Load()
}
