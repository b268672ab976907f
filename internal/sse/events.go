// Package sse streams invite notifications to players over Server-Sent Events.
package sse

import (
	"time"

	"github.com/skyblockhq/teamsvc/internal/domain"
)

// EventType represents the type of SSE Event.
type EventType string

const (
	// EventConnected is the first event on every stream.
	EventConnected EventType = "connected"
	// EventHeartbeat represents a connection keepalive event.
	EventHeartbeat EventType = "heartbeat"

	// EventInviteReceived tells a player they have a new team invite.
	EventInviteReceived EventType = "invite.received"
	// EventInviteSuperseded tells an inviter their pending invite was replaced
	// or dropped.
	EventInviteSuperseded EventType = "invite.superseded"
)

// Event represents an SSE event to be sent to clients.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
	Type      EventType `json:"type"`
	// PlayerID restricts delivery to one player. Empty means all clients.
	PlayerID string `json:"-"`
}

// InviteReceivedData is the payload for EventInviteReceived.
type InviteReceivedData struct {
	Invite  *domain.Invite       `json:"invite"`
	Inviter domain.PlayerSummary `json:"inviter"`
	// LosesIsland warns that accepting discards the player's current island.
	LosesIsland bool `json:"loses_island"`
}

// InviteSupersededData is the payload for EventInviteSuperseded.
type InviteSupersededData struct {
	Previous *domain.Invite `json:"previous"`
	// Replacement is nil when the newer invite was vetoed.
	Replacement *domain.Invite `json:"replacement,omitempty"`
}

// NewHeartbeatEvent creates a keepalive event.
func NewHeartbeatEvent() Event {
	return Event{
		Type:      EventHeartbeat,
		Timestamp: time.Now(),
		Data:      map[string]any{},
	}
}

// NewInviteReceivedEvent creates an event addressed to the invitee.
func NewInviteReceivedEvent(invite *domain.Invite, inviter domain.PlayerSummary, losesIsland bool) Event {
	return Event{
		Type:      EventInviteReceived,
		PlayerID:  invite.InviteeID,
		Timestamp: time.Now(),
		Data: InviteReceivedData{
			Invite:      invite,
			Inviter:     inviter,
			LosesIsland: losesIsland,
		},
	}
}

// NewInviteSupersededEvent creates an event addressed to the previous inviter.
func NewInviteSupersededEvent(previous, replacement *domain.Invite) Event {
	return Event{
		Type:      EventInviteSuperseded,
		PlayerID:  previous.InviterID,
		Timestamp: time.Now(),
		Data: InviteSupersededData{
			Previous:    previous,
			Replacement: replacement,
		},
	}
}
