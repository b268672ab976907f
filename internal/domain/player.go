package domain

import "time"

// Player is an identity known to the player directory.
type Player struct {
	ID          string    `json:"id"` // UUID
	Name        string    `json:"name"`
	DisplayName string    `json:"display_name"`
	Online      bool      `json:"online"`
	Hidden      bool      `json:"hidden"` // vanished players are invisible to others
	UpdatedAt   time.Time `json:"updated_at"`
}

// Label returns the display name, falling back to the account name.
func (p *Player) Label() string {
	if p.DisplayName != "" {
		return p.DisplayName
	}
	return p.Name
}

// PlayerSummary is the identity shown to players in invite messages.
type PlayerSummary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
}

// Summary returns the player's display identity.
func (p *Player) Summary() PlayerSummary {
	return PlayerSummary{ID: p.ID, Name: p.Name, DisplayName: p.Label()}
}
