package domain

import "time"

// Island is the persistent resource a team shares.
type Island struct {
	ID      string `json:"id"`
	OwnerID string `json:"owner_id"`
	Name    string `json:"name"`

	// MaxMembers caps the team roster. Zero means use the server default.
	MaxMembers int `json:"max_members"`
	// MinInviteRank is the lowest rank allowed to invite. Zero means use the server default.
	MinInviteRank Rank `json:"min_invite_rank"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Membership is a player's rank on an island.
type Membership struct {
	IslandID string    `json:"island_id"`
	PlayerID string    `json:"player_id"`
	Rank     Rank      `json:"rank"`
	JoinedAt time.Time `json:"joined_at"`
}
