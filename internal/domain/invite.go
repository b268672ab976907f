package domain

import (
	"fmt"
	"strings"
	"time"
)

// InviteType is the kind of offer an invite carries.
type InviteType string

const (
	// InviteTypeTeam invites the target to join the inviter's island team.
	InviteTypeTeam InviteType = "team"
	// InviteTypeCoop grants limited cooperative access to the island.
	InviteTypeCoop InviteType = "coop"
	// InviteTypeTrust grants a limited permission set on the island.
	InviteTypeTrust InviteType = "trust"
)

// ParseInviteType converts a label into an InviteType.
func ParseInviteType(s string) (InviteType, error) {
	switch t := InviteType(strings.ToLower(strings.TrimSpace(s))); t {
	case InviteTypeTeam, InviteTypeCoop, InviteTypeTrust:
		return t, nil
	default:
		return "", fmt.Errorf("unknown invite type %q", s)
	}
}

// Invite is a pending, unaccepted invitation.
// A player holds at most one pending invite; InviteeID is the storage key.
type Invite struct {
	ID        string     `json:"id"`
	Type      InviteType `json:"type"`
	InviterID string     `json:"inviter_id"`
	InviteeID string     `json:"invitee_id"`
	IslandID  string     `json:"island_id"`
	CreatedAt time.Time  `json:"created_at"`
}

// SameOffer reports whether other was issued by the same inviter with the same type.
func (i *Invite) SameOffer(inviterID string, t InviteType) bool {
	return i.InviterID == inviterID && i.Type == t
}
