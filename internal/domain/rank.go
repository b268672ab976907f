package domain

import "strconv"

// Rank is an ordered permission level a player holds on an island.
// Higher values grant more privileges.
type Rank int

// Standard island ranks.
const (
	RankVisitor  Rank = 0
	RankCoop     Rank = 200
	RankTrusted  Rank = 400
	RankMember   Rank = 500
	RankSubOwner Rank = 900
	RankOwner    Rank = 1000
)

var rankNames = map[Rank]string{
	RankVisitor:  "Visitor",
	RankCoop:     "Coop",
	RankTrusted:  "Trusted",
	RankMember:   "Member",
	RankSubOwner: "Sub-Owner",
	RankOwner:    "Owner",
}

// Name returns the human-readable rank name.
func (r Rank) Name() string {
	if name, ok := rankNames[r]; ok {
		return name
	}
	return "Rank " + strconv.Itoa(int(r))
}

// AtLeast reports whether r meets or exceeds min.
func (r Rank) AtLeast(min Rank) bool {
	return r >= min
}

// IsTeamRank reports whether the rank makes the player part of the island team.
// Coop and trusted players are granted access but are not team members.
func (r Rank) IsTeamRank() bool {
	return r >= RankMember
}

// LookupRank reports whether r is one of the standard ranks.
func LookupRank(r Rank) (string, bool) {
	name, ok := rankNames[r]
	return name, ok
}
