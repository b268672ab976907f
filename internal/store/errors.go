package store

import "errors"

var (
	// ErrInviteNotFound is returned when a player has no pending invite.
	ErrInviteNotFound = errors.New("invite not found")
	// ErrNotFound is returned by the registry when a player or island is unknown.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyTaken is returned when a unique player or island attribute is in use.
	ErrAlreadyTaken = errors.New("already taken")
)

// ErrOwnerMembership is returned when a roster change would touch the owner's
// membership, which follows the island record.
var ErrOwnerMembership = errors.New("owner membership is managed by the island")
