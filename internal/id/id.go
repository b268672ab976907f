// Package id generates identifiers. Records owned by this service get short
// prefixed NanoIDs; players are identified by UUIDs issued by the game.
package id

import (
	"fmt"

	"github.com/google/uuid"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Prefixes for generated record IDs.
const (
	PrefixInvite = "inv"
	PrefixIsland = "isl"
)

// Generate creates a prefixed unique ID such as "inv-V1StGXR8_Z5jdHi6B-myT".
func Generate(prefix string) (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + id, nil
}

// MustGenerate is like Generate but panics if ID generation fails.
func MustGenerate(prefix string) string {
	id, err := Generate(prefix)
	if err != nil {
		panic(fmt.Sprintf("failed to generate ID: %v", err))
	}
	return id
}

// NewPlayerID returns a random player UUID. Used by tooling; live player IDs
// come from the game server.
func NewPlayerID() string {
	return uuid.NewString()
}

// ParsePlayerID returns the canonical form of a player UUID.
func ParsePlayerID(s string) (string, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return "", fmt.Errorf("parse player id %q: %w", s, err)
	}
	return u.String(), nil
}
