// Package normalize provides utilities for normalizing player-supplied text.
package normalize

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// PlayerName returns the lookup key for a player name.
// Names compare case-insensitively and compatibility-equivalent forms
// (full-width letters, ligatures) collapse to the same key.
// "Notch" -> "notch".
// "ＮＯＴＣＨ" -> "notch".
func PlayerName(name string) string {
	s := strings.TrimSpace(name)
	if s == "" {
		return ""
	}
	s = norm.NFKC.String(s)
	return cases.Fold().String(s)
}
