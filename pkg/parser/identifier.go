package parser

import (
	"regexp"

	"github.com/rs/zerolog/log"
)

var (
	// P[<account>@<handle> <displayName>@<handle>]
	playerIDPattern = regexp.MustCompile(`^P\[[^\s\]]+\s(.+@[^\]]*)\]$`)

	// C[<numericId> <internalName>]
	npcIDPattern = regexp.MustCompile(`^C\[\d+\s(.+)\]$`)
)

// StripIdentifier removes the game's wrapper syntax from an owner, source or
// target identifier. Player identifiers yield "<displayName>@<handle>" and
// isPlayer true; non-player identifiers yield their internal name.
// Identifiers in neither shape are returned unchanged with isPlayer false.
func StripIdentifier(raw string) (stripped string, isPlayer bool) {
	if m := playerIDPattern.FindStringSubmatch(raw); m != nil {
		return m[1], true
	}
	if m := npcIDPattern.FindStringSubmatch(raw); m != nil {
		return m[1], false
	}

	log.Debug().Str("identifier", raw).Msg("identifier has no known wrapper, leaving as-is")
	return raw, false
}
