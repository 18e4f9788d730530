// Package postprocess applies rejection, unrelated-entity removal and map
// detection to segmented combats.
package postprocess

import (
	"context"
	"strings"

	"github.com/ccollicutt/combatlog/pkg/combat"
)

// Reporter receives user-facing messages produced by passes.
type Reporter interface {
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
}

// Pass is one post-processing step. Apply returns the combats that remain.
type Pass interface {
	Name() string
	Apply(ctx context.Context, combats []*combat.Combat, report Reporter) ([]*combat.Combat, error)
}

// isAccount reports whether the entity is the configured account character.
func isAccount(e *combat.Entity, account string) bool {
	if account == "" || !e.IsPlayer() {
		return false
	}
	return strings.Contains(strings.ToLower(e.OwnerInternal()), strings.ToLower(account))
}

func describe(c *combat.Combat) string {
	return c.Start().Format("2006-01-02 15:04:05")
}
