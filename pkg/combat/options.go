// Package combat models combats and the per-entity statistics derived from them.
//
// Entities and combats are built by appending events in timestamp order and
// then sealed. A sealed value stores an eagerly computed snapshot and rejects
// further events with ErrSealed.
package combat

import (
	"errors"
	"time"

	"github.com/ccollicutt/combatlog/pkg/config"
)

// MinimumDuration is the floor applied to every computed duration.
const MinimumDuration = time.Second

var (
	// ErrSealed is returned when an event is added to a sealed entity or combat.
	ErrSealed = errors.New("sealed")

	// ErrOwnerMismatch is returned when an entity is given another owner's event.
	ErrOwnerMismatch = errors.New("event owner does not match entity")
)

// Options controls how entity statistics are derived.
type Options struct {
	// MinInactivity is the shortest pause recorded as a dead zone.
	// Values below one second are treated as one second.
	MinInactivity time.Duration

	// CombinePets groups pet events by pet display name rather than pet id.
	CombinePets bool
}

// OptionsFrom derives entity options from the combat configuration.
func OptionsFrom(cfg config.CombatConfig) Options {
	return Options{
		MinInactivity: cfg.MinInactivity,
		CombinePets:   cfg.CombinePets,
	}
}

func (o Options) minInactivity() time.Duration {
	if o.MinInactivity < config.MinimumInactivity {
		return config.MinimumInactivity
	}
	return o.MinInactivity
}

// floorDuration applies MinimumDuration.
func floorDuration(d time.Duration) time.Duration {
	if d < MinimumDuration {
		return MinimumDuration
	}
	return d
}

// Rejection records why an entity or combat was rejected by post-processing.
type Rejection struct {
	Rejected bool
	Reason   string
	Details  string
}
