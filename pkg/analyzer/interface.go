package analyzer

import (
	"github.com/ccollicutt/combatlog/pkg/combat"
)

// Notification is a domain event emitted while a run progresses.
type Notification interface {
	notification()
}

// CombatClosed is emitted when a combat receives no further events.
type CombatClosed struct {
	Combat *combat.Combat
}

// LineParseFailed is emitted for every line or file that could not be parsed.
type LineParseFailed struct {
	File string
	Line int
	Err  error
}

func (CombatClosed) notification()    {}
func (LineParseFailed) notification() {}

// Observer receives notifications synchronously, on the run's goroutine.
type Observer func(Notification)
