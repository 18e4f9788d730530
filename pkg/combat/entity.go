package combat

import (
	"fmt"
	"time"

	"github.com/ccollicutt/combatlog/pkg/parser"
)

// Entity is one owner identifier's event history within a combat.
type Entity struct {
	ownerInternal string
	ownerDisplay  string
	isPlayer      bool

	opts   Options
	events []*parser.CombatEvent

	// sealed is nil while the entity is being built.
	sealed *EntityStats

	rejection Rejection
}

// NewEntity creates an entity seeded with its first event.
func NewEntity(first *parser.CombatEvent, opts Options) *Entity {
	return &Entity{
		ownerInternal: first.OwnerInternal,
		ownerDisplay:  first.OwnerDisplay,
		isPlayer:      first.IsOwnerPlayer,
		opts:          opts,
		events:        []*parser.CombatEvent{first},
	}
}

// AddEvent appends an event. Events must arrive in timestamp order.
func (e *Entity) AddEvent(ev *parser.CombatEvent) error {
	if e.sealed != nil {
		return fmt.Errorf("entity %s: %w", e.ownerInternal, ErrSealed)
	}
	if ev.OwnerInternal != e.ownerInternal {
		return fmt.Errorf("entity %s got %s: %w", e.ownerInternal, ev.OwnerInternal, ErrOwnerMismatch)
	}
	e.events = append(e.events, ev)
	return nil
}

// Seal computes and stores the statistics snapshot. Sealing twice is a no-op.
func (e *Entity) Seal() {
	if e.sealed != nil {
		return
	}
	stats := computeStats(e.events, e.opts)
	e.sealed = &stats
}

// Sealed reports whether the entity has been sealed.
func (e *Entity) Sealed() bool {
	return e.sealed != nil
}

// Stats returns the derived statistics. A sealed entity returns its snapshot;
// a building entity recomputes them on every call.
func (e *Entity) Stats() EntityStats {
	if e.sealed != nil {
		return e.sealed.clone()
	}
	return computeStats(e.events, e.opts)
}

func (e *Entity) OwnerInternal() string { return e.ownerInternal }
func (e *Entity) OwnerDisplay() string  { return e.ownerDisplay }

// Name returns the stripped owner id, falling back to the display name.
func (e *Entity) Name() string {
	if s := e.events[0].OwnerInternalStripped; s != "" {
		return s
	}
	return e.ownerDisplay
}

// IsPlayer reports whether the owner uses the player identifier shape.
func (e *Entity) IsPlayer() bool { return e.isPlayer }

// Events returns the entity's events in insertion order. The slice must not be modified.
func (e *Entity) Events() []*parser.CombatEvent { return e.events }

// EventCount returns the number of events.
func (e *Entity) EventCount() int { return len(e.events) }

// Start returns the first event's timestamp.
func (e *Entity) Start() time.Time { return e.events[0].Timestamp }

// End returns the last event's timestamp.
func (e *Entity) End() time.Time { return e.events[len(e.events)-1].Timestamp }

// Reject marks the entity as rejected.
func (e *Entity) Reject(reason, details string) {
	e.rejection = Rejection{Rejected: true, Reason: reason, Details: details}
}

func (e *Entity) Rejected() bool           { return e.rejection.Rejected }
func (e *Entity) RejectionReason() string  { return e.rejection.Reason }
func (e *Entity) RejectionDetails() string { return e.rejection.Details }
