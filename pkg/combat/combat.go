package combat

import (
	"fmt"
	"slices"
	"time"

	"github.com/ccollicutt/combatlog/pkg/parser"
)

// EntityLabel is an identifier seen in a combat with its display name.
type EntityLabel struct {
	ID      string `json:"id"`
	Display string `json:"display"`
}

// Snapshot holds the combat-level values derived from its entities.
type Snapshot struct {
	Start       time.Time
	End         time.Time
	Duration    time.Duration
	EventCount  int
	Labels      []EntityLabel
	Identifiers []string
}

// Combat is one contiguous combat session.
type Combat struct {
	opts Options

	players    []*Entity
	nonPlayers []*Entity
	byOwner    map[string]*Entity
	removed    []*Entity

	// events is the combat timeline in insertion order.
	events []*parser.CombatEvent

	// sealed is nil while the combat is being built.
	sealed *Snapshot

	mapName   string
	rejection Rejection
}

// New creates an empty combat.
func New(opts Options) *Combat {
	return &Combat{
		opts:    opts,
		byOwner: make(map[string]*Entity),
	}
}

// Options returns the entity options the combat was built with.
func (c *Combat) Options() Options { return c.opts }

// AddEvent routes an event to its owner's entity, creating the entity on
// first sight. Player and non-player owners go to separate buckets.
func (c *Combat) AddEvent(ev *parser.CombatEvent) error {
	if c.sealed != nil {
		return fmt.Errorf("combat starting %s: %w", c.Start().Format(time.DateTime), ErrSealed)
	}

	if entity, ok := c.byOwner[ev.OwnerInternal]; ok {
		if err := entity.AddEvent(ev); err != nil {
			return err
		}
	} else {
		entity := NewEntity(ev, c.opts)
		c.byOwner[ev.OwnerInternal] = entity
		if ev.IsOwnerPlayer {
			c.players = append(c.players, entity)
		} else {
			c.nonPlayers = append(c.nonPlayers, entity)
		}
	}

	c.events = append(c.events, ev)
	return nil
}

// Seal seals every entity and stores the combat snapshot. Sealing twice is a no-op.
func (c *Combat) Seal() {
	if c.sealed != nil {
		return
	}
	for _, e := range c.players {
		e.Seal()
	}
	for _, e := range c.nonPlayers {
		e.Seal()
	}
	snap := c.compute()
	c.sealed = &snap
}

// Sealed reports whether the combat has been sealed.
func (c *Combat) Sealed() bool { return c.sealed != nil }

// Snapshot returns the combat-level derived values.
func (c *Combat) Snapshot() Snapshot {
	if c.sealed != nil {
		s := *c.sealed
		s.Labels = slices.Clone(s.Labels)
		s.Identifiers = slices.Clone(s.Identifiers)
		return s
	}
	return c.compute()
}

func (c *Combat) compute() Snapshot {
	var s Snapshot
	for i, e := range c.Entities() {
		if i == 0 || e.Start().Before(s.Start) {
			s.Start = e.Start()
		}
		if i == 0 || e.End().After(s.End) {
			s.End = e.End()
		}
		s.EventCount += e.EventCount()
	}
	s.Duration = floorDuration(s.End.Sub(s.Start))
	s.Labels = c.uniqueLabels()
	s.Identifiers = identifiersOf(s.Labels)
	return s
}

func (c *Combat) Start() time.Time        { return c.Snapshot().Start }
func (c *Combat) End() time.Time          { return c.Snapshot().End }
func (c *Combat) Duration() time.Duration { return c.Snapshot().Duration }
func (c *Combat) EventCount() int         { return c.Snapshot().EventCount }

// Labels returns the deduplicated entity labels in first-seen order.
func (c *Combat) Labels() []EntityLabel { return c.Snapshot().Labels }

// UniqueIdentifiers returns the stripped ids and display names of every
// entity label, deduplicated, in first-seen order.
func (c *Combat) UniqueIdentifiers() []string { return c.Snapshot().Identifiers }

// uniqueLabels harvests owner, pet source and target labels from the timeline.
func (c *Combat) uniqueLabels() []EntityLabel {
	seen := make(map[EntityLabel]bool)
	var labels []EntityLabel
	add := func(id, display string) {
		if id == "" && display == "" {
			return
		}
		l := EntityLabel{ID: id, Display: display}
		if !seen[l] {
			seen[l] = true
			labels = append(labels, l)
		}
	}

	for _, ev := range c.events {
		add(ev.OwnerInternalStripped, ev.OwnerDisplay)
		if ev.IsOwnerPetEvent {
			add(ev.SourceInternalStripped, ev.SourceDisplay)
		}
		add(ev.TargetInternalStripped, ev.TargetDisplay)
	}
	return labels
}

func identifiersOf(labels []EntityLabel) []string {
	seen := make(map[string]bool)
	var ids []string
	for _, l := range labels {
		for _, s := range []string{l.ID, l.Display} {
			if s != "" && !seen[s] {
				seen[s] = true
				ids = append(ids, s)
			}
		}
	}
	return ids
}

// Events returns the combat timeline. The slice must not be modified.
func (c *Combat) Events() []*parser.CombatEvent { return c.events }

// Players returns the player entities in first-seen order.
func (c *Combat) Players() []*Entity { return c.players }

// NonPlayers returns the non-player entities in first-seen order.
func (c *Combat) NonPlayers() []*Entity { return c.nonPlayers }

// Entities returns players followed by non-players.
func (c *Combat) Entities() []*Entity {
	out := make([]*Entity, 0, len(c.players)+len(c.nonPlayers))
	out = append(out, c.players...)
	return append(out, c.nonPlayers...)
}

// Entity looks up an entity by owner internal id.
func (c *Combat) Entity(ownerInternal string) (*Entity, bool) {
	e, ok := c.byOwner[ownerInternal]
	return e, ok
}

// PlayerCount returns the number of player entities.
func (c *Combat) PlayerCount() int { return len(c.players) }

// RemovedEntities returns entities removed by RemoveEntity, in removal order.
func (c *Combat) RemovedEntities() []*Entity { return c.removed }

// RemoveEntity moves an entity out of the combat, marking it rejected with
// reason. A sealed combat re-derives its snapshot from the remaining entities.
func (c *Combat) RemoveEntity(ownerInternal, reason string) (*Entity, bool) {
	e, ok := c.byOwner[ownerInternal]
	if !ok {
		return nil, false
	}

	delete(c.byOwner, ownerInternal)
	if e.IsPlayer() {
		c.players = slices.DeleteFunc(c.players, func(x *Entity) bool { return x == e })
	} else {
		c.nonPlayers = slices.DeleteFunc(c.nonPlayers, func(x *Entity) bool { return x == e })
	}
	c.events = slices.DeleteFunc(slices.Clone(c.events), func(ev *parser.CombatEvent) bool {
		return ev.OwnerInternal == ownerInternal
	})

	e.Reject(reason, "")
	c.removed = append(c.removed, e)

	if c.sealed != nil {
		snap := c.compute()
		c.sealed = &snap
	}
	return e, true
}

// SetMap records the detected map.
func (c *Combat) SetMap(name string) { c.mapName = name }

// Map returns the detected map, or "" when none was determined.
func (c *Combat) Map() string { return c.mapName }

// Reject marks the combat as rejected.
func (c *Combat) Reject(reason, details string) {
	c.rejection = Rejection{Rejected: true, Reason: reason, Details: details}
}

func (c *Combat) Rejected() bool           { return c.rejection.Rejected }
func (c *Combat) RejectionReason() string  { return c.rejection.Reason }
func (c *Combat) RejectionDetails() string { return c.rejection.Details }
