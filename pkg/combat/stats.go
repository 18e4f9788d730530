package combat

import (
	"math"
	"slices"
	"sort"
	"time"

	"github.com/ccollicutt/combatlog/pkg/parser"
)

// DeadZone is a pause in an entity's activity, half open: [Start, End).
type DeadZone struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Duration returns the length of the dead zone.
func (d DeadZone) Duration() time.Duration {
	return d.End.Sub(d.Start)
}

// DamageStats summarizes the damage events of one subset.
type DamageStats struct {
	Total     float64 `json:"total"`
	Max       float64 `json:"max"`
	PerSecond float64 `json:"per_second"`
	Hits      int     `json:"hits"`
}

// EntityStats is the full set of values derived from an entity's events.
type EntityStats struct {
	Start        time.Time
	End          time.Time
	Duration     time.Duration
	DeadZones    []DeadZone
	InactiveTime time.Duration

	// All covers every damage event, Own the entity's direct events and Pet
	// those made by its pets. Heals are excluded from all three.
	All DamageStats
	Own DamageStats
	Pet DamageStats

	EventCount    int
	AttackCount   int
	KillCount     int
	HealTotal     float64
	CriticalCount int
	FlankCount    int

	EventTypes    []EventType
	PetEventTypes []EventType
}

// ActiveTime is the duration used as the per-second denominator.
func (s EntityStats) ActiveTime() time.Duration {
	if s.Duration > s.InactiveTime {
		return s.Duration - s.InactiveTime
	}
	return s.Duration
}

func (s EntityStats) clone() EntityStats {
	s.DeadZones = slices.Clone(s.DeadZones)
	s.EventTypes = slices.Clone(s.EventTypes)
	s.PetEventTypes = slices.Clone(s.PetEventTypes)
	return s
}

// EventTypeKey identifies an event type group. Source is empty for the
// entity's own events and holds the pet name or id for pet events.
type EventTypeKey struct {
	Source        string `json:"source,omitempty"`
	EventInternal string `json:"event_internal"`
	EventDisplay  string `json:"event_display"`
}

// EventType aggregates the events sharing one EventTypeKey.
type EventType struct {
	Key           EventTypeKey  `json:"key"`
	SourceDisplay string        `json:"source_display,omitempty"`
	Start         time.Time     `json:"start"`
	End           time.Time     `json:"end"`
	Duration      time.Duration `json:"duration"`

	Count        int     `json:"count"`
	Damage       float64 `json:"damage"`
	MaxHit       float64 `json:"max_hit"`
	DPS          float64 `json:"dps"`
	CritPercent  float64 `json:"crit_percent"`
	FlankPercent float64 `json:"flank_percent"`
	Kills        int     `json:"kills"`
	Heals        float64 `json:"heals"`
	HPS          float64 `json:"hps"`
}

// computeStats derives EntityStats from events, which must be in timestamp order.
func computeStats(events []*parser.CombatEvent, opts Options) EntityStats {
	var s EntityStats
	if len(events) == 0 {
		s.Duration = MinimumDuration
		return s
	}

	s.Start = events[0].Timestamp
	s.End = events[len(events)-1].Timestamp
	s.Duration = floorDuration(s.End.Sub(s.Start))
	s.EventCount = len(events)

	s.DeadZones = deadZones(events, opts.minInactivity())
	for _, dz := range s.DeadZones {
		s.InactiveTime += dz.Duration()
	}

	var own, pet []*parser.CombatEvent
	for _, ev := range events {
		if ev.IsOwnerPetEvent {
			pet = append(pet, ev)
		} else {
			own = append(own, ev)
		}

		if ev.IsKill() {
			s.KillCount++
		}
		if ev.IsHeal() {
			s.HealTotal += math.Abs(ev.Magnitude)
			continue
		}
		s.AttackCount++
		if ev.IsCritical() {
			s.CriticalCount++
		}
		if ev.IsFlank() {
			s.FlankCount++
		}
	}

	active := s.ActiveTime()
	s.All = damageStats(events, active)
	s.Own = damageStats(own, active)
	s.Pet = damageStats(pet, active)

	s.EventTypes = groupEventTypes(own, func(ev *parser.CombatEvent) EventTypeKey {
		return EventTypeKey{EventInternal: ev.EventInternal, EventDisplay: ev.EventDisplay}
	})
	s.PetEventTypes = groupEventTypes(pet, func(ev *parser.CombatEvent) EventTypeKey {
		source := ev.SourceInternal
		if opts.CombinePets {
			source = ev.SourceDisplay
		}
		return EventTypeKey{Source: source, EventInternal: ev.EventInternal, EventDisplay: ev.EventDisplay}
	})

	return s
}

// deadZones emits [last, ts) whenever consecutive events are at least
// threshold apart.
func deadZones(events []*parser.CombatEvent, threshold time.Duration) []DeadZone {
	var zones []DeadZone
	last := events[0].Timestamp
	for _, ev := range events[1:] {
		if ev.Timestamp.Sub(last) >= threshold {
			zones = append(zones, DeadZone{Start: last, End: ev.Timestamp})
		}
		last = ev.Timestamp
	}
	return zones
}

func damageStats(events []*parser.CombatEvent, active time.Duration) DamageStats {
	var d DamageStats
	for _, ev := range events {
		if ev.IsHeal() {
			continue
		}
		d.Hits++
		d.Total += ev.Magnitude
		if d.Hits == 1 || ev.Magnitude > d.Max {
			d.Max = ev.Magnitude
		}
	}
	d.PerSecond = perSecond(d.Total, active)
	return d
}

// perSecond divides by d as given. Callers pass a duration that is already
// floored or the active time derived from one, so d is always positive.
func perSecond(total float64, d time.Duration) float64 {
	return total / d.Seconds()
}

// groupEventTypes groups events by key, keeping first-seen order, and
// returns the groups ordered by damage, highest first.
func groupEventTypes(events []*parser.CombatEvent, keyOf func(*parser.CombatEvent) EventTypeKey) []EventType {
	if len(events) == 0 {
		return nil
	}

	index := make(map[EventTypeKey]int)
	var groups [][]*parser.CombatEvent
	var keys []EventTypeKey
	for _, ev := range events {
		key := keyOf(ev)
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, nil)
			keys = append(keys, key)
		}
		groups[i] = append(groups[i], ev)
	}

	types := make([]EventType, len(groups))
	for i, group := range groups {
		types[i] = newEventType(keys[i], group)
	}

	sort.SliceStable(types, func(i, j int) bool {
		return types[i].Damage > types[j].Damage
	})
	return types
}

func newEventType(key EventTypeKey, events []*parser.CombatEvent) EventType {
	t := EventType{
		Key:   key,
		Start: events[0].Timestamp,
		End:   events[len(events)-1].Timestamp,
		Count: len(events),
	}
	if events[0].IsOwnerPetEvent {
		t.SourceDisplay = events[0].SourceDisplay
	}
	t.Duration = floorDuration(t.End.Sub(t.Start))

	var hits, crits, flanks int
	for _, ev := range events {
		if ev.IsKill() {
			t.Kills++
		}
		if ev.IsHeal() {
			t.Heals += math.Abs(ev.Magnitude)
			continue
		}
		hits++
		t.Damage += ev.Magnitude
		if hits == 1 || ev.Magnitude > t.MaxHit {
			t.MaxHit = ev.Magnitude
		}
		if ev.IsCritical() {
			crits++
		}
		if ev.IsFlank() {
			flanks++
		}
	}

	t.DPS = perSecond(t.Damage, t.Duration)
	t.HPS = perSecond(t.Heals, t.Duration)
	if hits > 0 {
		t.CritPercent = float64(crits) / float64(hits) * 100
		t.FlankPercent = float64(flanks) / float64(hits) * 100
	}
	return t
}
