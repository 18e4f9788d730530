package combat

import (
	"encoding/json"
	"time"

	"github.com/ccollicutt/combatlog/pkg/parser"
)

// Document is the canonical JSON shape of a combat.
type Document struct {
	Map              *string          `json:"map"`
	Rejected         bool             `json:"rejected"`
	RejectionReason  string           `json:"rejection_reason,omitempty"`
	RejectionDetails string           `json:"rejection_details,omitempty"`
	Start            time.Time        `json:"start"`
	End              time.Time        `json:"end"`
	DurationSeconds  float64          `json:"duration_seconds"`
	EventCount       int              `json:"event_count"`
	CombinePets      bool             `json:"combine_pets"`
	MinInactivitySec float64          `json:"min_inactivity_seconds"`
	Players          []EntityDocument `json:"players"`
	NonPlayers       []EntityDocument `json:"non_players"`
	RemovedEntities  []EntityDocument `json:"removed_entities,omitempty"`
}

// EntityDocument is the JSON shape of an entity.
type EntityDocument struct {
	OwnerInternal    string                `json:"owner_internal"`
	OwnerDisplay     string                `json:"owner_display"`
	IsPlayer         bool                  `json:"is_player"`
	Rejected         bool                  `json:"rejected"`
	RejectionReason  string                `json:"rejection_reason,omitempty"`
	RejectionDetails string                `json:"rejection_details,omitempty"`
	Summary          Summary               `json:"summary"`
	Events           []*parser.CombatEvent `json:"events"`
}

// Summary is the headline statistics of an entity.
type Summary struct {
	Start           time.Time `json:"start"`
	End             time.Time `json:"end"`
	DurationSeconds float64   `json:"duration_seconds"`
	InactiveSeconds float64   `json:"inactive_seconds"`
	TotalDamage     float64   `json:"total_damage"`
	MaxHit          float64   `json:"max_hit"`
	DPS             float64   `json:"dps"`
	OwnDamage       float64   `json:"own_damage"`
	PetDamage       float64   `json:"pet_damage"`
	Attacks         int       `json:"attacks"`
	Kills           int       `json:"kills"`
	Heals           float64   `json:"heals"`
	Crits           int       `json:"crits"`
	Flanks          int       `json:"flanks"`
}

// SummaryOf converts entity statistics to their summary form.
func SummaryOf(s EntityStats) Summary {
	return Summary{
		Start:           s.Start,
		End:             s.End,
		DurationSeconds: s.Duration.Seconds(),
		InactiveSeconds: s.InactiveTime.Seconds(),
		TotalDamage:     s.All.Total,
		MaxHit:          s.All.Max,
		DPS:             s.All.PerSecond,
		OwnDamage:       s.Own.Total,
		PetDamage:       s.Pet.Total,
		Attacks:         s.AttackCount,
		Kills:           s.KillCount,
		Heals:           s.HealTotal,
		Crits:           s.CriticalCount,
		Flanks:          s.FlankCount,
	}
}

// Document returns the combat in its canonical JSON shape.
func (c *Combat) Document() Document {
	snap := c.Snapshot()
	doc := Document{
		Rejected:         c.rejection.Rejected,
		RejectionReason:  c.rejection.Reason,
		RejectionDetails: c.rejection.Details,
		Start:            snap.Start,
		End:              snap.End,
		DurationSeconds:  snap.Duration.Seconds(),
		EventCount:       snap.EventCount,
		CombinePets:      c.opts.CombinePets,
		MinInactivitySec: c.opts.MinInactivity.Seconds(),
		Players:          entityDocuments(c.players),
		NonPlayers:       entityDocuments(c.nonPlayers),
		RemovedEntities:  entityDocuments(c.removed),
	}
	if c.mapName != "" {
		name := c.mapName
		doc.Map = &name
	}
	return doc
}

func entityDocuments(entities []*Entity) []EntityDocument {
	docs := make([]EntityDocument, 0, len(entities))
	for _, e := range entities {
		docs = append(docs, EntityDocument{
			OwnerInternal:    e.ownerInternal,
			OwnerDisplay:     e.ownerDisplay,
			IsPlayer:         e.isPlayer,
			Rejected:         e.rejection.Rejected,
			RejectionReason:  e.rejection.Reason,
			RejectionDetails: e.rejection.Details,
			Summary:          SummaryOf(e.Stats()),
			Events:           e.events,
		})
	}
	return docs
}

// MarshalJSON implements json.Marshaler.
func (c *Combat) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.Document())
}
