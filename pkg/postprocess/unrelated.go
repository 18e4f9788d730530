package postprocess

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ccollicutt/combatlog/pkg/combat"
	"github.com/ccollicutt/combatlog/pkg/config"
)

// UnrelatedPass removes entities whose activity lies entirely outside a
// combat's edge window and that never interacted with the rest of the combat.
//
// Only combats longer than three gap thresholds are considered. The edge
// window is [start+gap, end-gap]; an entity ending before the first edge or
// starting after the second is possibly unrelated.
type UnrelatedPass struct {
	gap        time.Duration
	players    bool
	nonPlayers bool
	account    string
}

// NewUnrelatedPass creates an UnrelatedPass.
func NewUnrelatedPass(gap time.Duration, settings config.PostProcessingConfig, account string) *UnrelatedPass {
	return &UnrelatedPass{
		gap:        gap,
		players:    settings.RemoveUnrelatedPlayers,
		nonPlayers: settings.RemoveUnrelatedNonPlayers,
		account:    account,
	}
}

func (p *UnrelatedPass) Name() string { return "unrelated" }

// Apply removes unrelated entities from every combat that is not rejected.
func (p *UnrelatedPass) Apply(ctx context.Context, combats []*combat.Combat, report Reporter) ([]*combat.Combat, error) {
	for _, c := range combats {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if c.Rejected() || c.Duration() <= 3*p.gap {
			continue
		}

		for _, e := range p.unrelated(c) {
			owner := e.OwnerInternal()
			removed, ok := c.RemoveEntity(owner, ReasonUnrelated)
			if !ok {
				continue
			}
			details := fmt.Sprintf("active %s to %s, no interaction with the combat",
				removed.Start().Format(time.TimeOnly), removed.End().Format(time.TimeOnly))
			removed.Reject(ReasonUnrelated, details)

			log.Debug().Str("entity", owner).Str("combat", describe(c)).Msg("removed unrelated entity")
			report.Infof("Combat at %s: removed unrelated entity %s (%s)", describe(c), removed.OwnerDisplay(), details)
		}
	}
	return combats, nil
}

// unrelated returns the possibly-unrelated entities with zero cross-references.
func (p *UnrelatedPass) unrelated(c *combat.Combat) []*combat.Entity {
	startEdge := c.Start().Add(p.gap)
	endEdge := c.End().Add(-p.gap)

	possible := make(map[*combat.Entity]bool)
	consider := func(entities []*combat.Entity) {
		for _, e := range entities {
			if isAccount(e, p.account) {
				continue
			}
			if e.End().Before(startEdge) || e.Start().After(endEdge) {
				possible[e] = true
			}
		}
	}
	if p.players {
		consider(c.Players())
	}
	if p.nonPlayers {
		consider(c.NonPlayers())
	}
	if len(possible) == 0 {
		return nil
	}

	var valid []*combat.Entity
	validOwners := make(map[string]bool)
	for _, e := range c.Entities() {
		if !possible[e] {
			valid = append(valid, e)
			validOwners[e.OwnerInternal()] = true
		}
	}

	var out []*combat.Entity
	for _, e := range c.Entities() {
		if !possible[e] {
			continue
		}
		if targetedBy(valid, e.OwnerInternal()) == 0 && targetsOf(e, validOwners) == 0 {
			out = append(out, e)
		}
	}
	return out
}

func targetedBy(valid []*combat.Entity, owner string) int {
	n := 0
	for _, v := range valid {
		for _, ev := range v.Events() {
			if ev.TargetInternal == owner {
				n++
			}
		}
	}
	return n
}

func targetsOf(e *combat.Entity, owners map[string]bool) int {
	n := 0
	for _, ev := range e.Events() {
		if owners[ev.TargetInternal] {
			n++
		}
	}
	return n
}
