package postprocess

import (
	"context"
	"fmt"

	"github.com/ccollicutt/combatlog/pkg/combat"
	"github.com/ccollicutt/combatlog/pkg/config"
)

// Rejection reasons.
const (
	ReasonNoPlayers    = "no players"
	ReasonNoAccount    = "account character absent"
	ReasonTooFewEvents = "below minimum event count"
	ReasonUnrelated    = "unrelated entity"
)

// RejectPass rejects combats by policy: no players, account character
// absent, or too few events.
type RejectPass struct {
	settings config.PostProcessingConfig
	account  string
}

// NewRejectPass creates a RejectPass.
func NewRejectPass(settings config.PostProcessingConfig, account string) *RejectPass {
	return &RejectPass{settings: settings, account: account}
}

func (p *RejectPass) Name() string { return "reject" }

// Apply marks rejected combats and drops them unless DisplayRejected is set.
func (p *RejectPass) Apply(ctx context.Context, combats []*combat.Combat, report Reporter) ([]*combat.Combat, error) {
	kept := combats[:0:0]
	for _, c := range combats {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		reason, details := p.check(c)
		if reason == "" {
			kept = append(kept, c)
			continue
		}

		c.Reject(reason, details)
		report.Infof("Combat at %s rejected: %s (%s)", describe(c), reason, details)
		if p.settings.DisplayRejected {
			kept = append(kept, c)
		}
	}
	return kept, nil
}

func (p *RejectPass) check(c *combat.Combat) (reason, details string) {
	if p.settings.RejectWithoutPlayers && c.PlayerCount() == 0 {
		return ReasonNoPlayers, fmt.Sprintf("%d non-player entities", len(c.NonPlayers()))
	}

	if p.settings.RejectWithoutAccount && p.account != "" && !p.hasAccount(c) {
		return ReasonNoAccount, fmt.Sprintf("%q not among %d players", p.account, c.PlayerCount())
	}

	if p.settings.RejectBelowMinEvents && c.EventCount() < p.settings.MinEvents {
		return ReasonTooFewEvents, fmt.Sprintf("%d events, minimum %d", c.EventCount(), p.settings.MinEvents)
	}

	return "", ""
}

func (p *RejectPass) hasAccount(c *combat.Combat) bool {
	for _, e := range c.Players() {
		if isAccount(e, p.account) {
			return true
		}
	}
	return false
}
