package postprocess

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/ccollicutt/combatlog/pkg/combat"
	"github.com/ccollicutt/combatlog/pkg/config"
	"github.com/ccollicutt/combatlog/pkg/mapdetect"
)

// Pipeline runs passes in order.
type Pipeline struct {
	passes []Pass
}

// NewPipeline creates a pipeline running passes in the given order.
func NewPipeline(passes ...Pass) *Pipeline {
	return &Pipeline{passes: passes}
}

// FromConfig builds the standard pipeline: reject, unrelated-entity removal,
// map detection. Disabled passes are left out.
func FromConfig(cfg *config.Config) *Pipeline {
	pp := cfg.PostProcessing

	var passes []Pass
	if pp.RejectWithoutPlayers || pp.RejectWithoutAccount || pp.RejectBelowMinEvents {
		passes = append(passes, NewRejectPass(pp, cfg.AccountCharacter))
	}
	if pp.RemoveUnrelatedEntities && (pp.RemoveUnrelatedPlayers || pp.RemoveUnrelatedNonPlayers) {
		passes = append(passes, NewUnrelatedPass(cfg.Combat.GapThreshold, pp, cfg.AccountCharacter))
	}
	if pp.DetectMaps {
		passes = append(passes, NewMapPass(mapdetect.New(cfg.MapDetection)))
	}
	return NewPipeline(passes...)
}

// Passes returns the pipeline's passes in order.
func (p *Pipeline) Passes() []Pass {
	return p.passes
}

// Run applies every pass and returns the remaining combats.
func (p *Pipeline) Run(ctx context.Context, combats []*combat.Combat, report Reporter) ([]*combat.Combat, error) {
	for _, pass := range p.passes {
		before := len(combats)
		var err error
		combats, err = pass.Apply(ctx, combats, report)
		if err != nil {
			return nil, fmt.Errorf("post-processing %s: %w", pass.Name(), err)
		}
		log.Debug().Str("pass", pass.Name()).Int("before", before).Int("after", len(combats)).Msg("post-processing pass done")
	}
	return combats, nil
}
