package postprocess

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/ccollicutt/combatlog/pkg/combat"
	"github.com/ccollicutt/combatlog/pkg/mapdetect"
)

// MapPass labels each combat with its detected map.
type MapPass struct {
	detector *mapdetect.Detector
}

// NewMapPass creates a MapPass around detector.
func NewMapPass(detector *mapdetect.Detector) *MapPass {
	return &MapPass{detector: detector}
}

func (p *MapPass) Name() string { return "maps" }

// Apply records the detected map on every combat where one was found.
func (p *MapPass) Apply(ctx context.Context, combats []*combat.Combat, _ Reporter) ([]*combat.Combat, error) {
	for _, c := range combats {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		d := p.detector.Detect(c)
		if !d.Found {
			log.Debug().Str("combat", describe(c)).Msg("no map detected")
			continue
		}
		c.SetMap(d.Map)
		log.Debug().
			Str("combat", describe(c)).
			Str("map", d.Map).
			Str("method", string(d.Method)).
			Msg("map detected")
	}
	return combats, nil
}
