// Package mapdetect labels combats with the map they took place on by
// matching entity identifiers against a rule set.
package mapdetect

import (
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/ccollicutt/combatlog/pkg/combat"
	"github.com/ccollicutt/combatlog/pkg/config"
)

// Method tells how a map was chosen.
type Method string

const (
	MethodNone    Method = ""
	MethodUnique  Method = "unique"
	MethodVotes   Method = "votes"
	MethodGeneric Method = "generic"
)

// Detection is the outcome of Detect.
type Detection struct {
	Map    string
	Found  bool
	Method Method

	// Votes holds each rule's match count, by map name, for rules that scored.
	Votes map[string]int

	// Identifier is the identifier that decided a unique match.
	Identifier string
}

// Detector matches combats against a fixed rule set. It holds no per-call
// state, so one Detector may be shared across goroutines.
type Detector struct {
	settings config.MapDetectionConfig
}

// New creates a Detector over settings.
func New(settings config.MapDetectionConfig) *Detector {
	return &Detector{settings: settings}
}

// candidate carries the counters of one rule for a single detection pass.
type candidate struct {
	rule     *config.MapRule
	counts   []int
	excepted bool
}

func (c *candidate) total() int {
	n := 0
	for _, v := range c.counts {
		n += v
	}
	return n
}

// matchPatterns increments every pattern of the candidate contained in id.
// It reports whether any matched.
func (c *candidate) matchPatterns(id string) bool {
	matched := false
	for i, p := range c.rule.Patterns {
		if strings.Contains(id, p.Pattern) {
			c.counts[i]++
			matched = true
		}
	}
	return matched
}

func newCandidate(rule *config.MapRule) *candidate {
	return &candidate{rule: rule, counts: make([]int, len(rule.Patterns))}
}

// Detect chooses a map for the combat.
func (d *Detector) Detect(c *combat.Combat) Detection {
	players := c.PlayerCount()

	var candidates []*candidate
	for i := range d.settings.Maps {
		rule := &d.settings.Maps[i]
		if !rule.PlayerCountAllowed(players, d.settings.EnforceMinPlayers, d.settings.EnforceMaxPlayers) {
			continue
		}
		candidates = append(candidates, newCandidate(rule))
	}

	ground := newCandidate(&d.settings.GenericGround)
	space := newCandidate(&d.settings.GenericSpace)

	for _, id := range c.UniqueIdentifiers() {
		if d.markExceptions(candidates, id) {
			continue
		}
		if containsAny(id, d.settings.Exclusions) {
			continue
		}

		if cand := uniqueMatch(candidates, id); cand != nil {
			log.Debug().Str("map", cand.rule.Name).Str("identifier", id).Msg("unique map identifier")
			return Detection{Map: cand.rule.Name, Found: true, Method: MethodUnique, Identifier: id}
		}

		matched := false
		for _, cand := range candidates {
			if cand.matchPatterns(id) {
				matched = true
			}
		}
		if !matched {
			ground.matchPatterns(id)
			space.matchPatterns(id)
		}
	}

	votes := make(map[string]int)
	var best *candidate
	for _, cand := range candidates {
		n := cand.total()
		if n == 0 {
			continue
		}
		votes[cand.rule.Name] = n
		if cand.excepted {
			continue
		}
		if best == nil || n > best.total() {
			best = cand
		}
	}
	if best != nil {
		return Detection{Map: best.rule.Name, Found: true, Method: MethodVotes, Votes: votes}
	}

	g, s := ground.total(), space.total()
	switch {
	case s > g:
		return Detection{Map: space.rule.Name, Found: true, Method: MethodGeneric, Votes: map[string]int{space.rule.Name: s, ground.rule.Name: g}}
	case g > 0:
		return Detection{Map: ground.rule.Name, Found: true, Method: MethodGeneric, Votes: map[string]int{space.rule.Name: s, ground.rule.Name: g}}
	}

	return Detection{Votes: votes}
}

// markExceptions flags every candidate whose exclusions id matches and
// reports whether any did.
func (d *Detector) markExceptions(candidates []*candidate, id string) bool {
	hit := false
	for _, cand := range candidates {
		if containsAny(id, cand.rule.Exclusions) {
			cand.excepted = true
			hit = true
		}
	}
	return hit
}

func uniqueMatch(candidates []*candidate, id string) *candidate {
	for _, cand := range candidates {
		if cand.excepted {
			continue
		}
		for _, p := range cand.rule.Patterns {
			if p.UniqueToMap && strings.Contains(id, p.Pattern) {
				return cand
			}
		}
	}
	return nil
}

func containsAny(id string, patterns []string) bool {
	for _, p := range patterns {
		if p != "" && strings.Contains(id, p) {
			return true
		}
	}
	return false
}
