package mapdetect

import (
	"testing"
	"time"

	"github.com/ccollicutt/combatlog/pkg/combat"
	"github.com/ccollicutt/combatlog/pkg/config"
	"github.com/ccollicutt/combatlog/pkg/parser"
)

var base = time.Date(2024, 1, 15, 20, 0, 0, 0, time.Local)

// combatWith builds a sealed combat of the given players each hitting every target.
func combatWith(t *testing.T, players int, targets ...string) *combat.Combat {
	t.Helper()
	c := combat.New(combat.Options{})
	n := 0
	for p := 0; p < players; p++ {
		owner := string(rune('A' + p))
		for _, target := range targets {
			ev := &parser.CombatEvent{
				Timestamp:              base.Add(time.Duration(n) * time.Second),
				OwnerDisplay:           owner,
				OwnerInternal:          "P[" + owner + "]",
				OwnerInternalStripped:  owner + "@player",
				TargetDisplay:          target,
				TargetInternal:         "C[1 " + target + "]",
				TargetInternalStripped: target,
				IsOwnerPlayer:          true,
			}
			if err := c.AddEvent(ev); err != nil {
				t.Fatal(err)
			}
			n++
		}
	}
	c.Seal()
	return c
}

func rule(name string, patterns ...string) config.MapRule {
	r := config.MapRule{Name: name}
	for _, p := range patterns {
		r.Patterns = append(r.Patterns, config.MapPattern{Pattern: p})
	}
	return r
}

func settings(maps ...config.MapRule) config.MapDetectionConfig {
	cfg := config.DefaultConfig().MapDetection
	cfg.Maps = maps
	return cfg
}

func TestDetect_Votes(t *testing.T) {
	d := New(settings(
		rule("Borg Space", "Borg_"),
		rule("Tholian Ground", "Tholian_"),
	))

	got := d.Detect(combatWith(t, 1, "Borg_Cube", "Borg_Sphere", "Tholian_Web"))
	if !got.Found || got.Map != "Borg Space" || got.Method != MethodVotes {
		t.Errorf("Detect() = %+v, want Borg Space by votes", got)
	}
	if got.Votes["Borg Space"] != 2 || got.Votes["Tholian Ground"] != 1 {
		t.Errorf("Votes = %v, want Borg Space 2, Tholian Ground 1", got.Votes)
	}
}

func TestDetect_TieGoesToFirstRule(t *testing.T) {
	d := New(settings(
		rule("First", "Alpha"),
		rule("Second", "Beta"),
	))
	got := d.Detect(combatWith(t, 1, "Alpha_One", "Beta_One"))
	if got.Map != "First" {
		t.Errorf("Detect() = %q, want First on tie", got.Map)
	}
}

func TestDetect_UniqueShortCircuit(t *testing.T) {
	crowded := rule("Crowded", "Borg_")
	special := config.MapRule{
		Name:     "Special",
		Patterns: []config.MapPattern{{Pattern: "Queen_Marker", UniqueToMap: true}},
	}
	d := New(settings(crowded, special))

	got := d.Detect(combatWith(t, 1, "Borg_Cube", "Borg_Sphere", "Borg_Probe", "Queen_Marker"))
	if got.Map != "Special" || got.Method != MethodUnique {
		t.Errorf("Detect() = %+v, want Special by unique marker", got)
	}
	if got.Identifier != "Queen_Marker" {
		t.Errorf("Identifier = %q, want Queen_Marker", got.Identifier)
	}
}

func TestDetect_RuleException(t *testing.T) {
	borg := rule("Borg Space", "Borg_")
	borg.Exclusions = []string{"Federation_Starbase"}
	d := New(settings(borg, rule("Starbase", "Starbase")))

	got := d.Detect(combatWith(t, 1, "Borg_Cube", "Borg_Sphere", "Federation_Starbase", "Starbase_Guard"))
	if got.Map != "Starbase" {
		t.Errorf("Detect() = %q, want Starbase when Borg Space is excepted", got.Map)
	}
	if got.Votes["Borg Space"] == 0 {
		t.Error("excepted rule should still report its votes")
	}
}

func TestDetect_ExceptionBlocksUnique(t *testing.T) {
	special := config.MapRule{
		Name:       "Special",
		Patterns:   []config.MapPattern{{Pattern: "Marker", UniqueToMap: true}},
		Exclusions: []string{"Decoy"},
	}
	d := New(settings(special))

	got := d.Detect(combatWith(t, 1, "Decoy", "Marker_One"))
	if got.Method == MethodUnique {
		t.Errorf("Detect() = %+v, unique marker on excepted rule must not decide", got)
	}
}

func TestDetect_GlobalExclusion(t *testing.T) {
	cfg := settings(rule("Borg Space", "Borg_"))
	cfg.Exclusions = []string{"Borg_"}
	d := New(cfg)

	got := d.Detect(combatWith(t, 1, "Borg_Cube"))
	if got.Found {
		t.Errorf("Detect() = %+v, want no map when identifiers are excluded", got)
	}
}

func TestDetect_GenericFallback(t *testing.T) {
	d := New(settings(rule("Borg Space", "Borg_")))

	tests := []struct {
		name    string
		targets []string
		want    string
	}{
		{"space wins", []string{"Space_Drifter", "Space_Rock"}, config.DefaultSpaceMapName},
		{"ground wins", []string{"Ground_Trooper"}, config.DefaultGroundMapName},
		{"tie favors ground", []string{"Ground_Trooper", "Space_Rock"}, config.DefaultGroundMapName},
		{"rule match suppresses generic", []string{"Borg_Space_Cube"}, "Borg Space"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := d.Detect(combatWith(t, 1, tt.targets...))
			if got.Map != tt.want {
				t.Errorf("Detect() = %+v, want %q", got, tt.want)
			}
		})
	}
}

func TestDetect_NotFound(t *testing.T) {
	d := New(settings(rule("Borg Space", "Borg_")))
	got := d.Detect(combatWith(t, 1, "Klingon_Bird"))
	if got.Found || got.Map != "" || got.Method != MethodNone {
		t.Errorf("Detect() = %+v, want not found", got)
	}
}

func TestDetect_PlayerBounds(t *testing.T) {
	small := rule("Small", "Borg_")
	small.MaxPlayers = 1
	large := rule("Large", "Borg_")
	large.MinPlayers = 3

	tests := []struct {
		name       string
		players    int
		enforceMin bool
		enforceMax bool
		want       string
	}{
		{"no enforcement picks first", 2, false, false, "Small"},
		{"max filters small", 3, false, true, "Large"},
		{"min filters large", 1, true, false, "Small"},
		{"both filter everything", 2, true, true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := settings(small, large)
			cfg.EnforceMinPlayers = tt.enforceMin
			cfg.EnforceMaxPlayers = tt.enforceMax
			got := New(cfg).Detect(combatWith(t, tt.players, "Borg_Cube"))
			if got.Map != tt.want {
				t.Errorf("Detect() = %+v, want %q", got, tt.want)
			}
		})
	}
}

func TestDetect_CountersArePerCall(t *testing.T) {
	d := New(settings(rule("Borg Space", "Borg_"), rule("Tholian", "Tholian_")))

	borgHeavy := combatWith(t, 1, "Borg_Cube", "Borg_Sphere")
	tholian := combatWith(t, 1, "Tholian_Web")

	if got := d.Detect(borgHeavy).Map; got != "Borg Space" {
		t.Fatalf("first Detect() = %q", got)
	}
	if got := d.Detect(tholian).Map; got != "Tholian" {
		t.Errorf("second Detect() = %q, want Tholian with fresh counters", got)
	}
}
