// Package config provides configuration loading and validation for combatlog.
package config

import (
	"errors"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure loaded from YAML.
// Core packages receive sections of it by value and never modify it.
type Config struct {
	LogSources LogSourcesConfig `yaml:"log_sources"`
	Combat     CombatConfig     `yaml:"combat"`

	// AccountCharacter identifies the user's own character. It is matched as a
	// case-insensitive substring of player owner identifiers.
	AccountCharacter string `yaml:"account_character,omitempty"`

	PostProcessing PostProcessingConfig `yaml:"post_processing"`
	MapDetection   MapDetectionConfig   `yaml:"map_detection"`
}

// LogSourcesConfig selects the combat log files to read.
// Files, when set, take precedence over Folder and ignore MaxAge.
type LogSourcesConfig struct {
	// Folder is the directory holding combat logs.
	Folder string `yaml:"folder,omitempty"`

	// Pattern is a doublestar glob relative to Folder.
	Pattern string `yaml:"pattern,omitempty"`

	// MaxAge drops files last written longer ago than this. Zero keeps everything.
	MaxAge time.Duration `yaml:"max_age,omitempty"`

	// Files is an explicit list of paths or glob patterns.
	Files []string `yaml:"files,omitempty"`
}

// CombatConfig controls segmentation and per-entity aggregation.
type CombatConfig struct {
	// GapThreshold is the inactivity gap that closes a combat.
	GapThreshold time.Duration `yaml:"gap_threshold"`

	// MinInactivity is the shortest pause counted as a dead zone.
	MinInactivity time.Duration `yaml:"min_inactivity"`

	// CombinePets groups pet events by pet display name instead of pet id.
	CombinePets bool `yaml:"combine_pets"`

	// DeduplicateEvents drops repeated events, e.g. from overlapping log copies.
	DeduplicateEvents bool `yaml:"deduplicate_events"`
}

// PostProcessingConfig toggles the passes applied to segmented combats.
type PostProcessingConfig struct {
	RejectWithoutPlayers bool `yaml:"reject_without_players"`
	RejectWithoutAccount bool `yaml:"reject_without_account"`
	RejectBelowMinEvents bool `yaml:"reject_below_min_events"`
	MinEvents            int  `yaml:"min_events"`

	RemoveUnrelatedEntities   bool `yaml:"remove_unrelated_entities"`
	RemoveUnrelatedPlayers    bool `yaml:"remove_unrelated_players"`
	RemoveUnrelatedNonPlayers bool `yaml:"remove_unrelated_non_players"`

	// DisplayRejected keeps rejected combats in the output, marked.
	DisplayRejected bool `yaml:"display_rejected"`

	DetectMaps bool `yaml:"detect_maps"`
}

// MapDetectionConfig is the rule set used to label combats with a map.
type MapDetectionConfig struct {
	EnforceMinPlayers bool `yaml:"enforce_min_players"`
	EnforceMaxPlayers bool `yaml:"enforce_max_players"`

	// RulesFile is an optional YAML rule set, merged ahead of Maps.
	// Relative paths are resolved against the config file's directory.
	RulesFile string `yaml:"rules_file,omitempty"`

	Maps []MapRule `yaml:"maps,omitempty"`

	// Exclusions are identifiers that never count towards any map.
	Exclusions []string `yaml:"exclusions,omitempty"`

	GenericGround MapRule `yaml:"generic_ground"`
	GenericSpace  MapRule `yaml:"generic_space"`
}

// MapRule describes one named map.
type MapRule struct {
	Name     string       `yaml:"name"`
	Patterns []MapPattern `yaml:"patterns"`

	// Exclusions mark the rule as an exception for the combat when matched.
	Exclusions []string `yaml:"exclusions,omitempty"`

	// MinPlayers and MaxPlayers bound the player count; zero is unbounded.
	MinPlayers int `yaml:"min_players,omitempty"`
	MaxPlayers int `yaml:"max_players,omitempty"`
}

// MapPattern is a substring matched against combat identifiers.
type MapPattern struct {
	Pattern string `yaml:"pattern"`

	// UniqueToMap makes a match decide the map immediately.
	UniqueToMap bool `yaml:"unique,omitempty"`
}

// UnmarshalYAML accepts either a bare string or a {pattern, unique} mapping.
func (p *MapPattern) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		p.Pattern = value.Value
		p.UniqueToMap = false
		return nil
	case yaml.MappingNode:
		type plain MapPattern
		var out plain
		if err := value.Decode(&out); err != nil {
			return err
		}
		*p = MapPattern(out)
		return nil
	default:
		return errors.New("map pattern must be a string or a mapping")
	}
}

// PlayerCountAllowed reports whether a combat with players players satisfies
// the rule's bounds under the given enforcement toggles.
func (r MapRule) PlayerCountAllowed(players int, enforceMin, enforceMax bool) bool {
	if enforceMin && r.MinPlayers > 0 && players < r.MinPlayers {
		return false
	}
	if enforceMax && r.MaxPlayers > 0 && players > r.MaxPlayers {
		return false
	}
	return true
}

// MapRuleSet is the content of a rules file.
type MapRuleSet struct {
	Maps          []MapRule `yaml:"maps"`
	Exclusions    []string  `yaml:"exclusions,omitempty"`
	GenericGround *MapRule  `yaml:"generic_ground,omitempty"`
	GenericSpace  *MapRule  `yaml:"generic_space,omitempty"`
}
