package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load reads and validates a configuration file.
// A map_detection.rules_file is loaded and merged before validation.
func Load(_ context.Context, path string) (*Config, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- user-provided config path is expected
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.applyEnvironmentOverrides()

	if rulesFile := cfg.MapDetection.RulesFile; rulesFile != "" {
		if !filepath.IsAbs(rulesFile) {
			rulesFile = filepath.Join(filepath.Dir(path), rulesFile)
		}
		rules, err := LoadMapRules(rulesFile)
		if err != nil {
			return nil, fmt.Errorf("map_detection.rules_file: %w", err)
		}
		cfg.MapDetection = cfg.MapDetection.Merge(rules)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// LoadMapRules reads a YAML map rule set.
func LoadMapRules(path string) (*MapRuleSet, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- user-provided rules path is expected
	if err != nil {
		return nil, fmt.Errorf("reading rules file: %w", err)
	}

	var rules MapRuleSet
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("parsing rules file: %w", err)
	}
	return &rules, nil
}

// Merge returns a copy of m with the rule set's maps placed ahead of the
// inline maps and its exclusions appended. Generic maps from the rule set
// replace the inline ones.
func (m MapDetectionConfig) Merge(rules *MapRuleSet) MapDetectionConfig {
	if rules == nil {
		return m
	}

	out := m
	out.Maps = append(append([]MapRule{}, rules.Maps...), m.Maps...)
	out.Exclusions = append(append([]string{}, m.Exclusions...), rules.Exclusions...)
	if rules.GenericGround != nil {
		out.GenericGround = *rules.GenericGround
	}
	if rules.GenericSpace != nil {
		out.GenericSpace = *rules.GenericSpace
	}
	return out
}

// Validate checks a configuration for errors and fills in defaults.
func Validate(cfg *Config) error {
	if err := validateLogSources(&cfg.LogSources); err != nil {
		return fmt.Errorf("log_sources: %w", err)
	}

	if err := validateCombat(&cfg.Combat); err != nil {
		return fmt.Errorf("combat: %w", err)
	}

	if err := validatePostProcessing(&cfg.PostProcessing); err != nil {
		return fmt.Errorf("post_processing: %w", err)
	}

	if err := validateMapDetection(&cfg.MapDetection); err != nil {
		return fmt.Errorf("map_detection: %w", err)
	}

	cfg.AccountCharacter = strings.TrimSpace(cfg.AccountCharacter)
	return nil
}

func validateLogSources(ls *LogSourcesConfig) error {
	if ls.MaxAge < 0 {
		return errors.New("max_age must not be negative")
	}
	if ls.Folder != "" && ls.Pattern == "" {
		ls.Pattern = DefaultLogPattern
	}
	for i, f := range ls.Files {
		if strings.TrimSpace(f) == "" {
			return fmt.Errorf("files[%d]: path is empty", i)
		}
	}
	return nil
}

func validateCombat(c *CombatConfig) error {
	if c.GapThreshold < 0 {
		return errors.New("gap_threshold must not be negative")
	}
	if c.GapThreshold == 0 {
		c.GapThreshold = DefaultGapThreshold
	}

	if c.MinInactivity < 0 {
		return errors.New("min_inactivity must not be negative")
	}
	if c.MinInactivity == 0 {
		c.MinInactivity = DefaultMinInactivity
	}
	if c.MinInactivity < MinimumInactivity {
		c.MinInactivity = MinimumInactivity
	}
	return nil
}

func validatePostProcessing(pp *PostProcessingConfig) error {
	if pp.MinEvents < 0 {
		return errors.New("min_events must not be negative")
	}
	return nil
}

func validateMapDetection(md *MapDetectionConfig) error {
	seen := make(map[string]bool)
	for i := range md.Maps {
		rule := &md.Maps[i]
		if err := validateMapRule(rule); err != nil {
			return fmt.Errorf("maps[%d] (%s): %w", i, rule.Name, err)
		}
		if seen[rule.Name] {
			return fmt.Errorf("maps[%d]: duplicate map name %q", i, rule.Name)
		}
		seen[rule.Name] = true
	}

	for i, ex := range md.Exclusions {
		if ex == "" {
			return fmt.Errorf("exclusions[%d]: pattern is empty", i)
		}
	}

	if md.GenericGround.Name == "" {
		md.GenericGround.Name = DefaultGroundMapName
	}
	if md.GenericSpace.Name == "" {
		md.GenericSpace.Name = DefaultSpaceMapName
	}
	for _, generic := range []*MapRule{&md.GenericGround, &md.GenericSpace} {
		for j, p := range generic.Patterns {
			if p.Pattern == "" {
				return fmt.Errorf("%s: patterns[%d] is empty", generic.Name, j)
			}
		}
	}

	return nil
}

func validateMapRule(rule *MapRule) error {
	if rule.Name == "" {
		return errors.New("name is required")
	}
	if len(rule.Patterns) == 0 {
		return errors.New("at least one pattern is required")
	}
	for i, p := range rule.Patterns {
		if p.Pattern == "" {
			return fmt.Errorf("patterns[%d] is empty", i)
		}
	}
	for i, ex := range rule.Exclusions {
		if ex == "" {
			return fmt.Errorf("exclusions[%d] is empty", i)
		}
	}
	if rule.MinPlayers < 0 || rule.MaxPlayers < 0 {
		return errors.New("player bounds must not be negative")
	}
	if rule.MinPlayers > 0 && rule.MaxPlayers > 0 && rule.MaxPlayers < rule.MinPlayers {
		return fmt.Errorf("max_players %d is below min_players %d", rule.MaxPlayers, rule.MinPlayers)
	}
	return nil
}
