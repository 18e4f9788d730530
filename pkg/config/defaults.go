package config

import (
	"os"
	"time"
)

// Default values for configuration.
const (
	DefaultGapThreshold  = 90 * time.Second
	DefaultMinInactivity = 5 * time.Second
	MinimumInactivity    = 1 * time.Second
	DefaultMinEvents     = 20
	DefaultLogPattern    = "Combatlog*.log"

	DefaultGroundMapName = "Generic Ground"
	DefaultSpaceMapName  = "Generic Space"
)

// Environment variable names.
const (
	EnvLogFolder        = "COMBATLOG_LOG_FOLDER"
	EnvAccountCharacter = "COMBATLOG_ACCOUNT_CHARACTER"
)

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		LogSources: LogSourcesConfig{
			Pattern: DefaultLogPattern,
		},
		Combat: CombatConfig{
			GapThreshold:  DefaultGapThreshold,
			MinInactivity: DefaultMinInactivity,
		},
		PostProcessing: PostProcessingConfig{
			RejectWithoutPlayers:      true,
			RejectBelowMinEvents:      true,
			MinEvents:                 DefaultMinEvents,
			RemoveUnrelatedEntities:   true,
			RemoveUnrelatedNonPlayers: true,
			DetectMaps:                true,
		},
		MapDetection: MapDetectionConfig{
			GenericGround: MapRule{
				Name:     DefaultGroundMapName,
				Patterns: []MapPattern{{Pattern: "Ground"}},
			},
			GenericSpace: MapRule{
				Name:     DefaultSpaceMapName,
				Patterns: []MapPattern{{Pattern: "Space"}},
			},
		},
	}
}

// applyEnvironmentOverrides applies environment variable overrides to the config.
func (c *Config) applyEnvironmentOverrides() {
	if folder := os.Getenv(EnvLogFolder); folder != "" {
		c.LogSources.Folder = folder
	}
	if account := os.Getenv(EnvAccountCharacter); account != "" {
		c.AccountCharacter = account
	}
}
