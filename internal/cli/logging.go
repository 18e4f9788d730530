package cli

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// EnvLogLevel selects the log level when --log-level is not given.
const EnvLogLevel = "LOGLEVEL"

// setupLogging loads an optional .env file and configures the global logger
// on stderr. flagLevel wins over the environment; the default is warn.
func setupLogging(flagLevel string) {
	// Load .env file if it exists
	err := godotenv.Load()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	levelStr := strings.ToLower(flagLevel)
	if levelStr == "" {
		levelStr = strings.ToLower(os.Getenv(EnvLogLevel))
	}

	level, ok := parseLevel(levelStr)
	zerolog.SetGlobalLevel(level)
	if !ok {
		log.Warn().Msgf("Unknown log level '%s', defaulting to warn.", levelStr)
	}

	// wait until now to report on the .env file so logging is set up first
	if err == nil {
		log.Debug().Msg("Loaded environment variables from .env file.")
	}
}

func parseLevel(s string) (zerolog.Level, bool) {
	switch s {
	case "debug":
		return zerolog.DebugLevel, true
	case "info":
		return zerolog.InfoLevel, true
	case "", "warn", "warning":
		return zerolog.WarnLevel, true
	case "error":
		return zerolog.ErrorLevel, true
	case "disabled", "off":
		return zerolog.Disabled, true
	default:
		return zerolog.WarnLevel, false
	}
}
