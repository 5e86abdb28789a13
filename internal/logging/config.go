// Package logging picks the process log profile and applies NDEFSYNC_LOG_*
// environment overrides on top of it.
package logging

import (
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/danmuck/ndefsync/internal/logs"
	"github.com/rs/zerolog"
)

const (
	EnvLogLevel     = "NDEFSYNC_LOG_LEVEL"
	EnvLogTimestamp = "NDEFSYNC_LOG_TIMESTAMP"
	EnvLogNoColor   = "NDEFSYNC_LOG_NOCOLOR"
	EnvLogBypass    = "NDEFSYNC_LOG_BYPASS"
)

type Profile int

const (
	// ProfileRuntime is the daemon: info with timestamps.
	ProfileRuntime Profile = iota
	// ProfileTest is debug output without timestamps or color.
	ProfileTest
	// ProfileCLI keeps one-shot tools quiet unless something goes wrong.
	ProfileCLI
)

var configureOnce sync.Once

func ConfigureRuntime() { Configure(ProfileRuntime) }
func ConfigureTests()   { Configure(ProfileTest) }
func ConfigureCLI()     { Configure(ProfileCLI) }

// Configure applies the profile and env overrides. Later calls are no-ops.
func Configure(profile Profile) {
	configureOnce.Do(func() {
		cfg := defaultConfig(profile)
		applyEnv(&cfg, os.Getenv)
		logs.Configure(cfg)
	})
}

func defaultConfig(profile Profile) logs.Config {
	cfg := logs.DefaultConfig()
	switch profile {
	case ProfileTest:
		cfg.Level = logs.DebugLevel
		cfg.Timestamp = false
		cfg.NoColor = true
	case ProfileCLI:
		cfg.Level = logs.WarnLevel
		cfg.Timestamp = false
	default:
		cfg.Level = logs.InfoLevel
		cfg.Timestamp = true
	}
	return cfg
}

func applyEnv(cfg *logs.Config, getenv func(string) string) {
	if lvl, ok := parseLevel(getenv(EnvLogLevel)); ok {
		cfg.Level = lvl
	}
	flags := []struct {
		env string
		dst *bool
	}{
		{EnvLogTimestamp, &cfg.Timestamp},
		{EnvLogNoColor, &cfg.NoColor},
		{EnvLogBypass, &cfg.Bypass},
	}
	for _, f := range flags {
		if v, err := strconv.ParseBool(strings.TrimSpace(getenv(f.env))); err == nil {
			*f.dst = v
		}
	}
}

// parseLevel accepts zerolog level names plus "warning" and "off".
func parseLevel(raw string) (logs.Level, bool) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	switch raw {
	case "":
		return logs.InfoLevel, false
	case "warning":
		return logs.WarnLevel, true
	case "off", "none":
		return logs.Disabled, true
	}
	lvl, err := zerolog.ParseLevel(raw)
	if err != nil || lvl == zerolog.NoLevel {
		return logs.InfoLevel, false
	}
	return lvl, true
}
