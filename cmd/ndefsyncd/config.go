package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/danmuck/ndefsync/internal/monitor"
	"github.com/danmuck/ndefsync/internal/server"
	"github.com/danmuck/ndefsync/internal/workbench"
)

type ServiceConfig struct {
	Server        server.Config
	Monitor       monitor.Config
	Workbench     workbench.Config
	TerminalsRoot string
	ReaderSeen    bool
}

func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		Server:        server.DefaultConfig(),
		Monitor:       monitor.DefaultConfig(),
		Workbench:     workbench.DefaultConfig(),
		TerminalsRoot: "local/terminals",
	}
}

type fileConfig struct {
	ListenAddr       string   `toml:"listen_addr"`
	CORSOrigins      []string `toml:"cors_origins"`
	TerminalsRoot    string   `toml:"terminals_root"`
	PollInterval     string   `toml:"poll_interval"`
	IdlePollInterval string   `toml:"idle_poll_interval"`
	ReaderSeen       bool     `toml:"reader_seen"`
	AutoOpen         bool     `toml:"auto_open"`
	EventBuffer      int      `toml:"event_buffer"`
	ControlToken     string   `toml:"control_token"`
}

func loadServiceConfig(path string) (ServiceConfig, error) {
	cfg := DefaultServiceConfig()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return ServiceConfig{}, fmt.Errorf("load ndefsyncd config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return ServiceConfig{}, fmt.Errorf("load ndefsyncd config: unknown key %q", undecoded[0].String())
	}

	if meta.IsDefined("listen_addr") {
		if addr := strings.TrimSpace(raw.ListenAddr); addr != "" {
			cfg.Server.Addr = addr
		}
	}

	if meta.IsDefined("cors_origins") {
		cfg.Server.CORSOrigins = normalizeOrigins(raw.CORSOrigins)
	}

	if meta.IsDefined("terminals_root") {
		cfg.TerminalsRoot = strings.TrimSpace(raw.TerminalsRoot)
	}

	if meta.IsDefined("poll_interval") {
		d, err := parsePositive("poll_interval", raw.PollInterval)
		if err != nil {
			return ServiceConfig{}, err
		}
		cfg.Monitor.PollInterval = d
	}

	if meta.IsDefined("idle_poll_interval") {
		d, err := parsePositive("idle_poll_interval", raw.IdlePollInterval)
		if err != nil {
			return ServiceConfig{}, err
		}
		cfg.Monitor.IdleInterval = d
	}

	if meta.IsDefined("reader_seen") {
		cfg.ReaderSeen = raw.ReaderSeen
	}

	if meta.IsDefined("auto_open") {
		cfg.Workbench.AutoOpen = raw.AutoOpen
	}

	if meta.IsDefined("event_buffer") {
		if raw.EventBuffer <= 0 {
			return ServiceConfig{}, fmt.Errorf("parse event_buffer: must be positive, got %d", raw.EventBuffer)
		}
		cfg.Workbench.EventBuffer = raw.EventBuffer
	}

	if meta.IsDefined("control_token") {
		cfg.Server.ControlToken = strings.TrimSpace(raw.ControlToken)
	}

	if cfg.TerminalsRoot == "" {
		return ServiceConfig{}, fmt.Errorf("load ndefsyncd config: terminals_root is empty")
	}
	return cfg, nil
}

func parsePositive(key, raw string) (time.Duration, error) {
	d, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("parse %s: must be positive, got %s", key, d)
	}
	return d, nil
}

func normalizeOrigins(in []string) []string {
	out := make([]string, 0, len(in))
	for _, origin := range in {
		v := strings.TrimSpace(origin)
		if v == "" {
			continue
		}
		out = append(out, v)
	}
	return out
}
