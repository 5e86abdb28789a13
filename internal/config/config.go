// Package config writes and validates ndefsyncd config files: the daemon
// file and virtual reader descriptors.
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/danmuck/ndefsync/internal/terminal/virtual"
	"github.com/pelletier/go-toml/v2"
)

// DaemonFile mirrors the keys ndefsyncd reads.
type DaemonFile struct {
	ListenAddr       string   `toml:"listen_addr"`
	CORSOrigins      []string `toml:"cors_origins"`
	TerminalsRoot    string   `toml:"terminals_root"`
	PollInterval     string   `toml:"poll_interval"`
	IdlePollInterval string   `toml:"idle_poll_interval"`
	ReaderSeen       bool     `toml:"reader_seen"`
	AutoOpen         *bool    `toml:"auto_open"`
	EventBuffer      *int     `toml:"event_buffer"`
	ControlToken     string   `toml:"control_token"`
}

func LoadDaemonFile(path string) (DaemonFile, error) {
	var cfg DaemonFile
	if err := loadToml(path, &cfg); err != nil {
		return DaemonFile{}, err
	}
	if err := ValidateDaemonFile(cfg); err != nil {
		return DaemonFile{}, err
	}
	return cfg, nil
}

// LoadReaderDir validates the descriptor in a reader directory.
func LoadReaderDir(dir string) (virtual.Descriptor, error) {
	desc, err := virtual.LoadDescriptor(dir)
	if err != nil {
		return virtual.Descriptor{}, err
	}
	if err := ValidateDescriptor(desc); err != nil {
		return virtual.Descriptor{}, err
	}
	return desc, nil
}

func loadToml(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config load failed (%s): %w", path, err)
	}
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	return nil
}

func ValidateDaemonFile(cfg DaemonFile) error {
	if cfg.TerminalsRoot != "" && strings.TrimSpace(cfg.TerminalsRoot) == "" {
		return fmt.Errorf("daemon config terminals_root is blank")
	}
	durations := []struct{ key, raw string }{
		{"poll_interval", cfg.PollInterval},
		{"idle_poll_interval", cfg.IdlePollInterval},
	}
	for _, d := range durations {
		key, raw := d.key, d.raw
		if raw == "" {
			continue
		}
		d, err := time.ParseDuration(strings.TrimSpace(raw))
		if err != nil {
			return fmt.Errorf("daemon config %s invalid: %w", key, err)
		}
		if d <= 0 {
			return fmt.Errorf("daemon config %s must be positive", key)
		}
	}
	if cfg.EventBuffer != nil && *cfg.EventBuffer <= 0 {
		return fmt.Errorf("daemon config event_buffer must be positive")
	}
	for i, origin := range cfg.CORSOrigins {
		if strings.TrimSpace(origin) == "" {
			return fmt.Errorf("daemon config cors_origins[%d] is empty", i)
		}
	}
	return nil
}

func ValidateDescriptor(desc virtual.Descriptor) error {
	if strings.TrimSpace(desc.Name) == "" {
		return fmt.Errorf("reader descriptor missing name")
	}
	if desc.MaxSize < 8 {
		return fmt.Errorf("reader descriptor max_size %d too small", desc.MaxSize)
	}
	return nil
}

// ReaderDescriptorPath is where a reader template goes inside dir.
func ReaderDescriptorPath(dir string) string {
	return filepath.Join(dir, virtual.DescriptorFile)
}
