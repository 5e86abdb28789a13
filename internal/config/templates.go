package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	KindDaemon = "daemon"
	KindReader = "reader"
)

var (
	ErrUnknownKind = errors.New("config: unknown kind")
	ErrExists      = errors.New("config: file already exists")
)

// Template returns the commented starter file for kind.
func Template(kind string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case KindDaemon:
		return daemonTemplate, nil
	case KindReader:
		return readerTemplate, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}

// WriteTemplate writes the template for kind to path, creating parent
// directories. An existing file is only replaced when overwrite is set.
func WriteTemplate(path, kind string, overwrite bool) error {
	body, err := Template(kind)
	if err != nil {
		return err
	}
	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if !overwrite {
		flags = os.O_WRONLY | os.O_CREATE | os.O_EXCL
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("config: create parent of %s: %w", path, err)
	}
	f, err := os.OpenFile(path, flags, 0o600)
	if errors.Is(err, os.ErrExist) {
		return fmt.Errorf("%w: %s", ErrExists, path)
	}
	if err != nil {
		return err
	}
	if _, err := f.WriteString(body); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

const daemonTemplate = `# ndefsyncd
listen_addr = "127.0.0.1:9400"
cors_origins = ["http://localhost:3000"]

# one subdirectory per reader, each with a terminal.toml
terminals_root = "local/terminals"

# fast cadence while a terminal is connected, slow while idle
poll_interval = "1s"
idle_poll_interval = "5s"
reader_seen = false

auto_open = true
event_buffer = 64

# bearer token for mutating routes; empty leaves them open
control_token = ""
`

const readerTemplate = `# name defaults to the directory name
tag_type = "type2"
max_size = 496
scan_interval = "250ms"
enabled = true
`
