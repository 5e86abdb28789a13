package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/danmuck/ndefsync/internal/testutil/testlog"
)

func TestTemplatesRoundTrip(t *testing.T) {
	testlog.Start(t)

	dir := t.TempDir()
	daemon := filepath.Join(dir, "ndefsyncd", "config.toml")
	if err := WriteTemplate(daemon, KindDaemon, false); err != nil {
		t.Fatalf("write daemon template: %v", err)
	}
	cfg, err := LoadDaemonFile(daemon)
	if err != nil {
		t.Fatalf("load daemon template: %v", err)
	}
	if cfg.TerminalsRoot != "local/terminals" || cfg.EventBuffer == nil || *cfg.EventBuffer != 64 {
		t.Fatalf("unexpected daemon template: %+v", cfg)
	}
	if err := WriteTemplate(daemon, KindDaemon, false); !errors.Is(err, ErrExists) {
		t.Fatalf("expected ErrExists without overwrite, got %v", err)
	}
	if err := WriteTemplate(daemon, KindDaemon, true); err != nil {
		t.Fatalf("overwrite: %v", err)
	}

	readerDir := filepath.Join(dir, "desk")
	if err := WriteTemplate(ReaderDescriptorPath(readerDir), KindReader, false); err != nil {
		t.Fatalf("write reader template: %v", err)
	}
	desc, err := LoadReaderDir(readerDir)
	if err != nil {
		t.Fatalf("load reader template: %v", err)
	}
	if desc.Name != "desk" || desc.MaxSize != 496 || !desc.IsEnabled() {
		t.Fatalf("unexpected reader template: %+v", desc)
	}

	if _, err := Template("relay"); !errors.Is(err, ErrUnknownKind) {
		t.Fatalf("expected ErrUnknownKind, got %v", err)
	}
}

func TestLoadDaemonFileRejects(t *testing.T) {
	testlog.Start(t)

	cases := []struct {
		name string
		body string
		want string
	}{
		{name: "unknown key", body: "listen = \":1\"\n", want: "parse failed"},
		{name: "bad poll", body: "poll_interval = \"often\"\n", want: "poll_interval"},
		{name: "negative idle", body: "idle_poll_interval = \"-1s\"\n", want: "idle_poll_interval"},
		{name: "zero buffer", body: "event_buffer = 0\n", want: "event_buffer"},
		{name: "blank origin", body: "cors_origins = [\"\"]\n", want: "cors_origins"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			if err := os.WriteFile(path, []byte(tc.body), 0o644); err != nil {
				t.Fatalf("write: %v", err)
			}
			_, err := LoadDaemonFile(path)
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error mentioning %q, got %v", tc.want, err)
			}
		})
	}
}

func TestLoadReaderDirRejectsTinyTag(t *testing.T) {
	testlog.Start(t)

	dir := t.TempDir()
	if err := os.WriteFile(ReaderDescriptorPath(dir), []byte("max_size = 4\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadReaderDir(dir); err == nil || !strings.Contains(err.Error(), "max_size") {
		t.Fatalf("expected max_size rejection, got %v", err)
	}
}

func TestDaemonExampleValidates(t *testing.T) {
	testlog.Start(t)

	cfg, err := LoadDaemonFile(filepath.Join("..", "..", "cmd", "ndefsyncd", "ex.config.toml"))
	if err != nil {
		t.Fatalf("example config: %v", err)
	}
	if cfg.ControlToken == "" || len(cfg.CORSOrigins) != 2 {
		t.Fatalf("unexpected example config: %+v", cfg)
	}
}
