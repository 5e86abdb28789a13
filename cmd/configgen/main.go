package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/danmuck/ndefsync/internal/config"
	"github.com/danmuck/ndefsync/internal/logging"
	"github.com/danmuck/ndefsync/internal/logs"
)

type options struct {
	kind     string
	output   string
	validate bool
	input    string
	force    bool
}

func main() {
	var opts options
	flag.StringVar(&opts.kind, "kind", config.KindDaemon, "config kind: daemon|reader")
	flag.StringVar(&opts.output, "output", "", "output path for daemon config, or reader directory")
	flag.BoolVar(&opts.validate, "validate", false, "validate a daemon config, a reader directory, or a terminals root")
	flag.StringVar(&opts.input, "input", "", "path for validation (defaults to the per-kind path)")
	flag.BoolVar(&opts.force, "force", false, "overwrite existing config file")
	flag.Parse()
	logging.ConfigureCLI()

	if err := run(opts); err != nil {
		fmt.Fprintf(os.Stderr, "configgen: %v\n", err)
		os.Exit(1)
	}
}

func run(opts options) error {
	if opts.validate {
		path := opts.input
		if path == "" {
			path = defaultPath(opts.kind)
		}
		if err := validate(opts.kind, path); err != nil {
			return err
		}
		fmt.Printf("validated %s config at %s\n", opts.kind, path)
		return nil
	}

	target := opts.output
	if target == "" {
		target = defaultPath(opts.kind)
	}
	if target == "" {
		return fmt.Errorf("%w: %q", config.ErrUnknownKind, opts.kind)
	}
	if opts.kind == config.KindReader {
		target = config.ReaderDescriptorPath(target)
	}
	if err := config.WriteTemplate(target, opts.kind, opts.force); err != nil {
		return err
	}
	logs.Infof("configgen.run wrote kind=%s path=%s", opts.kind, target)
	fmt.Printf("wrote %s config template to %s\n", opts.kind, target)
	return nil
}

func validate(kind, path string) error {
	switch kind {
	case config.KindDaemon:
		_, err := config.LoadDaemonFile(path)
		return err
	case config.KindReader:
		if _, err := os.Stat(config.ReaderDescriptorPath(path)); err == nil {
			_, err := config.LoadReaderDir(path)
			return err
		}
		return validateRoot(path)
	default:
		return fmt.Errorf("%w: %q", config.ErrUnknownKind, kind)
	}
}

// validateRoot checks every reader directory under a terminals root.
func validateRoot(root string) error {
	entries, err := os.ReadDir(root)
	if err != nil {
		return err
	}
	var errs []error
	readers := 0
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		dir := filepath.Join(root, entry.Name())
		if _, err := os.Stat(config.ReaderDescriptorPath(dir)); err != nil {
			continue
		}
		readers++
		if _, err := config.LoadReaderDir(dir); err != nil {
			errs = append(errs, err)
		}
	}
	if readers == 0 {
		return fmt.Errorf("no reader directories under %s", root)
	}
	logs.Debugf("configgen.validateRoot root=%s readers=%d failed=%d", root, readers, len(errs))
	return errors.Join(errs...)
}

func defaultPath(kind string) string {
	switch kind {
	case config.KindDaemon:
		return "cmd/ndefsyncd/config.toml"
	case config.KindReader:
		return filepath.Join("local", "terminals", "reader-1")
	default:
		return ""
	}
}
