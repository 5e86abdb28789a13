package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/danmuck/ndefsync/internal/logging"
	"github.com/danmuck/ndefsync/internal/logs"
	"github.com/danmuck/ndefsync/internal/monitor"
	"github.com/danmuck/ndefsync/internal/ndef/wire"
	"github.com/danmuck/ndefsync/internal/observability"
	"github.com/danmuck/ndefsync/internal/server"
	"github.com/danmuck/ndefsync/internal/terminal/virtual"
	"github.com/danmuck/ndefsync/internal/workbench"
)

func main() {
	configPath := flag.String("config", "", "path to ndefsyncd TOML config")
	flag.Parse()

	logging.ConfigureRuntime()
	observability.InitLogger("ndefsyncd")

	cfg := DefaultServiceConfig()
	if *configPath != "" {
		loaded, err := loadServiceConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "ndefsyncd: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	if err := run(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "ndefsyncd: %v\n", err)
		os.Exit(1)
	}
}

// run wires the daemon and blocks until SIGINT/SIGTERM.
func run(cfg ServiceConfig) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := os.MkdirAll(cfg.TerminalsRoot, 0o755); err != nil {
		return fmt.Errorf("prepare terminals_root: %w", err)
	}

	dispatcher := workbench.NewDispatcher()
	bench := workbench.New(cfg.Workbench, dispatcher)

	monCfg := cfg.Monitor
	monCfg.Seen = monitor.NewMemorySeen(cfg.ReaderSeen)
	mon := monitor.New(monCfg, virtual.NewDirectory(cfg.TerminalsRoot), wire.Codec{}, bench)
	bench.Attach(mon)

	srv := server.New(cfg.Server, bench)

	dispatchDone := make(chan struct{})
	go func() {
		defer close(dispatchDone)
		_ = dispatcher.Run(ctx)
	}()

	if err := mon.Start(ctx); err != nil {
		return err
	}
	logs.Infof("ndefsyncd.run ready terminals_root=%q addr=%s poll=%s idle=%s",
		cfg.TerminalsRoot, cfg.Server.Addr, monCfg.PollInterval, monCfg.IdleInterval)

	serveErr := srv.Serve(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	monErr := mon.Shutdown(shutdownCtx)
	stop()
	<-dispatchDone
	logs.Infof("ndefsyncd.run shutdown")
	return errors.Join(serveErr, monErr)
}
