package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/godbus/dbus/v5"
	"github.com/gofrs/flock"

	"github.com/SoarinFerret/FocusWarden/internal/blocking"
	"github.com/SoarinFerret/FocusWarden/internal/blockpage"
	"github.com/SoarinFerret/FocusWarden/internal/broadcast"
	"github.com/SoarinFerret/FocusWarden/internal/config"
	"github.com/SoarinFerret/FocusWarden/internal/engine"
	"github.com/SoarinFerret/FocusWarden/internal/history"
	"github.com/SoarinFerret/FocusWarden/internal/ipc"
	"github.com/SoarinFerret/FocusWarden/internal/loginctl"
	"github.com/SoarinFerret/FocusWarden/internal/notify"
	"github.com/SoarinFerret/FocusWarden/internal/state"
)

func main() {
	// check for argument to determine config location
	argPath := config.DefaultPath()
	if len(os.Args) > 1 {
		argPath = os.Args[1]
	}
	if err := config.LoadConfigFromFile(argPath); err != nil {
		fatal(slog.Default(), "failed to load config", "path", argPath, "err", err)
	}
	cfg := &config.AppConfig

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)
	logger.Info("using config file", "path", argPath)

	if err := run(cfg, logger); err != nil {
		fatal(logger, "focuswardend failed", "err", err)
	}
	logger.Info("shutdown complete")
}

func fatal(logger *slog.Logger, msg string, args ...any) {
	logger.Error(msg, args...)
	os.Exit(1)
}

func run(cfg *config.Config, logger *slog.Logger) error {
	stateMgr, err := state.NewManager(cfg.Daemon.StateDir)
	if err != nil {
		return fmt.Errorf("failed to initialize state manager: %w", err)
	}

	lock := flock.New(filepath.Join(cfg.Daemon.StateDir, "focuswardend.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("failed to lock state directory: %w", err)
	}
	if !locked {
		return fmt.Errorf("another focuswardend is already using %s", cfg.Daemon.StateDir)
	}
	defer lock.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Graceful shutdown
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		cancel()
	}()

	conn, err := ipc.Connect(cfg.Daemon.Bus)
	if err != nil {
		return err
	}
	defer conn.Close()

	var applier blocking.Applier = blocking.NopApplier{}
	if *cfg.Blocking.Enabled {
		applier = blocking.FileApplier{Path: cfg.Blocking.RulesFile}
	}
	policy := blocking.NewEngine(applier, cfg.Blocking.RedirectURL, logger.With("component", "blocking"))

	hub := broadcast.NewHub(logger.With("component", "broadcast"))
	hub.AddSink(ipc.SignalSink{Conn: conn})

	deps := engine.Deps{
		Store:     stateMgr,
		Policy:    policy,
		Publisher: hub,
		Interval:  cfg.Daemon.TickInterval.Duration,
		Logger:    logger.With("component", "clock"),
	}
	if *cfg.Notify.Enabled {
		deps.Alarm = notify.NewNotifier(alarmConn(cfg, conn, logger), cfg.Notify.CacheDir, logger.With("component", "notify"))
	}
	if *cfg.History.Enabled {
		db, err := history.Open(cfg.History.Path)
		if err != nil {
			logger.Warn("history disabled", "err", err)
		} else {
			defer db.Close()
			deps.Recorder = db
		}
	}

	eng := engine.New(engine.NewClock(deps), logger.With("component", "engine"))

	svc := &ipc.TimerService{Timer: eng, Rules: policy, Ctx: ctx, Logger: logger}
	if err := ipc.Export(conn, svc); err != nil {
		return err
	}
	logger.Info("exported D-Bus service", "name", ipc.ServiceName, "bus", cfg.Daemon.Bus)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := eng.Run(ctx); err != nil {
			logger.Error("engine error", "err", err)
		}
		cancel()
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		logger.Info("watching state directory", "dir", stateMgr.Dir())
		err := stateMgr.Watch(ctx, state.Handlers{
			Settings:  eng.SettingsChanged,
			BlockList: eng.BlockListChanged,
		}, logger.With("component", "state"))
		if err != nil {
			logger.Warn("state watcher stopped", "err", err)
		}
	}()

	if *cfg.Daemon.PauseOnSleep || *cfg.Daemon.PauseOnLock {
		wg.Add(1)
		go func() {
			defer wg.Done()
			pause := func() {
				if _, err := eng.Pause(ctx); err != nil && !errors.Is(err, context.Canceled) {
					logger.Warn("failed to pause timer", "err", err)
				}
			}
			var h loginctl.Handlers
			if *cfg.Daemon.PauseOnSleep {
				h.Sleep = pause
			}
			if *cfg.Daemon.PauseOnLock {
				h.Lock = pause
			}
			logger.Info("monitoring logind for sleep and lock")
			if err := loginctl.Watch(ctx, uint32(os.Getuid()), h, logger.With("component", "loginctl")); err != nil {
				logger.Warn("logind watcher error", "err", err)
			}
		}()
	}

	if *cfg.Blockpage.Enabled {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h := &blockpage.Handler{
				Status: eng.State,
				Logger: logger.With("component", "blockpage"),
			}
			if err := blockpage.Serve(ctx, cfg.Blockpage.Listen, h); err != nil {
				logger.Warn("blocked page server error", "err", err)
			}
		}()
	}

	wg.Wait()
	return nil
}

// alarmConn returns a session bus connection for desktop notifications. A
// daemon on the system bus still notifies on the user's session bus.
func alarmConn(cfg *config.Config, conn *dbus.Conn, logger *slog.Logger) *dbus.Conn {
	if cfg.Daemon.Bus != "system" {
		return conn
	}
	sessionConn, err := dbus.ConnectSessionBus()
	if err != nil {
		logger.Warn("no session bus for notifications, using system bus", "err", err)
		return conn
	}
	return sessionConn
}
