package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/1broseidon/browsershell/internal/config"
	"github.com/1broseidon/browsershell/internal/engine/remote"
	"github.com/1broseidon/browsershell/internal/ipc"
	"github.com/1broseidon/browsershell/internal/runtimepath"
	"github.com/1broseidon/browsershell/internal/session"
	"github.com/1broseidon/browsershell/internal/shell"
	"github.com/1broseidon/browsershell/internal/x11"
)

func runShell() {
	res, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	cfg := res.Config

	level, _ := cfg.Level()
	logger := newLogger(os.Stderr, level)

	conn, err := x11.NewConnection(x11.Options{
		Display:      cfg.Display,
		WindowWidth:  cfg.Window.Width,
		WindowHeight: cfg.Window.Height,
		Logger:       logger,
	})
	if err != nil {
		log.Fatalf("Failed to connect to display: %v", err)
	}
	defer conn.Close()

	timeout, _ := cfg.ConnectTimeout()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	eng, err := remote.Dial(ctx, cfg.Engine.Endpoint, remote.Options{
		RequestTimeout: timeout,
		Logger:         logger,
	})
	cancel()
	if err != nil {
		log.Fatalf("Failed to start engine: %v", err)
	}
	defer eng.Close()
	logger.Info("engine connected", "endpoint", cfg.Engine.Endpoint, "version", eng.Version())

	bindings, err := resolveBindings(conn, cfg.Keys)
	if err != nil {
		log.Fatalf("Failed to resolve key bindings: %v", err)
	}

	registry := session.NewRegistry(session.Config{
		Engine:   eng,
		Windows:  conn,
		Topology: session.Topology(cfg.Topology),
		Logger:   logger,
	})
	sh := shell.New(registry, shell.Options{
		Bindings: bindings,
		Opener:   shell.NewCommandOpener(cfg.ExternalOpener, logger),
		Logger:   logger,
	})

	for _, rawURL := range cfg.StartURLs {
		if _, err := sh.Open(rawURL); err != nil {
			log.Fatalf("Failed to open %s: %v", rawURL, err)
		}
	}

	socketPath, err := runtimepath.SocketPath(cfg.ControlSocket)
	if err != nil {
		log.Fatalf("Failed to resolve control socket path: %v", err)
	}
	server, err := ipc.NewServer(ipc.ServerOptions{
		SocketPath:    socketPath,
		Windows:       sh,
		Poster:        conn,
		Monitors:      monitorLister(conn),
		EngineVersion: eng.Version(),
		Topology:      cfg.Topology,
		Logger:        logger,
	})
	if err != nil {
		log.Fatalf("Failed to create control server: %v", err)
	}
	if err := server.Start(); err != nil {
		log.Fatalf("Failed to start control server: %v", err)
	}
	defer server.Stop()

	var engineLost atomic.Bool
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigCh:
			logger.Info("shutting down", "signal", sig.String())
		case <-eng.Done():
			engineLost.Store(true)
		}
		conn.Shutdown()
	}()

	if err := sh.Run(conn); err != nil {
		if errors.Is(err, session.ErrUnknownWindow) {
			log.Fatalf("Event for a window the shell does not own: %v", err)
		}
		log.Fatalf("Shell stopped: %v", err)
	}
	if engineLost.Load() {
		log.Fatalf("Engine connection lost: %v", eng.Err())
	}
}

func resolveBindings(conn *x11.Connection, keys config.KeysConfig) (shell.Bindings, error) {
	var b shell.Bindings
	var err error
	if b.Back, err = conn.ResolveBinding(keys.Back); err != nil {
		return shell.Bindings{}, fmt.Errorf("keys.back: %w", err)
	}
	if b.Forward, err = conn.ResolveBinding(keys.Forward); err != nil {
		return shell.Bindings{}, fmt.Errorf("keys.forward: %w", err)
	}
	if b.Reload, err = conn.ResolveBinding(keys.Reload); err != nil {
		return shell.Bindings{}, fmt.Errorf("keys.reload: %w", err)
	}
	return b, nil
}

func monitorLister(conn *x11.Connection) func() ([]ipc.MonitorInfo, error) {
	return func() ([]ipc.MonitorInfo, error) {
		monitors, err := conn.GetMonitors()
		if err != nil {
			return nil, err
		}
		out := make([]ipc.MonitorInfo, len(monitors))
		for i, m := range monitors {
			out[i] = ipc.MonitorInfo{ID: m.ID, Name: m.Name, X: m.X, Y: m.Y, Width: m.Width, Height: m.Height}
		}
		return out, nil
	}
}
