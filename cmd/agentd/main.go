// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Command agentd serves a task agent over the A2A protocol.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
	"golang.org/x/sync/errgroup"

	"github.com/go-a2a/taskagent/config"
)

// CLI defines the command-line interface.
type CLI struct {
	Serve   ServeCmd   `cmd:"" default:"1" help:"Start the agent server."`
	Card    CardCmd    `cmd:"" help:"Print the agent card served by this configuration."`
	Chat    ChatCmd    `cmd:"" help:"Chat with a remote agent through its skills."`
	Version VersionCmd `cmd:"" help:"Show version information."`

	Config string `short:"c" help:"Path to config file." type:"path" env:"AGENTD_CONFIG"`
}

// ServeCmd starts the agent server.
type ServeCmd struct {
	Addr     string `help:"Address to listen on (overrides server.addr)."`
	LogLevel string `name:"log-level" help:"Log level: debug, info, warn, error (overrides log.level)."`
	Provider string `help:"Model provider: gemini or echo (overrides agent.provider)."`
	Store    string `help:"Task store: memory or sqlite (overrides store.backend)."`
}

func (c *ServeCmd) overrides(cfg *config.Config) {
	if c.Addr != "" {
		cfg.Server.Addr = c.Addr
	}
	if c.LogLevel != "" {
		cfg.Log.Level = c.LogLevel
	}
	if c.Provider != "" {
		cfg.Agent.Provider = c.Provider
	}
	if c.Store != "" {
		cfg.Store.Backend = c.Store
	}
}

func (c *ServeCmd) Run(cli *CLI) error {
	cfg, err := config.Load(cli.Config, c.overrides)
	if err != nil {
		return err
	}
	logger, err := cfg.Log.NewLogger(os.Stderr)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, logger, os.Stdout)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           a.handler,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.InfoContext(ctx, "server listening", "addr", srv.Addr, "provider", cfg.Agent.Provider, "store", cfg.Store.Backend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.Server.ShutdownTimeout)
		defer cancel()
		return errors.Join(srv.Shutdown(shutdownCtx), a.Close(shutdownCtx))
	})
	return g.Wait()
}

// CardCmd prints the agent card.
type CardCmd struct{}

func (c *CardCmd) Run(cli *CLI) error {
	cfg, err := config.Load(cli.Config, func(cfg *config.Config) {
		// the card does not depend on a reachable model
		cfg.Agent.Provider = config.ProviderEcho
	})
	if err != nil {
		return err
	}
	card, err := publishedCard(cfg.Card)
	if err != nil {
		return err
	}
	if err := json.MarshalWrite(os.Stdout, card, jsontext.WithIndent("  ")); err != nil {
		return err
	}
	fmt.Println()
	return nil
}

// VersionCmd shows version information.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	fmt.Printf("agentd version %s\n", version())
	return nil
}

func version() string {
	if info, ok := debug.ReadBuildInfo(); ok {
		if info.Main.Version != "(devel)" && info.Main.Version != "" {
			return info.Main.Version
		}
	}
	return "dev"
}

func main() {
	cli := CLI{}
	ctx := kong.Parse(&cli,
		kong.Name("agentd"),
		kong.Description("A2A task agent server"),
		kong.UsageOnError(),
	)
	err := ctx.Run(&cli)
	ctx.FatalIfErrorf(err)
}
