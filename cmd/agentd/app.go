// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	a2a "github.com/go-a2a/taskagent"
	"github.com/go-a2a/taskagent/agent"
	"github.com/go-a2a/taskagent/agent/gemini"
	"github.com/go-a2a/taskagent/card"
	"github.com/go-a2a/taskagent/config"
	"github.com/go-a2a/taskagent/internal/telemetry"
	"github.com/go-a2a/taskagent/server"
	"github.com/go-a2a/taskagent/server/task"
)

// app is a fully wired agent server.
type app struct {
	handler   http.Handler
	store     task.Store
	telemetry *telemetry.Provider
}

// newApp wires the components described by cfg. traceOut receives stdout spans.
func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger, traceOut io.Writer) (_ *app, err error) {
	tp, err := telemetry.New(ctx, telemetry.Options{
		ServiceName:    "agentd",
		ServiceVersion: version(),
		Metrics:        cfg.Telemetry.Metrics,
		Trace:          cfg.Telemetry.Trace,
		TraceWriter:    traceOut,
	})
	if err != nil {
		return nil, err
	}
	a := &app{telemetry: tp}
	defer func() {
		if err != nil {
			err = errors.Join(err, a.Close(context.WithoutCancel(ctx)))
		}
	}()

	a.store, err = newStore(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}

	model, err := newModel(ctx, cfg.Agent)
	if err != nil {
		return nil, err
	}
	dice, err := agent.NewDiceTool(nil)
	if err != nil {
		return nil, err
	}
	tools, err := agent.NewRegistry(dice)
	if err != nil {
		return nil, err
	}
	runner := agent.NewRunner(model, tools,
		agent.WithMaxSteps(cfg.Agent.MaxSteps),
		agent.WithRunnerLogger(logger),
		agent.WithRunnerTracer(tp.Tracer()),
		agent.WithRunnerMetrics(tp.Metrics()),
	)

	manager := task.NewManager(a.store, runner,
		task.WithLogger(logger),
		task.WithTracer(tp.Tracer()),
		task.WithMetrics(tp.Metrics()),
		task.WithTimeout(cfg.Agent.Timeout),
		task.WithArtifact(cfg.Agent.ArtifactName, cfg.Agent.ArtifactDescription),
	)

	agentCard, err := publishedCard(cfg.Card)
	if err != nil {
		return nil, err
	}

	opts := []server.Option{
		server.WithLogger(logger),
		server.WithTracer(tp.Tracer()),
		server.WithMetrics(tp.Metrics()),
		server.WithMaxBodyBytes(cfg.Server.MaxBodyBytes),
	}
	if h := tp.Handler(); h != nil {
		opts = append(opts, server.WithMetricsHandler(h))
	}
	a.handler, err = server.NewServer(agentCard, manager, opts...)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// Close releases the store and flushes telemetry.
func (a *app) Close(ctx context.Context) error {
	var errs []error
	if a.store != nil {
		errs = append(errs, a.store.Close(ctx))
	}
	errs = append(errs, a.telemetry.Shutdown(ctx))
	return errors.Join(errs...)
}

func newStore(ctx context.Context, cfg config.StoreConfig) (task.Store, error) {
	switch cfg.Backend {
	case config.BackendMemory:
		return task.NewInMemoryStore(), nil
	case config.BackendSQLite:
		db, err := task.OpenSQLite(cfg.DSN)
		if err != nil {
			return nil, err
		}
		return task.NewDatabaseStore(ctx, task.DatabaseStoreConfig{DB: db, CreateTable: true})
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}

func newModel(ctx context.Context, cfg config.AgentConfig) (agent.Model, error) {
	switch cfg.Provider {
	case config.ProviderGemini:
		return gemini.New(ctx, gemini.Config{APIKey: cfg.APIKey, Model: cfg.Model})
	case config.ProviderEcho:
		return agent.EchoModel{}, nil
	default:
		return nil, fmt.Errorf("unknown agent provider %q", cfg.Provider)
	}
}

// publishedCard returns the card to serve, signed when a signing key is configured.
func publishedCard(cfg config.CardConfig) (*a2a.AgentCard, error) {
	c := cfg.AgentCard.Clone()
	if cfg.SigningKey == "" {
		return c, nil
	}
	signer, err := card.NewSigner([]byte(cfg.SigningKey), cfg.KeyID)
	if err != nil {
		return nil, err
	}
	return signer.Sign(c)
}
