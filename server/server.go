// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Package server exposes a task agent over HTTP: the agent card, the JSON-RPC endpoint and the
// operational endpoints.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-json-experiment/json"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	a2a "github.com/go-a2a/taskagent"
	"github.com/go-a2a/taskagent/internal/telemetry"
)

// DefaultMaxBodyBytes limits the size of a JSON-RPC request body.
const DefaultMaxBodyBytes = 1 << 20

// AgentCardPath is where the agent card is served.
const AgentCardPath = "/.well-known/agent.json"

// TaskHandler executes the task methods of the protocol.
type TaskHandler interface {
	Send(ctx context.Context, params a2a.TaskSendParams) (*a2a.SendTaskResult, error)
	Get(ctx context.Context, params a2a.TaskQueryParams) (*a2a.GetTaskResult, error)
}

// Server implements the A2A protocol server.
type Server struct {
	tasks   TaskHandler
	methods map[string]methodFunc
	router  chi.Router

	card []byte

	logger         *slog.Logger
	tracer         trace.Tracer
	metrics        *telemetry.Metrics
	metricsHandler http.Handler
	maxBodyBytes   int64
}

var _ http.Handler = (*Server)(nil)

// NewServer creates a Server answering task methods with tasks and publishing card.
func NewServer(card *a2a.AgentCard, tasks TaskHandler, opts ...Option) (*Server, error) {
	if card == nil {
		return nil, errors.New("agent card is required")
	}
	if tasks == nil {
		return nil, errors.New("task handler is required")
	}
	if err := card.Validate(); err != nil {
		return nil, err
	}
	encoded, err := json.Marshal(card)
	if err != nil {
		return nil, err
	}

	s := &Server{
		tasks:        tasks,
		card:         encoded,
		logger:       slog.Default(),
		tracer:       otel.GetTracerProvider().Tracer("github.com/go-a2a/taskagent/server"),
		metrics:      telemetry.NoopMetrics(),
		maxBodyBytes: DefaultMaxBodyBytes,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.registerMethods()
	s.registerHandlers()

	return s, nil
}

// ServeHTTP implements [http.Handler].
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// registerHandlers sets up all the HTTP routes.
func (s *Server) registerHandlers() {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(s.logRequests)
	r.Use(s.recoverRPC)

	r.Get(AgentCardPath, s.handleAgentCard)
	r.Post("/", s.handleRPC)
	r.Get("/healthz", s.handleHealth)
	if s.metricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", s.metricsHandler)
	}

	s.router = r
}

// handleAgentCard serves the agent card.
func (s *Server) handleAgentCard(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if _, err := w.Write(s.card); err != nil {
		s.logger.DebugContext(r.Context(), "write agent card", "error", err)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
