// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package telemetry

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// Metrics holds the instruments recorded by the task manager and the HTTP layer.
type Metrics struct {
	// TasksCreated counts tasks created by tasks/send.
	TasksCreated metric.Int64Counter
	// Transitions counts committed status transitions, labeled by target state.
	Transitions metric.Int64Counter
	// TurnDuration records how long the agent took on one message, in seconds.
	TurnDuration metric.Float64Histogram
	// ToolCalls counts tool invocations, labeled by tool name and outcome.
	ToolCalls metric.Int64Counter
	// RequestDuration records JSON-RPC request latency, labeled by method and error code.
	RequestDuration metric.Float64Histogram
}

// NewMetrics creates the instruments on m. An instrument that cannot be created is reported to
// the global otel error handler and replaced with a no-op.
func NewMetrics(m metric.Meter) *Metrics {
	var (
		ms  Metrics
		err error
	)

	ms.TasksCreated, err = m.Int64Counter("a2a_tasks_created",
		metric.WithDescription("Count of tasks created"),
	)
	if err != nil {
		otel.Handle(err)
		ms.TasksCreated = noop.Int64Counter{}
	}

	ms.Transitions, err = m.Int64Counter("a2a_task_transitions",
		metric.WithDescription("Count of task status transitions"),
	)
	if err != nil {
		otel.Handle(err)
		ms.Transitions = noop.Int64Counter{}
	}

	ms.TurnDuration, err = m.Float64Histogram("a2a_agent_turn_duration",
		metric.WithDescription("Agent turn duration"),
		metric.WithUnit("s"),
	)
	if err != nil {
		otel.Handle(err)
		ms.TurnDuration = noop.Float64Histogram{}
	}

	ms.ToolCalls, err = m.Int64Counter("a2a_agent_tool_calls",
		metric.WithDescription("Count of tool calls"),
	)
	if err != nil {
		otel.Handle(err)
		ms.ToolCalls = noop.Int64Counter{}
	}

	ms.RequestDuration, err = m.Float64Histogram("a2a_rpc_request_duration",
		metric.WithDescription("JSON-RPC request duration"),
		metric.WithUnit("s"),
	)
	if err != nil {
		otel.Handle(err)
		ms.RequestDuration = noop.Float64Histogram{}
	}

	return &ms
}

// NoopMetrics returns instruments that record nothing.
func NoopMetrics() *Metrics {
	return NewMetrics(noop.NewMeterProvider().Meter(instrumentationName))
}
