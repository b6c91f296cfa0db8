// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package agent

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/go-a2a/taskagent/internal/telemetry"
)

// DefaultMaxSteps is the default number of model rounds of one run.
const DefaultMaxSteps = 5

// Runner is a [Capability] driving a [Model] in a tool calling loop.
//
// Each round sends the conversation to the model. When the response requests tools they are
// executed and their results appended to the conversation for the next round; a response without
// tool calls ends the run. A run that needs more than the step budget fails with
// [ErrStepBudgetExhausted].
type Runner struct {
	model    Model
	tools    *Registry
	maxSteps int
	logger   *slog.Logger
	tracer   trace.Tracer
	metrics  *telemetry.Metrics
}

var _ Capability = (*Runner)(nil)

// RunnerOption configures a [Runner].
type RunnerOption func(*Runner)

// WithMaxSteps sets the step budget. Values below one are ignored.
func WithMaxSteps(n int) RunnerOption {
	return func(r *Runner) {
		if n > 0 {
			r.maxSteps = n
		}
	}
}

// WithRunnerLogger sets the logger.
func WithRunnerLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) { r.logger = logger }
}

// WithRunnerTracer sets the tracer.
func WithRunnerTracer(tracer trace.Tracer) RunnerOption {
	return func(r *Runner) { r.tracer = tracer }
}

// WithRunnerMetrics sets the metric instruments.
func WithRunnerMetrics(m *telemetry.Metrics) RunnerOption {
	return func(r *Runner) { r.metrics = m }
}

// NewRunner returns a Runner calling model with the tools of registry, which may be nil.
func NewRunner(model Model, registry *Registry, opts ...RunnerOption) *Runner {
	r := &Runner{
		model:    model,
		tools:    registry,
		maxSteps: DefaultMaxSteps,
		logger:   slog.Default(),
		tracer:   otel.GetTracerProvider().Tracer("github.com/go-a2a/taskagent/agent"),
		metrics:  telemetry.NoopMetrics(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run implements [Capability].
func (r *Runner) Run(ctx context.Context, in Input) (*Result, error) {
	ctx, span := r.tracer.Start(ctx, "a2a.agent.Run",
		trace.WithAttributes(attribute.Int("a2a.agent.max_steps", r.maxSteps)))
	defer span.End()

	turns := InputTurns(in)
	var steps []Step
	for n := 1; n <= r.maxSteps; n++ {
		resp, err := r.model.Generate(ctx, &Request{Turns: turns, Tools: r.tools.Specs()})
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "generate failed")
			return nil, fmt.Errorf("generate step %d: %w", n, err)
		}

		step := Step{Text: resp.Text, ToolCalls: resp.ToolCalls}
		if len(resp.ToolCalls) == 0 {
			steps = append(steps, step)
			span.SetAttributes(attribute.Int("a2a.agent.steps", len(steps)))
			return &Result{Text: resp.Text, Steps: steps}, nil
		}

		turns = append(turns, Turn{Role: TurnModel, Text: resp.Text, ToolCalls: resp.ToolCalls})
		for _, call := range resp.ToolCalls {
			res := r.tools.Call(ctx, call)
			outcome := "ok"
			if res.Error != "" {
				outcome = "error"
				r.logger.WarnContext(ctx, "tool call failed", "tool", call.Name, "step", n, "error", res.Error)
			} else {
				r.logger.DebugContext(ctx, "tool called", "tool", call.Name, "step", n)
			}
			r.metrics.ToolCalls.Add(ctx, 1, metric.WithAttributes(
				attribute.String("tool", call.Name),
				attribute.String("outcome", outcome),
			))
			step.ToolResults = append(step.ToolResults, res)
		}
		turns = append(turns, Turn{Role: TurnTool, ToolResults: step.ToolResults})
		steps = append(steps, step)
	}

	span.SetStatus(codes.Error, "step budget exhausted")
	return nil, fmt.Errorf("%w after %d steps", ErrStepBudgetExhausted, r.maxSteps)
}
