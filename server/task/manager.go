// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	a2a "github.com/go-a2a/taskagent"
	"github.com/go-a2a/taskagent/agent"
	"github.com/go-a2a/taskagent/internal/telemetry"
)

// DefaultTimeout bounds one agent run.
const DefaultTimeout = 60 * time.Second

// DefaultArtifactName is the name of the artifact holding the final answer.
const DefaultArtifactName = "dice"

// Manager owns the lifecycle of tasks: it accepts messages, runs the agent on them and records
// the outcome in the Store.
//
// A message is accepted and the task moved to working in one store update; the agent then runs
// without any lock held, and its outcome is committed in a second update that re-reads the task.
type Manager struct {
	store      Store
	capability agent.Capability

	logger  *slog.Logger
	tracer  trace.Tracer
	metrics *telemetry.Metrics

	now          func() time.Time
	newSessionID func() string
	timeout      time.Duration

	artifactName        string
	artifactDescription string
}

// Option configures a [Manager].
type Option func(*Manager)

// WithLogger sets the logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) { m.logger = logger }
}

// WithTracer sets the tracer for the Manager.
func WithTracer(tracer trace.Tracer) Option {
	return func(m *Manager) { m.tracer = tracer }
}

// WithMetrics sets the metric instruments for the Manager.
func WithMetrics(metrics *telemetry.Metrics) Option {
	return func(m *Manager) { m.metrics = metrics }
}

// WithClock sets the source of status timestamps.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithSessionIDGenerator sets the generator of session ids for new tasks.
func WithSessionIDGenerator(fn func() string) Option {
	return func(m *Manager) { m.newSessionID = fn }
}

// WithTimeout bounds each agent run. Non-positive values are ignored.
func WithTimeout(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.timeout = d
		}
	}
}

// WithArtifact sets the name and description of the answer artifact.
func WithArtifact(name, description string) Option {
	return func(m *Manager) {
		m.artifactName = name
		m.artifactDescription = description
	}
}

// NewManager creates a Manager storing tasks in store and answering with capability.
func NewManager(store Store, capability agent.Capability, opts ...Option) *Manager {
	m := &Manager{
		store:        store,
		capability:   capability,
		logger:       slog.Default(),
		tracer:       otel.GetTracerProvider().Tracer("github.com/go-a2a/taskagent/task_manager"),
		metrics:      telemetry.NoopMetrics(),
		now:          func() time.Time { return time.Now().UTC() },
		newSessionID: uuid.NewString,
		timeout:      DefaultTimeout,
		artifactName: DefaultArtifactName,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Send handles tasks/send: it records the message on the task, creating the task on first use,
// runs the agent and returns the resulting task state.
//
// A task in a terminal state rejects the message with *a2a.TaskAlreadyCompletedError and is left
// untouched. Agent failures do not fail the call; they move the task to failed.
func (m *Manager) Send(ctx context.Context, params a2a.TaskSendParams) (*a2a.SendTaskResult, error) {
	ctx, span := m.tracer.Start(ctx, "a2a.task_manager.Send",
		trace.WithAttributes(attribute.String("a2a.task_id", params.ID)))
	defer span.End()

	if err := params.Validate(); err != nil {
		return nil, &a2a.ValidationError{Err: err}
	}
	msg := params.Message.Clone()

	accepted, created, err := m.accept(ctx, params, msg)
	if err != nil {
		span.RecordError(err)
		var done *a2a.TaskAlreadyCompletedError
		if errors.As(err, &done) {
			m.logger.InfoContext(ctx, "message rejected by finished task", "task_id", params.ID, "state", done.State)
			return nil, err
		}
		span.SetStatus(codes.Error, "accept failed")
		return nil, NewTaskManagerError("send", params.ID, err)
	}
	if created {
		m.metrics.TasksCreated.Add(ctx, 1)
		m.logger.InfoContext(ctx, "task created", "task_id", accepted.ID, "session_id", accepted.SessionID)
	}
	m.recordTransition(ctx, accepted)

	result, runErr := m.run(ctx, accepted.ID, msg)
	if runErr != nil {
		span.RecordError(runErr)
		m.logger.WarnContext(ctx, "agent run failed", "task_id", accepted.ID, "error", runErr)
	}

	final, err := m.finalize(context.WithoutCancel(ctx), accepted.ID, result, runErr)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "finalize failed")
		return nil, NewTaskManagerError("send", params.ID, err)
	}
	span.SetAttributes(attribute.String("a2a.task_state", string(final.Status.State)))
	m.logger.InfoContext(ctx, "task updated", "task_id", final.ID, "state", final.Status.State)

	return &a2a.SendTaskResult{
		ID:        final.ID,
		SessionID: final.SessionID,
		Status:    final.Status.State,
		Artifacts: final.Artifacts,
		History:   final.HistoryTail(params.HistoryLength),
	}, nil
}

// accept appends msg to the task, creating it when absent, and moves it to working.
func (m *Manager) accept(ctx context.Context, params a2a.TaskSendParams, msg a2a.Message) (task *a2a.Task, created bool, err error) {
	task, err = m.store.Upsert(ctx, params.ID, func(cur *a2a.Task) (*a2a.Task, error) {
		now := m.now()
		if cur == nil {
			created = true
			cur = a2a.NewTask(params.ID, m.newSessionID(), msg, now)
			cur.Metadata = maps.Clone(params.Metadata)
		} else {
			if cur.Status.State.IsTerminal() {
				return nil, &a2a.TaskAlreadyCompletedError{TaskID: cur.ID, State: cur.Status.State}
			}
			cur.History = append(cur.History, msg.Clone())
		}
		if err := cur.Transition(a2a.TaskStateWorking, nil, now); err != nil {
			return nil, err
		}
		return cur, nil
	})
	return task, created, err
}

// run invokes the capability on msg under the configured timeout. The run is detached from the
// cancellation of ctx so a departed client does not strand the task in working.
func (m *Manager) run(ctx context.Context, taskID string, msg a2a.Message) (res *agent.Result, err error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.timeout)
	defer cancel()

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			res, err = nil, &a2a.AdapterError{TaskID: taskID, Err: fmt.Errorf("panic: %v", r)}
		}
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		m.metrics.TurnDuration.Record(ctx, time.Since(start).Seconds(),
			metric.WithAttributes(attribute.String("outcome", outcome)))
	}()

	res, err = m.capability.Run(ctx, agent.Input{Role: msg.Role, Parts: msg.Parts})
	if err == nil && res == nil {
		err = errors.New("agent returned no result")
	}
	if err != nil {
		return nil, &a2a.AdapterError{TaskID: taskID, Err: err}
	}
	return res, nil
}

// finalize commits the outcome of a run. A task already finished by a concurrent turn is kept as
// it is.
func (m *Manager) finalize(ctx context.Context, taskID string, result *agent.Result, runErr error) (*a2a.Task, error) {
	var changed bool
	task, err := m.store.Upsert(ctx, taskID, func(cur *a2a.Task) (*a2a.Task, error) {
		if cur == nil {
			return nil, &a2a.TaskNotFoundError{TaskID: taskID}
		}
		if cur.Status.State.IsTerminal() {
			m.logger.WarnContext(ctx, "task finished by a concurrent turn; dropping outcome",
				"task_id", taskID, "state", cur.Status.State)
			return cur, nil
		}
		changed = true
		now := m.now()

		if runErr != nil {
			status := a2a.NewAgentTextMessage(failureText(runErr))
			if err := cur.Transition(a2a.TaskStateFailed, &status, now); err != nil {
				return nil, err
			}
			return cur, nil
		}

		artifact := a2a.NewTextArtifact(0, m.artifactName, m.artifactDescription, result.Text)
		artifacts, err := a2a.MergeArtifact(cur.Artifacts, artifact)
		if err != nil {
			return nil, err
		}
		cur.Artifacts = artifacts
		// one agent message per step; tool-only rounds record an empty text
		for _, step := range result.Steps {
			cur.History = append(cur.History, a2a.NewAgentTextMessage(step.Text))
		}
		answer := a2a.NewAgentTextMessage(result.Text)
		if err := cur.Transition(a2a.TaskStateCompleted, &answer, now); err != nil {
			return nil, err
		}
		return cur, nil
	})
	if err != nil {
		return nil, err
	}
	if changed {
		m.recordTransition(ctx, task)
	}
	return task, nil
}

// Get handles tasks/get.
func (m *Manager) Get(ctx context.Context, params a2a.TaskQueryParams) (*a2a.GetTaskResult, error) {
	ctx, span := m.tracer.Start(ctx, "a2a.task_manager.Get",
		trace.WithAttributes(attribute.String("a2a.task_id", params.ID)))
	defer span.End()

	if err := params.Validate(); err != nil {
		return nil, &a2a.ValidationError{Err: err}
	}

	task, err := m.store.Get(ctx, params.ID)
	if err != nil {
		var notFound *a2a.TaskNotFoundError
		if errors.As(err, &notFound) {
			m.logger.InfoContext(ctx, "task not found", "task_id", params.ID)
			return nil, err
		}
		span.RecordError(err)
		return nil, NewTaskManagerError("get", params.ID, err)
	}

	m.logger.DebugContext(ctx, "task retrieved", "task_id", task.ID, "state", task.Status.State)
	return &a2a.GetTaskResult{
		ID:        task.ID,
		SessionID: task.SessionID,
		Status:    task.Status,
		Artifacts: task.Artifacts,
		History:   task.HistoryTail(params.HistoryLength),
	}, nil
}

func (m *Manager) recordTransition(ctx context.Context, task *a2a.Task) {
	m.metrics.Transitions.Add(ctx, 1,
		metric.WithAttributes(attribute.String("state", string(task.Status.State))))
}

// failureText is the status message of a task whose run failed.
func failureText(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "The agent did not answer in time."
	case errors.Is(err, agent.ErrStepBudgetExhausted):
		return "The agent exceeded its step budget."
	default:
		var aerr *a2a.AdapterError
		if errors.As(err, &aerr) {
			err = aerr.Err
		}
		return "The agent failed: " + err.Error()
	}
}
