// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package task

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	a2a "github.com/go-a2a/taskagent"
	"github.com/go-a2a/taskagent/agent"
)

// stepClock returns t0, t0+1s, t0+2s, ... on successive calls.
type stepClock struct {
	mu   sync.Mutex
	next time.Time
	step time.Duration
}

func newStepClock(step time.Duration) *stepClock {
	return &stepClock{next: t0, step: step}
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.next
	c.next = c.next.Add(c.step)
	return now
}

func answer(text string, steps ...string) agent.Capability {
	return agent.CapabilityFunc(func(ctx context.Context, in agent.Input) (*agent.Result, error) {
		res := &agent.Result{Text: text}
		for _, s := range steps {
			res.Steps = append(res.Steps, agent.Step{Text: s})
		}
		return res, nil
	})
}

func newTestManager(store Store, capability agent.Capability, opts ...Option) *Manager {
	clock := newStepClock(time.Second)
	opts = append([]Option{
		WithClock(clock.Now),
		WithSessionIDGenerator(func() string { return "session-1" }),
		WithArtifact("dice", "rolled value"),
	}, opts...)
	return NewManager(store, capability, opts...)
}

func sendParams(id, text string) a2a.TaskSendParams {
	msg := userMessage(text)
	return a2a.TaskSendParams{ID: id, Message: &msg}
}

func TestManagerSendCompletesTask(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	m := newTestManager(store, answer("You rolled a 4.", "Rolling the die.", "You rolled a 4."))

	res, err := m.Send(ctx, sendParams("t1", "Roll a die"))
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	artifact := a2a.NewTextArtifact(0, "dice", "rolled value", "You rolled a 4.")
	wantResult := &a2a.SendTaskResult{
		ID:        "t1",
		SessionID: "session-1",
		Status:    a2a.TaskStateCompleted,
		Artifacts: []a2a.Artifact{artifact},
	}
	if diff := cmp.Diff(wantResult, res); diff != "" {
		t.Errorf("Send() mismatch (-want +got):\n%s", diff)
	}

	task, err := store.Get(ctx, "t1")
	if err != nil {
		t.Fatal(err)
	}
	finalMsg := a2a.NewAgentTextMessage("You rolled a 4.")
	want := &a2a.Task{
		ID:        "t1",
		SessionID: "session-1",
		Status: a2a.TaskStatus{
			State:     a2a.TaskStateCompleted,
			Message:   &finalMsg,
			Timestamp: t0.Add(time.Second),
		},
		History: []a2a.Message{
			userMessage("Roll a die"),
			a2a.NewAgentTextMessage("Rolling the die."),
			a2a.NewAgentTextMessage("You rolled a 4."),
		},
		Artifacts: []a2a.Artifact{artifact},
	}
	if diff := cmp.Diff(want, task, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("stored task mismatch (-want +got):\n%s", diff)
	}
}

func TestManagerSendToFinishedTask(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	var calls int
	capability := agent.CapabilityFunc(func(ctx context.Context, in agent.Input) (*agent.Result, error) {
		calls++
		return &agent.Result{Text: "3", Steps: []agent.Step{{Text: "3"}}}, nil
	})
	m := newTestManager(store, capability)

	if _, err := m.Send(ctx, sendParams("t1", "Roll a die")); err != nil {
		t.Fatal(err)
	}
	before, _ := store.Get(ctx, "t1")

	_, err := m.Send(ctx, sendParams("t1", "Roll again"))
	var done *a2a.TaskAlreadyCompletedError
	if !errors.As(err, &done) {
		t.Fatalf("Send() error = %v, want TaskAlreadyCompletedError", err)
	}
	if done.State != a2a.TaskStateCompleted {
		t.Errorf("State = %s, want completed", done.State)
	}
	if calls != 1 {
		t.Errorf("capability called %d times, want 1", calls)
	}

	after, _ := store.Get(ctx, "t1")
	if diff := cmp.Diff(before, after); diff != "" {
		t.Errorf("finished task changed (-before +after):\n%s", diff)
	}
}

func TestManagerSendFailures(t *testing.T) {
	tests := []struct {
		name       string
		capability agent.Capability
		opts       []Option
		wantStatus string
	}{
		{
			name: "adapter error",
			capability: agent.CapabilityFunc(func(ctx context.Context, in agent.Input) (*agent.Result, error) {
				return nil, errors.New("model unavailable")
			}),
			wantStatus: "model unavailable",
		},
		{
			name: "step budget",
			capability: agent.CapabilityFunc(func(ctx context.Context, in agent.Input) (*agent.Result, error) {
				return nil, fmt.Errorf("%w after 5 steps", agent.ErrStepBudgetExhausted)
			}),
			wantStatus: "step budget",
		},
		{
			name: "timeout",
			capability: agent.CapabilityFunc(func(ctx context.Context, in agent.Input) (*agent.Result, error) {
				<-ctx.Done()
				return nil, ctx.Err()
			}),
			opts:       []Option{WithTimeout(10 * time.Millisecond)},
			wantStatus: "in time",
		},
		{
			name: "panic",
			capability: agent.CapabilityFunc(func(ctx context.Context, in agent.Input) (*agent.Result, error) {
				panic("unexpected")
			}),
			wantStatus: "panic",
		},
		{
			name: "nil result",
			capability: agent.CapabilityFunc(func(ctx context.Context, in agent.Input) (*agent.Result, error) {
				return nil, nil
			}),
			wantStatus: "no result",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			store := NewInMemoryStore()
			m := newTestManager(store, tt.capability, tt.opts...)

			res, err := m.Send(ctx, sendParams("t1", "Roll a die"))
			if err != nil {
				t.Fatalf("Send() error = %v", err)
			}
			if res.Status != a2a.TaskStateFailed {
				t.Errorf("Status = %s, want failed", res.Status)
			}
			if len(res.Artifacts) != 0 {
				t.Errorf("Artifacts = %v, want none", res.Artifacts)
			}

			task, _ := store.Get(ctx, "t1")
			if len(task.History) != 1 {
				t.Errorf("history has %d messages, want only the user message", len(task.History))
			}
			if task.Status.Message == nil || !strings.Contains(task.Status.Message.Parts[0].Text, tt.wantStatus) {
				t.Errorf("status message = %+v, want it to mention %q", task.Status.Message, tt.wantStatus)
			}
		})
	}
}

func TestManagerSendValidation(t *testing.T) {
	m := newTestManager(NewInMemoryStore(), answer("x"))
	tests := []struct {
		name   string
		params a2a.TaskSendParams
	}{
		{name: "missing id", params: a2a.TaskSendParams{Message: &a2a.Message{Role: a2a.RoleUser, Parts: []a2a.Part{a2a.NewTextPart("x")}}}},
		{name: "missing message", params: a2a.TaskSendParams{ID: "t1"}},
		{name: "empty parts", params: a2a.TaskSendParams{ID: "t1", Message: &a2a.Message{Role: a2a.RoleUser}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.Send(context.Background(), tt.params)
			var verr *a2a.ValidationError
			if !errors.As(err, &verr) {
				t.Errorf("Send() error = %v, want ValidationError", err)
			}
		})
	}
}

func TestManagerTimestampsMonotonic(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	// a clock running backwards
	clock := newStepClock(-time.Minute)
	m := NewManager(store, answer("6", "6"), WithClock(clock.Now))

	if _, err := m.Send(ctx, sendParams("t1", "Roll")); err != nil {
		t.Fatal(err)
	}
	task, _ := store.Get(ctx, "t1")
	if task.Status.Timestamp.Before(t0) {
		t.Errorf("timestamp %v went backwards from %v", task.Status.Timestamp, t0)
	}
}

// recordingStore records the state of the task before and after every committed update.
type recordingStore struct {
	Store

	mu      sync.Mutex
	commits []commit
}

type commit struct {
	Before    a2a.TaskState // empty when the task was absent
	After     a2a.TaskState
	Timestamp time.Time
}

func (s *recordingStore) Upsert(ctx context.Context, taskID string, fn UpdateFunc) (*a2a.Task, error) {
	var before a2a.TaskState
	task, err := s.Store.Upsert(ctx, taskID, func(cur *a2a.Task) (*a2a.Task, error) {
		before = ""
		if cur != nil {
			before = cur.Status.State
		}
		return fn(cur)
	})
	if err == nil {
		s.mu.Lock()
		s.commits = append(s.commits, commit{Before: before, After: task.Status.State, Timestamp: task.Status.Timestamp})
		s.mu.Unlock()
	}
	return task, err
}

func TestManagerLifecycleOrder(t *testing.T) {
	ctx := context.Background()
	store := &recordingStore{Store: NewInMemoryStore()}
	m := newTestManager(store, answer("3", "3"))

	if _, err := m.Send(ctx, sendParams("t1", "Roll a die")); err != nil {
		t.Fatal(err)
	}

	// absent -> submitted -> working is one commit, working -> completed the next
	want := []commit{
		{Before: "", After: a2a.TaskStateWorking, Timestamp: t0},
		{Before: a2a.TaskStateWorking, After: a2a.TaskStateCompleted, Timestamp: t0.Add(time.Second)},
	}
	if diff := cmp.Diff(want, store.commits); diff != "" {
		t.Errorf("commits mismatch (-want +got):\n%s", diff)
	}
	for i := 1; i < len(store.commits); i++ {
		if store.commits[i].Timestamp.Before(store.commits[i-1].Timestamp) {
			t.Errorf("commit %d timestamp %v precedes %v", i, store.commits[i].Timestamp, store.commits[i-1].Timestamp)
		}
	}
}

func TestManagerRejectedSendWritesNothing(t *testing.T) {
	ctx := context.Background()
	store := &recordingStore{Store: NewInMemoryStore()}
	m := newTestManager(store, answer("3", "3"))

	if _, err := m.Send(ctx, sendParams("t1", "Roll a die")); err != nil {
		t.Fatal(err)
	}
	before, err := store.Get(ctx, "t1")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := m.Send(ctx, sendParams("t1", "Roll again")); err == nil {
		t.Fatal("Send() to a finished task succeeded")
	}
	after, err := store.Get(ctx, "t1")
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(before, after); diff != "" {
		t.Errorf("finished task changed (-before +after):\n%s", diff)
	}
	if len(store.commits) != 2 {
		t.Errorf("store has %d commits, want 2", len(store.commits))
	}
}

func TestManagerConcurrentSends(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()

	const senders = 2
	var started sync.WaitGroup
	started.Add(senders)
	capability := agent.CapabilityFunc(func(ctx context.Context, in agent.Input) (*agent.Result, error) {
		started.Done()
		started.Wait()
		text := in.Parts[0].Text
		return &agent.Result{Text: text, Steps: []agent.Step{{Text: text}}}, nil
	})
	m := newTestManager(store, capability)

	var wg sync.WaitGroup
	results := make([]*a2a.SendTaskResult, senders)
	for i := range senders {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := m.Send(ctx, sendParams("t1", fmt.Sprintf("roll %d", i)))
			if err != nil {
				t.Errorf("Send() error = %v", err)
				return
			}
			results[i] = res
		}()
	}
	wg.Wait()

	task, err := store.Get(ctx, "t1")
	if err != nil {
		t.Fatal(err)
	}
	if task.Status.State != a2a.TaskStateCompleted {
		t.Errorf("state = %s, want completed", task.Status.State)
	}
	// both user messages, then the reply of the turn that finished first
	if len(task.History) != senders+1 {
		t.Errorf("history has %d messages, want %d", len(task.History), senders+1)
	}
	users := 0
	for _, msg := range task.History {
		if msg.Role == a2a.RoleUser {
			users++
		}
	}
	if users != senders {
		t.Errorf("history has %d user messages, want %d", users, senders)
	}
	if len(task.Artifacts) != 1 {
		t.Errorf("task has %d artifacts, want 1", len(task.Artifacts))
	}
	for _, res := range results {
		if res != nil && res.SessionID != task.SessionID {
			t.Errorf("SessionID = %s, want %s", res.SessionID, task.SessionID)
		}
	}
}

func TestManagerGet(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	m := newTestManager(store, answer("2", "Rolling.", "2"))

	_, err := m.Get(ctx, a2a.TaskQueryParams{ID: "missing"})
	var notFound *a2a.TaskNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("Get() error = %v, want TaskNotFoundError", err)
	}
	if store.Size() != 0 {
		t.Errorf("Size() = %d after Get of an unknown task, want 0", store.Size())
	}

	_, err = m.Get(ctx, a2a.TaskQueryParams{})
	var verr *a2a.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Get() error = %v, want ValidationError", err)
	}

	if _, err := m.Send(ctx, sendParams("t1", "Roll a die")); err != nil {
		t.Fatal(err)
	}

	res, err := m.Get(ctx, a2a.TaskQueryParams{ID: "t1"})
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if res.Status.State != a2a.TaskStateCompleted || res.SessionID != "session-1" {
		t.Errorf("Get() = %+v", res)
	}
	if res.History != nil {
		t.Errorf("History = %v, want omitted without historyLength", res.History)
	}

	res, err = m.Get(ctx, a2a.TaskQueryParams{ID: "t1", HistoryLength: 2})
	if err != nil {
		t.Fatal(err)
	}
	want := []a2a.Message{a2a.NewAgentTextMessage("Rolling."), a2a.NewAgentTextMessage("2")}
	if diff := cmp.Diff(want, res.History); diff != "" {
		t.Errorf("History mismatch (-want +got):\n%s", diff)
	}

	again, err := m.Get(ctx, a2a.TaskQueryParams{ID: "t1", HistoryLength: 2})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(res, again); diff != "" {
		t.Errorf("repeated Get() mismatch (-first +second):\n%s", diff)
	}
}

func TestManagerWithDatabaseStore(t *testing.T) {
	ctx := context.Background()
	store := newSQLiteStore(t)
	m := newTestManager(store, answer("5", "5"))

	res, err := m.Send(ctx, sendParams("t1", "Roll a die"))
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if res.Status != a2a.TaskStateCompleted {
		t.Errorf("Status = %s, want completed", res.Status)
	}

	got, err := m.Get(ctx, a2a.TaskQueryParams{ID: "t1", HistoryLength: 10})
	if err != nil {
		t.Fatal(err)
	}
	if len(got.History) != 2 || len(got.Artifacts) != 1 || got.Artifacts[0].Parts[0].Text != "5" {
		t.Errorf("Get() = %+v", got)
	}
}

func TestManagerRecordsEveryStep(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	// a tool-only step carries no text
	m := newTestManager(store, answer("4", "", "4"))

	if _, err := m.Send(ctx, sendParams("t1", "Roll a die")); err != nil {
		t.Fatal(err)
	}
	task, err := store.Get(ctx, "t1")
	if err != nil {
		t.Fatal(err)
	}
	if err := task.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
	want := []a2a.Message{userMessage("Roll a die"), a2a.NewAgentTextMessage(""), a2a.NewAgentTextMessage("4")}
	if diff := cmp.Diff(want, task.History, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("history mismatch (-want +got):\n%s", diff)
	}
}
