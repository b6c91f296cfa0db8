// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package a2a

import (
	"errors"
	"fmt"
	"maps"
	"time"
)

// TaskStatus is the state of a task together with an optional status update.
type TaskStatus struct {
	State TaskState `json:"state"`
	// Message is a human readable status update, set on terminal transitions.
	Message *Message `json:"message,omitempty"`
	// Timestamp is the time of the last transition.
	Timestamp time.Time `json:"timestamp"`
}

// Task is a unit of work identified by a client chosen id.
type Task struct {
	ID        string         `json:"id"`
	SessionID string         `json:"sessionId"`
	Status    TaskStatus     `json:"status"`
	History   []Message      `json:"history,omitempty"`
	Artifacts []Artifact     `json:"artifacts"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// NewTask creates a task in the submitted state whose history starts with message.
func NewTask(id, sessionID string, message Message, at time.Time) *Task {
	return &Task{
		ID:        id,
		SessionID: sessionID,
		Status: TaskStatus{
			State:     TaskStateSubmitted,
			Timestamp: at,
		},
		History:   []Message{message.Clone()},
		Artifacts: []Artifact{},
	}
}

// Validate ensures the Task is internally consistent.
func (t *Task) Validate() error {
	if t.ID == "" {
		return errors.New("task ID cannot be empty")
	}
	if t.SessionID == "" {
		return errors.New("task session ID cannot be empty")
	}
	if !t.Status.State.Valid() {
		return fmt.Errorf("invalid task state: %q", t.Status.State)
	}
	for i, a := range t.Artifacts {
		if a.Index != i {
			return fmt.Errorf("artifact at position %d has index %d", i, a.Index)
		}
	}
	return nil
}

// Transition moves t to state, recording message as the status update.
//
// The recorded timestamp is never earlier than the previous one, so status timestamps of a task
// are monotonically non-decreasing.
func (t *Task) Transition(state TaskState, message *Message, at time.Time) error {
	if !CanTransition(t.Status.State, state) {
		return &InvalidTransitionError{TaskID: t.ID, From: t.Status.State, To: state}
	}
	if at.Before(t.Status.Timestamp) {
		at = t.Status.Timestamp
	}
	t.Status = TaskStatus{
		State:     state,
		Message:   message,
		Timestamp: at,
	}
	return nil
}

// HistoryTail returns the last n history messages, or nil when n <= 0.
func (t *Task) HistoryTail(n int) []Message {
	if n <= 0 {
		return nil
	}
	if n > len(t.History) {
		n = len(t.History)
	}
	out := make([]Message, n)
	for i, m := range t.History[len(t.History)-n:] {
		out[i] = m.Clone()
	}
	return out
}

// Clone returns a deep copy of t.
func (t *Task) Clone() *Task {
	if t == nil {
		return nil
	}
	c := *t
	if t.Status.Message != nil {
		m := t.Status.Message.Clone()
		c.Status.Message = &m
	}
	if t.History != nil {
		c.History = make([]Message, len(t.History))
		for i, m := range t.History {
			c.History[i] = m.Clone()
		}
	}
	c.Artifacts = cloneArtifacts(t.Artifacts)
	c.Metadata = maps.Clone(t.Metadata)
	return &c
}

// TaskSendParams are the parameters of tasks/send.
type TaskSendParams struct {
	ID string `json:"id"`
	// SessionID is accepted for compatibility; the server owns session ids.
	SessionID string   `json:"sessionId,omitempty"`
	Message   *Message `json:"message,omitempty"`
	// HistoryLength is the number of recent messages to include in the result.
	HistoryLength int            `json:"historyLength,omitzero"`
	Metadata      map[string]any `json:"metadata,omitempty"`
}

// Validate ensures the required parameters are present.
func (p TaskSendParams) Validate() error {
	if p.ID == "" {
		return errors.New("params.id is required")
	}
	if p.Message == nil {
		return errors.New("params.message is required")
	}
	if err := p.Message.Validate(); err != nil {
		return fmt.Errorf("params.message: %w", err)
	}
	if p.HistoryLength < 0 {
		return errors.New("params.historyLength must not be negative")
	}
	return nil
}

// TaskQueryParams are the parameters of tasks/get.
type TaskQueryParams struct {
	ID            string         `json:"id"`
	HistoryLength int            `json:"historyLength,omitzero"`
	Metadata      map[string]any `json:"metadata,omitempty"`
}

// Validate ensures the required parameters are present.
func (p TaskQueryParams) Validate() error {
	if p.ID == "" {
		return errors.New("params.id is required")
	}
	if p.HistoryLength < 0 {
		return errors.New("params.historyLength must not be negative")
	}
	return nil
}

// SendTaskResult is the result of tasks/send.
type SendTaskResult struct {
	ID        string     `json:"id"`
	SessionID string     `json:"sessionId"`
	Status    TaskState  `json:"status"`
	Artifacts []Artifact `json:"artifacts"`
	History   []Message  `json:"history,omitempty"`
}

// GetTaskResult is the result of tasks/get.
type GetTaskResult struct {
	ID        string     `json:"id"`
	SessionID string     `json:"sessionId"`
	Status    TaskStatus `json:"status"`
	Artifacts []Artifact `json:"artifacts"`
	History   []Message  `json:"history,omitempty"`
}
