// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Package a2a provides the wire types of the Agent-to-Agent (A2A) task protocol served by this
// module: tasks, messages, parts, artifacts, the agent card and the JSON-RPC 2.0 envelope.
package a2a

// Version is the A2A protocol revision implemented by this package.
const Version = "0.1.0"

// TaskState represents the state of a Task.
type TaskState string

const (
	// TaskStateSubmitted indicates the task has been received but not started.
	TaskStateSubmitted TaskState = "submitted"

	// TaskStateWorking indicates the agent is working on the task.
	TaskStateWorking TaskState = "working"

	// TaskStateInputRequired indicates the agent needs more input from the client.
	TaskStateInputRequired TaskState = "input-required"

	// TaskStateCompleted indicates the task has been completed.
	TaskStateCompleted TaskState = "completed"

	// TaskStateCanceled indicates the task has been canceled.
	TaskStateCanceled TaskState = "canceled"

	// TaskStateFailed indicates the task has failed.
	TaskStateFailed TaskState = "failed"

	// TaskStateUnknown marks a task whose record is inconsistent. It is never produced by the server.
	TaskStateUnknown TaskState = "unknown"
)

// IsTerminal reports whether no further transition may leave s.
func (s TaskState) IsTerminal() bool {
	switch s {
	case TaskStateCompleted, TaskStateCanceled, TaskStateFailed:
		return true
	default:
		return false
	}
}

// Valid reports whether s is one of the protocol states.
func (s TaskState) Valid() bool {
	switch s {
	case TaskStateSubmitted, TaskStateWorking, TaskStateInputRequired,
		TaskStateCompleted, TaskStateCanceled, TaskStateFailed, TaskStateUnknown:
		return true
	default:
		return false
	}
}

// transitions lists the legal successors of each live state.
// A live task re-entering working is how a further message is accepted.
var transitions = map[TaskState][]TaskState{
	TaskStateSubmitted: {
		TaskStateWorking,
		TaskStateCanceled,
		TaskStateFailed,
	},
	TaskStateWorking: {
		TaskStateWorking,
		TaskStateInputRequired,
		TaskStateCompleted,
		TaskStateCanceled,
		TaskStateFailed,
	},
	TaskStateInputRequired: {
		TaskStateWorking,
		TaskStateCanceled,
		TaskStateFailed,
	},
}

// CanTransition reports whether a task in state from may move to state to.
func CanTransition(from, to TaskState) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
