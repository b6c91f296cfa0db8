// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package task

import (
	"context"
	"errors"
	"sync"

	a2a "github.com/go-a2a/taskagent"
)

// InMemoryStore is an in-memory implementation of Store.
// Task data is lost when the server process stops and records are never evicted.
type InMemoryStore struct {
	// mu guards publication of records; keys serializes read-modify-write per task.
	mu    sync.RWMutex
	tasks map[string]*a2a.Task
	keys  *keyedMutex
}

var _ Store = (*InMemoryStore)(nil)

// NewInMemoryStore creates a new InMemoryStore.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		tasks: make(map[string]*a2a.Task),
		keys:  newKeyedMutex(),
	}
}

// Get retrieves a task by its ID from the in-memory storage.
func (s *InMemoryStore) Get(ctx context.Context, taskID string) (*a2a.Task, error) {
	if taskID == "" {
		return nil, errors.New("task ID cannot be empty")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	task, exists := s.tasks[taskID]
	if !exists {
		return nil, &a2a.TaskNotFoundError{TaskID: taskID}
	}
	return task.Clone(), nil
}

// Upsert applies fn to the task under the per-task lock and publishes its result.
func (s *InMemoryStore) Upsert(ctx context.Context, taskID string, fn UpdateFunc) (*a2a.Task, error) {
	if taskID == "" {
		return nil, errors.New("task ID cannot be empty")
	}

	unlock := s.keys.Lock(taskID)
	defer unlock()

	if err := ctx.Err(); err != nil {
		return nil, NewTaskStoreError("upsert", taskID, err)
	}

	s.mu.RLock()
	current := s.tasks[taskID].Clone()
	s.mu.RUnlock()

	next, err := fn(current)
	if err != nil {
		return nil, err
	}
	if next == nil {
		return nil, NewTaskValidationError(taskID, errors.New("update returned no task"))
	}
	if next.ID != taskID {
		return nil, NewTaskValidationError(taskID, errors.New("update changed the task ID"))
	}
	if err := next.Validate(); err != nil {
		return nil, NewTaskValidationError(taskID, err)
	}

	stored := next.Clone()
	s.mu.Lock()
	s.tasks[taskID] = stored
	s.mu.Unlock()

	return stored.Clone(), nil
}

// Close releases the stored tasks.
func (s *InMemoryStore) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tasks = make(map[string]*a2a.Task)
	return nil
}

// Size returns the current number of tasks in the in-memory storage.
func (s *InMemoryStore) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.tasks)
}
