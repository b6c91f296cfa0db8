// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Package task implements task persistence and the task lifecycle of the agent server.
package task

import (
	"context"
	"sync"

	a2a "github.com/go-a2a/taskagent"
)

// UpdateFunc computes the next record of a task from the current one, which is nil when the task
// does not exist. The function owns current and may modify and return it. Returning an error
// aborts the update.
type UpdateFunc func(current *a2a.Task) (*a2a.Task, error)

// Store persists tasks keyed by their client chosen id.
//
// Mutations of one id are serialized. Readers observe either the record before or after an
// update, never a partial one. Records handed out are copies owned by the caller.
type Store interface {
	// Get retrieves a task by its ID.
	// Returns *a2a.TaskNotFoundError if the task doesn't exist.
	Get(ctx context.Context, taskID string) (*a2a.Task, error)

	// Upsert atomically reads the task, applies fn and writes back its result.
	// Nothing is written when fn fails.
	Upsert(ctx context.Context, taskID string, fn UpdateFunc) (*a2a.Task, error)

	// Close releases the resources of the store.
	Close(ctx context.Context) error
}

// keyedMutex hands out one mutex per key and drops it once nobody holds or waits for it.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*refMutex)}
}

// Lock locks key and returns the function unlocking it.
func (k *keyedMutex) Lock(key string) (unlock func()) {
	k.mu.Lock()
	m, ok := k.locks[key]
	if !ok {
		m = &refMutex{}
		k.locks[key] = m
	}
	m.refs++
	k.mu.Unlock()

	m.Lock()
	return func() {
		m.Unlock()
		k.mu.Lock()
		m.refs--
		if m.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
