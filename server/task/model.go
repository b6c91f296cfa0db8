// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package task

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/go-json-experiment/json"

	a2a "github.com/go-a2a/taskagent"
)

// JSONColumn stores a value of T as JSON text in a database column.
type JSONColumn[T any] struct {
	Data T
}

// GormDataType implements gorm's schema.GormDataTypeInterface.
func (JSONColumn[T]) GormDataType() string {
	return "text"
}

// Value implements the driver.Valuer interface for database storage.
func (c JSONColumn[T]) Value() (driver.Value, error) {
	b, err := json.Marshal(c.Data)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements the sql.Scanner interface for database retrieval.
func (c *JSONColumn[T]) Scan(value any) error {
	var data []byte
	switch v := value.(type) {
	case nil:
		var zero T
		c.Data = zero
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into JSONColumn", value)
	}

	var out T
	if err := json.Unmarshal(data, &out); err != nil {
		return fmt.Errorf("cannot unmarshal JSONColumn: %w", err)
	}
	c.Data = out
	return nil
}

// TaskModel is the database row of a task.
type TaskModel struct {
	ID        string                     `gorm:"primaryKey;type:varchar(255)"`
	SessionID string                     `gorm:"type:varchar(255);not null;index"`
	State     string                     `gorm:"type:varchar(32);not null;index"`
	Status    JSONColumn[a2a.TaskStatus] `gorm:"not null"`
	History   JSONColumn[[]a2a.Message]  `gorm:"not null"`
	Artifacts JSONColumn[[]a2a.Artifact] `gorm:"not null"`
	Metadata  JSONColumn[map[string]any]
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName returns the table name of TaskModel.
func (TaskModel) TableName() string {
	return "tasks"
}

// NewTaskModelFromTask converts a task to its database row.
func NewTaskModelFromTask(task *a2a.Task) *TaskModel {
	return &TaskModel{
		ID:        task.ID,
		SessionID: task.SessionID,
		State:     string(task.Status.State),
		Status:    JSONColumn[a2a.TaskStatus]{Data: task.Status},
		History:   JSONColumn[[]a2a.Message]{Data: task.History},
		Artifacts: JSONColumn[[]a2a.Artifact]{Data: task.Artifacts},
		Metadata:  JSONColumn[map[string]any]{Data: task.Metadata},
	}
}

// ToTask converts the row back to a task.
func (m *TaskModel) ToTask() *a2a.Task {
	artifacts := m.Artifacts.Data
	if artifacts == nil {
		artifacts = []a2a.Artifact{}
	}
	return &a2a.Task{
		ID:        m.ID,
		SessionID: m.SessionID,
		Status:    m.Status.Data,
		History:   m.History.Data,
		Artifacts: artifacts,
		Metadata:  m.Metadata.Data,
	}
}
