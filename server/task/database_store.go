// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package task

import (
	"context"
	"errors"
	"fmt"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	a2a "github.com/go-a2a/taskagent"
)

// DatabaseStore is a database implementation of Store using GORM.
//
// Updates run in a transaction under a per-task lock held by this process, so a database must not
// be shared by several server processes.
type DatabaseStore struct {
	db   *gorm.DB
	keys *keyedMutex
}

var _ Store = (*DatabaseStore)(nil)

// DatabaseStoreConfig holds configuration for DatabaseStore.
type DatabaseStoreConfig struct {
	DB *gorm.DB
	// CreateTable migrates the tasks table on construction.
	CreateTable bool
}

// NewDatabaseStore creates a new DatabaseStore.
func NewDatabaseStore(ctx context.Context, config DatabaseStoreConfig) (*DatabaseStore, error) {
	if config.DB == nil {
		return nil, errors.New("database connection cannot be nil")
	}
	if config.CreateTable {
		if err := config.DB.WithContext(ctx).AutoMigrate(&TaskModel{}); err != nil {
			return nil, NewTaskStoreError("initialize", "", err)
		}
	}
	return &DatabaseStore{
		db:   config.DB,
		keys: newKeyedMutex(),
	}, nil
}

// OpenSQLite opens a SQLite database for a [DatabaseStore]. The pool is limited to one connection
// so in-memory databases are shared by every query.
func OpenSQLite(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite %q: %w", dsn, err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	return db, nil
}

// Get retrieves a task by its ID from the database.
func (s *DatabaseStore) Get(ctx context.Context, taskID string) (*a2a.Task, error) {
	if taskID == "" {
		return nil, errors.New("task ID cannot be empty")
	}

	var model TaskModel
	if err := s.db.WithContext(ctx).Where("id = ?", taskID).Take(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &a2a.TaskNotFoundError{TaskID: taskID}
		}
		return nil, NewTaskStoreError("get", taskID, err)
	}
	return model.ToTask(), nil
}

// Upsert applies fn to the task inside a transaction and saves its result.
func (s *DatabaseStore) Upsert(ctx context.Context, taskID string, fn UpdateFunc) (*a2a.Task, error) {
	if taskID == "" {
		return nil, errors.New("task ID cannot be empty")
	}

	unlock := s.keys.Lock(taskID)
	defer unlock()

	var saved *a2a.Task
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var (
			current *a2a.Task
			row     TaskModel
		)
		err := tx.Where("id = ?", taskID).Take(&row).Error
		switch {
		case err == nil:
			current = row.ToTask()
		case errors.Is(err, gorm.ErrRecordNotFound):
		default:
			return NewTaskStoreError("upsert", taskID, err)
		}

		next, err := fn(current)
		if err != nil {
			return err
		}
		if next == nil {
			return NewTaskValidationError(taskID, errors.New("update returned no task"))
		}
		if next.ID != taskID {
			return NewTaskValidationError(taskID, errors.New("update changed the task ID"))
		}
		if err := next.Validate(); err != nil {
			return NewTaskValidationError(taskID, err)
		}

		model := NewTaskModelFromTask(next)
		model.CreatedAt = row.CreatedAt
		if err := tx.Save(model).Error; err != nil {
			return NewTaskStoreError("upsert", taskID, err)
		}
		saved = next.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return saved, nil
}

// Close closes the underlying database connection.
func (s *DatabaseStore) Close(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
