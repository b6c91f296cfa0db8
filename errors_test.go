// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package a2a

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestToRPCError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantCode    int
		wantMessage string
		wantStatus  int
	}{
		{
			name:        "parse",
			err:         NewParseError(errors.New("bad")),
			wantCode:    ErrorCodeParse,
			wantMessage: "Parse error",
			wantStatus:  http.StatusBadRequest,
		},
		{
			name:        "invalid request",
			err:         NewInvalidRequestError("id is required"),
			wantCode:    ErrorCodeInvalidRequest,
			wantMessage: "Invalid Request",
			wantStatus:  http.StatusBadRequest,
		},
		{
			name:        "method not found",
			err:         NewMethodNotFoundError("tasks/bogus"),
			wantCode:    ErrorCodeMethodNotFound,
			wantMessage: "Method not found",
			wantStatus:  http.StatusNotFound,
		},
		{
			name:        "invalid params",
			err:         &ValidationError{Err: errors.New("params.id is required")},
			wantCode:    ErrorCodeInvalidParams,
			wantMessage: "Invalid params",
			wantStatus:  http.StatusBadRequest,
		},
		{
			name:        "task not found",
			err:         &TaskNotFoundError{TaskID: "missing"},
			wantCode:    ErrorCodeInternal,
			wantMessage: "Task not found",
			wantStatus:  http.StatusNotFound,
		},
		{
			name:        "wrapped task not found",
			err:         fmt.Errorf("get task: %w", &TaskNotFoundError{TaskID: "missing"}),
			wantCode:    ErrorCodeInternal,
			wantMessage: "Task not found",
			wantStatus:  http.StatusNotFound,
		},
		{
			name:        "already completed",
			err:         &TaskAlreadyCompletedError{TaskID: "t1", State: TaskStateCompleted},
			wantCode:    ErrorCodeInternal,
			wantMessage: "Task already completed",
			wantStatus:  http.StatusBadRequest,
		},
		{
			name:        "unsupported",
			err:         &UnsupportedOperationError{Method: MethodTasksCancel},
			wantCode:    ErrorCodeUnsupportedOperation,
			wantMessage: "This operation is not supported",
			wantStatus:  http.StatusNotImplemented,
		},
		{
			name:        "adapter",
			err:         &AdapterError{TaskID: "t1", Err: errors.New("model down")},
			wantCode:    ErrorCodeInternal,
			wantMessage: "Internal error",
			wantStatus:  http.StatusInternalServerError,
		},
		{
			name:        "unclassified",
			err:         errors.New("boom"),
			wantCode:    ErrorCodeInternal,
			wantMessage: "Internal error",
			wantStatus:  http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rpcErr, status := ToRPCError(tt.err)
			if rpcErr.Code != tt.wantCode {
				t.Errorf("code = %d, want %d", rpcErr.Code, tt.wantCode)
			}
			if rpcErr.Message != tt.wantMessage {
				t.Errorf("message = %q, want %q", rpcErr.Message, tt.wantMessage)
			}
			if status != tt.wantStatus {
				t.Errorf("status = %d, want %d", status, tt.wantStatus)
			}
		})
	}
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("cause")
	if !errors.Is(&ValidationError{Err: cause}, cause) {
		t.Error("ValidationError does not unwrap to its cause")
	}
	if !errors.Is(&AdapterError{TaskID: "t1", Err: cause}, cause) {
		t.Error("AdapterError does not unwrap to its cause")
	}
}
