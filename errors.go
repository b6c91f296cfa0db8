// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package a2a

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is implemented by every error that has a defined protocol representation.
type Error interface {
	error
	// RPCError returns the JSON-RPC error object sent to the client.
	RPCError() *JSONRPCError
	// HTTPStatus returns the HTTP status paired with the error response.
	HTTPStatus() int
}

// ProtocolError represents a malformed envelope or an unknown method.
type ProtocolError struct {
	Code    int
	Message string
	Data    any
}

var _ Error = (*ProtocolError)(nil)

// Error returns the error message.
func (e *ProtocolError) Error() string {
	return fmt.Sprintf("jsonrpc %d: %s", e.Code, e.Message)
}

// RPCError implements [Error].
func (e *ProtocolError) RPCError() *JSONRPCError {
	return &JSONRPCError{Code: e.Code, Message: e.Message, Data: e.Data}
}

// HTTPStatus implements [Error].
func (e *ProtocolError) HTTPStatus() int {
	if e.Code == ErrorCodeMethodNotFound {
		return http.StatusNotFound
	}
	return http.StatusBadRequest
}

// NewParseError reports a body that is not JSON.
func NewParseError(err error) *ProtocolError {
	return &ProtocolError{Code: ErrorCodeParse, Message: "Parse error", Data: errorData(err)}
}

// NewInvalidRequestError reports an envelope that does not satisfy JSON-RPC 2.0.
func NewInvalidRequestError(reason string) *ProtocolError {
	return &ProtocolError{Code: ErrorCodeInvalidRequest, Message: "Invalid Request", Data: reason}
}

// NewMethodNotFoundError reports an unknown method.
func NewMethodNotFoundError(method string) *ProtocolError {
	return &ProtocolError{Code: ErrorCodeMethodNotFound, Message: "Method not found", Data: method}
}

// ValidationError represents missing or invalid method parameters.
type ValidationError struct {
	Err error
}

var _ Error = (*ValidationError)(nil)

// Error returns the error message.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid params: %v", e.Err)
}

// Unwrap returns the underlying error.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// RPCError implements [Error].
func (e *ValidationError) RPCError() *JSONRPCError {
	return &JSONRPCError{Code: ErrorCodeInvalidParams, Message: "Invalid params", Data: errorData(e.Err)}
}

// HTTPStatus implements [Error].
func (e *ValidationError) HTTPStatus() int {
	return http.StatusBadRequest
}

// TaskNotFoundError is returned when a task id has never been seen.
type TaskNotFoundError struct {
	TaskID string
}

var _ Error = (*TaskNotFoundError)(nil)

// Error returns the error message.
func (e *TaskNotFoundError) Error() string {
	return fmt.Sprintf("task not found: %s", e.TaskID)
}

// RPCError implements [Error].
func (e *TaskNotFoundError) RPCError() *JSONRPCError {
	return &JSONRPCError{Code: ErrorCodeInternal, Message: "Task not found"}
}

// HTTPStatus implements [Error].
func (e *TaskNotFoundError) HTTPStatus() int {
	return http.StatusNotFound
}

// TaskAlreadyCompletedError is returned when a message is sent to a task in a terminal state.
type TaskAlreadyCompletedError struct {
	TaskID string
	State  TaskState
}

var _ Error = (*TaskAlreadyCompletedError)(nil)

// Error returns the error message.
func (e *TaskAlreadyCompletedError) Error() string {
	return fmt.Sprintf("task %s already %s", e.TaskID, e.State)
}

// RPCError implements [Error].
func (e *TaskAlreadyCompletedError) RPCError() *JSONRPCError {
	return &JSONRPCError{
		Code:    ErrorCodeInternal,
		Message: "Task already completed",
		Data:    map[string]any{"id": e.TaskID, "state": string(e.State)},
	}
}

// HTTPStatus implements [Error].
func (e *TaskAlreadyCompletedError) HTTPStatus() int {
	return http.StatusBadRequest
}

// UnsupportedOperationError is returned by methods that are recognized but not served.
type UnsupportedOperationError struct {
	Method string
}

var _ Error = (*UnsupportedOperationError)(nil)

// Error returns the error message.
func (e *UnsupportedOperationError) Error() string {
	return fmt.Sprintf("operation not supported: %s", e.Method)
}

// RPCError implements [Error].
func (e *UnsupportedOperationError) RPCError() *JSONRPCError {
	return &JSONRPCError{Code: ErrorCodeUnsupportedOperation, Message: "This operation is not supported", Data: e.Method}
}

// HTTPStatus implements [Error].
func (e *UnsupportedOperationError) HTTPStatus() int {
	return http.StatusNotImplemented
}

// AdapterError wraps a failure of the agent capability while working on a task.
type AdapterError struct {
	TaskID string
	Err    error
}

var _ Error = (*AdapterError)(nil)

// Error returns the error message.
func (e *AdapterError) Error() string {
	return fmt.Sprintf("agent failed on task %s: %v", e.TaskID, e.Err)
}

// Unwrap returns the underlying error.
func (e *AdapterError) Unwrap() error {
	return e.Err
}

// RPCError implements [Error].
func (e *AdapterError) RPCError() *JSONRPCError {
	return &JSONRPCError{Code: ErrorCodeInternal, Message: "Internal error", Data: errorData(e.Err)}
}

// HTTPStatus implements [Error].
func (e *AdapterError) HTTPStatus() int {
	return http.StatusInternalServerError
}

// InvalidTransitionError is returned when a status change is not allowed by the task lifecycle.
type InvalidTransitionError struct {
	TaskID string
	From   TaskState
	To     TaskState
}

// Error returns the error message.
func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("task %s cannot move from %s to %s", e.TaskID, e.From, e.To)
}

// ToRPCError classifies err into a JSON-RPC error object and an HTTP status.
// Errors without a protocol representation become internal errors.
func ToRPCError(err error) (*JSONRPCError, int) {
	var perr Error
	if errors.As(err, &perr) {
		return perr.RPCError(), perr.HTTPStatus()
	}
	return &JSONRPCError{Code: ErrorCodeInternal, Message: "Internal error"}, http.StatusInternalServerError
}

func errorData(err error) any {
	if err == nil {
		return nil
	}
	return err.Error()
}
