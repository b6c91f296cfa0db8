// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"errors"
	"fmt"
	"net/http"

	a2a "github.com/go-a2a/taskagent"
)

// RPCError is a JSON-RPC error returned by the agent.
type RPCError struct {
	Code    int
	Message string
	Data    any
	// StatusCode is the HTTP status the error arrived with.
	StatusCode int
}

// Error implements the error interface.
func (e *RPCError) Error() string {
	if e.Data != nil {
		return fmt.Sprintf("rpc error: code = %d, message = %s, data = %v", e.Code, e.Message, e.Data)
	}
	return fmt.Sprintf("rpc error: code = %d, message = %s", e.Code, e.Message)
}

// HTTPError reports a response that carried no JSON-RPC envelope.
type HTTPError struct {
	StatusCode int
}

// Error implements the error interface.
func (e *HTTPError) Error() string {
	return fmt.Sprintf("unexpected HTTP status %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// IsRPCError checks if an error is an RPCError with the specified code.
func IsRPCError(err error, code int) bool {
	var rpcErr *RPCError
	return errors.As(err, &rpcErr) && rpcErr.Code == code
}

// IsTaskNotFoundError checks if an error is due to a task not being found.
func IsTaskNotFoundError(err error) bool {
	var rpcErr *RPCError
	return errors.As(err, &rpcErr) && rpcErr.StatusCode == http.StatusNotFound && rpcErr.Code == a2a.ErrorCodeInternal
}

// IsTaskAlreadyCompletedError checks if an error is due to a message sent to a finished task.
func IsTaskAlreadyCompletedError(err error) bool {
	var rpcErr *RPCError
	return errors.As(err, &rpcErr) && rpcErr.StatusCode == http.StatusBadRequest && rpcErr.Code == a2a.ErrorCodeInternal
}

// IsUnsupportedOperationError checks if an error is due to an unsupported operation.
func IsUnsupportedOperationError(err error) bool {
	return IsRPCError(err, a2a.ErrorCodeUnsupportedOperation)
}
