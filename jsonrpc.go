// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package a2a

import (
	"fmt"
	"slices"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
)

// JSONRPCVersion is the only accepted value of the jsonrpc member.
const JSONRPCVersion = "2.0"

// A2A RPC method names.
const (
	// MethodTasksSend is the method name for sending a message to a task.
	MethodTasksSend = "tasks/send"
	// MethodTasksGet is the method name for getting a task.
	MethodTasksGet = "tasks/get"
	// MethodTasksCancel is the method name for canceling a task.
	MethodTasksCancel = "tasks/cancel"
	// MethodTasksSendSubscribe is the method name for sending a task and subscribing to updates.
	MethodTasksSendSubscribe = "tasks/sendSubscribe"
)

// JSON-RPC error codes.
const (
	ErrorCodeParse                = -32700
	ErrorCodeInvalidRequest       = -32600
	ErrorCodeMethodNotFound       = -32601
	ErrorCodeInvalidParams        = -32602
	ErrorCodeInternal             = -32603
	ErrorCodeUnsupportedOperation = -32004
)

// nullID is the id echoed when the request id could not be determined.
var nullID = jsontext.Value("null")

// Request is a validated JSON-RPC 2.0 request envelope.
type Request struct {
	JSONRPC string `json:"jsonrpc"`
	// ID is the raw request id: a string, a number or null.
	ID     jsontext.Value `json:"id"`
	Method string         `json:"method"`
	// Params is the raw params member: an object, an array, or empty when absent.
	Params jsontext.Value `json:"params,omitzero"`
}

// ParseRequest decodes data as a JSON-RPC 2.0 request and checks the envelope structure.
//
// The returned Request is nil whenever the error is not. Use [RequestID] to recover the id an
// error response should echo.
func ParseRequest(data []byte) (*Request, *ProtocolError) {
	if !jsontext.Value(data).IsValid() {
		var v any
		return nil, NewParseError(json.Unmarshal(data, &v))
	}

	var members map[string]jsontext.Value
	if err := json.Unmarshal(data, &members); err != nil {
		return nil, NewInvalidRequestError("request must be a JSON object with unique member names")
	}

	id, ok := members["id"]
	if !ok {
		return nil, NewInvalidRequestError("id is required")
	}
	switch id.Kind() {
	case '"', '0', 'n':
	default:
		return nil, NewInvalidRequestError("id must be a string, a number or null")
	}

	var version string
	if raw, ok := members["jsonrpc"]; !ok || raw.Kind() != '"' || json.Unmarshal(raw, &version) != nil || version != JSONRPCVersion {
		return nil, NewInvalidRequestError(`jsonrpc must be "2.0"`)
	}

	var method string
	if raw, ok := members["method"]; !ok || raw.Kind() != '"' || json.Unmarshal(raw, &method) != nil || method == "" {
		return nil, NewInvalidRequestError("method must be a non-empty string")
	}

	req := &Request{
		JSONRPC: version,
		ID:      id,
		Method:  method,
	}
	if params, ok := members["params"]; ok {
		switch params.Kind() {
		case '{', '[':
			req.Params = params
		case 'n':
		default:
			return nil, NewInvalidRequestError("params must be an object or an array")
		}
	}
	return req, nil
}

// RequestID returns the request id an error response for data should echo: the id member when it
// is present and well-typed, null otherwise.
func RequestID(data []byte) jsontext.Value {
	var members map[string]jsontext.Value
	if err := json.Unmarshal(data, &members); err != nil {
		return nullID
	}
	id, ok := members["id"]
	if !ok {
		return nullID
	}
	switch id.Kind() {
	case '"', '0':
		return id
	default:
		return nullID
	}
}

// DecodeParams unmarshals the request params into v. Absent or null params decode as an empty
// object so required member checks report a missing member instead of a type mismatch.
func (r *Request) DecodeParams(v any) error {
	params := r.Params
	if len(params) == 0 {
		params = jsontext.Value("{}")
	}
	if err := json.Unmarshal(params, v); err != nil {
		return &ValidationError{Err: err}
	}
	return nil
}

// JSONRPCError is the error member of a JSON-RPC response.
type JSONRPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitzero"`
}

// Error implements error.
func (e *JSONRPCError) Error() string {
	return fmt.Sprintf("jsonrpc error %d: %s", e.Code, e.Message)
}

// Response is a JSON-RPC 2.0 response envelope carrying either a result or an error.
type Response struct {
	JSONRPC string         `json:"jsonrpc"`
	ID      jsontext.Value `json:"id"`
	Result  any            `json:"result,omitzero"`
	Error   *JSONRPCError  `json:"error,omitzero"`
}

// NewResponse returns a success response for the request id.
func NewResponse(id jsontext.Value, result any) *Response {
	return &Response{JSONRPC: JSONRPCVersion, ID: responseID(id), Result: result}
}

// NewErrorResponse returns an error response. An empty id is sent as null.
func NewErrorResponse(id jsontext.Value, err *JSONRPCError) *Response {
	return &Response{JSONRPC: JSONRPCVersion, ID: responseID(id), Error: err}
}

func responseID(id jsontext.Value) jsontext.Value {
	if len(id) == 0 {
		return nullID
	}
	return slices.Clone(id)
}
