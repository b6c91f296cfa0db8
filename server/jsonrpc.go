// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	a2a "github.com/go-a2a/taskagent"
	"github.com/go-a2a/taskagent/internal/pool"
)

// methodFunc executes one JSON-RPC method and returns its result.
type methodFunc func(ctx context.Context, req *a2a.Request) (any, error)

// registerMethods registers all JSON-RPC method handlers.
func (s *Server) registerMethods() {
	s.methods = map[string]methodFunc{
		a2a.MethodTasksSend:          s.handleTasksSend,
		a2a.MethodTasksGet:           s.handleTasksGet,
		a2a.MethodTasksCancel:        unsupported,
		a2a.MethodTasksSendSubscribe: unsupported,
	}
}

// handleRPC handles all JSON-RPC requests.
func (s *Server) handleRPC(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()

	buf := pool.Bytes.Get()
	defer pool.Bytes.Put(buf)

	method := "invalid"
	code := 0
	defer func() {
		s.metrics.RequestDuration.Record(ctx, time.Since(start).Seconds(),
			metric.WithAttributes(
				attribute.String("method", method),
				attribute.Int("code", code),
			))
	}()

	if _, err := buf.ReadFrom(http.MaxBytesReader(w, r.Body, s.maxBodyBytes)); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			code = s.writeError(ctx, w, nil, a2a.NewInvalidRequestError("request body too large"))
			return
		}
		code = s.writeError(ctx, w, nil, a2a.NewParseError(err))
		return
	}
	body := buf.Bytes()

	req, perr := a2a.ParseRequest(body)
	if perr != nil {
		code = s.writeError(ctx, w, a2a.RequestID(body), perr)
		return
	}

	fn, ok := s.methods[req.Method]
	if !ok {
		method = "unknown"
		code = s.writeError(ctx, w, req.ID, a2a.NewMethodNotFoundError(req.Method))
		return
	}
	method = req.Method

	ctx, span := s.tracer.Start(ctx, "a2a.server.rpc",
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(
			attribute.String("rpc.system", "jsonrpc"),
			attribute.String("rpc.method", req.Method),
		))
	defer span.End()

	result, err := fn(ctx, req)
	if err != nil {
		code = s.writeError(ctx, w, req.ID, err)
		span.SetAttributes(attribute.Int("rpc.jsonrpc.error_code", code))
		if code == a2a.ErrorCodeInternal {
			span.SetStatus(codes.Error, err.Error())
		}
		return
	}
	s.writeResponse(ctx, w, http.StatusOK, a2a.NewResponse(req.ID, result))
}

func (s *Server) handleTasksSend(ctx context.Context, req *a2a.Request) (any, error) {
	var params a2a.TaskSendParams
	if err := req.DecodeParams(&params); err != nil {
		return nil, err
	}
	return s.tasks.Send(ctx, params)
}

func (s *Server) handleTasksGet(ctx context.Context, req *a2a.Request) (any, error) {
	var params a2a.TaskQueryParams
	if err := req.DecodeParams(&params); err != nil {
		return nil, err
	}
	return s.tasks.Get(ctx, params)
}

func unsupported(_ context.Context, req *a2a.Request) (any, error) {
	return nil, &a2a.UnsupportedOperationError{Method: req.Method}
}

// writeError sends err as a JSON-RPC error response and returns its code.
func (s *Server) writeError(ctx context.Context, w http.ResponseWriter, id jsontext.Value, err error) int {
	rpcErr, status := a2a.ToRPCError(err)
	if status >= http.StatusInternalServerError {
		s.logger.ErrorContext(ctx, "request failed", "code", rpcErr.Code, "error", err)
	} else {
		s.logger.DebugContext(ctx, "request rejected", "code", rpcErr.Code, "error", err)
	}
	s.writeResponse(ctx, w, status, a2a.NewErrorResponse(id, rpcErr))
	return rpcErr.Code
}

// writeResponse sends a JSON-RPC response.
func (s *Server) writeResponse(ctx context.Context, w http.ResponseWriter, status int, resp *a2a.Response) {
	buf := pool.Bytes.Get()
	defer pool.Bytes.Put(buf)

	if err := json.MarshalWrite(buf, resp); err != nil {
		s.logger.ErrorContext(ctx, "encode response", "error", err)
		rpcErr := &a2a.JSONRPCError{Code: a2a.ErrorCodeInternal, Message: "Internal error"}
		buf.Reset()
		// the fallback envelope holds only the id and constant members
		json.MarshalWrite(buf, a2a.NewErrorResponse(resp.ID, rpcErr))
		status = http.StatusInternalServerError
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(status)
	if _, err := w.Write(buf.Bytes()); err != nil {
		s.logger.DebugContext(ctx, "write response", "error", err)
	}
}
