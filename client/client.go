// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Package client is a JSON-RPC client for A2A task agents.
package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
	"github.com/google/uuid"

	a2a "github.com/go-a2a/taskagent"
)

// DefaultUserAgent is sent when no other user agent is configured.
const DefaultUserAgent = "taskagent-client/1.0"

// maxResponseBytes bounds the size of a response body read by the client.
const maxResponseBytes = 4 << 20

// Client calls the task methods of an agent.
type Client struct {
	httpClient   *http.Client
	baseURL      string
	userAgent    string
	interceptors []Interceptor
	logger       *slog.Logger
}

// New returns a Client for the agent served at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		httpClient: http.DefaultClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		userAgent:  DefaultUserAgent,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// AgentCard fetches the agent card from the well-known path.
func (c *Client) AgentCard(ctx context.Context) (*a2a.AgentCard, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/.well-known/agent.json", http.NoBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("fetch agent card: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &HTTPError{StatusCode: resp.StatusCode}
	}

	var card a2a.AgentCard
	dec := jsontext.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes))
	if err := json.UnmarshalDecode(dec, &card); err != nil {
		return nil, fmt.Errorf("decode agent card: %w", err)
	}
	return &card, nil
}

// SendTask sends a message to a task, creating the task on first use.
func (c *Client) SendTask(ctx context.Context, params a2a.TaskSendParams) (*a2a.SendTaskResult, error) {
	var result a2a.SendTaskResult
	if err := c.call(ctx, a2a.MethodTasksSend, params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetTask returns the current state of a task.
func (c *Client) GetTask(ctx context.Context, params a2a.TaskQueryParams) (*a2a.GetTaskResult, error) {
	var result a2a.GetTaskResult
	if err := c.call(ctx, a2a.MethodTasksGet, params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// rpcResponse is the client side view of a JSON-RPC response.
type rpcResponse struct {
	JSONRPC string            `json:"jsonrpc"`
	ID      jsontext.Value    `json:"id"`
	Result  jsontext.Value    `json:"result"`
	Error   *a2a.JSONRPCError `json:"error"`
}

// call sends one JSON-RPC request and decodes its result into result.
func (c *Client) call(ctx context.Context, method string, params, result any) error {
	rawParams, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("encode %s params: %w", method, err)
	}
	id, err := json.Marshal(uuid.NewString())
	if err != nil {
		return err
	}
	payload, err := json.Marshal(&a2a.Request{
		JSONRPC: a2a.JSONRPCVersion,
		ID:      id,
		Method:  method,
		Params:  rawParams,
	})
	if err != nil {
		return fmt.Errorf("encode %s request: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.do(ctx, req)
	if err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("%s: read response: %w", method, err)
	}

	// Error responses carry a JSON-RPC body along with a non-2xx status.
	var rpcResp rpcResponse
	if err := json.Unmarshal(body, &rpcResp); err != nil {
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return &HTTPError{StatusCode: resp.StatusCode}
		}
		return fmt.Errorf("%s: decode response: %w", method, err)
	}
	if rpcResp.Error != nil {
		c.logger.DebugContext(ctx, "agent returned an error", "method", method,
			"code", rpcResp.Error.Code, "message", rpcResp.Error.Message, "status", resp.StatusCode)
		return &RPCError{
			Code:       rpcResp.Error.Code,
			Message:    rpcResp.Error.Message,
			Data:       rpcResp.Error.Data,
			StatusCode: resp.StatusCode,
		}
	}
	if !bytes.Equal(rpcResp.ID, id) {
		return fmt.Errorf("%s: response id %s does not match request id %s", method, rpcResp.ID, id)
	}
	if err := json.Unmarshal(rpcResp.Result, result); err != nil {
		return fmt.Errorf("%s: decode result: %w", method, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, req *http.Request) (*http.Response, error) {
	req.Header.Set("User-Agent", c.userAgent)
	invoker := func(ctx context.Context, req *http.Request) (*http.Response, error) {
		return c.httpClient.Do(req)
	}
	return chainInterceptors(c.interceptors, invoker)(ctx, req)
}
