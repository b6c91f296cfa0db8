// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package agent

import (
	"context"
	"strings"
)

// TurnRole identifies the author of a [Turn].
type TurnRole string

// Turn roles.
const (
	TurnUser   TurnRole = "user"
	TurnSystem TurnRole = "system"
	TurnModel  TurnRole = "model"
	TurnTool   TurnRole = "tool"
)

// Turn is one entry of the conversation sent to a model.
type Turn struct {
	Role TurnRole
	Text string
	// ToolCalls are set on model turns that requested tools.
	ToolCalls []ToolCall
	// ToolResults are set on tool turns.
	ToolResults []ToolResult
}

// ToolCall is a tool invocation requested by the model.
type ToolCall struct {
	ID   string
	Name string
	Args map[string]any
}

// ToolResult is the outcome of a [ToolCall]. Error is set instead of Output when the call failed.
type ToolResult struct {
	CallID string
	Name   string
	Output any
	Error  string
}

// ToolSpec describes a tool to the model.
type ToolSpec struct {
	Name        string
	Description string
	// Parameters is the JSON schema of the tool arguments.
	Parameters map[string]any
}

// Request is one generation request.
type Request struct {
	Turns []Turn
	Tools []ToolSpec
}

// Response is the model output for a [Request].
type Response struct {
	Text      string
	ToolCalls []ToolCall
}

// Model generates the next response of a conversation.
type Model interface {
	Generate(ctx context.Context, req *Request) (*Response, error)
}

// EchoModel answers with the text of the user and system turns it was given. It never calls
// tools and needs no credentials.
type EchoModel struct{}

var _ Model = EchoModel{}

// Generate implements [Model].
func (EchoModel) Generate(ctx context.Context, req *Request) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var texts []string
	for _, t := range req.Turns {
		if (t.Role == TurnUser || t.Role == TurnSystem) && t.Text != "" {
			texts = append(texts, t.Text)
		}
	}
	return &Response{Text: strings.Join(texts, "\n")}, nil
}
