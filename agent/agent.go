// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Package agent runs a language model, and the tools it calls, on the message of a task.
package agent

import (
	"context"
	"errors"

	a2a "github.com/go-a2a/taskagent"
)

// ErrStepBudgetExhausted is returned when the model keeps calling tools after the last allowed step.
var ErrStepBudgetExhausted = errors.New("agent: step budget exhausted")

// Input is the message a task turn hands to the agent.
type Input struct {
	Role  a2a.Role
	Parts []a2a.Part
}

// Step is one model round: the text it produced, the tools it called and their results.
type Step struct {
	Text        string
	ToolCalls   []ToolCall
	ToolResults []ToolResult
}

// Result is the outcome of a successful run.
type Result struct {
	// Text is the final answer, the text of the last step.
	Text  string
	Steps []Step
}

// Capability produces an answer for the input of a task turn.
type Capability interface {
	Run(ctx context.Context, in Input) (*Result, error)
}

// CapabilityFunc adapts an ordinary function to a [Capability].
type CapabilityFunc func(ctx context.Context, in Input) (*Result, error)

// Run calls f(ctx, in).
func (f CapabilityFunc) Run(ctx context.Context, in Input) (*Result, error) {
	return f(ctx, in)
}

// InputTurns converts in to model turns, one per part. Parts of a user message become user turns
// and parts of any other message become system turns. Only text parts carry content.
func InputTurns(in Input) []Turn {
	role := TurnSystem
	if in.Role == a2a.RoleUser {
		role = TurnUser
	}
	turns := make([]Turn, len(in.Parts))
	for i, p := range in.Parts {
		turns[i] = Turn{Role: role, Text: p.Content()}
	}
	return turns
}
