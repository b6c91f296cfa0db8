// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	a2a "github.com/go-a2a/taskagent"
	"github.com/go-a2a/taskagent/agent"
)

// SkillArgs are the arguments of a remote skill tool.
type SkillArgs struct {
	Input string `json:"input" jsonschema:"required,minLength=1,description=Request sent to the remote agent"`
}

// SkillTools exposes every skill of card as an [agent.Tool] backed by c. Each call sends its
// input as a new task and returns the text of the artifacts.
func SkillTools(card *a2a.AgentCard, c *Client) ([]agent.Tool, error) {
	tools := make([]agent.Tool, 0, len(card.Skills))
	for _, skill := range card.Skills {
		tool, err := agent.NewFunctionTool(skill.ID, skillDescription(card, skill),
			func(ctx context.Context, args SkillArgs) (any, error) {
				return c.runSkill(ctx, args.Input)
			})
		if err != nil {
			return nil, fmt.Errorf("skill %q: %w", skill.ID, err)
		}
		tools = append(tools, tool)
	}
	return tools, nil
}

func skillDescription(card *a2a.AgentCard, skill a2a.AgentSkill) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Skill of the agent %s. The result is returned as artifacts.\n", card.Name)
	fmt.Fprintf(&b, "Skill name: %s\n", skill.Name)
	if skill.Description != "" {
		fmt.Fprintf(&b, "Skill description: %s\n", skill.Description)
	}
	if len(skill.Examples) > 0 {
		fmt.Fprintf(&b, "Examples: %s\n", strings.Join(skill.Examples, ", "))
	}
	return b.String()
}

func (c *Client) runSkill(ctx context.Context, input string) (any, error) {
	msg := a2a.Message{Role: a2a.RoleUser, Parts: []a2a.Part{a2a.NewTextPart(input)}}
	res, err := c.SendTask(ctx, a2a.TaskSendParams{ID: uuid.NewString(), Message: &msg})
	if err != nil {
		return nil, err
	}
	if res.Status != a2a.TaskStateCompleted {
		return nil, fmt.Errorf("task %s ended %s", res.ID, res.Status)
	}
	return map[string]any{"artifacts": ArtifactText(res.Artifacts)}, nil
}

// ArtifactText returns the text parts of artifacts, one entry per artifact.
func ArtifactText(artifacts []a2a.Artifact) []string {
	out := make([]string, 0, len(artifacts))
	for _, a := range artifacts {
		var texts []string
		for _, p := range a.Parts {
			if p.Type == a2a.PartTypeText {
				texts = append(texts, p.Text)
			}
		}
		out = append(out, strings.Join(texts, ""))
	}
	return out
}
