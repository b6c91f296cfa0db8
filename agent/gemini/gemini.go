// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Package gemini implements [agent.Model] on the Gemini API.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/go-a2a/taskagent/agent"
)

// DefaultModel is the model used when none is configured.
const DefaultModel = "gemini-2.5-flash"

// Config configures a [Model].
type Config struct {
	APIKey string
	Model  string
}

// Model is an [agent.Model] backed by the Gemini API.
type Model struct {
	client *genai.Client
	name   string
}

var _ agent.Model = (*Model)(nil)

// New returns a Model for cfg.
func New(ctx context.Context, cfg Config) (*Model, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini: API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	return &Model{client: client, name: cfg.Model}, nil
}

// Generate implements [agent.Model].
func (m *Model) Generate(ctx context.Context, req *agent.Request) (*agent.Response, error) {
	contents, system := toContents(req.Turns)
	config := &genai.GenerateContentConfig{
		SystemInstruction: system,
		Tools:             toTools(req.Tools),
	}
	resp, err := m.client.Models.GenerateContent(ctx, m.name, contents, config)
	if err != nil {
		return nil, fmt.Errorf("gemini: generate content: %w", err)
	}
	return fromResponse(resp)
}

// toContents converts turns to Gemini contents. System turns are collected into the system
// instruction and empty text turns are dropped.
func toContents(turns []agent.Turn) ([]*genai.Content, *genai.Content) {
	var (
		contents []*genai.Content
		system   *genai.Content
	)
	for _, t := range turns {
		switch t.Role {
		case agent.TurnSystem:
			if t.Text == "" {
				continue
			}
			if system == nil {
				system = &genai.Content{}
			}
			system.Parts = append(system.Parts, &genai.Part{Text: t.Text})

		case agent.TurnUser:
			if t.Text == "" {
				continue
			}
			contents = append(contents, &genai.Content{
				Role:  genai.RoleUser,
				Parts: []*genai.Part{{Text: t.Text}},
			})

		case agent.TurnModel:
			c := &genai.Content{Role: genai.RoleModel}
			if t.Text != "" {
				c.Parts = append(c.Parts, &genai.Part{Text: t.Text})
			}
			for _, call := range t.ToolCalls {
				c.Parts = append(c.Parts, &genai.Part{FunctionCall: &genai.FunctionCall{
					ID:   call.ID,
					Name: call.Name,
					Args: call.Args,
				}})
			}
			contents = append(contents, c)

		case agent.TurnTool:
			c := &genai.Content{Role: genai.RoleUser}
			for _, res := range t.ToolResults {
				c.Parts = append(c.Parts, &genai.Part{FunctionResponse: &genai.FunctionResponse{
					ID:       res.CallID,
					Name:     res.Name,
					Response: toolResponse(res),
				}})
			}
			contents = append(contents, c)
		}
	}
	return contents, system
}

// toolResponse follows the Gemini convention of an "output" or an "error" key.
func toolResponse(res agent.ToolResult) map[string]any {
	if res.Error != "" {
		return map[string]any{"error": res.Error}
	}
	if m, ok := res.Output.(map[string]any); ok {
		return m
	}
	return map[string]any{"output": res.Output}
}

func toTools(specs []agent.ToolSpec) []*genai.Tool {
	if len(specs) == 0 {
		return nil
	}
	decls := make([]*genai.FunctionDeclaration, len(specs))
	for i, s := range specs {
		decls[i] = &genai.FunctionDeclaration{
			Name:        s.Name,
			Description: s.Description,
			Parameters:  toGenaiSchema(s.Parameters),
		}
	}
	return []*genai.Tool{{FunctionDeclarations: decls}}
}

// toGenaiSchema converts a JSON schema to a Gemini schema.
func toGenaiSchema(schema map[string]any) *genai.Schema {
	if schema == nil {
		return nil
	}

	s := &genai.Schema{}
	if t, ok := schema["type"].(string); ok {
		s.Type = genai.Type(strings.ToUpper(t))
	}
	if desc, ok := schema["description"].(string); ok {
		s.Description = desc
	}
	if lo, ok := schema["minimum"].(float64); ok {
		s.Minimum = genai.Ptr(lo)
	}
	if hi, ok := schema["maximum"].(float64); ok {
		s.Maximum = genai.Ptr(hi)
	}
	if def, ok := schema["default"]; ok {
		s.Default = def
	}
	if props, ok := schema["properties"].(map[string]any); ok {
		s.Properties = make(map[string]*genai.Schema, len(props))
		for name, prop := range props {
			if propMap, ok := prop.(map[string]any); ok {
				s.Properties[name] = toGenaiSchema(propMap)
			}
		}
	}
	if required, ok := schema["required"].([]any); ok {
		for _, r := range required {
			if rs, ok := r.(string); ok {
				s.Required = append(s.Required, rs)
			}
		}
	}
	if items, ok := schema["items"].(map[string]any); ok {
		s.Items = toGenaiSchema(items)
	}
	if enum, ok := schema["enum"].([]any); ok {
		for _, e := range enum {
			if es, ok := e.(string); ok {
				s.Enum = append(s.Enum, es)
			}
		}
	}
	return s
}

// fromResponse extracts the text and function calls of the first candidate.
func fromResponse(resp *genai.GenerateContentResponse) (*agent.Response, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return nil, errors.New("gemini: empty response")
	}
	cand := resp.Candidates[0]
	out := &agent.Response{}
	if cand.Content == nil {
		if cand.FinishReason != "" && cand.FinishReason != genai.FinishReasonStop {
			return nil, fmt.Errorf("gemini: no content, finish reason %s", cand.FinishReason)
		}
		return out, nil
	}

	var text strings.Builder
	for _, p := range cand.Content.Parts {
		if p.Text != "" && !p.Thought {
			text.WriteString(p.Text)
		}
		if p.FunctionCall != nil {
			id := p.FunctionCall.ID
			if id == "" {
				id = fmt.Sprintf("call_%d", len(out.ToolCalls))
			}
			out.ToolCalls = append(out.ToolCalls, agent.ToolCall{
				ID:   id,
				Name: p.FunctionCall.Name,
				Args: p.FunctionCall.Args,
			})
		}
	}
	out.Text = text.String()
	return out, nil
}
