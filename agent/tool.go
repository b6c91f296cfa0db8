// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-json-experiment/json"
	"github.com/invopop/jsonschema"
	"github.com/mitchellh/mapstructure"
	"github.com/xeipuuv/gojsonschema"
)

// Tool is a function the model may call.
type Tool interface {
	Spec() ToolSpec
	Call(ctx context.Context, args map[string]any) (any, error)
}

// ArgumentError reports tool arguments that do not match the tool schema.
type ArgumentError struct {
	Tool    string
	Details []string
}

// Error returns the error message.
func (e *ArgumentError) Error() string {
	return fmt.Sprintf("invalid arguments for tool %s: %s", e.Tool, strings.Join(e.Details, "; "))
}

// functionTool is a [Tool] whose arguments are decoded into T.
type functionTool[T any] struct {
	spec   ToolSpec
	schema *gojsonschema.Schema
	fn     func(ctx context.Context, args T) (any, error)
}

// NewFunctionTool returns a tool calling fn. The parameter schema is reflected from T using its
// json and jsonschema struct tags, and arguments are validated against it before decoding.
func NewFunctionTool[T any](name, description string, fn func(ctx context.Context, args T) (any, error)) (Tool, error) {
	params, err := reflectSchema[T]()
	if err != nil {
		return nil, fmt.Errorf("tool %s: %w", name, err)
	}
	schema, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(params))
	if err != nil {
		return nil, fmt.Errorf("tool %s: compile schema: %w", name, err)
	}
	return &functionTool[T]{
		spec: ToolSpec{
			Name:        name,
			Description: description,
			Parameters:  params,
		},
		schema: schema,
		fn:     fn,
	}, nil
}

// Spec implements [Tool].
func (t *functionTool[T]) Spec() ToolSpec {
	return t.spec
}

// Call implements [Tool].
func (t *functionTool[T]) Call(ctx context.Context, args map[string]any) (any, error) {
	if args == nil {
		args = map[string]any{}
	}
	res, err := t.schema.Validate(gojsonschema.NewGoLoader(args))
	if err != nil {
		return nil, fmt.Errorf("validate arguments for tool %s: %w", t.spec.Name, err)
	}
	if !res.Valid() {
		aerr := &ArgumentError{Tool: t.spec.Name}
		for _, e := range res.Errors() {
			aerr.Details = append(aerr.Details, e.String())
		}
		return nil, aerr
	}

	var typed T
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName: "json",
		Result:  &typed,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(args); err != nil {
		return nil, &ArgumentError{Tool: t.spec.Name, Details: []string{err.Error()}}
	}
	return t.fn(ctx, typed)
}

// reflectSchema builds the inline JSON schema of T as a plain map.
func reflectSchema[T any]() (map[string]any, error) {
	r := &jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		ExpandedStruct:             true,
		DoNotReference:             true,
	}
	data, err := json.Marshal(r.Reflect(new(T)))
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	var schema map[string]any
	if err := json.Unmarshal(data, &schema); err != nil {
		return nil, fmt.Errorf("unmarshal schema: %w", err)
	}
	delete(schema, "$schema")
	delete(schema, "$id")
	return schema, nil
}

// Registry holds the tools offered to the model, in registration order.
type Registry struct {
	tools map[string]Tool
	specs []ToolSpec
}

// NewRegistry returns a registry holding tools. Tool names must be unique.
func NewRegistry(tools ...Tool) (*Registry, error) {
	r := &Registry{tools: make(map[string]Tool, len(tools))}
	for _, t := range tools {
		spec := t.Spec()
		if spec.Name == "" {
			return nil, fmt.Errorf("tool name cannot be empty")
		}
		if _, dup := r.tools[spec.Name]; dup {
			return nil, fmt.Errorf("duplicate tool %q", spec.Name)
		}
		r.tools[spec.Name] = t
		r.specs = append(r.specs, spec)
	}
	return r, nil
}

// Specs returns the specs of the registered tools.
func (r *Registry) Specs() []ToolSpec {
	if r == nil {
		return nil
	}
	return r.specs
}

// Call runs the tool named by call. Failures are reported in the result so the model can react to
// them.
func (r *Registry) Call(ctx context.Context, call ToolCall) ToolResult {
	res := ToolResult{CallID: call.ID, Name: call.Name}
	var t Tool
	if r != nil {
		t = r.tools[call.Name]
	}
	if t == nil {
		res.Error = fmt.Sprintf("unknown tool %q", call.Name)
		return res
	}
	out, err := t.Call(ctx, call.Args)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	res.Output = out
	return res
}
