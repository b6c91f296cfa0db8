// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package a2a

import (
	"errors"
	"fmt"
	"slices"
)

// AgentCard conveys the identity, skills and default content types of an agent.
// It is served at /.well-known/agent.json.
type AgentCard struct {
	Name             string              `json:"name" yaml:"name"`
	Description      string              `json:"description" yaml:"description"`
	URL              string              `json:"url" yaml:"url"`
	Provider         *AgentProvider      `json:"provider,omitempty" yaml:"provider"`
	Version          string              `json:"version" yaml:"version"`
	DocumentationURL string              `json:"documentationUrl,omitempty" yaml:"documentation_url"`
	Capabilities     AgentCapabilities   `json:"capabilities" yaml:"capabilities"`
	Authentication   AgentAuthentication `json:"authentication" yaml:"authentication"`
	// DefaultInputModes are the MIME types accepted across all skills.
	DefaultInputModes []string `json:"defaultInputModes" yaml:"default_input_modes"`
	// DefaultOutputModes are the MIME types produced across all skills.
	DefaultOutputModes []string     `json:"defaultOutputModes" yaml:"default_output_modes"`
	Skills             []AgentSkill `json:"skills" yaml:"skills"`
	// Signatures are detached JWS signatures over the card without this member.
	Signatures []AgentCardSignature `json:"signatures,omitempty" yaml:"-"`
}

// Validate ensures the AgentCard is valid.
func (c *AgentCard) Validate() error {
	if c.Name == "" {
		return errors.New("agent card name cannot be empty")
	}
	if c.URL == "" {
		return errors.New("agent card URL cannot be empty")
	}
	if c.Version == "" {
		return errors.New("agent card version cannot be empty")
	}
	if c.Provider != nil {
		if err := c.Provider.Validate(); err != nil {
			return err
		}
	}
	if len(c.DefaultInputModes) == 0 || len(c.DefaultOutputModes) == 0 {
		return errors.New("agent card must declare default input and output modes")
	}
	for i, skill := range c.Skills {
		if err := skill.Validate(); err != nil {
			return fmt.Errorf("agent skill at index %d is invalid: %w", i, err)
		}
	}
	return nil
}

// Clone returns a deep copy of c.
func (c *AgentCard) Clone() *AgentCard {
	out := *c
	if c.Provider != nil {
		p := *c.Provider
		out.Provider = &p
	}
	out.Authentication.Schemes = slices.Clone(c.Authentication.Schemes)
	out.DefaultInputModes = slices.Clone(c.DefaultInputModes)
	out.DefaultOutputModes = slices.Clone(c.DefaultOutputModes)
	out.Skills = make([]AgentSkill, len(c.Skills))
	for i, s := range c.Skills {
		s.Tags = slices.Clone(s.Tags)
		s.Examples = slices.Clone(s.Examples)
		s.InputModes = slices.Clone(s.InputModes)
		s.OutputModes = slices.Clone(s.OutputModes)
		out.Skills[i] = s
	}
	out.Signatures = slices.Clone(c.Signatures)
	return &out
}

// AgentProvider represents the service provider of an agent.
type AgentProvider struct {
	Organization string `json:"organization" yaml:"organization"`
	URL          string `json:"url" yaml:"url"`
}

// Validate ensures the AgentProvider is valid.
func (a AgentProvider) Validate() error {
	if a.Organization == "" {
		return errors.New("agent provider organization cannot be empty")
	}
	if a.URL == "" {
		return errors.New("agent provider URL cannot be empty")
	}
	return nil
}

// AgentCapabilities lists the optional protocol features an agent supports.
type AgentCapabilities struct {
	Streaming              bool `json:"streaming" yaml:"streaming"`
	PushNotifications      bool `json:"pushNotifications" yaml:"push_notifications"`
	StateTransitionHistory bool `json:"stateTransitionHistory" yaml:"state_transition_history"`
}

// AgentAuthentication describes the authentication requirements of an agent.
type AgentAuthentication struct {
	// Schemes are OpenAPI style scheme names, e.g. Basic or Bearer.
	Schemes     []string `json:"schemes" yaml:"schemes"`
	Credentials string   `json:"credentials,omitempty" yaml:"credentials"`
}

// AgentSkill describes a unit of capability an agent can perform.
type AgentSkill struct {
	ID          string   `json:"id" yaml:"id"`
	Name        string   `json:"name" yaml:"name"`
	Description string   `json:"description" yaml:"description"`
	Tags        []string `json:"tags" yaml:"tags"`
	Examples    []string `json:"examples,omitempty" yaml:"examples"`
	InputModes  []string `json:"inputModes,omitempty" yaml:"input_modes"`
	OutputModes []string `json:"outputModes,omitempty" yaml:"output_modes"`
}

// Validate ensures the AgentSkill is valid.
func (a AgentSkill) Validate() error {
	if a.ID == "" {
		return errors.New("agent skill ID cannot be empty")
	}
	if a.Name == "" {
		return errors.New("agent skill name cannot be empty")
	}
	return nil
}

// AgentCardSignature is a JWS signature over the canonical agent card, in the flattened form
// with a detached payload.
type AgentCardSignature struct {
	// Protected is the base64url encoded protected header.
	Protected string `json:"protected"`
	// Signature is the base64url encoded signature.
	Signature string `json:"signature"`
}
