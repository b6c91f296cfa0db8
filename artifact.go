// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package a2a

import (
	"errors"
	"fmt"
	"maps"
)

// Artifact represents an output produced by completed work on a task.
type Artifact struct {
	Name        string         `json:"name,omitempty"`
	Description string         `json:"description,omitempty"`
	Parts       []Part         `json:"parts"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	// Index is the position of the artifact among those produced for its task.
	Index int `json:"index"`
	// Append reports whether Parts extend the artifact at Index instead of replacing it.
	Append bool `json:"append,omitzero"`
	// LastChunk marks the final chunk of a streamed artifact.
	LastChunk bool `json:"lastChunk,omitzero"`
}

// NewTextArtifact creates an artifact at index with a single text part.
func NewTextArtifact(index int, name, description, text string) Artifact {
	return Artifact{
		Name:        name,
		Description: description,
		Parts:       []Part{NewTextPart(text)},
		Metadata:    map[string]any{},
		Index:       index,
	}
}

// Validate ensures the Artifact is valid.
func (a Artifact) Validate() error {
	if a.Index < 0 {
		return fmt.Errorf("artifact index must not be negative: %d", a.Index)
	}
	if len(a.Parts) == 0 {
		return errors.New("artifact must contain at least one part")
	}
	for i, part := range a.Parts {
		if err := part.Validate(); err != nil {
			return fmt.Errorf("artifact part at index %d is invalid: %w", i, err)
		}
	}
	return nil
}

// Clone returns a deep copy of a.
func (a Artifact) Clone() Artifact {
	c := a
	c.Parts = cloneParts(a.Parts)
	c.Metadata = maps.Clone(a.Metadata)
	return c
}

// MergeArtifact folds next into artifacts following the append semantics of the protocol:
// an artifact whose Append flag is set extends the parts of the artifact at the same index,
// any other artifact replaces it. A new index must be the next contiguous one.
func MergeArtifact(artifacts []Artifact, next Artifact) ([]Artifact, error) {
	switch {
	case next.Index < len(artifacts):
		out := cloneArtifacts(artifacts)
		if next.Append {
			cur := out[next.Index]
			cur.Parts = append(cur.Parts, cloneParts(next.Parts)...)
			cur.LastChunk = next.LastChunk
			out[next.Index] = cur
			return out, nil
		}
		out[next.Index] = next.Clone()
		return out, nil
	case next.Index == len(artifacts):
		out := append(cloneArtifacts(artifacts), next.Clone())
		out[next.Index].Append = false
		return out, nil
	default:
		return nil, fmt.Errorf("artifact index %d is not contiguous with %d existing artifacts", next.Index, len(artifacts))
	}
}

func cloneArtifacts(artifacts []Artifact) []Artifact {
	if artifacts == nil {
		return nil
	}
	out := make([]Artifact, len(artifacts))
	for i, a := range artifacts {
		out[i] = a.Clone()
	}
	return out
}
