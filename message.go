// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package a2a

import (
	"encoding/base64"
	"errors"
	"fmt"
	"maps"

	"github.com/go-json-experiment/json"
)

// Role represents the role of a message sender.
type Role string

// Role constants for message senders.
const (
	RoleUser  Role = "user"
	RoleAgent Role = "agent"
)

// PartType is the discriminator of a [Part].
type PartType string

// Part kinds.
const (
	PartTypeText PartType = "text"
	PartTypeFile PartType = "file"
	PartTypeData PartType = "data"
)

// FileContent is the payload of a file part. Exactly one of Bytes or URI is set.
type FileContent struct {
	Name     string `json:"name,omitempty"`
	MimeType string `json:"mimeType,omitempty"`
	// Bytes is the base64 encoded file content.
	Bytes string `json:"bytes,omitempty"`
	URI   string `json:"uri,omitempty"`
}

// Validate ensures the FileContent carries exactly one content source.
func (f FileContent) Validate() error {
	switch {
	case f.Bytes != "" && f.URI != "":
		return errors.New("file part must not set both bytes and uri")
	case f.Bytes == "" && f.URI == "":
		return errors.New("file part must set bytes or uri")
	case f.Bytes != "":
		if _, err := base64.StdEncoding.DecodeString(f.Bytes); err != nil {
			return fmt.Errorf("file part bytes are not base64: %w", err)
		}
	}
	return nil
}

// Part is one typed fragment of a [Message] or [Artifact].
//
// Only the field matching Type is meaningful; use [NewTextPart], [NewFilePart] or [NewDataPart]
// to build one.
type Part struct {
	Type     PartType
	Text     string
	File     *FileContent
	Data     map[string]any
	Metadata map[string]any
}

// partJSON is the wire shape of a Part.
type partJSON struct {
	Type     PartType       `json:"type"`
	Text     *string        `json:"text,omitzero"`
	File     *FileContent   `json:"file,omitzero"`
	Data     map[string]any `json:"data,omitzero"`
	Metadata map[string]any `json:"metadata"`
}

// NewTextPart returns a text part.
func NewTextPart(text string) Part {
	return Part{Type: PartTypeText, Text: text, Metadata: map[string]any{}}
}

// NewFilePart returns a file part.
func NewFilePart(file FileContent) Part {
	return Part{Type: PartTypeFile, File: &file, Metadata: map[string]any{}}
}

// NewDataPart returns a structured data part.
func NewDataPart(data map[string]any) Part {
	if data == nil {
		data = map[string]any{}
	}
	return Part{Type: PartTypeData, Data: data, Metadata: map[string]any{}}
}

// Validate ensures exactly one variant of p is populated.
func (p Part) Validate() error {
	switch p.Type {
	case PartTypeText:
		if p.File != nil || p.Data != nil {
			return errors.New("text part must not carry file or data")
		}
	case PartTypeFile:
		if p.File == nil {
			return errors.New("file part must carry a file")
		}
		if p.Data != nil || p.Text != "" {
			return errors.New("file part must not carry text or data")
		}
		return p.File.Validate()
	case PartTypeData:
		if p.Data == nil {
			return errors.New("data part must carry data")
		}
		if p.File != nil || p.Text != "" {
			return errors.New("data part must not carry text or file")
		}
	default:
		return fmt.Errorf("unknown part type %q", p.Type)
	}
	return nil
}

// Content returns the text a part contributes to a model prompt.
// Only text parts carry content; file and data parts yield the empty string.
func (p Part) Content() string {
	if p.Type == PartTypeText {
		return p.Text
	}
	return ""
}

// MarshalJSON implements [json.Marshaler].
func (p Part) MarshalJSON() ([]byte, error) {
	w := partJSON{Type: p.Type, Metadata: p.Metadata}
	switch p.Type {
	case PartTypeText:
		text := p.Text
		w.Text = &text
	case PartTypeFile:
		w.File = p.File
	case PartTypeData:
		w.Data = p.Data
		if w.Data == nil {
			w.Data = map[string]any{}
		}
	default:
		return nil, fmt.Errorf("unknown part type %q", p.Type)
	}
	return json.Marshal(w)
}

// UnmarshalJSON implements [json.Unmarshaler].
func (p *Part) UnmarshalJSON(data []byte) error {
	var w partJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	part := Part{Type: w.Type, File: w.File, Data: w.Data, Metadata: w.Metadata}
	switch w.Type {
	case PartTypeText:
		if w.Text == nil {
			return errors.New("text part is missing text")
		}
		part.Text = *w.Text
	case PartTypeFile, PartTypeData:
		if w.Text != nil {
			return fmt.Errorf("%s part must not carry text", w.Type)
		}
	}
	if err := part.Validate(); err != nil {
		return err
	}
	if part.Metadata == nil {
		part.Metadata = map[string]any{}
	}

	*p = part
	return nil
}

// Clone returns a copy of p that shares no maps or pointers with it.
func (p Part) Clone() Part {
	c := p
	if p.File != nil {
		f := *p.File
		c.File = &f
	}
	c.Data = maps.Clone(p.Data)
	c.Metadata = maps.Clone(p.Metadata)
	return c
}

// Message represents one turn of the conversation.
type Message struct {
	Role     Role           `json:"role"`
	Parts    []Part         `json:"parts"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// NewAgentTextMessage creates an agent message containing a single text part.
func NewAgentTextMessage(text string) Message {
	return Message{
		Role:     RoleAgent,
		Parts:    []Part{NewTextPart(text)},
		Metadata: map[string]any{},
	}
}

// Validate ensures the Message is valid.
func (m Message) Validate() error {
	if m.Role != RoleUser && m.Role != RoleAgent {
		return fmt.Errorf("invalid message role: %q", m.Role)
	}
	if len(m.Parts) == 0 {
		return errors.New("message must contain at least one part")
	}
	for i, part := range m.Parts {
		if err := part.Validate(); err != nil {
			return fmt.Errorf("message part at index %d is invalid: %w", i, err)
		}
	}
	return nil
}

// Clone returns a deep copy of m.
func (m Message) Clone() Message {
	c := m
	c.Parts = cloneParts(m.Parts)
	c.Metadata = maps.Clone(m.Metadata)
	return c
}

func cloneParts(parts []Part) []Part {
	if parts == nil {
		return nil
	}
	out := make([]Part, len(parts))
	for i, p := range parts {
		out[i] = p.Clone()
	}
	return out
}
