// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDiceToolSchema(t *testing.T) {
	dice, err := NewDiceTool(nil)
	if err != nil {
		t.Fatal(err)
	}

	spec := dice.Spec()
	if spec.Name != "dice" {
		t.Errorf("Name = %q, want dice", spec.Name)
	}
	if spec.Parameters["type"] != "object" {
		t.Errorf("type = %v, want object", spec.Parameters["type"])
	}

	props, ok := spec.Parameters["properties"].(map[string]any)
	if !ok {
		t.Fatalf("properties = %T", spec.Parameters["properties"])
	}
	diceProp, ok := props["dice"].(map[string]any)
	if !ok {
		t.Fatalf("properties.dice = %T", props["dice"])
	}
	got := map[string]any{"type": diceProp["type"], "minimum": diceProp["minimum"]}
	if diff := cmp.Diff(map[string]any{"type": "integer", "minimum": float64(1)}, got); diff != "" {
		t.Errorf("dice property mismatch (-want +got):\n%s", diff)
	}
	if _, ok := spec.Parameters["required"]; ok {
		t.Errorf("required = %v, want dice to be optional", spec.Parameters["required"])
	}
}

func TestDiceToolCall(t *testing.T) {
	var got int
	dice, err := NewDiceTool(func(faces int) int {
		got = faces
		return faces
	})
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name      string
		args      map[string]any
		wantFaces int
		wantErr   bool
	}{
		{name: "default faces", args: nil, wantFaces: 6},
		{name: "explicit faces", args: map[string]any{"dice": float64(20)}, wantFaces: 20},
		{name: "single face", args: map[string]any{"dice": float64(1)}, wantFaces: 1},
		{name: "zero faces", args: map[string]any{"dice": float64(0)}, wantErr: true},
		{name: "fractional faces", args: map[string]any{"dice": 2.5}, wantErr: true},
		{name: "string faces", args: map[string]any{"dice": "6"}, wantErr: true},
		{name: "unknown argument", args: map[string]any{"sides": float64(6)}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got = 0
			out, err := dice.Call(context.Background(), tt.args)
			if tt.wantErr {
				var aerr *ArgumentError
				if !errors.As(err, &aerr) {
					t.Errorf("Call() error = %v, want ArgumentError", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Call() error = %v", err)
			}
			if got != tt.wantFaces || out != tt.wantFaces {
				t.Errorf("Call() rolled %d faces and returned %v, want %d", got, out, tt.wantFaces)
			}
		})
	}
}

func TestDiceToolDefaultRollInRange(t *testing.T) {
	dice, err := NewDiceTool(nil)
	if err != nil {
		t.Fatal(err)
	}
	for range 100 {
		out, err := dice.Call(context.Background(), map[string]any{"dice": float64(3)})
		if err != nil {
			t.Fatal(err)
		}
		if n := out.(int); n < 1 || n > 3 {
			t.Fatalf("roll = %d, want in [1, 3]", n)
		}
	}
}

func TestNewRegistryDuplicate(t *testing.T) {
	a, err := NewDiceTool(nil)
	if err != nil {
		t.Fatal(err)
	}
	b, err := NewDiceTool(nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := NewRegistry(a, b); err == nil {
		t.Error("NewRegistry() expected error for duplicate tool names")
	}
}
