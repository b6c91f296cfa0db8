// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package agent

import (
	"context"
	"math/rand/v2"
)

// DefaultDiceFaces is the number of faces rolled when the model does not choose one.
const DefaultDiceFaces = 6

// DiceArgs are the arguments of the dice tool.
type DiceArgs struct {
	Dice int `json:"dice,omitempty" jsonschema:"description=Number of faces of the die,minimum=1,default=6"`
}

// NewDiceTool returns the dice tool. roll returns a uniform value in [1, faces]; nil uses
// math/rand/v2.
func NewDiceTool(roll func(faces int) int) (Tool, error) {
	if roll == nil {
		roll = func(faces int) int { return rand.IntN(faces) + 1 }
	}
	return NewFunctionTool("dice", "Rolls a die with the given number of faces.",
		func(ctx context.Context, args DiceArgs) (any, error) {
			faces := args.Dice
			if faces == 0 {
				faces = DefaultDiceFaces
			}
			return roll(faces), nil
		})
}
