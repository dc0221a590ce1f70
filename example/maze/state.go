package maze

import (
	"errors"
	"fmt"

	"github.com/globalapptesting/hrl-go/domain/action"
	"github.com/globalapptesting/hrl-go/domain/agent"
)

// ErrDirectionNotWalkable indicates a move towards a wall or off the grid.
var ErrDirectionNotWalkable = errors.New("direction is not walkable")

// DirectionNotWalkable returns an error wrapping ErrDirectionNotWalkable for d.
func DirectionNotWalkable(d Direction) error {
	return fmt.Errorf("%w: %s", ErrDirectionNotWalkable, d)
}

// State is the environment state. It is a value: every transition returns a
// new State.
type State struct {
	Grid      *Grid
	Position  Position
	Direction Direction
}

// WithPosition returns a copy of s at p.
func (s State) WithPosition(p Position) State {
	s.Position = p
	return s
}

// WithDirection returns a copy of s heading d.
func (s State) WithDirection(d Direction) State {
	s.Direction = d
	return s
}

// AtGoal reports whether s stands on the goal.
func (s State) AtGoal() bool {
	return s.Position == s.Grid.Goal()
}

// SetDirection hands control to the motion agent with a heading.
type SetDirection struct {
	action.Switch
	Direction Direction
}

// MoveForward moves one tile along the heading.
type MoveForward struct {
	action.Plain
}

// MoveBackward moves one tile against the heading, except on an
// intersection where it stays.
type MoveBackward struct {
	action.Plain
}

// Agent names.
const (
	StrategyName agent.Name = "strategy"
	MotionName   agent.Name = "motion"
)

// observation builds the shared observation layout.
func observation(s State, mask []float32) map[string]any {
	return map[string]any{
		"map":             s.Grid.Flatten(),
		"position":        []float32{float32(s.Position.Row), float32(s.Position.Col)},
		"directions_mask": mask,
	}
}

func boolMask(values ...bool) []float32 {
	out := make([]float32, len(values))
	for i, v := range values {
		if v {
			out[i] = 1
		}
	}
	return out
}

// Mask reads the directions_mask entry of an observation.
func Mask(observation any) []float32 {
	m, ok := observation.(map[string]any)
	if !ok {
		return nil
	}
	mask, _ := m["directions_mask"].([]float32)
	return mask
}

// ObservedPosition reads the position entry of an observation.
func ObservedPosition(observation any) (Position, bool) {
	m, ok := observation.(map[string]any)
	if !ok {
		return Position{}, false
	}
	pos, ok := m["position"].([]float32)
	if !ok || len(pos) != 2 {
		return Position{}, false
	}
	return Position{Row: int(pos[0]), Col: int(pos[1])}, true
}
