package maze

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/globalapptesting/hrl-go/domain/agent"
)

// ErrNoLegalAction indicates an observation whose mask allows nothing.
var ErrNoLegalAction = errors.New("no legal action")

// ShortestPath steers along the breadth-first distance to the goal. The
// motion agent always moves forward.
type ShortestPath struct {
	Grid *Grid
}

// Act implements application.Policy.
func (p ShortestPath) Act(_ context.Context, id agent.ID, observation any) (any, error) {
	if id.Name() == MotionName {
		return ActionForward, nil
	}

	pos, ok := ObservedPosition(observation)
	if !ok {
		return nil, fmt.Errorf("shortest path: observation for %s has no position", id)
	}
	want := p.Grid.Distance(pos) - 1
	mask := Mask(observation)
	for i, d := range Directions {
		if i < len(mask) && mask[i] == 1 && p.Grid.Distance(pos.Step(d)) == want {
			return int(d), nil
		}
	}
	return nil, fmt.Errorf("%w: %s at %s", ErrNoLegalAction, id, pos)
}

// Random picks uniformly among the actions the observation mask allows.
// It is not safe for concurrent use.
type Random struct {
	rng *rand.Rand
}

// NewRandom returns a Random policy seeded for reproducible rollouts.
func NewRandom(seed int64) *Random {
	return &Random{rng: rand.New(rand.NewPCG(uint64(seed), uint64(seed)))}
}

// Act implements application.Policy.
func (p *Random) Act(_ context.Context, id agent.ID, observation any) (any, error) {
	var legal []int
	for i, v := range Mask(observation) {
		if v == 1 {
			legal = append(legal, i)
		}
	}
	if len(legal) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoLegalAction, id)
	}
	return legal[p.rng.IntN(len(legal))], nil
}
