// Package maze is a grid navigation domain driven by two agents: a strategy
// agent choosing a heading at intersections and a motion agent walking the
// corridor.
package maze

import (
	"errors"
	"fmt"
)

// Tile values.
const (
	Wall      = 0
	Corridor  = 1
	StartTile = 2
	GoalTile  = 3
)

// DefaultMap is the built-in 10x10 maze.
var DefaultMap = [][]int{
	{0, 0, 1, 0, 3, 0, 0, 0, 0, 0},
	{0, 0, 1, 1, 1, 1, 1, 1, 1, 1},
	{0, 1, 1, 0, 0, 1, 0, 0, 1, 0},
	{0, 0, 1, 0, 0, 1, 0, 0, 0, 1},
	{0, 0, 1, 1, 1, 1, 0, 1, 1, 2},
	{0, 0, 1, 0, 0, 1, 0, 0, 1, 0},
	{1, 1, 1, 1, 1, 1, 1, 1, 1, 0},
	{0, 1, 0, 0, 1, 0, 0, 0, 1, 0},
	{0, 1, 1, 1, 1, 1, 1, 1, 1, 0},
	{0, 1, 0, 0, 0, 0, 0, 0, 1, 0},
}

// ErrInvalidMap indicates a map that cannot be navigated.
var ErrInvalidMap = errors.New("invalid maze map")

// Direction is a heading on the grid.
type Direction int

// Directions in clockwise order.
const (
	Up Direction = iota
	Right
	Down
	Left
)

// Directions lists every heading in order.
var Directions = [...]Direction{Up, Right, Down, Left}

// Opposite returns the reverse heading.
func (d Direction) Opposite() Direction {
	return (d + 2) % Direction(len(Directions))
}

// IsValid reports whether d is one of the four headings.
func (d Direction) IsValid() bool {
	return d >= Up && d <= Left
}

func (d Direction) String() string {
	switch d {
	case Up:
		return "up"
	case Right:
		return "right"
	case Down:
		return "down"
	case Left:
		return "left"
	default:
		return fmt.Sprintf("direction(%d)", int(d))
	}
}

// Position is a (row, column) cell.
type Position struct {
	Row, Col int
}

// Step returns the adjacent cell in direction d, which may lie off the grid.
func (p Position) Step(d Direction) Position {
	switch d {
	case Up:
		return Position{p.Row - 1, p.Col}
	case Right:
		return Position{p.Row, p.Col + 1}
	case Down:
		return Position{p.Row + 1, p.Col}
	case Left:
		return Position{p.Row, p.Col - 1}
	default:
		return p
	}
}

func (p Position) String() string {
	return fmt.Sprintf("(%d,%d)", p.Row, p.Col)
}

// Grid is an immutable maze.
type Grid struct {
	tiles    [][]int
	rows     int
	cols     int
	start    Position
	goal     Position
	distance map[Position]int
}

// NewGrid copies tiles into a grid. The map must be rectangular and hold
// exactly one start and one goal tile.
func NewGrid(tiles [][]int) (*Grid, error) {
	if len(tiles) == 0 || len(tiles[0]) == 0 {
		return nil, fmt.Errorf("%w: empty map", ErrInvalidMap)
	}

	g := &Grid{rows: len(tiles), cols: len(tiles[0])}
	var starts, goals int
	for r, row := range tiles {
		if len(row) != g.cols {
			return nil, fmt.Errorf("%w: row %d has %d tiles, want %d", ErrInvalidMap, r, len(row), g.cols)
		}
		g.tiles = append(g.tiles, append([]int(nil), row...))
		for c, v := range row {
			switch v {
			case Wall, Corridor:
			case StartTile:
				starts++
				g.start = Position{r, c}
			case GoalTile:
				goals++
				g.goal = Position{r, c}
			default:
				return nil, fmt.Errorf("%w: unknown tile %d at (%d,%d)", ErrInvalidMap, v, r, c)
			}
		}
	}
	if starts != 1 || goals != 1 {
		return nil, fmt.Errorf("%w: want one start and one goal, found %d and %d", ErrInvalidMap, starts, goals)
	}

	g.distance = g.distancesToGoal()
	return g, nil
}

// MustGrid is NewGrid for maps known to be valid.
func MustGrid(tiles [][]int) *Grid {
	g, err := NewGrid(tiles)
	if err != nil {
		panic(err)
	}
	return g
}

// Rows returns the number of rows.
func (g *Grid) Rows() int { return g.rows }

// Cols returns the number of columns.
func (g *Grid) Cols() int { return g.cols }

// Start returns the start cell.
func (g *Grid) Start() Position { return g.start }

// Goal returns the goal cell.
func (g *Grid) Goal() Position { return g.goal }

// Tile returns the tile at p, or Wall off the grid.
func (g *Grid) Tile(p Position) int {
	if !g.inside(p) {
		return Wall
	}
	return g.tiles[p.Row][p.Col]
}

// IsWalkable reports whether p is a corridor, start or goal tile.
func (g *Grid) IsWalkable(p Position) bool {
	return g.Tile(p) != Wall
}

// IsDirectionWalkable reports whether the neighbour of p in direction d is
// walkable.
func (g *Grid) IsDirectionWalkable(p Position, d Direction) bool {
	return g.IsWalkable(p.Step(d))
}

// WalkableDirections returns the walkable headings from p in direction order.
func (g *Grid) WalkableDirections(p Position) []Direction {
	var out []Direction
	for _, d := range Directions {
		if g.IsDirectionWalkable(p, d) {
			out = append(out, d)
		}
	}
	return out
}

// IsIntersection reports whether p branches: more than two walkable
// neighbours inside the grid, more than one on its boundary.
func (g *Grid) IsIntersection(p Position) bool {
	n := len(g.WalkableDirections(p))
	if g.isBoundary(p) {
		return n > 1
	}
	return n > 2
}

// NextPosition returns the neighbour of p in direction d.
func (g *Grid) NextPosition(p Position, d Direction) (Position, error) {
	next := p.Step(d)
	if !g.IsWalkable(next) {
		return p, DirectionNotWalkable(d)
	}
	return next, nil
}

// Distance returns the number of moves from p to the goal, or -1 when the
// goal is unreachable.
func (g *Grid) Distance(p Position) int {
	d, ok := g.distance[p]
	if !ok {
		return -1
	}
	return d
}

// Flatten returns the tiles in row-major order.
func (g *Grid) Flatten() []float32 {
	out := make([]float32, 0, g.rows*g.cols)
	for _, row := range g.tiles {
		for _, v := range row {
			out = append(out, float32(v))
		}
	}
	return out
}

func (g *Grid) inside(p Position) bool {
	return p.Row >= 0 && p.Row < g.rows && p.Col >= 0 && p.Col < g.cols
}

func (g *Grid) isBoundary(p Position) bool {
	return !(p.Row > 0 && p.Row < g.rows-1 && p.Col > 0 && p.Col < g.cols-1)
}

// distancesToGoal runs a breadth-first search outwards from the goal.
func (g *Grid) distancesToGoal() map[Position]int {
	dist := map[Position]int{g.goal: 0}
	queue := []Position{g.goal}
	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]
		for _, d := range Directions {
			next := p.Step(d)
			if _, seen := dist[next]; seen || !g.IsWalkable(next) {
				continue
			}
			dist[next] = dist[p] + 1
			queue = append(queue, next)
		}
	}
	return dist
}
