// Package space describes the static shape of agent observations and actions.
//
// Descriptors are consumed by external training infrastructure to size model
// inputs and outputs. They carry no behaviour beyond membership checks.
package space

import (
	"fmt"
	"strings"
)

// Space is a shape descriptor.
type Space interface {
	// Contains reports whether v is a member of the space.
	Contains(v any) bool
	String() string
}

// Discrete is the set {0, 1, ..., N-1}.
type Discrete struct {
	N int
}

// Contains implements Space. Any Go integer kind is accepted.
func (d Discrete) Contains(v any) bool {
	n, ok := asInt(v)
	return ok && n >= 0 && n < int64(d.N)
}

func (d Discrete) String() string {
	return fmt.Sprintf("Discrete(%d)", d.N)
}

// MultiBinary is a vector of N values, each 0 or 1.
type MultiBinary struct {
	N int
}

// Contains implements Space. Accepts []float32, []float64, []int and []bool.
func (m MultiBinary) Contains(v any) bool {
	values, ok := asFloats(v)
	if !ok || len(values) != m.N {
		return false
	}
	for _, x := range values {
		if x != 0 && x != 1 {
			return false
		}
	}
	return true
}

func (m MultiBinary) String() string {
	return fmt.Sprintf("MultiBinary(%d)", m.N)
}

// Box is a bounded tensor with a fixed shape. Values are flattened row-major.
type Box struct {
	Low   float64
	High  float64
	Shape []int
}

// Size returns the number of scalar elements.
func (b Box) Size() int {
	size := 1
	for _, d := range b.Shape {
		size *= d
	}
	return size
}

// Contains implements Space.
func (b Box) Contains(v any) bool {
	values, ok := asFloats(v)
	if !ok || len(values) != b.Size() {
		return false
	}
	for _, x := range values {
		if x < b.Low || x > b.High {
			return false
		}
	}
	return true
}

func (b Box) String() string {
	dims := make([]string, len(b.Shape))
	for i, d := range b.Shape {
		dims[i] = fmt.Sprint(d)
	}
	return fmt.Sprintf("Box(%g, %g, (%s))", b.Low, b.High, strings.Join(dims, ", "))
}

// Field is a named member of a Dict.
type Field struct {
	Key   string
	Space Space
}

// Dict is an ordered mapping of named sub-spaces.
type Dict struct {
	Fields []Field
}

// NewDict builds a Dict from fields in declaration order.
func NewDict(fields ...Field) Dict {
	return Dict{Fields: fields}
}

// Get returns the sub-space registered under key.
func (d Dict) Get(key string) (Space, bool) {
	for _, f := range d.Fields {
		if f.Key == key {
			return f.Space, true
		}
	}
	return nil, false
}

// Contains implements Space. v must be a map[string]any holding exactly the
// declared keys.
func (d Dict) Contains(v any) bool {
	m, ok := v.(map[string]any)
	if !ok || len(m) != len(d.Fields) {
		return false
	}
	for _, f := range d.Fields {
		value, ok := m[f.Key]
		if !ok || !f.Space.Contains(value) {
			return false
		}
	}
	return true
}

func (d Dict) String() string {
	parts := make([]string, len(d.Fields))
	for i, f := range d.Fields {
		parts[i] = f.Key + ": " + f.Space.String()
	}
	return "Dict(" + strings.Join(parts, ", ") + ")"
}

func asInt(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	default:
		return 0, false
	}
}

func asFloats(v any) ([]float64, bool) {
	switch values := v.(type) {
	case []float64:
		return values, true
	case []float32:
		out := make([]float64, len(values))
		for i, x := range values {
			out[i] = float64(x)
		}
		return out, true
	case []int:
		out := make([]float64, len(values))
		for i, x := range values {
			out[i] = float64(x)
		}
		return out, true
	case []bool:
		out := make([]float64, len(values))
		for i, x := range values {
			if x {
				out[i] = 1
			}
		}
		return out, true
	default:
		return nil, false
	}
}
