// Package agent provides the capability contract for the decision units the
// orchestrator hands control between.
package agent

import (
	"fmt"
	"strconv"
	"strings"
)

// Name identifies an agent type. Names are unique within an orchestrator.
type Name string

// String returns the string representation of the name.
func (n Name) String() string {
	return string(n)
}

// ID is the externally addressable identity of one agent activation within an
// episode: the agent name plus the number of times it has reported done since
// the last reset.
type ID string

// NewID builds the identity for the given activation count.
func NewID(name Name, activation int) ID {
	return ID(fmt.Sprintf("%s_%d", name, activation))
}

// Name returns the agent name part of the identity.
func (id ID) Name() Name {
	i := strings.LastIndexByte(string(id), '_')
	if i < 0 {
		return Name(id)
	}
	return Name(id[:i])
}

// Activation returns the activation count encoded in the identity, or -1 when
// the identity is malformed.
func (id ID) Activation() int {
	i := strings.LastIndexByte(string(id), '_')
	if i < 0 {
		return -1
	}
	n, err := strconv.Atoi(string(id[i+1:]))
	if err != nil || n < 0 {
		return -1
	}
	return n
}

// String returns the string representation of the identity.
func (id ID) String() string {
	return string(id)
}
