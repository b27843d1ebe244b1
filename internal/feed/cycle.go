package feed

import (
	"sync"
)

// State is where a renderer is in its poll cycle.
type State int

const (
	Idle State = iota
	Loading
	Rendered
	ErrorDisplayed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Rendered:
		return "rendered"
	case ErrorDisplayed:
		return "error"
	}
	return "unknown"
}

// LoadErrorMessage replaces the list whenever a refresh fails.
const LoadErrorMessage = "Couldn't load questions right now."

// cycle tags every refresh with a sequence number and applies a result only
// if no newer refresh has been issued since.
type cycle struct {
	mu     sync.Mutex
	issued uint64
	state  State
}

func (c *cycle) begin() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.issued++
	c.state = Loading
	return c.issued
}

// finish runs apply under the cycle lock when tag is still the latest.
func (c *cycle) finish(tag uint64, outcome State, apply func()) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if tag != c.issued {
		return false
	}
	apply()
	c.state = outcome
	return true
}

func (c *cycle) current() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}
