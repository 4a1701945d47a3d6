// Package modal tracks the single modal dialog the editor may show at a
// time.
package modal

import (
	"errors"
	"fmt"
	"sync"
)

// ErrModalActive is returned when a modal is opened while another is shown.
var ErrModalActive = errors.New("another modal is active")

// Coordinator owns the single-active-modal invariant.
type Coordinator struct {
	mu     sync.Mutex
	active string
}

// NewCoordinator returns a coordinator with no active modal.
func NewCoordinator() *Coordinator {
	return &Coordinator{}
}

// Open marks id as the active modal. Reopening the active modal is allowed.
func (c *Coordinator) Open(id string) error {
	if id == "" {
		return fmt.Errorf("modal id is empty")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active != "" && c.active != id {
		return fmt.Errorf("%w: %s", ErrModalActive, c.active)
	}
	c.active = id
	return nil
}

// Close releases id. It reports false when id was not the active modal.
func (c *Coordinator) Close(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active != id || id == "" {
		return false
	}
	c.active = ""
	return true
}

// Active returns the id of the active modal.
func (c *Coordinator) Active() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active, c.active != ""
}
