// Package library implements spec §4.6's computed-channel library: a
// process-wide, persistent, ordered set of formula templates, and the
// operations that instantiate them against a loaded log.
package library

import (
	"sync/atomic"

	"github.com/ultralog/ultralog/pkg/logmodel"
)

// FormulaTemplate is a named, portable formula: it stores a reference
// list symbolically (as the bare text typed by the user) and is resolved
// against a specific log only at instantiation time, per §4.5's "do not
// resolve names at parse time" decision.
type FormulaTemplate struct {
	ID          string
	Name        string
	Formula     string
	Unit        string
	Description string
}

// ComputedChannel is a template bound to a specific log: the resolved
// value sequence, one cell per record, with absent entries wherever a
// dependency was out of bounds or itself absent.
type ComputedChannel struct {
	TemplateID string
	Name       string
	Unit       string
	Values     []logmodel.Cell

	invalidated atomic.Bool
}

// Invalidated reports whether the log this channel was instantiated
// against has since been closed. Its Values are still present but must no
// longer be treated as current: a host holding a *ComputedChannel across a
// Close can check this instead of discovering staleness indirectly.
func (c *ComputedChannel) Invalidated() bool {
	return c.invalidated.Load()
}

// Invalidate marks this channel invalidated. Called once, by whatever
// closes the log it was computed against.
func (c *ComputedChannel) Invalidate() {
	c.invalidated.Store(true)
}

// NotFoundError is returned by operations addressing a template by ID
// that the library does not hold.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return "library: no template with id " + e.ID
}
