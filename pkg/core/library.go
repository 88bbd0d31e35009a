package core

import (
	"github.com/ultralog/ultralog/pkg/ingestion"
	"github.com/ultralog/ultralog/pkg/library"
)

// ListTemplates returns every computed-channel template, per spec §4.6's
// list() operation.
func (c *Core) ListTemplates() ([]library.FormulaTemplate, error) {
	return c.library.List()
}

// AddTemplate persists a new template and returns its assigned id.
func (c *Core) AddTemplate(t library.FormulaTemplate) (string, error) {
	return c.library.Add(t)
}

// UpdateTemplate overwrites the template stored under id.
func (c *Core) UpdateTemplate(id string, t library.FormulaTemplate) error {
	return c.library.Update(id, t)
}

// RemoveTemplate deletes the template stored under id. Any computed
// channel already instantiated from it on an open handle is left in
// place: removing a template does not retroactively invalidate results
// already handed to the host.
func (c *Core) RemoveTemplate(id string) error {
	return c.library.Remove(id)
}

// InstantiateTemplate evaluates template id against handle's log and
// caches the result so later Channels/Downsample calls can address it by
// name, per spec §4.6's instantiate() operation.
func (c *Core) InstantiateTemplate(handle ingestion.Handle, id string) (*library.ComputedChannel, error) {
	c.mu.RLock()
	log, ok := c.logs[handle]
	c.mu.RUnlock()
	if !ok {
		return nil, &ingestion.UnknownHandleError{Handle: handle}
	}

	cc, err := c.library.Instantiate(id, log)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	if c.computed[handle] == nil {
		c.computed[handle] = make(map[string]*library.ComputedChannel)
	}
	c.computed[handle][cc.Name] = cc
	c.mu.Unlock()

	return cc, nil
}

// ApplyAllCompatibleTemplates evaluates every template whose references
// resolve against handle's log and caches each result, per spec §4.6's
// apply_all_compatible() operation.
func (c *Core) ApplyAllCompatibleTemplates(handle ingestion.Handle) ([]*library.ComputedChannel, error) {
	c.mu.RLock()
	log, ok := c.logs[handle]
	c.mu.RUnlock()
	if !ok {
		return nil, &ingestion.UnknownHandleError{Handle: handle}
	}

	results := c.library.ApplyAllCompatible(log)

	c.mu.Lock()
	if c.computed[handle] == nil {
		c.computed[handle] = make(map[string]*library.ComputedChannel)
	}
	for _, cc := range results {
		c.computed[handle][cc.Name] = cc
	}
	c.mu.Unlock()

	return results, nil
}
