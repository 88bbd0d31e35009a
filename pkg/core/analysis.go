package core

import (
	"math"

	"github.com/ultralog/ultralog/pkg/analysis"
	"github.com/ultralog/ultralog/pkg/ingestion"
	"github.com/ultralog/ultralog/pkg/library"
	"github.com/ultralog/ultralog/pkg/logmodel"
)

// ListAnalyzers returns the static description of every built-in
// analyzer, regardless of whether any open log actually has the channels
// it needs.
func (c *Core) ListAnalyzers() []analysis.Info {
	return c.analyzers.All()
}

// AvailableAnalyzers returns the analyzers whose required channels all
// resolve against handle's log.
func (c *Core) AvailableAnalyzers(handle ingestion.Handle) ([]analysis.Info, error) {
	c.mu.RLock()
	log, ok := c.logs[handle]
	c.mu.RUnlock()
	if !ok {
		return nil, &ingestion.UnknownHandleError{Handle: handle}
	}
	return c.analyzers.AvailableFor(log), nil
}

// RunAnalyzer runs the analyzer registered under id against handle's log
// and caches the result as a computed channel, the same way
// InstantiateTemplate does for a formula template: later Channels or
// Downsample calls can address it by the name the analyzer gave its
// result.
func (c *Core) RunAnalyzer(handle ingestion.Handle, id string) (*library.ComputedChannel, error) {
	c.mu.RLock()
	log, ok := c.logs[handle]
	c.mu.RUnlock()
	if !ok {
		return nil, &ingestion.UnknownHandleError{Handle: handle}
	}

	result, err := c.analyzers.Run(id, log)
	if err != nil {
		return nil, err
	}

	cc := &library.ComputedChannel{
		TemplateID: id,
		Name:       result.Name,
		Unit:       result.Unit,
		Values:     cellsFromAnalysis(result.Values),
	}

	c.mu.Lock()
	if c.computed[handle] == nil {
		c.computed[handle] = make(map[string]*library.ComputedChannel)
	}
	c.computed[handle][cc.Name] = cc
	c.mu.Unlock()

	return cc, nil
}

// cellsFromAnalysis converts an analyzer's raw float64 series into the
// tagged cells the rest of this codebase works with: a NaN, the marker
// this package uses for "no sample", becomes an absent cell rather than a
// numeric one.
func cellsFromAnalysis(values []float64) []logmodel.Cell {
	out := make([]logmodel.Cell, len(values))
	for i, v := range values {
		if math.IsNaN(v) {
			out[i] = logmodel.AbsentCell
			continue
		}
		out[i] = logmodel.NumCell(v)
	}
	return out
}
