package core

import (
	"context"
	"math"

	"github.com/ultralog/ultralog/pkg/ingestion"
	"github.com/ultralog/ultralog/pkg/logmodel"
	"github.com/ultralog/ultralog/pkg/specs"
)

// ChannelSummary is the per-channel display projection spec §6 promises:
// raw and canonical name, the unit samples are stored in, the observed
// value range when the parser measured one, and any other names the
// registry knows this channel by.
type ChannelSummary struct {
	RawName       string
	CanonicalName string
	Unit          string
	Min           float64
	Max           float64
	HasRange      bool
	Aliases       []string
}

// Channels lists every raw channel in handle's log plus any computed
// channel already instantiated against it, per spec §6.
func (c *Core) Channels(ctx context.Context, handle ingestion.Handle) ([]ChannelSummary, error) {
	log, err := c.Log(ctx, handle)
	if err != nil {
		return nil, err
	}

	c.mu.RLock()
	reg := c.registry
	c.mu.RUnlock()

	out := make([]ChannelSummary, 0, len(log.Channels))
	for i, ch := range log.Channels {
		s := ChannelSummary{
			RawName:       ch.RawName,
			CanonicalName: ch.CanonicalName,
			Unit:          log.Metadata[i].SourceUnit,
			Aliases:       aliasesFor(reg, ch.CanonicalName),
		}
		s.Min, s.Max, s.HasRange = log.Metadata[i].ObservedRange()
		out = append(out, s)
	}

	c.mu.RLock()
	for _, cc := range c.computed[handle] {
		s := ChannelSummary{RawName: cc.Name, CanonicalName: cc.Name, Unit: cc.Unit}
		s.Min, s.Max, s.HasRange = observedRange(cc.Values)
		out = append(out, s)
	}
	c.mu.RUnlock()

	return out, nil
}

// aliasesFor returns the display aliases the registry's vendor specs
// declare for canonicalName, or nil if no registry is published yet or
// nothing declares that channel.
func aliasesFor(reg *specs.Registry, canonicalName string) []string {
	if reg == nil {
		return nil
	}
	spec, ok := reg.Metadata(canonicalName)
	if !ok {
		return nil
	}
	return spec.Aliases
}

func observedRange(cells []logmodel.Cell) (min, max float64, ok bool) {
	for _, cell := range cells {
		if cell.IsAbsent() {
			continue
		}
		if !ok {
			min, max, ok = cell.Num, cell.Num, true
			continue
		}
		min = math.Min(min, cell.Num)
		max = math.Max(max, cell.Num)
	}
	return min, max, ok
}
