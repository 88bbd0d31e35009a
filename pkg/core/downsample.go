package core

import (
	"context"
	"fmt"

	"github.com/ultralog/ultralog/pkg/downsample"
	"github.com/ultralog/ultralog/pkg/ingestion"
	"github.com/ultralog/ultralog/pkg/logmodel"
	"github.com/ultralog/ultralog/pkg/units"
)

// UnresolvedChannelError is returned by Downsample when channel names
// neither a raw channel in the log nor an already-instantiated computed
// channel.
type UnresolvedChannelError struct {
	Channel string
}

func (e *UnresolvedChannelError) Error() string {
	return fmt.Sprintf("core: no channel or computed channel named %q is open on this handle", e.Channel)
}

// Downsample resolves channel against handle's log (a raw channel, or a
// computed channel previously instantiated via InstantiateTemplate), walks
// unitPref's conversion against the channel's stored unit if both are
// known members of the same category, and returns the LTTB-reduced series
// per spec §4.7. unitPref == "" leaves values in their stored unit.
func (c *Core) Downsample(ctx context.Context, handle ingestion.Handle, channel, unitPref string, budget int) ([]downsample.Point, error) {
	log, err := c.Log(ctx, handle)
	if err != nil {
		return nil, err
	}

	points, category, sourceUnit, found := c.rawSeries(log, channel)
	if !found {
		points, category, sourceUnit, found = c.computedSeries(handle, log, channel)
	}
	if !found {
		return nil, &UnresolvedChannelError{Channel: channel}
	}

	if unitPref != "" && category != "" && units.Unit(unitPref) != units.Unit(sourceUnit) {
		for i := range points {
			if points[i].Absent {
				continue
			}
			v, err := units.Convert(units.Category(category), units.Unit(sourceUnit), units.Unit(unitPref), points[i].V)
			if err == nil {
				points[i].V = v
			}
		}
	}

	return downsample.LTTB(points, budget), nil
}

func (c *Core) rawSeries(log *logmodel.Log, channel string) (points []downsample.Point, category, sourceUnit string, found bool) {
	idx := log.ChannelIndex(channel)
	if idx < 0 {
		return nil, "", "", false
	}

	points = make([]downsample.Point, log.RecordCount())
	for i := range points {
		cell := log.At(idx, i)
		points[i] = downsample.Point{T: log.Time[i], Absent: cell.IsAbsent()}
		if !cell.IsAbsent() {
			points[i].V = cell.Num
		}
	}

	sourceUnit = log.Metadata[idx].SourceUnit
	if c.registry != nil {
		if spec, ok := c.registry.Metadata(log.Channels[idx].CanonicalName); ok {
			category = spec.Category
		}
	}
	return points, category, sourceUnit, true
}

func (c *Core) computedSeries(handle ingestion.Handle, log *logmodel.Log, channel string) (points []downsample.Point, category, sourceUnit string, found bool) {
	c.mu.RLock()
	cc, ok := c.computed[handle][channel]
	c.mu.RUnlock()
	if !ok {
		return nil, "", "", false
	}

	points = make([]downsample.Point, len(cc.Values))
	for i, cell := range cc.Values {
		points[i] = downsample.Point{Absent: cell.IsAbsent()}
		if i < len(log.Time) {
			points[i].T = log.Time[i]
		}
		if !cell.IsAbsent() {
			points[i].V = cell.Num
		}
	}
	return points, "", cc.Unit, true
}
