package pipeline

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"runtime"
	"sort"

	"github.com/banshee-data/trd-gtu/internal/gtu/eventio"
	"github.com/banshee-data/trd-gtu/internal/gtu/l1tracklets"
	"github.com/banshee-data/trd-gtu/internal/gtu/l3tracks"
	"github.com/banshee-data/trd-gtu/internal/gtu/params"
	"github.com/banshee-data/trd-gtu/internal/gtu/tmu"
	"golang.org/x/sync/errgroup"
)

// TrackSink receives the tracks of every processed event.
type TrackSink interface {
	WriteTracks(ctx context.Context, eventID string, tracks []*l3tracks.Track) error
}

// TrackletSink receives the normalized tracklets of every unit.
type TrackletSink interface {
	WriteTracklets(ctx context.Context, eventID string, sector, stack int, tracklets []*l1tracklets.Tracklet) error
}

// isNilInterface checks if an interface value is nil or contains a nil pointer.
func isNilInterface(i interface{}) bool {
	if i == nil {
		return true
	}
	v := reflect.ValueOf(i)
	switch v.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func, reflect.Interface:
		return v.IsNil()
	}
	return false
}

// Config configures a GTU.
type Config struct {
	// Params is shared by all TMUs. Nil selects the default table.
	Params params.Table
	// Workers bounds the number of TMUs running at once. Zero or less
	// selects GOMAXPROCS.
	Workers int

	TrackSink    TrackSink
	TrackletSink TrackletSink
}

// GTU processes events sector by sector and stack by stack.
type GTU struct {
	params       params.Table
	workers      int
	trackSink    TrackSink
	trackletSink TrackletSink
}

// New returns a GTU for cfg.
func New(cfg Config) (*GTU, error) {
	g := &GTU{params: cfg.Params, workers: cfg.Workers}
	if isNilInterface(g.params) {
		tbl, err := params.NewDefaultTable(params.Options{})
		if err != nil {
			return nil, err
		}
		g.params = tbl
	}
	if g.workers <= 0 {
		g.workers = runtime.GOMAXPROCS(0)
	}
	if !isNilInterface(cfg.TrackSink) {
		g.trackSink = cfg.TrackSink
	}
	if !isNilInterface(cfg.TrackletSink) {
		g.trackletSink = cfg.TrackletSink
	}
	return g, nil
}

// UnitResult is the outcome of one TMU cycle.
type UnitResult struct {
	Sector    int
	Stack     int
	Tracklets []*l1tracklets.Tracklet
	Tracks    []*l3tracks.Track
	Err       error
}

// EventResult is the outcome of one event, units sorted by sector then
// stack.
type EventResult struct {
	EventID string
	Units   []UnitResult
}

// Tracks returns the tracks of all units in unit order.
func (r *EventResult) Tracks() []*l3tracks.Track {
	var out []*l3tracks.Track
	for _, u := range r.Units {
		out = append(out, u.Tracks...)
	}
	return out
}

// Err joins the errors of all failed units, or returns nil.
func (r *EventResult) Err() error {
	var errs []error
	for _, u := range r.Units {
		if u.Err != nil {
			errs = append(errs, u.Err)
		}
	}
	return errors.Join(errs...)
}

type unitKey struct {
	sector int
	stack  int
}

type unitInput struct {
	unitKey
	records []eventio.TrackletRecord
}

// groupUnits splits the tracklets of ev by sector and stack, keeping the
// input order within each unit.
func groupUnits(ev eventio.Event) []unitInput {
	index := make(map[unitKey]int)
	var units []unitInput
	for _, rec := range ev.Tracklets {
		key := unitKey{sector: rec.Sector, stack: rec.Stack}
		i, ok := index[key]
		if !ok {
			i = len(units)
			index[key] = i
			units = append(units, unitInput{unitKey: key})
		}
		units[i].records = append(units[i].records, rec)
	}
	sort.Slice(units, func(i, j int) bool {
		if units[i].sector != units[j].sector {
			return units[i].sector < units[j].sector
		}
		return units[i].stack < units[j].stack
	})
	return units
}

// ProcessEvent runs one TMU per sector/stack of ev. A failing unit is
// reported in its UnitResult and does not stop the others. The returned
// error is non-nil only when ctx is cancelled or a sink fails.
func (g *GTU) ProcessEvent(ctx context.Context, ev eventio.Event) (*EventResult, error) {
	units := groupUnits(ev)
	result := &EventResult{EventID: ev.ID, Units: make([]UnitResult, len(units))}

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(g.workers)
	for i, in := range units {
		if egCtx.Err() != nil {
			break
		}
		i, in := i, in
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			tracef("event %s: sector %d stack %d: %d tracklets", ev.ID, in.sector, in.stack, len(in.records))
			result.Units[i] = g.runUnit(in)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, fmt.Errorf("event %s: %w", ev.ID, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("event %s: %w", ev.ID, err)
	}

	if err := g.flush(ctx, result); err != nil {
		return nil, err
	}

	failed := 0
	for _, u := range result.Units {
		if u.Err != nil {
			failed++
			opsf("event %s: %v", ev.ID, u.Err)
		}
	}
	diagf("event %s: %d units, %d failed, %d tracks", ev.ID, len(result.Units), failed, len(result.Tracks()))
	return result, nil
}

func (g *GTU) runUnit(in unitInput) UnitResult {
	res := UnitResult{Sector: in.sector, Stack: in.stack}
	u, err := tmu.New(g.params, in.stack, in.sector)
	if err != nil {
		res.Err = err
		return res
	}
	for _, rec := range in.records {
		if err := u.AddTracklet(rec.Tracklet(), rec.Link); err != nil {
			res.Err = fmt.Errorf("sector %d stack %d: %w", in.sector, in.stack, err)
			return res
		}
	}
	runCycle(u, &res)
	return res
}

// runCycle runs u and records its tracks and tracklet dump in res. A failed
// cycle keeps neither.
func runCycle(u *tmu.TMU, res *UnitResult) {
	tracks, err := u.Run()
	if err != nil {
		res.Err = err
		return
	}
	res.Tracks = tracks

	var dump trackletBuffer
	if err := u.WriteTracklets(&dump); err == nil {
		res.Tracklets = dump.tracklets
	}
}

// trackletBuffer keeps the tracklet dump of a unit until the sinks run.
type trackletBuffer struct {
	tracklets []*l1tracklets.Tracklet
}

func (b *trackletBuffer) WriteTracklets(_, _ int, tracklets []*l1tracklets.Tracklet) error {
	b.tracklets = tracklets
	return nil
}

// flush hands the results to the sinks in unit order.
func (g *GTU) flush(ctx context.Context, r *EventResult) error {
	if g.trackletSink != nil {
		for _, u := range r.Units {
			if len(u.Tracklets) == 0 {
				continue
			}
			if err := g.trackletSink.WriteTracklets(ctx, r.EventID, u.Sector, u.Stack, u.Tracklets); err != nil {
				opsf("event %s: tracklet sink: %v", r.EventID, err)
				return fmt.Errorf("event %s: writing tracklets: %w", r.EventID, err)
			}
		}
	}
	if g.trackSink != nil {
		if err := g.trackSink.WriteTracks(ctx, r.EventID, r.Tracks()); err != nil {
			opsf("event %s: track sink: %v", r.EventID, err)
			return fmt.Errorf("event %s: writing tracks: %w", r.EventID, err)
		}
	}
	return nil
}

// ProcessEvents runs ProcessEvent for every event in order and stops at the
// first pipeline error. Unit failures do not stop it.
func (g *GTU) ProcessEvents(ctx context.Context, events []eventio.Event) ([]*EventResult, error) {
	results := make([]*EventResult, 0, len(events))
	for _, ev := range events {
		r, err := g.ProcessEvent(ctx, ev)
		if err != nil {
			return results, err
		}
		results = append(results, r)
	}
	return results, nil
}
