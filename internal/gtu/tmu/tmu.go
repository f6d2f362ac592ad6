package tmu

import (
	"fmt"

	"github.com/banshee-data/trd-gtu/internal/gtu"
	"github.com/banshee-data/trd-gtu/internal/gtu/l1tracklets"
	"github.com/banshee-data/trd-gtu/internal/gtu/l2zchannels"
	"github.com/banshee-data/trd-gtu/internal/gtu/l3tracks"
	"github.com/banshee-data/trd-gtu/internal/gtu/l4merge"
	"github.com/banshee-data/trd-gtu/internal/gtu/l5fit"
	"github.com/banshee-data/trd-gtu/internal/gtu/params"
)

// Unset marks a sector or stack that has not been configured.
const Unset = -1

// TrackletWriter receives the normalized tracklets of a cycle.
type TrackletWriter interface {
	WriteTracklets(sector, stack int, tracklets []*l1tracklets.Tracklet) error
}

// TMU is the track matching unit of one sector/stack.
type TMU struct {
	params params.Table
	sector int
	stack  int

	store  *l1tracklets.Store
	router *l2zchannels.Router
	found  [gtu.NZChannels][][]*l3tracks.Track
}

// New returns a TMU reading its constants from p. stack and sector may be
// Unset and configured later with SetStack and SetSector.
func New(p params.Table, stack, sector int) (*TMU, error) {
	u := &TMU{
		params: p,
		sector: Unset,
		stack:  Unset,
		store:  l1tracklets.NewStore(),
		router: l2zchannels.NewRouter(),
	}
	if stack != Unset {
		if err := u.SetStack(stack); err != nil {
			return nil, err
		}
	}
	if sector != Unset {
		if err := u.SetSector(sector); err != nil {
			return nil, err
		}
	}
	return u, nil
}

// Sector returns the configured sector or Unset.
func (u *TMU) Sector() int { return u.sector }

// Stack returns the configured stack or Unset.
func (u *TMU) Stack() int { return u.stack }

// SetSector configures the sector. An out-of-range value leaves the sector
// unset and returns an error wrapping gtu.ErrConfiguration.
func (u *TMU) SetSector(sector int) error {
	if sector < 0 || sector >= gtu.NSectors {
		u.sector = Unset
		opsf("invalid sector given: %d", sector)
		return fmt.Errorf("%w: sector %d out of range [0,%d)", gtu.ErrConfiguration, sector, gtu.NSectors)
	}
	u.sector = sector
	return nil
}

// SetStack configures the stack. An out-of-range value leaves the stack
// unset and returns an error wrapping gtu.ErrConfiguration.
func (u *TMU) SetStack(stack int) error {
	if stack < 0 || stack >= gtu.NStacks {
		u.stack = Unset
		opsf("invalid stack given: %d", stack)
		return fmt.Errorf("%w: stack %d out of range [0,%d)", gtu.ErrConfiguration, stack, gtu.NStacks)
	}
	u.stack = stack
	return nil
}

// AddTracklet stores a copy of t for the layer served by link.
func (u *TMU) AddTracklet(t l1tracklets.Tracklet, link int) error {
	if link < 0 || link >= gtu.NLinks {
		return fmt.Errorf("%w: link %d out of range [0,%d)", gtu.ErrInvalidTracklet, link, gtu.NLinks)
	}
	_, err := u.store.Add(gtu.LayerOfLink(link), t)
	return err
}

// Reset clears every tracklet, channel and candidate list and unsets the
// sector and stack. It is idempotent.
func (u *TMU) Reset() {
	u.store.Reset()
	u.router.Reset()
	for zch := range u.found {
		u.found[zch] = nil
	}
	u.sector = Unset
	u.stack = Unset
}

// Run executes one full cycle over the stored tracklets and returns the
// fitted tracks in merge order. Running twice without changes returns the
// same tracks.
func (u *TMU) Run() ([]*l3tracks.Track, error) {
	if u.sector == Unset || u.stack == Unset {
		opsf("run with sector %d, stack %d", u.sector, u.stack)
		return nil, fmt.Errorf("%w: sector %d / stack %d not configured", gtu.ErrConfiguration, u.sector, u.stack)
	}

	u.store.RunInputUnit(u.stack, u.params)
	if err := u.runZChannelUnits(); err != nil {
		return nil, err
	}

	finder := l3tracks.NewFinder(u.params, u.sector, u.stack)
	for zch := 0; zch < gtu.NZChannels; zch++ {
		found, err := finder.Find(zch, u.router.Lists(zch))
		if err != nil {
			opsf("sector %d stack %d: track finder in z-channel %d failed: %v", u.sector, u.stack, zch, err)
			return nil, fmt.Errorf("sector %d stack %d: %w", u.sector, u.stack, err)
		}
		u.found[zch] = found
	}

	tracks, err := l4merge.Run(u.found)
	if err != nil {
		opsf("sector %d stack %d: track merging failed: %v", u.sector, u.stack, err)
		return nil, fmt.Errorf("sector %d stack %d: %w", u.sector, u.stack, err)
	}

	l5fit.NewReconstructor(u.params).ReconstructAll(tracks)
	diagf("sector %d stack %d: %d tracklets, %d tracks", u.sector, u.stack, u.store.Total(), len(tracks))
	return tracks, nil
}

func (u *TMU) runZChannelUnits() error {
	u.router.Reset()
	for layer := 0; layer < gtu.NLayers; layer++ {
		u.router.Route(layer, u.store.Layer(layer), u.stack, u.params)
		for zch := 0; zch < gtu.NZChannels; zch++ {
			if !u.router.Ordered(layer, zch) {
				return fmt.Errorf("%w: sector %d stack %d: layer %d z-channel %d out of order",
					gtu.ErrInvariantViolation, u.sector, u.stack, layer, zch)
			}
		}
	}
	return nil
}

// Tracklets returns the stored tracklets in layer order. After Run they are
// normalized and sorted within each layer.
func (u *TMU) Tracklets() []*l1tracklets.Tracklet {
	out := make([]*l1tracklets.Tracklet, 0, u.store.Total())
	for layer := 0; layer < gtu.NLayers; layer++ {
		out = append(out, u.store.Layer(layer)...)
	}
	return out
}

// WriteTracklets hands the stored tracklets to w.
func (u *TMU) WriteTracklets(w TrackletWriter) error {
	tracklets := u.Tracklets()
	for _, trk := range tracklets {
		tracef("input unit: %s", trk)
	}
	if err := w.WriteTracklets(u.sector, u.stack, tracklets); err != nil {
		return fmt.Errorf("write tracklets of sector %d stack %d: %w", u.sector, u.stack, err)
	}
	return nil
}
