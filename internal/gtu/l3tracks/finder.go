package l3tracks

import (
	"fmt"

	"github.com/banshee-data/trd-gtu/internal/gtu"
	"github.com/banshee-data/trd-gtu/internal/gtu/l1tracklets"
)

// FinderParams are the track finder lookups of the parameter table.
type FinderParams interface {
	DeltaY() int32
	DeltaAlpha() int32
	// RefLayers lists the reference layers in the order they are tried.
	RefLayers() []int
}

// Finder runs the track finding of one sector/stack.
type Finder struct {
	params FinderParams
	sector int
	stack  int
}

// NewFinder returns a finder that tags its candidates with sector and
// stack.
func NewFinder(p FinderParams, sector, stack int) *Finder {
	return &Finder{params: p, sector: sector, stack: stack}
}

// window is the acceptance region around a reference tracklet in channel
// order: same subchannel and yproj within [yMinus, yPlus].
type window struct {
	zch    int
	sub    int32
	yMinus int32
	yPlus  int32
}

func newWindow(ref *l1tracklets.Tracklet, zch int, deltaY int32) window {
	return window{
		zch:    zch,
		sub:    ref.SubChannel[zch],
		yMinus: ref.YProj - deltaY,
		yPlus:  ref.YProj + deltaY,
	}
}

// below reports whether trk sorts before the window.
func (w window) below(trk *l1tracklets.Tracklet) bool {
	s := trk.SubChannel[w.zch]
	return s < w.sub || (s == w.sub && trk.YProj < w.yMinus)
}

// above reports whether trk sorts after the window.
func (w window) above(trk *l1tracklets.Tracklet) bool {
	s := trk.SubChannel[w.zch]
	return s > w.sub || (s == w.sub && trk.YProj > w.yPlus)
}

// inside reports whether trk lies within the window.
func (w window) inside(trk *l1tracklets.Tracklet) bool {
	return !w.below(trk) && !w.above(trk)
}

// layerState is the per-layer scratch state of one sweep step.
type layerState struct {
	trkA, trkB         *l1tracklets.Tracklet
	hitA, hitB         bool
	alignedA, alignedB bool
	aligned            bool
	inc                int
	incPrime           int
}

// sweep is the cursor state of one reference-layer attempt.
type sweep struct {
	lists *[gtu.NLayers][]*l1tracklets.Tracklet
	ptrA  [gtu.NLayers]int
	ptrB  [gtu.NLayers]int
	notr  [gtu.NLayers]int
}

func (s *sweep) at(layer, ptr int) *l1tracklets.Tracklet {
	if ptr < 0 || ptr >= s.notr[layer] {
		return nil
	}
	return s.lists[layer][ptr]
}

// Find sweeps the ordered lists of channel zch once per reference layer and
// returns the registered candidates indexed by reference layer index. Each
// inner slice keeps the order in which the candidates were found, which is
// ascending in (subchannel, yproj) of the reference tracklet.
func (f *Finder) Find(zch int, lists [gtu.NLayers][]*l1tracklets.Tracklet) ([][]*Track, error) {
	if zch < 0 || zch >= gtu.NZChannels {
		return nil, fmt.Errorf("%w: z-channel %d out of range", gtu.ErrConfiguration, zch)
	}
	refLayers := f.params.RefLayers()
	found := make([][]*Track, len(refLayers))
	for refLayerIdx, refLayer := range refLayers {
		if refLayer < 0 || refLayer >= gtu.NLayers {
			return nil, fmt.Errorf("%w: reference layer %d out of range", gtu.ErrConfiguration, refLayer)
		}
		tracks, err := f.sweepRefLayer(zch, refLayerIdx, refLayers, &lists)
		if err != nil {
			return nil, err
		}
		found[refLayerIdx] = tracks
		diagf("sector %d stack %d zch %d reflayer %d: %d candidates", f.sector, f.stack, zch, refLayer, len(tracks))
	}
	return found, nil
}

func (f *Finder) sweepRefLayer(zch, refLayerIdx int, refLayers []int, lists *[gtu.NLayers][]*l1tracklets.Tracklet) ([]*Track, error) {
	refLayer := refLayers[refLayerIdx]
	deltaY := f.params.DeltaY()
	deltaAlpha := f.params.DeltaAlpha()

	s := sweep{lists: lists}
	maxSteps := 1
	for layer := 0; layer < gtu.NLayers; layer++ {
		s.notr[layer] = len(lists[layer])
		s.ptrA[layer] = 0
		s.ptrB[layer] = 1
		maxSteps += s.notr[layer] + 2
	}

	var tracks []*Track
	var state [gtu.NLayers]layerState
	ready := false
	for steps := 0; !ready; steps++ {
		if steps > maxSteps {
			opsf("zch %d reflayer %d: sweep did not terminate after %d steps", zch, refLayer, steps)
			return nil, fmt.Errorf("%w: sweep in z-channel %d, reference layer %d exceeded %d steps",
				gtu.ErrInvariantViolation, zch, refLayer, maxSteps)
		}

		// ----- reference tracklets -----
		trkRA := s.at(refLayer, s.ptrA[refLayer])
		if trkRA == nil {
			tracef("zch %d reflayer %d: no reference tracklet at ptr %d", zch, refLayer, s.ptrA[refLayer])
			break
		}
		trkRB := s.at(refLayer, s.ptrB[refLayer])
		tracef("ptrRA: %d, ptrRB: %d", s.ptrA[refLayer], s.ptrB[refLayer])

		winA := newWindow(trkRA, zch, deltaY)
		alphaPlus := trkRA.Alpha + deltaAlpha
		alphaMinus := trkRA.Alpha - deltaAlpha
		winB := winA
		if trkRB != nil {
			winB = newWindow(trkRB, zch, deltaY)
		}

		nHits, nUnc, nWayBeyond := 0, 0, 0
		for layer := 0; layer < gtu.NLayers; layer++ {
			ls := &state[layer]
			*ls = layerState{}

			if layer == refLayer {
				ls.hitA = true
				ls.aligned = true
				nHits++
				continue
			}

			ls.trkA = s.at(layer, s.ptrA[layer])
			ls.trkB = s.at(layer, s.ptrB[layer])

			if ls.trkA != nil {
				ls.hitA = winA.inside(ls.trkA) &&
					!(ls.trkA.Alpha < alphaMinus) &&
					!(ls.trkA.Alpha > alphaPlus)
				ls.alignedA = !winA.below(ls.trkA)
			} else {
				ls.alignedA = true
			}

			if ls.trkB != nil {
				ls.hitB = winA.inside(ls.trkB) &&
					!(ls.trkB.Alpha < alphaMinus) &&
					!(ls.trkB.Alpha > alphaPlus)
				ls.alignedB = winA.above(ls.trkB)
			} else {
				ls.alignedB = true
			}

			ls.aligned = ls.alignedA || ls.alignedB

			if ls.aligned && (ls.hitA || ls.hitB) {
				nHits++
			} else if !ls.aligned {
				nUnc++
			}
			if trkRB != nil {
				if ls.trkA == nil || winB.above(ls.trkA) {
					nWayBeyond++
				}
			}

			// pre-calculation for the layer shifting (alignment w. r. t. trkRB)
			if ls.trkA != nil {
				if trkRB == nil || winB.below(ls.trkA) {
					ls.incPrime = 1
				}
				if ls.trkB != nil && (trkRB == nil || winB.below(ls.trkB)) {
					ls.incPrime = 2
				}
			}
		}

		tracef("logic calculation finished, nhits: %d, nunc: %d, nwaybeyond: %d", nHits, nUnc, nWayBeyond)

		if nHits >= gtu.MinHits {
			track, err := f.register(zch, refLayerIdx, refLayers, &s, &state)
			if err != nil {
				opsf("zch %d reflayer %d: %v", zch, refLayer, err)
				return nil, err
			}
			if track != nil {
				tracks = append(tracks, track)
			}
		}

		// inc for the reference layer, kept exactly as the hardware decides it
		switch {
		case nUnc != 0 && nUnc+nHits >= gtu.MinHits:
			state[refLayer].inc = 0
		case nWayBeyond > 2:
			state[refLayer].inc = 2
		default:
			state[refLayer].inc = 1
		}

		if state[refLayer].inc != 0 {
			for layer := 0; layer < gtu.NLayers; layer++ {
				if layer != refLayer {
					state[layer].inc = state[layer].incPrime
				}
			}
		} else {
			for layer := 0; layer < gtu.NLayers; layer++ {
				if layer == refLayer || s.notr[layer] == 0 {
					continue
				}
				state[layer].inc = holdIncrement(&state[layer], winA)
			}
		}

		ready = true
		for layer := 0; layer < gtu.NLayers; layer++ {
			done := s.ptrB[layer] < 0 || s.ptrB[layer] >= s.notr[layer]
			ready = ready && done

			inc := state[layer].inc
			if inc != 0 && s.ptrA[layer] >= s.notr[layer] {
				opsf("invalid increment: %d at ptrA: %d, notr: %d", inc, s.ptrA[layer], s.notr[layer])
			}
			tracef(" -- layer: %d   %d   %d   +%d   done=%t  (no: %d)", layer, s.ptrA[layer], s.ptrB[layer], inc, done, s.notr[layer])
			s.ptrA[layer] += inc
			s.ptrB[layer] += inc
		}
	}
	return tracks, nil
}

// holdIncrement returns the increment of a non-reference layer while the
// reference layer holds its position.
func holdIncrement(ls *layerState, winA window) int {
	if ls.trkA == nil {
		return 0
	}
	if winA.inside(ls.trkA) {
		// trkA could hit trkRA
		return 0
	}
	if ls.trkB == nil {
		return ls.incPrime
	}
	switch {
	case winA.below(ls.trkB):
		return 2
	case !winA.above(ls.trkB):
		return 1
	default:
		return ls.incPrime
	}
}

// register builds the candidate of the current sweep step. It returns nil
// without error when the same tracklets can be found from a reference
// layer that was tried earlier.
func (f *Finder) register(zch, refLayerIdx int, refLayers []int, s *sweep, state *[gtu.NLayers]layerState) (*Track, error) {
	refLayer := refLayers[refLayerIdx]
	track := NewTrack(f.sector, f.stack)
	for layer := 0; layer < gtu.NLayers; layer++ {
		var ptr int
		switch {
		case state[layer].hitA || layer == refLayer:
			ptr = s.ptrA[layer]
		case state[layer].hitB:
			ptr = s.ptrB[layer]
		default:
			continue
		}
		trk := s.at(layer, ptr)
		if trk == nil {
			return nil, fmt.Errorf("%w: no tracklet in layer %d at ptr %d (z-channel %d, %d entries)",
				gtu.ErrInvariantViolation, layer, ptr, zch, s.notr[layer])
		}
		track.AddTracklet(trk, layer)
	}

	for idx := refLayerIdx - 1; idx >= 0; idx-- {
		if track.IsTrackletInLayer(refLayers[idx]) {
			tracef("***** track already seeded from reference layer %d *****", refLayers[idx])
			return nil, nil
		}
	}

	track.ZChannel = zch
	track.RefLayerIdx = refLayerIdx
	if err := track.Validate(); err != nil {
		return nil, err
	}
	tracef("***** TMU: track found, mask 0x%02x *****", track.TrackletMask())
	return track, nil
}
