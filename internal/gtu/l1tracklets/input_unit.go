package l1tracklets

import (
	"sort"

	"github.com/banshee-data/trd-gtu/internal/gtu"
)

// InputParams are the lookups the input unit needs from the parameter
// table.
type InputParams interface {
	BitExcessY() uint
	BitExcessAlpha() uint
	BitExcessYProj() uint
	CiAlpha(layer int) int32
	CiYProj(layer int) int32
	Yt(stack, layer int, zbin int32) int32
}

// RunInputUnit sorts every layer by (z-bin, y-bin), assigns the rank index
// and computes the derived fixed-point quantities of each tracklet.
func (s *Store) RunInputUnit(stack int, p InputParams) {
	for layer := 0; layer < gtu.NLayers; layer++ {
		trkls := s.layers[layer]
		sort.SliceStable(trkls, func(i, j int) bool { return inputLess(trkls[i], trkls[j]) })
		for i, trk := range trkls {
			trk.Index = i
			Normalize(trk, stack, p)
		}
		tracef("input unit: layer %d, %d tracklets", layer, len(trkls))
	}
}

// Normalize fills Alpha, YProj and YPrime of a single tracklet.
func Normalize(t *Tracklet, stack int, p InputParams) {
	t.Alpha = Alpha(t.Ybin, t.DY, p.CiAlpha(t.Layer), p.BitExcessY(), p.BitExcessAlpha())
	t.YProj = YProj(t.Ybin, t.DY, p.CiYProj(t.Layer), p.BitExcessYProj())
	t.YPrime = t.Ybin + p.Yt(stack, t.Layer, t.Zbin)
}

// Alpha returns the deflection residual with respect to a straight line
// from the vertex:
//
//	alpha = (2*dy - (((ybin >> excessY) * ciAlpha) >> excessAlpha) + 1) >> 1
//
// All shifts are arithmetic on 32-bit values, so the final half-up
// rounding of a negative sum rounds towards minus infinity exactly like
// the hardware does.
func Alpha(ybin, dy, ciAlpha int32, excessY, excessAlpha uint) int32 {
	a := (ybin >> excessY) * ciAlpha
	return (2*dy - (a >> excessAlpha) + 1) >> 1
}

// YProj returns the y position projected to the common reference plane in
// units of eight y-bins:
//
//	yproj = (((((dy * ciYProj) >> excessYProj) + ybin) >> 2) + 1) >> 1
func YProj(ybin, dy, ciYProj int32, excessYProj uint) int32 {
	y := dy * ciYProj
	return ((((y >> excessYProj) + ybin) >> 2) + 1) >> 1
}
