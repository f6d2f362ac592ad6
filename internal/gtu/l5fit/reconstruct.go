package l5fit

import (
	"github.com/banshee-data/trd-gtu/internal/gtu"
	"github.com/banshee-data/trd-gtu/internal/gtu/l3tracks"
)

// RecoParams are the reconstruction lookups of the parameter table.
type RecoParams interface {
	Aki(mask, layer int) float32
	Bki(mask, layer int) float32
	Cki(mask, layer int) float32
	BinWidthY() float32
	IntersectionPoints(mask int) (x1, x2 float32)
	Radius(a int32, b, x1, x2 float32) float32
}

// Reconstructor computes the track parameters of candidates.
type Reconstructor struct {
	params RecoParams
}

// NewReconstructor returns a reconstructor reading its tables from p.
func NewReconstructor(p RecoParams) *Reconstructor {
	return &Reconstructor{params: p}
}

// Reconstruct fits track and stores (a, b, c) and the integer pt on it.
func (r *Reconstructor) Reconstruct(track *l3tracks.Track) {
	if track == nil {
		opsf("no track to reconstruct")
		return
	}
	mask := track.TrackletMask()
	binWidth := r.params.BinWidthY()

	var a int32
	var b, c float32
	for layer := 0; layer < gtu.NLayers; layer++ {
		trk := track.Tracklet(layer)
		if trk == nil {
			continue
		}
		aki := int32(2048 * r.params.Aki(mask, layer))
		a += (aki*trk.YPrime + 1) >> 8
		b += r.params.Bki(mask, layer) * float32(trk.YPrime) * binWidth
		c += r.params.Cki(mask, layer) * float32(trk.YPrime) * binWidth
	}
	if a < 0 {
		a += 3
	}
	a >>= 2

	x1, x2 := r.params.IntersectionPoints(mask)
	track.SetFitParams(a, b, c)
	radius := r.params.Radius(a, b, x1, x2)
	track.PtInt = PtFromRadius(radius)
	tracef("mask 0x%02x: a=%d b=%.2f c=%.2f x1=%.2f x2=%.2f r=%.2f pt=%d", mask, a, b, c, x1, x2, radius, track.PtInt)
}

// ReconstructAll fits every track of a cycle.
func (r *Reconstructor) ReconstructAll(tracks []*l3tracks.Track) {
	for _, track := range tracks {
		r.Reconstruct(track)
	}
	diagf("reconstructed %d tracks", len(tracks))
}

// PtFromRadius converts a radius into the integer momentum proxy: twice the
// radius truncated, biased by +32 or -29 depending on its sign, then halved
// with truncation towards zero.
func PtFromRadius(radius float32) int32 {
	pt := int32(2 * radius)
	if pt >= 0 {
		pt += 32
	} else {
		pt -= 29
	}
	return pt / 2
}
