package l1tracklets

import (
	"fmt"

	"github.com/banshee-data/trd-gtu/internal/gtu"
)

// Tracklet is one decoded tracklet as seen by the TMU input unit.
//
// Zbin, Ybin and DY arrive from the link; Alpha, YProj, YPrime and Index
// are filled by the input unit, SubChannel by the z-channel router. The
// record is not modified after the router has run.
type Tracklet struct {
	Word  uint32 // raw tracklet word, kept for diagnostics only
	Layer int

	Zbin int32 // pad row
	Ybin int32 // position in units of 160 um
	DY   int32 // deflection in units of 140 um

	Alpha  int32
	YProj  int32
	YPrime int32

	// SubChannel holds the z-subchannel per z-channel. Only meaningful for
	// channels the tracklet was routed into.
	SubChannel [gtu.NZChannels]int32

	// Index is the rank of the tracklet within its layer after sorting.
	Index int
}

// String renders the normalized record in the layout of the tracklet dump.
func (t *Tracklet) String() string {
	return fmt.Sprintf("idx=%3d layer=%d zbin=%2d ybin=%5d dy=%3d yprime=%5d yproj=%5d alpha=%3d zidx(2..0)=%d %d %d",
		t.Index, t.Layer, t.Zbin, t.Ybin, t.DY, t.YPrime, t.YProj, t.Alpha,
		t.SubChannel[2], t.SubChannel[1], t.SubChannel[0])
}

// inputLess orders tracklets for the input unit: z-bin, then y-bin.
func inputLess(a, b *Tracklet) bool {
	if a.Zbin != b.Zbin {
		return a.Zbin < b.Zbin
	}
	return a.Ybin < b.Ybin
}
