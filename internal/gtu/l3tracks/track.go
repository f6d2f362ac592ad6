package l3tracks

import (
	"fmt"

	"github.com/banshee-data/trd-gtu/internal/gtu"
	"github.com/banshee-data/trd-gtu/internal/gtu/l1tracklets"
)

// Track is a track candidate of one sector/stack. It references at most
// one tracklet per layer; a nil entry means no hit in that layer.
type Track struct {
	Sector      int
	Stack       int
	ZChannel    int
	RefLayerIdx int

	Tracklets [gtu.NLayers]*l1tracklets.Tracklet

	// Fit results, set by the parameter reconstruction.
	A     int32
	B     float32
	C     float32
	PtInt int32
}

// NewTrack returns an empty candidate for the given sector and stack.
func NewTrack(sector, stack int) *Track {
	return &Track{Sector: sector, Stack: stack, ZChannel: -1, RefLayerIdx: -1}
}

// AddTracklet assigns trk to layer, replacing any previous assignment.
func (t *Track) AddTracklet(trk *l1tracklets.Tracklet, layer int) {
	if layer < 0 || layer >= gtu.NLayers {
		return
	}
	t.Tracklets[layer] = trk
}

// IsTrackletInLayer reports whether the track has a hit in layer.
func (t *Track) IsTrackletInLayer(layer int) bool {
	return layer >= 0 && layer < gtu.NLayers && t.Tracklets[layer] != nil
}

// Tracklet returns the tracklet in layer or nil.
func (t *Track) Tracklet(layer int) *l1tracklets.Tracklet {
	if !t.IsTrackletInLayer(layer) {
		return nil
	}
	return t.Tracklets[layer]
}

// TrackletMask returns the bit mask of layers with a hit, bit i = layer i.
func (t *Track) TrackletMask() int {
	mask := 0
	for layer, trk := range t.Tracklets {
		if trk != nil {
			mask |= 1 << layer
		}
	}
	return mask
}

// NTracklets returns the number of layers with a hit.
func (t *Track) NTracklets() int {
	n := 0
	for _, trk := range t.Tracklets {
		if trk != nil {
			n++
		}
	}
	return n
}

// TrackletIndex returns the rank index of the tracklet in layer, or -1.
func (t *Track) TrackletIndex(layer int) int {
	if trk := t.Tracklet(layer); trk != nil {
		return trk.Index
	}
	return -1
}

// ZSubChannel returns the z-subchannel of the track in its z-channel, taken
// from its lowest tracklet. Validate checks that all tracklets agree.
func (t *Track) ZSubChannel() int32 {
	if t.ZChannel < 0 || t.ZChannel >= gtu.NZChannels {
		return -1
	}
	for _, trk := range t.Tracklets {
		if trk != nil {
			return trk.SubChannel[t.ZChannel]
		}
	}
	return -1
}

// YApprox returns the projected y position of the lowest tracklet.
func (t *Track) YApprox() int32 {
	for _, trk := range t.Tracklets {
		if trk != nil {
			return trk.YProj
		}
	}
	return 0
}

// SharesTracklet reports whether t and o have the same tracklet in at
// least one layer.
func (t *Track) SharesTracklet(o *Track) bool {
	for layer := 0; layer < gtu.NLayers; layer++ {
		idx := t.TrackletIndex(layer)
		if idx != -1 && idx == o.TrackletIndex(layer) {
			return true
		}
	}
	return false
}

// Validate checks that every tracklet of the track sits in the same
// z-subchannel of the track's z-channel.
func (t *Track) Validate() error {
	if t.ZChannel < 0 || t.ZChannel >= gtu.NZChannels {
		return fmt.Errorf("%w: track z-channel %d out of range", gtu.ErrInvariantViolation, t.ZChannel)
	}
	sub := t.ZSubChannel()
	for layer, trk := range t.Tracklets {
		if trk != nil && trk.SubChannel[t.ZChannel] != sub {
			return fmt.Errorf("%w: inconsistent z-subchannels: track = %d/%d, tracklet in layer %d = %d",
				gtu.ErrInvariantViolation, t.ZChannel, sub, layer, trk.SubChannel[t.ZChannel])
		}
	}
	return nil
}

// SetFitParams stores the fit coefficients.
func (t *Track) SetFitParams(a int32, b, c float32) {
	t.A, t.B, t.C = a, b, c
}

// Summary is the flattened form of a track handed to writers and
// printers.
type Summary struct {
	Sector        int              `json:"sector"`
	Stack         int              `json:"stack"`
	ZChannel      int              `json:"z_channel"`
	RefLayerIdx   int              `json:"ref_layer_idx"`
	ZSubChannel   int32            `json:"z_subchannel"`
	TrackletMask  int              `json:"tracklet_mask"`
	NTracklets    int              `json:"n_tracklets"`
	TrackletIndex [gtu.NLayers]int `json:"tracklet_index"`
	YApprox       int32            `json:"y_approx"`
	A             int32            `json:"a"`
	B             float32          `json:"b"`
	C             float32          `json:"c"`
	PtInt         int32            `json:"pt"`
}

// Summary returns the flattened record of the track.
func (t *Track) Summary() Summary {
	s := Summary{
		Sector:       t.Sector,
		Stack:        t.Stack,
		ZChannel:     t.ZChannel,
		RefLayerIdx:  t.RefLayerIdx,
		ZSubChannel:  t.ZSubChannel(),
		TrackletMask: t.TrackletMask(),
		NTracklets:   t.NTracklets(),
		YApprox:      t.YApprox(),
		A:            t.A,
		B:            t.B,
		C:            t.C,
		PtInt:        t.PtInt,
	}
	for layer := 0; layer < gtu.NLayers; layer++ {
		s.TrackletIndex[layer] = t.TrackletIndex(layer)
	}
	return s
}
