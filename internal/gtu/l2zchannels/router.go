package l2zchannels

import (
	"github.com/banshee-data/trd-gtu/internal/gtu"
	"github.com/banshee-data/trd-gtu/internal/gtu/l1tracklets"
)

// ChannelParams are the z-channel lookups of the parameter table.
type ChannelParams interface {
	InZChannel(stack, layer, zch int, zbin int32) bool
	ZSubchannel(stack, layer, zch int, zbin int32) int32
}

// Router holds the per-(layer, channel) tracklet lists. The lists
// reference tracklets owned by an l1tracklets.Store.
type Router struct {
	lists [gtu.NLayers][gtu.NZChannels][]*l1tracklets.Tracklet
}

// NewRouter returns a router with empty channel lists.
func NewRouter() *Router {
	return &Router{}
}

// Less reports whether a sorts strictly before b in channel zch.
func Less(a, b *l1tracklets.Tracklet, zch int) bool {
	if a.SubChannel[zch] != b.SubChannel[zch] {
		return a.SubChannel[zch] < b.SubChannel[zch]
	}
	return a.YProj < b.YProj
}

// Route assigns the tracklets of one layer to the z-channels they fall
// into and inserts each into the channel's ordered list.
func (r *Router) Route(layer int, tracklets []*l1tracklets.Tracklet, stack int, p ChannelParams) {
	for _, trk := range tracklets {
		for zch := 0; zch < gtu.NZChannels; zch++ {
			if !p.InZChannel(stack, layer, zch, trk.Zbin) {
				continue
			}
			trk.SubChannel[zch] = p.ZSubchannel(stack, layer, zch, trk.Zbin)
			r.insert(layer, zch, trk)
		}
		tracef("stack %d layer %d: routed %s", stack, layer, trk)
	}
}

// insert places trk right after the last element that does not sort after
// it, scanning from the back.
func (r *Router) insert(layer, zch int, trk *l1tracklets.Tracklet) {
	list := r.lists[layer][zch]
	pos := len(list)
	for pos > 0 && Less(trk, list[pos-1], zch) {
		pos--
	}
	list = append(list, nil)
	copy(list[pos+1:], list[pos:])
	list[pos] = trk
	r.lists[layer][zch] = list
}

// Channel returns the ordered list of a (layer, channel). The slice must
// not be modified.
func (r *Router) Channel(layer, zch int) []*l1tracklets.Tracklet {
	if layer < 0 || layer >= gtu.NLayers || zch < 0 || zch >= gtu.NZChannels {
		return nil
	}
	return r.lists[layer][zch]
}

// Lists returns the per-layer lists of one channel, the input of the track
// finder.
func (r *Router) Lists(zch int) [gtu.NLayers][]*l1tracklets.Tracklet {
	var out [gtu.NLayers][]*l1tracklets.Tracklet
	for layer := 0; layer < gtu.NLayers; layer++ {
		out[layer] = r.Channel(layer, zch)
	}
	return out
}

// Ordered reports whether the list of (layer, channel) is non-decreasing
// in (subchannel, yproj).
func (r *Router) Ordered(layer, zch int) bool {
	list := r.Channel(layer, zch)
	for i := 1; i < len(list); i++ {
		if Less(list[i], list[i-1], zch) {
			return false
		}
	}
	return true
}

// Len returns the number of tracklets routed into (layer, channel).
func (r *Router) Len(layer, zch int) int {
	return len(r.Channel(layer, zch))
}

// Reset empties every channel list.
func (r *Router) Reset() {
	for layer := range r.lists {
		for zch := range r.lists[layer] {
			clear(r.lists[layer][zch])
			r.lists[layer][zch] = r.lists[layer][zch][:0]
		}
	}
}
