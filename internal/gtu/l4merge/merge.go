package l4merge

import (
	"fmt"

	"github.com/banshee-data/trd-gtu/internal/gtu"
	"github.com/banshee-data/trd-gtu/internal/gtu/l3tracks"
)

// LessFunc orders two candidates by a stage key.
type LessFunc func(a, b *l3tracks.Track) bool

// DupFunc reports whether two adjacent candidates are duplicates.
type DupFunc func(a, b *l3tracks.Track) bool

// PreferFunc reports whether candidate replaces the kept representative of
// a duplicate run.
type PreferFunc func(candidate, kept *l3tracks.Track) bool

// Merge performs an ordered k-way merge of lists. Each step takes the head
// that is strictly smaller than all other heads; on ties the list with the
// lowest index wins. The input slices are not modified.
func Merge(lists [][]*l3tracks.Track, less LessFunc) []*l3tracks.Track {
	total := 0
	for _, l := range lists {
		total += len(l)
	}
	out := make([]*l3tracks.Track, 0, total)
	heads := make([]int, len(lists))

	for {
		minIdx := -1
		var minTrk *l3tracks.Track
		for i, l := range lists {
			if heads[i] >= len(l) {
				continue
			}
			trk := l[heads[i]]
			if minTrk == nil || less(trk, minTrk) {
				minIdx, minTrk = i, trk
			}
		}
		if minTrk == nil {
			return out
		}
		tracef("merge: pick list %d head %d", minIdx, heads[minIdx])
		out = append(out, minTrk)
		heads[minIdx]++
	}
}

// Uniquify collapses runs of adjacent duplicates. Each candidate is compared
// with the representative kept for the current run; it replaces that
// representative only when prefer says so. The survivors keep their merge
// order.
func Uniquify(in []*l3tracks.Track, dup DupFunc, prefer PreferFunc) []*l3tracks.Track {
	out := make([]*l3tracks.Track, 0, len(in))
	var kept *l3tracks.Track
	for _, trk := range in {
		if trk == nil {
			continue
		}
		if kept != nil && dup(trk, kept) {
			if prefer(trk, kept) {
				kept = trk
			}
			continue
		}
		if kept != nil {
			out = append(out, kept)
		}
		kept = trk
	}
	if kept != nil {
		out = append(out, kept)
	}
	return out
}

// MergeAndUniquify is Merge followed by Uniquify.
func MergeAndUniquify(lists [][]*l3tracks.Track, less LessFunc, dup DupFunc, prefer PreferFunc) []*l3tracks.Track {
	return Uniquify(Merge(lists, less), dup, prefer)
}

// SharesTracklet is the duplicate rule of every stage: the two candidates
// use the same tracklet in at least one layer.
func SharesTracklet(a, b *l3tracks.Track) bool {
	return a.SharesTracklet(b)
}

// MoreTracklets prefers a candidate with strictly more layer hits, so ties
// keep the first one encountered.
func MoreTracklets(candidate, kept *l3tracks.Track) bool {
	return candidate.NTracklets() > kept.NTracklets()
}

// byChannelPosition orders candidates of one z-channel by z-subchannel,
// then by approximate y.
func byChannelPosition(a, b *l3tracks.Track) bool {
	sa, sb := a.ZSubChannel(), b.ZSubChannel()
	return sa < sb || (sa == sb && a.YApprox() < b.YApprox())
}

// stage2Key is the z-position key of the first cross-channel merge.
func stage2Key(t *l3tracks.Track) int32 {
	return (int32(t.ZChannel)+3*t.ZSubChannel())/2 - 1
}

// stage3Pos is the z-position the final merge splits and sorts on.
func stage3Pos(t *l3tracks.Track) int32 {
	return int32(t.ZChannel) + 3*(t.ZSubChannel()-1)
}

// Stage1 merges the candidates of one z-channel, given per reference layer.
func Stage1(perRefLayer [][]*l3tracks.Track) []*l3tracks.Track {
	return MergeAndUniquify(perRefLayer, byChannelPosition, SharesTracklet, MoreTracklets)
}

// Stage2 merges the stage-1 output of all z-channels.
func Stage2(perChannel [][]*l3tracks.Track) []*l3tracks.Track {
	less := func(a, b *l3tracks.Track) bool { return stage2Key(a) < stage2Key(b) }
	return MergeAndUniquify(perChannel, less, SharesTracklet, MoreTracklets)
}

// Stage3 splits the stage-2 output into two buckets by z-position parity and
// merges them back into the final list.
func Stage3(in []*l3tracks.Track) ([]*l3tracks.Track, error) {
	buckets := make([][]*l3tracks.Track, 2)
	for _, trk := range in {
		b := stage3Pos(trk) % 2
		if b < 0 {
			opsf("stage 3: negative bucket %d for z-channel %d subchannel %d", b, trk.ZChannel, trk.ZSubChannel())
			return nil, fmt.Errorf("%w: stage-3 bucket %d for z-channel %d, subchannel %d",
				gtu.ErrInvariantViolation, b, trk.ZChannel, trk.ZSubChannel())
		}
		buckets[b] = append(buckets[b], trk)
	}
	less := func(a, b *l3tracks.Track) bool { return stage3Pos(a)/2 < stage3Pos(b)/2 }
	return MergeAndUniquify(buckets, less, SharesTracklet, MoreTracklets), nil
}

// Run chains the three stages over the finder output of one stack, indexed
// by z-channel then by reference layer.
func Run(found [gtu.NZChannels][][]*l3tracks.Track) ([]*l3tracks.Track, error) {
	perChannel := make([][]*l3tracks.Track, gtu.NZChannels)
	for zch := range found {
		perChannel[zch] = Stage1(found[zch])
		diagf("stage 1 zch %d: %d candidates", zch, len(perChannel[zch]))
	}
	merged := Stage2(perChannel)
	diagf("stage 2: %d candidates", len(merged))
	final, err := Stage3(merged)
	if err != nil {
		return nil, err
	}
	diagf("stage 3: %d candidates", len(final))
	return final, nil
}
