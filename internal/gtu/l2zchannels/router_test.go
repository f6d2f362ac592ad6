package l2zchannels

import (
	"math/rand"
	"testing"

	"github.com/banshee-data/trd-gtu/internal/gtu"
	"github.com/banshee-data/trd-gtu/internal/gtu/l1tracklets"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// rowChannels puts every pad row into all channels except that channel 2
// rejects rows above 10. The subchannel is (row+zch)/3 + 1.
type rowChannels struct{}

func (rowChannels) InZChannel(_, _, zch int, zbin int32) bool {
	return zch != 2 || zbin <= 10
}

func (rowChannels) ZSubchannel(_, _, zch int, zbin int32) int32 {
	return (zbin+int32(zch))/3 + 1
}

func TestRouteKeepsChannelOrder(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(7))
	var trkls []*l1tracklets.Tracklet
	for i := 0; i < 200; i++ {
		trkls = append(trkls, &l1tracklets.Tracklet{
			Layer: 1,
			Zbin:  int32(rng.Intn(16)),
			YProj: int32(rng.Intn(400) - 200),
		})
	}

	r := NewRouter()
	r.Route(1, trkls, 2, rowChannels{})

	for zch := 0; zch < gtu.NZChannels; zch++ {
		assert.True(t, r.Ordered(1, zch), "channel %d not ordered", zch)
	}
	assert.Equal(t, len(trkls), r.Len(1, 0))
	assert.Equal(t, len(trkls), r.Len(1, 1))
	assert.Less(t, r.Len(1, 2), len(trkls))
	for _, trk := range r.Channel(1, 2) {
		assert.LessOrEqual(t, trk.Zbin, int32(10))
	}
}

func TestInsertPlacesAfterEqualKeys(t *testing.T) {
	t.Parallel()

	first := &l1tracklets.Tracklet{Zbin: 0, YProj: 5}
	second := &l1tracklets.Tracklet{Zbin: 0, YProj: 5}
	smaller := &l1tracklets.Tracklet{Zbin: 0, YProj: -3}

	r := NewRouter()
	r.Route(0, []*l1tracklets.Tracklet{first, second, smaller}, 0, rowChannels{})

	got := r.Channel(0, 0)
	require.Len(t, got, 3)
	assert.Same(t, smaller, got[0])
	assert.Same(t, first, got[1])
	assert.Same(t, second, got[2])
}

func TestLists(t *testing.T) {
	t.Parallel()

	r := NewRouter()
	r.Route(0, []*l1tracklets.Tracklet{{Zbin: 1}}, 0, rowChannels{})
	r.Route(4, []*l1tracklets.Tracklet{{Zbin: 2}, {Zbin: 3}}, 0, rowChannels{})

	lists := r.Lists(1)
	assert.Len(t, lists[0], 1)
	assert.Len(t, lists[4], 2)
	assert.Empty(t, lists[2])
	assert.Nil(t, r.Channel(gtu.NLayers, 0))
	assert.Nil(t, r.Channel(0, gtu.NZChannels))
}

func TestRouterResetIsIdempotent(t *testing.T) {
	t.Parallel()

	r := NewRouter()
	r.Route(3, []*l1tracklets.Tracklet{{Zbin: 4}, {Zbin: 5}}, 0, rowChannels{})
	r.Reset()
	r.Reset()
	for layer := 0; layer < gtu.NLayers; layer++ {
		for zch := 0; zch < gtu.NZChannels; zch++ {
			assert.Equal(t, 0, r.Len(layer, zch))
			assert.True(t, r.Ordered(layer, zch))
		}
	}
}
