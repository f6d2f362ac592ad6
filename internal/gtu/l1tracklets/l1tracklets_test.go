package l1tracklets

import (
	"errors"
	"testing"

	"github.com/banshee-data/trd-gtu/internal/gtu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeInputParams struct {
	ciAlpha int32
	ciYProj int32
	yt      int32
}

func (fakeInputParams) BitExcessY() uint                { return 4 }
func (fakeInputParams) BitExcessAlpha() uint            { return 10 }
func (fakeInputParams) BitExcessYProj() uint            { return 2 }
func (p fakeInputParams) CiAlpha(int) int32             { return p.ciAlpha }
func (p fakeInputParams) CiYProj(int) int32             { return p.ciYProj }
func (p fakeInputParams) Yt(_, _ int, zbin int32) int32 { return p.yt * zbin }

func TestAlpha(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		ybin    int32
		dy      int32
		ciAlpha int32
		want    int32
	}{
		{name: "positive deflection", ybin: 0, dy: 3, ciAlpha: 0, want: 3},
		{name: "negative deflection", ybin: 0, dy: -3, ciAlpha: 0, want: -3},
		// (2*-1 + 1) >> 1 = -1 >> 1 = -1: the arithmetic shift rounds the
		// half towards minus infinity, not towards zero.
		{name: "negative half rounds down", ybin: 0, dy: -1, ciAlpha: 0, want: -1},
		{name: "position correction", ybin: 1600, dy: 20, ciAlpha: 374, want: 2},
		{name: "negative position correction", ybin: -1600, dy: -20, ciAlpha: 374, want: -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Alpha(tt.ybin, tt.dy, tt.ciAlpha, 4, 10)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestYProj(t *testing.T) {
	t.Parallel()

	assert.Equal(t, int32(24), YProj(100, 10, 37, 2))
	assert.Equal(t, int32(-24), YProj(-100, -10, 37, 2))
	assert.Equal(t, int32(0), YProj(0, 0, 37, 2))
	// -1: ((-1 >> 2) + 1) >> 1 = (-1 + 1) >> 1 = 0
	assert.Equal(t, int32(0), YProj(-1, 0, 37, 2))
	// -5: ((-5 >> 2) + 1) >> 1 = (-2 + 1) >> 1 = -1
	assert.Equal(t, int32(-1), YProj(-5, 0, 37, 2))
}

func TestStoreAddAndReset(t *testing.T) {
	t.Parallel()

	s := NewStore()
	_, err := s.Add(gtu.NLayers, Tracklet{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, gtu.ErrInvalidTracklet))

	rec, err := s.Add(2, Tracklet{Zbin: 5, Ybin: 10})
	require.NoError(t, err)
	assert.Equal(t, 2, rec.Layer)
	assert.Equal(t, 1, s.Len(2))
	assert.Equal(t, 1, s.Total())
	assert.Nil(t, s.Layer(-1))

	s.Reset()
	s.Reset()
	for layer := 0; layer < gtu.NLayers; layer++ {
		assert.Equal(t, 0, s.Len(layer), "layer %d", layer)
	}
	assert.Equal(t, 0, s.Total())

	empty := NewStore()
	empty.Reset()
	assert.Equal(t, 0, empty.Total())
}

func TestRunInputUnit(t *testing.T) {
	t.Parallel()

	s := NewStore()
	p := fakeInputParams{ciAlpha: 0, ciYProj: 0, yt: 2}
	for _, trk := range []Tracklet{
		{Zbin: 3, Ybin: 80, DY: 1},
		{Zbin: 1, Ybin: 400, DY: 2},
		{Zbin: 1, Ybin: 16, DY: -1},
	} {
		_, err := s.Add(0, trk)
		require.NoError(t, err)
	}

	s.RunInputUnit(0, p)

	got := s.Layer(0)
	require.Len(t, got, 3)
	wantZY := [][2]int32{{1, 16}, {1, 400}, {3, 80}}
	for i, trk := range got {
		assert.Equal(t, i, trk.Index)
		assert.Equal(t, wantZY[i][0], trk.Zbin)
		assert.Equal(t, wantZY[i][1], trk.Ybin)
		assert.Equal(t, trk.Ybin+2*trk.Zbin, trk.YPrime)
		assert.Equal(t, YProj(trk.Ybin, trk.DY, 0, 2), trk.YProj)
		assert.Equal(t, Alpha(trk.Ybin, trk.DY, 0, 4, 10), trk.Alpha)
	}

	// Running the input unit again must not change anything.
	before := make([]Tracklet, len(got))
	for i, trk := range got {
		before[i] = *trk
	}
	s.RunInputUnit(0, p)
	for i, trk := range s.Layer(0) {
		assert.Equal(t, before[i], *trk)
	}
}

func TestTrackletString(t *testing.T) {
	t.Parallel()

	trk := &Tracklet{Index: 1, Layer: 2, Zbin: 5, Ybin: -12, DY: 3, SubChannel: [gtu.NZChannels]int32{1, 2, 3}}
	assert.Contains(t, trk.String(), "zbin= 5")
	assert.Contains(t, trk.String(), "zidx(2..0)=3 2 1")
}
