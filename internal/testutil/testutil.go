// Package testutil provides shared test helpers and event fixtures for the
// GTU packages and commands.
package testutil

import (
	"path/filepath"
	"testing"

	"github.com/banshee-data/trd-gtu/internal/fsutil"
	"github.com/banshee-data/trd-gtu/internal/gtu/eventio"
)

// AssertNoError fails the test if err is not nil.
func AssertNoError(t testing.TB, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t testing.TB, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// StraightTrack returns one tracklet record per listed layer of
// sector/stack, all at the same pad row and y-bin. Each tracklet arrives
// on the odd link of its layer.
func StraightTrack(sector, stack int, zbin, ybin int32, layers ...int) []eventio.TrackletRecord {
	out := make([]eventio.TrackletRecord, 0, len(layers))
	for _, layer := range layers {
		out = append(out, eventio.TrackletRecord{
			Sector: sector,
			Stack:  stack,
			Link:   2*layer + 1,
			Zbin:   zbin,
			Ybin:   ybin,
		})
	}
	return out
}

// AllLayers lists the six detector layers.
var AllLayers = []int{0, 1, 2, 3, 4, 5}

// SampleEvent returns an event with a six-layer track in sector 9 stack 3,
// a five-layer track in sector 2 stack 0 and three stray tracklets in
// sector 9 stack 1.
func SampleEvent(id string) eventio.Event {
	var recs []eventio.TrackletRecord
	recs = append(recs, StraightTrack(9, 3, 5, 0, AllLayers...)...)
	recs = append(recs, StraightTrack(2, 0, 8, 400, 0, 1, 2, 3, 4)...)
	recs = append(recs, StraightTrack(9, 1, 1, 0, 0, 1, 2)...)
	return eventio.Event{ID: id, Tracklets: recs}
}

// WriteEventFile saves events as YAML in a fresh temporary directory and
// returns the file path.
func WriteEventFile(t testing.TB, events ...eventio.Event) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "events.yaml")
	if err := eventio.Save(fsutil.OSFileSystem{}, path, events); err != nil {
		t.Fatalf("failed to write event file: %v", err)
	}
	return path
}
