package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/banshee-data/trd-gtu/internal/gtu/l1tracklets"
	"github.com/banshee-data/trd-gtu/internal/gtu/l3tracks"
	"github.com/banshee-data/trd-gtu/internal/timeutil"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestDB opens a migrated database in a temporary directory.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "gtu.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, MigrateUp(db))
	return db
}

func testTrack(sector, stack int, yproj int32) *l3tracks.Track {
	track := l3tracks.NewTrack(sector, stack)
	track.ZChannel = 1
	track.RefLayerIdx = 0
	for _, layer := range []int{0, 2, 3, 5} {
		trk := &l1tracklets.Tracklet{Layer: layer, Index: layer, Zbin: 4, YProj: yproj + int32(layer)}
		trk.SubChannel[1] = 2
		track.AddTracklet(trk, layer)
	}
	track.SetFitParams(-12, 0.25, 1.5)
	track.PtInt = 66
	return track
}

func TestMigrations(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "gtu.db"))
	require.NoError(t, err)
	defer db.Close()

	version, dirty, err := MigrateVersion(db)
	require.NoError(t, err)
	assert.Equal(t, uint(0), version)
	assert.False(t, dirty)

	require.NoError(t, MigrateUp(db))
	version, dirty, err = MigrateVersion(db)
	require.NoError(t, err)
	assert.Equal(t, uint(2), version)
	assert.False(t, dirty)

	// Already at the latest version.
	require.NoError(t, MigrateUp(db))

	require.NoError(t, MigrateDown(db))
	version, _, err = MigrateVersion(db)
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)

	var n int
	err = db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'gtu_tracklets'`).Scan(&n)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestPragmas(t *testing.T) {
	db := setupTestDB(t)

	var fk int
	require.NoError(t, db.QueryRow("PRAGMA foreign_keys").Scan(&fk))
	assert.Equal(t, 1, fk)

	var mode string
	require.NoError(t, db.QueryRow("PRAGMA journal_mode").Scan(&mode))
	assert.Equal(t, "wal", mode)
}

func TestRunStore(t *testing.T) {
	db := setupTestDB(t)
	clock := timeutil.NewMockClock(time.Unix(1700000000, 0))
	runs := NewRunStore(db, clock)

	runID, err := runs.StartRun(`{"delta_y":19}`)
	require.NoError(t, err)
	require.NotEmpty(t, runID)

	r, err := runs.GetRun(runID)
	require.NoError(t, err)
	assert.False(t, r.Finished())
	assert.Equal(t, `{"delta_y":19}`, r.ConfigJSON)
	assert.Equal(t, clock.Now().UnixNano(), r.StartedUnixNanos)

	clock.Advance(3 * time.Second)
	require.NoError(t, runs.FinishRun(runID, 4, 9, errors.New("unit 3/1 failed")))

	r, err = runs.GetRun(runID)
	require.NoError(t, err)
	assert.True(t, r.Finished())
	assert.Equal(t, 3*time.Second, time.Duration(r.EndedUnixNanos-r.StartedUnixNanos))
	assert.Equal(t, 4, r.EventCount)
	assert.Equal(t, 9, r.TrackCount)
	assert.Equal(t, "unit 3/1 failed", r.Error)
}

func TestRunStoreUnknownRun(t *testing.T) {
	db := setupTestDB(t)
	runs := NewRunStore(db, nil)

	_, err := runs.GetRun("missing")
	assert.True(t, errors.Is(err, ErrRunNotFound))

	err = runs.FinishRun("missing", 0, 0, nil)
	assert.True(t, errors.Is(err, ErrRunNotFound))
}

func TestListRuns(t *testing.T) {
	db := setupTestDB(t)
	clock := timeutil.NewMockClock(time.Unix(1700000000, 0))
	runs := NewRunStore(db, clock)

	var ids []string
	for i := 0; i < 3; i++ {
		id, err := runs.StartRun("")
		require.NoError(t, err)
		ids = append(ids, id)
		clock.Advance(time.Minute)
	}

	list, err := runs.ListRuns(2)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, ids[2], list[0].RunID)
	assert.Equal(t, ids[1], list[1].RunID)
	assert.Equal(t, "{}", list[0].ConfigJSON)
}

func TestTrackStoreRoundTrip(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	runID, err := NewRunStore(db, nil).StartRun("")
	require.NoError(t, err)

	store := NewTrackStore(db)
	tracks := []*l3tracks.Track{testTrack(4, 2, 100), testTrack(4, 2, -40)}
	require.NoError(t, store.InsertTracks(ctx, runID, "ev-1", tracks))

	got, err := store.GetTracks(ctx, runID, "ev-1")
	require.NoError(t, err)
	want := []l3tracks.Summary{tracks[0].Summary(), tracks[1].Summary()}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("tracks mismatch (-want +got):\n%s", diff)
	}

	// Writing the event again replaces its tracks.
	require.NoError(t, store.InsertTracks(ctx, runID, "ev-1", tracks[:1]))
	n, err := store.CountTracks(ctx, runID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err = store.GetTracks(ctx, runID, "ev-2")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestTrackStoreRequiresRun(t *testing.T) {
	db := setupTestDB(t)
	err := NewTrackStore(db).InsertTracks(context.Background(), "no-such-run", "ev", []*l3tracks.Track{testTrack(0, 0, 0)})
	assert.Error(t, err)
}

func TestTrackletDumpStore(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	runID, err := NewRunStore(db, nil).StartRun("")
	require.NoError(t, err)

	in := []*l1tracklets.Tracklet{
		{Word: 0xfffff000, Layer: 1, Index: 0, Zbin: 3, Ybin: -20, DY: 5, Alpha: 7, YProj: -31, YPrime: -25, SubChannel: [3]int32{2, 2, 1}},
		{Layer: 0, Index: 1, Zbin: 9, Ybin: 400, DY: -3, Alpha: -2, YProj: 390, YPrime: 397, SubChannel: [3]int32{4, 4, 3}},
		nil,
	}
	store := NewTrackletDumpStore(db)
	require.NoError(t, store.InsertTracklets(ctx, runID, "ev", 17, 4, in))

	got, err := store.GetTracklets(ctx, runID, "ev", 17, 4)
	require.NoError(t, err)
	want := []*l1tracklets.Tracklet{in[1], in[0]}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("tracklets mismatch (-want +got):\n%s", diff)
	}

	other, err := store.GetTracklets(ctx, runID, "ev", 17, 3)
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestRunSink(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	runs := NewRunStore(db, nil)
	runID, err := runs.StartRun("")
	require.NoError(t, err)

	sink := NewRunSink(db, runID)
	require.NoError(t, sink.WriteTracks(ctx, "a", []*l3tracks.Track{testTrack(1, 1, 0)}))
	require.NoError(t, sink.WriteTracks(ctx, "b", []*l3tracks.Track{testTrack(1, 1, 0), testTrack(2, 1, 8)}))
	require.NoError(t, sink.WriteTracklets(ctx, "a", 1, 1, []*l1tracklets.Tracklet{{Layer: 2}}))
	assert.Equal(t, 3, sink.TracksWritten())

	n, err := NewTrackStore(db).CountTracks(ctx, runID)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	// Deleting the run cascades to its rows.
	_, err = db.Exec(`DELETE FROM gtu_runs WHERE run_id = ?`, runID)
	require.NoError(t, err)
	n, err = NewTrackStore(db).CountTracks(ctx, runID)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}
