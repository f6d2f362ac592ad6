package sqlite

import (
	"context"
	"database/sql"

	"github.com/banshee-data/trd-gtu/internal/gtu/l1tracklets"
	"github.com/banshee-data/trd-gtu/internal/gtu/l3tracks"
	"github.com/banshee-data/trd-gtu/internal/gtu/pipeline"
)

// RunSink writes pipeline output into one run of the database.
type RunSink struct {
	RunID string

	tracks    *TrackStore
	tracklets *TrackletDumpStore
	nTracks   int
}

// NewRunSink returns a sink that stores everything under runID.
func NewRunSink(db *sql.DB, runID string) *RunSink {
	return &RunSink{
		RunID:     runID,
		tracks:    NewTrackStore(db),
		tracklets: NewTrackletDumpStore(db),
	}
}

// WriteTracks implements pipeline.TrackSink.
func (s *RunSink) WriteTracks(ctx context.Context, eventID string, tracks []*l3tracks.Track) error {
	if err := s.tracks.InsertTracks(ctx, s.RunID, eventID, tracks); err != nil {
		return err
	}
	s.nTracks += len(tracks)
	return nil
}

// WriteTracklets implements pipeline.TrackletSink.
func (s *RunSink) WriteTracklets(ctx context.Context, eventID string, sector, stack int, tracklets []*l1tracklets.Tracklet) error {
	return s.tracklets.InsertTracklets(ctx, s.RunID, eventID, sector, stack, tracklets)
}

// TracksWritten returns the number of tracks stored through the sink.
func (s *RunSink) TracksWritten() int { return s.nTracks }

var (
	_ pipeline.TrackSink    = (*RunSink)(nil)
	_ pipeline.TrackletSink = (*RunSink)(nil)
)
