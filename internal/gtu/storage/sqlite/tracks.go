package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/banshee-data/trd-gtu/internal/gtu/l3tracks"
)

// TrackStore persists the tracks of a run, one row per track in output
// order.
type TrackStore struct {
	db *sql.DB
}

// NewTrackStore returns a track store on db.
func NewTrackStore(db *sql.DB) *TrackStore {
	return &TrackStore{db: db}
}

// InsertTracks stores the tracks of one event. Calling it again for the
// same event replaces the stored tracks.
func (s *TrackStore) InsertTracks(ctx context.Context, runID, eventID string, tracks []*l3tracks.Track) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin insert tracks tx: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM gtu_tracks WHERE run_id = ? AND event_id = ?`, runID, eventID); err != nil {
		tx.Rollback()
		return fmt.Errorf("clear event tracks: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO gtu_tracks (
			run_id, event_id, seq, sector, stack, z_channel, ref_layer_idx,
			z_subchannel, tracklet_mask, n_tracklets,
			idx_layer0, idx_layer1, idx_layer2, idx_layer3, idx_layer4, idx_layer5,
			y_approx, fit_a, fit_b, fit_c, pt
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("prepare insert track: %w", err)
	}
	defer stmt.Close()

	for seq, track := range tracks {
		sum := track.Summary()
		idx := sum.TrackletIndex
		if _, err := stmt.ExecContext(ctx,
			runID, eventID, seq, sum.Sector, sum.Stack, sum.ZChannel, sum.RefLayerIdx,
			sum.ZSubChannel, sum.TrackletMask, sum.NTracklets,
			idx[0], idx[1], idx[2], idx[3], idx[4], idx[5],
			sum.YApprox, sum.A, sum.B, sum.C, sum.PtInt,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("insert track %d of event %s: %w", seq, eventID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit insert tracks tx: %w", err)
	}
	return nil
}

// GetTracks returns the stored tracks of an event in output order.
func (s *TrackStore) GetTracks(ctx context.Context, runID, eventID string) ([]l3tracks.Summary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT sector, stack, z_channel, ref_layer_idx, z_subchannel,
			tracklet_mask, n_tracklets,
			idx_layer0, idx_layer1, idx_layer2, idx_layer3, idx_layer4, idx_layer5,
			y_approx, fit_a, fit_b, fit_c, pt
		FROM gtu_tracks
		WHERE run_id = ? AND event_id = ?
		ORDER BY seq ASC`, runID, eventID)
	if err != nil {
		return nil, fmt.Errorf("query tracks: %w", err)
	}
	defer rows.Close()

	var out []l3tracks.Summary
	for rows.Next() {
		var sum l3tracks.Summary
		idx := &sum.TrackletIndex
		if err := rows.Scan(
			&sum.Sector, &sum.Stack, &sum.ZChannel, &sum.RefLayerIdx, &sum.ZSubChannel,
			&sum.TrackletMask, &sum.NTracklets,
			&idx[0], &idx[1], &idx[2], &idx[3], &idx[4], &idx[5],
			&sum.YApprox, &sum.A, &sum.B, &sum.C, &sum.PtInt,
		); err != nil {
			return nil, fmt.Errorf("scan track: %w", err)
		}
		out = append(out, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tracks: %w", err)
	}
	return out, nil
}

// CountTracks returns the number of tracks stored for a run.
func (s *TrackStore) CountTracks(ctx context.Context, runID string) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM gtu_tracks WHERE run_id = ?`, runID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count tracks: %w", err)
	}
	return n, nil
}
