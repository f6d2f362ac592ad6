package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/banshee-data/trd-gtu/internal/gtu/l1tracklets"
)

// TrackletDumpStore persists the normalized tracklets of each sector/stack
// of a run.
type TrackletDumpStore struct {
	db *sql.DB
}

// NewTrackletDumpStore returns a tracklet dump store on db.
func NewTrackletDumpStore(db *sql.DB) *TrackletDumpStore {
	return &TrackletDumpStore{db: db}
}

// InsertTracklets stores the tracklets of one sector/stack of an event,
// replacing any earlier dump of the same unit.
func (s *TrackletDumpStore) InsertTracklets(ctx context.Context, runID, eventID string, sector, stack int, tracklets []*l1tracklets.Tracklet) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin insert tracklets tx: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM gtu_tracklets
		WHERE run_id = ? AND event_id = ? AND sector = ? AND stack = ?`,
		runID, eventID, sector, stack); err != nil {
		tx.Rollback()
		return fmt.Errorf("clear unit tracklets: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO gtu_tracklets (
			run_id, event_id, sector, stack, layer, idx, word, zbin, ybin, dy,
			alpha, yproj, yprime, sub_z0, sub_z1, sub_z2
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("prepare insert tracklet: %w", err)
	}
	defer stmt.Close()

	for _, t := range tracklets {
		if t == nil {
			continue
		}
		if _, err := stmt.ExecContext(ctx,
			runID, eventID, sector, stack, t.Layer, t.Index, int64(t.Word),
			t.Zbin, t.Ybin, t.DY, t.Alpha, t.YProj, t.YPrime,
			t.SubChannel[0], t.SubChannel[1], t.SubChannel[2],
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("insert tracklet layer %d idx %d: %w", t.Layer, t.Index, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit insert tracklets tx: %w", err)
	}
	return nil
}

// GetTracklets returns the dumped tracklets of one sector/stack, ordered by
// layer and rank.
func (s *TrackletDumpStore) GetTracklets(ctx context.Context, runID, eventID string, sector, stack int) ([]*l1tracklets.Tracklet, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT layer, idx, word, zbin, ybin, dy, alpha, yproj, yprime,
			sub_z0, sub_z1, sub_z2
		FROM gtu_tracklets
		WHERE run_id = ? AND event_id = ? AND sector = ? AND stack = ?
		ORDER BY layer ASC, idx ASC`, runID, eventID, sector, stack)
	if err != nil {
		return nil, fmt.Errorf("query tracklets: %w", err)
	}
	defer rows.Close()

	var out []*l1tracklets.Tracklet
	for rows.Next() {
		t := &l1tracklets.Tracklet{}
		var word int64
		if err := rows.Scan(&t.Layer, &t.Index, &word, &t.Zbin, &t.Ybin, &t.DY,
			&t.Alpha, &t.YProj, &t.YPrime,
			&t.SubChannel[0], &t.SubChannel[1], &t.SubChannel[2]); err != nil {
			return nil, fmt.Errorf("scan tracklet: %w", err)
		}
		t.Word = uint32(word)
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tracklets: %w", err)
	}
	return out, nil
}
