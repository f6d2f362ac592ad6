package sqlite

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/banshee-data/trd-gtu/internal/timeutil"
	"github.com/google/uuid"
)

// ErrRunNotFound is returned when a run ID is unknown.
var ErrRunNotFound = errors.New("gtu run not found")

// Run is one invocation of the GTU over a set of events.
type Run struct {
	RunID            string `json:"run_id"`
	StartedUnixNanos int64  `json:"started_unix_nanos"`
	EndedUnixNanos   int64  `json:"ended_unix_nanos,omitempty"`
	ConfigJSON       string `json:"config_json"`
	EventCount       int    `json:"event_count"`
	TrackCount       int    `json:"track_count"`
	Error            string `json:"error,omitempty"`
}

// Finished reports whether FinishRun was called for the run.
func (r *Run) Finished() bool { return r.EndedUnixNanos != 0 }

// RunStore manages persistence for GTU runs.
type RunStore struct {
	db    *sql.DB
	clock timeutil.Clock
}

// NewRunStore returns a run store on db. A nil clock selects the wall
// clock.
func NewRunStore(db *sql.DB, clock timeutil.Clock) *RunStore {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	return &RunStore{db: db, clock: clock}
}

// StartRun records a new run with its configuration and returns its ID.
func (s *RunStore) StartRun(configJSON string) (string, error) {
	if configJSON == "" {
		configJSON = "{}"
	}
	runID := uuid.NewString()
	_, err := s.db.Exec(`
		INSERT INTO gtu_runs (run_id, started_unix_nanos, config_json)
		VALUES (?, ?, ?)`,
		runID, s.clock.Now().UnixNano(), configJSON)
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}
	return runID, nil
}

// FinishRun stores the end time and totals of a run. runErr may be nil.
func (s *RunStore) FinishRun(runID string, events, tracks int, runErr error) error {
	var errText interface{}
	if runErr != nil {
		errText = runErr.Error()
	}
	res, err := s.db.Exec(`
		UPDATE gtu_runs
		SET ended_unix_nanos = ?, event_count = ?, track_count = ?, error = ?
		WHERE run_id = ?`,
		s.clock.Now().UnixNano(), events, tracks, errText, runID)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return nil
}

// GetRun returns the run with the given ID.
func (s *RunStore) GetRun(runID string) (*Run, error) {
	r := &Run{}
	var ended sql.NullInt64
	var errText sql.NullString
	err := s.db.QueryRow(`
		SELECT run_id, started_unix_nanos, ended_unix_nanos, config_json,
			event_count, track_count, error
		FROM gtu_runs WHERE run_id = ?`, runID).Scan(
		&r.RunID, &r.StartedUnixNanos, &ended, &r.ConfigJSON,
		&r.EventCount, &r.TrackCount, &errText,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	r.EndedUnixNanos = ended.Int64
	r.Error = errText.String
	return r, nil
}

// ListRuns returns the most recent runs, newest first.
func (s *RunStore) ListRuns(limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(`
		SELECT run_id, started_unix_nanos, ended_unix_nanos, config_json,
			event_count, track_count, error
		FROM gtu_runs ORDER BY started_unix_nanos DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		r := &Run{}
		var ended sql.NullInt64
		var errText sql.NullString
		if err := rows.Scan(&r.RunID, &r.StartedUnixNanos, &ended, &r.ConfigJSON,
			&r.EventCount, &r.TrackCount, &errText); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.EndedUnixNanos = ended.Int64
		r.Error = errText.String
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}
