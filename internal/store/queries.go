package store

import (
	"database/sql"
	"fmt"
	"time"
)

// Run operations

// InsertRun creates a new run record and returns its ID.
func (s *Store) InsertRun(run *Run) (int64, error) {
	query := `
		INSERT INTO runs (stamp, started_at, log_path, snapshot_path, tools_checked, commands_run)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	result, err := s.db.Exec(query,
		run.Stamp,
		run.StartedAt.Format(time.RFC3339),
		run.LogPath,
		run.SnapshotPath,
		run.ToolsChecked,
		run.CommandsRun,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert run %s: %w", run.Stamp, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get run ID: %w", err)
	}

	return id, nil
}

// FinishRun marks a run as finished and records its final counters.
func (s *Store) FinishRun(id int64, finishedAt time.Time, toolsChecked, commandsRun int) error {
	query := `
		UPDATE runs
		SET finished_at = ?, tools_checked = ?, commands_run = ?
		WHERE id = ?
	`

	result, err := s.db.Exec(query,
		finishedAt.Format(time.RFC3339),
		toolsChecked,
		commandsRun,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to finish run %d: %w", id, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("run %d not found", id)
	}

	return nil
}

// GetRun retrieves a run by ID.
func (s *Store) GetRun(id int64) (*Run, error) {
	query := `
		SELECT id, stamp, started_at, finished_at, log_path, snapshot_path, tools_checked, commands_run
		FROM runs
		WHERE id = ?
	`

	run, err := scanRun(s.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run %d not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run %d: %w", id, err)
	}

	return run, nil
}

// GetRunByStamp retrieves a run by its timestamp stamp.
func (s *Store) GetRunByStamp(stamp string) (*Run, error) {
	query := `
		SELECT id, stamp, started_at, finished_at, log_path, snapshot_path, tools_checked, commands_run
		FROM runs
		WHERE stamp = ?
	`

	run, err := scanRun(s.db.QueryRow(query, stamp))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run %s not found", stamp)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run %s: %w", stamp, err)
	}

	return run, nil
}

// LatestRun returns the most recent run, or nil if none are recorded.
func (s *Store) LatestRun() (*Run, error) {
	query := `
		SELECT id, stamp, started_at, finished_at, log_path, snapshot_path, tools_checked, commands_run
		FROM runs
		ORDER BY id DESC
		LIMIT 1
	`

	run, err := scanRun(s.db.QueryRow(query))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest run: %w", err)
	}

	return run, nil
}

// ListRuns returns runs ordered by start time (newest first).
// A limit of 0 or less returns all runs.
func (s *Store) ListRuns(limit int) ([]*Run, error) {
	query := `
		SELECT id, stamp, started_at, finished_at, log_path, snapshot_path, tools_checked, commands_run
		FROM runs
		ORDER BY id DESC
	`

	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run row: %w", err)
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}

	return runs, nil
}

// scanRun scans a single run row. It works with both sql.Row and sql.Rows.
func scanRun(row interface{ Scan(dest ...any) error }) (*Run, error) {
	var run Run
	var startedAt string
	var finishedAt sql.NullString

	err := row.Scan(
		&run.ID,
		&run.Stamp,
		&startedAt,
		&finishedAt,
		&run.LogPath,
		&run.SnapshotPath,
		&run.ToolsChecked,
		&run.CommandsRun,
	)
	if err != nil {
		return nil, err
	}

	run.StartedAt, err = time.Parse(time.RFC3339, startedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse started_at for run %d: %w", run.ID, err)
	}

	if finishedAt.Valid {
		t, err := time.Parse(time.RFC3339, finishedAt.String)
		if err != nil {
			return nil, fmt.Errorf("failed to parse finished_at for run %d: %w", run.ID, err)
		}
		run.FinishedAt = &t
	}

	return &run, nil
}

// Event operations

// InsertEvent records a policy outcome for a run and returns its ID.
func (s *Store) InsertEvent(event *Event) (int64, error) {
	query := `
		INSERT INTO run_events
		(run_id, tool, subject, current_version, latest_version, classification, action, outcome, command, exit_code, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	var exitCode sql.NullInt64
	if event.ExitCode != nil {
		exitCode = sql.NullInt64{Int64: int64(*event.ExitCode), Valid: true}
	}

	result, err := s.db.Exec(query,
		event.RunID,
		event.Tool,
		event.Subject,
		event.CurrentVersion,
		event.LatestVersion,
		event.Classification,
		event.Action,
		event.Outcome,
		event.Command,
		exitCode,
		event.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert event for %s: %w", event.Subject, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get event ID: %w", err)
	}

	return id, nil
}

// ListEvents returns all events for a run in insertion order.
func (s *Store) ListEvents(runID int64) ([]*Event, error) {
	query := `
		SELECT id, run_id, tool, subject, current_version, latest_version, classification, action, outcome, command, exit_code, created_at
		FROM run_events
		WHERE run_id = ?
		ORDER BY id
	`

	rows, err := s.db.Query(query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to list events for run %d: %w", runID, err)
	}
	defer rows.Close()

	var events []*Event
	for rows.Next() {
		var event Event
		var exitCode sql.NullInt64
		var createdAt string

		err := rows.Scan(
			&event.ID,
			&event.RunID,
			&event.Tool,
			&event.Subject,
			&event.CurrentVersion,
			&event.LatestVersion,
			&event.Classification,
			&event.Action,
			&event.Outcome,
			&event.Command,
			&exitCode,
			&createdAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event row: %w", err)
		}

		if exitCode.Valid {
			code := int(exitCode.Int64)
			event.ExitCode = &code
		}

		event.CreatedAt, err = time.Parse(time.RFC3339, createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse created_at for event %d: %w", event.ID, err)
		}

		events = append(events, &event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating events: %w", err)
	}

	return events, nil
}

// CountEvents returns the total number of events recorded across all runs.
func (s *Store) CountEvents() (int, error) {
	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM run_events").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count events: %w", err)
	}
	return count, nil
}
