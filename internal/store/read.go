package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/surveykn/internal/engine"
	"github.com/roach88/surveykn/internal/ir"
)

// ErrRunNotFound is returned by Run for an unknown run id.
var ErrRunNotFound = errors.New("run not found")

// SnapshotInfo summarizes an archived snapshot.
type SnapshotInfo struct {
	ID        string    `json:"id"`
	Columns   int       `json:"columns"`
	Rows      int       `json:"rows"`
	Hash      string    `json:"content_hash"`
	CreatedAt time.Time `json:"created_at"`
}

// Snapshot returns the archived dataset with the given id. Implements
// engine.SnapshotSource; unknown ids wrap engine.ErrUnknownSnapshot.
func (s *Store) Snapshot(ctx context.Context, id string) (*ir.Dataset, error) {
	var columnsJSON string
	var rowCount int
	err := s.db.QueryRowContext(ctx,
		`SELECT columns, row_count FROM snapshots WHERE id = ?`, id,
	).Scan(&columnsJSON, &rowCount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("archive: %w: %s", engine.ErrUnknownSnapshot, id)
	}
	if err != nil {
		return nil, fmt.Errorf("query snapshot %s: %w", id, err)
	}
	columns, err := unmarshalStrings(columnsJSON)
	if err != nil {
		return nil, fmt.Errorf("snapshot %s: %w", id, err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT cells FROM snapshot_rows
		WHERE snapshot_id = ?
		ORDER BY idx ASC
	`, id)
	if err != nil {
		return nil, fmt.Errorf("query snapshot rows %s: %w", id, err)
	}
	defer rows.Close()

	data := make([][]string, 0, rowCount)
	for rows.Next() {
		var cellsJSON string
		if err := rows.Scan(&cellsJSON); err != nil {
			return nil, fmt.Errorf("scan snapshot row: %w", err)
		}
		cells, err := unmarshalStrings(cellsJSON)
		if err != nil {
			return nil, fmt.Errorf("snapshot %s: %w", id, err)
		}
		data = append(data, cells)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshot rows: %w", err)
	}
	return ir.NewDataset(columns, data)
}

// ListSnapshots returns every archived snapshot ordered by id.
//
// Returns an empty slice (not nil) if the archive is empty.
func (s *Store) ListSnapshots(ctx context.Context) ([]SnapshotInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, columns, row_count, content_hash, created_at
		FROM snapshots
		ORDER BY id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query snapshots: %w", err)
	}
	defer rows.Close()

	out := []SnapshotInfo{}
	for rows.Next() {
		var info SnapshotInfo
		var columnsJSON, created string
		if err := rows.Scan(&info.ID, &columnsJSON, &info.Rows, &info.Hash, &created); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		columns, err := unmarshalStrings(columnsJSON)
		if err != nil {
			return nil, err
		}
		info.Columns = len(columns)
		if info.CreatedAt, err = parseTime(created); err != nil {
			return nil, err
		}
		out = append(out, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshots: %w", err)
	}
	return out, nil
}

const runColumns = `id, label, started_at, finished_at, outline_hash, dataset_hash, registered, declined, areas, responses`

// ListRuns returns run records in the order they were archived. A non-empty
// label restricts the listing to runs with that label.
//
// Returns an empty slice (not nil) if no records match.
func (s *Store) ListRuns(ctx context.Context, label string) ([]ir.RunRecord, error) {
	query := `SELECT ` + runColumns + ` FROM runs`
	var args []any
	if label != "" {
		query += ` WHERE label = ?`
		args = append(args, label)
	}
	query += ` ORDER BY seq ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	out := []ir.RunRecord{}
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return out, nil
}

// Run returns the run record with the given id.
func (s *Store) Run(ctx context.Context, id string) (ir.RunRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	rec, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return ir.RunRecord{}, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return rec, err
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (ir.RunRecord, error) {
	var rec ir.RunRecord
	var started, finished, registered, declined, areas string
	err := row.Scan(&rec.ID, &rec.Label, &started, &finished, &rec.OutlineHash, &rec.DatasetHash,
		&registered, &declined, &areas, &rec.Responses)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return rec, err
		}
		return rec, fmt.Errorf("scan run: %w", err)
	}

	if rec.StartedAt, err = parseTime(started); err != nil {
		return rec, err
	}
	if rec.FinishedAt, err = parseTime(finished); err != nil {
		return rec, err
	}
	ids, err := unmarshalStrings(registered)
	if err != nil {
		return rec, err
	}
	rec.Registered = make([]ir.QuestionID, len(ids))
	for i, id := range ids {
		rec.Registered[i] = ir.QuestionID(id)
	}
	if rec.Declined, err = unmarshalStrings(declined); err != nil {
		return rec, err
	}
	if rec.Areas, err = unmarshalStrings(areas); err != nil {
		return rec, err
	}
	return rec, nil
}
