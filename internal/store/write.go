package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/roach88/surveykn/internal/ir"
)

// SaveSnapshot stores d under id, replacing any snapshot with that id.
// Re-running a label therefore refreshes its snapshot.
func (s *Store) SaveSnapshot(ctx context.Context, id string, d *ir.Dataset, createdAt time.Time) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		return writeSnapshot(ctx, tx, id, d, createdAt)
	})
}

// SaveRun inserts a run record. Uses ON CONFLICT(id) DO NOTHING for
// idempotency - a duplicate id is silently ignored.
func (s *Store) SaveRun(ctx context.Context, rec ir.RunRecord) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		return writeRun(ctx, tx, rec)
	})
}

// Archive stores the bound dataset of a run as snapshot rec.Label and the run
// record itself in one transaction.
func (s *Store) Archive(ctx context.Context, rec ir.RunRecord, bound *ir.Dataset) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if err := writeSnapshot(ctx, tx, rec.Label, bound, rec.FinishedAt); err != nil {
			return err
		}
		return writeRun(ctx, tx, rec)
	})
}

func (s *Store) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func writeSnapshot(ctx context.Context, tx *sql.Tx, id string, d *ir.Dataset, createdAt time.Time) error {
	columns, err := marshalStrings(d.Columns)
	if err != nil {
		return fmt.Errorf("write snapshot %s: %w", id, err)
	}
	hash, err := ir.DatasetHash(d)
	if err != nil {
		return fmt.Errorf("write snapshot %s: %w", id, err)
	}

	// Rows cascade.
	if _, err := tx.ExecContext(ctx, `DELETE FROM snapshots WHERE id = ?`, id); err != nil {
		return fmt.Errorf("write snapshot %s: %w", id, err)
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO snapshots (id, columns, row_count, content_hash, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, id, columns, len(d.Rows), hash, formatTime(createdAt))
	if err != nil {
		return fmt.Errorf("write snapshot %s: %w", id, err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO snapshot_rows (snapshot_id, idx, cells) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("write snapshot %s: %w", id, err)
	}
	defer stmt.Close()
	for i, row := range d.Rows {
		cells, err := marshalStrings(row)
		if err != nil {
			return fmt.Errorf("write snapshot %s row %d: %w", id, i, err)
		}
		if _, err := stmt.ExecContext(ctx, id, i, cells); err != nil {
			return fmt.Errorf("write snapshot %s row %d: %w", id, i, err)
		}
	}
	return nil
}

func writeRun(ctx context.Context, tx *sql.Tx, rec ir.RunRecord) error {
	registered, err := marshalStrings(questionIDStrings(rec.Registered))
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}
	declined, err := marshalStrings(rec.Declined)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}
	areas, err := marshalStrings(rec.Areas)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs
		(id, label, started_at, finished_at, outline_hash, dataset_hash, registered, declined, areas, responses)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		rec.ID,
		rec.Label,
		formatTime(rec.StartedAt),
		formatTime(rec.FinishedAt),
		rec.OutlineHash,
		rec.DatasetHash,
		registered,
		declined,
		areas,
		rec.Responses,
	)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}
	return nil
}
