package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kasunwathsala/solar-dashboard-data-api/internal/models"
)

type RecordSQLite struct {
	db *sql.DB
}

func NewRecordSQLite(db *sql.DB) *RecordSQLite { return &RecordSQLite{db: db} }

var _ RecordRepo = (*RecordSQLite)(nil)

const (
	countRangeSQL = `
		SELECT COUNT(*) FROM energy_records
		WHERE unit_serial = ? AND timestamp >= ? AND timestamp < ?
	`

	insertRecordSQL = `
		INSERT INTO energy_records
			(id, unit_serial, unit_id, timestamp, energy_generated, peak_power, efficiency, temperature)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	selectRangeSQL = `
		SELECT id, unit_serial, unit_id, timestamp, energy_generated, peak_power, efficiency, temperature
		FROM energy_records
	`
)

// CountRange returns how many records exist for the unit within [from, to).
func (r *RecordSQLite) CountRange(ctx context.Context, unitSerial string, from, to time.Time) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, countRangeSQL, unitSerial, from.UTC(), to.UTC()).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count records for %q: %w", unitSerial, err)
	}
	return n, nil
}

// InsertBatch persists all records in a single transaction so a unit-day is
// written completely or not at all. A uniqueness violation on any row maps to
// ErrDuplicateRecord and rolls back the whole batch.
func (r *RecordSQLite) InsertBatch(ctx context.Context, records []models.EnergyRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin insert batch: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, insertRecordSQL)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, rec := range records {
		if rec.ID == "" {
			rec.ID = uuid.NewString()
		}
		_, err := stmt.ExecContext(ctx,
			rec.ID,
			rec.UnitSerial,
			rec.UnitID,
			rec.Timestamp.UTC(),
			rec.EnergyGenerated,
			rec.PeakPower,
			rec.Efficiency,
			rec.Temperature,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return ErrDuplicateRecord
			}
			return fmt.Errorf("insert record %s@%s: %w", rec.UnitSerial, rec.Timestamp.Format(time.RFC3339), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit insert batch: %w", err)
	}
	return nil
}

// List returns records for the unit within [from, to), ordered by timestamp.
// An empty unitSerial matches all units.
func (r *RecordSQLite) List(ctx context.Context, unitSerial string, from, to time.Time) ([]models.EnergyRecord, error) {
	var (
		conds []string
		args  []any
	)
	if unitSerial != "" {
		conds = append(conds, "unit_serial = ?")
		args = append(args, unitSerial)
	}
	if !from.IsZero() {
		conds = append(conds, "timestamp >= ?")
		args = append(args, from.UTC())
	}
	if !to.IsZero() {
		conds = append(conds, "timestamp < ?")
		args = append(args, to.UTC())
	}

	q := selectRangeSQL
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY timestamp ASC"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	out := make([]models.EnergyRecord, 0, models.SlotsPerDay)
	for rows.Next() {
		var rec models.EnergyRecord
		if err := rows.Scan(
			&rec.ID,
			&rec.UnitSerial,
			&rec.UnitID,
			&rec.Timestamp,
			&rec.EnergyGenerated,
			&rec.PeakPower,
			&rec.Efficiency,
			&rec.Temperature,
		); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		rec.Timestamp = rec.Timestamp.UTC()
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// isUniqueViolation detects modernc.org/sqlite's UNIQUE constraint error.
// The driver does not export a typed error for it, so match on the message.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
