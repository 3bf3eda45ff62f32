package sqlxstore

import (
	"context"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/alama/core"
	"github.com/trezcool/alama/core/records"
)

const attendanceSelect = `SELECT a.id, a.student_id, s.name AS student_name, s.roll_number,
	a.date, a.present, a.created_at, a.updated_at
FROM attendance a JOIN students s ON s.id = a.student_id`

func (s *store) SelectAttendance(ctx context.Context, filter records.AttendanceFilter) ([]records.AttendanceRecord, error) {
	var (
		where []string
		args  []interface{}
	)
	if filter.Date != "" {
		where = append(where, "a.date = ?")
		args = append(args, filter.Date)
	}
	if filter.StudentID != "" {
		where = append(where, "a.student_id = ?")
		args = append(args, filter.StudentID)
	}

	query := attendanceSelect
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += core.OrderBy(attendanceOrdering...)

	var rows []attendanceRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "selecting attendance")
	}
	recs := make([]records.AttendanceRecord, 0, len(rows))
	for _, r := range rows {
		recs = append(recs, r.unrow())
	}
	return recs, nil
}

// UpsertAttendance applies the batch in one transaction with INSERT ... ON CONFLICT, which both
// Postgres and SQLite understand. The existing row keeps its id and created_at.
func (s *store) UpsertAttendance(ctx context.Context, recs []records.AttendanceRecord) ([]records.AttendanceRecord, error) {
	stored := make([]records.AttendanceRecord, 0, len(recs))
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		upsert := tx.Rebind(`INSERT INTO attendance (id, student_id, date, present, created_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT (student_id, date) DO UPDATE SET present = excluded.present, updated_at = ?`)
		reselect := tx.Rebind(attendanceSelect + " WHERE a.student_id = ? AND a.date = ?")

		for _, rec := range recs {
			ok, err := studentExists(ctx, tx, rec.StudentID)
			if err != nil {
				return err
			}
			if !ok {
				return records.ErrStudentNotFound
			}

			if _, err = tx.ExecContext(ctx, upsert, rec.ID, rec.StudentID, rec.Date, rec.Present, rec.CreatedAt, rec.CreatedAt); err != nil {
				return errors.Wrapf(err, "upserting attendance of %s on %s", rec.StudentID, rec.Date)
			}

			var row attendanceRow
			if err = tx.GetContext(ctx, &row, reselect, rec.StudentID, rec.Date); err != nil {
				return errors.Wrap(err, "reading upserted attendance")
			}
			stored = append(stored, row.unrow())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return stored, nil
}
