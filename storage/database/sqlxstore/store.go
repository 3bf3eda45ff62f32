// Package sqlxstore is the SQL records.Store, on Postgres or SQLite.
package sqlxstore

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/alama/core"
	"github.com/trezcool/alama/core/records"
)

// pq error code for unique_violation
const uniqueViolation = "23505"

type store struct {
	db *sqlx.DB
}

var _ records.Store = (*store)(nil) // interface compliance check

func NewStore(db *sqlx.DB) records.Store {
	return &store{db: db}
}

type (
	studentRow struct {
		ID          string    `db:"id"`
		Name        string    `db:"name"`
		RollNumber  string    `db:"roll_number"`
		Class       string    `db:"class_name"`
		Section     string    `db:"section"`
		DateOfBirth string    `db:"date_of_birth"`
		CreatedAt   time.Time `db:"created_at"`
	}

	markRow struct {
		ID            string    `db:"id"`
		StudentID     string    `db:"student_id"`
		StudentName   string    `db:"student_name"`
		RollNumber    string    `db:"roll_number"`
		Subject       string    `db:"subject"`
		ExamType      string    `db:"exam_type"`
		MarksObtained int       `db:"marks_obtained"`
		MaxMarks      int       `db:"max_marks"`
		CreatedAt     time.Time `db:"created_at"`
	}

	attendanceRow struct {
		ID          string    `db:"id"`
		StudentID   string    `db:"student_id"`
		StudentName string    `db:"student_name"`
		RollNumber  string    `db:"roll_number"`
		Date        string    `db:"date"`
		Present     bool      `db:"present"`
		CreatedAt   time.Time `db:"created_at"`
		UpdatedAt   null.Time `db:"updated_at"`
	}
)

func (r studentRow) unrow() records.Student {
	return records.Student{
		ID:          r.ID,
		Name:        r.Name,
		RollNumber:  r.RollNumber,
		Class:       r.Class,
		Section:     r.Section,
		DateOfBirth: r.DateOfBirth,
		CreatedAt:   r.CreatedAt.UTC(),
	}
}

func (r markRow) unrow() records.Mark {
	return records.Mark{
		ID:            r.ID,
		StudentID:     r.StudentID,
		StudentName:   r.StudentName,
		RollNumber:    r.RollNumber,
		Subject:       r.Subject,
		ExamType:      r.ExamType,
		MarksObtained: r.MarksObtained,
		MaxMarks:      r.MaxMarks,
		CreatedAt:     r.CreatedAt.UTC(),
	}
}

func (r attendanceRow) unrow() records.AttendanceRecord {
	rec := records.AttendanceRecord{
		ID:          r.ID,
		StudentID:   r.StudentID,
		StudentName: r.StudentName,
		RollNumber:  r.RollNumber,
		Date:        r.Date,
		Present:     r.Present,
		CreatedAt:   r.CreatedAt.UTC(),
	}
	if r.UpdatedAt.Valid {
		t := r.UpdatedAt.Time.UTC()
		rec.UpdatedAt = &t
	}
	return rec
}

// withTx runs fn in a transaction, rolled back on error.
func (s *store) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	if err = fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return errors.Wrap(tx.Commit(), "committing transaction")
}

func studentExists(ctx context.Context, q sqlx.ExtContext, id string) (bool, error) {
	var n int
	query := q.Rebind("SELECT COUNT(*) FROM students WHERE id = ?")
	if err := sqlx.GetContext(ctx, q, &n, query, id); err != nil {
		return false, errors.Wrap(err, "checking student")
	}
	return n > 0, nil
}

func isUniqueViolation(err error) bool {
	pqErr, ok := errors.Cause(err).(*pq.Error)
	return ok && pqErr.Code == uniqueViolation
}

var (
	studentOrdering = []core.DBOrdering{
		{Field: "name", Ascending: true},
		{Field: "roll_number", Ascending: true},
	}
	markOrdering = []core.DBOrdering{
		{Field: "m.created_at"},
		{Field: "m.id"},
	}
	attendanceOrdering = []core.DBOrdering{
		{Field: "s.name", Ascending: true},
		{Field: "a.date", Ascending: true},
		{Field: "a.student_id", Ascending: true},
	}
)
