package sqlxstore

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/alama/core"
	"github.com/trezcool/alama/core/records"
)

const markSelect = `SELECT m.id, m.student_id, s.name AS student_name, s.roll_number,
	m.subject, m.exam_type, m.marks_obtained, m.max_marks, m.created_at
FROM marks m JOIN students s ON s.id = m.student_id`

func (s *store) SelectMarks(ctx context.Context, filter records.MarkFilter) ([]records.Mark, error) {
	query := markSelect
	var args []interface{}
	if filter.StudentID != "" {
		query += " WHERE m.student_id = ?"
		args = append(args, filter.StudentID)
	}
	query += core.OrderBy(markOrdering...)

	var rows []markRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "selecting marks")
	}
	marks := make([]records.Mark, 0, len(rows))
	for _, r := range rows {
		marks = append(marks, r.unrow())
	}
	return marks, nil
}

func (s *store) InsertMark(ctx context.Context, m records.Mark) (records.Mark, error) {
	var created records.Mark
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		ok, err := studentExists(ctx, tx, m.StudentID)
		if err != nil {
			return err
		}
		if !ok {
			return records.ErrStudentNotFound
		}

		query := tx.Rebind(`INSERT INTO marks (id, student_id, subject, exam_type, marks_obtained, max_marks, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?)`)
		if _, err = tx.ExecContext(ctx, query, m.ID, m.StudentID, m.Subject, m.ExamType, m.MarksObtained, m.MaxMarks, m.CreatedAt); err != nil {
			return errors.Wrap(err, "inserting mark")
		}

		var row markRow
		if err = tx.GetContext(ctx, &row, tx.Rebind(markSelect+" WHERE m.id = ?"), m.ID); err != nil {
			return errors.Wrap(err, "reading inserted mark")
		}
		created = row.unrow()
		return nil
	})
	if err != nil {
		return records.Mark{}, err
	}
	return created, nil
}
