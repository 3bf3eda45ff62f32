package sqlxstore

import (
	"context"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/alama/core"
	"github.com/trezcool/alama/core/records"
)

const studentColumns = "id, name, roll_number, class_name, section, date_of_birth, created_at"

func (s *store) SelectStudents(ctx context.Context, filter records.StudentFilter) ([]records.Student, error) {
	var (
		where []string
		args  []interface{}
	)
	if filter.Class != "" {
		where = append(where, "class_name = ?")
		args = append(args, filter.Class)
	}
	if filter.Section != "" {
		where = append(where, "section = ?")
		args = append(args, filter.Section)
	}

	query := "SELECT " + studentColumns + " FROM students"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += core.OrderBy(studentOrdering...)

	var rows []studentRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "selecting students")
	}
	students := make([]records.Student, 0, len(rows))
	for _, r := range rows {
		students = append(students, r.unrow())
	}
	return students, nil
}

func (s *store) InsertStudent(ctx context.Context, st records.Student) (records.Student, error) {
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		var n int
		query := tx.Rebind("SELECT COUNT(*) FROM students WHERE class_name = ? AND section = ? AND roll_number = ?")
		if err := tx.GetContext(ctx, &n, query, st.Class, st.Section, st.RollNumber); err != nil {
			return errors.Wrap(err, "checking roll number")
		}
		if n > 0 {
			return records.ErrRollNumberExists
		}

		query = tx.Rebind("INSERT INTO students (" + studentColumns + ") VALUES (?, ?, ?, ?, ?, ?, ?)")
		_, err := tx.ExecContext(ctx, query, st.ID, st.Name, st.RollNumber, st.Class, st.Section, st.DateOfBirth, st.CreatedAt)
		if isUniqueViolation(err) { // lost a race with a concurrent insert
			return records.ErrRollNumberExists
		}
		return errors.Wrap(err, "inserting student")
	})
	if err != nil {
		return records.Student{}, err
	}
	return st, nil
}
