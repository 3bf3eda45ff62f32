package records

import (
	"context"

	"github.com/pkg/errors"
)

var (
	// errors
	ErrRollNumberExists = errors.New("a student with this roll number already exists in this class and section")
	ErrStudentNotFound  = errors.New("student not found")
)

// The remote record store boundary. Stores are authoritative; the Gateway never persists anything itself.
type (
	StudentStore interface {
		// SelectStudents orders by name, then roll number.
		SelectStudents(ctx context.Context, filter StudentFilter) ([]Student, error)
		// InsertStudent returns ErrRollNumberExists when (class, section, roll number) is taken.
		InsertStudent(ctx context.Context, s Student) (Student, error)
	}

	MarkStore interface {
		// SelectMarks orders by newest CreatedAt first.
		SelectMarks(ctx context.Context, filter MarkFilter) ([]Mark, error)
		// InsertMark returns ErrStudentNotFound for an unknown student.
		InsertMark(ctx context.Context, m Mark) (Mark, error)
	}

	AttendanceStore interface {
		// SelectAttendance orders by student name, then date, then student id.
		SelectAttendance(ctx context.Context, filter AttendanceFilter) ([]AttendanceRecord, error)
		// UpsertAttendance inserts or replaces records keyed on (student id, date), all or nothing.
		// Replaced records keep their ID and CreatedAt. Keys must be unique within recs.
		// Returns ErrStudentNotFound (and applies nothing) if any student is unknown.
		UpsertAttendance(ctx context.Context, recs []AttendanceRecord) ([]AttendanceRecord, error)
	}

	Store interface {
		StudentStore
		MarkStore
		AttendanceStore
	}
)
