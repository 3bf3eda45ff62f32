// Package inmemdb is a records.Store kept in process memory.
package inmemdb

import (
	"sync"

	"github.com/trezcool/alama/core/records"
)

type (
	DB struct {
		student    *studentTable
		mark       *markTable
		attendance *attendanceTable
	}

	studentTable struct {
		sync.RWMutex
		table map[string]*records.Student
	}

	markTable struct {
		sync.RWMutex
		table map[string]*records.Mark
		seq   map[string]int // insertion order, newest wins ties on CreatedAt
		n     int
	}

	attendanceTable struct {
		sync.RWMutex
		table map[records.AttendanceKey]*records.AttendanceRecord
	}
)

// Open returns an empty database.
// Tables are always locked students first, so a write holding another table may read students.
func Open() *DB {
	return &DB{
		student:    &studentTable{table: make(map[string]*records.Student)},
		mark:       &markTable{table: make(map[string]*records.Mark), seq: make(map[string]int)},
		attendance: &attendanceTable{table: make(map[records.AttendanceKey]*records.AttendanceRecord)},
	}
}

type store struct {
	db *DB
}

var _ records.Store = (*store)(nil) // interface compliance check

func NewStore(db *DB) records.Store {
	return &store{db: db}
}
