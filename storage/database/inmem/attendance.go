package inmemdb

import (
	"context"
	"sort"

	"github.com/trezcool/alama/core/records"
)

func (s *store) SelectAttendance(_ context.Context, filter records.AttendanceFilter) ([]records.AttendanceRecord, error) {
	s.db.student.RLock()
	defer s.db.student.RUnlock()
	s.db.attendance.RLock()
	defer s.db.attendance.RUnlock()

	recs := make([]records.AttendanceRecord, 0)
	for _, rec := range s.db.attendance.table {
		if filter.Date != "" && rec.Date != filter.Date {
			continue
		}
		if filter.StudentID != "" && rec.StudentID != filter.StudentID {
			continue
		}
		recs = append(recs, s.withStudent(*rec))
	}
	sort.Slice(recs, func(i, j int) bool {
		if recs[i].StudentName != recs[j].StudentName {
			return recs[i].StudentName < recs[j].StudentName
		}
		if recs[i].Date != recs[j].Date {
			return recs[i].Date < recs[j].Date
		}
		return recs[i].StudentID < recs[j].StudentID
	})
	return recs, nil
}

// UpsertAttendance holds both locks for the whole batch, so it is applied all at once or not at all.
func (s *store) UpsertAttendance(_ context.Context, recs []records.AttendanceRecord) ([]records.AttendanceRecord, error) {
	s.db.student.RLock()
	defer s.db.student.RUnlock()
	s.db.attendance.Lock()
	defer s.db.attendance.Unlock()

	for _, rec := range recs {
		if _, ok := s.db.student.table[rec.StudentID]; !ok {
			return nil, records.ErrStudentNotFound
		}
	}

	stored := make([]records.AttendanceRecord, 0, len(recs))
	for _, rec := range recs {
		if existing, ok := s.db.attendance.table[rec.Key()]; ok {
			updatedAt := rec.CreatedAt
			existing.Present = rec.Present
			existing.UpdatedAt = &updatedAt
			stored = append(stored, s.withStudent(*existing))
			continue
		}
		rec.StudentName = ""
		rec.RollNumber = ""
		rec.UpdatedAt = nil
		r := rec
		s.db.attendance.table[rec.Key()] = &r
		stored = append(stored, s.withStudent(rec))
	}
	return stored, nil
}

// withStudent must be called with the student table locked.
func (s *store) withStudent(rec records.AttendanceRecord) records.AttendanceRecord {
	if st, ok := s.db.student.table[rec.StudentID]; ok {
		rec.StudentName = st.Name
		rec.RollNumber = st.RollNumber
	}
	return rec
}
