package inmemdb

import (
	"context"
	"sort"

	"github.com/trezcool/alama/core/records"
)

func (s *store) SelectStudents(_ context.Context, filter records.StudentFilter) ([]records.Student, error) {
	s.db.student.RLock()
	defer s.db.student.RUnlock()

	students := make([]records.Student, 0, len(s.db.student.table))
	for _, st := range s.db.student.table {
		if filter.Class != "" && st.Class != filter.Class {
			continue
		}
		if filter.Section != "" && st.Section != filter.Section {
			continue
		}
		students = append(students, *st)
	}
	sort.Slice(students, func(i, j int) bool {
		if students[i].Name != students[j].Name {
			return students[i].Name < students[j].Name
		}
		return students[i].RollNumber < students[j].RollNumber
	})
	return students, nil
}

func (s *store) InsertStudent(_ context.Context, st records.Student) (records.Student, error) {
	s.db.student.Lock()
	defer s.db.student.Unlock()

	for _, other := range s.db.student.table {
		if other.Class == st.Class && other.Section == st.Section && other.RollNumber == st.RollNumber {
			return records.Student{}, records.ErrRollNumberExists
		}
	}
	s.db.student.table[st.ID] = &st
	return st, nil
}
