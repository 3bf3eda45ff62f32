package inmemdb

import (
	"context"
	"sort"

	"github.com/trezcool/alama/core/records"
)

func (s *store) SelectMarks(_ context.Context, filter records.MarkFilter) ([]records.Mark, error) {
	s.db.student.RLock()
	defer s.db.student.RUnlock()
	s.db.mark.RLock()
	defer s.db.mark.RUnlock()

	marks := make([]records.Mark, 0, len(s.db.mark.table))
	for _, m := range s.db.mark.table {
		if filter.StudentID != "" && m.StudentID != filter.StudentID {
			continue
		}
		mark := *m
		if st, ok := s.db.student.table[m.StudentID]; ok {
			mark.StudentName = st.Name
			mark.RollNumber = st.RollNumber
		}
		marks = append(marks, mark)
	}
	seq := s.db.mark.seq
	sort.Slice(marks, func(i, j int) bool {
		if !marks[i].CreatedAt.Equal(marks[j].CreatedAt) {
			return marks[i].CreatedAt.After(marks[j].CreatedAt)
		}
		return seq[marks[i].ID] > seq[marks[j].ID]
	})
	return marks, nil
}

func (s *store) InsertMark(_ context.Context, m records.Mark) (records.Mark, error) {
	s.db.student.RLock()
	defer s.db.student.RUnlock()
	s.db.mark.Lock()
	defer s.db.mark.Unlock()

	st, ok := s.db.student.table[m.StudentID]
	if !ok {
		return records.Mark{}, records.ErrStudentNotFound
	}
	m.StudentName = ""
	m.RollNumber = ""
	s.db.mark.n++
	s.db.mark.seq[m.ID] = s.db.mark.n
	s.db.mark.table[m.ID] = &m

	m.StudentName = st.Name
	m.RollNumber = st.RollNumber
	return m, nil
}
