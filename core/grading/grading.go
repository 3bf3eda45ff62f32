// Package grading computes the derived metrics shown on reports and dashboards.
// Every function is pure.
package grading

import (
	"math"
	"sort"

	"github.com/trezcool/alama/core/records"
)

type Band string

const (
	BandAPlus Band = "A+"
	BandA     Band = "A"
	BandBPlus Band = "B+"
	BandB     Band = "B"
	BandC     Band = "C"
)

// bands are ordered highest first.
var bands = []struct {
	min  float64
	band Band
}{
	{min: 90, band: BandAPlus},
	{min: 80, band: BandA},
	{min: 70, band: BandBPlus},
	{min: 60, band: BandB},
}

// Rank orders bands: C is 0, A+ is 4. Unknown bands rank below C.
func (b Band) Rank() int {
	for i, bb := range bands {
		if bb.band == b {
			return len(bands) - i
		}
	}
	if b == BandC {
		return 0
	}
	return -1
}

// Round1 rounds x to one decimal.
func Round1(x float64) float64 {
	return math.Round(x*10) / 10
}

// Percentage is obtained/max as a percentage rounded to one decimal, 0 when max is not positive.
func Percentage(obtained, max int) float64 {
	if max <= 0 {
		return 0
	}
	return Round1(float64(obtained) / float64(max) * 100)
}

func GradeBand(p float64) Band {
	for _, bb := range bands {
		if p >= bb.min {
			return bb.band
		}
	}
	return BandC
}

// ClassAveragePercentage is the mean of the marks' percentages, 0 for no marks.
func ClassAveragePercentage(marks []records.Mark) float64 {
	if len(marks) == 0 {
		return 0
	}
	var sum float64
	for _, m := range marks {
		sum += Percentage(m.MarksObtained, m.MaxMarks)
	}
	return sum / float64(len(marks))
}

// AttendanceRate is the share of present records over totalStudents, as a percentage rounded to
// one decimal. It is 0 when totalStudents is not positive.
func AttendanceRate(recs []records.AttendanceRecord, totalStudents int) float64 {
	if totalStudents <= 0 {
		return 0
	}
	present := 0
	for _, rec := range recs {
		if rec.Present {
			present++
		}
	}
	return Round1(float64(present) / float64(totalStudents) * 100)
}

func StudentAverage(marks []records.Mark, studentID string) float64 {
	return ClassAveragePercentage(marksOf(marks, studentID))
}

// StudentAttendanceRate is the share of a student's recorded days they were present.
func StudentAttendanceRate(recs []records.AttendanceRecord, studentID string) float64 {
	var own []records.AttendanceRecord
	for _, rec := range recs {
		if rec.StudentID == studentID {
			own = append(own, rec)
		}
	}
	return AttendanceRate(own, len(own))
}

type ExamResult struct {
	ExamType      string `json:"exam_type"`
	MarksObtained int    `json:"marks_obtained"`
	MaxMarks      int    `json:"max_marks"`
}

type SubjectResult struct {
	Subject    string       `json:"subject"`
	Exams      []ExamResult `json:"exams"`
	Total      int          `json:"total"`
	MaxMarks   int          `json:"max_marks"`
	Percentage float64      `json:"percentage"`
	Grade      Band         `json:"grade"`
}

// SubjectReport sums marks per subject. Subjects are ordered by name, exams keep the order of marks.
func SubjectReport(marks []records.Mark) []SubjectResult {
	idx := make(map[string]int)
	results := make([]SubjectResult, 0)
	for _, m := range marks {
		i, ok := idx[m.Subject]
		if !ok {
			i = len(results)
			idx[m.Subject] = i
			results = append(results, SubjectResult{Subject: m.Subject})
		}
		res := &results[i]
		res.Exams = append(res.Exams, ExamResult{ExamType: m.ExamType, MarksObtained: m.MarksObtained, MaxMarks: m.MaxMarks})
		res.Total += m.MarksObtained
		res.MaxMarks += m.MaxMarks
	}
	for i := range results {
		results[i].Percentage = Percentage(results[i].Total, results[i].MaxMarks)
		results[i].Grade = GradeBand(results[i].Percentage)
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].Subject < results[j].Subject })
	return results
}

// ReportCard is a student's results over all their marks.
type ReportCard struct {
	Student        records.Student `json:"student"`
	Subjects       []SubjectResult `json:"subjects"`
	TotalMarks     int             `json:"total_marks"`
	MaxMarks       int             `json:"max_marks"`
	Percentage     float64         `json:"percentage"`
	Grade          Band            `json:"grade"`
	AttendanceRate float64         `json:"attendance_rate"`
}

func NewReportCard(st records.Student, marks []records.Mark, recs []records.AttendanceRecord) ReportCard {
	rc := ReportCard{
		Student:        st,
		Subjects:       SubjectReport(marksOf(marks, st.ID)),
		AttendanceRate: StudentAttendanceRate(recs, st.ID),
	}
	for _, s := range rc.Subjects {
		rc.TotalMarks += s.Total
		rc.MaxMarks += s.MaxMarks
	}
	rc.Percentage = Percentage(rc.TotalMarks, rc.MaxMarks)
	rc.Grade = GradeBand(rc.Percentage)
	return rc
}

type TeacherSummary struct {
	TotalStudents      int     `json:"total_students"`
	MarksRecorded      int     `json:"marks_recorded"`
	AveragePerformance float64 `json:"average_performance"`
	AttendanceDate     string  `json:"attendance_date"`
	AttendanceRate     float64 `json:"attendance_rate"`
}

// TeacherOverview summarizes the whole roster. day holds the attendance records of date.
func TeacherOverview(students []records.Student, marks []records.Mark, date string, day []records.AttendanceRecord) TeacherSummary {
	return TeacherSummary{
		TotalStudents:      len(students),
		MarksRecorded:      len(marks),
		AveragePerformance: Round1(ClassAveragePercentage(marks)),
		AttendanceDate:     date,
		AttendanceRate:     AttendanceRate(day, len(students)),
	}
}

type StudentSummary struct {
	StudentID      string          `json:"student_id"`
	AverageMarks   float64         `json:"average_marks"`
	Grade          Band            `json:"grade"`
	TotalSubjects  int             `json:"total_subjects"`
	AttendanceRate float64         `json:"attendance_rate"`
	DaysRecorded   int             `json:"days_recorded"`
	DaysPresent    int             `json:"days_present"`
	Subjects       []SubjectResult `json:"subjects"`
	RecentMarks    []records.Mark  `json:"recent_marks"`
}

// recentMarks bounds StudentSummary.RecentMarks.
const recentMarks = 5

// StudentOverview summarizes one student. marks are expected newest first.
func StudentOverview(studentID string, marks []records.Mark, recs []records.AttendanceRecord) StudentSummary {
	own := marksOf(marks, studentID)
	avg := Round1(ClassAveragePercentage(own))
	sum := StudentSummary{
		StudentID:      studentID,
		AverageMarks:   avg,
		Grade:          GradeBand(avg),
		AttendanceRate: StudentAttendanceRate(recs, studentID),
		Subjects:       SubjectReport(own),
		RecentMarks:    own,
	}
	sum.TotalSubjects = len(sum.Subjects)
	if len(sum.RecentMarks) > recentMarks {
		sum.RecentMarks = sum.RecentMarks[:recentMarks]
	}
	for _, rec := range recs {
		if rec.StudentID == studentID {
			sum.DaysRecorded++
			if rec.Present {
				sum.DaysPresent++
			}
		}
	}
	return sum
}

func marksOf(marks []records.Mark, studentID string) []records.Mark {
	own := make([]records.Mark, 0)
	for _, m := range marks {
		if m.StudentID == studentID {
			own = append(own, m)
		}
	}
	return own
}
