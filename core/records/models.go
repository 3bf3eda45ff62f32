package records

import (
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/alama/core"
)

var (
	Subjects  = []string{"Mathematics", "English", "Science", "History", "Geography", "Computer Science", "Physics", "Chemistry", "Biology"}
	ExamTypes = []string{"Midterm", "Final", "Unit Test", "Quiz", "Assignment"}

	errMarksAboveMax = errors.New("marks obtained cannot be greater than maximum marks")
)

type Student struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	RollNumber  string    `json:"roll_number"`
	Class       string    `json:"class"`
	Section     string    `json:"section"`
	DateOfBirth string    `json:"date_of_birth"` // YYYY-MM-DD
	CreatedAt   time.Time `json:"created_at"`    // UTC
}

// Mark is immutable once created.
type Mark struct {
	ID            string    `json:"id"`
	StudentID     string    `json:"student_id"`
	StudentName   string    `json:"student_name"`
	RollNumber    string    `json:"roll_number"`
	Subject       string    `json:"subject"`
	ExamType      string    `json:"exam_type"`
	MarksObtained int       `json:"marks_obtained"`
	MaxMarks      int       `json:"max_marks"`
	CreatedAt     time.Time `json:"created_at"` // UTC
}

type AttendanceRecord struct {
	ID          string     `json:"id"`
	StudentID   string     `json:"student_id"`
	StudentName string     `json:"student_name"`
	RollNumber  string     `json:"roll_number"`
	Date        string     `json:"date"` // YYYY-MM-DD
	Present     bool       `json:"present"`
	CreatedAt   time.Time  `json:"created_at"`           // UTC
	UpdatedAt   *time.Time `json:"updated_at,omitempty"` // UTC, set when a resubmission replaced the record
}

// Key is the attendance uniqueness key.
func (ar AttendanceRecord) Key() AttendanceKey {
	return AttendanceKey{StudentID: ar.StudentID, Date: ar.Date}
}

type AttendanceKey struct {
	StudentID string
	Date      string
}

// NewStudent contains information needed to create a new Student.
type NewStudent struct {
	Name        string `json:"name" validate:"required"`
	RollNumber  string `json:"roll_number" validate:"required"`
	Class       string `json:"class" validate:"required"`
	Section     string `json:"section" validate:"required"`
	DateOfBirth string `json:"date_of_birth" validate:"required,isodate"`
}

func (ns *NewStudent) Validate() error {
	ns.Name = core.CleanString(ns.Name)
	ns.RollNumber = core.CleanString(ns.RollNumber)
	ns.Class = core.CleanString(ns.Class)
	ns.Section = strings.ToUpper(core.CleanString(ns.Section))
	ns.DateOfBirth = core.CleanString(ns.DateOfBirth)
	return core.ValidateStruct(ns)
}

// NewMark contains information needed to record a Mark.
// Pointers tell a missing number apart from an explicit 0.
type NewMark struct {
	StudentID     string `json:"student_id" validate:"required"`
	Subject       string `json:"subject" validate:"required"`
	ExamType      string `json:"exam_type" validate:"required"`
	MarksObtained *int   `json:"marks_obtained" validate:"required,min=0"`
	MaxMarks      *int   `json:"max_marks" validate:"required,min=1"`
}

func (nm *NewMark) Validate() error {
	nm.StudentID = core.CleanString(nm.StudentID)
	nm.Subject = core.CleanString(nm.Subject)
	nm.ExamType = core.CleanString(nm.ExamType)
	if err := core.ValidateStruct(nm); err != nil {
		return err
	}
	if *nm.MarksObtained > *nm.MaxMarks {
		return core.NewValidationError(
			errMarksAboveMax,
			core.FieldError{Field: "marks_obtained", Error: errMarksAboveMax.Error()},
		)
	}
	return nil
}

// AttendanceInput is one (student, date, present) tuple of a submission.
type AttendanceInput struct {
	StudentID string `json:"student_id"`
	Date      string `json:"date"`
	Present   bool   `json:"present"`
}

// Filters. The zero value of each selects everything.
type (
	StudentFilter struct {
		Class   string `query:"class"`
		Section string `query:"section"`
	}

	MarkFilter struct {
		StudentID string `query:"student_id"`
	}

	AttendanceFilter struct {
		Date      string `query:"date"`
		StudentID string `query:"student_id"`
	}
)

func (f *StudentFilter) Clean() {
	f.Class = core.CleanString(f.Class)
	f.Section = strings.ToUpper(core.CleanString(f.Section))
}

func (f StudentFilter) key() string {
	return "class=" + f.Class + "&section=" + f.Section
}

func (f *MarkFilter) Clean() {
	f.StudentID = core.CleanString(f.StudentID)
}

func (f MarkFilter) key() string {
	return "student=" + f.StudentID
}

func (f *AttendanceFilter) Clean() {
	f.Date = core.CleanString(f.Date)
	f.StudentID = core.CleanString(f.StudentID)
}

func (f AttendanceFilter) Validate() error {
	if f.Date != "" && !core.IsDate(f.Date) {
		return core.NewValidationError(core.ErrInvalidDate, core.FieldError{Field: "date", Error: core.ErrInvalidDate.Error()})
	}
	return nil
}

func (f AttendanceFilter) key() string {
	return "date=" + f.Date + "&student=" + f.StudentID
}
