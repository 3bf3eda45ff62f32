package records

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/alama/core"
)

var (
	ErrEmptyBatch     = errors.New("attendance batch is empty")
	ErrMissingStudent = errors.New("attendance entry without student id")
)

// SubmitAttendance applies a batch so that exactly one record exists per (student, date).
// An existing record gets its Present value replaced, otherwise a record is inserted. The batch is
// applied atomically by the store. Repeated keys within the batch collapse to their last entry.
//
// Two submissions racing for the same student and date are not serialized: the last one to reach
// the store wins.
func (gw *Gateway) SubmitAttendance(ctx context.Context, batch []AttendanceInput) ([]AttendanceRecord, error) {
	if len(batch) == 0 {
		return nil, core.NewInvalidWriteError(ErrEmptyBatch)
	}

	now := NowFunc().UTC()
	recs := make([]AttendanceRecord, 0, len(batch))
	pos := make(map[AttendanceKey]int, len(batch))
	for i, in := range batch {
		in.StudentID = core.CleanString(in.StudentID)
		in.Date = core.CleanString(in.Date)
		if in.StudentID == "" {
			return nil, core.NewInvalidWriteError(errors.Wrapf(ErrMissingStudent, "entry %d", i))
		}
		if !core.IsDate(in.Date) {
			return nil, core.NewInvalidWriteError(errors.Wrapf(core.ErrInvalidDate, "entry %d (%q)", i, in.Date))
		}

		rec := AttendanceRecord{
			ID:        NewIDFunc(),
			StudentID: in.StudentID,
			Date:      in.Date,
			Present:   in.Present,
			CreatedAt: now,
		}
		if j, ok := pos[rec.Key()]; ok {
			recs[j].Present = rec.Present
			continue
		}
		pos[rec.Key()] = len(recs)
		recs = append(recs, rec)
	}

	stored, err := gw.store.UpsertAttendance(ctx, recs)
	if err != nil {
		if errors.Cause(err) == ErrStudentNotFound {
			return nil, core.NewInvalidWriteError(errors.Wrap(err, "upserting attendance"))
		}
		return nil, core.NewWriteError(errors.Wrap(err, "upserting attendance"))
	}

	gw.invalidate(ctx, KindAttendance)
	return stored, nil
}

// SheetEntry is one roster line of an attendance sheet.
// Recorded is false when Present is the default rather than a stored value.
type SheetEntry struct {
	StudentID   string `json:"student_id"`
	StudentName string `json:"student_name"`
	RollNumber  string `json:"roll_number"`
	Present     bool   `json:"present"`
	Recorded    bool   `json:"recorded"`
}

// Sheet is the attendance of a roster for one date.
type Sheet struct {
	Date    string       `json:"date"`
	Entries []SheetEntry `json:"entries"`
}

// MergeDefaults lays the stored records of date over the roster. Students without a record are
// shown present. Nothing is written: the default only reaches the store if the sheet is submitted.
func MergeDefaults(date string, roster []Student, recs []AttendanceRecord) Sheet {
	stored := make(map[string]AttendanceRecord, len(recs))
	for _, rec := range recs {
		if rec.Date == date {
			stored[rec.StudentID] = rec
		}
	}

	sheet := Sheet{Date: date, Entries: make([]SheetEntry, 0, len(roster))}
	for _, s := range roster {
		entry := SheetEntry{StudentID: s.ID, StudentName: s.Name, RollNumber: s.RollNumber, Present: true}
		if rec, ok := stored[s.ID]; ok {
			entry.Present = rec.Present
			entry.Recorded = true
		}
		sheet.Entries = append(sheet.Entries, entry)
	}
	return sheet
}

// Set marks one student. It returns false if the student is not on the sheet.
func (sh *Sheet) Set(studentID string, present bool) bool {
	for i := range sh.Entries {
		if sh.Entries[i].StudentID == studentID {
			sh.Entries[i].Present = present
			return true
		}
	}
	return false
}

func (sh *Sheet) MarkAll(present bool) {
	for i := range sh.Entries {
		sh.Entries[i].Present = present
	}
}

func (sh Sheet) Counts() (present, absent int) {
	for _, e := range sh.Entries {
		if e.Present {
			present++
		} else {
			absent++
		}
	}
	return present, absent
}

// Batch turns the whole sheet, defaults included, into a submission.
func (sh Sheet) Batch() []AttendanceInput {
	batch := make([]AttendanceInput, 0, len(sh.Entries))
	for _, e := range sh.Entries {
		batch = append(batch, AttendanceInput{StudentID: e.StudentID, Date: sh.Date, Present: e.Present})
	}
	return batch
}

// Records returns the sheet as attendance records, for rate computations.
func (sh Sheet) Records() []AttendanceRecord {
	recs := make([]AttendanceRecord, 0, len(sh.Entries))
	for _, e := range sh.Entries {
		recs = append(recs, AttendanceRecord{
			StudentID:   e.StudentID,
			StudentName: e.StudentName,
			RollNumber:  e.RollNumber,
			Date:        sh.Date,
			Present:     e.Present,
		})
	}
	return recs
}
