package echoapi

import (
	"github.com/trezcool/alama/core"
	"github.com/trezcool/alama/core/grading"
	"github.com/trezcool/alama/core/identity"
	"github.com/trezcool/alama/core/records"
)

type (
	SessionResponse struct {
		Identity identity.Identity `json:"identity"`
		Home     string            `json:"home"`
	}

	CatalogResponse struct {
		Subjects  []string `json:"subjects"`
		ExamTypes []string `json:"exam_types"`
	}

	AttendanceRequest struct {
		Records []records.AttendanceInput `json:"records"`
	}

	SheetResponse struct {
		records.Sheet
		Present        int     `json:"present"`
		Absent         int     `json:"absent"`
		AttendanceRate float64 `json:"attendance_rate"`
	}

	// DateQuery selects a calendar date, today when empty.
	DateQuery struct {
		Date string `query:"date"`
	}
)

func newSheetResponse(sheet records.Sheet) SheetResponse {
	present, absent := sheet.Counts()
	return SheetResponse{
		Sheet:          sheet,
		Present:        present,
		Absent:         absent,
		AttendanceRate: grading.AttendanceRate(sheet.Records(), len(sheet.Entries)),
	}
}

func (q *DateQuery) Clean() {
	q.Date = core.CleanString(q.Date)
	if q.Date == "" {
		q.Date = core.FormatDate(records.NowFunc().UTC())
	}
}
