// Package rostersvc imports students in bulk from a spreadsheet.
//
// The first sheet must start with a header row naming the columns (any order, any case):
// name, roll_number, class, section, date_of_birth. Date cells may be text (YYYY-MM-DD) or
// spreadsheet dates.
package rostersvc

import (
	"context"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"github.com/trezcool/alama/core"
	"github.com/trezcool/alama/core/records"
)

var (
	Columns = []string{"name", "roll_number", "class", "section", "date_of_birth"}

	ErrNoSheet       = errors.New("spreadsheet has no sheet")
	ErrNoHeader      = errors.New("spreadsheet has no header row")
	ErrMissingColumn = errors.New("missing column")
)

// Row is a data row of the sheet. Line is its 1-based spreadsheet row number.
type Row struct {
	Line    int
	Student records.NewStudent
}

type RowError struct {
	Line   int               `json:"line"`
	Error  string            `json:"error"`
	Fields []core.FieldError `json:"fields,omitempty"`
}

type Report struct {
	Created []records.Student `json:"created"`
	Failed  []RowError        `json:"failed"`
}

// Creator is satisfied by records.Gateway and records.Scope.
type Creator interface {
	CreateStudent(ctx context.Context, data records.NewStudent) (records.Student, error)
}

// ReadStudents parses the first sheet of an xlsx workbook. Blank rows are skipped.
func ReadStudents(r io.Reader) ([]Row, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, errors.Wrap(err, "opening spreadsheet")
	}
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, ErrNoSheet
	}
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, errors.Wrapf(err, "reading sheet %s", sheet)
	}
	if len(rows) == 0 {
		return nil, ErrNoHeader
	}

	cols, err := headerColumns(rows[0])
	if err != nil {
		return nil, err
	}

	out := make([]Row, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if isBlank(row) {
			continue
		}
		cell := func(name string) string {
			if j := cols[name]; j < len(row) {
				return strings.TrimSpace(row[j])
			}
			return ""
		}
		out = append(out, Row{
			Line: i + 2,
			Student: records.NewStudent{
				Name:        cell("name"),
				RollNumber:  cell("roll_number"),
				Class:       cell("class"),
				Section:     cell("section"),
				DateOfBirth: cellDate(cell("date_of_birth")),
			},
		})
	}
	return out, nil
}

// Import reads the sheet and creates every student in it. See CreateAll.
func Import(ctx context.Context, c Creator, r io.Reader) (Report, error) {
	rows, err := ReadStudents(r)
	if err != nil {
		return Report{}, err
	}
	return CreateAll(ctx, c, rows)
}

// CreateAll creates a student per row. Rows rejected for their content are reported and
// skipped; any other failure stops the import and is returned with the report so far.
func CreateAll(ctx context.Context, c Creator, rows []Row) (Report, error) {
	report := Report{Created: make([]records.Student, 0, len(rows)), Failed: make([]RowError, 0)}
	for _, row := range rows {
		st, err := c.CreateStudent(ctx, row.Student)
		if err == nil {
			report.Created = append(report.Created, st)
			continue
		}

		var (
			vErr *core.ValidationError
			cErr *core.ConflictError
		)
		switch {
		case errors.As(err, &vErr):
			report.Failed = append(report.Failed, RowError{Line: row.Line, Error: vErr.Error(), Fields: vErr.Fields})
		case errors.As(err, &cErr):
			report.Failed = append(report.Failed, RowError{
				Line:   row.Line,
				Error:  cErr.Error(),
				Fields: []core.FieldError{{Field: cErr.Field, Error: cErr.Error()}},
			})
		default:
			return report, errors.Wrapf(err, "importing row %d", row.Line)
		}
	}
	return report, nil
}

func headerColumns(header []string) (map[string]int, error) {
	cols := make(map[string]int, len(Columns))
	for i, h := range header {
		name := strings.ReplaceAll(core.CleanString(h, true), " ", "_")
		if _, seen := cols[name]; !seen {
			cols[name] = i
		}
	}
	for _, name := range Columns {
		if _, ok := cols[name]; !ok {
			return nil, errors.Wrap(ErrMissingColumn, name)
		}
	}
	return cols, nil
}

func isBlank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// cellDate turns a spreadsheet date serial into YYYY-MM-DD. Anything else is returned as is.
func cellDate(v string) string {
	if v == "" || core.IsDate(v) {
		return v
	}
	serial, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return v
	}
	t, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return v
	}
	return core.FormatDate(t)
}
