package echoapi

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/trezcool/alama/core/grading"
	"github.com/trezcool/alama/core/records"
	"github.com/trezcool/alama/testutil"
)

func TestSessionAPI(t *testing.T) {
	e := setup(t)
	st := testutil.CreateStudent(t, e.store, "Amani", "01", "10", "A")
	student := testutil.Student(st.ID, st.Name)
	teacherToken := e.token(t, testutil.Teacher)
	studentToken := e.token(t, student)

	e.run(t, []httpTest{
		{name: "home", path: "/"},
		{name: "no token", path: "/v1/session", wantCode: http.StatusUnauthorized, wantData: marshalObj(t, errLoginRequired)},
		{name: "bad token", path: "/v1/session", token: "lol", wantCode: http.StatusUnauthorized, wantData: marshalObj(t, errLoginRequired)},
		{
			name: "teacher", path: "/v1/session", token: teacherToken,
			wantData: marshalObj(t, SessionResponse{Identity: testutil.Teacher, Home: "/teacher"}),
		},
		{
			name: "student", path: "/v1/session/", token: studentToken,
			wantData: marshalObj(t, SessionResponse{Identity: student, Home: "/student"}),
		},
		{name: "catalog, anonymous", path: "/v1/catalog", wantCode: http.StatusUnauthorized, wantData: marshalObj(t, errLoginRequired)},
		{
			name: "catalog", path: "/v1/catalog", token: studentToken,
			wantData: marshalObj(t, CatalogResponse{Subjects: records.Subjects, ExamTypes: records.ExamTypes}),
		},
	})
}

func TestStudentAPI(t *testing.T) {
	e := setup(t)
	teacherToken := e.token(t, testutil.Teacher)
	studentToken := e.token(t, testutil.Student("S1", "Amani"))

	body := []byte(`{"name": "A", "roll_number": "01", "class": "10", "section": "a", "date_of_birth": "2010-03-04"}`)
	var created records.Student
	e.call(t, http.MethodPost, "/v1/students", teacherToken, body, &created)
	if created.ID == "" || created.Section != "A" {
		t.Fatalf("created student = %+v", created)
	}

	e.run(t, []httpTest{
		{name: "anonymous", method: http.MethodPost, path: "/v1/students", body: body, wantCode: http.StatusUnauthorized, wantData: marshalObj(t, errLoginRequired)},
		{name: "student", method: http.MethodPost, path: "/v1/students", body: body, token: studentToken, wantCode: http.StatusForbidden, wantData: marshalObj(t, errTeacherOnly)},
		{name: "student list", path: "/v1/students", token: studentToken, wantCode: http.StatusForbidden, wantData: marshalObj(t, errTeacherOnly)},
		{
			name: "missing fields", method: http.MethodPost, path: "/v1/students", body: []byte(`{"name": " "}`), token: teacherToken,
			wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, map[string]string{
				"name":          "this field is required",
				"roll_number":   "this field is required",
				"class":         "this field is required",
				"section":       "this field is required",
				"date_of_birth": "this field is required",
			}),
		},
		{
			name: "bad date of birth", method: http.MethodPost, path: "/v1/students", token: teacherToken,
			body:     []byte(`{"name": "B", "roll_number": "02", "class": "10", "section": "A", "date_of_birth": "04/03/2010"}`),
			wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, map[string]string{"date_of_birth": "must be a date formatted as YYYY-MM-DD"}),
		},
		{name: "malformed json", method: http.MethodPost, path: "/v1/students", body: []byte(`{"name": `), token: teacherToken, wantCode: http.StatusBadRequest},
		{
			name: "duplicate roll number", method: http.MethodPost, path: "/v1/students", body: body, token: teacherToken,
			wantCode: http.StatusConflict,
			wantData: marshalObj(t, map[string]string{"roll_number": records.ErrRollNumberExists.Error()}),
		},
		{name: "list", path: "/v1/students", token: teacherToken, wantData: marshalObj(t, []records.Student{created})},
		{name: "list, filtered", path: "/v1/students?class=10&section=a", token: teacherToken, wantData: marshalObj(t, []records.Student{created})},
		{name: "list, no match", path: "/v1/students?class=11", token: teacherToken, wantData: []byte(`[]`)},
	})
}

func TestStudentAPI_Import(t *testing.T) {
	e := setup(t)
	teacherToken := e.token(t, testutil.Teacher)

	upload := func(t *testing.T, token string, rows ...[]interface{}) (int, []byte) {
		f := excelize.NewFile()
		defer func() { _ = f.Close() }()
		for i, row := range rows {
			cell, _ := excelize.CoordinatesToCellName(1, i+1)
			row := row
			if err := f.SetSheetRow("Sheet1", cell, &row); err != nil {
				t.Fatal(err)
			}
		}
		xlsx, err := f.WriteToBuffer()
		if err != nil {
			t.Fatal(err)
		}

		var body bytes.Buffer
		mw := multipart.NewWriter(&body)
		fw, err := mw.CreateFormFile(importFileField, "roster.xlsx")
		if err != nil {
			t.Fatal(err)
		}
		if _, err = fw.Write(xlsx.Bytes()); err != nil {
			t.Fatal(err)
		}
		_ = mw.Close()

		req, rec := newAuthRequest(http.MethodPost, "/v1/students/import", token, &body, mw.FormDataContentType())
		e.app.ServeHTTP(rec, req)
		return rec.Code, rec.Body.Bytes()
	}

	header := []interface{}{"name", "roll_number", "class", "section", "date_of_birth"}
	code, data := upload(t, teacherToken, header,
		[]interface{}{"Amani", "01", "10", "A", "2010-05-17"},
		[]interface{}{"Baraka", "01", "10", "A", "2010-05-18"},
	)
	if code != http.StatusOK {
		t.Fatalf("import code = %d, body = %s", code, data)
	}
	if !bytes.Contains(data, []byte(`"line":3`)) || !bytes.Contains(data, []byte(`"name":"Amani"`)) {
		t.Errorf("import report = %s", data)
	}

	if code, data = upload(t, teacherToken, []interface{}{"name"}); code != http.StatusBadRequest {
		t.Errorf("import without columns code = %d, body = %s", code, data)
	}
	if code, _ = upload(t, e.token(t, testutil.Student("S1", "A")), header); code != http.StatusForbidden {
		t.Errorf("import as student code = %d", code)
	}

	req, rec := newAuthRequest(http.MethodPost, "/v1/students/import", teacherToken, nil, "application/json")
	e.app.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("import without file code = %d", rec.Code)
	}
}

func TestMarkAPI(t *testing.T) {
	e := setup(t)
	s1 := testutil.CreateStudent(t, e.store, "Amani", "01", "10", "A")
	s2 := testutil.CreateStudent(t, e.store, "Baraka", "02", "10", "A")
	teacherToken := e.token(t, testutil.Teacher)
	studentToken := e.token(t, testutil.Student(s1.ID, s1.Name))

	// 45/50 in a Final: 90.0%, A+
	var m1 records.Mark
	e.call(t, http.MethodPost, "/v1/marks", teacherToken,
		[]byte(`{"student_id": "`+s1.ID+`", "subject": "Math", "exam_type": "Final", "marks_obtained": 45, "max_marks": 50}`), &m1)
	if p := grading.Percentage(m1.MarksObtained, m1.MaxMarks); p != 90.0 || grading.GradeBand(p) != grading.BandAPlus {
		t.Errorf("mark %+v: percentage %v, band %v", m1, p, grading.GradeBand(p))
	}
	var m2 records.Mark
	e.call(t, http.MethodPost, "/v1/marks", teacherToken,
		[]byte(`{"student_id": "`+s2.ID+`", "subject": "Math", "exam_type": "Final", "marks_obtained": 0, "max_marks": 50}`), &m2)

	e.run(t, []httpTest{
		{
			name: "above max", method: http.MethodPost, path: "/v1/marks", token: teacherToken,
			body:     []byte(`{"student_id": "` + s1.ID + `", "subject": "Math", "exam_type": "Final", "marks_obtained": 51, "max_marks": 50}`),
			wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, map[string]string{"marks_obtained": "marks obtained cannot be greater than maximum marks"}),
		},
		{
			name: "missing marks", method: http.MethodPost, path: "/v1/marks", token: teacherToken,
			body:     []byte(`{"student_id": "` + s1.ID + `", "subject": "Math", "exam_type": "Final", "max_marks": 50}`),
			wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, map[string]string{"marks_obtained": "this field is required"}),
		},
		{
			name: "unknown student", method: http.MethodPost, path: "/v1/marks", token: teacherToken,
			body:     []byte(`{"student_id": "lol", "subject": "Math", "exam_type": "Final", "marks_obtained": 1, "max_marks": 50}`),
			wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, map[string]string{"student_id": records.ErrStudentNotFound.Error()}),
		},
		{
			name: "student cannot record", method: http.MethodPost, path: "/v1/marks", token: studentToken,
			body:     []byte(`{"student_id": "` + s1.ID + `", "subject": "Math", "exam_type": "Final", "marks_obtained": 50, "max_marks": 50}`),
			wantCode: http.StatusForbidden, wantData: marshalObj(t, errTeacherOnly),
		},
		{name: "teacher, newest first", path: "/v1/marks", token: teacherToken, wantData: marshalObj(t, []records.Mark{m2, m1})},
		{name: "teacher, one student", path: "/v1/marks?student_id=" + s2.ID, token: teacherToken, wantData: marshalObj(t, []records.Mark{m2})},
		{name: "student, own", path: "/v1/marks", token: studentToken, wantData: marshalObj(t, []records.Mark{m1})},
		{
			name: "student, someone else's", path: "/v1/marks?student_id=" + s2.ID, token: studentToken,
			wantCode: http.StatusForbidden, wantData: marshalObj(t, errTeacherOnly),
		},
		{name: "anonymous", path: "/v1/marks", wantCode: http.StatusUnauthorized, wantData: marshalObj(t, errLoginRequired)},
	})
}

func TestAttendanceAPI(t *testing.T) {
	e := setup(t)
	s1 := testutil.CreateStudent(t, e.store, "Amani", "01", "10", "A")
	s2 := testutil.CreateStudent(t, e.store, "Baraka", "02", "10", "A")
	teacherToken := e.token(t, testutil.Teacher)
	studentToken := e.token(t, testutil.Student(s1.ID, s1.Name))

	submit := func(studentID string, present bool) []byte {
		return marshalObj(t, AttendanceRequest{Records: []records.AttendanceInput{{StudentID: studentID, Date: "2024-01-10", Present: present}}})
	}

	// same student and date twice: one record, holding the last value
	e.call(t, http.MethodPost, "/v1/attendance", teacherToken, submit(s1.ID, true), nil)
	e.call(t, http.MethodPost, "/v1/attendance", teacherToken, submit(s1.ID, false), nil)

	var recs []records.AttendanceRecord
	e.call(t, http.MethodGet, "/v1/attendance?date=2024-01-10", teacherToken, nil, &recs)
	if len(recs) != 1 || recs[0].StudentID != s1.ID || recs[0].Present {
		t.Fatalf("attendance = %+v, want one absent record", recs)
	}

	var sheet SheetResponse
	e.call(t, http.MethodGet, "/v1/attendance/sheet?date=2024-01-10", teacherToken, nil, &sheet)
	if sheet.Date != "2024-01-10" || len(sheet.Entries) != 2 {
		t.Fatalf("sheet = %+v", sheet)
	}
	if sheet.Entries[0].StudentID != s1.ID || sheet.Entries[0].Present || !sheet.Entries[0].Recorded {
		t.Errorf("sheet entry 0 = %+v", sheet.Entries[0])
	}
	if sheet.Entries[1].StudentID != s2.ID || !sheet.Entries[1].Present || sheet.Entries[1].Recorded {
		t.Errorf("sheet entry 1 = %+v", sheet.Entries[1])
	}
	if sheet.Present != 1 || sheet.Absent != 1 || sheet.AttendanceRate != 50 {
		t.Errorf("sheet counts = %d/%d (%v%%)", sheet.Present, sheet.Absent, sheet.AttendanceRate)
	}

	// reading the sheet did not store the default
	e.call(t, http.MethodGet, "/v1/attendance?student_id="+s2.ID, teacherToken, nil, &recs)
	if len(recs) != 0 {
		t.Errorf("sheet read stored %+v", recs)
	}

	e.run(t, []httpTest{
		{
			name: "empty batch", method: http.MethodPost, path: "/v1/attendance", token: teacherToken, body: []byte(`{"records": []}`),
			wantCode: http.StatusBadRequest, wantData: marshalObj(t, httpErr{Error: "write failed: " + records.ErrEmptyBatch.Error()}),
		},
		{
			name: "bad date", method: http.MethodPost, path: "/v1/attendance", token: teacherToken,
			body:     []byte(`{"records": [{"student_id": "` + s1.ID + `", "date": "10/01/2024", "present": true}]}`),
			wantCode: http.StatusBadRequest,
		},
		{name: "unknown student", method: http.MethodPost, path: "/v1/attendance", token: teacherToken, body: submit("lol", true), wantCode: http.StatusBadRequest},
		{name: "student cannot submit", method: http.MethodPost, path: "/v1/attendance", token: studentToken, body: submit(s1.ID, true), wantCode: http.StatusForbidden, wantData: marshalObj(t, errTeacherOnly)},
		{name: "student cannot see the sheet", path: "/v1/attendance/sheet", token: studentToken, wantCode: http.StatusForbidden, wantData: marshalObj(t, errTeacherOnly)},
		{name: "bad filter date", path: "/v1/attendance?date=yesterday", token: teacherToken, wantCode: http.StatusBadRequest, wantData: marshalObj(t, map[string]string{"date": "invalid date, expected YYYY-MM-DD"})},
		{name: "student, own", path: "/v1/attendance", token: studentToken, wantData: marshalObj(t, recsOf(t, e, teacherToken, s1.ID))},
		{name: "student, someone else's", path: "/v1/attendance?student_id=" + s2.ID, token: studentToken, wantCode: http.StatusForbidden},
	})
}

func recsOf(t *testing.T, e testEnv, token, studentID string) []records.AttendanceRecord {
	var recs []records.AttendanceRecord
	e.call(t, http.MethodGet, "/v1/attendance?student_id="+studentID, token, nil, &recs)
	return recs
}

func TestReportAPI(t *testing.T) {
	e := setup(t)
	s1 := testutil.CreateStudent(t, e.store, "Amani", "01", "10", "A")
	s2 := testutil.CreateStudent(t, e.store, "Baraka", "02", "10", "A")
	teacherToken := e.token(t, testutil.Teacher)
	studentToken := e.token(t, testutil.Student(s1.ID, s1.Name))

	for _, body := range []string{
		`{"student_id": "` + s1.ID + `", "subject": "Math", "exam_type": "Final", "marks_obtained": 45, "max_marks": 50}`,
		`{"student_id": "` + s1.ID + `", "subject": "English", "exam_type": "Final", "marks_obtained": 35, "max_marks": 50}`,
		`{"student_id": "` + s2.ID + `", "subject": "Math", "exam_type": "Final", "marks_obtained": 20, "max_marks": 50}`,
	} {
		e.call(t, http.MethodPost, "/v1/marks", teacherToken, []byte(body), nil)
	}
	e.call(t, http.MethodPost, "/v1/attendance", teacherToken, marshalObj(t, AttendanceRequest{Records: []records.AttendanceInput{
		{StudentID: s1.ID, Date: "2024-01-10", Present: true},
		{StudentID: s2.ID, Date: "2024-01-10", Present: false},
		{StudentID: s1.ID, Date: "2024-01-09", Present: false},
	}}), nil)

	var rc grading.ReportCard
	e.call(t, http.MethodGet, "/v1/reports/students/"+s1.ID, studentToken, nil, &rc)
	if rc.Student.ID != s1.ID || len(rc.Subjects) != 2 || rc.Percentage != 80 || rc.Grade != grading.BandA || rc.AttendanceRate != 50 {
		t.Errorf("report card = %+v", rc)
	}

	var ts grading.TeacherSummary
	e.call(t, http.MethodGet, "/v1/dashboard/teacher?date=2024-01-10", teacherToken, nil, &ts)
	want := grading.TeacherSummary{TotalStudents: 2, MarksRecorded: 3, AveragePerformance: 66.7, AttendanceDate: "2024-01-10", AttendanceRate: 50}
	if ts != want {
		t.Errorf("teacher dashboard = %+v, want %+v", ts, want)
	}

	var ss grading.StudentSummary
	e.call(t, http.MethodGet, "/v1/dashboard/student", studentToken, nil, &ss)
	if ss.StudentID != s1.ID || ss.AverageMarks != 80 || ss.TotalSubjects != 2 || ss.DaysRecorded != 2 || ss.DaysPresent != 1 {
		t.Errorf("student dashboard = %+v", ss)
	}

	e.run(t, []httpTest{
		{name: "someone else's report", path: "/v1/reports/students/" + s2.ID, token: studentToken, wantCode: http.StatusForbidden, wantData: marshalObj(t, errTeacherOnly)},
		{name: "unknown student", path: "/v1/reports/students/lol", token: teacherToken, wantCode: http.StatusNotFound, wantData: marshalObj(t, errRecordNotFound)},
		{name: "teacher has no student dashboard", path: "/v1/dashboard/student", token: teacherToken, wantCode: http.StatusForbidden, wantData: marshalObj(t, errStudentOnly)},
		{name: "student has no teacher dashboard", path: "/v1/dashboard/teacher", token: studentToken, wantCode: http.StatusForbidden, wantData: marshalObj(t, errTeacherOnly)},
		{name: "anonymous", path: "/v1/dashboard/teacher", wantCode: http.StatusUnauthorized, wantData: marshalObj(t, errLoginRequired)},
	})
}

func TestSessionAPI_SignOut(t *testing.T) {
	e := setup(t)
	testutil.CreateStudent(t, e.store, "Amani", "01", "10", "A")
	teacherToken := e.token(t, testutil.Teacher)

	e.call(t, http.MethodGet, "/v1/students", teacherToken, nil, nil)
	e.call(t, http.MethodGet, "/v1/marks", teacherToken, nil, nil)
	if e.cache.Len(records.KindStudents) == 0 || e.cache.Len(records.KindMarks) == 0 {
		t.Fatal("reads were not cached")
	}

	e.run(t, []httpTest{
		{name: "anonymous", method: http.MethodPost, path: "/v1/session/signout", wantCode: http.StatusUnauthorized, wantData: marshalObj(t, errLoginRequired)},
		{
			name: "signed in", method: http.MethodPost, path: "/v1/session/signout", token: teacherToken,
			wantData: marshalObj(t, SessionResponse{Home: "/login"}),
		},
	})
	for _, kind := range records.Kinds {
		if n := e.cache.Len(kind); n != 0 {
			t.Errorf("%d cached %s entries after sign-out, want 0", n, kind)
		}
	}
}

func TestQueryAPI_BadBody(t *testing.T) {
	e := setup(t)
	teacherToken := e.token(t, testutil.Teacher)
	body := []byte(`{"student_id": `)

	e.run(t, []httpTest{
		{name: "students", path: "/v1/students", body: body, token: teacherToken, wantCode: http.StatusBadRequest},
		{name: "marks", path: "/v1/marks", body: body, token: teacherToken, wantCode: http.StatusBadRequest},
		{name: "attendance", path: "/v1/attendance", body: body, token: teacherToken, wantCode: http.StatusBadRequest},
	})
}
