package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/alama/core/grading"
	"github.com/trezcool/alama/core/identity"
	"github.com/trezcool/alama/core/records"
)

func registerReportAPI(g *echo.Group) {
	g.GET("/reports/students/:id", getReportCard, requireRoles(identity.RoleTeacher, identity.RoleStudent))

	dg := g.Group("/dashboard")
	dg.GET("/teacher", getTeacherDashboard, requireRoles(identity.RoleTeacher))
	dg.GET("/student", getStudentDashboard, requireRoles(identity.RoleStudent))
}

// getReportCard sums a student's marks per subject. Students may only see their own.
func getReportCard(ctx echo.Context) error {
	scope, err := getScope(ctx)
	if err != nil {
		return err
	}
	c := ctx.Request().Context()

	st, err := scope.Student(c, ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == records.ErrStudentNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "getting student")
	}
	marks, err := scope.ListMarks(c, records.MarkFilter{StudentID: st.ID})
	if err != nil {
		return errors.Wrap(err, "querying marks")
	}
	recs, err := scope.ListAttendance(c, records.AttendanceFilter{StudentID: st.ID})
	if err != nil {
		return errors.Wrap(err, "querying attendance")
	}
	return ctx.JSON(http.StatusOK, grading.NewReportCard(st, marks, recs))
}

func getTeacherDashboard(ctx echo.Context) error {
	scope, err := getScope(ctx)
	if err != nil {
		return err
	}
	q := new(DateQuery)
	if err = ctx.Bind(q); err != nil {
		return errors.Wrap(err, "binding to DateQuery")
	}
	q.Clean()
	c := ctx.Request().Context()

	students, err := scope.ListStudents(c, records.StudentFilter{})
	if err != nil {
		return errors.Wrap(err, "querying students")
	}
	marks, err := scope.ListMarks(c, records.MarkFilter{})
	if err != nil {
		return errors.Wrap(err, "querying marks")
	}
	day, err := scope.ListAttendance(c, records.AttendanceFilter{Date: q.Date})
	if err != nil {
		return errors.Wrap(err, "querying attendance")
	}
	return ctx.JSON(http.StatusOK, grading.TeacherOverview(students, marks, q.Date, day))
}

func getStudentDashboard(ctx echo.Context) error {
	scope, err := getScope(ctx)
	if err != nil {
		return err
	}
	c := ctx.Request().Context()

	own, err := scope.OwnStudentID(c)
	if err != nil {
		return err
	}
	marks, err := scope.ListMarks(c, records.MarkFilter{})
	if err != nil {
		return errors.Wrap(err, "querying marks")
	}
	recs, err := scope.ListAttendance(c, records.AttendanceFilter{})
	if err != nil {
		return errors.Wrap(err, "querying attendance")
	}
	return ctx.JSON(http.StatusOK, grading.StudentOverview(own, marks, recs))
}
