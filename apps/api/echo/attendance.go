package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/alama/core/identity"
	"github.com/trezcool/alama/core/records"
)

func registerAttendanceAPI(g *echo.Group) {
	ag := g.Group("/attendance")
	ag.GET("", queryAttendance, requireRoles(identity.RoleTeacher, identity.RoleStudent))
	ag.GET("/sheet", getAttendanceSheet, requireRoles(identity.RoleTeacher))
	ag.POST("", submitAttendance, requireRoles(identity.RoleTeacher))
}

func queryAttendance(ctx echo.Context) error {
	scope, err := getScope(ctx)
	if err != nil {
		return err
	}
	filter := new(records.AttendanceFilter)
	if err = ctx.Bind(filter); err != nil {
		return errors.Wrap(err, "binding to AttendanceFilter")
	}

	recs, err := scope.ListAttendance(ctx.Request().Context(), *filter)
	if err != nil {
		return errors.Wrap(err, "querying attendance")
	}
	return ctx.JSON(http.StatusOK, recs)
}

// getAttendanceSheet returns the whole roster for a date, students without a record shown present.
func getAttendanceSheet(ctx echo.Context) error {
	scope, err := getScope(ctx)
	if err != nil {
		return err
	}
	q := new(DateQuery)
	if err = ctx.Bind(q); err != nil {
		return errors.Wrap(err, "binding to DateQuery")
	}
	q.Clean()

	sheet, err := scope.AttendanceSheet(ctx.Request().Context(), q.Date)
	if err != nil {
		return errors.Wrap(err, "building attendance sheet")
	}
	return ctx.JSON(http.StatusOK, newSheetResponse(sheet))
}

// submitAttendance upserts a batch: one record per student and date, the last submission wins.
func submitAttendance(ctx echo.Context) error {
	scope, err := getScope(ctx)
	if err != nil {
		return err
	}
	var data AttendanceRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to AttendanceRequest")
	}

	recs, err := scope.SubmitAttendance(ctx.Request().Context(), data.Records)
	if err != nil {
		return errors.Wrap(err, "submitting attendance")
	}
	return ctx.JSON(http.StatusOK, recs)
}
