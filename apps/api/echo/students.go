package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/alama/core"
	"github.com/trezcool/alama/core/identity"
	"github.com/trezcool/alama/core/records"
	rostersvc "github.com/trezcool/alama/services/roster"
)

const importFileField = "file"

func registerStudentAPI(g *echo.Group) {
	sg := g.Group("/students", requireRoles(identity.RoleTeacher))
	sg.GET("", queryStudents)
	sg.POST("", createStudent)
	sg.POST("/import", importStudents)
}

func queryStudents(ctx echo.Context) error {
	scope, err := getScope(ctx)
	if err != nil {
		return err
	}
	filter := new(records.StudentFilter)
	if err = ctx.Bind(filter); err != nil {
		return errors.Wrap(err, "binding to StudentFilter")
	}

	students, err := scope.ListStudents(ctx.Request().Context(), *filter)
	if err != nil {
		return errors.Wrap(err, "querying students")
	}
	return ctx.JSON(http.StatusOK, students)
}

func createStudent(ctx echo.Context) error {
	scope, err := getScope(ctx)
	if err != nil {
		return err
	}
	var data records.NewStudent
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewStudent")
	}

	st, err := scope.CreateStudent(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating student")
	}
	return ctx.JSON(http.StatusCreated, st)
}

// importStudents creates the students of an uploaded xlsx roster.
func importStudents(ctx echo.Context) error {
	scope, err := getScope(ctx)
	if err != nil {
		return err
	}
	fh, err := ctx.FormFile(importFileField)
	if err != nil {
		return core.NewValidationError(err, core.FieldError{Field: importFileField, Error: "this field is required"})
	}
	src, err := fh.Open()
	if err != nil {
		return errors.Wrap(err, "opening uploaded file")
	}
	defer func() { _ = src.Close() }()

	rows, err := rostersvc.ReadStudents(src)
	if err != nil {
		return core.NewValidationError(err, core.FieldError{Field: importFileField, Error: errors.Cause(err).Error()})
	}
	report, err := rostersvc.CreateAll(ctx.Request().Context(), scope, rows)
	if err != nil {
		return errors.Wrap(err, "importing students")
	}
	return ctx.JSON(http.StatusOK, report)
}
