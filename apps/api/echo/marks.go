package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/alama/core/identity"
	"github.com/trezcool/alama/core/records"
)

func registerMarkAPI(g *echo.Group) {
	mg := g.Group("/marks")
	mg.GET("", queryMarks, requireRoles(identity.RoleTeacher, identity.RoleStudent))
	mg.POST("", createMark, requireRoles(identity.RoleTeacher))
}

// queryMarks lists marks newest first. Students only ever get their own.
func queryMarks(ctx echo.Context) error {
	scope, err := getScope(ctx)
	if err != nil {
		return err
	}
	filter := new(records.MarkFilter)
	if err = ctx.Bind(filter); err != nil {
		return errors.Wrap(err, "binding to MarkFilter")
	}

	marks, err := scope.ListMarks(ctx.Request().Context(), *filter)
	if err != nil {
		return errors.Wrap(err, "querying marks")
	}
	return ctx.JSON(http.StatusOK, marks)
}

func createMark(ctx echo.Context) error {
	scope, err := getScope(ctx)
	if err != nil {
		return err
	}
	var data records.NewMark
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewMark")
	}

	m, err := scope.CreateMark(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating mark")
	}
	return ctx.JSON(http.StatusCreated, m)
}
