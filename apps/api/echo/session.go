package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/alama/core/access"
	"github.com/trezcool/alama/core/records"
)

func registerSessionAPI(g *echo.Group) {
	g.GET("/session", getSession)
	g.POST("/session/signout", signOut, requireRoles())
	g.GET("/catalog", getCatalog, requireRoles())
}

// getSession tells the client who is signed in and where their home is.
func getSession(ctx echo.Context) error {
	scope, err := getScope(ctx)
	if err != nil {
		return err
	}
	id, err := scope.Identity(ctx.Request().Context())
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, SessionResponse{Identity: id, Home: access.Home(id.Role)})
}

// signOut ends the session and drops the cached reads it may have seen.
func signOut(ctx echo.Context) error {
	scope, err := getScope(ctx)
	if err != nil {
		return err
	}
	if err = scope.SignOut(ctx.Request().Context()); err != nil {
		return errors.Wrap(err, "signing out")
	}
	return ctx.JSON(http.StatusOK, SessionResponse{Home: access.LoginPath})
}

func getCatalog(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, CatalogResponse{Subjects: records.Subjects, ExamTypes: records.ExamTypes})
}
