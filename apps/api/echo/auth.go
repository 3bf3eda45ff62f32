package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/alama/core/access"
	"github.com/trezcool/alama/core/identity"
	"github.com/trezcool/alama/core/records"
	sessionsvc "github.com/trezcool/alama/services/session"
)

const (
	contextResolverKey = "resolver"
	contextScopeKey    = "scope"
)

// sessionMiddleware resolves the bearer token of the request into an identity and exposes the
// records scope of that identity to the handlers. Missing or bad tokens resolve to anonymous;
// the guard turns that into a login redirect once a protected operation is reached.
func (s *Server) sessionMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		req := ctx.Request()
		token := sessionsvc.TokenFromHeader(req.Header.Get(echo.HeaderAuthorization))

		r, err := s.deps.Issuer.NewResolver(req.Context(), token)
		if err != nil {
			ctx.Logger().Debugf("resolving session: %v", err)
		}
		ctx.Set(contextResolverKey, r)
		ctx.Set(contextScopeKey, s.deps.Gateway.Scope(r, s.deps.Linker))
		return next(ctx)
	}
}

// requireRoles denies the route, before its handler runs, to identities without one of roles.
// No roles lets any signed in identity through.
func requireRoles(roles ...identity.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			r, ok := ctx.Get(contextResolverKey).(*identity.Resolver)
			if !ok {
				return errNoScope
			}
			if _, err := access.Require(ctx.Request().Context(), r, roles...); err != nil {
				return err
			}
			return next(ctx)
		}
	}
}

func getScope(ctx echo.Context) (*records.Scope, error) {
	if scope, ok := ctx.Get(contextScopeKey).(*records.Scope); ok {
		return scope, nil
	}
	return nil, errors.Wrap(errNoScope, "retrieving scope from context")
}

// withIdentity appends the signed in identity, if any, to logger args.
func withIdentity(ctx echo.Context, args ...interface{}) []interface{} {
	if r, ok := ctx.Get(contextResolverKey).(*identity.Resolver); ok {
		if st := r.Status(); st.State == identity.Authenticated {
			args = append(args, st.Identity)
		}
	}
	return args
}
