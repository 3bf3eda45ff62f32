// Package access decides whether the current session may reach a protected operation.
package access

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/alama/core"
	"github.com/trezcool/alama/core/identity"
)

type Decision int

const (
	Pending Decision = iota
	Allow
	RedirectToLogin
	RedirectHome
)

// Redirect targets
const (
	LoginPath   = "/login"
	HomePath    = "/"
	TeacherHome = "/teacher"
	StudentHome = "/student"
)

func (d Decision) String() string {
	switch d {
	case Pending:
		return "pending"
	case Allow:
		return "allow"
	case RedirectToLogin:
		return "redirect_to_login"
	case RedirectHome:
		return "redirect_home"
	}
	return "unknown"
}

// Decide is pure: Loading always yields Pending, before any role is looked at.
// An empty required set allows any authenticated identity.
func Decide(st identity.Status, required ...identity.Role) Decision {
	switch st.State {
	case identity.Loading:
		return Pending
	case identity.Anonymous:
		return RedirectToLogin
	case identity.Authenticated:
		if len(required) == 0 {
			return Allow
		}
		for _, r := range required {
			if st.Identity.Role == r {
				return Allow
			}
		}
		return RedirectHome
	}
	return Pending
}

// Target is where a denied caller should be sent ("" for Allow and Pending).
func Target(d Decision) string {
	switch d {
	case RedirectToLogin:
		return LoginPath
	case RedirectHome:
		return HomePath
	}
	return ""
}

// Home resolves HomePath for a role.
func Home(role identity.Role) string {
	if role == identity.RoleTeacher {
		return TeacherHome
	}
	return StudentHome
}

// Require waits for the resolver to settle and returns the identity when allowed.
// Denials are returned as *core.AuthorizationError carrying the redirect target.
func Require(ctx context.Context, r *identity.Resolver, required ...identity.Role) (identity.Identity, error) {
	st, err := r.Wait(ctx)
	if err != nil {
		return identity.Identity{}, errors.Wrap(err, "waiting for identity")
	}
	d := Decide(st, required...)
	if d == Allow {
		return st.Identity, nil
	}
	return identity.Identity{}, Deny(d, st)
}

// Deny builds the error returned for a non-Allow decision.
// HomePath is resolved to the role's home right away.
func Deny(d Decision, st identity.Status) error {
	aErr := &core.AuthorizationError{Authenticated: st.State == identity.Authenticated}
	switch d {
	case RedirectToLogin:
		aErr.Reason = "authentication required"
		aErr.Redirect = LoginPath
	case RedirectHome:
		aErr.Reason = "permission denied"
		aErr.Redirect = Home(st.Identity.Role)
	default:
		aErr.Reason = "identity not resolved"
	}
	return aErr
}
