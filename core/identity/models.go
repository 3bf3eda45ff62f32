package identity

import (
	"context"

	"github.com/pkg/errors"
)

type Role string

// Roles
const (
	RoleTeacher Role = "teacher"
	RoleStudent Role = "student"
)

var (
	Roles = []Role{RoleTeacher, RoleStudent}

	ErrUnknownRole = errors.New("unknown role")
)

func ParseRole(s string) (Role, error) {
	for _, r := range Roles {
		if string(r) == s {
			return r, nil
		}
	}
	return "", ErrUnknownRole
}

// Identity is who a session belongs to. It does not change for the lifetime of a session.
type Identity struct {
	UserID      string `json:"user_id"`
	Role        Role   `json:"role"`
	DisplayName string `json:"display_name"`
}

func (id Identity) IsTeacher() bool { return id.Role == RoleTeacher }
func (id Identity) IsStudent() bool { return id.Role == RoleStudent }

// Session is the opaque credential handed out by the identity provider.
type Session struct {
	Token string
}

type (
	// SessionProvider is the identity provider boundary.
	SessionProvider interface {
		// CurrentSession returns false when nobody is signed in.
		CurrentSession(ctx context.Context) (Session, bool, error)
		SignOut(ctx context.Context) error
	}

	// ProfileLoader maps a provider session to its Identity.
	ProfileLoader interface {
		LoadProfile(ctx context.Context, s Session) (Identity, error)
	}
)
