package access

import (
	"context"
	"testing"

	"github.com/pkg/errors"

	"github.com/trezcool/alama/core"
	"github.com/trezcool/alama/core/identity"
)

var (
	teacherID = identity.Identity{UserID: "t1", Role: identity.RoleTeacher, DisplayName: "T"}
	studentID = identity.Identity{UserID: "s1", Role: identity.RoleStudent, DisplayName: "S"}

	loading   = identity.Status{State: identity.Loading}
	anonymous = identity.Status{State: identity.Anonymous}
	teacher   = identity.Status{State: identity.Authenticated, Identity: teacherID}
	student   = identity.Status{State: identity.Authenticated, Identity: studentID}
	// a Loading status already carrying an identity must still be Pending
	resolving = identity.Status{State: identity.Loading, Identity: teacherID}
)

func TestDecide(t *testing.T) {
	tests := []struct {
		name     string
		status   identity.Status
		required []identity.Role
		want     Decision
	}{
		{name: "loading, any", status: loading, want: Pending},
		{name: "loading, teacher", status: loading, required: []identity.Role{identity.RoleTeacher}, want: Pending},
		{name: "resolving to allowed role", status: resolving, required: []identity.Role{identity.RoleTeacher}, want: Pending},
		{name: "anonymous, any", status: anonymous, want: RedirectToLogin},
		{name: "anonymous, teacher", status: anonymous, required: []identity.Role{identity.RoleTeacher}, want: RedirectToLogin},
		{name: "teacher, any", status: teacher, want: Allow},
		{name: "teacher, teacher", status: teacher, required: []identity.Role{identity.RoleTeacher}, want: Allow},
		{name: "teacher, student", status: teacher, required: []identity.Role{identity.RoleStudent}, want: RedirectHome},
		{name: "student, teacher", status: student, required: []identity.Role{identity.RoleTeacher}, want: RedirectHome},
		{
			name: "student, teacher or student", status: student,
			required: []identity.Role{identity.RoleTeacher, identity.RoleStudent}, want: Allow,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// idempotent: same answer on every call
			for i := 0; i < 3; i++ {
				if got := Decide(tt.status, tt.required...); got != tt.want {
					t.Fatalf("Decide() = %v, want %v", got, tt.want)
				}
			}
		})
	}
}

func TestTargetAndHome(t *testing.T) {
	if got := Target(RedirectToLogin); got != LoginPath {
		t.Errorf("Target(RedirectToLogin) = %q", got)
	}
	if got := Target(RedirectHome); got != HomePath {
		t.Errorf("Target(RedirectHome) = %q", got)
	}
	if got := Target(Allow); got != "" {
		t.Errorf("Target(Allow) = %q", got)
	}
	if got := Home(identity.RoleTeacher); got != TeacherHome {
		t.Errorf("Home(teacher) = %q", got)
	}
	if got := Home(identity.RoleStudent); got != StudentHome {
		t.Errorf("Home(student) = %q", got)
	}
}

type staticProvider struct{ token string }

func (p staticProvider) CurrentSession(context.Context) (identity.Session, bool, error) {
	return identity.Session{Token: p.token}, p.token != "", nil
}

func (p staticProvider) SignOut(context.Context) error { return nil }

type staticProfiles map[string]identity.Identity

func (sp staticProfiles) LoadProfile(_ context.Context, s identity.Session) (identity.Identity, error) {
	return sp[s.Token], nil
}

func TestRequire(t *testing.T) {
	profiles := staticProfiles{"t": teacherID, "s": studentID}

	tests := []struct {
		name         string
		token        string
		required     []identity.Role
		wantRedirect string
		wantAuthed   bool
	}{
		{name: "anonymous", required: []identity.Role{identity.RoleTeacher}, wantRedirect: LoginPath},
		{name: "student on teacher view", token: "s", required: []identity.Role{identity.RoleTeacher}, wantRedirect: StudentHome, wantAuthed: true},
		{name: "teacher on student view", token: "t", required: []identity.Role{identity.RoleStudent}, wantRedirect: TeacherHome, wantAuthed: true},
		{name: "teacher allowed", token: "t", required: []identity.Role{identity.RoleTeacher}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := identity.NewResolver(staticProvider{token: tt.token}, profiles)
			if err := r.Bootstrap(context.Background()); err != nil {
				t.Fatal(err)
			}
			id, err := Require(context.Background(), r, tt.required...)
			if tt.wantRedirect == "" {
				if err != nil {
					t.Fatalf("Require() unexpected error = %v", err)
				}
				if id != profiles[tt.token] {
					t.Errorf("Require() identity = %+v", id)
				}
				return
			}
			var aErr *core.AuthorizationError
			if !errors.As(err, &aErr) {
				t.Fatalf("Require() error = %v, want *core.AuthorizationError", err)
			}
			if aErr.Redirect != tt.wantRedirect || aErr.Authenticated != tt.wantAuthed {
				t.Errorf("Require() error = %+v, want redirect %q authenticated %v", aErr, tt.wantRedirect, tt.wantAuthed)
			}
		})
	}
}

func TestRequire_CanceledWhileLoading(t *testing.T) {
	r := identity.NewResolver(staticProvider{}, staticProfiles{}) // never bootstrapped
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Require(ctx, r); errors.Cause(err) != context.Canceled {
		t.Errorf("Require() error = %v, want %v", err, context.Canceled)
	}
}
