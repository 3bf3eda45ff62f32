package records

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/alama/core/access"
	"github.com/trezcool/alama/core/identity"
)

// Linker correlates a student Identity with their Student record.
type Linker interface {
	StudentID(ctx context.Context, id identity.Identity) (string, error)
}

type LinkerFunc func(ctx context.Context, id identity.Identity) (string, error)

func (f LinkerFunc) StudentID(ctx context.Context, id identity.Identity) (string, error) {
	return f(ctx, id)
}

// SameIDLinker treats a student's user id as their student record id.
var SameIDLinker Linker = LinkerFunc(func(_ context.Context, id identity.Identity) (string, error) {
	return id.UserID, nil
})

// Scope runs Gateway operations on behalf of the session held by a Resolver.
// Every call goes through the access guard first and blocks while the identity is loading.
// Teachers may do everything; students may only read their own marks and attendance.
type Scope struct {
	gw       *Gateway
	resolver *identity.Resolver
	linker   Linker
}

// Scope binds the gateway to r. Signing r out purges the gateway's cached reads.
func (gw *Gateway) Scope(r *identity.Resolver, linker Linker) *Scope {
	r.OnSignOut(gw.Purge)
	return &Scope{gw: gw, resolver: r, linker: linker}
}

// SignOut ends the session of the scope's identity.
func (s *Scope) SignOut(ctx context.Context) error {
	return s.resolver.SignOut(ctx)
}

// Identity returns the signed in identity, whatever its role.
func (s *Scope) Identity(ctx context.Context) (identity.Identity, error) {
	return access.Require(ctx, s.resolver)
}

// OwnStudentID returns the Student id of a signed in student.
func (s *Scope) OwnStudentID(ctx context.Context) (string, error) {
	id, err := access.Require(ctx, s.resolver, identity.RoleStudent)
	if err != nil {
		return "", err
	}
	return s.studentID(ctx, id)
}

func (s *Scope) ListStudents(ctx context.Context, filter StudentFilter) ([]Student, error) {
	if _, err := access.Require(ctx, s.resolver, identity.RoleTeacher); err != nil {
		return nil, err
	}
	return s.gw.ListStudents(ctx, filter)
}

// Student returns a student record. Students may only fetch their own.
func (s *Scope) Student(ctx context.Context, id string) (Student, error) {
	who, err := access.Require(ctx, s.resolver, identity.RoleTeacher, identity.RoleStudent)
	if err != nil {
		return Student{}, err
	}
	if who.IsStudent() {
		if id, err = s.restrict(ctx, who, id); err != nil {
			return Student{}, err
		}
	}
	return s.gw.GetStudent(ctx, id)
}

func (s *Scope) ListMarks(ctx context.Context, filter MarkFilter) ([]Mark, error) {
	id, err := access.Require(ctx, s.resolver, identity.RoleTeacher, identity.RoleStudent)
	if err != nil {
		return nil, err
	}
	filter.Clean()
	if id.IsStudent() {
		if filter.StudentID, err = s.restrict(ctx, id, filter.StudentID); err != nil {
			return nil, err
		}
	}
	return s.gw.ListMarks(ctx, filter)
}

func (s *Scope) ListAttendance(ctx context.Context, filter AttendanceFilter) ([]AttendanceRecord, error) {
	id, err := access.Require(ctx, s.resolver, identity.RoleTeacher, identity.RoleStudent)
	if err != nil {
		return nil, err
	}
	filter.Clean()
	if id.IsStudent() {
		if filter.StudentID, err = s.restrict(ctx, id, filter.StudentID); err != nil {
			return nil, err
		}
	}
	return s.gw.ListAttendance(ctx, filter)
}

func (s *Scope) CreateStudent(ctx context.Context, data NewStudent) (Student, error) {
	if _, err := access.Require(ctx, s.resolver, identity.RoleTeacher); err != nil {
		return Student{}, err
	}
	return s.gw.CreateStudent(ctx, data)
}

func (s *Scope) CreateMark(ctx context.Context, data NewMark) (Mark, error) {
	if _, err := access.Require(ctx, s.resolver, identity.RoleTeacher); err != nil {
		return Mark{}, err
	}
	return s.gw.CreateMark(ctx, data)
}

func (s *Scope) SubmitAttendance(ctx context.Context, batch []AttendanceInput) ([]AttendanceRecord, error) {
	if _, err := access.Require(ctx, s.resolver, identity.RoleTeacher); err != nil {
		return nil, err
	}
	return s.gw.SubmitAttendance(ctx, batch)
}

// AttendanceSheet merges the stored attendance of date over the whole roster.
func (s *Scope) AttendanceSheet(ctx context.Context, date string) (Sheet, error) {
	filter := AttendanceFilter{Date: date}
	filter.Clean()
	if err := filter.Validate(); err != nil {
		return Sheet{}, err
	}
	roster, err := s.ListStudents(ctx, StudentFilter{})
	if err != nil {
		return Sheet{}, errors.Wrap(err, "listing students")
	}
	recs, err := s.ListAttendance(ctx, filter)
	if err != nil {
		return Sheet{}, errors.Wrap(err, "listing attendance")
	}
	return MergeDefaults(filter.Date, roster, recs), nil
}

// restrict pins a student's read to their own record.
func (s *Scope) restrict(ctx context.Context, id identity.Identity, requested string) (string, error) {
	own, err := s.studentID(ctx, id)
	if err != nil {
		return "", err
	}
	if requested != "" && requested != own {
		return "", access.Deny(access.RedirectHome, identity.Status{State: identity.Authenticated, Identity: id})
	}
	return own, nil
}

func (s *Scope) studentID(ctx context.Context, id identity.Identity) (string, error) {
	own, err := s.linker.StudentID(ctx, id)
	if err != nil {
		return "", errors.Wrap(err, "linking student")
	}
	return own, nil
}
