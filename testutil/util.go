package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/trezcool/alama/core"
	"github.com/trezcool/alama/core/identity"
	"github.com/trezcool/alama/core/records"
	"github.com/trezcool/alama/storage/database"
)

// OpenDB returns a migrated in-memory SQLite database, closed when the test ends.
func OpenDB(t *testing.T) *sqlx.DB {
	t.Helper()
	conf := &core.Config{Database: core.DatabaseConfig{Engine: database.SQLite, Name: ":memory:"}}
	db, err := database.Open(conf)
	if err != nil {
		t.Fatalf("OpenDB() failed: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err = database.Migrate(db); err != nil {
		t.Fatalf("OpenDB() failed: %v", err)
	}
	return db
}

// CreateStudent inserts a student straight into the store.
func CreateStudent(
	t *testing.T,
	store records.StudentStore,
	name, rollNumber, class, section string,
	createdAt ...time.Time,
) records.Student {
	t.Helper()
	tstamp := time.Now().UTC().Truncate(time.Microsecond)
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	st, err := store.InsertStudent(context.Background(), records.Student{
		ID:          uuid.NewString(),
		Name:        name,
		RollNumber:  rollNumber,
		Class:       class,
		Section:     section,
		DateOfBirth: "2010-05-17",
		CreatedAt:   tstamp,
	})
	if err != nil {
		t.Fatalf("CreateStudent() failed: %v", err)
	}
	return st
}

// Clock makes records.NowFunc tick one second per call from start. It is reset when the test ends.
func Clock(t *testing.T, start time.Time) {
	t.Helper()
	now := start.UTC()
	records.NowFunc = func() time.Time {
		now = now.Add(time.Second)
		return now
	}
	t.Cleanup(func() { records.NowFunc = time.Now })
}

type NopLogger struct{}

var _ core.Logger = NopLogger{}

func (NopLogger) Debug(string, ...interface{}) {}
func (NopLogger) Info(string, ...interface{})  {}
func (NopLogger) Warn(string, ...interface{})  {}
func (NopLogger) Error(string, ...interface{}) {}
func (NopLogger) Fatal(string, ...interface{}) {}

type staticSession struct {
	id *identity.Identity
}

func (s *staticSession) CurrentSession(context.Context) (identity.Session, bool, error) {
	if s.id == nil {
		return identity.Session{}, false, nil
	}
	return identity.Session{Token: s.id.UserID}, true, nil
}

func (s *staticSession) SignOut(context.Context) error {
	s.id = nil
	return nil
}

func (s *staticSession) LoadProfile(_ context.Context, _ identity.Session) (identity.Identity, error) {
	return *s.id, nil
}

// Resolver returns a bootstrapped resolver signed in as id, or anonymous when id is nil.
func Resolver(t *testing.T, id *identity.Identity) *identity.Resolver {
	t.Helper()
	sess := &staticSession{id: id}
	r := identity.NewResolver(sess, sess)
	if err := r.Bootstrap(context.Background()); err != nil {
		t.Fatalf("Resolver() failed: %v", err)
	}
	return r
}

var (
	Teacher = identity.Identity{UserID: "teacher-1", Role: identity.RoleTeacher, DisplayName: "Mwalimu Juma"}
)

// Student returns the identity of the student whose record id is studentID.
func Student(studentID, name string) identity.Identity {
	return identity.Identity{UserID: studentID, Role: identity.RoleStudent, DisplayName: name}
}
