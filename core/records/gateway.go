package records

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/alama/core"
)

var (
	NowFunc   = time.Now       // mockable
	NewIDFunc = uuid.NewString // mockable
)

// Gateway is the single read/write path to the record collections.
//
// Reads are served from the cache, keyed by kind, the kind's local generation and the filter.
// Every successful write bumps the generation of the written kind and invalidates it, so a read
// issued after a write returns never sees pre-write data, even when the shared cache could not be
// invalidated or a slower read re-filled it.
type Gateway struct {
	store  Store
	cache  Cache
	logger core.Logger

	mu          sync.Mutex
	generations map[Kind]uint64
}

func NewGateway(store Store, cache Cache, logger core.Logger) *Gateway {
	return &Gateway{
		store:       store,
		cache:       cache,
		logger:      logger,
		generations: make(map[Kind]uint64, len(Kinds)),
	}
}

func (gw *Gateway) ListStudents(ctx context.Context, filter StudentFilter) ([]Student, error) {
	filter.Clean()
	return cachedRead(ctx, gw, KindStudents, filter.key(), func(ctx context.Context) ([]Student, error) {
		return gw.store.SelectStudents(ctx, filter)
	})
}

// GetStudent finds a student by id, through the cached roster.
func (gw *Gateway) GetStudent(ctx context.Context, id string) (Student, error) {
	id = core.CleanString(id)
	students, err := gw.ListStudents(ctx, StudentFilter{})
	if err != nil {
		return Student{}, err
	}
	for _, s := range students {
		if s.ID == id {
			return s, nil
		}
	}
	return Student{}, ErrStudentNotFound
}

// ListMarks returns the newest marks first.
func (gw *Gateway) ListMarks(ctx context.Context, filter MarkFilter) ([]Mark, error) {
	filter.Clean()
	return cachedRead(ctx, gw, KindMarks, filter.key(), func(ctx context.Context) ([]Mark, error) {
		return gw.store.SelectMarks(ctx, filter)
	})
}

// ListAttendance returns records ordered by student name.
func (gw *Gateway) ListAttendance(ctx context.Context, filter AttendanceFilter) ([]AttendanceRecord, error) {
	filter.Clean()
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	return cachedRead(ctx, gw, KindAttendance, filter.key(), func(ctx context.Context) ([]AttendanceRecord, error) {
		return gw.store.SelectAttendance(ctx, filter)
	})
}

func (gw *Gateway) CreateStudent(ctx context.Context, data NewStudent) (Student, error) {
	if err := data.Validate(); err != nil {
		return Student{}, err
	}

	s, err := gw.store.InsertStudent(ctx, Student{
		ID:          NewIDFunc(),
		Name:        data.Name,
		RollNumber:  data.RollNumber,
		Class:       data.Class,
		Section:     data.Section,
		DateOfBirth: data.DateOfBirth,
		CreatedAt:   NowFunc().UTC(),
	})
	if err != nil {
		if errors.Cause(err) == ErrRollNumberExists {
			return Student{}, core.NewConflictError(ErrRollNumberExists, "roll_number")
		}
		return Student{}, core.NewWriteError(errors.Wrap(err, "inserting student"))
	}

	gw.invalidate(ctx, KindStudents)
	return s, nil
}

func (gw *Gateway) CreateMark(ctx context.Context, data NewMark) (Mark, error) {
	if err := data.Validate(); err != nil {
		return Mark{}, err
	}

	m, err := gw.store.InsertMark(ctx, Mark{
		ID:            NewIDFunc(),
		StudentID:     data.StudentID,
		Subject:       data.Subject,
		ExamType:      data.ExamType,
		MarksObtained: *data.MarksObtained,
		MaxMarks:      *data.MaxMarks,
		CreatedAt:     NowFunc().UTC(),
	})
	if err != nil {
		if errors.Cause(err) == ErrStudentNotFound {
			return Mark{}, core.NewValidationError(err, core.FieldError{Field: "student_id", Error: ErrStudentNotFound.Error()})
		}
		return Mark{}, core.NewWriteError(errors.Wrap(err, "inserting mark"))
	}

	gw.invalidate(ctx, KindMarks)
	return m, nil
}

// Purge drops every cached read. It is hooked to sign-out.
func (gw *Gateway) Purge(ctx context.Context) {
	gw.invalidate(ctx, Kinds...)
}

func (gw *Gateway) generation(kind Kind) uint64 {
	gw.mu.Lock()
	defer gw.mu.Unlock()
	return gw.generations[kind]
}

func (gw *Gateway) invalidate(ctx context.Context, kinds ...Kind) {
	gw.mu.Lock()
	for _, kind := range kinds {
		gw.generations[kind]++
	}
	gw.mu.Unlock()

	if err := gw.cache.Invalidate(ctx, kinds...); err != nil {
		gw.logger.Error("invalidating cache", errors.Wrapf(err, "invalidating %v", kinds))
	}
}

func cachedRead[T any](ctx context.Context, gw *Gateway, kind Kind, filterKey string, load func(context.Context) ([]T, error)) ([]T, error) {
	key := "g" + strconv.FormatUint(gw.generation(kind), 10) + "?" + filterKey

	data, ok, err := gw.cache.Get(ctx, kind, key)
	if err != nil {
		gw.logger.Warn("reading cache", errors.Wrapf(err, "getting %s %s", kind, key))
	} else if ok {
		var items []T
		if err = json.Unmarshal(data, &items); err == nil {
			return items, nil
		}
		gw.logger.Warn("decoding cached records", errors.Wrapf(err, "decoding %s %s", kind, key))
	}

	items, err := load(ctx)
	if err != nil {
		return nil, errors.Wrapf(err, "selecting %s", kind)
	}
	if items == nil {
		items = []T{}
	}

	if data, err = json.Marshal(items); err == nil {
		err = gw.cache.Set(ctx, kind, key, data)
	}
	if err != nil {
		gw.logger.Warn("writing cache", errors.Wrapf(err, "setting %s %s", kind, key))
	}
	return items, nil
}
