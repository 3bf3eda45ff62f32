package records

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/trezcool/alama/core"
)

var (
	ErrSuperseded = errors.New("read superseded by a newer one")
	ErrNoSheet    = errors.New("no attendance sheet selected")
)

// Latest tracks a series of reads of which only the most recent may be applied.
type Latest struct {
	mu     sync.Mutex
	seq    uint64
	cancel context.CancelFunc
}

// Begin starts a read and cancels the one still in flight, if any.
func (l *Latest) Begin(ctx context.Context) (context.Context, uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cancel != nil {
		l.cancel()
	}
	ctx, l.cancel = context.WithCancel(ctx)
	l.seq++
	return ctx, l.seq
}

// Finish runs apply only if seq is still the latest read, and reports whether it was.
func (l *Latest) Finish(seq uint64, apply func()) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if seq != l.seq {
		return false
	}
	if apply != nil {
		apply()
	}
	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
	return true
}

// Board holds the attendance sheet of the selected date while it is being edited.
type Board struct {
	scope  *Scope
	latest Latest

	mu    sync.RWMutex
	sheet Sheet
}

func NewBoard(scope *Scope) *Board {
	return &Board{scope: scope}
}

// Select loads the sheet of date. When another Select started meanwhile, the result is
// discarded and ErrSuperseded is returned.
func (b *Board) Select(ctx context.Context, date string) (Sheet, error) {
	rctx, seq := b.latest.Begin(ctx)
	sheet, err := b.scope.AttendanceSheet(rctx, date)

	current := b.latest.Finish(seq, func() {
		if err == nil {
			b.mu.Lock()
			b.sheet = sheet.clone()
			b.mu.Unlock()
		}
	})
	if !current {
		return Sheet{}, ErrSuperseded
	}
	if err != nil {
		return Sheet{}, err
	}
	return sheet, nil
}

func (b *Board) Sheet() Sheet {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.sheet.clone()
}

func (b *Board) Set(studentID string, present bool) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sheet.Set(studentID, present)
}

func (b *Board) MarkAll(present bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sheet.MarkAll(present)
}

// Submit writes the whole sheet. On success every entry is marked recorded.
func (b *Board) Submit(ctx context.Context) ([]AttendanceRecord, error) {
	sheet := b.Sheet()
	if sheet.Date == "" {
		return nil, core.NewInvalidWriteError(ErrNoSheet)
	}
	recs, err := b.scope.SubmitAttendance(ctx, sheet.Batch())
	if err != nil {
		return nil, err
	}

	b.mu.Lock()
	if b.sheet.Date == sheet.Date {
		for i := range b.sheet.Entries {
			b.sheet.Entries[i].Recorded = true
		}
	}
	b.mu.Unlock()
	return recs, nil
}

func (sh Sheet) clone() Sheet {
	entries := make([]SheetEntry, len(sh.Entries))
	copy(entries, sh.Entries)
	return Sheet{Date: sh.Date, Entries: entries}
}
