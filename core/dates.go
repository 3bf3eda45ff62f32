package core

import (
	"time"

	"github.com/pkg/errors"
)

// DateLayout is the ISO-8601 calendar date exchanged across every boundary.
const DateLayout = "2006-01-02"

var ErrInvalidDate = errors.New("invalid date, expected YYYY-MM-DD")

// ParseDate parses a YYYY-MM-DD calendar date. Out-of-range days (2024-02-30) are rejected.
func ParseDate(s string) (time.Time, error) {
	if len(s) != len(DateLayout) {
		return time.Time{}, ErrInvalidDate
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return t, nil
}

func IsDate(s string) bool {
	_, err := ParseDate(s)
	return err == nil
}

// FormatDate returns the calendar date of t (in t's location).
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}
