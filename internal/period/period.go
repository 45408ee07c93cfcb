// Package period resolves "YYYY-MM" month keys into UTC time ranges.
// All month arithmetic in the application goes through this package so
// that transactions near month boundaries are never misfiled by the
// server's local time zone.
package period

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	apperrors "cuentas/internal/errors"
)

// Month identifies a calendar month.
type Month struct {
	Year  int
	Month time.Month
}

// Parse parses a "YYYY-MM" month key. The year must have four digits and
// the month must be between 1 and 12.
func Parse(key string) (Month, error) {
	parts := strings.Split(key, "-")
	if len(parts) != 2 || len(parts[0]) != 4 || len(parts[1]) != 2 {
		return Month{}, apperrors.ErrInvalidMonth
	}

	year, err := strconv.Atoi(parts[0])
	if err != nil {
		return Month{}, apperrors.ErrInvalidMonth
	}
	month, err := strconv.Atoi(parts[1])
	if err != nil || month < 1 || month > 12 {
		return Month{}, apperrors.ErrInvalidMonth
	}

	return Month{Year: year, Month: time.Month(month)}, nil
}

// Of returns the Month containing the given instant, using its UTC
// calendar components.
func Of(t time.Time) Month {
	u := t.UTC()
	return Month{Year: u.Year(), Month: u.Month()}
}

// Key returns the canonical "YYYY-MM" form of the month.
func (m Month) Key() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

// Range returns the inclusive UTC bounds of the month: the first instant
// of day one and the last nanosecond of the final day. December rolls the
// exclusive upper boundary into January of the following year.
func (m Month) Range() (start, end time.Time) {
	start = time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC)
	end = start.AddDate(0, 1, 0).Add(-time.Nanosecond)
	return start, end
}

// Contains reports whether the instant falls inside the month in UTC.
func (m Month) Contains(t time.Time) bool {
	start, end := m.Range()
	u := t.UTC()
	return !u.Before(start) && !u.After(end)
}
