// Package window computes the date ranges each upstream resource is queried
// with for a single run.
package window

import (
	"fmt"
	"time"

	"awin_tap/internal/domain"
)

// Precision selects how window bounds are truncated and formatted.
type Precision int

const (
	// Seconds is used by resources that accept full timestamps (transactions).
	Seconds Precision = iota
	// Date is used by resources that accept calendar dates only.
	Date
)

const secondsLayout = "2006-01-02T15:04:05"

func (p Precision) String() string {
	if p == Date {
		return "date"
	}
	return "seconds"
}

// Window is an inclusive [Start, End] range.
type Window struct {
	Start     time.Time
	End       time.Time
	Precision Precision
}

// Compute derives the window starting at reference and spanning incrementDays.
//
// With Seconds precision the end is the last second before
// reference + incrementDays. With Date precision the end is the last calendar
// day of the span. Both keep the reference's UTC offset.
func Compute(reference time.Time, incrementDays int, precision Precision) Window {
	if precision == Date {
		start := time.Date(reference.Year(), reference.Month(), reference.Day(), 0, 0, 0, 0, reference.Location())
		return Window{
			Start:     start,
			End:       start.AddDate(0, 0, incrementDays-1),
			Precision: Date,
		}
	}

	start := reference.Truncate(time.Second)
	return Window{
		Start:     start,
		End:       start.AddDate(0, 0, incrementDays).Add(-time.Second),
		Precision: Seconds,
	}
}

// StartString formats the lower bound the way the upstream API expects it.
func (w Window) StartString() string {
	return w.format(w.Start)
}

// EndString formats the upper bound the way the upstream API expects it.
func (w Window) EndString() string {
	return w.format(w.End)
}

func (w Window) format(t time.Time) string {
	if w.Precision == Date {
		return t.Format(time.DateOnly)
	}
	return t.Format(secondsLayout)
}

// ParseStartDate parses the configured start date.
func ParseStartDate(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", domain.ErrInvalidDateFormat, s)
	}
	return t, nil
}

// ParseWatermark parses a persisted last_fetched value.
func ParseWatermark(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse last_fetched: %w: %q", domain.ErrInvalidDateFormat, s)
	}
	return t, nil
}

// FormatWatermark renders t as a last_fetched value.
func FormatWatermark(t time.Time) string {
	return t.Format(time.RFC3339)
}

// NextReference returns the reference date of the run following the one
// whose window ended at lastFetched.
func NextReference(lastFetched time.Time) time.Time {
	return lastFetched.Add(time.Second)
}
