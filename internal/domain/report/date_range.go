package report

import (
	"time"

	"github.com/procurement/backend/internal/domain/shared"
)

// DateRange is an inclusive range of UTC calendar days
type DateRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// ResolveDateRange fills each missing bound independently from the calendar
// month containing now: from defaults to its first day, to to its last day.
func ResolveDateRange(from, to *time.Time, now time.Time) (DateRange, error) {
	monthStart := time.Date(now.UTC().Year(), now.UTC().Month(), 1, 0, 0, 0, 0, time.UTC)

	r := DateRange{
		From: monthStart,
		To:   monthStart.AddDate(0, 1, -1),
	}
	if from != nil {
		r.From = StartOfDay(*from)
	}
	if to != nil {
		r.To = StartOfDay(*to)
	}
	if r.From.After(r.To) {
		return DateRange{}, shared.NewValidationError("from", "Start date must not be after end date")
	}
	return r, nil
}

// Start returns the first instant of the range
func (r DateRange) Start() time.Time {
	return r.From
}

// EndExclusive returns the first instant after the range
func (r DateRange) EndExclusive() time.Time {
	return r.To.AddDate(0, 0, 1)
}

// Contains reports whether t falls on a day within the range
func (r DateRange) Contains(t time.Time) bool {
	return !t.Before(r.Start()) && t.Before(r.EndExclusive())
}

// Key is a compact representation used in cache keys
func (r DateRange) Key() string {
	return r.From.Format("20060102") + "-" + r.To.Format("20060102")
}

// StartOfDay truncates t to midnight UTC of its UTC calendar day
func StartOfDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the number of whole UTC calendar days from a to b
func DaysBetween(a, b time.Time) int {
	return int(StartOfDay(b).Sub(StartOfDay(a)).Hours() / 24)
}
