// Package fine computes circulation penalties. Every function is pure.
package fine

import (
	"time"

	"circulation/internal/domain/entity"
)

const day = 24 * time.Hour

// Calculator counts calendar days in a fixed location.
type Calculator struct {
	loc *time.Location
}

// NewCalculator returns a calculator for the given location; nil means UTC.
func NewCalculator(loc *time.Location) *Calculator {
	if loc == nil {
		loc = time.UTC
	}

	return &Calculator{loc: loc}
}

// Location returns the location calendar days are counted in.
func (c *Calculator) Location() *time.Location {
	return c.loc
}

// DaysBetween returns the number of calendar-day boundaries crossed going
// from -> to. It is negative when to is on an earlier date.
func (c *Calculator) DaysBetween(from, to time.Time) int {
	fy, fm, fd := from.In(c.loc).Date()
	ty, tm, td := to.In(c.loc).Date()
	start := time.Date(fy, fm, fd, 0, 0, 0, 0, time.UTC)
	end := time.Date(ty, tm, td, 0, 0, 0, 0, time.UTC)

	return int(end.Sub(start) / day)
}

// OverdueFine is max(0, DaysBetween(due, effective)) * perDay.
func (c *Calculator) OverdueFine(due, effective time.Time, perDay int64) int64 {
	if perDay <= 0 {
		return 0
	}
	days := c.DaysBetween(due, effective)
	if days <= 0 {
		return 0
	}

	return int64(days) * perDay
}

// LostFine is the flat penalty for a lost copy.
func LostFine(settings entity.Settings) int64 {
	return settings.LostBookFine
}

// DamagedFine is the flat penalty for a damaged copy.
func DamagedFine(settings entity.Settings) int64 {
	return settings.DamagedBookFine
}

// Projected returns the fine a record carries as of now: the stored fine
// for closed records, the accrued overdue fine for open ones.
func (c *Calculator) Projected(record *entity.BorrowRecord, settings entity.Settings, now time.Time) int64 {
	if record.Status.IsTerminal() {
		return record.Fine
	}

	return c.OverdueFine(record.DueDate, now, settings.OverdueFinePerDay)
}
