package fine

import (
	"testing"
	"time"

	"circulation/internal/domain/entity"

	"github.com/stretchr/testify/assert"
)

func TestDaysBetween_CountsCalendarDaysInLocation(t *testing.T) {
	loc := time.FixedZone("ICT", 7*60*60)
	calc := NewCalculator(loc)

	due := time.Date(2024, 3, 10, 23, 30, 0, 0, loc)
	assert.Equal(t, 0, calc.DaysBetween(due, due.Add(20*time.Minute)))
	assert.Equal(t, 1, calc.DaysBetween(due, due.Add(40*time.Minute)))
	assert.Equal(t, -1, calc.DaysBetween(due, due.Add(-24*time.Hour)))
	assert.Equal(t, 3, calc.DaysBetween(due, due.AddDate(0, 0, 3)))
}

func TestOverdueFine_ReturnedOnTimeIsZero(t *testing.T) {
	calc := NewCalculator(time.UTC)
	due := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)

	assert.Zero(t, calc.OverdueFine(due, due.AddDate(0, 0, -5), 5000))
	assert.Zero(t, calc.OverdueFine(due, due, 5000))
	assert.Zero(t, calc.OverdueFine(due, due.Add(11*time.Hour), 5000))
}

func TestOverdueFine_ThreeDaysLate(t *testing.T) {
	calc := NewCalculator(time.UTC)
	now := time.Date(2024, 1, 18, 9, 0, 0, 0, time.UTC)
	due := now.AddDate(0, 0, -3)

	assert.Equal(t, int64(15000), calc.OverdueFine(due, now, 5000))
}

func TestOverdueFine_NonNegativeAndNonDecreasing(t *testing.T) {
	calc := NewCalculator(time.UTC)
	due := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)

	prev := int64(-1)
	for offset := -72; offset <= 24*30; offset += 5 {
		got := calc.OverdueFine(due, due.Add(time.Duration(offset)*time.Hour), 2500)
		assert.GreaterOrEqual(t, got, int64(0))
		assert.GreaterOrEqual(t, got, prev, "offset %dh", offset)
		prev = got
	}
}

func TestOverdueFine_ZeroRate(t *testing.T) {
	calc := NewCalculator(nil)
	due := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)

	assert.Zero(t, calc.OverdueFine(due, due.AddDate(0, 1, 0), 0))
	assert.Equal(t, time.UTC, calc.Location())
}

func TestFlatFines(t *testing.T) {
	settings := entity.DefaultSettings()

	assert.Equal(t, int64(100000), LostFine(settings))
	assert.Equal(t, int64(50000), DamagedFine(settings))
}

func TestProjected(t *testing.T) {
	calc := NewCalculator(time.UTC)
	settings := entity.DefaultSettings()
	now := time.Date(2024, 6, 10, 8, 0, 0, 0, time.UTC)

	open := &entity.BorrowRecord{Status: entity.RecordBorrowing, DueDate: now.AddDate(0, 0, -2)}
	assert.Equal(t, int64(10000), calc.Projected(open, settings, now))

	closed := &entity.BorrowRecord{Status: entity.RecordLost, DueDate: now.AddDate(0, 0, -2), Fine: 100000}
	assert.Equal(t, int64(100000), calc.Projected(closed, settings, now))
}
