package fine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestComputeOnTime(t *testing.T) {
	p := NewPolicy(5, 500)

	amount, days := p.Compute(date(2024, 1, 1), date(2024, 1, 1))
	assert.Equal(t, float64(0), amount)
	assert.Equal(t, 0, days)

	// Early return is not a negative fine
	amount, days = p.Compute(date(2024, 1, 10), date(2024, 1, 3))
	assert.Equal(t, float64(0), amount)
	assert.Equal(t, 0, days)
}

func TestComputeOverdue(t *testing.T) {
	p := NewPolicy(5, 500)

	amount, days := p.Compute(date(2024, 1, 1), date(2024, 1, 11))
	assert.Equal(t, float64(50), amount)
	assert.Equal(t, 10, days)
}

func TestComputeCappedAtMax(t *testing.T) {
	p := NewPolicy(5, 500)

	// A year overdue: 366 days in 2024, amount clamped to the cap
	amount, days := p.Compute(date(2024, 1, 1), date(2025, 1, 1))
	assert.Equal(t, float64(500), amount)
	assert.Equal(t, 366, days)
}

func TestComputeIgnoresClockTime(t *testing.T) {
	p := NewPolicy(5, 500)

	due := time.Date(2024, 3, 1, 23, 50, 0, 0, time.UTC)
	ret := time.Date(2024, 3, 2, 0, 10, 0, 0, time.UTC)

	amount, days := p.Compute(due, ret)
	assert.Equal(t, 1, days)
	assert.Equal(t, float64(5), amount)
}

func TestClassify(t *testing.T) {
	assert.Equal(t, SeverityNone, Classify(0))
	assert.Equal(t, SeverityMinor, Classify(1))
	assert.Equal(t, SeverityMinor, Classify(7))
	assert.Equal(t, SeverityModerate, Classify(8))
	assert.Equal(t, SeverityModerate, Classify(30))
	assert.Equal(t, SeveritySevere, Classify(31))
}
