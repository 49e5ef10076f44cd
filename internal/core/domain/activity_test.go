package domain_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/lorrc/helpdesk-metrics-backend/internal/core/domain"
)

func TestWindow_Contains(t *testing.T) {
	start := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 3, 31, 23, 59, 59, 0, time.UTC)
	w := domain.Window{Start: start, End: end}

	assert.True(t, w.Contains(start), "start is inclusive")
	assert.True(t, w.Contains(end), "end is inclusive")
	assert.True(t, w.Contains(start.AddDate(0, 0, 15)))
	assert.False(t, w.Contains(start.Add(-time.Second)))
	assert.False(t, w.Contains(end.Add(time.Second)))
}

func TestWindow_IsValid(t *testing.T) {
	now := time.Now()

	assert.True(t, domain.Window{Start: now, End: now}.IsValid())
	assert.True(t, domain.Window{Start: now, End: now.Add(time.Hour)}.IsValid())
	assert.False(t, domain.Window{Start: now.Add(time.Hour), End: now}.IsValid())
	assert.False(t, domain.Window{End: now}.IsValid())
	assert.False(t, domain.Window{Start: now}.IsValid())
}

func TestMinuteRange_Constrained(t *testing.T) {
	tests := []struct {
		name string
		in   domain.MinuteRange
		want domain.MinuteRange
	}{
		{"zero stays zero", domain.MinuteRange{}, domain.MinuteRange{}},
		{"within bound untouched", domain.MinuteRange{Min: 4, Max: 6}, domain.MinuteRange{Min: 4, Max: 6}},
		{"max clamped to ceiling", domain.MinuteRange{Min: 2, Max: 4}, domain.MinuteRange{Min: 2, Max: 3}},
		{"max raised to min", domain.MinuteRange{Min: 5, Max: 3}, domain.MinuteRange{Min: 5, Max: 5}},
		{"odd min rounds ceiling up", domain.MinuteRange{Min: 3, Max: 10}, domain.MinuteRange{Min: 3, Max: 5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.in.Constrained())
		})
	}
}

func TestMinuteRange_ConstrainedMonotonic(t *testing.T) {
	// min <= max <= ceil(1.5*min) must hold for any accumulated range.
	for min := 0; min <= 40; min++ {
		for max := 0; max <= 80; max += 7 {
			got := domain.MinuteRange{Min: min, Max: max}.Constrained()
			ceiling := (min*3 + 1) / 2
			assert.GreaterOrEqual(t, got.Max, got.Min)
			if min > 0 {
				assert.LessOrEqual(t, got.Max, ceiling)
			}
		}
	}
}

func TestAgentActivityRecord_Touch(t *testing.T) {
	r := &domain.AgentActivityRecord{}

	assert.False(t, r.Touched(7))
	r.Touch(7)
	r.Touch(7)
	r.Touch(9)

	assert.True(t, r.Touched(7))
	assert.True(t, r.Touched(9))
	assert.Len(t, r.Tickets, 2, "repeat touches must not grow the set")
}

func TestAgentActivityRecord_Day(t *testing.T) {
	r := &domain.AgentActivityRecord{}

	d := r.Day("2025-03-05")
	d.Responses++

	assert.Same(t, d, r.Day("2025-03-05"))
	assert.Equal(t, 1, r.Day("2025-03-05").Responses)
	assert.NotSame(t, d, r.Day("2025-03-06"))
}
