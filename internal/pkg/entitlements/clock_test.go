package entitlements

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTrialStatus(t *testing.T) {
	createdAt := time.Date(2025, 3, 1, 14, 30, 0, 0, time.UTC)

	tests := []struct {
		name          string
		now           time.Time
		active        bool
		daysRemaining int
	}{
		{"Creation day", time.Date(2025, 3, 1, 0, 0, 1, 0, time.UTC), true, 30},
		{"Mid window", time.Date(2025, 3, 16, 9, 0, 0, 0, time.UTC), true, 15},
		{"Last day inclusive", time.Date(2025, 3, 31, 23, 59, 59, 0, time.UTC), true, 0},
		{"One day past", time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC), false, 0},
		{"Long past", time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC), false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			active, days := TrialStatus(createdAt, tt.now)
			assert.Equal(t, tt.active, active)
			assert.Equal(t, tt.daysRemaining, days)
		})
	}
}

func TestTrialStatusIgnoresTimeOfDay(t *testing.T) {
	createdAt := time.Date(2025, 3, 1, 23, 59, 59, 0, time.UTC)

	// Day 30 counts regardless of the clock time of either side.
	earlyMorning := time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)
	lateEvening := time.Date(2025, 3, 31, 23, 0, 0, 0, time.UTC)

	activeEarly, daysEarly := TrialStatus(createdAt, earlyMorning)
	activeLate, daysLate := TrialStatus(createdAt, lateEvening)

	assert.True(t, activeEarly)
	assert.True(t, activeLate)
	assert.Equal(t, daysEarly, daysLate)
}

func TestTrialStatusIgnoresLocation(t *testing.T) {
	createdAt := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	// The same instant, once in UTC and once carried in a UTC+13 zone
	// whose local calendar is already on the next day. The verdict must
	// not depend on the location of the timestamp.
	utcInstant := time.Date(2025, 3, 31, 23, 30, 0, 0, time.UTC)
	farEast := utcInstant.In(time.FixedZone("UTC+13", 13*3600))

	activeUTC, daysUTC := TrialStatus(createdAt, utcInstant)
	activeZoned, daysZoned := TrialStatus(createdAt, farEast)

	assert.True(t, activeUTC)
	assert.Equal(t, activeUTC, activeZoned)
	assert.Equal(t, daysUTC, daysZoned)

	// Same for the creation side.
	activeCreated, daysCreated := TrialStatus(createdAt.In(time.FixedZone("UTC+13", 13*3600)), utcInstant)
	assert.Equal(t, activeUTC, activeCreated)
	assert.Equal(t, daysUTC, daysCreated)
}

func TestTrialStatusFutureCreation(t *testing.T) {
	createdAt := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	now := time.Date(2025, 4, 20, 0, 0, 0, 0, time.UTC)

	active, days := TrialStatus(createdAt, now)
	assert.False(t, active)
	assert.Equal(t, 0, days)
}
