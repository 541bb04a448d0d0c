package scenario

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDateTimeAtLandsOnSaturday(t *testing.T) {
	// Sweep a week of base days so every starting weekday is covered.
	for day := 0; day < 7; day++ {
		base := time.Date(2026, 3, 2+day, 10, 0, 0, 0, time.UTC)
		for idx := 0; idx < 13; idx++ {
			dt, err := DateTimeAt(base, idx, 30)
			require.NoError(t, err)

			d, err := time.Parse("2006-01-02", dt.DBDate)
			require.NoError(t, err)
			assert.Equal(t, time.Saturday, d.Weekday(),
				"base=%s idx=%d allocated %s", base.Format("2006-01-02"), idx, dt.DBDate)
		}
	}
}

func TestDateTimeAtDistinctPerIndex(t *testing.T) {
	base := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	seen := map[string]int{}
	for idx := 0; idx < 13; idx++ {
		dt, err := DateTimeAt(base, idx, 30)
		require.NoError(t, err)
		key := dt.DBDate + " " + dt.DBTime
		if prev, dup := seen[key]; dup {
			t.Fatalf("indices %d and %d collided on %s", prev, idx, key)
		}
		seen[key] = idx
	}
}

func TestDateTimeAtUserAndDBFormsAgree(t *testing.T) {
	base := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	dt, err := DateTimeAt(base, 0, 30)
	require.NoError(t, err)

	user, err := time.Parse("02/01/2006", dt.UserDate)
	require.NoError(t, err)
	db, err := time.Parse("2006-01-02", dt.DBDate)
	require.NoError(t, err)
	assert.True(t, user.Equal(db))
	assert.Equal(t, dt.UserTime, dt.DBTime)
}

func TestDateTimeAtSlotRotation(t *testing.T) {
	base := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	for idx, want := range []string{"14:30", "15:00", "14:30", "15:00"} {
		dt, err := DateTimeAt(base, idx, 30)
		require.NoError(t, err)
		assert.Equal(t, want, dt.UserTime, "idx=%d", idx)
	}
}

func TestDateTimeAtRejectsNegativeIndex(t *testing.T) {
	_, err := DateTimeAt(time.Now(), -1, 30)
	require.Error(t, err)
}

func TestDateTimeAtIsDeterministic(t *testing.T) {
	base := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	a, err := DateTimeAt(base, 5, 400)
	require.NoError(t, err)
	b, err := DateTimeAt(base, 5, 400)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestSaltedOffsetDays(t *testing.T) {
	now := time.Date(2026, 3, 2, 10, 30, 0, 0, time.UTC)

	offset := SaltedOffsetDays(now)
	assert.GreaterOrEqual(t, offset, 365)
	assert.Less(t, offset, 365+520*7)
	assert.Equal(t, 0, (offset-365)%7, "salt shifts by whole weeks")

	// Stable within the same hour, so a run never races itself.
	assert.Equal(t, offset, SaltedOffsetDays(now.Add(20*time.Minute)))
	// A later hour yields a different week.
	assert.NotEqual(t, offset, SaltedOffsetDays(now.Add(time.Hour)))
}
