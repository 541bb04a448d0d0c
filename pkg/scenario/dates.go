package scenario

import (
	"fmt"
	"time"
)

// DateTime carries one reservation date/time in both the user-facing form the
// agent parses and the storage-facing form the bookings table keeps.
type DateTime struct {
	UserDate string // dd/mm/yyyy
	UserTime string // HH:MM
	DBDate   string // yyyy-mm-dd
	DBTime   string // HH:MM
}

// openSlots is the rotating pool of known-safe reservation times. 14:00 is
// deliberately absent: the agent's availability logic rejects it often enough
// to make runs flaky.
var openSlots = []string{"14:30", "15:00"}

const (
	userDateLayout = "02/01/2006"
	dbDateLayout   = "2006-01-02"
)

// DateTimeFor returns the reservation date/time for a zero-based scenario
// index, starting baseOffsetDays from today. See DateTimeAt for the rules.
func DateTimeFor(index, baseOffsetDays int) (DateTime, error) {
	return DateTimeAt(time.Now(), index, baseOffsetDays)
}

// DateTimeAt deterministically allocates a unique open-day reservation
// date/time per scenario:
//   - starts baseOffsetDays after base, far enough out to dodge any special
//     closures configured for near-term dates
//   - advances to the next Saturday (the weekday the restaurant treats as
//     reliably open)
//   - adds one whole week per scenario index, so no two indices of a run can
//     land on the same date
//   - picks the time slot by index from the rotating openSlots pool
//
// Pure: no side effects, same inputs always yield the same pair.
func DateTimeAt(base time.Time, index, baseOffsetDays int) (DateTime, error) {
	if index < 0 {
		return DateTime{}, fmt.Errorf("scenario index must be >= 0, got %d", index)
	}

	start := base.AddDate(0, 0, baseOffsetDays)
	daysUntilSaturday := (int(time.Saturday) - int(start.Weekday()) + 7) % 7
	d := start.AddDate(0, 0, daysUntilSaturday+7*index)

	slot := openSlots[index%len(openSlots)]

	return DateTime{
		UserDate: d.Format(userDateLayout),
		UserTime: slot,
		DBDate:   d.Format(dbDateLayout),
		DBTime:   slot,
	}, nil
}

// SaltedOffsetDays derives the base day offset for a suite run. Inserted rows
// are intentionally never deleted, so repeated runs against the same phone
// must not reuse dates: the offset shifts by whole weeks on an hourly clock,
// cycling through roughly ten years of distinct weeks.
func SaltedOffsetDays(now time.Time) int {
	weekSalt := int(now.Unix()/3600) % 520
	return 365 + weekSalt*7
}
