package schedule

import (
	"time"

	"github.com/robfig/cron/v3"
)

// Interval is the fixed cadence of the scheduled staking cycle.
const Interval = 6 * time.Hour

// boundarySpec aligns scheduled runs to 00:00, 06:00, 12:00 and 18:00 UTC.
const boundarySpec = "0 0,6,12,18 * * *"

var boundarySchedule cron.Schedule

func init() {
	s, err := cron.ParseStandard(boundarySpec)
	if err != nil {
		panic("schedule: parse boundary spec: " + err.Error())
	}
	boundarySchedule = s
}

// NextBoundary returns the first 6-hour UTC boundary strictly after t.
func NextBoundary(t time.Time) time.Time {
	return boundarySchedule.Next(t.UTC())
}

// AdvancePast recomputes the next due time after one or more missed
// intervals: it repeatedly adds Interval to prev until the result is strictly
// after now. A zero prev means no checkpoint existed, so the next boundary
// from now is used. The result is idempotent: advancing it again against the
// same now yields the same value.
func AdvancePast(prev, now time.Time) time.Time {
	if prev.IsZero() {
		return NextBoundary(now)
	}
	next := prev.UTC()
	for !next.After(now) {
		next = next.Add(Interval)
	}
	return next
}
