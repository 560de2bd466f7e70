package clock

import "time"

// Clock provides time information for streak and freeze computations.
// This interface allows time to be mocked in tests.
type Clock interface {
	Now() time.Time
}

// RealClock provides actual system time.
type RealClock struct{}

// Now returns the current system time.
func (RealClock) Now() time.Time {
	return time.Now()
}

// FixedClock provides a pinned time for testing.
type FixedClock struct {
	CurrentTime time.Time
}

// Now returns the pinned time.
func (c *FixedClock) Now() time.Time {
	return c.CurrentTime
}

// Today truncates the clock's current time to a calendar date in UTC.
// All streak math operates on these truncated dates.
func Today(c Clock) time.Time {
	return DateOf(c.Now())
}

// DateOf strips the time-of-day component from t.
func DateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
