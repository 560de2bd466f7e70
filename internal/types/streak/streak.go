package streak

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"readMoreAPI/internal/clock"
)

// MaxFreezeDays caps the outstanding freeze allowance regardless of
// account age. One freeze day accrues per 30 days since enrollment.
const (
	MaxFreezeDays       = 3
	FreezeAccrualPeriod = 30
)

var (
	// ErrQuotaExceeded is returned when a freeze is requested with no
	// available freeze days.
	ErrQuotaExceeded = errors.New("no freeze days available")

	// ErrConcurrencyConflict is returned when a transactional streak
	// update lost a race and should be retried.
	ErrConcurrencyConflict = errors.New("streak update lost a concurrent race")
)

type Streak struct {
	UserID         uuid.UUID  `json:"user_id" db:"user_id"`
	CurrentStreak  int        `json:"current_streak" db:"current_streak"`
	LongestStreak  int        `json:"longest_streak" db:"longest_streak"`
	LastReadDate   *time.Time `json:"last_read_date" db:"last_read_date"`
	FreezeDaysUsed int        `json:"freeze_days_used" db:"freeze_days_used"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at" db:"updated_at"`
}

// Snapshot is the user-facing view of a streak. FreezeDaysAvailable is
// always computed live from the accrual formula, never stored.
type Snapshot struct {
	CurrentStreak       int     `json:"current_streak"`
	LongestStreak       int     `json:"longest_streak"`
	LastReadDate        *string `json:"last_read_date"`
	FreezeDaysUsed      int     `json:"freeze_days_used"`
	FreezeDaysAvailable int     `json:"freeze_days_available"`
}

// Next returns the streak run length after reading activity on day.
// last is the previous last-read date (nil on first-ever activity).
// Repeat activity on the same day leaves the run unchanged; the next
// consecutive day extends it; any larger gap restarts it at 1. A day
// earlier than last also leaves the run unchanged: backdated entries
// land in the ledger but never rewind streak state.
func Next(current int, last *time.Time, day time.Time) int {
	if last == nil {
		return 1
	}
	switch gap := DaysBetween(*last, day); {
	case gap == 0:
		return current
	case gap == 1:
		return current + 1
	case gap > 1:
		return 1
	default:
		return current
	}
}

// DaysBetween counts whole calendar days from a to b, negative when b
// precedes a.
func DaysBetween(a, b time.Time) int {
	return int(clock.DateOf(b).Sub(clock.DateOf(a)).Hours() / 24)
}

// EarnedFreezes computes the accrued freeze-day allowance: one per 30
// days since enrollment, capped at MaxFreezeDays.
func EarnedFreezes(enrolledAt, now time.Time) int {
	days := DaysBetween(enrolledAt, now)
	if days < 0 {
		return 0
	}
	earned := days / FreezeAccrualPeriod
	if earned > MaxFreezeDays {
		return MaxFreezeDays
	}
	return earned
}

// AvailableFreezes returns the unspent allowance, never negative.
func AvailableFreezes(enrolledAt, now time.Time, used int) int {
	available := EarnedFreezes(enrolledAt, now) - used
	if available < 0 {
		return 0
	}
	return available
}

// Milestones are streak lengths that trigger a congratulation push.
var Milestones = []int{7, 30, 100, 365}

// CrossedMilestone reports the milestone reached when the run moved
// from prev to next, or 0 when none was crossed.
func CrossedMilestone(prev, next int) int {
	for _, m := range Milestones {
		if prev < m && next >= m {
			return m
		}
	}
	return 0
}
