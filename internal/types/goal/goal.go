package goal

import (
	"time"

	"github.com/google/uuid"
)

// Goal tracks a user's yearly reading targets. Progress columns are
// derived from the activity ledger and recomputed after every session.
type Goal struct {
	UserID       uuid.UUID `json:"user_id" db:"user_id"`
	Year         int       `json:"year" db:"year"`
	TargetBooks  int       `json:"target_books" db:"target_books"`
	TargetPages  int       `json:"target_pages" db:"target_pages"`
	PagesRead    int       `json:"pages_read" db:"pages_read"`
	BooksTouched int       `json:"books_touched" db:"books_touched"`
	HoursRead    float64   `json:"hours_read" db:"hours_read"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}
