package activity

import (
	"time"

	"github.com/google/uuid"
)

// DailyEntry is the aggregated reading activity for one user on one
// calendar date. Exactly zero or one row exists per (user, date).
type DailyEntry struct {
	UserID          uuid.UUID   `json:"user_id" db:"user_id"`
	Date            time.Time   `json:"date" db:"date"`
	DurationSeconds int         `json:"duration_seconds" db:"duration_seconds"`
	PagesRead       int         `json:"pages_read" db:"pages_read"`
	BookIDs         []uuid.UUID `json:"book_ids" db:"book_ids"`
	LoggedAt        time.Time   `json:"logged_at" db:"logged_at"`
}

// DailyLogEntry is the wire form of a ledger row, with the date as a
// plain "YYYY-MM-DD" string.
type DailyLogEntry struct {
	Date            string      `json:"date"`
	DurationSeconds int         `json:"duration_seconds"`
	PagesRead       int         `json:"pages_read"`
	BookIDs         []uuid.UUID `json:"book_ids"`
}

type RecordSessionRequest struct {
	BookID          string `json:"book_id"`
	DurationSeconds int    `json:"duration_seconds"`
	PagesRead       int    `json:"pages_read"`
}

type UseFreezeRequest struct {
	Date string `json:"date"`
}
