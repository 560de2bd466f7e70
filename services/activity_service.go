package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"readMoreAPI/internal/clock"
	"readMoreAPI/internal/types/activity"
	"readMoreAPI/internal/types/calendar"
)

type ActivityService struct {
	db  *pgxpool.Pool
	clk clock.Clock
}

func NewActivityService(db *pgxpool.Pool, clk clock.Clock) *ActivityService {
	return &ActivityService{db: db, clk: clk}
}

// Upsert merges a reading session into the ledger row for (userID, date).
// The whole merge runs as a single statement so two sessions finishing at
// the same moment cannot lose each other's deltas. bookID is appended to
// the set only when it is not already a member.
func (s *ActivityService) Upsert(ctx context.Context, userID uuid.UUID, date time.Time, durationDelta, pagesDelta int, bookID *uuid.UUID) error {
	query := `
        INSERT INTO daily_activity (user_id, date, duration_seconds, pages_read, book_ids, logged_at)
        VALUES ($1, $2, $3, $4,
            CASE WHEN $5::uuid IS NULL THEN '{}'::uuid[] ELSE ARRAY[$5::uuid] END,
            NOW())
        ON CONFLICT (user_id, date)
        DO UPDATE SET
            duration_seconds = daily_activity.duration_seconds + EXCLUDED.duration_seconds,
            pages_read = daily_activity.pages_read + EXCLUDED.pages_read,
            book_ids = CASE
                WHEN $5::uuid IS NULL OR $5 = ANY(daily_activity.book_ids) THEN daily_activity.book_ids
                ELSE array_append(daily_activity.book_ids, $5)
            END,
            logged_at = NOW()
    `

	_, err := s.db.Exec(ctx, query, userID, date, durationDelta, pagesDelta, bookID)
	if err != nil {
		return fmt.Errorf("failed to log reading activity: %w", err)
	}

	return nil
}

// UpsertFreeze writes the synthetic ledger entry for a frozen day. It
// overwrites rather than adds, so applying a freeze twice to the same
// date is idempotent. Runs inside the freeze transaction, hence the tx
// parameter.
func (s *ActivityService) UpsertFreeze(ctx context.Context, tx pgx.Tx, userID uuid.UUID, date time.Time) error {
	query := `
        INSERT INTO daily_activity (user_id, date, duration_seconds, pages_read, book_ids, logged_at)
        VALUES ($1, $2, 1, 0, '{}'::uuid[], NOW())
        ON CONFLICT (user_id, date)
        DO UPDATE SET
            duration_seconds = 1,
            pages_read = 0,
            book_ids = '{}'::uuid[],
            logged_at = NOW()
    `

	_, err := tx.Exec(ctx, query, userID, date)
	if err != nil {
		return fmt.Errorf("failed to write freeze entry: %w", err)
	}

	return nil
}

// GetDailyLog returns ledger entries in [start, end], newest first, to
// match the calendar/heatmap consumer's ordering.
func (s *ActivityService) GetDailyLog(ctx context.Context, clerkID string, start, end time.Time) ([]*activity.DailyLogEntry, error) {
	var userID uuid.UUID
	err := s.db.QueryRow(ctx, `SELECT id FROM users WHERE clerk_id = $1`, clerkID).Scan(&userID)
	if err != nil {
		return nil, fmt.Errorf("%w: clerk id %s", ErrUserNotFound, clerkID)
	}

	query := `
        SELECT date, duration_seconds, pages_read, book_ids
        FROM daily_activity
        WHERE user_id = $1 AND date >= $2 AND date <= $3
        ORDER BY date DESC
    `

	rows, err := s.db.Query(ctx, query, userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch daily log: %w", err)
	}
	defer rows.Close()

	entries := []*activity.DailyLogEntry{}
	for rows.Next() {
		var date time.Time
		entry := &activity.DailyLogEntry{}
		if err := rows.Scan(&date, &entry.DurationSeconds, &entry.PagesRead, &entry.BookIDs); err != nil {
			return nil, fmt.Errorf("failed to scan daily log entry: %w", err)
		}
		entry.Date = date.Format(time.DateOnly)
		if entry.BookIDs == nil {
			entry.BookIDs = []uuid.UUID{}
		}
		entries = append(entries, entry)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating daily log rows: %w", err)
	}

	return entries, nil
}

// GetCalendar builds the month heatmap from the ledger.
func (s *ActivityService) GetCalendar(ctx context.Context, clerkID string, year int, month int) (*calendar.CalendarResponse, error) {
	var userID uuid.UUID
	err := s.db.QueryRow(ctx, `SELECT id FROM users WHERE clerk_id = $1`, clerkID).Scan(&userID)
	if err != nil {
		return nil, fmt.Errorf("%w: clerk id %s", ErrUserNotFound, clerkID)
	}

	query := `
        SELECT date, duration_seconds, pages_read
        FROM daily_activity
        WHERE user_id = $1
            AND EXTRACT(YEAR FROM date) = $2
            AND EXTRACT(MONTH FROM date) = $3
        ORDER BY date
    `

	rows, err := s.db.Query(ctx, query, userID, year, month)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch calendar: %w", err)
	}
	defer rows.Close()

	byDay := make(map[int]*calendar.CalendarDay)
	for rows.Next() {
		day := &calendar.CalendarDay{ReadToday: true}
		if err := rows.Scan(&day.Date, &day.DurationSeconds, &day.PagesRead); err != nil {
			return nil, fmt.Errorf("failed to scan calendar day: %w", err)
		}
		byDay[day.Date.Day()] = day
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating calendar rows: %w", err)
	}

	today := clock.Today(s.clk)
	daysInMonth := time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()

	days := make([]*calendar.CalendarDay, 0, daysInMonth)
	for d := 1; d <= daysInMonth; d++ {
		date := time.Date(year, time.Month(month), d, 0, 0, 0, 0, time.UTC)
		day, ok := byDay[d]
		if !ok {
			day = &calendar.CalendarDay{Date: date}
		}
		day.IsToday = date.Equal(today)
		days = append(days, day)
	}

	return &calendar.CalendarResponse{
		Year:  year,
		Month: month,
		Days:  days,
	}, nil
}
