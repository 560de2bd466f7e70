package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"readMoreAPI/internal/clock"
	"readMoreAPI/internal/types/goal"
)

type GoalService struct {
	db  *pgxpool.Pool
	clk clock.Clock
}

func NewGoalService(db *pgxpool.Pool, clk clock.Clock) *GoalService {
	return &GoalService{db: db, clk: clk}
}

// RecomputeGoalProgress re-derives the current year's goal progress from
// the activity ledger. The whole computation is one idempotent UPDATE:
// running it twice, or with nothing new to count, is a no-op, so the
// orchestrator can fire it after every session and retry freely. Users
// without a goal row are skipped.
func (s *GoalService) RecomputeGoalProgress(ctx context.Context, userID uuid.UUID) error {
	year := s.clk.Now().Year()

	query := `
        UPDATE reading_goals g
        SET
            pages_read = COALESCE((
                SELECT SUM(a.pages_read)
                FROM daily_activity a
                WHERE a.user_id = g.user_id
                    AND a.date >= make_date(g.year, 1, 1)
                    AND a.date < make_date(g.year + 1, 1, 1)
            ), 0),
            books_touched = COALESCE((
                SELECT COUNT(DISTINCT book_id)
                FROM daily_activity a, unnest(a.book_ids) AS book_id
                WHERE a.user_id = g.user_id
                    AND a.date >= make_date(g.year, 1, 1)
                    AND a.date < make_date(g.year + 1, 1, 1)
            ), 0),
            hours_read = COALESCE((
                SELECT SUM(a.duration_seconds)::float / 3600
                FROM daily_activity a
                WHERE a.user_id = g.user_id
                    AND a.date >= make_date(g.year, 1, 1)
                    AND a.date < make_date(g.year + 1, 1, 1)
            ), 0),
            updated_at = NOW()
        WHERE g.user_id = $1 AND g.year = $2
    `

	if _, err := s.db.Exec(ctx, query, userID, year); err != nil {
		return fmt.Errorf("failed to recompute goal progress: %w", err)
	}

	return nil
}

// GetGoal returns the current year's goal with fresh progress, creating
// a zero-target row on first access.
func (s *GoalService) GetGoal(ctx context.Context, clerkID string) (*goal.Goal, error) {
	var userID uuid.UUID
	err := s.db.QueryRow(ctx, `SELECT id FROM users WHERE clerk_id = $1`, clerkID).Scan(&userID)
	if err != nil {
		return nil, fmt.Errorf("%w: clerk id %s", ErrUserNotFound, clerkID)
	}

	year := s.clk.Now().Year()

	provisionQuery := `
        INSERT INTO reading_goals (user_id, year, target_books, target_pages, pages_read, books_touched, hours_read, updated_at)
        VALUES ($1, $2, 0, 0, 0, 0, 0, NOW())
        ON CONFLICT (user_id, year) DO NOTHING
    `
	if _, err := s.db.Exec(ctx, provisionQuery, userID, year); err != nil {
		return nil, fmt.Errorf("failed to provision goal: %w", err)
	}

	if err := s.RecomputeGoalProgress(ctx, userID); err != nil {
		return nil, err
	}

	g := &goal.Goal{}
	query := `
        SELECT user_id, year, target_books, target_pages, pages_read, books_touched, hours_read, updated_at
        FROM reading_goals
        WHERE user_id = $1 AND year = $2
    `
	err = s.db.QueryRow(ctx, query, userID, year).Scan(
		&g.UserID,
		&g.Year,
		&g.TargetBooks,
		&g.TargetPages,
		&g.PagesRead,
		&g.BooksTouched,
		&g.HoursRead,
		&g.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("goal not found")
		}
		return nil, fmt.Errorf("failed to get goal: %w", err)
	}

	return g, nil
}

// UpdateGoalTargets sets the user's yearly targets.
func (s *GoalService) UpdateGoalTargets(ctx context.Context, clerkID string, targetBooks, targetPages int) (*goal.Goal, error) {
	var userID uuid.UUID
	err := s.db.QueryRow(ctx, `SELECT id FROM users WHERE clerk_id = $1`, clerkID).Scan(&userID)
	if err != nil {
		return nil, fmt.Errorf("%w: clerk id %s", ErrUserNotFound, clerkID)
	}

	year := s.clk.Now().Year()

	query := `
        INSERT INTO reading_goals (user_id, year, target_books, target_pages, pages_read, books_touched, hours_read, updated_at)
        VALUES ($1, $2, $3, $4, 0, 0, 0, NOW())
        ON CONFLICT (user_id, year)
        DO UPDATE SET target_books = $3, target_pages = $4, updated_at = NOW()
    `
	if _, err := s.db.Exec(ctx, query, userID, year, targetBooks, targetPages); err != nil {
		return nil, fmt.Errorf("failed to update goal targets: %w", err)
	}

	return s.GetGoal(ctx, clerkID)
}
