package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"readMoreAPI/internal/clock"
	"readMoreAPI/internal/types/activity"
	"readMoreAPI/internal/types/streak"
	"readMoreAPI/utils"
)

// streakApplier is the slice of the streak service the orchestrator
// uses. Narrowed to an interface so the conflict-retry path can be
// driven in tests.
type streakApplier interface {
	Apply(ctx context.Context, userID uuid.UUID, day time.Time) (prev int, next int, err error)
}

// ReadingService is the entry point for the reading-session feature: it
// sequences the ledger write, the streak transition and the best-effort
// side effects. The goals subsystem is reached only through the
// recompute contract, which is safe to repeat and safe to drop.
type ReadingService struct {
	db       *pgxpool.Pool
	activity *ActivityService
	streaks  streakApplier
	goals    utils.GoalRecomputer
	notifier utils.NotificationCreator
	clk      clock.Clock
}

func NewReadingService(db *pgxpool.Pool, activitySvc *ActivityService, streaks streakApplier, goals utils.GoalRecomputer, notifier utils.NotificationCreator, clk clock.Clock) *ReadingService {
	return &ReadingService{
		db:       db,
		activity: activitySvc,
		streaks:  streaks,
		goals:    goals,
		notifier: notifier,
		clk:      clk,
	}
}

// RecordActivity logs a finished reading session for "today". The
// ledger upsert and streak transition are the core guarantee; the goal
// recompute and milestone push run in the background and their failures
// are logged, never propagated, never rolled back into the core writes.
func (s *ReadingService) RecordActivity(ctx context.Context, clerkID string, req *activity.RecordSessionRequest) error {
	if req.DurationSeconds < 0 || req.PagesRead < 0 {
		return fmt.Errorf("%w: duration and pages must be non-negative", ErrValidation)
	}

	var bookID *uuid.UUID
	if req.BookID != "" {
		parsed, err := uuid.Parse(req.BookID)
		if err != nil {
			return fmt.Errorf("%w: book id %q is not a uuid", ErrValidation, req.BookID)
		}
		bookID = &parsed
	}

	var userID uuid.UUID
	err := s.db.QueryRow(ctx, `SELECT id FROM users WHERE clerk_id = $1`, clerkID).Scan(&userID)
	if err != nil {
		return fmt.Errorf("%w: clerk id %s", ErrUserNotFound, clerkID)
	}

	today := clock.Today(s.clk)

	if err := s.activity.Upsert(ctx, userID, today, req.DurationSeconds, req.PagesRead, bookID); err != nil {
		return err
	}

	prev, next, err := s.streaks.Apply(ctx, userID, today)
	if errors.Is(err, streak.ErrConcurrencyConflict) {
		prev, next, err = s.streaks.Apply(ctx, userID, today)
	}
	if err != nil {
		return err
	}

	go utils.TriggerGoalRecompute(s.goals, userID)

	if m := streak.CrossedMilestone(prev, next); m > 0 && s.notifier != nil {
		go utils.TriggerStreakMilestone(s.notifier, userID, m)
	}

	return nil
}
