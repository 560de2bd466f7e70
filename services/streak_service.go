package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"readMoreAPI/internal/clock"
	"readMoreAPI/internal/types/streak"
)

type StreakService struct {
	db       *pgxpool.Pool
	activity *ActivityService
	clk      clock.Clock
}

func NewStreakService(db *pgxpool.Pool, activity *ActivityService, clk clock.Clock) *StreakService {
	return &StreakService{db: db, activity: activity, clk: clk}
}

// GetStreak returns the user's streak snapshot. A zero-state row is
// provisioned on first access, so this never fails with "not found".
func (s *StreakService) GetStreak(ctx context.Context, clerkID string) (*streak.Snapshot, error) {
	userID, err := s.getUserID(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	if err := s.ensureStreakRow(ctx, s.db, userID); err != nil {
		return nil, err
	}

	st := &streak.Streak{}
	query := `
        SELECT user_id, current_streak, longest_streak, last_read_date, freeze_days_used, created_at, updated_at
        FROM streaks
        WHERE user_id = $1
    `
	err = s.db.QueryRow(ctx, query, userID).Scan(
		&st.UserID,
		&st.CurrentStreak,
		&st.LongestStreak,
		&st.LastReadDate,
		&st.FreezeDaysUsed,
		&st.CreatedAt,
		&st.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get streak: %w", err)
	}

	return s.snapshot(st), nil
}

// Apply advances the streak state machine for reading activity on day.
// The streak row is locked for the duration of the transaction so two
// concurrent calls cannot both read the same stale last_read_date and
// double-increment the run. Returns the run length before and after, so
// the caller can detect milestone crossings.
func (s *StreakService) Apply(ctx context.Context, userID uuid.UUID, day time.Time) (prev int, next int, err error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to begin streak transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	st, err := s.lockStreakRow(ctx, tx, userID)
	if err != nil {
		return 0, 0, err
	}

	prev = st.CurrentStreak
	next = streak.Next(st.CurrentStreak, st.LastReadDate, day)

	longest := st.LongestStreak
	if next > longest {
		longest = next
	}

	// last_read_date never moves backwards; a backdated entry only
	// touches the ledger.
	lastRead := day
	if st.LastReadDate != nil && day.Before(*st.LastReadDate) {
		lastRead = *st.LastReadDate
	}

	query := `
        UPDATE streaks
        SET current_streak = $2, longest_streak = $3, last_read_date = $4, updated_at = NOW()
        WHERE user_id = $1
    `
	if _, err := tx.Exec(ctx, query, userID, next, longest, lastRead); err != nil {
		return 0, 0, classifyTxError(err, "failed to update streak")
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, 0, classifyTxError(err, "failed to commit streak update")
	}

	return prev, next, nil
}

// UseFreeze spends one banked freeze day on the given date. The ledger
// write and the used-count increment commit as one unit; when no
// allowance is available nothing is written and ErrQuotaExceeded comes
// back. The calculator is deliberately not invoked here: whether the
// frozen day saves the run is decided by the next real Apply.
func (s *StreakService) UseFreeze(ctx context.Context, clerkID string, date time.Time) (*streak.Snapshot, error) {
	userID, err := s.getUserID(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin freeze transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	st, err := s.lockStreakRow(ctx, tx, userID)
	if err != nil {
		return nil, err
	}

	now := s.clk.Now()
	if streak.AvailableFreezes(st.CreatedAt, now, st.FreezeDaysUsed) <= 0 {
		return nil, streak.ErrQuotaExceeded
	}

	if err := s.activity.UpsertFreeze(ctx, tx, userID, date); err != nil {
		return nil, err
	}

	query := `
        UPDATE streaks
        SET freeze_days_used = freeze_days_used + 1, updated_at = NOW()
        WHERE user_id = $1
    `
	if _, err := tx.Exec(ctx, query, userID); err != nil {
		return nil, classifyTxError(err, "failed to spend freeze day")
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, classifyTxError(err, "failed to commit freeze")
	}

	st.FreezeDaysUsed++
	return s.snapshot(st), nil
}

func (s *StreakService) getUserID(ctx context.Context, clerkID string) (uuid.UUID, error) {
	var userID uuid.UUID
	err := s.db.QueryRow(ctx, `SELECT id FROM users WHERE clerk_id = $1`, clerkID).Scan(&userID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: clerk id %s", ErrUserNotFound, clerkID)
	}
	return userID, nil
}

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// ensureStreakRow lazily provisions the zero-state row. The insert is a
// no-op when the row already exists, which keeps concurrent first
// accesses safe.
func (s *StreakService) ensureStreakRow(ctx context.Context, db execer, userID uuid.UUID) error {
	query := `
        INSERT INTO streaks (user_id, current_streak, longest_streak, freeze_days_used, created_at, updated_at)
        VALUES ($1, 0, 0, 0, NOW(), NOW())
        ON CONFLICT (user_id) DO NOTHING
    `
	if _, err := db.Exec(ctx, query, userID); err != nil {
		return fmt.Errorf("failed to provision streak: %w", err)
	}
	return nil
}

// lockStreakRow provisions the row if needed and takes a row lock on it
// for the rest of the transaction.
func (s *StreakService) lockStreakRow(ctx context.Context, tx pgx.Tx, userID uuid.UUID) (*streak.Streak, error) {
	if err := s.ensureStreakRow(ctx, tx, userID); err != nil {
		return nil, err
	}

	st := &streak.Streak{}
	query := `
        SELECT user_id, current_streak, longest_streak, last_read_date, freeze_days_used, created_at, updated_at
        FROM streaks
        WHERE user_id = $1
        FOR UPDATE
    `
	err := tx.QueryRow(ctx, query, userID).Scan(
		&st.UserID,
		&st.CurrentStreak,
		&st.LongestStreak,
		&st.LastReadDate,
		&st.FreezeDaysUsed,
		&st.CreatedAt,
		&st.UpdatedAt,
	)
	if err != nil {
		return nil, classifyTxError(err, "failed to lock streak row")
	}

	return st, nil
}

func (s *StreakService) snapshot(st *streak.Streak) *streak.Snapshot {
	var lastRead *string
	if st.LastReadDate != nil {
		formatted := st.LastReadDate.Format(time.DateOnly)
		lastRead = &formatted
	}

	return &streak.Snapshot{
		CurrentStreak:       st.CurrentStreak,
		LongestStreak:       st.LongestStreak,
		LastReadDate:        lastRead,
		FreezeDaysUsed:      st.FreezeDaysUsed,
		FreezeDaysAvailable: streak.AvailableFreezes(st.CreatedAt, s.clk.Now(), st.FreezeDaysUsed),
	}
}

// classifyTxError maps Postgres serialization and deadlock failures to
// ErrConcurrencyConflict so the orchestrator can retry them.
func classifyTxError(err error, msg string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == "40001" || pgErr.Code == "40P01" {
			return fmt.Errorf("%s: %w", msg, streak.ErrConcurrencyConflict)
		}
	}
	return fmt.Errorf("%s: %w", msg, err)
}
