package services

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

// setupTestDB connects to the test database, skipping the test when no
// TEST_DATABASE_URL is configured so the pure unit tests still run
// everywhere.
func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()

	_ = godotenv.Load("../.env")

	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping database test")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	if err := pool.Ping(ctx); err != nil {
		t.Fatalf("Failed to ping test database: %v", err)
	}

	t.Cleanup(pool.Close)
	return pool
}

// createTestUser inserts a throwaway user and registers cleanup that
// cascades to its ledger, streak, goal and notification rows.
func createTestUser(t *testing.T, pool *pgxpool.Pool) (uuid.UUID, string) {
	t.Helper()

	ctx := context.Background()
	userID := uuid.New()
	clerkID := "user_test_" + userID.String()[:8]

	_, err := pool.Exec(ctx, `
        INSERT INTO users (id, clerk_id, email, username, created_at, updated_at)
        VALUES ($1, $2, $3, $4, NOW(), NOW())
    `, userID, clerkID, fmt.Sprintf("test+%s@example.com", userID.String()[:8]), "testreader")
	if err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}

	t.Cleanup(func() {
		_, err := pool.Exec(context.Background(), `DELETE FROM users WHERE id = $1`, userID)
		if err != nil {
			t.Logf("Warning: failed to cleanup test user: %v", err)
		}
	})

	return userID, clerkID
}

// backdateEnrollment pins a streak row's created_at so freeze accrual
// tests don't have to wait 30 days.
func backdateEnrollment(t *testing.T, pool *pgxpool.Pool, userID uuid.UUID, enrolledAt time.Time) {
	t.Helper()

	_, err := pool.Exec(context.Background(), `
        UPDATE streaks SET created_at = $2
        WHERE user_id = $1
    `, userID, enrolledAt)
	if err != nil {
		t.Fatalf("Failed to backdate enrollment: %v", err)
	}
}
