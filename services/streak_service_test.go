package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"readMoreAPI/internal/clock"
	"readMoreAPI/internal/types/streak"
)

func TestGetStreakProvisionsZeroState(t *testing.T) {
	pool := setupTestDB(t)
	_, clerkID := createTestUser(t, pool)

	clk := &clock.FixedClock{CurrentTime: time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)}
	activitySvc := NewActivityService(pool, clk)
	svc := NewStreakService(pool, activitySvc, clk)

	snapshot, err := svc.GetStreak(context.Background(), clerkID)
	require.NoError(t, err)

	assert.Equal(t, 0, snapshot.CurrentStreak)
	assert.Equal(t, 0, snapshot.LongestStreak)
	assert.Nil(t, snapshot.LastReadDate)
	assert.Equal(t, 0, snapshot.FreezeDaysUsed)
	assert.Equal(t, 0, snapshot.FreezeDaysAvailable)
}

func TestApplyConsecutiveThenGap(t *testing.T) {
	pool := setupTestDB(t)
	userID, clerkID := createTestUser(t, pool)

	clk := &clock.FixedClock{CurrentTime: time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)}
	activitySvc := NewActivityService(pool, clk)
	svc := NewStreakService(pool, activitySvc, clk)

	ctx := context.Background()
	day1 := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)

	_, next, err := svc.Apply(ctx, userID, day1)
	require.NoError(t, err)
	assert.Equal(t, 1, next)

	_, next, err = svc.Apply(ctx, userID, day1.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Equal(t, 2, next)

	// days 3 and 4 skipped
	prev, next, err := svc.Apply(ctx, userID, day1.AddDate(0, 0, 4))
	require.NoError(t, err)
	assert.Equal(t, 2, prev)
	assert.Equal(t, 1, next)

	snapshot, err := svc.GetStreak(ctx, clerkID)
	require.NoError(t, err)
	assert.Equal(t, 1, snapshot.CurrentStreak)
	assert.Equal(t, 2, snapshot.LongestStreak)
	require.NotNil(t, snapshot.LastReadDate)
	assert.Equal(t, "2025-03-05", *snapshot.LastReadDate)
}

func TestApplySameDayTwiceDoesNotDoubleCount(t *testing.T) {
	pool := setupTestDB(t)
	userID, _ := createTestUser(t, pool)

	clk := &clock.FixedClock{CurrentTime: time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)}
	activitySvc := NewActivityService(pool, clk)
	svc := NewStreakService(pool, activitySvc, clk)

	ctx := context.Background()
	day := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)

	_, next, err := svc.Apply(ctx, userID, day)
	require.NoError(t, err)
	assert.Equal(t, 1, next)

	_, next, err = svc.Apply(ctx, userID, day)
	require.NoError(t, err)
	assert.Equal(t, 1, next)
}

func TestUseFreezeQuotaExceededLeavesNothingBehind(t *testing.T) {
	pool := setupTestDB(t)
	_, clerkID := createTestUser(t, pool)

	clk := &clock.FixedClock{CurrentTime: time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)}
	activitySvc := NewActivityService(pool, clk)
	svc := NewStreakService(pool, activitySvc, clk)

	ctx := context.Background()
	day := time.Date(2025, time.March, 9, 0, 0, 0, 0, time.UTC)

	// Fresh enrollment: nothing earned yet.
	_, err := svc.UseFreeze(ctx, clerkID, day)
	require.ErrorIs(t, err, streak.ErrQuotaExceeded)

	entries, err := activitySvc.GetDailyLog(ctx, clerkID, day, day)
	require.NoError(t, err)
	assert.Empty(t, entries)

	snapshot, err := svc.GetStreak(ctx, clerkID)
	require.NoError(t, err)
	assert.Equal(t, 0, snapshot.FreezeDaysUsed)
}

func TestUseFreezeSpendsAllowance(t *testing.T) {
	pool := setupTestDB(t)
	userID, clerkID := createTestUser(t, pool)

	clk := &clock.FixedClock{CurrentTime: time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)}
	activitySvc := NewActivityService(pool, clk)
	svc := NewStreakService(pool, activitySvc, clk)

	ctx := context.Background()

	// Provision the row, then age the account 65 days: 2 freezes earned.
	_, err := svc.GetStreak(ctx, clerkID)
	require.NoError(t, err)
	backdateEnrollment(t, pool, userID, clk.CurrentTime.AddDate(0, 0, -65))

	day := time.Date(2025, time.March, 9, 0, 0, 0, 0, time.UTC)

	snapshot, err := svc.UseFreeze(ctx, clerkID, day)
	require.NoError(t, err)
	assert.Equal(t, 1, snapshot.FreezeDaysUsed)
	assert.Equal(t, 1, snapshot.FreezeDaysAvailable)

	snapshot, err = svc.UseFreeze(ctx, clerkID, day.AddDate(0, 0, -1))
	require.NoError(t, err)
	assert.Equal(t, 2, snapshot.FreezeDaysUsed)
	assert.Equal(t, 0, snapshot.FreezeDaysAvailable)

	_, err = svc.UseFreeze(ctx, clerkID, day.AddDate(0, 0, -2))
	require.ErrorIs(t, err, streak.ErrQuotaExceeded)

	// The frozen day carries the minimal synthetic payload.
	entries, err := activitySvc.GetDailyLog(ctx, clerkID, day, day)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 1, entries[0].DurationSeconds)
	assert.Equal(t, 0, entries[0].PagesRead)

	// Freezing does not advance the streak run itself.
	streakSnap, err := svc.GetStreak(ctx, clerkID)
	require.NoError(t, err)
	assert.Equal(t, 0, streakSnap.CurrentStreak)
}

func TestUseFreezeConcurrentSpendsCannotExceedEarned(t *testing.T) {
	pool := setupTestDB(t)
	userID, clerkID := createTestUser(t, pool)

	clk := &clock.FixedClock{CurrentTime: time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)}
	activitySvc := NewActivityService(pool, clk)
	svc := NewStreakService(pool, activitySvc, clk)

	ctx := context.Background()

	// Exactly one freeze earned; two racing spends fight over it.
	_, err := svc.GetStreak(ctx, clerkID)
	require.NoError(t, err)
	backdateEnrollment(t, pool, userID, clk.CurrentTime.AddDate(0, 0, -30))

	days := []time.Time{
		time.Date(2025, time.March, 8, 0, 0, 0, 0, time.UTC),
		time.Date(2025, time.March, 9, 0, 0, 0, 0, time.UTC),
	}

	results := make(chan error, len(days))
	var wg sync.WaitGroup
	for _, d := range days {
		wg.Add(1)
		go func(d time.Time) {
			defer wg.Done()
			_, err := svc.UseFreeze(context.Background(), clerkID, d)
			results <- err
		}(d)
	}
	wg.Wait()
	close(results)

	succeeded, rejected := 0, 0
	for err := range results {
		if err == nil {
			succeeded++
			continue
		}
		require.ErrorIs(t, err, streak.ErrQuotaExceeded)
		rejected++
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, rejected)

	snapshot, err := svc.GetStreak(ctx, clerkID)
	require.NoError(t, err)
	assert.Equal(t, 1, snapshot.FreezeDaysUsed)
	assert.Equal(t, 0, snapshot.FreezeDaysAvailable)
}
