package utils

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"readMoreAPI/internal/types/notification"
)

// NotificationCreator keeps this package decoupled from the full
// notification service; anything with this one method will do.
type NotificationCreator interface {
	CreateNotification(ctx context.Context, req *notification.CreateNotificationRequest) (*notification.Notification, error)
}

// GoalRecomputer is the outbound contract to the goals subsystem.
type GoalRecomputer interface {
	RecomputeGoalProgress(ctx context.Context, userID uuid.UUID) error
}

// TriggerGoalRecompute runs the goal-progress recompute off the request
// path. Meant to be launched as a goroutine; failures are logged and
// swallowed so the ledger and streak writes are never endangered by the
// goals subsystem.
func TriggerGoalRecompute(goals GoalRecomputer, userID uuid.UUID) {
	bgCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := goals.RecomputeGoalProgress(bgCtx, userID); err != nil {
		log.Printf("Goal recompute failed for user %s: %v", userID, err)
	}
}

// TriggerStreakMilestone fires a congratulation notification when a
// streak run crosses a milestone. Best effort, same isolation rules as
// the goal recompute.
func TriggerStreakMilestone(notifier NotificationCreator, userID uuid.UUID, milestone int) {
	bgCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	req := &notification.CreateNotificationRequest{
		UserID:  userID,
		Type:    notification.NotificationStreakMilestone,
		Title:   fmt.Sprintf("%d-day streak!", milestone),
		Message: fmt.Sprintf("You've read %d days in a row. Keep it going!", milestone),
		Data:    map[string]any{"days": milestone},
	}

	if _, err := notifier.CreateNotification(bgCtx, req); err != nil {
		log.Printf("Milestone notification failed for user %s: %v", userID, err)
	}
}
