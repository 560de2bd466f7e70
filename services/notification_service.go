package services

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"readMoreAPI/internal/types/notification"
)

// PushProvider abstracts the push transport so the service works with or
// without FCM configured.
type PushProvider interface {
	SendPush(ctx context.Context, tokens []notification.DeviceToken, title, body string, data map[string]any) error
}

type NotificationService struct {
	db   *pgxpool.Pool
	push PushProvider
}

func NewNotificationService(db *pgxpool.Pool) *NotificationService {
	return &NotificationService{db: db}
}

// SetPushProvider injects the provider after construction; push stays
// disabled until one is set.
func (s *NotificationService) SetPushProvider(p PushProvider) {
	s.push = p
}

// CreateNotification persists the notification and best-effort pushes it
// to the user's registered devices.
func (s *NotificationService) CreateNotification(ctx context.Context, req *notification.CreateNotificationRequest) (*notification.Notification, error) {
	notif := &notification.Notification{}

	query := `
        INSERT INTO notifications (id, user_id, type, title, message, data, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, NOW())
        RETURNING id, user_id, type, title, message, is_read, data, created_at
    `
	err := s.db.QueryRow(ctx, query, uuid.New(), req.UserID, req.Type, req.Title, req.Message, req.Data).Scan(
		&notif.ID,
		&notif.UserID,
		&notif.Type,
		&notif.Title,
		&notif.Message,
		&notif.IsRead,
		&notif.Data,
		&notif.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create notification: %w", err)
	}

	if s.push != nil {
		tokens, err := s.getDeviceTokens(ctx, req.UserID)
		if err != nil {
			log.Printf("CreateNotification: failed to load device tokens: %v", err)
			return notif, nil
		}
		if err := s.push.SendPush(ctx, tokens, req.Title, req.Message, req.Data); err != nil {
			log.Printf("CreateNotification: push failed: %v", err)
		}
	}

	return notif, nil
}

func (s *NotificationService) GetNotifications(ctx context.Context, clerkID string) ([]*notification.Notification, error) {
	var userID uuid.UUID
	err := s.db.QueryRow(ctx, `SELECT id FROM users WHERE clerk_id = $1`, clerkID).Scan(&userID)
	if err != nil {
		return nil, fmt.Errorf("%w: clerk id %s", ErrUserNotFound, clerkID)
	}

	query := `
        SELECT id, user_id, type, title, message, is_read, data, created_at
        FROM notifications
        WHERE user_id = $1
        ORDER BY created_at DESC
        LIMIT 50
    `
	rows, err := s.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch notifications: %w", err)
	}
	defer rows.Close()

	notifs := []*notification.Notification{}
	for rows.Next() {
		n := &notification.Notification{}
		err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.Title, &n.Message, &n.IsRead, &n.Data, &n.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		notifs = append(notifs, n)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating notification rows: %w", err)
	}

	return notifs, nil
}

func (s *NotificationService) RegisterDevice(ctx context.Context, clerkID string, token, platform string) error {
	var userID uuid.UUID
	err := s.db.QueryRow(ctx, `SELECT id FROM users WHERE clerk_id = $1`, clerkID).Scan(&userID)
	if err != nil {
		return fmt.Errorf("%w: clerk id %s", ErrUserNotFound, clerkID)
	}

	query := `
        INSERT INTO device_tokens (user_id, token, platform, created_at)
        VALUES ($1, $2, $3, NOW())
        ON CONFLICT (token) DO UPDATE SET user_id = $1, platform = $3
    `
	if _, err := s.db.Exec(ctx, query, userID, token, platform); err != nil {
		return fmt.Errorf("failed to register device: %w", err)
	}

	return nil
}

func (s *NotificationService) getDeviceTokens(ctx context.Context, userID uuid.UUID) ([]notification.DeviceToken, error) {
	rows, err := s.db.Query(ctx, `SELECT token, platform FROM device_tokens WHERE user_id = $1`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tokens []notification.DeviceToken
	for rows.Next() {
		var t notification.DeviceToken
		if err := rows.Scan(&t.Token, &t.Platform); err != nil {
			return nil, err
		}
		tokens = append(tokens, t)
	}

	return tokens, rows.Err()
}
