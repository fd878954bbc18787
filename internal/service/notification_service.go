package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/superdayz/studio-api/internal/models"
)

// NotificationService exposes the unseen-notification queue that the
// progression engine and reminder scheduler feed.
type NotificationService struct {
	log           *slog.Logger
	notifications notificationStore
}

func NewNotificationService(log *slog.Logger, notifications notificationStore) *NotificationService {
	return &NotificationService{log: log, notifications: notifications}
}

// Unseen returns pending notifications for the user in FIFO order.
func (s *NotificationService) Unseen(ctx context.Context, email string) ([]models.Notification, error) {
	items, err := s.notifications.ListUnseen(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return items, nil
}

// MarkSeen acknowledges the given notification IDs so they are not
// delivered again.
func (s *NotificationService) MarkSeen(ctx context.Context, email string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if err := s.notifications.MarkSeen(ctx, email, ids); err != nil {
		return fmt.Errorf("mark notifications seen: %w", err)
	}
	return nil
}
