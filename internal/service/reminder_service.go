package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/superdayz/studio-api/internal/config"
	"github.com/superdayz/studio-api/internal/models"
)

// ReminderService periodically scans incomplete to-dos and surfaces each
// due reminder exactly once. At most one reminder per user per tick, first
// match by list order, so a backlog never floods anyone.
type ReminderService struct {
	cfg           config.Config
	log           *slog.Logger
	todos         todoStore
	notifications notificationStore
	marks         markerStore
	now           func() time.Time
}

func NewReminderService(cfg config.Config, log *slog.Logger, todos todoStore, notifications notificationStore, marks markerStore) *ReminderService {
	return &ReminderService{
		cfg:           cfg,
		log:           log,
		todos:         todos,
		notifications: notifications,
		marks:         marks,
		now:           time.Now,
	}
}

// Run scans once immediately, then on every interval tick until ctx ends.
func (s *ReminderService) Run(ctx context.Context) {
	s.Scan(ctx)

	ticker := time.NewTicker(s.cfg.ReminderInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Scan(ctx)
		}
	}
}

// Scan performs a single pass. Exported so a scan can run deterministically
// outside the ticker loop.
func (s *ReminderService) Scan(ctx context.Context) {
	items, err := s.todos.DueCandidates(ctx)
	if err != nil {
		s.log.Error("reminder scan failed", "err", err)
		return
	}

	today := s.now()
	notified := make(map[string]bool)

	for _, item := range items {
		if notified[item.UserEmail] {
			continue
		}
		offset, ok := item.Reminder.OffsetDays()
		if !ok {
			continue
		}
		trigger := item.DueDate.AddDate(0, 0, -offset)
		if !onOrBeforeDay(trigger, today) {
			continue
		}

		shown, err := s.marks.WasReminderShown(ctx, item.UserEmail, item.ID)
		if err != nil {
			s.log.Error("reminder shown check failed", "todo", item.ID, "err", err)
			continue
		}
		if shown {
			continue
		}

		n := &models.Notification{
			ID:        uuid.NewString(),
			UserEmail: item.UserEmail,
			Kind:      models.NotificationReminder,
			Message:   fmt.Sprintf("Reminder: %q is due %s", item.Title, item.DueDate.Format("Jan 2")),
			CreatedAt: s.now().UTC(),
		}
		if err := s.notifications.Append(ctx, n); err != nil {
			s.log.Error("reminder notification failed", "todo", item.ID, "err", err)
			continue
		}
		if err := s.marks.MarkReminderShown(ctx, item.UserEmail, item.ID); err != nil {
			// The worst case is one repeat on the next tick.
			s.log.Error("mark reminder shown failed", "todo", item.ID, "err", err)
		}
		notified[item.UserEmail] = true
	}
}

// onOrBeforeDay compares two instants at calendar-day granularity.
func onOrBeforeDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	aDay := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	bDay := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return !aDay.After(bDay)
}
