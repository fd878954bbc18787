package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/superdayz/studio-api/internal/models"
	"github.com/superdayz/studio-api/internal/progression"
)

// ProgressionService persists what the pure engine computes. Callers must
// hold the user's keyed lock so achievement predicates see a consistent
// snapshot of user and history.
type ProgressionService struct {
	log           *slog.Logger
	users         userStore
	notifications notificationStore
	engine        *progression.Engine
}

func NewProgressionService(log *slog.Logger, users userStore, notifications notificationStore) *ProgressionService {
	return &ProgressionService{
		log:           log,
		users:         users,
		notifications: notifications,
		engine:        progression.NewEngine(),
	}
}

// Grant mutates user in memory through the engine and flushes the result.
// Credits are written as a relative delta, level/xp/achievements as the
// normalized absolute state.
func (s *ProgressionService) Grant(ctx context.Context, user *models.User, history []models.HistoryItem, amount int, reason string) error {
	creditsBefore := user.Credits
	notes := s.engine.GrantXP(user, history, amount)
	s.log.Debug("xp granted", "user", user.Email, "amount", amount, "reason", reason, "level", user.Level)

	if delta := user.Credits - creditsBefore; delta != 0 {
		if err := s.users.AddCredits(ctx, user.Email, delta); err != nil {
			return fmt.Errorf("apply level-up credits: %w", err)
		}
	}
	if err := s.users.SetProgression(ctx, user.Email, user.Level, user.XP, user.Achievements); err != nil {
		return fmt.Errorf("persist progression: %w", err)
	}

	// Notifications are cosmetic; a failed insert degrades to a quiet
	// level-up rather than failing the action.
	for i := range notes {
		if err := s.notifications.Append(ctx, &notes[i]); err != nil {
			s.log.Error("append notification", "user", user.Email, "err", err)
		}
	}
	return nil
}
