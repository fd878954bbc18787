package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/superdayz/studio-api/internal/config"
)

// Connect opens the Redis connection used for idempotence markers: the
// per-day login grant flag and the set of already-surfaced reminder ids.
func Connect(cfg config.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisAddr,
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// Markers wraps the handful of flag operations the services need.
type Markers struct {
	rdb *redis.Client
}

func NewMarkers(rdb *redis.Client) *Markers {
	return &Markers{rdb: rdb}
}

func dailyGrantKey(email, day string) string {
	return "superdayz:daily_grant:" + email + ":" + day
}

func remindersKey(email string) string {
	return "superdayz:shown_reminders:" + email
}

// MarkDailyGrant records that the daily login grant ran for email on day.
// Returns false when it had already run, making the grant idempotent per
// calendar day. The key expires on its own once the day is long gone.
func (m *Markers) MarkDailyGrant(ctx context.Context, email, day string) (bool, error) {
	ok, err := m.rdb.SetNX(ctx, dailyGrantKey(email, day), "1", 48*time.Hour).Result()
	if err != nil {
		return false, fmt.Errorf("mark daily grant: %w", err)
	}
	return ok, nil
}

func (m *Markers) WasReminderShown(ctx context.Context, email, todoID string) (bool, error) {
	shown, err := m.rdb.SIsMember(ctx, remindersKey(email), todoID).Result()
	if err != nil {
		return false, fmt.Errorf("check reminder shown: %w", err)
	}
	return shown, nil
}

func (m *Markers) MarkReminderShown(ctx context.Context, email, todoID string) error {
	if err := m.rdb.SAdd(ctx, remindersKey(email), todoID).Err(); err != nil {
		return fmt.Errorf("mark reminder shown: %w", err)
	}
	return nil
}

// ClearUser drops every marker belonging to an account, for account
// deletion.
func (m *Markers) ClearUser(ctx context.Context, email string) error {
	if err := m.rdb.Del(ctx, remindersKey(email)).Err(); err != nil {
		return fmt.Errorf("clear user markers: %w", err)
	}
	return nil
}
