package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/superdayz/studio-api/internal/models"
)

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) DB() *sql.DB {
	return r.db
}

const userColumns = `email, name, role, password_hash, COALESCE(avatar_url, ''), level, xp, credits, achievements, plan, monthly_credits, next_billing_at, last_login_at, created_at, updated_at`

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = ?`
	row := r.db.QueryRowContext(ctx, query, email)
	return scanUser(row)
}

func scanUser(row *sql.Row) (*models.User, error) {
	var u models.User
	var plan string
	var achievements sql.NullString
	var nextBilling, lastLogin sql.NullTime
	if err := row.Scan(&u.Email, &u.Name, &u.Role, &u.PasswordHash, &u.AvatarURL, &u.Level, &u.XP, &u.Credits, &achievements, &plan, &u.MonthlyCredits, &nextBilling, &lastLogin, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	u.Plan = models.PlanType(plan)
	if achievements.Valid && achievements.String != "" {
		if err := json.Unmarshal([]byte(achievements.String), &u.Achievements); err != nil {
			return nil, fmt.Errorf("decode achievements: %w", err)
		}
	}
	if nextBilling.Valid {
		t := nextBilling.Time
		u.NextBillingAt = &t
	}
	if lastLogin.Valid {
		t := lastLogin.Time
		u.LastLoginAt = &t
	}
	return &u, nil
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	const query = `
INSERT INTO users (email, name, role, password_hash, avatar_url, level, xp, credits, achievements, plan, monthly_credits)
VALUES (?, ?, ?, ?, NULLIF(?, ''), ?, ?, ?, ?, ?, ?)`
	achievements, err := json.Marshal(user.Achievements)
	if err != nil {
		return fmt.Errorf("encode achievements: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, user.Email, user.Name, user.Role, user.PasswordHash, user.AvatarURL, user.Level, user.XP, user.Credits, string(achievements), string(user.Plan), user.MonthlyCredits); err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *UserRepository) UpdateProfile(ctx context.Context, email, name, avatarURL string) error {
	const query = `
UPDATE users SET name = ?, avatar_url = NULLIF(?, ''), updated_at = NOW()
WHERE email = ?`
	if _, err := r.db.ExecContext(ctx, query, name, avatarURL, email); err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	return nil
}

// SetProgression persists the in-memory result of an XP grant. Credits are
// deliberately excluded: credit mutations always go through the relative
// ConsumeCredits/AddCredits paths so independent writers cannot lose updates.
func (r *UserRepository) SetProgression(ctx context.Context, email string, level, xp int, achievements []string) error {
	encoded, err := json.Marshal(achievements)
	if err != nil {
		return fmt.Errorf("encode achievements: %w", err)
	}
	const query = `UPDATE users SET level = ?, xp = ?, achievements = ?, updated_at = NOW() WHERE email = ?`
	if _, err := r.db.ExecContext(ctx, query, level, xp, string(encoded), email); err != nil {
		return fmt.Errorf("set progression: %w", err)
	}
	return nil
}

// ConsumeCredits atomically spends amount credits if the balance allows it.
// Returns false without mutation when the balance is short.
func (r *UserRepository) ConsumeCredits(ctx context.Context, email string, amount int) (bool, error) {
	const query = `
UPDATE users SET credits = credits - ?, updated_at = NOW()
WHERE email = ? AND credits >= ?`
	res, err := r.db.ExecContext(ctx, query, amount, email, amount)
	if err != nil {
		return false, fmt.Errorf("consume credits: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("credits rows affected: %w", err)
	}
	return affected > 0, nil
}

func (r *UserRepository) AddCredits(ctx context.Context, email string, delta int) error {
	const query = `UPDATE users SET credits = GREATEST(credits + ?, 0), updated_at = NOW() WHERE email = ?`
	if _, err := r.db.ExecContext(ctx, query, delta, email); err != nil {
		return fmt.Errorf("add credits: %w", err)
	}
	return nil
}

// GrantDailyFloor raises the balance to at least floor without ever lowering
// a higher balance from purchases.
func (r *UserRepository) GrantDailyFloor(ctx context.Context, email string, floor int) error {
	const query = `UPDATE users SET credits = GREATEST(credits, ?), updated_at = NOW() WHERE email = ?`
	if _, err := r.db.ExecContext(ctx, query, floor, email); err != nil {
		return fmt.Errorf("grant daily floor: %w", err)
	}
	return nil
}

func (r *UserRepository) SetLastLogin(ctx context.Context, email string, at time.Time) error {
	const query = `UPDATE users SET last_login_at = ?, updated_at = NOW() WHERE email = ?`
	if _, err := r.db.ExecContext(ctx, query, at, email); err != nil {
		return fmt.Errorf("set last login: %w", err)
	}
	return nil
}

func (r *UserRepository) UpdateSubscription(ctx context.Context, email string, plan models.PlanType, monthlyCredits int, nextBillingAt *time.Time) error {
	const query = `
UPDATE users SET plan = ?, monthly_credits = ?, next_billing_at = ?, updated_at = NOW()
WHERE email = ?`
	if _, err := r.db.ExecContext(ctx, query, string(plan), monthlyCredits, nextBillingAt, email); err != nil {
		return fmt.Errorf("update subscription: %w", err)
	}
	return nil
}

// Delete erases the account row; every per-user record family hangs off the
// email foreign key and cascades.
func (r *UserRepository) Delete(ctx context.Context, email string) error {
	const query = `DELETE FROM users WHERE email = ?`
	if _, err := r.db.ExecContext(ctx, query, email); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}
