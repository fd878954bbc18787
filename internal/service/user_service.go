package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/asaskevich/govalidator"

	"github.com/superdayz/studio-api/internal/config"
	"github.com/superdayz/studio-api/internal/models"
)

type UserService struct {
	cfg    config.Config
	log    *slog.Logger
	users  userStore
	ledger *LedgerService
	marks  markerStore
}

func NewUserService(cfg config.Config, log *slog.Logger, users userStore, ledger *LedgerService, marks markerStore) *UserService {
	return &UserService{
		cfg:    cfg,
		log:    log,
		users:  users,
		ledger: ledger,
		marks:  marks,
	}
}

// Register creates an account with the fixed starting state: signup
// credits, level 1, zero XP, no achievements, Freemium. Passwords are
// stored as argon2id hashes only.
func (s *UserService) Register(ctx context.Context, email, name, password string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if !govalidator.IsEmail(email) {
		return nil, fmt.Errorf("%w: invalid email", ErrInvalidInput)
	}
	if len(password) < 8 {
		return nil, fmt.Errorf("%w: password must be at least 8 characters", ErrInvalidInput)
	}
	if strings.TrimSpace(name) == "" {
		name = strings.SplitN(email, "@", 2)[0]
	}

	existing, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	hash, err := argon2id.CreateHash(password, argon2id.DefaultParams)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		Email:          email,
		Name:           name,
		Role:           "user",
		PasswordHash:   hash,
		Level:          1,
		XP:             0,
		Credits:        s.cfg.SignupCredits,
		Achievements:   []string{},
		Plan:           models.PlanFreemium,
		MonthlyCredits: s.cfg.FreeDailyCredits,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Authenticate verifies credentials and runs the login-time side effects:
// the daily Freemium grant and the last-login stamp.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}
	match, err := argon2id.ComparePasswordAndHash(password, user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}
	if !match {
		return nil, ErrInvalidCredentials
	}

	now := time.Now().UTC()
	if err := s.ledger.DailyLoginGrant(ctx, user, now); err != nil {
		// Missing a free credit is recoverable; missing a login is not.
		s.log.Warn("daily login grant failed", "user", email, "err", err)
	}
	if err := s.users.SetLastLogin(ctx, email, now); err != nil {
		s.log.Warn("set last login failed", "user", email, "err", err)
	}
	last := now
	user.LastLoginAt = &last
	return user, nil
}

func (s *UserService) Get(ctx context.Context, email string) (*models.User, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNotFound
	}
	return user, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, email, name, avatarURL string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: name required", ErrInvalidInput)
	}
	return s.users.UpdateProfile(ctx, email, name, avatarURL)
}

// Delete erases the account and every per-user record, including the
// idempotence markers.
func (s *UserService) Delete(ctx context.Context, email string) error {
	if err := s.users.Delete(ctx, email); err != nil {
		return err
	}
	if err := s.marks.ClearUser(ctx, email); err != nil {
		s.log.Warn("clear user markers failed", "user", email, "err", err)
	}
	return nil
}
