package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/superdayz/studio-api/internal/config"
	"github.com/superdayz/studio-api/internal/models"
)

// LedgerService owns every credit mutation and the append-only billing
// ledger: spends, purchases, subscription transitions and the daily
// Freemium floor.
type LedgerService struct {
	cfg     config.Config
	log     *slog.Logger
	users   userStore
	billing billingStore
	prog    *ProgressionService
	locks   *Locks
	marks   markerStore
}

func NewLedgerService(cfg config.Config, log *slog.Logger, users userStore, billing billingStore, prog *ProgressionService, locks *Locks, marks markerStore) *LedgerService {
	return &LedgerService{
		cfg:     cfg,
		log:     log,
		users:   users,
		billing: billing,
		prog:    prog,
		locks:   locks,
		marks:   marks,
	}
}

// Deduct spends amount credits and grants 5 XP per credit. The caller has
// already validated the balance and holds the user lock; the conditional
// update is the backstop, not the check. There is no rollback path: callers
// only invoke this after the paid action confirmed success.
func (s *LedgerService) Deduct(ctx context.Context, user *models.User, history []models.HistoryItem, amount int) error {
	ok, err := s.users.ConsumeCredits(ctx, user.Email, amount)
	if err != nil {
		return fmt.Errorf("deduct credits: %w", err)
	}
	if !ok {
		return ErrInsufficientCredits
	}
	user.Credits -= amount

	if err := s.prog.Grant(ctx, user, history, 5*amount, "generation"); err != nil {
		return err
	}
	return nil
}

// BuyCredits adds purchased credits and records the price for display. No
// payment processor is involved.
func (s *LedgerService) BuyCredits(ctx context.Context, email string, amount, costCents int) error {
	if amount <= 0 {
		return fmt.Errorf("%w: credit amount must be positive", ErrInvalidInput)
	}
	if err := s.users.AddCredits(ctx, email, amount); err != nil {
		return err
	}
	entry := &models.BillingEntry{
		UserEmail:   email,
		Description: fmt.Sprintf("Purchased %d credits", amount),
		AmountCents: costCents,
		Currency:    s.cfg.BillingCurrency,
	}
	if err := s.billing.AppendEntry(ctx, entry); err != nil {
		return err
	}
	return nil
}

// UpdateSubscription moves the account between tiers. Upgrading credits the
// monthly allotment immediately and sets the next billing date one calendar
// month out; downgrading resets the grant and clears the billing date but
// never touches the existing balance.
func (s *LedgerService) UpdateSubscription(ctx context.Context, email string, plan models.PlanType) (*models.User, error) {
	unlock := s.locks.Lock(email)
	defer unlock()

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNotFound
	}

	switch plan {
	case models.PlanPro:
		next := time.Now().UTC().AddDate(0, 1, 0)
		if err := s.users.UpdateSubscription(ctx, email, models.PlanPro, s.cfg.ProMonthlyCredits, &next); err != nil {
			return nil, err
		}
		if err := s.users.AddCredits(ctx, email, s.cfg.ProMonthlyCredits); err != nil {
			return nil, err
		}
		entry := &models.BillingEntry{
			UserEmail:   email,
			Description: "Superdayz Pro subscription",
			AmountCents: s.cfg.ProPriceCents,
			Currency:    s.cfg.BillingCurrency,
		}
		if err := s.billing.AppendEntry(ctx, entry); err != nil {
			return nil, err
		}
	case models.PlanFreemium:
		if err := s.users.UpdateSubscription(ctx, email, models.PlanFreemium, s.cfg.FreeDailyCredits, nil); err != nil {
			return nil, err
		}
		entry := &models.BillingEntry{
			UserEmail:   email,
			Description: "Downgraded to Freemium",
			AmountCents: 0,
			Currency:    s.cfg.BillingCurrency,
		}
		if err := s.billing.AppendEntry(ctx, entry); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: unknown plan %q", ErrInvalidInput, plan)
	}

	return s.users.FindByEmail(ctx, email)
}

// DailyLoginGrant raises a returning Freemium user's balance to the daily
// floor, at most once per calendar day. The floor is a max, never a set, so
// purchased balances are preserved and re-runs cannot double-grant.
func (s *LedgerService) DailyLoginGrant(ctx context.Context, user *models.User, now time.Time) error {
	if user.Plan != models.PlanFreemium {
		return nil
	}
	if user.LastLoginAt != nil && sameCalendarDay(*user.LastLoginAt, now) {
		return nil
	}

	day := now.Format("2006-01-02")
	first, err := s.marks.MarkDailyGrant(ctx, user.Email, day)
	if err != nil {
		return fmt.Errorf("daily grant marker: %w", err)
	}
	if !first {
		return nil
	}

	if err := s.users.GrantDailyFloor(ctx, user.Email, s.cfg.FreeDailyCredits); err != nil {
		return err
	}
	if user.Credits < s.cfg.FreeDailyCredits {
		user.Credits = s.cfg.FreeDailyCredits
	}
	return nil
}

func (s *LedgerService) History(ctx context.Context, email string) ([]models.BillingEntry, error) {
	return s.billing.ListEntries(ctx, email)
}

func (s *LedgerService) AddPaymentMethod(ctx context.Context, method *models.PaymentMethod) error {
	if method.Last4 == "" || method.Brand == "" {
		return fmt.Errorf("%w: card brand and last4 required", ErrInvalidInput)
	}
	return s.billing.AddPaymentMethod(ctx, method)
}

func (s *LedgerService) PaymentMethods(ctx context.Context, email string) ([]models.PaymentMethod, error) {
	return s.billing.ListPaymentMethods(ctx, email)
}

func (s *LedgerService) RemovePaymentMethod(ctx context.Context, email string, id int64) error {
	return s.billing.DeletePaymentMethod(ctx, email, id)
}

func sameCalendarDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
