package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/superdayz/studio-api/internal/models"
)

type BillingRepository struct {
	db *sql.DB
}

func NewBillingRepository(db *sql.DB) *BillingRepository {
	return &BillingRepository{db: db}
}

// AppendEntry records one line of the append-only billing ledger.
func (r *BillingRepository) AppendEntry(ctx context.Context, entry *models.BillingEntry) error {
	const query = `
INSERT INTO billing_entries (user_email, description, amount_cents, currency)
VALUES (?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, query, entry.UserEmail, entry.Description, entry.AmountCents, entry.Currency)
	if err != nil {
		return fmt.Errorf("insert billing entry: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("billing last insert id: %w", err)
	}
	entry.ID = id
	return nil
}

func (r *BillingRepository) ListEntries(ctx context.Context, email string) ([]models.BillingEntry, error) {
	const query = `
SELECT id, user_email, description, amount_cents, currency, created_at
FROM billing_entries WHERE user_email = ? ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, email)
	if err != nil {
		return nil, fmt.Errorf("list billing entries: %w", err)
	}
	defer rows.Close()

	var entries []models.BillingEntry
	for rows.Next() {
		var e models.BillingEntry
		if err := rows.Scan(&e.ID, &e.UserEmail, &e.Description, &e.AmountCents, &e.Currency, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan billing entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (r *BillingRepository) AddPaymentMethod(ctx context.Context, method *models.PaymentMethod) error {
	const query = `
INSERT INTO payment_methods (user_email, brand, last4, exp_month, exp_year)
VALUES (?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, query, method.UserEmail, method.Brand, method.Last4, method.ExpMonth, method.ExpYear)
	if err != nil {
		return fmt.Errorf("insert payment method: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("payment method last insert id: %w", err)
	}
	method.ID = id
	return nil
}

func (r *BillingRepository) ListPaymentMethods(ctx context.Context, email string) ([]models.PaymentMethod, error) {
	const query = `
SELECT id, user_email, brand, last4, exp_month, exp_year, created_at
FROM payment_methods WHERE user_email = ? ORDER BY id ASC`
	rows, err := r.db.QueryContext(ctx, query, email)
	if err != nil {
		return nil, fmt.Errorf("list payment methods: %w", err)
	}
	defer rows.Close()

	var methods []models.PaymentMethod
	for rows.Next() {
		var m models.PaymentMethod
		if err := rows.Scan(&m.ID, &m.UserEmail, &m.Brand, &m.Last4, &m.ExpMonth, &m.ExpYear, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan payment method: %w", err)
		}
		methods = append(methods, m)
	}
	return methods, rows.Err()
}

func (r *BillingRepository) DeletePaymentMethod(ctx context.Context, email string, id int64) error {
	const query = `DELETE FROM payment_methods WHERE id = ? AND user_email = ?`
	if _, err := r.db.ExecContext(ctx, query, id, email); err != nil {
		return fmt.Errorf("delete payment method: %w", err)
	}
	return nil
}

type NotificationRepository struct {
	db *sql.DB
}

func NewNotificationRepository(db *sql.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) Append(ctx context.Context, n *models.Notification) error {
	const query = `
INSERT INTO notifications (id, user_email, kind, message, seen, created_at)
VALUES (?, ?, ?, ?, 0, ?)`
	if _, err := r.db.ExecContext(ctx, query, n.ID, n.UserEmail, string(n.Kind), n.Message, n.CreatedAt); err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

func (r *NotificationRepository) ListUnseen(ctx context.Context, email string) ([]models.Notification, error) {
	const query = `
SELECT id, user_email, kind, message, seen, created_at
FROM notifications WHERE user_email = ? AND seen = 0 ORDER BY created_at ASC`
	rows, err := r.db.QueryContext(ctx, query, email)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var notifications []models.Notification
	for rows.Next() {
		var n models.Notification
		var kind string
		if err := rows.Scan(&n.ID, &n.UserEmail, &kind, &n.Message, &n.Seen, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		n.Kind = models.NotificationKind(kind)
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

func (r *NotificationRepository) MarkSeen(ctx context.Context, email string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	query := `UPDATE notifications SET seen = 1 WHERE user_email = ? AND id IN (?` +
		repeatPlaceholder(len(ids)-1) + `)`
	args := make([]any, 0, len(ids)+1)
	args = append(args, email)
	for _, id := range ids {
		args = append(args, id)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("mark notifications seen: %w", err)
	}
	return nil
}

func repeatPlaceholder(n int) string {
	out := ""
	for i := 0; i < n; i++ {
		out += ", ?"
	}
	return out
}
