package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/superdayz/studio-api/internal/models"
)

type TodoRepository struct {
	db *sql.DB
}

func NewTodoRepository(db *sql.DB) *TodoRepository {
	return &TodoRepository{db: db}
}

const todoColumns = `id, user_email, title, due_date, reminder, completed, xp_granted, created_at, updated_at`

func (r *TodoRepository) Insert(ctx context.Context, item *models.ToDoItem) error {
	const query = `
INSERT INTO todo_items (id, user_email, title, due_date, reminder, completed, xp_granted)
VALUES (?, ?, ?, ?, ?, ?, ?)`
	if _, err := r.db.ExecContext(ctx, query, item.ID, item.UserEmail, item.Title, item.DueDate, string(item.Reminder), item.Completed, item.XPGranted); err != nil {
		return fmt.Errorf("insert todo: %w", err)
	}
	return nil
}

func (r *TodoRepository) GetByID(ctx context.Context, id string) (*models.ToDoItem, error) {
	query := `SELECT ` + todoColumns + ` FROM todo_items WHERE id = ?`
	row := r.db.QueryRowContext(ctx, query, id)
	var item models.ToDoItem
	var reminder string
	if err := row.Scan(&item.ID, &item.UserEmail, &item.Title, &item.DueDate, &reminder, &item.Completed, &item.XPGranted, &item.CreatedAt, &item.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get todo: %w", err)
	}
	item.Reminder = models.ReminderSetting(reminder)
	return &item, nil
}

func (r *TodoRepository) ListByEmail(ctx context.Context, email string) ([]models.ToDoItem, error) {
	query := `SELECT ` + todoColumns + ` FROM todo_items WHERE user_email = ? ORDER BY due_date ASC, created_at ASC`
	return r.list(ctx, query, email)
}

// DueCandidates returns every incomplete item with a reminder setting,
// across all users, for the scheduler scan. List order decides which item
// wins when several are due in the same tick.
func (r *TodoRepository) DueCandidates(ctx context.Context) ([]models.ToDoItem, error) {
	query := `SELECT ` + todoColumns + ` FROM todo_items WHERE completed = 0 AND reminder <> 'none' ORDER BY user_email ASC, created_at ASC`
	return r.list(ctx, query)
}

func (r *TodoRepository) list(ctx context.Context, query string, args ...any) ([]models.ToDoItem, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list todos: %w", err)
	}
	defer rows.Close()

	var items []models.ToDoItem
	for rows.Next() {
		var item models.ToDoItem
		var reminder string
		if err := rows.Scan(&item.ID, &item.UserEmail, &item.Title, &item.DueDate, &reminder, &item.Completed, &item.XPGranted, &item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan todo: %w", err)
		}
		item.Reminder = models.ReminderSetting(reminder)
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *TodoRepository) Update(ctx context.Context, id, title string, dueDate time.Time, reminder models.ReminderSetting) error {
	const query = `
UPDATE todo_items SET title = ?, due_date = ?, reminder = ?, updated_at = NOW()
WHERE id = ?`
	if _, err := r.db.ExecContext(ctx, query, title, dueDate, string(reminder), id); err != nil {
		return fmt.Errorf("update todo: %w", err)
	}
	return nil
}

// SetCompleted flips the completion flag. xp_granted only ever goes from 0
// to 1 so the completion XP cannot be farmed by toggling.
func (r *TodoRepository) SetCompleted(ctx context.Context, id string, completed, xpGranted bool) error {
	const query = `
UPDATE todo_items SET completed = ?, xp_granted = xp_granted OR ?, updated_at = NOW()
WHERE id = ?`
	if _, err := r.db.ExecContext(ctx, query, completed, xpGranted, id); err != nil {
		return fmt.Errorf("set todo completed: %w", err)
	}
	return nil
}

func (r *TodoRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM todo_items WHERE id = ?`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete todo: %w", err)
	}
	return nil
}
