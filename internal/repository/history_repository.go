package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/superdayz/studio-api/internal/models"
)

type HistoryRepository struct {
	db *sql.DB
}

func NewHistoryRepository(db *sql.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

const historyColumns = `id, user_email, tool, prompt, COALESCE(media_url, ''), COALESCE(payload, ''), tags, COALESCE(folder_id, ''), created_at`

func (r *HistoryRepository) Insert(ctx context.Context, item *models.HistoryItem) error {
	const query = `
INSERT INTO history_items (id, user_email, tool, prompt, media_url, payload, tags, folder_id, created_at)
VALUES (?, ?, ?, ?, NULLIF(?, ''), NULLIF(?, ''), ?, NULLIF(?, ''), ?)`
	tags, err := json.Marshal(item.Tags)
	if err != nil {
		return fmt.Errorf("encode tags: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, item.ID, item.UserEmail, string(item.Tool), item.Prompt, item.MediaURL, item.Payload, string(tags), item.FolderID, item.CreatedAt); err != nil {
		return fmt.Errorf("insert history item: %w", err)
	}
	return nil
}

// ListByEmail returns the user's history newest first, at most limit items.
func (r *HistoryRepository) ListByEmail(ctx context.Context, email string, limit int) ([]models.HistoryItem, error) {
	query := `SELECT ` + historyColumns + ` FROM history_items WHERE user_email = ? ORDER BY created_at DESC LIMIT ?`
	rows, err := r.db.QueryContext(ctx, query, email, limit)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()

	var items []models.HistoryItem
	for rows.Next() {
		item, err := scanHistoryItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

func (r *HistoryRepository) GetByID(ctx context.Context, id string) (*models.HistoryItem, error) {
	query := `SELECT ` + historyColumns + ` FROM history_items WHERE id = ?`
	rows, err := r.db.QueryContext(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("get history item: %w", err)
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("get history item: %w", err)
		}
		return nil, nil
	}
	return scanHistoryItem(rows)
}

func scanHistoryItem(rows *sql.Rows) (*models.HistoryItem, error) {
	var item models.HistoryItem
	var tool string
	var tags sql.NullString
	if err := rows.Scan(&item.ID, &item.UserEmail, &tool, &item.Prompt, &item.MediaURL, &item.Payload, &tags, &item.FolderID, &item.CreatedAt); err != nil {
		return nil, fmt.Errorf("scan history item: %w", err)
	}
	item.Tool = models.ToolType(tool)
	if tags.Valid && tags.String != "" {
		if err := json.Unmarshal([]byte(tags.String), &item.Tags); err != nil {
			return nil, fmt.Errorf("decode tags: %w", err)
		}
	}
	return &item, nil
}

// UpdateTags replaces the tag list of one item. Tags may arrive late from the
// best-effort auto-tagger, so a missing item is not an error.
func (r *HistoryRepository) UpdateTags(ctx context.Context, id string, tags []string) error {
	encoded, err := json.Marshal(tags)
	if err != nil {
		return fmt.Errorf("encode tags: %w", err)
	}
	const query = `UPDATE history_items SET tags = ? WHERE id = ?`
	if _, err := r.db.ExecContext(ctx, query, string(encoded), id); err != nil {
		return fmt.Errorf("update tags: %w", err)
	}
	return nil
}

func (r *HistoryRepository) AssignFolder(ctx context.Context, id, folderID string) error {
	const query = `UPDATE history_items SET folder_id = NULLIF(?, '') WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query, folderID, id)
	if err != nil {
		return fmt.Errorf("assign folder: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("assign folder rows affected: %w", err)
	}
	if affected == 0 {
		return errors.New("history item not found")
	}
	return nil
}

// TrimToCap evicts everything past the newest cap items for one user.
func (r *HistoryRepository) TrimToCap(ctx context.Context, email string, cap int) error {
	const query = `
DELETE h FROM history_items h
JOIN (
    SELECT id FROM history_items
    WHERE user_email = ?
    ORDER BY created_at DESC
    LIMIT ?, 1000000
) stale ON h.id = stale.id`
	if _, err := r.db.ExecContext(ctx, query, email, cap); err != nil {
		return fmt.Errorf("trim history: %w", err)
	}
	return nil
}

func (r *HistoryRepository) DeleteByID(ctx context.Context, id string) error {
	const query = `DELETE FROM history_items WHERE id = ?`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete history item: %w", err)
	}
	return nil
}

func (r *HistoryRepository) Count(ctx context.Context, email string) (int, error) {
	const query = `SELECT COUNT(*) FROM history_items WHERE user_email = ?`
	row := r.db.QueryRowContext(ctx, query, email)
	var count int
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("count history: %w", err)
	}
	return count, nil
}
