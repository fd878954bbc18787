package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// SliceRepository is the persistence gateway for per-user key-value slices
// (brand kit, uploaded models, folders, campaigns). Each slice lives under
// its own (email, slice) record so independent writers cannot clobber each
// other's slices.
type SliceRepository struct {
	db *sql.DB
}

func NewSliceRepository(db *sql.DB) *SliceRepository {
	return &SliceRepository{db: db}
}

func (r *SliceRepository) Save(ctx context.Context, email, slice string, value any) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode slice %s: %w", slice, err)
	}
	const query = `
INSERT INTO user_slices (user_email, slice, payload)
VALUES (?, ?, ?)
ON DUPLICATE KEY UPDATE payload = VALUES(payload)`
	if _, err := r.db.ExecContext(ctx, query, email, slice, string(payload)); err != nil {
		return fmt.Errorf("save slice %s: %w", slice, err)
	}
	return nil
}

// Load decodes the stored slice into dest. Returns false when the slice has
// never been written, leaving dest untouched so callers keep their fallback.
func (r *SliceRepository) Load(ctx context.Context, email, slice string, dest any) (bool, error) {
	const query = `SELECT payload FROM user_slices WHERE user_email = ? AND slice = ?`
	row := r.db.QueryRowContext(ctx, query, email, slice)
	var payload string
	if err := row.Scan(&payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("load slice %s: %w", slice, err)
	}
	if err := json.Unmarshal([]byte(payload), dest); err != nil {
		return false, fmt.Errorf("decode slice %s: %w", slice, err)
	}
	return true, nil
}

func (r *SliceRepository) Delete(ctx context.Context, email, slice string) error {
	const query = `DELETE FROM user_slices WHERE user_email = ? AND slice = ?`
	if _, err := r.db.ExecContext(ctx, query, email, slice); err != nil {
		return fmt.Errorf("delete slice %s: %w", slice, err)
	}
	return nil
}
