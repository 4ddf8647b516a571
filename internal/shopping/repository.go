package shopping

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrUserNotFound is returned when the list owner does not exist.
var ErrUserNotFound = errors.New("shopping list owner not found")

// Store persists the raw shopping list of each user.
type Store interface {
	Get(ctx context.Context, userID string) (string, error)
	Replace(ctx context.Context, userID, raw string) error
	Toggle(ctx context.Context, userID, recipeID string) (string, error)
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Repository stores shopping lists in the users.shopping_list column.
type Repository struct {
	db  *sql.DB
	now func() time.Time
}

// NewRepository creates a new shopping list repository.
func NewRepository(d *sql.DB) *Repository {
	return &Repository{
		db:  d,
		now: func() time.Time { return time.Now().UTC() },
	}
}

// The list is wrapped in delimiters so every member, including the first and
// the last, matches ',' || id || ','.
const (
	toggleSQL = `
		UPDATE users SET
			shopping_list = CASE
				WHEN instr(',' || shopping_list || ',', ',' || ?1 || ',') > 0
					THEN trim(replace(',' || shopping_list || ',', ',' || ?1 || ',', ','), ',')
				WHEN shopping_list = '' THEN ?1
				ELSE shopping_list || ',' || ?1
			END,
			updated_at = ?2
		WHERE id = ?3
		RETURNING shopping_list`

	removeSQL = `
		UPDATE users SET
			shopping_list = trim(replace(',' || shopping_list || ',', ',' || ?1 || ',', ','), ','),
			updated_at = ?2
		WHERE id = ?3
		RETURNING shopping_list`
)

// Get returns the raw shopping list of a user.
func (r *Repository) Get(ctx context.Context, userID string) (string, error) {
	var raw string
	err := r.db.QueryRowContext(ctx, `SELECT shopping_list FROM users WHERE id = ?`, userID).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrUserNotFound
		}
		return "", fmt.Errorf("failed to get shopping list for user %s: %w", userID, err)
	}
	return raw, nil
}

// Replace overwrites the raw shopping list of a user.
func (r *Repository) Replace(ctx context.Context, userID, raw string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET shopping_list = ?, updated_at = ? WHERE id = ?`,
		raw, r.now(), userID,
	)
	if err != nil {
		return fmt.Errorf("failed to replace shopping list for user %s: %w", userID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to replace shopping list for user %s: %w", userID, err)
	}
	if n == 0 {
		return ErrUserNotFound
	}
	return nil
}

// Toggle flips the membership of recipeID in a single statement, so
// concurrent toggles for the same user never overwrite each other.
func (r *Repository) Toggle(ctx context.Context, userID, recipeID string) (string, error) {
	return r.update(ctx, r.db, toggleSQL, userID, recipeID, "toggle")
}

// Remove drops recipeID from the list inside tx, so it commits or rolls back
// together with the recipe deletion. It is a no-op when the recipe is not on
// the list.
func (r *Repository) Remove(ctx context.Context, tx *sql.Tx, userID, recipeID string) (string, error) {
	return r.update(ctx, tx, removeSQL, userID, recipeID, "remove")
}

func (r *Repository) update(ctx context.Context, q querier, query, userID, recipeID, op string) (string, error) {
	var raw string
	err := q.QueryRowContext(ctx, query, recipeID, r.now(), userID).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrUserNotFound
		}
		return "", fmt.Errorf("failed to %s recipe %s on shopping list for user %s: %w", op, recipeID, userID, err)
	}
	return raw, nil
}
