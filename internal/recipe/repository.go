package recipe

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// Repository is a database-backed repository for recipes. Every query is
// scoped to the owning user.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new Repository.
func NewRepository(d *sql.DB) *Repository {
	return &Repository{db: d}
}

const selectRecipe = `
	SELECT id, user_id, link, title, author, image, favicon, ingredients,
		servings, cooking_hours, cooking_minutes, created_at, updated_at
	FROM recipes`

// Create inserts a new recipe.
func (r *Repository) Create(ctx context.Context, rec Recipe) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO recipes (id, user_id, link, title, author, image, favicon, ingredients,
			servings, cooking_hours, cooking_minutes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.UserID, rec.Link, rec.Title, rec.Author, rec.Image, rec.Favicon, rec.Ingredients,
		rec.Servings, rec.CookingHours, rec.CookingMinutes, rec.CreatedAt, rec.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert recipe: %w", err)
	}
	return nil
}

// Get retrieves a recipe by its ID.
func (r *Repository) Get(ctx context.Context, userID, id string) (*Recipe, error) {
	row := r.db.QueryRowContext(ctx, selectRecipe+` WHERE id = ? AND user_id = ?`, id, userID)
	rec, err := scanRecipe(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get recipe by ID: %w", err)
	}
	return rec, nil
}

// ListByUser retrieves all recipes of a user, oldest first.
func (r *Repository) ListByUser(ctx context.Context, userID string) ([]Recipe, error) {
	rows, err := r.db.QueryContext(ctx, selectRecipe+` WHERE user_id = ? ORDER BY created_at ASC, id ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list recipes: %w", err)
	}
	return collect(rows)
}

// ListByIDs retrieves the recipes of a user whose IDs are in ids. Unknown IDs
// are skipped.
func (r *Repository) ListByIDs(ctx context.Context, userID string, ids []string) ([]Recipe, error) {
	if len(ids) == 0 {
		return []Recipe{}, nil
	}

	args := make([]any, 0, len(ids)+1)
	args = append(args, userID)
	for _, id := range ids {
		args = append(args, id)
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")

	query := selectRecipe + ` WHERE user_id = ? AND id IN (` + placeholders + `) ORDER BY created_at ASC, id ASC`
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get recipes by IDs: %w", err)
	}
	return collect(rows)
}

// Update overwrites the editable fields of a recipe.
func (r *Repository) Update(ctx context.Context, rec Recipe) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE recipes SET link = ?, title = ?, author = ?, image = ?, favicon = ?, ingredients = ?,
			servings = ?, cooking_hours = ?, cooking_minutes = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`,
		rec.Link, rec.Title, rec.Author, rec.Image, rec.Favicon, rec.Ingredients,
		rec.Servings, rec.CookingHours, rec.CookingMinutes, rec.UpdatedAt,
		rec.ID, rec.UserID,
	)
	if err != nil {
		return fmt.Errorf("failed to update recipe %s: %w", rec.ID, err)
	}
	return expectOne(res, rec.ID)
}

// Exists reports whether the user owns a recipe with the given ID.
func (r *Repository) Exists(ctx context.Context, userID, id string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM recipes WHERE id = ? AND user_id = ?)`, id, userID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check recipe %s: %w", id, err)
	}
	return exists, nil
}

// Delete removes a recipe and runs cleanup in the same transaction. Nothing
// is committed unless both succeed.
func (r *Repository) Delete(ctx context.Context, userID, id string, cleanup func(context.Context, *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin delete of recipe %s: %w", id, err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM recipes WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete recipe %s: %w", id, err)
	}
	if err := expectOne(res, id); err != nil {
		return err
	}
	if err := cleanup(ctx, tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit delete of recipe %s: %w", id, err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecipe(s scanner) (*Recipe, error) {
	var rec Recipe
	err := s.Scan(
		&rec.ID, &rec.UserID, &rec.Link, &rec.Title, &rec.Author, &rec.Image, &rec.Favicon, &rec.Ingredients,
		&rec.Servings, &rec.CookingHours, &rec.CookingMinutes, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func collect(rows *sql.Rows) ([]Recipe, error) {
	defer rows.Close()

	recipes := []Recipe{}
	for rows.Next() {
		rec, err := scanRecipe(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan recipe: %w", err)
		}
		recipes = append(recipes, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate recipes: %w", err)
	}
	return recipes, nil
}

func expectOne(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows for recipe %s: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
