package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when no user matches the lookup.
var ErrNotFound = errors.New("user not found")

// User is an account of the application.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Image        string    `json:"image"`
	ShoppingList string    `json:"shoppingList"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Identity is the profile handed over by an authentication provider.
type Identity struct {
	Email string
	Name  string
	Image string
}

// Repository is a database-backed repository for users.
type Repository struct {
	db  *sql.DB
	now func() time.Time
}

// NewRepository creates a new Repository.
func NewRepository(d *sql.DB) *Repository {
	return &Repository{
		db:  d,
		now: func() time.Time { return time.Now().UTC() },
	}
}

const selectUser = `SELECT id, email, name, image, shopping_list, created_at, updated_at FROM users`

// Get retrieves a user by ID.
func (r *Repository) Get(ctx context.Context, id string) (*User, error) {
	return r.scanOne(r.db.QueryRowContext(ctx, selectUser+` WHERE id = ?`, id))
}

// GetByEmail retrieves a user by email address.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*User, error) {
	return r.scanOne(r.db.QueryRowContext(ctx, selectUser+` WHERE email = ?`, email))
}

// Upsert creates the user for a first sign-in or refreshes the profile fields
// of an existing one. New accounts start with an empty shopping list.
func (r *Repository) Upsert(ctx context.Context, identity Identity) (*User, error) {
	if identity.Email == "" {
		return nil, fmt.Errorf("failed to upsert user: empty email")
	}

	now := r.now()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, email, name, image, shopping_list, created_at, updated_at)
		VALUES (?, ?, ?, ?, '', ?, ?)
		ON CONFLICT (email) DO UPDATE SET
			name = excluded.name,
			image = excluded.image,
			updated_at = excluded.updated_at`,
		uuid.NewString(), identity.Email, identity.Name, identity.Image, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert user %s: %w", identity.Email, err)
	}

	return r.GetByEmail(ctx, identity.Email)
}

func (r *Repository) scanOne(row *sql.Row) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.Image, &u.ShoppingList, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}
