package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/tabletop/internal/account"
)

const userColumns = `id, display_name, email, COALESCE(google_id, ''), created_at`

// UserRepository provides user persistence operations.
type UserRepository struct {
	db *pgxpool.Pool
}

// NewUserRepository creates a UserRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

// CreateUser inserts u under a fresh ID.
//
// Postcondition: Returns the created user with ID and CreatedAt set,
// or account.ErrUserExists if the email or Google ID is taken.
func (r *UserRepository) CreateUser(ctx context.Context, u *account.User) (*account.User, error) {
	row := r.db.QueryRow(ctx,
		`INSERT INTO users (id, display_name, email, google_id)
		 VALUES ($1, $2, $3, NULLIF($4, ''))
		 RETURNING `+userColumns,
		uuid.NewString(), u.DisplayName, u.Email, u.GoogleID,
	)
	out, err := scanUser(row)
	if err != nil {
		if isDuplicateKeyError(err) {
			return nil, account.ErrUserExists
		}
		return nil, fmt.Errorf("inserting user: %w", err)
	}
	return out, nil
}

// GetUser retrieves a user by ID or returns account.ErrUserNotFound.
func (r *UserRepository) GetUser(ctx context.Context, id string) (*account.User, error) {
	return r.getBy(ctx, "id", id)
}

// GetUserByGoogleID retrieves the user linked to googleID or returns account.ErrUserNotFound.
func (r *UserRepository) GetUserByGoogleID(ctx context.Context, googleID string) (*account.User, error) {
	return r.getBy(ctx, "google_id", googleID)
}

// DeleteUser removes the user with id or returns account.ErrUserNotFound.
func (r *UserRepository) DeleteUser(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return account.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) getBy(ctx context.Context, column, value string) (*account.User, error) {
	u, err := scanUser(r.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE `+column+` = $1`, value))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, account.ErrUserNotFound
		}
		return nil, fmt.Errorf("querying user by %s: %w", column, err)
	}
	return u, nil
}

func scanUser(row pgx.Row) (*account.User, error) {
	var u account.User
	if err := row.Scan(&u.ID, &u.DisplayName, &u.Email, &u.GoogleID, &u.CreatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}
