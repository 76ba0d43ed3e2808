package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/keyxmakerx/bookworm/internal/apperror"
)

// UserRepository defines the data access contract for provider accounts.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	FindByEmail(ctx context.Context, email string) (*User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	UpdateLastLogin(ctx context.Context, id string) error

	// UpdatePasswordHash replaces the stored hash, used to upgrade legacy
	// bcrypt hashes after a successful sign-in.
	UpdatePasswordHash(ctx context.Context, id, hash string) error

	// UpsertFederated creates a federated account or refreshes the display
	// name and avatar of the existing account with the same email.
	UpsertFederated(ctx context.Context, user *User) error
}

type userRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new user repository backed by the given DB pool.
func NewUserRepository(db *sql.DB) UserRepository {
	return &userRepository{db: db}
}

// Create inserts a new user row.
func (r *userRepository) Create(ctx context.Context, user *User) error {
	query := `INSERT INTO users (id, email, display_name, password_hash, avatar_url, provider, created_at)
	          VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		user.ID,
		user.Email,
		user.DisplayName,
		nullString(user.PasswordHash),
		nullString(user.AvatarURL),
		user.Provider,
		user.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting user: %w", err)
	}
	return nil
}

// FindByEmail retrieves a user by email. Returns apperror.NotFound if none.
func (r *userRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	query := `SELECT id, email, display_name, password_hash, avatar_url,
	                 provider, created_at, last_login_at
	          FROM users WHERE email = ?`

	var (
		user         User
		passwordHash sql.NullString
		avatarURL    sql.NullString
		lastLogin    sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, query, email).Scan(
		&user.ID,
		&user.Email,
		&user.DisplayName,
		&passwordHash,
		&avatarURL,
		&user.Provider,
		&user.CreatedAt,
		&lastLogin,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NewNotFound("user not found")
	}
	if err != nil {
		return nil, fmt.Errorf("querying user by email: %w", err)
	}

	user.PasswordHash = passwordHash.String
	user.AvatarURL = avatarURL.String
	if lastLogin.Valid {
		user.LastLoginAt = &lastLogin.Time
	}
	return &user, nil
}

// EmailExists returns true if a user with the given email already exists.
func (r *userRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE email = ?)`, email).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking email existence: %w", err)
	}
	return exists, nil
}

// UpdateLastLogin sets last_login_at to now for the given user.
func (r *userRepository) UpdateLastLogin(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE users SET last_login_at = NOW() WHERE id = ?`, id); err != nil {
		return fmt.Errorf("updating last login: %w", err)
	}
	return nil
}

// UpdatePasswordHash stores a new password hash for the given user.
func (r *userRepository) UpdatePasswordHash(ctx context.Context, id, hash string) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE users SET password_hash = ? WHERE id = ?`, hash, id); err != nil {
		return fmt.Errorf("updating password hash: %w", err)
	}
	return nil
}

// UpsertFederated inserts the account or, when the email already exists,
// refreshes display name and avatar. The password hash and provider of an
// existing account are left alone so a password user can also use Google.
func (r *userRepository) UpsertFederated(ctx context.Context, user *User) error {
	query := `INSERT INTO users (id, email, display_name, avatar_url, provider, created_at, last_login_at)
	          VALUES (?, ?, ?, ?, ?, ?, NOW())
	          ON DUPLICATE KEY UPDATE
	              display_name = IF(VALUES(display_name) = '', display_name, VALUES(display_name)),
	              avatar_url = COALESCE(VALUES(avatar_url), avatar_url),
	              last_login_at = NOW()`

	_, err := r.db.ExecContext(ctx, query,
		user.ID,
		user.Email,
		user.DisplayName,
		nullString(user.AvatarURL),
		user.Provider,
		user.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("upserting federated user: %w", err)
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
