package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/keyxmakerx/bookworm/internal/apperror"
)

// ProfileRepository defines the data access contract for reader profiles.
type ProfileRepository interface {
	Upsert(ctx context.Context, p *Profile) error
	FindByEmail(ctx context.Context, email string) (*Profile, error)
}

// profileRepository implements ProfileRepository with MariaDB queries.
type profileRepository struct {
	db *sql.DB
}

// NewProfileRepository creates a repository backed by the given DB pool.
func NewProfileRepository(db *sql.DB) ProfileRepository {
	return &profileRepository{db: db}
}

// Upsert inserts the profile or updates name/photo of the existing row with
// the same email. created_at is only written on insert.
func (r *profileRepository) Upsert(ctx context.Context, p *Profile) error {
	query := `INSERT INTO reader_profiles (email, name, photo, created_at, updated_at)
	          VALUES (?, ?, ?, ?, ?)
	          ON DUPLICATE KEY UPDATE
	              name = VALUES(name),
	              photo = VALUES(photo),
	              updated_at = VALUES(updated_at)`

	_, err := r.db.ExecContext(ctx, query, p.Email, p.Name, p.Photo, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upserting reader profile: %w", err)
	}
	return nil
}

// FindByEmail returns the profile for email, or apperror.NotFound.
func (r *profileRepository) FindByEmail(ctx context.Context, email string) (*Profile, error) {
	query := `SELECT email, name, photo, created_at, updated_at
	          FROM reader_profiles WHERE email = ?`

	p := &Profile{}
	err := r.db.QueryRowContext(ctx, query, email).Scan(
		&p.Email,
		&p.Name,
		&p.Photo,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NewNotFound("profile not found")
	}
	if err != nil {
		return nil, fmt.Errorf("querying reader profile: %w", err)
	}
	return p, nil
}
