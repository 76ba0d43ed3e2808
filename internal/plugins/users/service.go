package users

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/mail"
	"time"

	"github.com/keyxmakerx/bookworm/internal/apperror"
	"github.com/keyxmakerx/bookworm/internal/sanitize"
)

// ProfileService defines the business logic for reader profiles.
type ProfileService interface {
	Upsert(ctx context.Context, req UpsertRequest) (*Profile, error)
	Get(ctx context.Context, email string) (*Profile, error)
}

type profileService struct {
	repo ProfileRepository
	now  func() time.Time
}

// NewProfileService creates a profile service over the given repository.
func NewProfileService(repo ProfileRepository) ProfileService {
	return &profileService{repo: repo, now: time.Now}
}

// Upsert validates and normalizes the request and stores it. Calling it
// twice with the same email updates the same profile.
func (s *profileService) Upsert(ctx context.Context, req UpsertRequest) (*Profile, error) {
	email := sanitize.Email(req.Email)
	if email == "" {
		return nil, apperror.NewValidation("email is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, apperror.NewValidation("email is invalid")
	}

	photo := sanitize.ImageURL(req.Photo)
	if req.Photo != "" && photo == "" {
		return nil, apperror.NewValidation("photo must be an http(s) URL")
	}

	now := s.now().UTC()
	p := &Profile{
		Email:     email,
		Name:      sanitize.PlainText(req.Name, maxNameLength),
		Photo:     photo,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Upsert(ctx, p); err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("storing profile: %w", err))
	}

	slog.Debug("reader profile upserted", slog.String("email", p.Email))
	return p, nil
}

// Get returns the profile stored for email.
func (s *profileService) Get(ctx context.Context, email string) (*Profile, error) {
	p, err := s.repo.FindByEmail(ctx, sanitize.Email(email))
	if err != nil {
		if apperror.IsCode(err, http.StatusNotFound) {
			return nil, err
		}
		return nil, apperror.NewInternal(fmt.Errorf("loading profile: %w", err))
	}
	return p, nil
}
