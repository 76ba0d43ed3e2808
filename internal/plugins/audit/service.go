package audit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/keyxmakerx/bookworm/internal/apperror"
	"github.com/keyxmakerx/bookworm/internal/sanitize"
)

// recentActivityLimit is the number of entries shown on the dashboard.
const recentActivityLimit = 10

// maxUserAgentLength matches audit_log.user_agent.
const maxUserAgentLength = 255

// AuditService handles business logic for the audit log.
type AuditService interface {
	// Log records an audit entry. Callers treat it as fire-and-forget:
	// failures are logged here and the returned error may be ignored.
	Log(ctx context.Context, entry *AuditEntry) error

	// RecentActivity returns the latest entries for an account.
	RecentActivity(ctx context.Context, email string) ([]AuditEntry, error)

	// FailedAttemptsSince counts failed sign-ins for an account since t.
	FailedAttemptsSince(ctx context.Context, email string, since time.Time) (int, error)
}

// auditService implements AuditService.
type auditService struct {
	repo AuditRepository
}

// NewAuditService creates a new audit service with the given repository.
func NewAuditService(repo AuditRepository) AuditService {
	return &auditService{repo: repo}
}

// Log validates and persists an audit entry.
func (s *auditService) Log(ctx context.Context, entry *AuditEntry) error {
	entry.Email = sanitize.Email(entry.Email)
	if entry.Email == "" {
		return apperror.NewBadRequest("email is required for audit entry")
	}
	if entry.Action == "" {
		return apperror.NewBadRequest("action is required for audit entry")
	}
	if len(entry.UserAgent) > maxUserAgentLength {
		entry.UserAgent = entry.UserAgent[:maxUserAgentLength]
	}

	if err := s.repo.Log(ctx, entry); err != nil {
		slog.Error("failed to write audit log entry",
			slog.String("action", entry.Action),
			slog.Any("error", err),
		)
		return apperror.NewInternal(fmt.Errorf("writing audit entry: %w", err))
	}

	return nil
}

// RecentActivity returns an account's latest entries, newest first.
func (s *auditService) RecentActivity(ctx context.Context, email string) ([]AuditEntry, error) {
	email = sanitize.Email(email)
	if email == "" {
		return nil, apperror.NewBadRequest("email is required")
	}

	entries, err := s.repo.ListByEmail(ctx, email, recentActivityLimit)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("listing account activity: %w", err))
	}
	return entries, nil
}

// FailedAttemptsSince counts failed sign-ins for an account since t.
func (s *auditService) FailedAttemptsSince(ctx context.Context, email string, since time.Time) (int, error) {
	n, err := s.repo.CountSince(ctx, sanitize.Email(email), ActionLoginFailed, since)
	if err != nil {
		return 0, apperror.NewInternal(fmt.Errorf("counting failed sign-ins: %w", err))
	}
	return n, nil
}
