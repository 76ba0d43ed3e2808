// Package library serves the reader-facing pages behind the session gate:
// browse, the reader's own library, the dashboard and the profile page.
package library

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/bookworm/internal/apperror"
	"github.com/keyxmakerx/bookworm/internal/middleware"
	"github.com/keyxmakerx/bookworm/internal/plugins/audit"
	"github.com/keyxmakerx/bookworm/internal/plugins/auth"
	"github.com/keyxmakerx/bookworm/internal/plugins/users"
)

// Handler renders the protected library pages. Every route is mounted
// behind auth.RequireAuth, so the request's session is always resolved and
// authenticated here.
type Handler struct {
	profiles users.ProfileService
	activity ActivityReader
}

// ActivityReader lists recent account activity. Implemented by
// audit.AuditService.
type ActivityReader interface {
	RecentActivity(ctx context.Context, email string) ([]audit.AuditEntry, error)
	FailedAttemptsSince(ctx context.Context, email string, since time.Time) (int, error)
}

// failedAttemptsWindow is how far back the dashboard counts failed sign-ins.
const failedAttemptsWindow = 24 * time.Hour

// NewHandler creates a library handler.
func NewHandler(profiles users.ProfileService) *Handler {
	return &Handler{profiles: profiles}
}

// SetActivityReader enables the recent activity panel on the dashboard.
func (h *Handler) SetActivityReader(r ActivityReader) {
	h.activity = r
}

// Browse renders GET /browse.
func (h *Handler) Browse(c echo.Context) error {
	return middleware.Render(c, http.StatusOK, BrowsePage(c.QueryParam("q")))
}

// Library renders GET /library, the default landing view after sign-in.
func (h *Handler) Library(c echo.Context) error {
	return middleware.Render(c, http.StatusOK, LibraryPage(auth.GetStore(c).Current()))
}

// Dashboard renders GET /dashboard.
func (h *Handler) Dashboard(c echo.Context) error {
	sess := auth.GetStore(c).Current()
	ctx := c.Request().Context()

	var panel ActivityPanel
	if h.activity != nil {
		entries, err := h.activity.RecentActivity(ctx, sess.Email)
		if err != nil {
			slog.Warn("loading account activity",
				slog.String("user_id", sess.UserID),
				slog.Any("error", err),
			)
		}
		panel.Entries = entries

		failed, err := h.activity.FailedAttemptsSince(ctx, sess.Email, time.Now().Add(-failedAttemptsWindow))
		if err != nil {
			slog.Warn("counting failed sign-ins",
				slog.String("user_id", sess.UserID),
				slog.Any("error", err),
			)
		}
		panel.FailedLastDay = failed
	}

	return middleware.Render(c, http.StatusOK, DashboardPage(sess, panel))
}

// Profile renders GET /profile with the synced reader profile when one
// exists. A missing profile is normal for password accounts.
func (h *Handler) Profile(c echo.Context) error {
	sess := auth.GetStore(c).Current()

	profile, err := h.profiles.Get(c.Request().Context(), sess.Email)
	if err != nil {
		if !apperror.IsCode(err, http.StatusNotFound) {
			slog.Warn("loading reader profile",
				slog.String("user_id", sess.UserID),
				slog.Any("error", err),
			)
		}
		profile = nil
	}

	return middleware.Render(c, http.StatusOK, ProfilePage(sess, profile))
}
