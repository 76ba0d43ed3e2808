package auth

import (
	"context"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/bookworm/internal/plugins/audit"
)

// activityTimeout bounds a single activity write detached from the request.
const activityTimeout = 5 * time.Second

// ActivityLogger records account activity. Implemented by
// audit.AuditService; failures are logged by the implementation.
type ActivityLogger interface {
	Log(ctx context.Context, entry *audit.AuditEntry) error
}

// SetActivityLogger enables activity recording for sign-in events.
func (h *Handler) SetActivityLogger(l ActivityLogger) {
	h.activity = l
}

// record writes an activity entry in the background. The request never
// waits for it and its outcome does not affect the response.
func (h *Handler) record(c echo.Context, action, userID, email string, details map[string]any) {
	if h.activity == nil || email == "" {
		return
	}

	entry := &audit.AuditEntry{
		UserID:    userID,
		Email:     email,
		Action:    action,
		IP:        c.RealIP(),
		UserAgent: c.Request().UserAgent(),
		Details:   details,
	}
	ctx := context.WithoutCancel(c.Request().Context())

	h.activityWG.Add(1)
	go func() {
		defer h.activityWG.Done()
		ctx, cancel := context.WithTimeout(ctx, activityTimeout)
		defer cancel()
		_ = h.activity.Log(ctx, entry)
	}()
}

// WaitActivity blocks until in-flight activity writes have finished.
// Called during shutdown before the database pool is closed.
func (h *Handler) WaitActivity() {
	h.activityWG.Wait()
}
