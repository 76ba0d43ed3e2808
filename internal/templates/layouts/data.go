// Package layouts holds the page shell and the navigation bar, plus the typed
// context helpers that carry layout data from middleware to templates.
//
// Data flow: Session middleware → Echo Context → LayoutInjector → Go Context → templ
package layouts

import (
	"context"

	"github.com/keyxmakerx/bookworm/internal/session"
)

// ctxKey is a private type for context keys to prevent collisions.
type ctxKey string

const (
	keySession       ctxKey = "layout_session"
	keyCSRFToken     ctxKey = "layout_csrf_token"
	keyActivePath    ctxKey = "layout_active_path"
	keyFlashSuccess  ctxKey = "layout_flash_success"
	keyFlashError    ctxKey = "layout_flash_error"
	keyGoogleEnabled ctxKey = "layout_google_enabled"
)

// --- Setters (called by the layout injector in app/routes.go) ---

// SetSession stores the visitor's resolved session snapshot.
func SetSession(ctx context.Context, sess session.Session) context.Context {
	return context.WithValue(ctx, keySession, sess)
}

// SetCSRFToken stores the CSRF token for forms.
func SetCSRFToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, keyCSRFToken, token)
}

// SetActivePath stores the current request path for nav highlighting.
func SetActivePath(ctx context.Context, path string) context.Context {
	return context.WithValue(ctx, keyActivePath, path)
}

// SetFlashSuccess stores a success notice for the current render.
func SetFlashSuccess(ctx context.Context, msg string) context.Context {
	return context.WithValue(ctx, keyFlashSuccess, msg)
}

// SetFlashError stores a failure notice for the current render.
func SetFlashError(ctx context.Context, msg string) context.Context {
	return context.WithValue(ctx, keyFlashError, msg)
}

// SetGoogleEnabled records whether the federated sign-in button is shown.
func SetGoogleEnabled(ctx context.Context, enabled bool) context.Context {
	return context.WithValue(ctx, keyGoogleEnabled, enabled)
}

// --- Getters (called by templates) ---

// GetSession returns the session snapshot, or an unknown session when the
// request never went through the session middleware.
func GetSession(ctx context.Context) session.Session {
	sess, ok := ctx.Value(keySession).(session.Session)
	if !ok {
		return session.Unknown()
	}
	return sess
}

// GetCSRFToken returns the CSRF token, or "".
func GetCSRFToken(ctx context.Context) string {
	token, _ := ctx.Value(keyCSRFToken).(string)
	return token
}

// GetActivePath returns the current request path.
func GetActivePath(ctx context.Context) string {
	path, _ := ctx.Value(keyActivePath).(string)
	return path
}

// GetFlashSuccess returns a success notice, or "".
func GetFlashSuccess(ctx context.Context) string {
	msg, _ := ctx.Value(keyFlashSuccess).(string)
	return msg
}

// GetFlashError returns a failure notice, or "".
func GetFlashError(ctx context.Context) string {
	msg, _ := ctx.Value(keyFlashError).(string)
	return msg
}

// GoogleEnabled reports whether "Sign in with Google" is available.
func GoogleEnabled(ctx context.Context) bool {
	enabled, _ := ctx.Value(keyGoogleEnabled).(bool)
	return enabled
}
