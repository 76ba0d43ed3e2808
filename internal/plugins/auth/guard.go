package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/bookworm/internal/middleware"
	"github.com/keyxmakerx/bookworm/internal/session"
)

// Decision is the guard's verdict for one evaluation.
type Decision int

const (
	// DecisionLoading means the session is still unknown: show a neutral
	// loading state and do not navigate.
	DecisionLoading Decision = iota

	// DecisionRedirect means the visitor is signed out and has been (or
	// already was) sent to the login page.
	DecisionRedirect

	// DecisionRender means the visitor may see the protected page.
	DecisionRender
)

func (d Decision) String() string {
	switch d {
	case DecisionLoading:
		return "loading"
	case DecisionRedirect:
		return "redirect"
	case DecisionRender:
		return "render"
	default:
		return "invalid"
	}
}

// Navigator performs client navigation.
type Navigator interface {
	Navigate(path string) error
}

// Guard gates a protected view on the session state. It navigates to the
// login page once per transition into the unauthenticated state; repeated
// evaluations with the same state do not navigate again.
type Guard struct {
	nav Navigator

	mu         sync.Mutex
	redirected bool
}

// NewGuard creates a guard that navigates through nav.
func NewGuard(nav Navigator) *Guard {
	return &Guard{nav: nav}
}

// Evaluate decides what to show for the requested URL given sess.
func (g *Guard) Evaluate(sess session.Session, requested *url.URL) (Decision, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	switch sess.Status {
	case session.StatusAuthenticated:
		g.redirected = false
		return DecisionRender, nil

	case session.StatusUnauthenticated:
		if g.redirected {
			return DecisionRedirect, nil
		}
		g.redirected = true
		return DecisionRedirect, g.nav.Navigate(CaptureIntent(requested).LoginURL())

	default:
		return DecisionLoading, nil
	}
}

// echoNavigator navigates the current Echo request. API clients get a JSON
// 401 carrying the login URL instead of a redirect.
type echoNavigator struct {
	c echo.Context
}

func (n echoNavigator) Navigate(path string) error {
	if middleware.IsAPIRequest(n.c) {
		return n.c.JSON(http.StatusUnauthorized, map[string]string{
			"error":    "unauthorized",
			"message":  "Sign in required.",
			"redirect": path,
		})
	}
	return middleware.Navigate(n.c, path)
}

// storeContextKey is the Echo context key holding the request's *session.Store.
const storeContextKey = "session_store"

// SessionCookieName is the cookie carrying the opaque session token.
const SessionCookieName = "bookworm_session"

// ResolveSession attaches a session store to every request and resolves it
// against the provider in the background. Handlers that need the answer
// wait on the store; handlers that don't (public pages) render right away
// with whatever the store holds.
func ResolveSession(provider Provider) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if strings.HasPrefix(c.Request().URL.Path, "/static/") {
				return next(c)
			}

			token := sessionToken(c)
			store := session.NewStore(func(ctx context.Context) error {
				return provider.SignOut(ctx, token)
			})
			c.Set(storeContextKey, store)

			path := c.Request().URL.Path
			sub := store.Subscribe(func(s session.Session) {
				slog.Debug("session state changed",
					slog.String("path", path),
					slog.String("status", s.Status.String()),
				)
			})
			defer sub.Cancel()

			ctx := c.Request().Context()
			go func() {
				sess, err := provider.Lookup(ctx, token)
				if err != nil {
					// The request finishing first is not worth a warning.
					if ctx.Err() == nil {
						slog.Warn("session lookup failed", slog.Any("error", err))
					}
					sess = session.Anonymous()
				}
				// A sign-in during this request may have resolved it first.
				if err := store.Resolve(sess); err != nil && !errors.Is(err, session.ErrAlreadyResolved) {
					slog.Error("resolving session", slog.Any("error", err))
				}
			}()

			return next(c)
		}
	}
}

// GetStore returns the request's session store. Requests that skipped
// ResolveSession get a store that is already unauthenticated.
func GetStore(c echo.Context) *session.Store {
	if store, ok := c.Get(storeContextKey).(*session.Store); ok {
		return store
	}
	store := session.NewStore(nil)
	_ = store.Resolve(session.Anonymous())
	c.Set(storeContextKey, store)
	return store
}

// CurrentSession waits up to timeout for the session to resolve and returns
// the snapshot. It may still be unknown if the provider is slow.
func CurrentSession(c echo.Context, timeout time.Duration) session.Session {
	ctx, cancel := context.WithTimeout(c.Request().Context(), timeout)
	defer cancel()
	return GetStore(c).Wait(ctx)
}

// RequireAuth guards the routes below it. An unknown session after
// resolveTimeout renders a loading page that refreshes itself; a signed-out
// visitor is sent to the login page with the requested path as the intent.
func RequireAuth(resolveTimeout time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			sess := CurrentSession(c, resolveTimeout)

			if sess.Status == session.StatusUnauthenticated && sessionToken(c) != "" {
				clearSessionCookie(c)
			}

			decision, err := NewGuard(echoNavigator{c: c}).Evaluate(sess, c.Request().URL)
			switch decision {
			case DecisionRender:
				return next(c)
			case DecisionLoading:
				c.Response().Header().Set("Retry-After", "2")
				return middleware.Render(c, http.StatusOK, LoadingPage(2))
			default:
				return err
			}
		}
	}
}

// sessionToken reads the session cookie, or "".
func sessionToken(c echo.Context) string {
	cookie, err := c.Cookie(SessionCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// setSessionCookie stores the session token in an HttpOnly cookie.
func setSessionCookie(c echo.Context, token string, ttl time.Duration) {
	c.SetCookie(&http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   middleware.IsSecureRequest(c.Request()),
		SameSite: http.SameSiteLaxMode,
	})
}

// clearSessionCookie removes the session cookie.
func clearSessionCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   middleware.IsSecureRequest(c.Request()),
		SameSite: http.SameSiteLaxMode,
	})
}
