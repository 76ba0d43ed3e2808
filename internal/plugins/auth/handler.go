package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"log/slog"
	"net/http"
	"net/mail"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/bookworm/internal/apperror"
	"github.com/keyxmakerx/bookworm/internal/middleware"
	"github.com/keyxmakerx/bookworm/internal/plugins/audit"
	"github.com/keyxmakerx/bookworm/internal/sanitize"
)

// oauthStateCookieName holds "<state>|<encoded intent>" between the redirect
// to the identity provider and its callback.
const oauthStateCookieName = "bookworm_oauth"

// oauthStateTTL bounds how long a visitor may sit on the consent screen.
const oauthStateTTL = 10 * time.Minute

const minPasswordLength = 8

// Handler serves the login, registration, logout and federated sign-in
// pages. Handlers bind the request, call the flow or service, and render.
type Handler struct {
	service        AuthService
	flow           *LoginFlow
	identity       FederatedIdentity
	sessionTTL     time.Duration
	resolveTimeout time.Duration
	activity       ActivityLogger
	activityWG     sync.WaitGroup
}

// NewHandler creates the auth handler. identity may be nil when federated
// sign-in is not configured.
func NewHandler(service AuthService, flow *LoginFlow, identity FederatedIdentity, sessionTTL, resolveTimeout time.Duration) *Handler {
	return &Handler{
		service:        service,
		flow:           flow,
		identity:       identity,
		sessionTTL:     sessionTTL,
		resolveTimeout: resolveTimeout,
	}
}

// LoginForm renders the login page (GET /login).
func (h *Handler) LoginForm(c echo.Context) error {
	intent := ParseIntent(c.QueryParam(RedirectParam))

	// Already signed in: go straight to the target.
	if CurrentSession(c, h.resolveTimeout).IsAuthenticated() {
		return middleware.Navigate(c, intent.Target())
	}

	if c.QueryParam("signed_out") == "1" {
		middleware.SetFlashSuccess(c, "You have been signed out.")
	}

	return middleware.Render(c, http.StatusOK, LoginPage(LoginFormData{
		Redirect: intent.OriginalPath,
		FormID:   uuid.NewString(),
	}))
}

// Login processes the login form submission (POST /login). Every failure,
// including a backend outage, re-renders the form so the visitor can retry
// with the redirect intent intact.
func (h *Handler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request")
	}

	intent := ParseIntent(req.Redirect)
	result, err := h.flow.SubmitCredentials(c.Request().Context(), req.FormID, LoginInput{
		Email:    req.Email,
		Password: req.Password,
	}, intent)
	if err != nil {
		if apperror.SafeCode(err) >= http.StatusInternalServerError {
			slog.Error("password sign-in failed", slog.Any("error", err))
		}
		if errors.Is(err, ErrInvalidCredentials) {
			h.record(c, audit.ActionLoginFailed, "", sanitize.Email(req.Email), nil)
		}
		// Re-render with a fresh form instance so the visitor can retry.
		return middleware.Render(c, http.StatusOK, LoginPage(LoginFormData{
			Email:    req.Email,
			Redirect: intent.OriginalPath,
			FormID:   uuid.NewString(),
			Error:    apperror.SafeMessage(err),
		}))
	}

	h.record(c, audit.ActionLoginSucceeded, result.Session.UserID, result.Session.Email, nil)
	return h.signedIn(c, result)
}

// RegisterForm renders the registration page (GET /register).
func (h *Handler) RegisterForm(c echo.Context) error {
	intent := ParseIntent(c.QueryParam(RedirectParam))

	if CurrentSession(c, h.resolveTimeout).IsAuthenticated() {
		return middleware.Navigate(c, intent.Target())
	}

	return middleware.Render(c, http.StatusOK, RegisterPage(RegisterFormData{
		Redirect: intent.OriginalPath,
	}))
}

// Register processes the registration form submission (POST /register).
// A new account is signed in immediately. A visitor who is already signed
// in is sent on to the intent without creating anything.
func (h *Handler) Register(c echo.Context) error {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request")
	}

	intent := ParseIntent(req.Redirect)
	if CurrentSession(c, h.resolveTimeout).IsAuthenticated() {
		return middleware.Navigate(c, intent.Target())
	}

	form := RegisterFormData{
		Email:       req.Email,
		DisplayName: req.DisplayName,
		PhotoURL:    req.PhotoURL,
		Redirect:    intent.OriginalPath,
	}

	if msg := validateRegisterRequest(&req); msg != "" {
		form.Error = msg
		return middleware.Render(c, http.StatusOK, RegisterPage(form))
	}

	token, sess, err := h.service.Register(c.Request().Context(), RegisterInput{
		Email:       req.Email,
		DisplayName: req.DisplayName,
		Password:    req.Password,
		AvatarURL:   req.PhotoURL,
	})
	if err != nil {
		if apperror.SafeCode(err) >= http.StatusInternalServerError {
			return err
		}
		form.Error = apperror.SafeMessage(err)
		return middleware.Render(c, http.StatusOK, RegisterPage(form))
	}

	h.record(c, audit.ActionRegistered, sess.UserID, sess.Email, nil)
	return h.signedIn(c, &LoginResult{Token: token, Session: sess, Target: intent.Target()})
}

// Logout signs the visitor out (POST /logout). The local session is cleared
// even when the provider fails to revoke the token.
func (h *Handler) Logout(c echo.Context) error {
	if sess := CurrentSession(c, h.resolveTimeout); sess.IsAuthenticated() {
		h.record(c, audit.ActionLogout, sess.UserID, sess.Email, nil)
	}
	if err := GetStore(c).SignOut(c.Request().Context()); err != nil {
		slog.Warn("provider sign-out failed", slog.Any("error", err))
	}
	clearSessionCookie(c)
	return middleware.Navigate(c, "/login?signed_out=1")
}

// GoogleStart sends the visitor to Google's consent page (GET /auth/google).
func (h *Handler) GoogleStart(c echo.Context) error {
	if h.identity == nil {
		return apperror.NewNotFound("Google sign-in is not enabled")
	}

	state, err := generateState()
	if err != nil {
		return apperror.NewInternal(err)
	}

	intent := ParseIntent(c.QueryParam(RedirectParam))
	c.SetCookie(&http.Cookie{
		Name:     oauthStateCookieName,
		Value:    state + "|" + base64.RawURLEncoding.EncodeToString([]byte(intent.OriginalPath)),
		Path:     "/auth/google",
		MaxAge:   int(oauthStateTTL.Seconds()),
		HttpOnly: true,
		Secure:   middleware.IsSecureRequest(c.Request()),
		SameSite: http.SameSiteLaxMode,
	})

	return c.Redirect(http.StatusFound, h.identity.AuthCodeURL(state))
}

// GoogleCallback completes a Google sign-in (GET /auth/google/callback).
func (h *Handler) GoogleCallback(c echo.Context) error {
	state, intent, ok := readOAuthState(c)
	c.SetCookie(&http.Cookie{
		Name:     oauthStateCookieName,
		Value:    "",
		Path:     "/auth/google",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   middleware.IsSecureRequest(c.Request()),
		SameSite: http.SameSiteLaxMode,
	})

	failed := func(reason string) error {
		slog.Warn("google sign-in failed", slog.String("reason", reason))
		return middleware.Render(c, http.StatusOK, LoginPage(LoginFormData{
			Redirect: intent.OriginalPath,
			FormID:   uuid.NewString(),
			Error:    federatedFailureMessage,
		}))
	}

	if !ok || subtle.ConstantTimeCompare([]byte(state), []byte(c.QueryParam("state"))) != 1 {
		return failed("state mismatch")
	}
	if reason := c.QueryParam("error"); reason != "" {
		return failed(reason)
	}

	result, err := h.flow.CompleteFederated(c.Request().Context(), c.QueryParam("code"), intent)
	if err != nil {
		if apperror.SafeCode(err) >= http.StatusInternalServerError {
			return failed(err.Error())
		}
		return err
	}

	h.record(c, audit.ActionFederatedSignIn, result.Session.UserID, result.Session.Email,
		map[string]any{"provider": "google"})
	return h.signedIn(c, result)
}

// signedIn sets the session cookie, updates the request's store, and
// navigates to the result's target.
func (h *Handler) signedIn(c echo.Context, result *LoginResult) error {
	setSessionCookie(c, result.Token, h.sessionTTL)
	GetStore(c).SetAuthenticated(result.Session)
	return middleware.Navigate(c, result.Target)
}

// readOAuthState decodes the state cookie set by GoogleStart.
func readOAuthState(c echo.Context) (string, RedirectIntent, bool) {
	cookie, err := c.Cookie(oauthStateCookieName)
	if err != nil || cookie.Value == "" {
		return "", RedirectIntent{}, false
	}
	state, encoded, found := strings.Cut(cookie.Value, "|")
	if !found || state == "" {
		return "", RedirectIntent{}, false
	}
	raw, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return state, RedirectIntent{}, true
	}
	return state, ParseIntent(string(raw)), true
}

func generateState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// validateRegisterRequest returns a user-facing message, or "" when valid.
func validateRegisterRequest(req *RegisterRequest) string {
	if strings.TrimSpace(req.DisplayName) == "" {
		return "Name is required."
	}
	if _, err := mail.ParseAddress(strings.TrimSpace(req.Email)); err != nil {
		return "Please enter a valid email address."
	}
	if len(req.Password) < minPasswordLength {
		return "Password must be at least 8 characters."
	}
	if req.Password != req.Confirm {
		return "Passwords do not match."
	}
	if req.PhotoURL != "" && sanitize.ImageURL(req.PhotoURL) == "" {
		return "Photo URL must be an http or https link."
	}
	return ""
}
