package library

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/bookworm/internal/apperror"
	"github.com/keyxmakerx/bookworm/internal/plugins/audit"
	"github.com/keyxmakerx/bookworm/internal/plugins/auth"
	"github.com/keyxmakerx/bookworm/internal/plugins/users"
	"github.com/keyxmakerx/bookworm/internal/session"
)

// --- Mocks ---

type mockProfiles struct {
	getFn func(ctx context.Context, email string) (*users.Profile, error)
}

func (m *mockProfiles) Upsert(_ context.Context, _ users.UpsertRequest) (*users.Profile, error) {
	return nil, errors.New("not implemented")
}

func (m *mockProfiles) Get(ctx context.Context, email string) (*users.Profile, error) {
	if m.getFn != nil {
		return m.getFn(ctx, email)
	}
	return nil, apperror.NewNotFound("profile not found")
}

type mockActivity struct {
	recentFn func(ctx context.Context, email string) ([]audit.AuditEntry, error)
	failedFn func(ctx context.Context, email string, since time.Time) (int, error)
}

func (m *mockActivity) RecentActivity(ctx context.Context, email string) ([]audit.AuditEntry, error) {
	if m.recentFn != nil {
		return m.recentFn(ctx, email)
	}
	return nil, nil
}

func (m *mockActivity) FailedAttemptsSince(ctx context.Context, email string, since time.Time) (int, error) {
	if m.failedFn != nil {
		return m.failedFn(ctx, email, since)
	}
	return 0, nil
}

// sessionProvider resolves every token to a fixed session.
type sessionProvider struct {
	sess session.Session
}

func (p sessionProvider) VerifyCredentials(context.Context, string, string) (string, session.Session, error) {
	return "", session.Anonymous(), errors.New("not implemented")
}

func (p sessionProvider) SignInFederated(context.Context, string) (string, session.Session, auth.FederatedProfile, error) {
	return "", session.Anonymous(), auth.FederatedProfile{}, errors.New("not implemented")
}

func (p sessionProvider) SignOut(context.Context, string) error { return nil }

func (p sessionProvider) Lookup(context.Context, string) (session.Session, error) {
	return p.sess, nil
}

func newLibraryEcho(sess session.Session, profiles users.ProfileService) *echo.Echo {
	e := echo.New()
	e.Use(auth.ResolveSession(sessionProvider{sess: sess}))
	RegisterRoutes(e.Group("", auth.RequireAuth(time.Second)), NewHandler(profiles))
	return e
}

func get(e *echo.Echo, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.AddCookie(&http.Cookie{Name: auth.SessionCookieName, Value: "t"})
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

var reader = session.Authenticated("user-1", "reader@example.com", "Reader", "")

// --- Tests ---

func TestPages_RequireSignIn(t *testing.T) {
	e := newLibraryEcho(session.Anonymous(), &mockProfiles{})

	for _, path := range []string{"/browse", "/library", "/dashboard", "/profile"} {
		rec := get(e, path)
		if rec.Code != http.StatusSeeOther {
			t.Errorf("%s: expected 303, got %d", path, rec.Code)
			continue
		}
		if loc := rec.Header().Get("Location"); loc != "/login?redirect="+path {
			t.Errorf("%s: unexpected redirect %q", path, loc)
		}
	}
}

func TestPages_RenderForReader(t *testing.T) {
	e := newLibraryEcho(reader, &mockProfiles{})

	tests := []struct {
		path string
		want string
	}{
		{"/browse?q=dune", "No books match “dune” yet."},
		{"/library", "Reader's library"},
		{"/dashboard", "Signed in as reader@example.com."},
		{"/profile", "reader@example.com"},
	}
	for _, tt := range tests {
		rec := get(e, tt.path)
		if rec.Code != http.StatusOK {
			t.Errorf("%s: expected 200, got %d", tt.path, rec.Code)
			continue
		}
		if !strings.Contains(rec.Body.String(), tt.want) {
			t.Errorf("%s: expected %q in body:\n%s", tt.path, tt.want, rec.Body.String())
		}
	}
}

func TestProfile_ShowsSyncedProfile(t *testing.T) {
	profiles := &mockProfiles{
		getFn: func(_ context.Context, email string) (*users.Profile, error) {
			return &users.Profile{
				Email:     email,
				Name:      "Reader From Google",
				Photo:     "https://lh3.example.com/p.jpg",
				UpdatedAt: time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC),
			}, nil
		},
	}
	e := newLibraryEcho(reader, profiles)

	body := get(e, "/profile").Body.String()
	for _, want := range []string{"Reader From Google", `src="https://lh3.example.com/p.jpg"`, "Profile synced 14 Mar 2026."} {
		if !strings.Contains(body, want) {
			t.Errorf("expected %q in profile page", want)
		}
	}
}

func TestProfile_LookupErrorStillRenders(t *testing.T) {
	profiles := &mockProfiles{
		getFn: func(_ context.Context, _ string) (*users.Profile, error) {
			return nil, apperror.NewInternal(errors.New("db down"))
		},
	}
	e := newLibraryEcho(reader, profiles)

	rec := get(e, "/profile")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "Profile synced") {
		t.Error("no synced profile expected")
	}
}

func TestDashboard_ShowsRecentActivity(t *testing.T) {
	e := echo.New()
	e.Use(auth.ResolveSession(sessionProvider{sess: reader}))
	h := NewHandler(&mockProfiles{})
	h.SetActivityReader(&mockActivity{recentFn: func(_ context.Context, email string) ([]audit.AuditEntry, error) {
		if email != "reader@example.com" {
			t.Errorf("unexpected email %q", email)
		}
		return []audit.AuditEntry{
			{Action: audit.ActionFederatedSignIn, IP: "203.0.113.7", CreatedAt: time.Date(2026, 10, 18, 9, 30, 0, 0, time.UTC)},
			{Action: audit.ActionLoginFailed, CreatedAt: time.Date(2026, 10, 17, 22, 5, 0, 0, time.UTC)},
		}, nil
	}})
	RegisterRoutes(e.Group("", auth.RequireAuth(time.Second)), h)

	rec := get(e, "/dashboard")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{
		"Recent account activity",
		"Signed in with Google",
		"from 203.0.113.7",
		"Failed sign-in attempt",
		"18 Oct 2026 09:30",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("expected %q in dashboard", want)
		}
	}
}

func TestDashboard_ActivityErrorStillRenders(t *testing.T) {
	e := echo.New()
	e.Use(auth.ResolveSession(sessionProvider{sess: reader}))
	h := NewHandler(&mockProfiles{})
	h.SetActivityReader(&mockActivity{
		recentFn: func(context.Context, string) ([]audit.AuditEntry, error) {
			return nil, errors.New("db down")
		},
		failedFn: func(context.Context, string, time.Time) (int, error) {
			return 0, errors.New("db down")
		},
	})
	RegisterRoutes(e.Group("", auth.RequireAuth(time.Second)), h)

	rec := get(e, "/dashboard")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "Recent account activity") {
		t.Error("activity panel should be hidden when loading fails")
	}
}

func TestDashboard_ShowsFailedSignInsFromLastDay(t *testing.T) {
	e := echo.New()
	e.Use(auth.ResolveSession(sessionProvider{sess: reader}))
	h := NewHandler(&mockProfiles{})
	h.SetActivityReader(&mockActivity{
		failedFn: func(_ context.Context, email string, since time.Time) (int, error) {
			if email != "reader@example.com" {
				t.Errorf("unexpected email %q", email)
			}
			if age := time.Since(since); age < 23*time.Hour || age > 25*time.Hour {
				t.Errorf("expected a 24h window, got %v", age)
			}
			return 3, nil
		},
	})
	RegisterRoutes(e.Group("", auth.RequireAuth(time.Second)), h)

	rec := get(e, "/dashboard")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "3 failed sign-in attempts in the last 24 hours.") {
		t.Errorf("expected failed sign-in warning in dashboard:\n%s", rec.Body.String())
	}
}

func TestDashboard_NoFailedSignInsHidesWarning(t *testing.T) {
	e := echo.New()
	e.Use(auth.ResolveSession(sessionProvider{sess: reader}))
	h := NewHandler(&mockProfiles{})
	h.SetActivityReader(&mockActivity{})
	RegisterRoutes(e.Group("", auth.RequireAuth(time.Second)), h)

	rec := get(e, "/dashboard")
	if strings.Contains(rec.Body.String(), "failed sign-in") {
		t.Error("no warning expected without failed sign-ins")
	}
}
