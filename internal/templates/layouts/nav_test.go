package layouts

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/a-h/templ"

	"github.com/keyxmakerx/bookworm/internal/session"
)

func TestBuildNav_SignOutOnlyWhenAuthenticated(t *testing.T) {
	tests := []struct {
		name        string
		sess        session.Session
		wantSignOut bool
	}{
		{"unknown", session.Unknown(), false},
		{"unauthenticated", session.Anonymous(), false},
		{"authenticated", session.Authenticated("u1", "ann@example.com", "Ann", ""), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nav := BuildNav(tt.sess, "/")
			if nav.ShowSignOut != tt.wantSignOut {
				t.Errorf("ShowSignOut = %v, want %v", nav.ShowSignOut, tt.wantSignOut)
			}
			if (nav.Account != nil) != tt.wantSignOut {
				t.Errorf("Account present = %v, want %v", nav.Account != nil, tt.wantSignOut)
			}
			if tt.wantSignOut && len(nav.AuthLinks) != 0 {
				t.Errorf("authenticated nav should not show sign-in links, got %v", nav.AuthLinks)
			}
			if !tt.wantSignOut && len(nav.Links) != 0 {
				t.Errorf("guest nav should not show protected links, got %v", nav.Links)
			}
		})
	}
}

func TestBuildNav_ActiveLinkAndAvatarFallback(t *testing.T) {
	nav := BuildNav(session.Authenticated("u1", "ann@example.com", "", ""), "/library")

	var active []string
	for _, l := range nav.Links {
		if l.Active {
			active = append(active, l.Path)
		}
	}
	if len(active) != 1 || active[0] != "/library" {
		t.Errorf("expected only /library active, got %v", active)
	}
	if nav.Account.AvatarURL != DefaultAvatarURL {
		t.Errorf("expected fallback avatar, got %q", nav.Account.AvatarURL)
	}
	if nav.Account.DisplayName != "ann@example.com" {
		t.Errorf("expected email as display name fallback, got %q", nav.Account.DisplayName)
	}
}

func render(t *testing.T, ctx context.Context, c templ.Component) string {
	t.Helper()
	var buf bytes.Buffer
	if err := c.Render(ctx, &buf); err != nil {
		t.Fatalf("render: %v", err)
	}
	return buf.String()
}

func TestNavbar_RendersGuestControls(t *testing.T) {
	ctx := SetSession(context.Background(), session.Anonymous())
	out := render(t, ctx, Navbar())

	if !strings.Contains(out, `href="/login"`) || !strings.Contains(out, `href="/register"`) {
		t.Errorf("expected login and register links:\n%s", out)
	}
	if strings.Contains(out, `action="/logout"`) {
		t.Errorf("guest navbar must not contain the sign-out control:\n%s", out)
	}
}

func TestNavbar_RendersAccountControls(t *testing.T) {
	ctx := SetSession(context.Background(), session.Authenticated("u1", "a@b.c", "<b>Ann</b>", "https://img.example.com/a.png"))
	ctx = SetCSRFToken(ctx, "tok123")
	ctx = SetActivePath(ctx, "/browse")
	out := render(t, ctx, Navbar())

	for _, want := range []string{
		`action="/logout"`,
		`value="tok123"`,
		`href="/browse" class="active"`,
		`href="/dashboard"`,
		`src="https://img.example.com/a.png"`,
		`&lt;b&gt;Ann&lt;/b&gt;`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in navbar:\n%s", want, out)
		}
	}
	if strings.Contains(out, `href="/login"`) {
		t.Errorf("signed-in navbar must not contain the login link:\n%s", out)
	}
}

func TestBase_WrapsBodyWithFlash(t *testing.T) {
	ctx := SetFlashError(context.Background(), "Invalid email or password. Please try again.")
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, "<p>hello</p>")
		return err
	})
	out := render(t, ctx, Refreshing("Loading", 2, body))

	for _, want := range []string{"<title>Loading · BookWorm</title>", `content="2"`, "<p>hello</p>", "flash-error"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in page:\n%s", want, out)
		}
	}
}
