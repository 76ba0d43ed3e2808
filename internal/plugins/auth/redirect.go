package auth

import (
	"net/url"
	"strings"
)

const (
	// DefaultRedirect is where a successful sign-in lands without an intent.
	DefaultRedirect = "/library"

	// RedirectParam is the login query parameter carrying the intent.
	RedirectParam = "redirect"
)

// RedirectIntent is a deferred navigation target captured when a signed-out
// visitor is turned away from a protected page. It travels with the login
// form until one sign-in succeeds.
type RedirectIntent struct {
	OriginalPath string
}

// CaptureIntent records the path (and query) the visitor asked for.
func CaptureIntent(u *url.URL) RedirectIntent {
	if u == nil {
		return RedirectIntent{}
	}
	return ParseIntent(u.RequestURI())
}

// ParseIntent reads an intent from the redirect parameter. Anything that is
// not a local absolute path yields the zero intent, so a crafted link can't
// send the visitor off-site after signing in.
func ParseIntent(raw string) RedirectIntent {
	raw = strings.TrimSpace(raw)
	if raw == "" || !strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, "//") {
		return RedirectIntent{}
	}
	if strings.ContainsAny(raw, "\\") {
		return RedirectIntent{}
	}
	for _, r := range raw {
		if r < 0x20 || r == 0x7f {
			return RedirectIntent{}
		}
	}

	u, err := url.Parse(raw)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return RedirectIntent{}
	}

	// Returning to the sign-in pages would loop.
	switch u.Path {
	case "/login", "/register", "/logout":
		return RedirectIntent{}
	}

	return RedirectIntent{OriginalPath: raw}
}

// IsZero reports whether no intent was captured.
func (i RedirectIntent) IsZero() bool {
	return i.OriginalPath == ""
}

// Target is where to go after signing in.
func (i RedirectIntent) Target() string {
	if i.IsZero() {
		return DefaultRedirect
	}
	return i.OriginalPath
}

// LoginURL is the login page carrying this intent, e.g.
// /login?redirect=/library.
func (i RedirectIntent) LoginURL() string {
	if i.IsZero() {
		return "/login"
	}
	// Slashes are legal in a query value and keep the URL readable.
	escaped := strings.ReplaceAll(url.QueryEscape(i.OriginalPath), "%2F", "/")
	return "/login?" + RedirectParam + "=" + escaped
}
