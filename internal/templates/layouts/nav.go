package layouts

import (
	"github.com/keyxmakerx/bookworm/internal/session"
)

// DefaultAvatarURL is shown when the account has no profile photo.
const DefaultAvatarURL = "https://cdn-icons-png.flaticon.com/512/149/149071.png"

// NavLink is one entry of the navigation bar.
type NavLink struct {
	Name   string
	Path   string
	Active bool
}

// NavAccount is the account block shown to signed-in visitors.
type NavAccount struct {
	DisplayName string
	AvatarURL   string
	ProfilePath string
}

// Nav is the view model of the navigation bar for one session state.
// Account and ShowSignOut are only set for authenticated sessions.
type Nav struct {
	Status      session.Status
	Links       []NavLink
	AuthLinks   []NavLink
	Account     *NavAccount
	ShowSignOut bool
	CSRFToken   string
}

// protectedLinks are the library sections, shown only to signed-in readers.
var protectedLinks = []NavLink{
	{Name: "Browse", Path: "/browse"},
	{Name: "My Library", Path: "/library"},
	{Name: "Dashboard", Path: "/dashboard"},
}

// guestLinks are the sign-in and sign-up affordances.
var guestLinks = []NavLink{
	{Name: "Login", Path: "/login"},
	{Name: "Sign Up", Path: "/register"},
}

// BuildNav derives the navigation bar from the session state. Unknown and
// unauthenticated sessions both get the guest variant; only an
// authenticated session sees protected links and the sign-out control.
func BuildNav(sess session.Session, activePath string) Nav {
	nav := Nav{Status: sess.Status}

	switch sess.Status {
	case session.StatusAuthenticated:
		nav.Links = markActive(protectedLinks, activePath)
		avatar := sess.AvatarURL
		if avatar == "" {
			avatar = DefaultAvatarURL
		}
		name := sess.DisplayName
		if name == "" {
			name = sess.Email
		}
		nav.Account = &NavAccount{
			DisplayName: name,
			AvatarURL:   avatar,
			ProfilePath: "/profile",
		}
		nav.ShowSignOut = true

	case session.StatusUnauthenticated, session.StatusUnknown:
		nav.AuthLinks = markActive(guestLinks, activePath)
	}

	return nav
}

func markActive(links []NavLink, activePath string) []NavLink {
	out := make([]NavLink, len(links))
	for i, l := range links {
		l.Active = l.Path == activePath
		out[i] = l
	}
	return out
}
