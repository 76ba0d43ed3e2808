// Package session holds the visitor's authentication state for a single
// request. A Store starts in StatusUnknown, is resolved exactly once to
// authenticated or unauthenticated by the identity provider, and notifies
// subscribers on every change. Consumers (route guard, navbar) only read.
package session

// Status is the three-state authentication status of a visitor.
type Status int

const (
	// StatusUnknown means resolution against the provider has not finished.
	StatusUnknown Status = iota

	// StatusAuthenticated means the visitor holds a valid session.
	StatusAuthenticated

	// StatusUnauthenticated means the visitor has no valid session.
	StatusUnauthenticated
)

// String returns the lowercase name used in logs.
func (s Status) String() string {
	switch s {
	case StatusAuthenticated:
		return "authenticated"
	case StatusUnauthenticated:
		return "unauthenticated"
	default:
		return "unknown"
	}
}

// Session is a snapshot of the visitor's authentication status and profile.
// Profile fields are only populated when Status is StatusAuthenticated.
type Session struct {
	Status      Status `json:"-"`
	UserID      string `json:"user_id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url"`
}

// Unknown returns the initial session snapshot.
func Unknown() Session {
	return Session{Status: StatusUnknown}
}

// Anonymous returns an unauthenticated session with no profile fields.
func Anonymous() Session {
	return Session{Status: StatusUnauthenticated}
}

// Authenticated returns an authenticated session for the given profile.
func Authenticated(userID, email, displayName, avatarURL string) Session {
	return Session{
		Status:      StatusAuthenticated,
		UserID:      userID,
		Email:       email,
		DisplayName: displayName,
		AvatarURL:   avatarURL,
	}
}

// IsAuthenticated reports whether the session is authenticated.
func (s Session) IsAuthenticated() bool {
	return s.Status == StatusAuthenticated
}

// IsResolved reports whether the session has left the unknown state.
func (s Session) IsResolved() bool {
	return s.Status != StatusUnknown
}
