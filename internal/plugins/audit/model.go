// Package audit records account activity: sign-ins (successful and
// failed), federated sign-ins, registrations and sign-outs. Entries are
// written by the auth handlers and shown to readers on their dashboard.
//
// Recording is best-effort: a failed write is logged and never blocks the
// sign-in it describes.
package audit

import "time"

// --- Action Constants ---
// Each action string follows the pattern "resource.verb".

const (
	// ActionLoginSucceeded is logged after a successful password sign-in.
	ActionLoginSucceeded = "login.succeeded"

	// ActionLoginFailed is logged when credential verification fails. The
	// entry carries the submitted email, not a user ID.
	ActionLoginFailed = "login.failed"

	// ActionFederatedSignIn is logged after a successful Google sign-in.
	ActionFederatedSignIn = "login.federated"

	// ActionRegistered is logged when a password account is created.
	ActionRegistered = "account.registered"

	// ActionLogout is logged when a reader signs out.
	ActionLogout = "account.logout"
)

// AuditEntry is a single recorded account action.
type AuditEntry struct {
	ID        int64          `json:"id"`
	UserID    string         `json:"userId,omitempty"`
	Email     string         `json:"email"`
	Action    string         `json:"action"`
	IP        string         `json:"ip,omitempty"`
	UserAgent string         `json:"userAgent,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
}

// Label is the human-readable name of the entry's action.
func (e AuditEntry) Label() string {
	switch e.Action {
	case ActionLoginSucceeded:
		return "Signed in"
	case ActionLoginFailed:
		return "Failed sign-in attempt"
	case ActionFederatedSignIn:
		return "Signed in with Google"
	case ActionRegistered:
		return "Account created"
	case ActionLogout:
		return "Signed out"
	default:
		return e.Action
	}
}
