// Package auth is BookWorm's session gate. It resolves the visitor's
// session against the identity provider, guards protected routes, and runs
// the login, registration and federated sign-in flows.
//
// The gate talks to the identity provider only through the Provider
// interface. The provider shipped here keeps argon2id-hashed users in
// MariaDB and opaque session tokens in Redis.
package auth

import (
	"time"
)

// User is the identity provider's account record.
type User struct {
	ID           string
	Email        string
	DisplayName  string
	PasswordHash string // Empty for federated-only accounts.
	AvatarURL    string
	Provider     string
	CreatedAt    time.Time
	LastLoginAt  *time.Time
}

// Account providers stored in users.provider.
const (
	ProviderPassword = "password"
	ProviderGoogle   = "google"
)

// --- Request DTOs (bound from HTTP requests) ---

// LoginRequest holds the data submitted by the login form.
type LoginRequest struct {
	Email    string `form:"email"`
	Password string `form:"password"`
	Redirect string `form:"redirect"`
	FormID   string `form:"form_id"`
}

// RegisterRequest holds the data submitted by the registration form.
type RegisterRequest struct {
	Email       string `form:"email"`
	DisplayName string `form:"display_name"`
	Password    string `form:"password"`
	Confirm     string `form:"confirm"`
	Redirect    string `form:"redirect"`
	PhotoURL    string `form:"photo_url"`
}

// --- Service Input DTOs ---

// LoginInput is the credential pair passed to the provider.
type LoginInput struct {
	Email    string
	Password string
}

// RegisterInput is the validated input for creating a password account.
type RegisterInput struct {
	Email       string
	DisplayName string
	Password    string
	AvatarURL   string
}

// FederatedProfile is what a third-party identity provider tells us about
// the visitor after a successful sign-in.
type FederatedProfile struct {
	Subject string
	Email   string
	Name    string
	Picture string
}

// storedSession is the JSON value kept in Redis under session:<token>.
type storedSession struct {
	UserID      string    `json:"user_id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	AvatarURL   string    `json:"avatar_url"`
	CreatedAt   time.Time `json:"created_at"`
}
