// Package users is the reader profile backend. It stores the public profile
// ({name, email, photo}) of every reader who signs in, keyed by email, and
// exposes an idempotent upsert endpoint plus a client the sign-in flow uses
// to call it.
package users

import "time"

// Profile is a reader's public profile. Email is the unique key.
type Profile struct {
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Photo     string    `json:"photo"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UpsertRequest is the JSON body of POST /api/v1/users.
type UpsertRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Photo string `json:"photo"`
}

// maxNameLength matches reader_profiles.name.
const maxNameLength = 100
