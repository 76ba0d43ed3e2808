package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// googleUserInfoURL is Google's OpenID Connect userinfo endpoint.
const googleUserInfoURL = "https://openidconnect.googleapis.com/v1/userinfo"

// FederatedIdentity is a third-party identity provider reached through the
// OAuth2 authorization code flow.
type FederatedIdentity interface {
	// AuthCodeURL returns the consent page URL carrying state.
	AuthCodeURL(state string) string

	// Exchange trades an authorization code for the visitor's profile.
	Exchange(ctx context.Context, code string) (*FederatedProfile, error)
}

// GoogleIdentity signs visitors in with their Google account.
type GoogleIdentity struct {
	oauth       *oauth2.Config
	userInfoURL string
}

// NewGoogleIdentity configures Google sign-in. The callback is served at
// baseURL + "/auth/google/callback".
func NewGoogleIdentity(clientID, clientSecret, baseURL string) *GoogleIdentity {
	return &GoogleIdentity{
		oauth: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Endpoint:     google.Endpoint,
			RedirectURL:  baseURL + "/auth/google/callback",
			Scopes:       []string{"openid", "email", "profile"},
		},
		userInfoURL: googleUserInfoURL,
	}
}

// AuthCodeURL implements FederatedIdentity.
func (g *GoogleIdentity) AuthCodeURL(state string) string {
	return g.oauth.AuthCodeURL(state, oauth2.SetAuthURLParam("prompt", "select_account"))
}

type googleUserInfo struct {
	Subject       string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

// Exchange implements FederatedIdentity.
func (g *GoogleIdentity) Exchange(ctx context.Context, code string) (*FederatedProfile, error) {
	if code == "" {
		return nil, errors.New("missing authorization code")
	}

	token, err := g.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchanging authorization code: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.userInfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building userinfo request: %w", err)
	}

	resp, err := g.oauth.Client(ctx, token).Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching userinfo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("userinfo returned %d: %s", resp.StatusCode, body)
	}

	var info googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("decoding userinfo: %w", err)
	}
	if info.Email == "" || !info.EmailVerified {
		return nil, errors.New("google account has no verified email")
	}

	return &FederatedProfile{
		Subject: info.Subject,
		Email:   info.Email,
		Name:    info.Name,
		Picture: info.Picture,
	}, nil
}
