package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/keyxmakerx/bookworm/internal/apperror"
	"github.com/keyxmakerx/bookworm/internal/sanitize"
	"github.com/keyxmakerx/bookworm/internal/session"
)

// sessionKeyPrefix is the Redis key prefix for session data.
const sessionKeyPrefix = "session:"

// sessionTokenBytes is the number of random bytes in a session token
// (256 bits, hex-encoded to 64 characters).
const sessionTokenBytes = 32

// Client-facing messages. Credential failures never say which half was wrong.
const (
	invalidCredentialsMessage = "Invalid email or password. Please try again."
	federatedFailureMessage   = "Could not sign in with Google."
)

var (
	// ErrInvalidCredentials is wrapped by every credential verification failure.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrProviderFailure is wrapped by every federated sign-in failure.
	ErrProviderFailure = errors.New("identity provider failure")
)

// Provider is the identity provider contract the session gate consumes.
type Provider interface {
	// VerifyCredentials checks email/password and opens a session.
	VerifyCredentials(ctx context.Context, email, password string) (token string, sess session.Session, err error)

	// SignInFederated completes a third-party sign-in from its authorization
	// code and opens a session.
	SignInFederated(ctx context.Context, code string) (token string, sess session.Session, profile FederatedProfile, err error)

	// SignOut revokes the session behind token.
	SignOut(ctx context.Context, token string) error

	// Lookup resolves a session token. A missing or expired token is an
	// unauthenticated session, not an error.
	Lookup(ctx context.Context, token string) (session.Session, error)
}

// AuthService is the Provider plus account registration.
type AuthService interface {
	Provider
	Register(ctx context.Context, input RegisterInput) (token string, sess session.Session, err error)
}

// authService implements AuthService with argon2id hashing, MariaDB users
// and Redis sessions.
type authService struct {
	repo       UserRepository
	redis      *redis.Client
	identity   FederatedIdentity
	sessionTTL time.Duration
}

// NewAuthService creates the identity provider. identity may be nil when
// federated sign-in is not configured.
func NewAuthService(repo UserRepository, rdb *redis.Client, identity FederatedIdentity, sessionTTL time.Duration) AuthService {
	return &authService{
		repo:       repo,
		redis:      rdb,
		identity:   identity,
		sessionTTL: sessionTTL,
	}
}

// Register creates a password account and signs it in.
func (s *authService) Register(ctx context.Context, input RegisterInput) (string, session.Session, error) {
	email := sanitize.Email(input.Email)

	// Check the email before doing expensive hashing.
	exists, err := s.repo.EmailExists(ctx, email)
	if err != nil {
		return "", session.Anonymous(), apperror.NewInternal(fmt.Errorf("checking email: %w", err))
	}
	if exists {
		return "", session.Anonymous(), apperror.NewConflict("an account with this email already exists")
	}

	hash, err := hashPassword(input.Password)
	if err != nil {
		return "", session.Anonymous(), apperror.NewInternal(fmt.Errorf("hashing password: %w", err))
	}

	user := &User{
		ID:           uuid.NewString(),
		Email:        email,
		DisplayName:  sanitize.PlainText(input.DisplayName, 100),
		PasswordHash: hash,
		AvatarURL:    sanitize.ImageURL(input.AvatarURL),
		Provider:     ProviderPassword,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return "", session.Anonymous(), apperror.NewInternal(fmt.Errorf("creating user: %w", err))
	}

	slog.Info("user registered", slog.String("user_id", user.ID))

	return s.openSession(ctx, user)
}

// VerifyCredentials authenticates by email and password.
func (s *authService) VerifyCredentials(ctx context.Context, email, password string) (string, session.Session, error) {
	user, err := s.repo.FindByEmail(ctx, sanitize.Email(email))
	if err != nil {
		if apperror.IsCode(err, http.StatusNotFound) {
			return "", session.Anonymous(), invalidCredentials()
		}
		return "", session.Anonymous(), apperror.NewInternal(fmt.Errorf("finding user: %w", err))
	}

	// Federated-only accounts have no hash and can't sign in with a password.
	if user.PasswordHash == "" || !verifyPassword(password, user.PasswordHash) {
		return "", session.Anonymous(), invalidCredentials()
	}

	if needsRehash(user.PasswordHash) {
		s.upgradeHash(ctx, user.ID, password)
	}

	token, sess, err := s.openSession(ctx, user)
	if err != nil {
		return "", session.Anonymous(), err
	}

	if err := s.repo.UpdateLastLogin(ctx, user.ID); err != nil {
		slog.Warn("failed to update last login",
			slog.String("user_id", user.ID),
			slog.Any("error", err),
		)
	}

	slog.Info("user logged in", slog.String("user_id", user.ID))
	return token, sess, nil
}

// upgradeHash rehashes a verified password with the current parameters.
// Failure leaves the old hash in place.
func (s *authService) upgradeHash(ctx context.Context, userID, password string) {
	hash, err := hashPassword(password)
	if err == nil {
		err = s.repo.UpdatePasswordHash(ctx, userID, hash)
	}
	if err != nil {
		slog.Warn("failed to upgrade password hash",
			slog.String("user_id", userID),
			slog.Any("error", err),
		)
		return
	}
	slog.Info("password hash upgraded", slog.String("user_id", userID))
}

// SignInFederated exchanges the authorization code with the federated
// identity, creates or refreshes the matching account, and opens a session.
// Every failure, including our own storage, is an ErrProviderFailure so
// the visitor gets the login page back to retry.
func (s *authService) SignInFederated(ctx context.Context, code string) (string, session.Session, FederatedProfile, error) {
	if s.identity == nil {
		return "", session.Anonymous(), FederatedProfile{}, providerFailure(errors.New("federated sign-in not configured"))
	}

	profile, err := s.identity.Exchange(ctx, code)
	if err != nil {
		return "", session.Anonymous(), FederatedProfile{}, providerFailure(err)
	}

	email := sanitize.Email(profile.Email)
	candidate := &User{
		ID:          uuid.NewString(),
		Email:       email,
		DisplayName: sanitize.PlainText(profile.Name, 100),
		AvatarURL:   sanitize.ImageURL(profile.Picture),
		Provider:    ProviderGoogle,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.repo.UpsertFederated(ctx, candidate); err != nil {
		return "", session.Anonymous(), FederatedProfile{}, providerFailure(fmt.Errorf("upserting federated user: %w", err))
	}

	// Re-read: on conflict the existing row keeps its own ID.
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return "", session.Anonymous(), FederatedProfile{}, providerFailure(fmt.Errorf("loading federated user: %w", err))
	}

	token, sess, err := s.openSession(ctx, user)
	if err != nil {
		return "", session.Anonymous(), FederatedProfile{}, providerFailure(err)
	}

	slog.Info("user signed in with google", slog.String("user_id", user.ID))

	profile.Email = email
	return token, sess, *profile, nil
}

// SignOut removes the session from Redis.
func (s *authService) SignOut(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.redis.Del(ctx, sessionKeyPrefix+token).Err(); err != nil {
		return apperror.NewInternal(fmt.Errorf("deleting session from Redis: %w", err))
	}
	return nil
}

// Lookup reads the session for token from Redis.
func (s *authService) Lookup(ctx context.Context, token string) (session.Session, error) {
	if token == "" {
		return session.Anonymous(), nil
	}

	data, err := s.redis.Get(ctx, sessionKeyPrefix+token).Bytes()
	if errors.Is(err, redis.Nil) {
		return session.Anonymous(), nil
	}
	if err != nil {
		return session.Anonymous(), apperror.NewInternal(fmt.Errorf("reading session from Redis: %w", err))
	}

	var stored storedSession
	if err := json.Unmarshal(data, &stored); err != nil {
		return session.Anonymous(), apperror.NewInternal(fmt.Errorf("unmarshaling session: %w", err))
	}

	return session.Authenticated(stored.UserID, stored.Email, stored.DisplayName, stored.AvatarURL), nil
}

// openSession stores a new session in Redis with the configured TTL.
func (s *authService) openSession(ctx context.Context, user *User) (string, session.Session, error) {
	token, err := generateSessionToken()
	if err != nil {
		return "", session.Anonymous(), apperror.NewInternal(fmt.Errorf("generating session token: %w", err))
	}

	data, err := json.Marshal(storedSession{
		UserID:      user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		AvatarURL:   user.AvatarURL,
		CreatedAt:   time.Now().UTC(),
	})
	if err != nil {
		return "", session.Anonymous(), apperror.NewInternal(fmt.Errorf("marshaling session: %w", err))
	}

	if err := s.redis.Set(ctx, sessionKeyPrefix+token, data, s.sessionTTL).Err(); err != nil {
		return "", session.Anonymous(), apperror.NewInternal(fmt.Errorf("storing session in Redis: %w", err))
	}

	return token, session.Authenticated(user.ID, user.Email, user.DisplayName, user.AvatarURL), nil
}

func invalidCredentials() *apperror.AppError {
	return &apperror.AppError{
		Code:     http.StatusUnauthorized,
		Type:     "invalid_credentials",
		Message:  invalidCredentialsMessage,
		Internal: ErrInvalidCredentials,
	}
}

func providerFailure(err error) *apperror.AppError {
	return apperror.NewBadGateway(federatedFailureMessage, fmt.Errorf("%w: %w", ErrProviderFailure, err))
}

// generateSessionToken creates a cryptographically random hex-encoded token.
func generateSessionToken() (string, error) {
	b := make([]byte, sessionTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
