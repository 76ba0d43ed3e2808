package auth

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/keyxmakerx/bookworm/internal/apperror"
	"github.com/keyxmakerx/bookworm/internal/session"
)

// ProfileSyncer pushes a federated profile to the user backend.
type ProfileSyncer interface {
	SyncProfile(ctx context.Context, profile FederatedProfile) error
}

// LoginResult is a successful sign-in: the token to set as the session
// cookie, the new session, and where to navigate next.
type LoginResult struct {
	Token   string
	Session session.Session
	Target  string
}

// LoginFlow runs credential and federated sign-ins on top of a Provider.
type LoginFlow struct {
	provider    Provider
	lock        SubmitLock
	syncer      ProfileSyncer
	syncTimeout time.Duration

	wg sync.WaitGroup
}

// NewLoginFlow wires the login flow. lock and syncer may be nil.
func NewLoginFlow(provider Provider, lock SubmitLock, syncer ProfileSyncer, syncTimeout time.Duration) *LoginFlow {
	return &LoginFlow{
		provider:    provider,
		lock:        lock,
		syncer:      syncer,
		syncTimeout: syncTimeout,
	}
}

// SubmitCredentials verifies an email/password pair for one form instance.
// A second submission of the same formID while the first is in flight is
// rejected with 409. On failure the intent is left untouched so the visitor
// can retry from the same form.
func (f *LoginFlow) SubmitCredentials(ctx context.Context, formID string, input LoginInput, intent RedirectIntent) (*LoginResult, error) {
	if strings.TrimSpace(input.Email) == "" || input.Password == "" {
		return nil, apperror.NewValidation("Email and password are required.")
	}

	if f.lock != nil && formID != "" {
		acquired, held := acquireOrProceed(ctx, f.lock, formID)
		if held {
			return nil, apperror.NewConflict("A sign-in request is already in progress.")
		}
		if acquired {
			defer func() {
				// The request context may be gone; release on a fresh one.
				relCtx, cancel := context.WithTimeout(context.Background(), time.Second)
				defer cancel()
				if err := f.lock.Release(relCtx, formID); err != nil {
					slog.Warn("failed to release submit lock", slog.Any("error", err))
				}
			}()
		}
	}

	token, sess, err := f.provider.VerifyCredentials(ctx, input.Email, input.Password)
	if err != nil {
		return nil, err
	}

	return &LoginResult{Token: token, Session: sess, Target: intent.Target()}, nil
}

// CompleteFederated finishes a federated sign-in from its authorization
// code. The profile upsert runs in the background; its failure is logged and
// never affects the result.
func (f *LoginFlow) CompleteFederated(ctx context.Context, code string, intent RedirectIntent) (*LoginResult, error) {
	token, sess, profile, err := f.provider.SignInFederated(ctx, code)
	if err != nil {
		return nil, err
	}

	if f.syncer != nil {
		f.wg.Add(1)
		go f.syncProfile(profile)
	}

	return &LoginResult{Token: token, Session: sess, Target: intent.Target()}, nil
}

func (f *LoginFlow) syncProfile(profile FederatedProfile) {
	defer f.wg.Done()

	ctx, cancel := context.WithTimeout(context.Background(), f.syncTimeout)
	defer cancel()

	if err := f.syncer.SyncProfile(ctx, profile); err != nil {
		slog.Warn("profile upsert failed",
			slog.String("email", profile.Email),
			slog.Any("error", fmt.Errorf("syncing federated profile: %w", err)),
		)
		return
	}
	slog.Debug("profile upserted", slog.String("email", profile.Email))
}

// Wait blocks until background profile syncs have finished. Called during
// shutdown.
func (f *LoginFlow) Wait() {
	f.wg.Wait()
}
