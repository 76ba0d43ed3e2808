package auth

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/keyxmakerx/bookworm/internal/apperror"
	"github.com/keyxmakerx/bookworm/internal/session"
)

// --- Mock Provider ---

// mockAuthService implements AuthService for flow, guard and handler tests.
type mockAuthService struct {
	verifyFn    func(ctx context.Context, email, password string) (string, session.Session, error)
	federatedFn func(ctx context.Context, code string) (string, session.Session, FederatedProfile, error)
	signOutFn   func(ctx context.Context, token string) error
	lookupFn    func(ctx context.Context, token string) (session.Session, error)
	registerFn  func(ctx context.Context, input RegisterInput) (string, session.Session, error)
}

func (m *mockAuthService) VerifyCredentials(ctx context.Context, email, password string) (string, session.Session, error) {
	if m.verifyFn != nil {
		return m.verifyFn(ctx, email, password)
	}
	return "", session.Anonymous(), invalidCredentials()
}

func (m *mockAuthService) SignInFederated(ctx context.Context, code string) (string, session.Session, FederatedProfile, error) {
	if m.federatedFn != nil {
		return m.federatedFn(ctx, code)
	}
	return "", session.Anonymous(), FederatedProfile{}, providerFailure(errors.New("not configured"))
}

func (m *mockAuthService) SignOut(ctx context.Context, token string) error {
	if m.signOutFn != nil {
		return m.signOutFn(ctx, token)
	}
	return nil
}

func (m *mockAuthService) Lookup(ctx context.Context, token string) (session.Session, error) {
	if m.lookupFn != nil {
		return m.lookupFn(ctx, token)
	}
	return session.Anonymous(), nil
}

func (m *mockAuthService) Register(ctx context.Context, input RegisterInput) (string, session.Session, error) {
	if m.registerFn != nil {
		return m.registerFn(ctx, input)
	}
	return "", session.Anonymous(), apperror.NewConflict("exists")
}

// --- Mock Lock / Syncer ---

// memoryLock is an in-process SubmitLock.
type memoryLock struct {
	mu       sync.Mutex
	held     map[string]bool
	err      error
	released []string
}

func newMemoryLock() *memoryLock {
	return &memoryLock{held: make(map[string]bool)}
}

func (l *memoryLock) Acquire(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return false, l.err
	}
	if l.held[key] {
		return false, nil
	}
	l.held[key] = true
	return true, nil
}

func (l *memoryLock) Release(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.held, key)
	l.released = append(l.released, key)
	return nil
}

type syncerFunc func(ctx context.Context, profile FederatedProfile) error

func (f syncerFunc) SyncProfile(ctx context.Context, profile FederatedProfile) error {
	return f(ctx, profile)
}

func readerSession() session.Session {
	return session.Authenticated("user-1", "reader@example.com", "Reader", "")
}

func acceptPassword(password string) func(context.Context, string, string) (string, session.Session, error) {
	return func(_ context.Context, _, p string) (string, session.Session, error) {
		if p != password {
			return "", session.Anonymous(), invalidCredentials()
		}
		return "token-1", readerSession(), nil
	}
}

// --- SubmitCredentials ---

func TestSubmitCredentials_NavigatesToIntent(t *testing.T) {
	flow := NewLoginFlow(&mockAuthService{verifyFn: acceptPassword("pw")}, newMemoryLock(), nil, time.Second)

	result, err := flow.SubmitCredentials(context.Background(), "form-1",
		LoginInput{Email: "reader@example.com", Password: "pw"}, ParseIntent("/dashboard"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Target != "/dashboard" {
		t.Errorf("expected target /dashboard, got %q", result.Target)
	}
	if result.Token != "token-1" || !result.Session.IsAuthenticated() {
		t.Errorf("unexpected result %+v", result)
	}
}

func TestSubmitCredentials_DefaultTarget(t *testing.T) {
	flow := NewLoginFlow(&mockAuthService{verifyFn: acceptPassword("pw")}, nil, nil, time.Second)

	result, err := flow.SubmitCredentials(context.Background(), "",
		LoginInput{Email: "reader@example.com", Password: "pw"}, RedirectIntent{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Target != DefaultRedirect {
		t.Errorf("expected default target %q, got %q", DefaultRedirect, result.Target)
	}
}

func TestSubmitCredentials_FailureAllowsRetry(t *testing.T) {
	lock := newMemoryLock()
	flow := NewLoginFlow(&mockAuthService{verifyFn: acceptPassword("pw")}, lock, nil, time.Second)
	intent := ParseIntent("/dashboard")

	result, err := flow.SubmitCredentials(context.Background(), "form-1",
		LoginInput{Email: "reader@example.com", Password: "wrong"}, intent)
	if result != nil {
		t.Errorf("expected no result on failure, got %+v", result)
	}
	assertAppError(t, err, http.StatusUnauthorized)
	if len(lock.released) != 1 {
		t.Fatalf("expected lock released once, got %v", lock.released)
	}

	// Same form, second attempt: the lock is free and the intent still holds.
	result, err = flow.SubmitCredentials(context.Background(), "form-1",
		LoginInput{Email: "reader@example.com", Password: "pw"}, intent)
	if err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if result.Target != "/dashboard" {
		t.Errorf("expected intent to survive the failed attempt, got %q", result.Target)
	}
}

func TestSubmitCredentials_DuplicateInFlight(t *testing.T) {
	lock := newMemoryLock()
	entered := make(chan struct{})
	release := make(chan struct{})
	provider := &mockAuthService{
		verifyFn: func(_ context.Context, _, _ string) (string, session.Session, error) {
			close(entered)
			<-release
			return "token-1", readerSession(), nil
		},
	}
	flow := NewLoginFlow(provider, lock, nil, time.Second)
	input := LoginInput{Email: "reader@example.com", Password: "pw"}

	done := make(chan error, 1)
	go func() {
		_, err := flow.SubmitCredentials(context.Background(), "form-1", input, RedirectIntent{})
		done <- err
	}()
	<-entered

	_, err := flow.SubmitCredentials(context.Background(), "form-1", input, RedirectIntent{})
	assertAppError(t, err, http.StatusConflict)

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("first submission failed: %v", err)
	}
}

func TestSubmitCredentials_LockUnavailableFailsOpen(t *testing.T) {
	lock := newMemoryLock()
	lock.err = errors.New("redis down")
	flow := NewLoginFlow(&mockAuthService{verifyFn: acceptPassword("pw")}, lock, nil, time.Second)

	if _, err := flow.SubmitCredentials(context.Background(), "form-1",
		LoginInput{Email: "reader@example.com", Password: "pw"}, RedirectIntent{}); err != nil {
		t.Fatalf("expected sign-in to proceed, got %v", err)
	}
	if len(lock.released) != 0 {
		t.Errorf("expected no release for a lock never taken, got %v", lock.released)
	}
}

func TestSubmitCredentials_RequiresBothFields(t *testing.T) {
	provider := &mockAuthService{
		verifyFn: func(_ context.Context, _, _ string) (string, session.Session, error) {
			t.Error("provider must not be called with empty credentials")
			return "", session.Anonymous(), nil
		},
	}
	flow := NewLoginFlow(provider, nil, nil, time.Second)

	for _, in := range []LoginInput{
		{Email: "", Password: "pw"},
		{Email: "   ", Password: "pw"},
		{Email: "reader@example.com", Password: ""},
	} {
		_, err := flow.SubmitCredentials(context.Background(), "", in, RedirectIntent{})
		assertAppError(t, err, http.StatusUnprocessableEntity)
	}
}

// --- CompleteFederated ---

func federatedOK(_ context.Context, _ string) (string, session.Session, FederatedProfile, error) {
	return "token-g", readerSession(), FederatedProfile{Email: "reader@example.com", Name: "Reader"}, nil
}

func TestCompleteFederated_UpsertFailureDoesNotBlock(t *testing.T) {
	called := make(chan FederatedProfile, 1)
	syncer := syncerFunc(func(_ context.Context, p FederatedProfile) error {
		called <- p
		return errors.New("backend unavailable")
	})
	flow := NewLoginFlow(&mockAuthService{federatedFn: federatedOK}, nil, syncer, time.Second)

	result, err := flow.CompleteFederated(context.Background(), "code", ParseIntent("/browse"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Target != "/browse" {
		t.Errorf("expected target /browse, got %q", result.Target)
	}

	select {
	case p := <-called:
		if p.Email != "reader@example.com" {
			t.Errorf("unexpected synced profile %+v", p)
		}
	case <-time.After(time.Second):
		t.Fatal("expected profile sync to run")
	}
	flow.Wait()
}

func TestCompleteFederated_DoesNotWaitForUpsert(t *testing.T) {
	block := make(chan struct{})
	syncer := syncerFunc(func(ctx context.Context, _ FederatedProfile) error {
		select {
		case <-block:
		case <-ctx.Done():
		}
		return nil
	})
	flow := NewLoginFlow(&mockAuthService{federatedFn: federatedOK}, nil, syncer, 5*time.Second)

	done := make(chan struct{})
	go func() {
		defer close(done)
		if _, err := flow.CompleteFederated(context.Background(), "code", RedirectIntent{}); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sign-in blocked on the profile upsert")
	}
	close(block)
	flow.Wait()
}

func TestCompleteFederated_ProviderError(t *testing.T) {
	syncer := syncerFunc(func(_ context.Context, _ FederatedProfile) error {
		t.Error("sync must not run after a failed sign-in")
		return nil
	})
	flow := NewLoginFlow(&mockAuthService{}, nil, syncer, time.Second)

	result, err := flow.CompleteFederated(context.Background(), "code", RedirectIntent{})
	if result != nil {
		t.Errorf("expected no result, got %+v", result)
	}
	assertAppError(t, err, http.StatusBadGateway)
	flow.Wait()
}
