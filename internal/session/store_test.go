package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestStore_StartsUnknown(t *testing.T) {
	s := NewStore(nil)
	if got := s.Current().Status; got != StatusUnknown {
		t.Fatalf("expected unknown, got %s", got)
	}
	select {
	case <-s.Resolved():
		t.Fatal("resolved channel closed before resolution")
	default:
	}
}

func TestStore_ResolveExactlyOnce(t *testing.T) {
	s := NewStore(nil)

	if err := s.Resolve(Authenticated("u1", "a@b.c", "Ann", "")); err != nil {
		t.Fatalf("first resolve: %v", err)
	}
	if err := s.Resolve(Anonymous()); !errors.Is(err, ErrAlreadyResolved) {
		t.Fatalf("expected ErrAlreadyResolved, got %v", err)
	}
	if got := s.Current(); got.Status != StatusAuthenticated || got.UserID != "u1" {
		t.Errorf("second resolve changed state: %+v", got)
	}
}

func TestStore_ResolveUnknownBecomesUnauthenticated(t *testing.T) {
	s := NewStore(nil)
	if err := s.Resolve(Session{Status: StatusUnknown, UserID: "ghost"}); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	got := s.Current()
	if got.Status != StatusUnauthenticated {
		t.Errorf("expected unauthenticated, got %s", got.Status)
	}
	if got.UserID != "" {
		t.Errorf("expected profile cleared, got user %q", got.UserID)
	}
}

func TestStore_SignOutClearsProfile(t *testing.T) {
	var called bool
	s := NewStore(func(ctx context.Context) error {
		called = true
		return nil
	})
	_ = s.Resolve(Authenticated("u1", "a@b.c", "Ann", "https://img/a.png"))

	if err := s.SignOut(context.Background()); err != nil {
		t.Fatalf("sign out: %v", err)
	}
	if !called {
		t.Error("provider sign-out not invoked")
	}
	got := s.Current()
	if got != Anonymous() {
		t.Errorf("expected anonymous session, got %+v", got)
	}
}

func TestStore_SignOutProviderErrorStillTransitions(t *testing.T) {
	boom := errors.New("provider down")
	s := NewStore(func(ctx context.Context) error { return boom })
	_ = s.Resolve(Authenticated("u1", "", "", ""))

	if err := s.SignOut(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected provider error, got %v", err)
	}
	if s.Current().Status != StatusUnauthenticated {
		t.Error("expected unauthenticated after failed provider sign-out")
	}
}

func TestStore_NeverRevertsToUnknown(t *testing.T) {
	s := NewStore(nil)
	_ = s.Resolve(Anonymous())
	s.SetAuthenticated(Session{UserID: "u1"})
	_ = s.SignOut(context.Background())
	s.SetAuthenticated(Session{Status: StatusUnknown, UserID: "u2"})

	if got := s.Current().Status; got != StatusAuthenticated {
		t.Errorf("expected authenticated, got %s", got)
	}
}

func TestStore_SubscribeAndCancel(t *testing.T) {
	s := NewStore(nil)

	var mu sync.Mutex
	var seen []Status
	sub := s.Subscribe(func(sess Session) {
		mu.Lock()
		seen = append(seen, sess.Status)
		mu.Unlock()
	})

	_ = s.Resolve(Authenticated("u1", "", "", ""))
	sub.Cancel()
	sub.Cancel()
	_ = s.SignOut(context.Background())

	mu.Lock()
	defer mu.Unlock()
	if len(seen) != 1 || seen[0] != StatusAuthenticated {
		t.Errorf("expected one authenticated delivery, got %v", seen)
	}
}

func TestStore_WaitResolvesAsynchronously(t *testing.T) {
	s := NewStore(nil)
	go func() {
		time.Sleep(10 * time.Millisecond)
		_ = s.Resolve(Authenticated("u1", "", "", ""))
	}()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if got := s.Wait(ctx); got.Status != StatusAuthenticated {
		t.Errorf("expected authenticated, got %s", got.Status)
	}
}

func TestStore_WaitTimeoutReturnsUnknown(t *testing.T) {
	s := NewStore(nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()

	if got := s.Wait(ctx); got.Status != StatusUnknown {
		t.Errorf("expected unknown, got %s", got.Status)
	}
}

func TestStatus_String(t *testing.T) {
	tests := map[Status]string{
		StatusUnknown:         "unknown",
		StatusAuthenticated:   "authenticated",
		StatusUnauthenticated: "unauthenticated",
	}
	for status, want := range tests {
		if got := status.String(); got != want {
			t.Errorf("Status(%d).String() = %q, want %q", status, got, want)
		}
	}
}
