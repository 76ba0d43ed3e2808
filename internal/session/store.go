package session

import (
	"context"
	"errors"
	"sync"
)

// ErrAlreadyResolved is returned by Resolve when the store has already left
// the unknown state.
var ErrAlreadyResolved = errors.New("session already resolved")

// SignOutFunc performs the provider-side sign-out for the current session.
type SignOutFunc func(ctx context.Context) error

// Store holds the current Session and fans out updates to subscribers.
// It is safe for concurrent use.
type Store struct {
	mu       sync.Mutex
	current  Session
	resolved chan struct{}
	subs     map[int]func(Session)
	nextID   int
	signOut  SignOutFunc
}

// NewStore returns a store in the unknown state. signOut may be nil when
// there is no provider session to revoke.
func NewStore(signOut SignOutFunc) *Store {
	return &Store{
		current:  Unknown(),
		resolved: make(chan struct{}),
		subs:     make(map[int]func(Session)),
		signOut:  signOut,
	}
}

// Current returns the latest snapshot.
func (s *Store) Current() Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Resolve completes the initial resolution. It must be called exactly once;
// an unknown status is coerced to unauthenticated so the store can never
// stay unknown after resolution.
func (s *Store) Resolve(sess Session) error {
	if sess.Status != StatusAuthenticated {
		sess = Anonymous()
	}

	s.mu.Lock()
	if s.current.Status != StatusUnknown {
		s.mu.Unlock()
		return ErrAlreadyResolved
	}
	s.current = sess
	close(s.resolved)
	subs := s.snapshotSubs()
	s.mu.Unlock()

	notify(subs, sess)
	return nil
}

// SetAuthenticated records a successful sign-in. If the store is still
// unknown this also counts as its resolution.
func (s *Store) SetAuthenticated(sess Session) {
	sess.Status = StatusAuthenticated
	s.update(sess)
}

// SignOut revokes the provider session and moves the store to
// unauthenticated with all profile fields cleared. The local transition
// happens even if the provider call fails; the provider error is returned.
func (s *Store) SignOut(ctx context.Context) error {
	var err error
	if s.signOut != nil {
		err = s.signOut(ctx)
	}
	s.update(Anonymous())
	return err
}

// Resolved returns a channel closed once the store leaves the unknown state.
func (s *Store) Resolved() <-chan struct{} {
	return s.resolved
}

// Wait blocks until the store is resolved or ctx is done and returns the
// snapshot at that point. A done context yields an unknown snapshot if
// resolution has not finished.
func (s *Store) Wait(ctx context.Context) Session {
	select {
	case <-s.resolved:
	case <-ctx.Done():
	}
	return s.Current()
}

// Subscribe registers fn to be called with every future update. The
// returned subscription stops delivery when cancelled.
func (s *Store) Subscribe(fn func(Session)) *Subscription {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	s.subs[id] = fn

	return &Subscription{store: s, id: id}
}

func (s *Store) update(sess Session) {
	s.mu.Lock()
	wasUnknown := s.current.Status == StatusUnknown
	s.current = sess
	if wasUnknown {
		close(s.resolved)
	}
	subs := s.snapshotSubs()
	s.mu.Unlock()

	notify(subs, sess)
}

// snapshotSubs copies the subscriber list; callers hold s.mu.
func (s *Store) snapshotSubs() []func(Session) {
	out := make([]func(Session), 0, len(s.subs))
	for _, fn := range s.subs {
		out = append(out, fn)
	}
	return out
}

func notify(subs []func(Session), sess Session) {
	for _, fn := range subs {
		fn(sess)
	}
}

// Subscription is a cancellable handle returned by Store.Subscribe.
type Subscription struct {
	store *Store
	id    int
	once  sync.Once
}

// Cancel stops further deliveries. Safe to call more than once.
func (sub *Subscription) Cancel() {
	sub.once.Do(func() {
		sub.store.mu.Lock()
		delete(sub.store.subs, sub.id)
		sub.store.mu.Unlock()
	})
}
