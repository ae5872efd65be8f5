package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"finance-client/internal/logging"

	"github.com/sirupsen/logrus"
)

// ErrInvalidSession is returned by Login when token or username is empty.
var ErrInvalidSession = errors.New("token and username are required")

// KV is the durable client-side storage the store persists into.
type KV interface {
	Get(ctx context.Context, key string) (string, bool, error)
	SetMany(ctx context.Context, entries map[string]string) error
	Delete(ctx context.Context, keys ...string) error
}

// Listener is called with the new session after every token change.
type Listener func(Session)

// Store owns the session. It starts unresolved; Init reads the persisted
// values and resolves it.
type Store struct {
	kv  KV
	log *logrus.Entry

	mu        sync.RWMutex
	session   Session
	resolved  bool
	nextID    int
	listeners map[int]Listener
}

// NewStore creates a store backed by kv.
func NewStore(kv KV, logger *logrus.Logger) *Store {
	return &Store{
		kv:        kv,
		log:       logging.For(logger, logging.ComponentSession),
		listeners: make(map[int]Listener),
	}
}

// Init loads the persisted session. The store is resolved afterwards even
// when reading fails, in which case the session stays empty.
func (s *Store) Init(ctx context.Context) error {
	token, _, err := s.kv.Get(ctx, KeyToken)
	if err == nil {
		var username string
		username, _, err = s.kv.Get(ctx, KeyUsername)
		if err == nil {
			s.set(Session{Token: token, Username: username}, true)
			s.log.WithField("authenticated", s.Session().IsAuthenticated()).Debug("Session initialized")
			return nil
		}
	}

	s.set(Session{}, true)
	s.log.WithError(err).Warn("Failed to read persisted session")
	return fmt.Errorf("read session: %w", err)
}

// Resolved reports whether Init has completed.
func (s *Store) Resolved() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.resolved
}

// Login persists the credentials and makes them the current session.
func (s *Store) Login(ctx context.Context, token, username string) error {
	if token == "" || username == "" {
		return ErrInvalidSession
	}
	if err := s.kv.SetMany(ctx, map[string]string{KeyToken: token, KeyUsername: username}); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}
	s.set(Session{Token: token, Username: username}, true)
	s.log.WithField("username", username).Info("User logged in")
	return nil
}

// Logout removes the persisted credentials and clears the session. The
// in-memory session is cleared even if storage fails.
func (s *Store) Logout(ctx context.Context) error {
	username := s.Session().Username
	err := s.kv.Delete(ctx, KeyToken, KeyUsername)
	s.set(Session{}, true)
	if err != nil {
		s.log.WithError(err).Warn("Failed to remove persisted session")
		return fmt.Errorf("remove session: %w", err)
	}
	s.log.WithField("username", username).Info("User logged out")
	return nil
}

// Token returns the current token or an empty string.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session.Token
}

// Session returns a copy of the current session.
func (s *Store) Session() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session
}

// Subscribe registers fn for token changes and returns a func that removes it.
func (s *Store) Subscribe(fn Listener) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, id)
			s.mu.Unlock()
		})
	}
}

// set swaps the session and, if the token changed, calls listeners outside the lock.
func (s *Store) set(next Session, resolved bool) {
	s.mu.Lock()
	changed := s.session.Token != next.Token
	s.session = next
	s.resolved = resolved
	var notify []Listener
	if changed {
		notify = make([]Listener, 0, len(s.listeners))
		for _, fn := range s.listeners {
			notify = append(notify, fn)
		}
	}
	s.mu.Unlock()

	for _, fn := range notify {
		fn(next)
	}
}
