// Package resource holds the client-side state of each backend collection.
// A hook fetches, mutates and keeps the loading and error flags the
// presentation layer renders.
package resource

import (
	"context"
	"errors"
	"sync"

	"finance-client/internal/api"
	"finance-client/internal/auth"
	"finance-client/internal/logging"

	"github.com/sirupsen/logrus"
)

// Session is the part of the session store a hook depends on.
type Session interface {
	Token() string
	Subscribe(fn auth.Listener) (unsubscribe func())
}

// State is a snapshot of a hook. Err is the user-facing message, empty when
// the last operation succeeded.
type State[T any] struct {
	Items   []T
	Loading bool
	Err     string
}

// Reader gives read-only access to another hook's state.
type Reader[T any] interface {
	State() State[T]
}

// ValidationError is returned by Add when the input is rejected locally.
// Nothing was sent and the hook state is unchanged.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string { return e.Err.Error() }

func (e *ValidationError) Unwrap() error { return e.Err }

// Messages are the user-facing errors of one resource.
type Messages struct {
	Unauthenticated string
	AccessDenied    string
	FetchFailed     string
	AddFailed       func(err error) string
}

func (m Messages) fetchError(err error) string {
	switch {
	case errors.Is(err, api.ErrUnauthenticated):
		return m.Unauthenticated
	case errors.Is(err, api.ErrAccessDenied):
		return m.AccessDenied
	default:
		return m.FetchFailed
	}
}

func (m Messages) addError(err error) string {
	if errors.Is(err, api.ErrUnauthenticated) {
		return m.Unauthenticated
	}
	return m.AddFailed(err)
}

const unauthenticated = "Not authenticated. Please login first."

// Hook is the state machine shared by every collection: T is the entity and
// In the user input that creates one.
type Hook[T, In any] struct {
	name     string
	session  Session
	msgs     Messages
	list     func(ctx context.Context) ([]T, error)
	create   func(ctx context.Context, in In) (T, error)
	validate func(in In) error
	log      *logrus.Entry

	mu          sync.Mutex
	state       State[T]
	seq         uint64
	unsubscribe func()
}

func newHook[T, In any](
	name string,
	session Session,
	msgs Messages,
	list func(context.Context) ([]T, error),
	create func(context.Context, In) (T, error),
	validate func(In) error,
	logger *logrus.Logger,
) *Hook[T, In] {
	return &Hook[T, In]{
		name:     name,
		session:  session,
		msgs:     msgs,
		list:     list,
		create:   create,
		validate: validate,
		log:      logging.For(logger, logging.ComponentResource).WithField("resource", name),
		state:    State[T]{Items: []T{}},
	}
}

// State returns a copy of the current state.
func (h *Hook[T, In]) State() State[T] {
	h.mu.Lock()
	defer h.mu.Unlock()
	s := h.state
	s.Items = append([]T{}, h.state.Items...)
	return s
}

// FetchAll replaces the items with the server's list. On failure the items
// are kept and Err is set. Only the most recently issued fetch is applied.
func (h *Hook[T, In]) FetchAll(ctx context.Context) error {
	return h.fetch(ctx, h.list)
}

func (h *Hook[T, In]) fetch(ctx context.Context, call func(context.Context) ([]T, error)) error {
	h.mu.Lock()
	h.seq++
	seq := h.seq
	h.state.Loading = true
	h.state.Err = ""
	h.mu.Unlock()

	var (
		items []T
		err   error
	)
	if h.session.Token() == "" {
		err = api.ErrUnauthenticated
	} else {
		items, err = call(ctx)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if seq != h.seq {
		h.log.WithField("seq", seq).Debug("Dropped stale response")
		return err
	}
	h.state.Loading = false
	if err != nil {
		h.state.Err = h.msgs.fetchError(err)
		h.log.WithError(err).Warn("Fetch failed")
		return err
	}
	h.state.Items = items
	return nil
}

// Add validates in, creates it on the server and prepends the stored entity.
// A *ValidationError means nothing was sent.
func (h *Hook[T, In]) Add(ctx context.Context, in In) (T, error) {
	var zero T
	if err := h.validate(in); err != nil {
		return zero, &ValidationError{Err: err}
	}

	var (
		created T
		err     error
	)
	if h.session.Token() == "" {
		err = api.ErrUnauthenticated
	} else {
		created, err = h.create(ctx, in)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if err != nil {
		h.state.Err = h.msgs.addError(err)
		h.log.WithError(err).Warn("Add failed")
		return zero, err
	}
	h.state.Items = append([]T{created}, h.state.Items...)
	return created, nil
}

// Activate runs the initial fetch and refetches after every session change.
// ctx is used for those refetches too. Calling it again is a no-op until
// Deactivate.
func (h *Hook[T, In]) Activate(ctx context.Context) {
	h.mu.Lock()
	if h.unsubscribe != nil {
		h.mu.Unlock()
		return
	}
	h.unsubscribe = h.session.Subscribe(func(s auth.Session) {
		if !s.IsAuthenticated() {
			h.reset()
		}
		if err := h.FetchAll(ctx); err != nil {
			h.log.WithError(err).Debug("Refetch after session change failed")
		}
	})
	h.mu.Unlock()

	if err := h.FetchAll(ctx); err != nil {
		h.log.WithError(err).Debug("Initial fetch failed")
	}
}

// Deactivate stops refetching on session changes.
func (h *Hook[T, In]) Deactivate() {
	h.mu.Lock()
	unsubscribe := h.unsubscribe
	h.unsubscribe = nil
	h.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}

// reset forgets the previous user's items and drops any fetch in flight.
func (h *Hook[T, In]) reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.seq++
	h.state = State[T]{Items: []T{}}
}
