package identity

import (
	"context"
	"sync"

	"github.com/pkg/errors"
)

type State int

const (
	Loading State = iota
	Authenticated
	Anonymous
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Authenticated:
		return "authenticated"
	case Anonymous:
		return "anonymous"
	}
	return "unknown"
}

// Status is a snapshot of the resolver. Identity is only set when State is Authenticated.
type Status struct {
	State    State
	Identity Identity
}

var ErrNoSession = errors.New("no active session")

// Resolver owns the session lifecycle: Loading until Bootstrap settles it to Authenticated or
// Anonymous, then Anonymous again after SignOut until the next SignIn.
type Resolver struct {
	sessions SessionProvider
	profiles ProfileLoader

	mu           sync.Mutex
	status       Status
	ready        chan struct{} // closed once status leaves Loading
	bootstrapped bool
	epoch        uint64 // bumped by SignIn/SignOut, stale bootstrap results are dropped
	hooks        []func(context.Context)
}

func NewResolver(sessions SessionProvider, profiles ProfileLoader) *Resolver {
	return &Resolver{
		sessions: sessions,
		profiles: profiles,
		ready:    make(chan struct{}),
	}
}

// Status returns the current snapshot without blocking.
func (r *Resolver) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

// Wait blocks until the resolver has left Loading.
func (r *Resolver) Wait(ctx context.Context) (Status, error) {
	select {
	case <-r.ready:
		return r.Status(), nil
	case <-ctx.Done():
		return Status{State: Loading}, ctx.Err()
	}
}

// OnSignOut registers fn to run after every sign-out.
func (r *Resolver) OnSignOut(fn func(context.Context)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hooks = append(r.hooks, fn)
}

// Bootstrap resolves the session once; later calls are no-ops.
// A provider failure still settles the resolver (as Anonymous) and is returned.
func (r *Resolver) Bootstrap(ctx context.Context) error {
	r.mu.Lock()
	if r.bootstrapped {
		r.mu.Unlock()
		return nil
	}
	r.bootstrapped = true
	epoch := r.epoch
	r.mu.Unlock()

	status, err := r.resolve(ctx)

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.epoch == epoch {
		r.settle(status)
	}
	return err
}

// SignIn re-reads the provider session after a sign-in event.
func (r *Resolver) SignIn(ctx context.Context) error {
	status, err := r.resolve(ctx)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.bootstrapped = true
	r.epoch++
	r.settle(status)
	if err != nil {
		return err
	}
	if status.State != Authenticated {
		return ErrNoSession
	}
	return nil
}

// SignOut ends the session and runs the sign-out hooks.
func (r *Resolver) SignOut(ctx context.Context) error {
	err := r.sessions.SignOut(ctx)

	r.mu.Lock()
	r.bootstrapped = true
	r.epoch++
	r.settle(Status{State: Anonymous})
	hooks := make([]func(context.Context), len(r.hooks))
	copy(hooks, r.hooks)
	r.mu.Unlock()

	for _, fn := range hooks {
		fn(ctx)
	}
	return errors.Wrap(err, "signing out")
}

func (r *Resolver) resolve(ctx context.Context) (Status, error) {
	sess, ok, err := r.sessions.CurrentSession(ctx)
	if err != nil {
		return Status{State: Anonymous}, errors.Wrap(err, "getting current session")
	}
	if !ok {
		return Status{State: Anonymous}, nil
	}
	id, err := r.profiles.LoadProfile(ctx, sess)
	if err != nil {
		return Status{State: Anonymous}, errors.Wrap(err, "loading profile")
	}
	return Status{State: Authenticated, Identity: id}, nil
}

// settle must be called with r.mu held.
func (r *Resolver) settle(s Status) {
	r.status = s
	select {
	case <-r.ready:
	default:
		close(r.ready)
	}
}
