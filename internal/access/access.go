// Package access decides whether a signed-in teacher may use the generator.
//
// Authentication only proves who a user is. A user is admitted once their
// access request has been approved by an administrator; until then the gate
// signs them out again. Lookups are bounded by a timeout so a slow database
// cannot leave a request hanging in the checking state.
package access

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/pavelanni/toetsgen/internal/model"
)

// DefaultTimeout bounds a single approval lookup.
const DefaultTimeout = 5 * time.Second

// ErrApprovalTimeout is reported when a lookup does not finish in time.
var ErrApprovalTimeout = errors.New("access: approval lookup timed out")

// Status is the gate's view of the current session.
type Status string

const (
	StatusChecking        Status = "checking"
	StatusApprovalError   Status = "approval_error"
	StatusApproved        Status = "approved"
	StatusUnauthenticated Status = "unauthenticated"
)

// Reason explains the last transition away from approved.
type Reason string

const (
	ReasonNone         Reason = ""
	ReasonTimeout      Reason = "timeout"
	ReasonLookupFailed Reason = "lookup_failed"
	ReasonPending      Reason = "pending"
	ReasonNoAccess     Reason = "no_access"
)

// EventKind is an authentication event delivered to the gate.
type EventKind string

const (
	EventInitialSession EventKind = "initial_session"
	EventSignedIn       EventKind = "signed_in"
	EventSignedOut      EventKind = "signed_out"
	EventTokenRefreshed EventKind = "token_refreshed"
)

// Event carries the authenticated email, empty when there is no session.
type Event struct {
	Kind  EventKind
	Email string
}

// Lookup reads an approval status by email. found is false when no access
// request exists for the email.
type Lookup interface {
	ApprovalStatus(ctx context.Context, email string) (status model.RequestStatus, found bool, err error)
}

// State is a snapshot of the gate.
type State struct {
	Status   Status
	Email    string
	Reason   Reason
	CanRetry bool
}

// SignOutFunc ends the authentication session behind a gate.
type SignOutFunc func(ctx context.Context) error

// Gate tracks the approval state of one authentication session.
type Gate struct {
	mu            sync.Mutex
	lookup        Lookup
	signOut       SignOutFunc
	timeout       time.Duration
	state         State
	lastValidated string
}

// NewGate returns a gate in the checking state. A zero timeout selects
// DefaultTimeout.
func NewGate(lookup Lookup, signOut SignOutFunc, timeout time.Duration) *Gate {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Gate{
		lookup:  lookup,
		signOut: signOut,
		timeout: timeout,
		state:   State{Status: StatusChecking},
	}
}

// State returns the current snapshot.
func (g *Gate) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Handle processes an authentication event and returns the resulting state.
func (g *Gate) Handle(ctx context.Context, ev Event) State {
	g.mu.Lock()
	defer g.mu.Unlock()

	if ev.Kind == EventSignedOut || ev.Email == "" {
		g.lastValidated = ""
		g.state = State{Status: StatusUnauthenticated}
		return g.state
	}

	// Token refreshes and repeated events for an already approved email
	// must not trigger another lookup.
	if ev.Email == g.lastValidated && g.state.Status == StatusApproved {
		return g.state
	}

	return g.check(ctx, ev.Email)
}

// Retry repeats the approval lookup after an approval error.
func (g *Gate) Retry(ctx context.Context) State {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state.Status != StatusApprovalError || g.state.Email == "" {
		return g.state
	}
	return g.check(ctx, g.state.Email)
}

// check must be called with g.mu held.
func (g *Gate) check(ctx context.Context, email string) State {
	g.state = State{Status: StatusChecking, Email: email}

	status, found, err := g.lookupWithTimeout(ctx, email)
	switch {
	case errors.Is(err, ErrApprovalTimeout):
		slog.Warn("approval lookup timed out", "email", email, "timeout", g.timeout)
		g.state = State{Status: StatusApprovalError, Email: email, Reason: ReasonTimeout, CanRetry: true}
	case err != nil:
		slog.Error("approval lookup failed", "email", email, "error", err)
		g.state = State{Status: StatusApprovalError, Email: email, Reason: ReasonLookupFailed, CanRetry: true}
	case found && status == model.RequestApproved:
		g.lastValidated = email
		g.state = State{Status: StatusApproved, Email: email}
	default:
		reason := ReasonNoAccess
		if found {
			reason = ReasonPending
		}
		slog.Info("access denied", "email", email, "reason", reason)
		if g.signOut != nil {
			if err := g.signOut(ctx); err != nil {
				slog.Error("sign out after denied access", "email", email, "error", err)
			}
		}
		g.lastValidated = ""
		g.state = State{Status: StatusUnauthenticated, Reason: reason}
	}
	return g.state
}

type lookupResult struct {
	status model.RequestStatus
	found  bool
	err    error
}

// lookupWithTimeout races the lookup against the gate's timeout. A lookup
// that finishes after the deadline is discarded.
func (g *Gate) lookupWithTimeout(ctx context.Context, email string) (model.RequestStatus, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	ch := make(chan lookupResult, 1)
	go func() {
		status, found, err := g.lookup.ApprovalStatus(ctx, email)
		ch <- lookupResult{status: status, found: found, err: err}
	}()

	select {
	case res := <-ch:
		if res.err != nil && errors.Is(res.err, context.DeadlineExceeded) {
			return "", false, ErrApprovalTimeout
		}
		return res.status, res.found, res.err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", false, ErrApprovalTimeout
		}
		return "", false, ctx.Err()
	}
}
