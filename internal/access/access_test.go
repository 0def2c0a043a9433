package access

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pavelanni/toetsgen/internal/model"
)

type fakeLookup struct {
	status model.RequestStatus
	found  bool
	err    error
	block  bool
	calls  atomic.Int32
}

func (f *fakeLookup) ApprovalStatus(ctx context.Context, email string) (model.RequestStatus, bool, error) {
	f.calls.Add(1)
	if f.block {
		<-ctx.Done()
		// Simulate a driver that ignores cancellation for a while.
		time.Sleep(10 * time.Millisecond)
		return model.RequestApproved, true, nil
	}
	return f.status, f.found, f.err
}

type signOutRecorder struct {
	calls atomic.Int32
}

func (s *signOutRecorder) fn(context.Context) error {
	s.calls.Add(1)
	return nil
}

func TestGateApproved(t *testing.T) {
	lookup := &fakeLookup{status: model.RequestApproved, found: true}
	so := &signOutRecorder{}
	g := NewGate(lookup, so.fn, time.Second)

	if got := g.State().Status; got != StatusChecking {
		t.Fatalf("initial status = %q, want checking", got)
	}

	st := g.Handle(context.Background(), Event{Kind: EventSignedIn, Email: "a@school.nl"})
	if st.Status != StatusApproved || st.Email != "a@school.nl" {
		t.Fatalf("state = %+v, want approved", st)
	}
	if so.calls.Load() != 0 {
		t.Error("approved user must not be signed out")
	}
}

func TestGateTimeout(t *testing.T) {
	lookup := &fakeLookup{block: true}
	so := &signOutRecorder{}
	g := NewGate(lookup, so.fn, 20*time.Millisecond)

	start := time.Now()
	st := g.Handle(context.Background(), Event{Kind: EventInitialSession, Email: "a@school.nl"})
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Handle took %v, expected to return near the timeout", elapsed)
	}
	if st.Status != StatusApprovalError || st.Reason != ReasonTimeout || !st.CanRetry {
		t.Fatalf("state = %+v, want approval_error with retry", st)
	}
	if so.calls.Load() != 0 {
		t.Error("timeout must keep the session")
	}
}

func TestGateLookupError(t *testing.T) {
	lookup := &fakeLookup{err: errors.New("database is locked")}
	so := &signOutRecorder{}
	g := NewGate(lookup, so.fn, time.Second)

	st := g.Handle(context.Background(), Event{Kind: EventSignedIn, Email: "a@school.nl"})
	if st.Status != StatusApprovalError || st.Reason != ReasonLookupFailed {
		t.Fatalf("state = %+v, want approval_error/lookup_failed", st)
	}
	if so.calls.Load() != 0 {
		t.Error("technical errors must keep the session")
	}
}

func TestGateDenied(t *testing.T) {
	tests := []struct {
		name   string
		status model.RequestStatus
		found  bool
		reason Reason
	}{
		{"pending", model.RequestPending, true, ReasonPending},
		{"no request", "", false, ReasonNoAccess},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lookup := &fakeLookup{status: tt.status, found: tt.found}
			so := &signOutRecorder{}
			g := NewGate(lookup, so.fn, time.Second)

			st := g.Handle(context.Background(), Event{Kind: EventSignedIn, Email: "new@school.nl"})
			if st.Status != StatusUnauthenticated || st.Reason != tt.reason {
				t.Fatalf("state = %+v, want unauthenticated/%s", st, tt.reason)
			}
			if so.calls.Load() != 1 {
				t.Errorf("signOut called %d times, want 1", so.calls.Load())
			}
		})
	}
}

func TestGateSkipsRepeatLookup(t *testing.T) {
	lookup := &fakeLookup{status: model.RequestApproved, found: true}
	g := NewGate(lookup, nil, time.Second)
	ctx := context.Background()

	g.Handle(ctx, Event{Kind: EventInitialSession, Email: "a@school.nl"})
	g.Handle(ctx, Event{Kind: EventTokenRefreshed, Email: "a@school.nl"})
	g.Handle(ctx, Event{Kind: EventSignedIn, Email: "a@school.nl"})

	if n := lookup.calls.Load(); n != 1 {
		t.Errorf("lookup called %d times, want 1", n)
	}

	g.Handle(ctx, Event{Kind: EventSignedIn, Email: "b@school.nl"})
	if n := lookup.calls.Load(); n != 2 {
		t.Errorf("lookup called %d times after email change, want 2", n)
	}
}

func TestGateSignedOut(t *testing.T) {
	lookup := &fakeLookup{status: model.RequestApproved, found: true}
	g := NewGate(lookup, nil, time.Second)
	ctx := context.Background()

	g.Handle(ctx, Event{Kind: EventSignedIn, Email: "a@school.nl"})
	st := g.Handle(ctx, Event{Kind: EventSignedOut})
	if st.Status != StatusUnauthenticated || st.Reason != ReasonNone {
		t.Fatalf("state = %+v, want unauthenticated", st)
	}

	// The next sign-in is checked again.
	g.Handle(ctx, Event{Kind: EventSignedIn, Email: "a@school.nl"})
	if n := lookup.calls.Load(); n != 2 {
		t.Errorf("lookup called %d times, want 2", n)
	}
}

func TestGateRetry(t *testing.T) {
	lookup := &fakeLookup{err: errors.New("connection refused")}
	g := NewGate(lookup, nil, time.Second)
	ctx := context.Background()

	g.Handle(ctx, Event{Kind: EventSignedIn, Email: "a@school.nl"})

	lookup.err = nil
	lookup.status = model.RequestApproved
	lookup.found = true

	st := g.Retry(ctx)
	if st.Status != StatusApproved {
		t.Fatalf("state after retry = %+v, want approved", st)
	}

	// Retry on an approved gate does nothing.
	g.Retry(ctx)
	if n := lookup.calls.Load(); n != 2 {
		t.Errorf("lookup called %d times, want 2", n)
	}
}

func TestRegistry(t *testing.T) {
	lookup := &fakeLookup{status: model.RequestApproved, found: true}
	r := NewRegistry(lookup, time.Second)

	g1 := r.Gate("tok", nil)
	if g2 := r.Gate("tok", nil); g1 != g2 {
		t.Error("same token should return the same gate")
	}
	if g3 := r.Gate("other", nil); g3 == g1 {
		t.Error("different tokens should have different gates")
	}

	r.Drop("tok")
	if g4 := r.Gate("tok", nil); g4 == g1 {
		t.Error("dropped gate should be recreated")
	}
}

func TestRegistryPrune(t *testing.T) {
	lookup := &fakeLookup{status: model.RequestApproved, found: true}
	r := NewRegistry(lookup, time.Second)
	live := r.Gate("live", nil)
	r.Gate("expired-1", nil)
	r.Gate("expired-2", nil)

	n := r.Prune(func(tok string) bool { return tok == "live" })
	if n != 2 {
		t.Errorf("Prune dropped %d gates, want 2", n)
	}
	if len(r.gates) != 1 {
		t.Errorf("registry holds %d gates, want 1", len(r.gates))
	}
	if r.Gate("live", nil) != live {
		t.Error("live gate was replaced")
	}
}

func TestNewGateDefaultTimeout(t *testing.T) {
	g := NewGate(&fakeLookup{}, nil, 0)
	if g.timeout != DefaultTimeout {
		t.Errorf("timeout = %v, want %v", g.timeout, DefaultTimeout)
	}
	if DefaultTimeout != 5*time.Second {
		t.Errorf("DefaultTimeout = %v, want 5s", DefaultTimeout)
	}
}
