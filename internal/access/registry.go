package access

import (
	"sync"
	"time"
)

// Registry keeps one gate per authentication session token.
type Registry struct {
	mu      sync.Mutex
	lookup  Lookup
	timeout time.Duration
	gates   map[string]*Gate
}

// NewRegistry creates a registry whose gates share lookup and timeout.
func NewRegistry(lookup Lookup, timeout time.Duration) *Registry {
	return &Registry{
		lookup:  lookup,
		timeout: timeout,
		gates:   make(map[string]*Gate),
	}
}

// Gate returns the gate for token, creating it with signOut when absent.
func (r *Registry) Gate(token string, signOut SignOutFunc) *Gate {
	r.mu.Lock()
	defer r.mu.Unlock()

	if g, ok := r.gates[token]; ok {
		return g
	}
	g := NewGate(r.lookup, signOut, r.timeout)
	r.gates[token] = g
	return g
}

// Drop forgets the gate for token.
func (r *Registry) Drop(token string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.gates, token)
}

// Prune drops every gate whose token keep rejects and reports how many were
// dropped. keep runs without the registry lock held.
func (r *Registry) Prune(keep func(token string) bool) int {
	r.mu.Lock()
	tokens := make([]string, 0, len(r.gates))
	for tok := range r.gates {
		tokens = append(tokens, tok)
	}
	r.mu.Unlock()

	dropped := 0
	for _, tok := range tokens {
		if !keep(tok) {
			r.Drop(tok)
			dropped++
		}
	}
	return dropped
}
