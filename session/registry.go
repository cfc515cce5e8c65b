// File: session/registry.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Connection registry for application state that spans connections,
// such as a chat roster. Deliberately an explicit object owned by the
// connection-management layer and passed by handle into broadcast
// operations; the protocol engine itself holds no cross-connection
// state.

package session

import (
	"sort"
	"sync"
)

// Registry maps live sessions to an application label (a display name,
// a route, a tenant). All methods are safe for concurrent use; one
// lock guards the map, and broadcast snapshots are taken under it so
// membership cannot shift mid-iteration.
type Registry struct {
	mu      sync.RWMutex
	members map[*Session]string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{members: make(map[*Session]string)}
}

// Add registers a session under the given label.
func (r *Registry) Add(s *Session, label string) {
	r.mu.Lock()
	r.members[s] = label
	r.mu.Unlock()
}

// Remove unregisters a session and reports whether it was present.
// Absence is not an error: a soft close may race the hard disconnect.
func (r *Registry) Remove(s *Session) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	label, ok := r.members[s]
	if ok {
		delete(r.members, s)
	}
	return label, ok
}

// Rename updates a session's label and reports whether it was present.
func (r *Registry) Rename(s *Session, label string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.members[s]; !ok {
		return false
	}
	r.members[s] = label
	return true
}

// Label returns the session's current label.
func (r *Registry) Label(s *Session) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	label, ok := r.members[s]
	return label, ok
}

// Labels returns all labels, sorted for deterministic rosters.
func (r *Registry) Labels() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.members))
	for _, label := range r.members {
		out = append(out, label)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of registered sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.members)
}

// Broadcast invokes send for every registered session. Send errors are
// the callback's concern; a broadcast never unregisters members.
func (r *Registry) Broadcast(send func(*Session, string)) {
	r.mu.RLock()
	targets := make([]*Session, 0, len(r.members))
	for s := range r.members {
		targets = append(targets, s)
	}
	r.mu.RUnlock()
	for _, s := range targets {
		label, ok := r.Label(s)
		if !ok {
			continue
		}
		send(s, label)
	}
}
