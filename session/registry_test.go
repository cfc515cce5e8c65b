// File: session/registry_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package session_test

import (
	"sync"
	"testing"

	"github.com/momentics/wsproc/session"
)

func TestRegistry_Membership(t *testing.T) {
	r := session.NewRegistry()
	a := &session.Session{}
	b := &session.Session{}

	r.Add(a, "alice")
	r.Add(b, "bob")
	if r.Len() != 2 {
		t.Fatalf("Len = %d", r.Len())
	}

	labels := r.Labels()
	if len(labels) != 2 || labels[0] != "alice" || labels[1] != "bob" {
		t.Errorf("Labels = %v, want sorted [alice bob]", labels)
	}

	if !r.Rename(a, "carol") {
		t.Error("Rename of a member failed")
	}
	if label, ok := r.Label(a); !ok || label != "carol" {
		t.Errorf("Label = (%q, %v)", label, ok)
	}

	label, ok := r.Remove(a)
	if !ok || label != "carol" {
		t.Errorf("Remove = (%q, %v)", label, ok)
	}
	// removing twice is the soft-close-then-hard-disconnect case
	if _, ok := r.Remove(a); ok {
		t.Error("second Remove reported presence")
	}
	if r.Rename(a, "dave") {
		t.Error("Rename of a non-member succeeded")
	}
}

func TestRegistry_Broadcast(t *testing.T) {
	r := session.NewRegistry()
	members := []*session.Session{{}, {}, {}}
	for i, s := range members {
		r.Add(s, string(rune('a'+i)))
	}

	seen := make(map[*session.Session]string)
	r.Broadcast(func(s *session.Session, label string) {
		seen[s] = label
	})
	if len(seen) != 3 {
		t.Fatalf("broadcast reached %d members, want 3", len(seen))
	}
	for i, s := range members {
		if seen[s] != string(rune('a'+i)) {
			t.Errorf("member %d got label %q", i, seen[s])
		}
	}
}

func TestRegistry_ConcurrentChurn(t *testing.T) {
	r := session.NewRegistry()
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				s := &session.Session{}
				r.Add(s, "x")
				r.Broadcast(func(*session.Session, string) {})
				r.Remove(s)
			}
		}()
	}
	wg.Wait()
	if r.Len() != 0 {
		t.Errorf("Len = %d after churn, want 0", r.Len())
	}
}
