package chat

import (
	"fmt"
	"reflect"
	"sync"
	"testing"

	"PPDirect/tools/errs"
	"PPDirect/tools/security"
)

func TestRegistryLifecycle(t *testing.T) {
	r := NewRegistry()
	alice := security.Identity{UserID: "u1", Username: "alice"}
	c := newConn(&fakeTransport{}, 4)
	h := r.Register(c)

	if got := r.Snapshot(); len(got) != 0 {
		t.Fatalf("unbound connection visible: %+v", got)
	}
	if _, st := r.Identity(h); st != StateUnbound {
		t.Fatalf("state = %v", st)
	}

	if bound, err := r.BindIdentity(h, alice); err != nil || !bound {
		t.Fatalf("bind: %v %v", bound, err)
	}
	if bound, err := r.BindIdentity(h, alice); err != nil || bound {
		t.Fatalf("rebind same identity: %v %v", bound, err)
	}
	other := security.Identity{UserID: "u2", Username: "bob"}
	if _, err := r.BindIdentity(h, other); !errs.ErrAlreadyBound.Is(err) {
		t.Fatalf("conflicting bind: %v", err)
	}
	if got := r.Snapshot(); !reflect.DeepEqual(got, OnlineSet{{UserID: "u1", Username: "alice"}}) {
		t.Fatalf("snapshot = %+v", got)
	}
	if got := r.Lookup("u1"); len(got) != 1 || got[0] != c {
		t.Fatalf("lookup = %v", got)
	}

	if !r.Unregister(h) {
		t.Fatal("first unregister should remove")
	}
	if r.Unregister(h) {
		t.Fatal("second unregister should be a no-op")
	}
	if _, err := r.BindIdentity(h, alice); !errs.ErrConnectionDead.Is(err) {
		t.Fatalf("bind after close: %v", err)
	}
	if err := c.Enqueue([]byte("x")); !errs.ErrConnectionDead.Is(err) {
		t.Fatalf("enqueue after close: %v", err)
	}
	if r.Len() != 0 || len(r.Lookup("u1")) != 0 || len(r.Snapshot()) != 0 {
		t.Fatal("registry not empty after unregister")
	}
}

func TestRegistryMultipleConnectionsPerUser(t *testing.T) {
	r := NewRegistry()
	alice := security.Identity{UserID: "u1", Username: "alice"}
	bob := security.Identity{UserID: "u2", Username: "bob"}

	h1 := r.Register(newConn(&fakeTransport{}, 4))
	h2 := r.Register(newConn(&fakeTransport{}, 4))
	h3 := r.Register(newConn(&fakeTransport{}, 4))
	for h, id := range map[Handle]security.Identity{h1: alice, h2: bob, h3: alice} {
		if _, err := r.BindIdentity(h, id); err != nil {
			t.Fatal(err)
		}
	}
	if h1 == h2 || h2 == h3 {
		t.Fatal("handles must be unique")
	}

	want := []string{"alice", "bob", "alice"}
	if got := usernames(r.Snapshot()); !reflect.DeepEqual(got, want) {
		t.Fatalf("snapshot = %v, want %v", got, want)
	}
	if got := r.Lookup("u1"); len(got) != 2 {
		t.Fatalf("lookup alice = %d conns", len(got))
	}

	r.Unregister(h1)
	if got := usernames(r.Snapshot()); !reflect.DeepEqual(got, []string{"bob", "alice"}) {
		t.Fatalf("after unregister = %v", got)
	}
}

func TestBindRejectsIncompleteIdentity(t *testing.T) {
	r := NewRegistry()
	h := r.Register(newConn(&fakeTransport{}, 4))
	if _, err := r.BindIdentity(h, security.Identity{UserID: "u1"}); !errs.ErrUnauthenticated.Is(err) {
		t.Fatalf("got %v", err)
	}
}

func TestEnqueueDropsWhenFull(t *testing.T) {
	c := newConn(&fakeTransport{}, 1)
	if err := c.Enqueue([]byte("a")); err != nil {
		t.Fatal(err)
	}
	if err := c.Enqueue([]byte("b")); err != nil {
		t.Fatalf("full queue should drop silently: %v", err)
	}
	if c.Dropped() != 1 {
		t.Fatalf("dropped = %d", c.Dropped())
	}
}

func TestRegistryConcurrentLifecycle(t *testing.T) {
	r := NewRegistry()
	const workers, rounds = 40, 20

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			id := security.Identity{UserID: fmt.Sprintf("u%d", w%5), Username: fmt.Sprintf("user%d", w%5)}
			for i := 0; i < rounds; i++ {
				h := r.Register(newConn(&fakeTransport{}, 4))
				if bound, err := r.BindIdentity(h, id); err != nil || !bound {
					t.Errorf("bind: %v %v", bound, err)
					return
				}
				for _, e := range r.Snapshot() {
					if e.UserID == "" || e.Username == "" {
						t.Errorf("snapshot exposed incomplete entry %+v", e)
						return
					}
				}
				for _, c := range r.Lookup(id.UserID) {
					if c.seq == 0 {
						t.Error("lookup returned unregistered conn")
						return
					}
				}
				if !r.Unregister(h) {
					t.Error("unregister should remove")
					return
				}
			}
		}(w)
	}
	wg.Wait()

	if r.Len() != 0 || len(r.Snapshot()) != 0 {
		t.Fatalf("registry not empty: len=%d snapshot=%v", r.Len(), r.Snapshot())
	}
	for u := 0; u < 5; u++ {
		if got := r.Lookup(fmt.Sprintf("u%d", u)); len(got) != 0 {
			t.Fatalf("lookup u%d = %d conns", u, len(got))
		}
	}
}
