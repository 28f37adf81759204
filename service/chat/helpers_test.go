package chat

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"PPDirect/data/gateway"
	"PPDirect/tools/errs"
	"PPDirect/tools/security"
)

type fakeTransport struct {
	mu     sync.Mutex
	frames [][]byte
	pings  int
	closed bool
	onPing func()
}

func (f *fakeTransport) Write(data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return errs.ErrConnectionDead.Wrap()
	}
	f.frames = append(f.frames, append([]byte(nil), data...))
	return nil
}

func (f *fakeTransport) Ping() error {
	f.mu.Lock()
	f.pings++
	fn := f.onPing
	f.mu.Unlock()
	if fn != nil {
		go fn()
	}
	return nil
}

func (f *fakeTransport) Close() error {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	return nil
}

func (f *fakeTransport) RemoteAddr() string { return "fake" }

func (f *fakeTransport) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func (f *fakeTransport) pingCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pings
}

func (f *fakeTransport) presence() []OnlineSet {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []OnlineSet
	for _, b := range f.frames {
		var p struct {
			Online *OnlineSet `json:"online"`
		}
		if json.Unmarshal(b, &p) == nil && p.Online != nil {
			out = append(out, *p.Online)
		}
	}
	return out
}

func (f *fakeTransport) chats() []chatFrame {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []chatFrame
	for _, b := range f.frames {
		var c chatFrame
		if json.Unmarshal(b, &c) == nil && c.ID != "" {
			out = append(out, c)
		}
	}
	return out
}

type tokenVerifier map[string]security.Identity

func (v tokenVerifier) Verify(token string) (security.Identity, error) {
	if token == "" {
		return security.Identity{}, errs.ErrUnauthenticated.WrapMsg("no token")
	}
	id, ok := v[token]
	if !ok {
		return security.Identity{}, errs.ErrTokenInvalid.WrapMsg("unknown token")
	}
	return id, nil
}

type fixture struct {
	hub   *Hub
	store *gateway.Memory
	alice security.Identity
	bob   security.Identity
}

func quietOptions() Options {
	opts := DefaultOptions()
	opts.HeartbeatInterval = time.Hour
	opts.HeartbeatTimeout = time.Hour
	return opts
}

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()
	store := gateway.NewMemory()
	ctx := context.Background()
	a, err := store.CreateUser(ctx, "alice", "x")
	if err != nil {
		t.Fatal(err)
	}
	b, err := store.CreateUser(ctx, "bob", "x")
	if err != nil {
		t.Fatal(err)
	}
	f := &fixture{
		store: store,
		alice: security.Identity{UserID: a.ID, Username: a.Username},
		bob:   security.Identity{UserID: b.ID, Username: b.Username},
	}
	f.hub = NewHub(tokenVerifier{"tok-alice": f.alice, "tok-bob": f.bob}, store, opts)
	t.Cleanup(f.hub.Close)
	return f
}

func (f *fixture) admit(t *testing.T, token string) (*Conn, *fakeTransport) {
	t.Helper()
	tr := &fakeTransport{}
	c, err := f.hub.Admit(tr, token)
	if err != nil {
		t.Fatalf("Admit: %v", err)
	}
	return c, tr
}

func waitFor(t *testing.T, d time.Duration, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func chatPayload(recipient, text string) []byte {
	b, _ := json.Marshal(map[string]any{"message": map[string]any{"recipient": recipient, "text": text}})
	return b
}

func usernames(set OnlineSet) []string {
	out := make([]string, 0, len(set))
	for _, e := range set {
		out = append(out, e.Username)
	}
	return out
}
