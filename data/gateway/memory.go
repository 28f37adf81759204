package gateway

import (
	"context"
	"sort"
	"sync"
	"time"

	"PPDirect/tools/errs"

	"github.com/google/uuid"
)

// Memory is an in-process Gateway used for tests and STORE=memory.
type Memory struct {
	mu         sync.RWMutex
	users      map[string]*User // id -> user
	byUsername map[string]string
	messages   []Message
	now        func() time.Time

	// FailCreateMessage forces CreateMessage to fail; tests use it to drive PersistenceError.
	FailCreateMessage error
}

func NewMemory() *Memory {
	return &Memory{
		users:      make(map[string]*User),
		byUsername: make(map[string]string),
		now:        time.Now,
	}
}

func (m *Memory) FindUser(_ context.Context, username string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.byUsername[username]
	if !ok {
		return nil, nil
	}
	u := *m.users[id]
	return &u, nil
}

func (m *Memory) FindUserByID(_ context.Context, id string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (m *Memory) FindUsers(_ context.Context) ([]UserSummary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]UserSummary, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, UserSummary{ID: u.ID, Username: u.Username})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (m *Memory) CreateUser(_ context.Context, username, passwordHash string) (*User, error) {
	if username == "" {
		return nil, errs.ErrArgs.WrapMsg("username empty")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byUsername[username]; ok {
		return nil, errs.ErrDuplicateUser.WrapMsg("username taken", "username", username)
	}
	u := &User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    m.now(),
	}
	m.users[u.ID] = u
	m.byUsername[username] = u.ID
	cp := *u
	return &cp, nil
}

func (m *Memory) CreateMessage(_ context.Context, sender, recipient, text string) (*Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailCreateMessage != nil {
		return nil, m.FailCreateMessage
	}
	msg := Message{
		ID:        uuid.NewString(),
		Sender:    sender,
		Recipient: recipient,
		Text:      text,
		CreatedAt: m.now(),
	}
	m.messages = append(m.messages, msg)
	return &msg, nil
}

// FindMessagesBetween relies on append order being chronological.
func (m *Memory) FindMessagesBetween(_ context.Context, userA, userB string) ([]Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Message, 0)
	for _, msg := range m.messages {
		if (msg.Sender == userA && msg.Recipient == userB) || (msg.Sender == userB && msg.Recipient == userA) {
			out = append(out, msg)
		}
	}
	return out, nil
}

// Messages returns every stored message, oldest first.
func (m *Memory) Messages() []Message {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]Message(nil), m.messages...)
}

func (m *Memory) Close(context.Context) error { return nil }
