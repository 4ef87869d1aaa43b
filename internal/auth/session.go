package auth

import "sync"

// Session is the identity gating every note operation.
type Session struct {
	UserId          string
	IsAuthenticated bool
}

type SessionProvider interface {
	Current() Session
}

// StaticSession always reports the same identity. Used by the CLI and tests.
type StaticSession Session

func (s StaticSession) Current() Session {
	return Session(s)
}

type EventKind string

const (
	SignedIn  EventKind = "signed_in"
	SignedOut EventKind = "signed_out"
)

type Event struct {
	Kind   EventKind
	UserId string
}

// Manager tracks which users currently hold a session on this instance and
// notifies subscribers on sign-in and sign-out transitions.
type Manager struct {
	mu     sync.RWMutex
	active map[string]bool
	subs   map[int]func(Event)
	nextId int
}

func NewManager() *Manager {
	return &Manager{
		active: make(map[string]bool),
		subs:   make(map[int]func(Event)),
	}
}

func (m *Manager) SignIn(userId string) {
	if userId == "" {
		return
	}
	m.mu.Lock()
	if m.active[userId] {
		m.mu.Unlock()
		return
	}
	m.active[userId] = true
	m.mu.Unlock()

	m.notify(Event{Kind: SignedIn, UserId: userId})
}

func (m *Manager) SignOut(userId string) {
	m.mu.Lock()
	if !m.active[userId] {
		m.mu.Unlock()
		return
	}
	delete(m.active, userId)
	m.mu.Unlock()

	m.notify(Event{Kind: SignedOut, UserId: userId})
}

func (m *Manager) IsSignedIn(userId string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.active[userId]
}

// Session returns a live view of userId's session.
func (m *Manager) Session(userId string) SessionProvider {
	return &managedSession{manager: m, userId: userId}
}

// Subscribe registers fn for sign-in/sign-out events and returns its cancel func.
func (m *Manager) Subscribe(fn func(Event)) func() {
	m.mu.Lock()
	id := m.nextId
	m.nextId++
	m.subs[id] = fn
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.subs, id)
		m.mu.Unlock()
	}
}

func (m *Manager) notify(evt Event) {
	m.mu.RLock()
	subs := make([]func(Event), 0, len(m.subs))
	for _, fn := range m.subs {
		subs = append(subs, fn)
	}
	m.mu.RUnlock()

	for _, fn := range subs {
		fn(evt)
	}
}

type managedSession struct {
	manager *Manager
	userId  string
}

func (s *managedSession) Current() Session {
	return Session{UserId: s.userId, IsAuthenticated: s.manager.IsSignedIn(s.userId)}
}
