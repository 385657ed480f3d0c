// Package session mirrors the identity provider's state for one connected client.
package session

import (
	"sync"

	"twitterclone/internal/identity"
)

// Source is the part of the identity provider a Session listens to.
type Source interface {
	OnSessionChange(fn func(identity.SessionEvent)) (unsubscribe func())
}

// State is the signed-in user, empty when signed out.
type State struct {
	UserID string
}

// Session tracks one user's sign-in state. Only events from the provider
// change it.
type Session struct {
	mu          sync.Mutex
	state       State
	unsubscribe func()
	nextID      int
	listeners   map[int]func(State)
	torn        bool
}

// New returns a session signed in as userID.
func New(userID string) *Session {
	return &Session{
		state:     State{UserID: userID},
		listeners: make(map[int]func(State)),
	}
}

// Init starts following src. Calling it twice replaces the old subscription.
func (s *Session) Init(src Source) {
	unsubscribe := src.OnSessionChange(s.handle)

	s.mu.Lock()
	if s.torn {
		s.mu.Unlock()
		unsubscribe()
		return
	}
	old := s.unsubscribe
	s.unsubscribe = unsubscribe
	s.mu.Unlock()

	if old != nil {
		old()
	}
}

// Current returns the signed-in user id.
func (s *Session) Current() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.UserID, s.state.UserID != ""
}

// OnChange registers fn to run after each state change. Cancel is idempotent.
func (s *Session) OnChange(fn func(State)) (cancel func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, id)
			s.mu.Unlock()
		})
	}
}

// Teardown stops following the provider and drops all listeners.
func (s *Session) Teardown() {
	s.mu.Lock()
	if s.torn {
		s.mu.Unlock()
		return
	}
	s.torn = true
	unsubscribe := s.unsubscribe
	s.unsubscribe = nil
	s.listeners = make(map[int]func(State))
	s.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}

func (s *Session) handle(ev identity.SessionEvent) {
	s.mu.Lock()
	if s.torn || s.state.UserID == "" || ev.UserID != s.state.UserID {
		s.mu.Unlock()
		return
	}
	if ev.Session != nil {
		// signing in again from elsewhere keeps this connection as it is
		s.mu.Unlock()
		return
	}
	s.state = State{}
	next := s.state
	fns := make([]func(State), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(next)
	}
}
