package session

import (
	"sync"
	"testing"

	"twitterclone/internal/identity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSource is an in-memory identity event source.
type fakeSource struct {
	mu        sync.Mutex
	listeners map[int]func(identity.SessionEvent)
	next      int
}

func newFakeSource() *fakeSource {
	return &fakeSource{listeners: make(map[int]func(identity.SessionEvent))}
}

func (f *fakeSource) OnSessionChange(fn func(identity.SessionEvent)) func() {
	f.mu.Lock()
	id := f.next
	f.next++
	f.listeners[id] = fn
	f.mu.Unlock()
	return func() {
		f.mu.Lock()
		delete(f.listeners, id)
		f.mu.Unlock()
	}
}

func (f *fakeSource) emit(ev identity.SessionEvent) {
	f.mu.Lock()
	fns := make([]func(identity.SessionEvent), 0, len(f.listeners))
	for _, fn := range f.listeners {
		fns = append(fns, fn)
	}
	f.mu.Unlock()
	for _, fn := range fns {
		fn(ev)
	}
}

func (f *fakeSource) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.listeners)
}

func TestSignOutClearsSessionAndNotifies(t *testing.T) {
	src := newFakeSource()
	s := New("alice")
	s.Init(src)

	var got []State
	s.OnChange(func(st State) { got = append(got, st) })

	id, ok := s.Current()
	require.True(t, ok)
	assert.Equal(t, "alice", id)

	src.emit(identity.SessionEvent{UserID: "alice"})

	_, ok = s.Current()
	assert.False(t, ok)
	require.Len(t, got, 1)
	assert.Equal(t, State{}, got[0])
}

func TestOtherUsersEventsAreIgnored(t *testing.T) {
	src := newFakeSource()
	s := New("alice")
	s.Init(src)

	called := false
	s.OnChange(func(State) { called = true })

	src.emit(identity.SessionEvent{UserID: "bob"})
	src.emit(identity.SessionEvent{UserID: "alice", Session: &identity.Session{UserID: "alice"}})

	id, ok := s.Current()
	assert.True(t, ok)
	assert.Equal(t, "alice", id)
	assert.False(t, called)
}

func TestCancelledListenerIsNotCalled(t *testing.T) {
	src := newFakeSource()
	s := New("alice")
	s.Init(src)

	called := false
	cancel := s.OnChange(func(State) { called = true })
	cancel()
	cancel()

	src.emit(identity.SessionEvent{UserID: "alice"})
	assert.False(t, called)
}

func TestTeardownUnsubscribes(t *testing.T) {
	src := newFakeSource()
	s := New("alice")
	s.Init(src)
	require.Equal(t, 1, src.count())

	called := false
	s.OnChange(func(State) { called = true })

	s.Teardown()
	s.Teardown()
	assert.Equal(t, 0, src.count())

	src.emit(identity.SessionEvent{UserID: "alice"})
	assert.False(t, called)

	// Init after teardown does not resubscribe
	s.Init(src)
	assert.Equal(t, 0, src.count())
}

func TestReinitReplacesSubscription(t *testing.T) {
	src := newFakeSource()
	s := New("alice")
	s.Init(src)
	s.Init(src)
	assert.Equal(t, 1, src.count())
}
