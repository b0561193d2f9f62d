package wazero

import (
	"sync"
)

// NilReceiver is the handle guests pass to address no receiver.
const NilReceiver uint32 = 0

// Session is the execution context of one guest module instance. It is passed
// to bridge units as the context handle and owns the table of receivers the
// guest may address by handle.
//
// A Session is safe for concurrent use.
type Session struct {
	receivers map[uint32]any
	id        string
	next      uint32
	mu        sync.RWMutex
}

// NewSession creates an empty session.
func NewSession(id string) *Session {
	return &Session{
		id:        id,
		receivers: make(map[uint32]any),
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

func (s *Session) String() string { return "session:" + s.id }

// Bind exposes receiver to the guest and returns its handle. Handles start
// at 1 and are never reused within a session.
func (s *Session) Bind(receiver any) uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	s.receivers[s.next] = receiver
	return s.next
}

// Receiver resolves a handle. NilReceiver always resolves to nil.
func (s *Session) Receiver(handle uint32) (any, bool) {
	if handle == NilReceiver {
		return nil, true
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.receivers[handle]
	return r, ok
}

// Release drops a handle. Releasing an unknown handle is a no-op.
func (s *Session) Release(handle uint32) {
	s.mu.Lock()
	delete(s.receivers, handle)
	s.mu.Unlock()
}

// Len returns the number of bound receivers.
func (s *Session) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.receivers)
}

// SessionStore holds one session per guest module name. It backs guests
// whose call context carries no explicit session.
type SessionStore struct {
	sessions map[string]*Session
	mu       sync.RWMutex
}

// NewSessionStore creates an empty store.
func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[string]*Session)}
}

// Get returns the session for name, creating it on first use.
func (st *SessionStore) Get(name string) *Session {
	st.mu.RLock()
	s, ok := st.sessions[name]
	st.mu.RUnlock()
	if ok {
		return s
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	if s, ok := st.sessions[name]; ok {
		return s
	}
	s = NewSession(name)
	st.sessions[name] = s
	return s
}

// Delete forgets the session for name.
func (st *SessionStore) Delete(name string) {
	st.mu.Lock()
	delete(st.sessions, name)
	st.mu.Unlock()
}

// Len returns the number of live sessions.
func (st *SessionStore) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}
