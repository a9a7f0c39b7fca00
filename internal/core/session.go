package core

import (
	"sync"

	"github.com/socia-app/relay/internal/domain"
)

// Session binds one transport connection to its (optional) user identity.
// A session starts unbound; the setup event attaches the user id.
type Session struct {
	ID   SessionID
	conn SignalConnection

	mu   sync.RWMutex
	user domain.UserID
}

func NewSession(id SessionID, conn SignalConnection) *Session {
	return &Session{ID: id, conn: conn}
}

// User returns the bound identity, empty until setup completes.
func (s *Session) User() domain.UserID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// BindUser attaches a user identity. Binding the same id twice is a
// no-op; binding a different id is a protocol violation.
func (s *Session) BindUser(uid domain.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user != "" && s.user != uid {
		return ErrIdentityBound
	}
	s.user = uid
	return nil
}

func (s *Session) Send(f Frame) error {
	return s.conn.TrySend(f)
}

func (s *Session) Close() {
	s.conn.Close()
}
