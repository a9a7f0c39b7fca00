package app

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/socia-app/relay/internal/core"
	"github.com/socia-app/relay/internal/domain"
)

// Registry tracks live sessions and the presence binding between user
// identities and their connections. A user may hold several sessions at
// once (multiple tabs or devices).
type Registry struct {
	mu       sync.RWMutex
	sessions map[core.SessionID]*core.Session
	presence map[domain.UserID]map[core.SessionID]struct{}
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[core.SessionID]*core.Session),
		presence: make(map[domain.UserID]map[core.SessionID]struct{}),
	}
}

// Register adds a session in the unbound state.
func (r *Registry) Register(sess *core.Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[sess.ID] = sess
	log.Info().Str("module", "app.registry").Str("sid", string(sess.ID)).Msg("session registered")
}

// Bind attaches a user identity to a registered session and records the
// presence entry. Re-binding the same identity is a no-op; re-binding a
// different identity fails with core.ErrIdentityBound.
func (r *Registry) Bind(sid core.SessionID, uid domain.UserID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	sess, ok := r.sessions[sid]
	if !ok {
		return nil
	}
	if err := sess.BindUser(uid); err != nil {
		return err
	}
	if r.presence[uid] == nil {
		r.presence[uid] = make(map[core.SessionID]struct{})
	}
	r.presence[uid][sid] = struct{}{}
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Str("user", string(uid)).Msg("session bound")
	return nil
}

// Unregister removes the session and its presence entry. It returns the
// identity the session carried and whether that identity went offline
// (no connections left). Safe to call for a session that never bound.
func (r *Registry) Unregister(sid core.SessionID) (domain.UserID, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sess, ok := r.sessions[sid]
	if !ok {
		return "", false
	}
	delete(r.sessions, sid)
	uid := sess.User()
	if uid == "" {
		return "", false
	}
	offline := false
	if set, ok := r.presence[uid]; ok {
		delete(set, sid)
		if len(set) == 0 {
			delete(r.presence, uid)
			offline = true
		}
	}
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Str("user", string(uid)).Bool("offline", offline).Msg("session unregistered")
	return uid, offline
}

// Get resolves a live session. A missing session is not an error; fan-out
// callers simply skip it.
func (r *Registry) Get(sid core.SessionID) (*core.Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sess, ok := r.sessions[sid]
	return sess, ok
}

// ConnectionsFor returns every live session bound to the user. An empty
// result means the user is offline.
func (r *Registry) ConnectionsFor(uid domain.UserID) []*core.Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*core.Session, 0, len(r.presence[uid]))
	for sid := range r.presence[uid] {
		if sess, ok := r.sessions[sid]; ok {
			out = append(out, sess)
		}
	}
	return out
}

// OnlineCount reports users with at least one live session.
func (r *Registry) OnlineCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.presence)
}
