package core

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/socia-app/relay/internal/domain"
)

// RoomIndex is the threadsafe bidirectional mapping between rooms and
// the sessions joined to them. Rooms exist while they have members.
type RoomIndex struct {
	mu      sync.RWMutex
	members map[domain.RoomID]map[SessionID]struct{}
	joined  map[SessionID]map[domain.RoomID]struct{}
}

func NewRoomIndex() *RoomIndex {
	return &RoomIndex{
		members: make(map[domain.RoomID]map[SessionID]struct{}),
		joined:  make(map[SessionID]map[domain.RoomID]struct{}),
	}
}

// Join adds the session to the room. Joining twice is a no-op.
func (ri *RoomIndex) Join(room domain.RoomID, sid SessionID) {
	ri.mu.Lock()
	defer ri.mu.Unlock()
	if ri.members[room] == nil {
		ri.members[room] = make(map[SessionID]struct{})
	}
	if ri.joined[sid] == nil {
		ri.joined[sid] = make(map[domain.RoomID]struct{})
	}
	ri.members[room][sid] = struct{}{}
	ri.joined[sid][room] = struct{}{}
	log.Debug().Str("module", "core.rooms").Str("room", string(room)).Str("sid", string(sid)).Msg("joined room")
}

// Leave removes the session from the room. Leaving a room the session
// is not in is a no-op.
func (ri *RoomIndex) Leave(room domain.RoomID, sid SessionID) {
	ri.mu.Lock()
	defer ri.mu.Unlock()
	ri.remove(room, sid)
}

// LeaveAll removes the session from every room it is a member of,
// used on disconnect.
func (ri *RoomIndex) LeaveAll(sid SessionID) {
	ri.mu.Lock()
	defer ri.mu.Unlock()
	for room := range ri.joined[sid] {
		ri.remove(room, sid)
	}
	log.Debug().Str("module", "core.rooms").Str("sid", string(sid)).Msg("left all rooms")
}

// remove must run under the write lock; both sides of the index are
// updated in the same critical section.
func (ri *RoomIndex) remove(room domain.RoomID, sid SessionID) {
	if set, ok := ri.members[room]; ok {
		delete(set, sid)
		if len(set) == 0 {
			delete(ri.members, room)
		}
	}
	if set, ok := ri.joined[sid]; ok {
		delete(set, room)
		if len(set) == 0 {
			delete(ri.joined, sid)
		}
	}
}

// Members returns a snapshot of the room's member sessions.
func (ri *RoomIndex) Members(room domain.RoomID) []SessionID {
	ri.mu.RLock()
	defer ri.mu.RUnlock()
	out := make([]SessionID, 0, len(ri.members[room]))
	for sid := range ri.members[room] {
		out = append(out, sid)
	}
	return out
}

// Rooms returns a snapshot of the rooms the session is joined to.
func (ri *RoomIndex) Rooms(sid SessionID) []domain.RoomID {
	ri.mu.RLock()
	defer ri.mu.RUnlock()
	out := make([]domain.RoomID, 0, len(ri.joined[sid]))
	for room := range ri.joined[sid] {
		out = append(out, room)
	}
	return out
}

// RoomInfo is a read-only view for the debug API.
type RoomInfo struct {
	ID          domain.RoomID `json:"id"`
	MemberCount int           `json:"member_count"`
}

func (ri *RoomIndex) List() []RoomInfo {
	ri.mu.RLock()
	defer ri.mu.RUnlock()
	out := make([]RoomInfo, 0, len(ri.members))
	for room, set := range ri.members {
		out = append(out, RoomInfo{ID: room, MemberCount: len(set)})
	}
	return out
}
