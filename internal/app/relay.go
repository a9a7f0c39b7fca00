package app

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/socia-app/relay/internal/core"
	"github.com/socia-app/relay/internal/domain"
)

// Outbound event names.
const (
	EventConnected        = "connected"
	EventMessageReceived  = "message_received"
	EventTyping           = "typing"
	EventStopTyping       = "stop_typing"
	EventIncomingCall     = "incoming_call"
	EventCallAccepted     = "call_accepted"
	EventCallRejected     = "call_rejected"
	EventCallStatusUpdate = "call_status_update"
	EventCallConnected    = "call_connected"
	EventCallEnded        = "call_ended"
)

type envelope struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

// Relay resolves fan-out targets through the registry and room index and
// emits events to their connections. Sends never block; a full send
// buffer drops the frame for that connection only.
type Relay struct {
	Registry *Registry
	Rooms    *core.RoomIndex
}

func NewRelay(reg *Registry, rooms *core.RoomIndex) *Relay {
	return &Relay{Registry: reg, Rooms: rooms}
}

func encode(event string, data any) (core.Frame, bool) {
	b, err := json.Marshal(envelope{Event: event, Data: data})
	if err != nil {
		log.Error().Err(err).Str("module", "app.relay").Str("event", event).Msg("encode event")
		return nil, false
	}
	return b, true
}

func (r *Relay) send(sess *core.Session, f core.Frame, event string) bool {
	if err := sess.Send(f); err != nil {
		log.Warn().Err(err).Str("module", "app.relay").Str("sid", string(sess.ID)).Str("event", event).Msg("send dropped")
		return false
	}
	return true
}

// EmitToSession delivers one event to a single connection.
func (r *Relay) EmitToSession(sess *core.Session, event string, data any) {
	if f, ok := encode(event, data); ok {
		r.send(sess, f, event)
	}
}

// EmitToUser delivers the event to every connection bound to the user.
// Zero deliveries means the user is offline, which is not an error.
func (r *Relay) EmitToUser(uid domain.UserID, event string, data any) int {
	f, ok := encode(event, data)
	if !ok {
		return 0
	}
	sent := 0
	for _, sess := range r.Registry.ConnectionsFor(uid) {
		if r.send(sess, f, event) {
			sent++
		}
	}
	return sent
}

// EmitToRoom delivers the event to every member of the room, skipping
// the excluded session (the room-broadcast originator). Pass an empty
// exclusion to reach the whole room.
func (r *Relay) EmitToRoom(room domain.RoomID, except core.SessionID, event string, data any) int {
	f, ok := encode(event, data)
	if !ok {
		return 0
	}
	return r.emitRaw(room, except, f, event)
}

// EmitRawToRoom forwards an already-encoded frame verbatim, used for the
// WebRTC offer/answer/ICE pass-through.
func (r *Relay) EmitRawToRoom(room domain.RoomID, except core.SessionID, f core.Frame) int {
	return r.emitRaw(room, except, f, "raw")
}

func (r *Relay) emitRaw(room domain.RoomID, except core.SessionID, f core.Frame, event string) int {
	sent := 0
	for _, sid := range r.Rooms.Members(room) {
		if sid == except {
			continue
		}
		sess, ok := r.Registry.Get(sid)
		if !ok {
			// Stale snapshot; the session disconnected after resolution.
			continue
		}
		if r.send(sess, f, event) {
			sent++
		}
	}
	log.Debug().Str("module", "app.relay").Str("room", string(room)).Str("event", event).Int("sent", sent).Msg("room fan-out")
	return sent
}

// RelayMessage fans a user-authored message out to the personal room of
// every participant except the sender and to the chat room, excluding
// the sender's connections by identity. A missing participants list is
// malformed input: logged and dropped, never fatal.
func (r *Relay) RelayMessage(msg domain.Message) {
	if len(msg.Chat.Participants) == 0 {
		log.Warn().Str("module", "app.relay").Str("chat", string(msg.Chat.ID)).Msg("message without participants dropped")
		return
	}
	f, ok := encode(EventMessageReceived, msg)
	if !ok {
		return
	}
	for _, p := range msg.Chat.Participants {
		if p.ID == msg.Sender.ID {
			continue
		}
		for _, sess := range r.Registry.ConnectionsFor(p.ID) {
			r.send(sess, f, EventMessageReceived)
		}
	}
	for _, sid := range r.Rooms.Members(msg.Chat.ID.Room()) {
		sess, ok := r.Registry.Get(sid)
		if !ok || sess.User() == msg.Sender.ID {
			continue
		}
		r.send(sess, f, EventMessageReceived)
	}
}

// RelayTyping broadcasts a typing or stop_typing indicator to the chat
// room, excluding the originating connection.
func (r *Relay) RelayTyping(from core.SessionID, chatID domain.ChatID, event string) {
	r.EmitToRoom(chatID.Room(), from, event, chatID)
}
