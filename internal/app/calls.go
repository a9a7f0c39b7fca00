package app

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/socia-app/relay/internal/core"
	"github.com/socia-app/relay/internal/domain"
)

type incomingCallPayload struct {
	ChatID   domain.ChatID   `json:"chatId"`
	CallType domain.CallType `json:"callType"`
	Caller   domain.UserRef  `json:"caller"`
	CallID   domain.CallID   `json:"callId"`
}

type callAcceptedPayload struct {
	CallID   domain.CallID  `json:"callId"`
	Accepter domain.UserRef `json:"accepter"`
}

type callRejectedPayload struct {
	CallID   domain.CallID  `json:"callId"`
	Rejector domain.UserRef `json:"rejector"`
}

type callStatusPayload struct {
	Status   domain.CallState `json:"status"`
	ChatID   domain.ChatID    `json:"chatId"`
	CallType domain.CallType  `json:"callType"`
}

type callConnectedPayload struct {
	ChatID   domain.ChatID    `json:"chatId"`
	CallType domain.CallType  `json:"callType"`
	Status   domain.CallState `json:"status"`
}

type callEndedPayload struct {
	EndedBy domain.UserRef `json:"endedBy"`
}

// Calls drives the call signaling lifecycle. A minimal in-memory table
// keyed by call id tracks each attempt from initiation to a terminal
// transition, so duplicate accept/reject emissions are suppressed and
// a caller disconnecting mid-ring retracts the ring.
type Calls struct {
	relay *Relay

	mu    sync.Mutex
	table map[domain.CallID]*domain.Call

	now func() time.Time
}

func NewCalls(relay *Relay) *Calls {
	return &Calls{
		relay: relay,
		table: make(map[domain.CallID]*domain.Call),
		now:   time.Now,
	}
}

// Initiate starts ringing the recipient. The generated call id is unique
// per attempt; simultaneous initiations for the same chat each get their
// own id. The ring reaches the recipient's personal room only, never the
// chat room.
func (c *Calls) Initiate(chatID domain.ChatID, callType domain.CallType, caller, recipient domain.UserRef) domain.CallID {
	id := domain.CallID(fmt.Sprintf("%s-%d", uuid.NewString(), c.now().UnixMilli()))

	c.mu.Lock()
	c.table[id] = &domain.Call{
		ID:        id,
		ChatID:    chatID,
		Type:      callType,
		Caller:    caller,
		Recipient: recipient,
		State:     domain.CallRinging,
	}
	c.mu.Unlock()

	log.Info().Str("module", "app.calls").Str("call", string(id)).Str("chat", string(chatID)).Str("caller", string(caller.ID)).Str("recipient", string(recipient.ID)).Msg("call initiated")
	c.relay.EmitToUser(recipient.ID, EventIncomingCall, incomingCallPayload{
		ChatID:   chatID,
		CallType: callType,
		Caller:   caller,
		CallID:   id,
	})
	return id
}

// transition moves a ringing call into state. It reports false for an
// unknown, stale, or already-transitioned call, which the caller treats
// as a silent no-op.
func (c *Calls) transition(id domain.CallID, state domain.CallState) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	call, ok := c.table[id]
	if !ok {
		log.Debug().Str("module", "app.calls").Str("call", string(id)).Msg("transition for unknown call ignored")
		return false
	}
	if call.State != domain.CallRinging {
		log.Debug().Str("module", "app.calls").Str("call", string(id)).Str("state", string(call.State)).Msg("duplicate transition ignored")
		return false
	}
	call.State = state
	if state.Terminal() {
		delete(c.table, id)
	}
	return true
}

// Accept answers a ringing call: call_accepted goes to the chat room
// excluding the accepter's connection, call_status_update to the whole
// room. Accepting an unknown or already-answered call does nothing.
func (c *Calls) Accept(from core.SessionID, id domain.CallID, chatID domain.ChatID, accepter domain.UserRef, callType domain.CallType) {
	if !c.transition(id, domain.CallAccepted) {
		return
	}
	log.Info().Str("module", "app.calls").Str("call", string(id)).Str("chat", string(chatID)).Msg("call accepted")
	c.relay.EmitToRoom(chatID.Room(), from, EventCallAccepted, callAcceptedPayload{CallID: id, Accepter: accepter})
	c.relay.EmitToRoom(chatID.Room(), "", EventCallStatusUpdate, callStatusPayload{
		Status:   domain.CallAccepted,
		ChatID:   chatID,
		CallType: callType,
	})
}

// Reject mirrors Accept and terminates the call.
func (c *Calls) Reject(from core.SessionID, id domain.CallID, chatID domain.ChatID, rejector domain.UserRef, callType domain.CallType) {
	if !c.transition(id, domain.CallRejected) {
		return
	}
	log.Info().Str("module", "app.calls").Str("call", string(id)).Str("chat", string(chatID)).Msg("call rejected")
	c.relay.EmitToRoom(chatID.Room(), from, EventCallRejected, callRejectedPayload{CallID: id, Rejector: rejector})
	c.relay.EmitToRoom(chatID.Room(), "", EventCallStatusUpdate, callStatusPayload{
		Status:   domain.CallRejected,
		ChatID:   chatID,
		CallType: callType,
	})
}

// Connected broadcasts the connected transition to every chat-room
// member; clients use it to synchronize their call timers. The event
// carries no call id, so the table is matched by chat.
func (c *Calls) Connected(chatID domain.ChatID, callType domain.CallType) {
	c.mu.Lock()
	for _, call := range c.table {
		if call.ChatID == chatID && !call.State.Terminal() {
			call.State = domain.CallConnected
			call.StartedAt = c.now()
		}
	}
	c.mu.Unlock()

	c.relay.EmitToRoom(chatID.Room(), "", EventCallConnected, callConnectedPayload{
		ChatID:   chatID,
		CallType: callType,
		Status:   domain.CallConnected,
	})
}

// End notifies the chat room that the call finished and drops every
// in-flight call for the chat from the table.
func (c *Calls) End(from core.SessionID, chatID domain.ChatID, endedBy domain.UserRef) {
	c.mu.Lock()
	for id, call := range c.table {
		if call.ChatID == chatID {
			delete(c.table, id)
		}
	}
	c.mu.Unlock()

	log.Info().Str("module", "app.calls").Str("chat", string(chatID)).Str("ended_by", string(endedBy.ID)).Msg("call ended")
	c.relay.EmitToRoom(chatID.Room(), from, EventCallEnded, callEndedPayload{EndedBy: endedBy})
}

// CancelRingsFor retracts every call the user left ringing when their
// last connection dropped: the recipient and the chat room both get
// call_ended so stale incoming-call UI is dismissed.
func (c *Calls) CancelRingsFor(uid domain.UserID) {
	c.mu.Lock()
	var cancelled []*domain.Call
	for id, call := range c.table {
		if call.Caller.ID == uid && call.State == domain.CallRinging {
			delete(c.table, id)
			cancelled = append(cancelled, call)
		}
	}
	c.mu.Unlock()

	for _, call := range cancelled {
		log.Info().Str("module", "app.calls").Str("call", string(call.ID)).Str("caller", string(uid)).Msg("ring cancelled on caller disconnect")
		c.relay.EmitToUser(call.Recipient.ID, EventCallEnded, callEndedPayload{EndedBy: call.Caller})
		c.relay.EmitToRoom(call.ChatID.Room(), "", EventCallEnded, callEndedPayload{EndedBy: call.Caller})
	}
}

// Active reports in-flight calls, for the debug API.
func (c *Calls) Active() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.table)
}
