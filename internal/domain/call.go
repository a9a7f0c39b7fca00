package domain

import "time"

type CallID string

type CallType string

const (
	CallAudio CallType = "audio"
	CallVideo CallType = "video"
)

type CallState string

const (
	CallRinging   CallState = "ringing"
	CallAccepted  CallState = "accepted"
	CallRejected  CallState = "rejected"
	CallConnected CallState = "connected"
	CallEnded     CallState = "ended"
)

// Terminal reports whether no further transition is allowed.
// Terminal calls are not kept in memory.
func (s CallState) Terminal() bool {
	return s == CallRejected || s == CallEnded
}

// Call is the transient in-memory record of one call attempt,
// alive between initiation and a terminal transition.
type Call struct {
	ID        CallID
	ChatID    ChatID
	Type      CallType
	Caller    UserRef
	Recipient UserRef
	State     CallState
	StartedAt time.Time
}
