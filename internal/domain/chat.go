package domain

type (
	ChatID string
	// RoomID names a multicast group: either a UserID (personal room)
	// or a ChatID (shared conversation room).
	RoomID string
)

func (id ChatID) Room() RoomID {
	return RoomID(id)
}

// ChatRef carries the conversation id and its participant list as the
// clients send it inside a message envelope.
type ChatRef struct {
	ID           ChatID    `json:"_id"`
	Participants []UserRef `json:"participants,omitempty"`
}

// CallInfo annotates a system message that records a finished call.
type CallInfo struct {
	Type     CallType `json:"type"`
	Duration int      `json:"duration"`
}

// Message is the relayed chat envelope. The relay never stores it;
// persistence belongs to the message store collaborator.
type Message struct {
	Sender          UserRef   `json:"sender"`
	Chat            ChatRef   `json:"chat"`
	Content         string    `json:"content"`
	IsSystemMessage bool      `json:"isSystemMessage,omitempty"`
	CallInfo        *CallInfo `json:"callInfo,omitempty"`
}
