package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/socia-app/relay/internal/domain"
	"github.com/socia-app/relay/internal/store"
)

// History turns a finished call into a system chat message: broadcast to
// the room first so active viewers see it immediately, then appended to
// the message store best-effort. A failed append never retracts the
// broadcast.
type History struct {
	relay *Relay
	store store.MessageStore
}

func NewHistory(relay *Relay, st store.MessageStore) *History {
	return &History{relay: relay, store: st}
}

// callSummary renders the system-message body, e.g. "📞 Call (2:05)".
func callSummary(callType domain.CallType, durationSeconds int) string {
	icon := "📞"
	if callType == domain.CallVideo {
		icon = "📹"
	}
	return fmt.Sprintf("%s Call (%d:%02d)", icon, durationSeconds/60, durationSeconds%60)
}

// Record builds and fans out the call-history system message.
func (h *History) Record(ctx context.Context, callerID domain.UserID, chatID domain.ChatID, callType domain.CallType, durationSeconds int) {
	msg := domain.Message{
		Sender:          domain.UserRef{ID: callerID},
		Chat:            domain.ChatRef{ID: chatID},
		Content:         callSummary(callType, durationSeconds),
		IsSystemMessage: true,
		CallInfo: &domain.CallInfo{
			Type:     callType,
			Duration: durationSeconds,
		},
	}

	h.relay.EmitToRoom(chatID.Room(), "", EventMessageReceived, msg)

	if err := h.store.AppendSystemMessage(ctx, msg); err != nil {
		log.Warn().Err(err).Str("module", "app.history").Str("chat", string(chatID)).Msg("call history persist failed")
	}
}
