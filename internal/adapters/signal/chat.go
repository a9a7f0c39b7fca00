package signal

import (
	"encoding/json"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/socia-app/relay/internal/app"
	"github.com/socia-app/relay/internal/core"
	"github.com/socia-app/relay/internal/domain"
)

type setupPayload struct {
	ID string `json:"_id" validate:"required"`
}

// handleSetup binds the connection to its user identity and joins the
// personal room. The claimed id must match the identity the auth
// middleware verified; a mismatch is a protocol violation, not a
// silently accepted rebind.
func (ctl *Controller) handleSetup(sess *core.Session, verified domain.UserID, data json.RawMessage) {
	var p setupPayload
	if err := decodePayload(data, &p); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("sid", string(sess.ID)).Msg("bad setup payload")
		return
	}
	uid := domain.UserID(p.ID)
	if verified != "" && uid != verified {
		log.Warn().Str("module", "signal").Str("sid", string(sess.ID)).Str("claimed", p.ID).Str("verified", string(verified)).Msg("setup identity mismatch refused")
		return
	}
	if err := ctl.Registry.Bind(sess.ID, uid); err != nil {
		if errors.Is(err, core.ErrIdentityBound) {
			log.Warn().Str("module", "signal").Str("sid", string(sess.ID)).Str("user", p.ID).Msg("rebind to different identity refused")
		}
		return
	}
	ctl.Rooms.Join(uid.PersonalRoom(), sess.ID)
	ctl.Relay.EmitToSession(sess, app.EventConnected, nil)
}

func (ctl *Controller) handleJoinChat(sess *core.Session, data json.RawMessage) {
	var chatID string
	if err := json.Unmarshal(data, &chatID); err != nil || chatID == "" {
		log.Warn().Str("module", "signal").Str("sid", string(sess.ID)).Msg("bad join_chat payload")
		return
	}
	ctl.Rooms.Join(domain.ChatID(chatID).Room(), sess.ID)
}

func (ctl *Controller) handleSendMessage(sess *core.Session, data json.RawMessage) {
	var msg domain.Message
	if err := json.Unmarshal(data, &msg); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("sid", string(sess.ID)).Msg("bad send_message payload")
		return
	}
	if msg.Sender.ID == "" || msg.Chat.ID == "" {
		log.Warn().Str("module", "signal").Str("sid", string(sess.ID)).Msg("send_message without sender or chat dropped")
		return
	}
	ctl.Relay.RelayMessage(msg)
}

func (ctl *Controller) handleTyping(sess *core.Session, data json.RawMessage, event string) {
	var chatID string
	if err := json.Unmarshal(data, &chatID); err != nil || chatID == "" {
		log.Warn().Str("module", "signal").Str("sid", string(sess.ID)).Str("event", event).Msg("bad typing payload")
		return
	}
	ctl.Relay.RelayTyping(sess.ID, domain.ChatID(chatID), event)
}
