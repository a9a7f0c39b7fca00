package signal

import (
	"context"
	"encoding/json"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"github.com/socia-app/relay/internal/core"
	"github.com/socia-app/relay/internal/domain"
)

// inboundEnvelope is the tagged wire shape of every client frame:
// {"event": "<name>", "data": <payload>}.
type inboundEnvelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

var validate = validator.New()

// decodePayload unmarshals and validates a typed payload. Any failure
// is malformed input: the caller logs and drops the event.
func decodePayload(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return err
	}
	return validate.Struct(v)
}

func (ctl *Controller) dispatch(ctx context.Context, sess *core.Session, verified domain.UserID, raw []byte) {
	var env inboundEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("sid", string(sess.ID)).Msg("malformed frame dropped")
		return
	}
	if env.Event == "" {
		log.Warn().Str("module", "signal").Str("sid", string(sess.ID)).Msg("frame without event dropped")
		return
	}
	if !ctl.limiter.Allow(sess.ID) {
		log.Warn().Str("module", "signal").Str("sid", string(sess.ID)).Str("event", env.Event).Msg("rate limit exceeded, event dropped")
		return
	}

	switch env.Event {
	case "setup":
		ctl.handleSetup(sess, verified, env.Data)
	case "join_chat":
		ctl.handleJoinChat(sess, env.Data)
	case "send_message":
		ctl.handleSendMessage(sess, env.Data)
	case "typing":
		ctl.handleTyping(sess, env.Data, "typing")
	case "stop_typing":
		ctl.handleTyping(sess, env.Data, "stop_typing")
	case "initiate_call":
		ctl.handleInitiateCall(sess, env.Data)
	case "accept_call":
		ctl.handleAcceptCall(sess, env.Data)
	case "reject_call":
		ctl.handleRejectCall(sess, env.Data)
	case "call_connected":
		ctl.handleCallConnected(sess, env.Data)
	case "end_call":
		ctl.handleEndCall(sess, env.Data)
	case "add_call_history":
		ctl.handleAddCallHistory(ctx, sess, env.Data)
	case "offer", "answer", "ice-candidate":
		ctl.handleWebRTC(sess, env.Data, raw)
	default:
		log.Warn().Str("module", "signal").Str("event", env.Event).Msg("unknown event")
	}
}
