package signal

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/socia-app/relay/internal/core"
	"github.com/socia-app/relay/internal/domain"
)

type initiateCallPayload struct {
	ChatID    string          `json:"chatId" validate:"required"`
	CallType  domain.CallType `json:"callType" validate:"required,oneof=audio video"`
	Caller    domain.UserRef  `json:"caller"`
	Recipient domain.UserRef  `json:"recipient"`
}

type acceptCallPayload struct {
	CallID   string          `json:"callId" validate:"required"`
	ChatID   string          `json:"chatId" validate:"required"`
	Accepter domain.UserRef  `json:"accepter"`
	CallType domain.CallType `json:"callType"`
}

type rejectCallPayload struct {
	CallID   string          `json:"callId" validate:"required"`
	ChatID   string          `json:"chatId" validate:"required"`
	Rejector domain.UserRef  `json:"rejector"`
	CallType domain.CallType `json:"callType"`
}

type callConnectedPayload struct {
	ChatID   string          `json:"chatId" validate:"required"`
	CallType domain.CallType `json:"callType"`
}

type endCallPayload struct {
	ChatID string         `json:"chatId" validate:"required"`
	User   domain.UserRef `json:"user"`
}

type addCallHistoryPayload struct {
	ChatID   string          `json:"chatId" validate:"required"`
	CallType domain.CallType `json:"callType" validate:"required,oneof=audio video"`
	Duration int             `json:"duration" validate:"gte=0"`
}

// chatScoped extracts just the chat id from a pass-through payload.
type chatScoped struct {
	ChatID string `json:"chatId" validate:"required"`
}

func (ctl *Controller) handleInitiateCall(sess *core.Session, data json.RawMessage) {
	var p initiateCallPayload
	if err := decodePayload(data, &p); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("sid", string(sess.ID)).Msg("bad initiate_call payload")
		return
	}
	if p.Caller.ID == "" || p.Recipient.ID == "" {
		log.Warn().Str("module", "signal").Str("sid", string(sess.ID)).Msg("initiate_call without caller or recipient dropped")
		return
	}
	ctl.Calls.Initiate(domain.ChatID(p.ChatID), p.CallType, p.Caller, p.Recipient)
}

func (ctl *Controller) handleAcceptCall(sess *core.Session, data json.RawMessage) {
	var p acceptCallPayload
	if err := decodePayload(data, &p); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("sid", string(sess.ID)).Msg("bad accept_call payload")
		return
	}
	ctl.Calls.Accept(sess.ID, domain.CallID(p.CallID), domain.ChatID(p.ChatID), p.Accepter, p.CallType)
}

func (ctl *Controller) handleRejectCall(sess *core.Session, data json.RawMessage) {
	var p rejectCallPayload
	if err := decodePayload(data, &p); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("sid", string(sess.ID)).Msg("bad reject_call payload")
		return
	}
	ctl.Calls.Reject(sess.ID, domain.CallID(p.CallID), domain.ChatID(p.ChatID), p.Rejector, p.CallType)
}

func (ctl *Controller) handleCallConnected(sess *core.Session, data json.RawMessage) {
	var p callConnectedPayload
	if err := decodePayload(data, &p); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("sid", string(sess.ID)).Msg("bad call_connected payload")
		return
	}
	ctl.Calls.Connected(domain.ChatID(p.ChatID), p.CallType)
}

func (ctl *Controller) handleEndCall(sess *core.Session, data json.RawMessage) {
	var p endCallPayload
	if err := decodePayload(data, &p); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("sid", string(sess.ID)).Msg("bad end_call payload")
		return
	}
	ctl.Calls.End(sess.ID, domain.ChatID(p.ChatID), p.User)
}

func (ctl *Controller) handleAddCallHistory(ctx context.Context, sess *core.Session, data json.RawMessage) {
	var p addCallHistoryPayload
	if err := decodePayload(data, &p); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("sid", string(sess.ID)).Msg("bad add_call_history payload")
		return
	}
	ctl.History.Record(ctx, sess.User(), domain.ChatID(p.ChatID), p.CallType, p.Duration)
}

// handleWebRTC forwards offer/answer/ice-candidate frames verbatim to
// the chat room, excluding the sender. The SDP/ICE contents are opaque;
// only the chat id is read.
func (ctl *Controller) handleWebRTC(sess *core.Session, data json.RawMessage, raw []byte) {
	var p chatScoped
	if err := decodePayload(data, &p); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("sid", string(sess.ID)).Msg("bad signaling payload")
		return
	}
	ctl.Relay.EmitRawToRoom(domain.ChatID(p.ChatID).Room(), sess.ID, raw)
}
