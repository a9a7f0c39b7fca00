// Package store is the message-persistence collaborator of the relay.
// The session layer only ever appends call-history system messages;
// everything else about message storage belongs to the CRUD service.
package store

import (
	"context"

	"github.com/socia-app/relay/internal/domain"
)

// MessageStore is the write-only capability the relay consumes.
type MessageStore interface {
	AppendSystemMessage(ctx context.Context, msg domain.Message) error
}

// Noop discards appends. Used when no history backend is configured;
// the live broadcast still happens, only durability is lost.
type Noop struct{}

func (Noop) AppendSystemMessage(context.Context, domain.Message) error { return nil }
