// Package domain contains core concepts of the chat system.
// This file defines Message values and related rules.
// Messages are immutable once the broadcaster has sequenced them.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Message represents one chat message.
// Seq and CreatedAt are zero until the broadcaster assigns them;
// from that point on the message is the canonical record every
// client observes.
type Message struct {
	ID        uuid.UUID // unique identifier
	Sender    string
	Content   string
	Seq       uint64 // global broadcast position
	CreatedAt time.Time
}

// NewMessage builds an unsequenced message as received from a client.
func NewMessage(sender, content string) Message {
	return Message{
		ID:      uuid.New(),
		Sender:  sender,
		Content: content,
	}
}
