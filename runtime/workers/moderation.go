package workers

import (
	"context"
	"log/slog"

	"wisp-chat/domain"
	"wisp-chat/domain/event"
	"wisp-chat/moderation"
)

// ModerationWorker sits between the connection handlers and the
// broadcaster: every submitted chat message is censored before it can
// be sequenced. A single worker instance keeps submission order intact.
type ModerationWorker struct {
	moderator moderation.Moderator
	submitted <-chan domain.Message
	accepted  chan<- event.DomainEvent
	log       *slog.Logger
}

func NewModerationWorker(moderator moderation.Moderator,
	submitted <-chan domain.Message, accepted chan<- event.DomainEvent,
	log *slog.Logger) *ModerationWorker {
	return &ModerationWorker{
		moderator: moderator,
		submitted: submitted,
		accepted:  accepted,
		log:       log,
	}
}

func (w *ModerationWorker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Stopping moderation worker")
			return nil
		case msg, ok := <-w.submitted:
			if !ok {
				w.log.Debug("Submission channel closed")
				return nil
			}

			censored, foundWords := w.moderator.Censor(msg.Content)
			if len(foundWords) > 0 {
				w.log.Debug("Message censored",
					"sender", msg.Sender, "words", len(foundWords))
			}

			evt := event.MessageBroadcast{
				ID:      msg.ID,
				Sender:  msg.Sender,
				Content: censored,
			}
			select {
			case <-ctx.Done():
				return nil
			case w.accepted <- evt:
			}
		}
	}
}
