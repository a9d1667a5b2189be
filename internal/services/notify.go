package services

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/AnshRaj112/fitcoach-backend/internal/logging"
	"github.com/AnshRaj112/fitcoach-backend/internal/realtime"
)

// notifier publishes after a mutation has committed. Delivery is best effort:
// failures are logged and never reach the caller.
type notifier struct {
	pub realtime.Publisher
	log zerolog.Logger
}

func newNotifier(pub realtime.Publisher, log zerolog.Logger) notifier {
	if pub == nil {
		pub = realtime.NopBus{}
	}
	return notifier{pub: pub, log: log}
}

func (n notifier) send(ctx context.Context, notes ...realtime.Notification) {
	for _, note := range notes {
		if err := n.pub.Publish(ctx, note); err != nil {
			logging.FromContext(ctx, n.log).Warn().Err(err).
				Str("type", string(note.Type)).
				Str("user_id", note.UserID).
				Msg("notification publish failed")
		}
	}
}
