package realtime

import (
	"context"
	"time"
)

type NotificationType string

const (
	FollowRequested      NotificationType = "follow_requested"
	FollowAccepted       NotificationType = "follow_accepted"
	GroupJoinRequested   NotificationType = "group_join_requested"
	GroupRequestAccepted NotificationType = "group_request_accepted"
	EventInvited         NotificationType = "event_invited"
)

// Notification is pushed to one user. Payload carries ids only, clients fetch
// the rest.
type Notification struct {
	Type      NotificationType  `json:"type"`
	UserID    string            `json:"user_id"`
	Payload   map[string]string `json:"payload,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

type Publisher interface {
	Publish(ctx context.Context, n Notification) error
}

// Bus moves notifications between instances. Subscribe blocks until ctx is
// done, calling deliver for every notification addressed to any user.
type Bus interface {
	Publisher
	Subscribe(ctx context.Context, deliver func(Notification)) error
	Close() error
}

func stamp(n Notification) Notification {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	return n
}

type NopBus struct{}

func (NopBus) Publish(context.Context, Notification) error { return nil }

func (NopBus) Subscribe(ctx context.Context, _ func(Notification)) error {
	<-ctx.Done()
	return nil
}

func (NopBus) Close() error { return nil }
