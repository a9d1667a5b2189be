package realtime

import (
	"context"
	"encoding/json"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const redisChannelPrefix = "notify:user:"

type RedisBus struct {
	client *redis.Client
	log    zerolog.Logger
}

func NewRedisBus(client *redis.Client, log zerolog.Logger) *RedisBus {
	return &RedisBus{client: client, log: log}
}

func (b *RedisBus) Publish(ctx context.Context, n Notification) error {
	data, err := json.Marshal(stamp(n))
	if err != nil {
		return err
	}
	return b.client.Publish(ctx, redisChannelPrefix+n.UserID, data).Err()
}

// Subscribe keeps one pattern subscription open, reconnecting with capped
// exponential backoff when the receive loop fails.
func (b *RedisBus) Subscribe(ctx context.Context, deliver func(Notification)) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = time.Second
	bo.MaxInterval = 30 * time.Second
	bo.MaxElapsedTime = 0

	for {
		if err := ctx.Err(); err != nil {
			return nil
		}

		err := b.receive(ctx, deliver, bo.Reset)
		if ctx.Err() != nil {
			return nil
		}
		wait := bo.NextBackOff()
		b.log.Warn().Err(err).Dur("retry_in", wait).Msg("notification subscriber disconnected")

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(wait):
		}
	}
}

func (b *RedisBus) receive(ctx context.Context, deliver func(Notification), healthy func()) error {
	pubsub := b.client.PSubscribe(ctx, redisChannelPrefix+"*")
	defer pubsub.Close()

	b.log.Info().Str("pattern", redisChannelPrefix+"*").Msg("notification subscriber started")
	for {
		msg, err := pubsub.ReceiveMessage(ctx)
		if err != nil {
			return err
		}
		healthy()

		var n Notification
		if err := json.Unmarshal([]byte(msg.Payload), &n); err != nil {
			b.log.Warn().Err(err).Str("channel", msg.Channel).Msg("bad notification payload")
			continue
		}
		deliver(n)
	}
}

// Close is a no-op; the Redis client is shared and closed by its owner.
func (b *RedisBus) Close() error { return nil }
