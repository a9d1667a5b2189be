package realtime

import (
	"context"
	"encoding/json"

	nats "github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

type NATSBus struct {
	conn   *nats.Conn
	prefix string
	log    zerolog.Logger
}

func ConnectNATS(url, prefix string, log zerolog.Logger) (*NATSBus, error) {
	nc, err := nats.Connect(url,
		nats.Name("fitcoach-notifications"),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warn().Err(err).Msg("nats disconnected")
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			log.Info().Str("url", c.ConnectedUrl()).Msg("nats reconnected")
		}),
	)
	if err != nil {
		return nil, err
	}
	return &NATSBus{conn: nc, prefix: prefix, log: log}, nil
}

func (b *NATSBus) subject(userID string) string {
	return b.prefix + "." + userID
}

func (b *NATSBus) Publish(_ context.Context, n Notification) error {
	data, err := json.Marshal(stamp(n))
	if err != nil {
		return err
	}
	return b.conn.Publish(b.subject(n.UserID), data)
}

func (b *NATSBus) Subscribe(ctx context.Context, deliver func(Notification)) error {
	sub, err := b.conn.Subscribe(b.subject("*"), func(msg *nats.Msg) {
		var n Notification
		if err := json.Unmarshal(msg.Data, &n); err != nil {
			b.log.Warn().Err(err).Str("subject", msg.Subject).Msg("bad notification payload")
			return
		}
		deliver(n)
	})
	if err != nil {
		return err
	}
	b.log.Info().Str("subject", sub.Subject).Msg("notification subscriber started")

	<-ctx.Done()
	return sub.Unsubscribe()
}

func (b *NATSBus) Close() error {
	return b.conn.Drain()
}
