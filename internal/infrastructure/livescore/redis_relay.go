package livescore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/frozenbet/scoring-engine/internal/domain/livescore"
	"github.com/frozenbet/scoring-engine/internal/platform/logging"
	"github.com/redis/go-redis/v9"
)

const DefaultChannel = "frozenbet:live-scores"

// RedisRelay publishes events on a Redis channel and feeds every message it receives into
// the local hub, so all API instances see every score change.
type RedisRelay struct {
	client  *redis.Client
	channel string
	hub     *Hub
	logger  *logging.Logger
}

func NewRedisClient(ctx context.Context, rawURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(strings.TrimSpace(rawURL))
	if err != nil {
		return nil, crerr.Wrap(err, "parse redis url")
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, crerr.Wrap(err, "ping redis")
	}
	return client, nil
}

func NewRedisRelay(client *redis.Client, channel string, hub *Hub, logger *logging.Logger) *RedisRelay {
	if strings.TrimSpace(channel) == "" {
		channel = DefaultChannel
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &RedisRelay{
		client:  client,
		channel: channel,
		hub:     hub,
		logger:  logger,
	}
}

// Publish sends the event through Redis. When Redis is unreachable the event is still
// delivered to local subscribers and the error is returned.
func (r *RedisRelay) Publish(ctx context.Context, event livescore.Event) error {
	raw, err := encodeEvent(event)
	if err != nil {
		return err
	}
	if err := r.client.Publish(ctx, r.channel, raw).Err(); err != nil {
		_ = r.hub.Publish(ctx, event)
		return crerr.Wrapf(err, "publish live score to redis channel=%s", r.channel)
	}
	return nil
}

// Run consumes the channel until ctx is done.
func (r *RedisRelay) Run(ctx context.Context) error {
	pubsub := r.client.Subscribe(ctx, r.channel)
	defer func() {
		_ = pubsub.Close()
	}()

	if _, err := pubsub.Receive(ctx); err != nil {
		return crerr.Wrapf(err, "subscribe redis channel=%s", r.channel)
	}
	r.logger.Info("live score relay subscribed", "channel", r.channel)

	messages := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return errors.New("redis live score subscription closed")
			}
			event, err := decodeEvent(msg.Payload)
			if err != nil {
				r.logger.WarnContext(ctx, "discard malformed live score message", "channel", msg.Channel, "error", err)
				continue
			}
			_ = r.hub.Publish(ctx, event)
		}
	}
}

func encodeEvent(event livescore.Event) (string, error) {
	raw, err := sonic.MarshalString(event)
	if err != nil {
		return "", crerr.Wrap(err, "encode live score event")
	}
	return raw, nil
}

func decodeEvent(payload string) (livescore.Event, error) {
	var event livescore.Event
	if err := sonic.UnmarshalString(payload, &event); err != nil {
		return livescore.Event{}, crerr.Wrap(err, "decode live score event")
	}
	if event.Type == "" || event.Update.MatchID == "" {
		return livescore.Event{}, crerr.New("live score event requires type and match id")
	}
	return event, nil
}
