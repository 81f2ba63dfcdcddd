// Package bus provides the cross-process event bridge backed by redis pub/sub.
// Delivery is at-most-once with no persistence or replay: the bus is a
// synchronization hint layer, never the system of record. Consumers reconcile
// by re-reading the store.
package bus

import (
	"context"
	"encoding/json"

	"contactcenter_backend/platform/config"
	"contactcenter_backend/platform/logger"

	"github.com/redis/go-redis/v9"
)

// TypeRaw is the envelope type used when an inbound message cannot be decoded.
// The original text is carried verbatim in the payload.
const TypeRaw = "raw"

// Envelope is the wire format for all bus messages, in both directions.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// NewEnvelope builds an envelope, marshaling the payload to JSON.
func NewEnvelope(eventType string, payload interface{}) (Envelope, error) {
	if payload == nil {
		return Envelope{Type: eventType}, nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{Type: eventType, Payload: data}, nil
}

// Handler processes one inbound envelope. Handlers run on the subscriber
// goroutine for their channel; messages from one channel arrive in order.
type Handler func(ctx context.Context, env Envelope)

// Bus publishes and subscribes {type, payload} envelopes on named channels.
// The publishing process is itself a subscriber and receives its own messages.
type Bus struct {
	rdb *redis.Client
	log *logger.Logger
}

// New connects to redis using the configured URL.
func New(cfg config.RedisConfig, log *logger.Logger) (*Bus, error) {
	opt, err := redis.ParseURL(cfg.GetRedisURL())
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}
	return &Bus{rdb: rdb, log: log}, nil
}

// NewWithClient wraps an existing redis client. Used by tests (miniredis).
func NewWithClient(rdb *redis.Client, log *logger.Logger) *Bus {
	return &Bus{rdb: rdb, log: log}
}

// Publish broadcasts an envelope on a channel. Best-effort and fire-and-forget:
// failures are logged and swallowed, since the originating transaction has
// already committed and the store is authoritative.
func (b *Bus) Publish(ctx context.Context, channel string, env Envelope) {
	data, err := json.Marshal(env)
	if err != nil {
		b.log.BusError(channel, err)
		return
	}
	if err := b.rdb.Publish(ctx, channel, data).Err(); err != nil {
		b.log.BusError(channel, err)
	}
}

// Subscribe registers a handler invoked once per message published on the
// channel, starting from subscription time. Messages that fail to decode are
// passed through as a TypeRaw envelope carrying the original text.
func (b *Bus) Subscribe(ctx context.Context, channel string, handler Handler) {
	sub := b.rdb.Subscribe(ctx, channel)

	go func() {
		defer func() { _ = sub.Close() }()
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				handler(ctx, decode(msg.Payload))
			}
		}
	}()
}

// Close releases the underlying redis connection.
func (b *Bus) Close() error {
	return b.rdb.Close()
}

func decode(payload string) Envelope {
	var env Envelope
	if err := json.Unmarshal([]byte(payload), &env); err == nil && env.Type != "" {
		return env
	}
	raw, _ := json.Marshal(payload)
	return Envelope{Type: TypeRaw, Payload: raw}
}
