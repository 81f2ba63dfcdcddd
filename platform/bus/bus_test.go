package bus

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"contactcenter_backend/platform/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func testBus(t *testing.T) *Bus {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewWithClient(rdb, logger.New("development"))
}

func TestPublishReachesOwnProcess(t *testing.T) {
	b := testBus(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan Envelope, 1)
	b.Subscribe(ctx, "events:domain", func(_ context.Context, env Envelope) {
		received <- env
	})

	env, err := NewEnvelope("campaignUpdated", map[string]string{"name": "summer"})
	if err != nil {
		t.Fatalf("build envelope: %v", err)
	}

	// Subscription startup is asynchronous; retry until the message lands.
	deadline := time.Now().Add(2 * time.Second)
	for {
		b.Publish(ctx, "events:domain", env)
		select {
		case got := <-received:
			if got.Type != "campaignUpdated" {
				t.Fatalf("unexpected type %q", got.Type)
			}
			var payload map[string]string
			if err := json.Unmarshal(got.Payload, &payload); err != nil {
				t.Fatalf("decode payload: %v", err)
			}
			if payload["name"] != "summer" {
				t.Fatalf("unexpected payload %v", payload)
			}
			return
		case <-time.After(50 * time.Millisecond):
			if time.Now().After(deadline) {
				t.Fatal("subscriber never received the message")
			}
		}
	}
}

func TestChannelsAreIsolated(t *testing.T) {
	b := testBus(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	domain := make(chan Envelope, 8)
	telephony := make(chan Envelope, 8)
	b.Subscribe(ctx, "events:domain", func(_ context.Context, env Envelope) { domain <- env })
	b.Subscribe(ctx, "events:telephony", func(_ context.Context, env Envelope) { telephony <- env })

	env, _ := NewEnvelope("newCall", nil)
	deadline := time.Now().Add(2 * time.Second)
	for {
		b.Publish(ctx, "events:telephony", env)
		select {
		case <-telephony:
			select {
			case env := <-domain:
				t.Fatalf("domain channel received telephony traffic: %+v", env)
			default:
			}
			return
		case <-time.After(50 * time.Millisecond):
			if time.Now().After(deadline) {
				t.Fatal("telephony subscriber never received the message")
			}
		}
	}
}

func TestUndecodableMessageFallsBackToRaw(t *testing.T) {
	b := testBus(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan Envelope, 1)
	b.Subscribe(ctx, "events:domain", func(_ context.Context, env Envelope) {
		received <- env
	})

	deadline := time.Now().Add(2 * time.Second)
	for {
		b.rdb.Publish(ctx, "events:domain", "not json at all")
		select {
		case got := <-received:
			if got.Type != TypeRaw {
				t.Fatalf("expected raw fallback, got %q", got.Type)
			}
			var text string
			if err := json.Unmarshal(got.Payload, &text); err != nil || text != "not json at all" {
				t.Fatalf("expected original text preserved, got %s", got.Payload)
			}
			return
		case <-time.After(50 * time.Millisecond):
			if time.Now().After(deadline) {
				t.Fatal("subscriber never received the message")
			}
		}
	}
}

func TestNewEnvelopeWithoutPayload(t *testing.T) {
	env, err := NewEnvelope("planningUpdated", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if env.Type != "planningUpdated" || env.Payload != nil {
		t.Fatalf("unexpected envelope %+v", env)
	}
}

func TestDecodeRequiresType(t *testing.T) {
	env := decode(`{"payload": {"x": 1}}`)
	if env.Type != TypeRaw {
		t.Fatalf("expected typeless JSON to fall back to raw, got %q", env.Type)
	}

	env = decode(`{"type":"newCall","payload":{"callId":"abc"}}`)
	if env.Type != "newCall" {
		t.Fatalf("expected decoded envelope, got %q", env.Type)
	}
}
