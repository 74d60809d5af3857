package events

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"ecobhandu-be/models"
)

const (
	minRelayBackoff = time.Second
	maxRelayBackoff = 30 * time.Second
)

// RedisBridge publishes events to a Redis channel and relays everything
// received on that channel into the local hub, so every instance's
// subscribers see every instance's events.
type RedisBridge struct {
	client  *redis.Client
	channel string
	hub     *Hub
	log     *zap.Logger

	// relaying is set while Run holds a live subscription.
	relaying atomic.Bool
}

func NewRedisBridge(client *redis.Client, channel string, hub *Hub, log *zap.Logger) *RedisBridge {
	return &RedisBridge{client: client, channel: channel, hub: hub, log: log}
}

// Relaying reports whether events received from Redis currently reach the
// local hub.
func (b *RedisBridge) Relaying() bool {
	return b.relaying.Load()
}

// Publish sends ev through Redis. Local subscribers get the event directly
// when Redis is unreachable or the relay is down.
func (b *RedisBridge) Publish(ctx context.Context, ev models.ReportEvent) {
	payload, err := json.Marshal(ev)
	if err != nil {
		b.log.Error("failed to encode report event", zap.Error(err))
		return
	}
	relaying := b.relaying.Load()
	if err := b.client.Publish(ctx, b.channel, payload).Err(); err != nil {
		b.log.Warn("failed to publish report event to redis, delivering locally", zap.Error(err))
		b.hub.Publish(ctx, ev)
		return
	}
	if !relaying {
		b.hub.Publish(ctx, ev)
	}
}

// Serve keeps Run going until ctx is cancelled, restarting it with
// exponential backoff whenever the subscription is lost.
func (b *RedisBridge) Serve(ctx context.Context) {
	backoff := minRelayBackoff
	for {
		started := time.Now()
		err := b.Run(ctx)
		if ctx.Err() != nil {
			return
		}
		if time.Since(started) > maxRelayBackoff {
			backoff = minRelayBackoff
		}
		b.log.Warn("event relay stopped, restarting",
			zap.Error(err), zap.Duration("backoff", backoff))

		t := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			t.Stop()
			return
		case <-t.C:
		}
		backoff = min(backoff*2, maxRelayBackoff)
	}
}

// Run relays Redis messages into the hub until ctx is cancelled or the
// subscription closes.
func (b *RedisBridge) Run(ctx context.Context) error {
	sub := b.client.Subscribe(ctx, b.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return err
	}
	b.relaying.Store(true)
	defer b.relaying.Store(false)
	b.log.Info("relaying report events from redis", zap.String("channel", b.channel))

	msgs := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}
			var ev models.ReportEvent
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				b.log.Warn("ignoring malformed report event", zap.Error(err))
				continue
			}
			b.hub.Publish(ctx, ev)
		}
	}
}
