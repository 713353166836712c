package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"mathdrill/internal/logger"
	"mathdrill/internal/service"
)

// DefaultChannel is the pub/sub channel used when none is configured
const DefaultChannel = "mathdrill.events"

// redisPublisher is the part of the redis client the bus needs
type redisPublisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *goredis.IntCmd
	Close() error
}

// RedisBus mirrors hub events onto a Redis pub/sub channel so other
// processes can watch practice as it happens
type RedisBus struct {
	log     *logger.Logger
	rdb     redisPublisher
	channel string
}

// NewRedisBus connects to addr and checks the connection with a ping
func NewRedisBus(ctx context.Context, addr, channel string, log *logger.Logger) (*RedisBus, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, fmt.Errorf("missing redis address")
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return newRedisBus(rdb, channel, log), nil
}

func newRedisBus(rdb redisPublisher, channel string, log *logger.Logger) *RedisBus {
	channel = strings.TrimSpace(channel)
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisBus{
		log:     log.With("component", "RedisEventBus"),
		rdb:     rdb,
		channel: channel,
	}
}

// Publish sends one event as JSON
func (b *RedisBus) Publish(ctx context.Context, e service.Event) error {
	if b == nil || b.rdb == nil {
		return fmt.Errorf("redis event bus not initialized")
	}
	raw, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return b.rdb.Publish(ctx, b.channel, raw).Err()
}

// Forward publishes every event received on events until the channel closes
// or ctx is done. Failed publishes are logged and skipped.
func (b *RedisBus) Forward(ctx context.Context, events <-chan service.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-events:
			if !ok {
				return
			}
			if err := b.Publish(ctx, e); err != nil {
				b.log.Warn("Failed to forward event to redis", "type", e.Type, "error", err)
			}
		}
	}
}

// Close releases the redis connection
func (b *RedisBus) Close() error {
	if b == nil || b.rdb == nil {
		return nil
	}
	return b.rdb.Close()
}
