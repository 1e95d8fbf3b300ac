package events

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisPublisher forwards dispatched events to a Redis channel so ticket
// mutations are observable outside the process.
type RedisPublisher struct {
	client  *redis.Client
	channel string
	logger  *zap.Logger
}

// NewRedisPublisher constructs the publisher.
func NewRedisPublisher(client *redis.Client, channel string, logger *zap.Logger) *RedisPublisher {
	return &RedisPublisher{client: client, channel: channel, logger: logger}
}

// Attach subscribes the publisher to every ticket event type.
func (p *RedisPublisher) Attach(dispatcher Dispatcher) {
	for _, eventType := range []EventType{EventTicketCreated, EventTicketUpdated, EventTicketHistoryAdded} {
		dispatcher.Subscribe(eventType, p.handle)
	}
}

func (p *RedisPublisher) handle(ctx context.Context, event Event) error {
	if p.client == nil {
		return nil
	}
	body, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("marshal event", zap.Error(err))
		return err
	}
	if err := p.client.Publish(ctx, p.channel, body).Err(); err != nil {
		p.logger.Warn("publish event to redis",
			zap.String("type", string(event.Type)),
			zap.Error(err),
		)
		return err
	}
	return nil
}
