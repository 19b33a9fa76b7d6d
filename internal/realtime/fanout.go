package realtime

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// FanoutChannel is the Redis channel shared by every realtime instance
const FanoutChannel = "collab:rooms"

// FanoutMessage is a room broadcast relayed between instances
type FanoutMessage struct {
	Origin  string          `json:"origin"`
	Room    string          `json:"room"`
	Except  uuid.UUID       `json:"except"`
	Payload json.RawMessage `json:"payload"`
}

// Fanout relays broadcasts to the other instances of the service
type Fanout interface {
	Publish(ctx context.Context, msg FanoutMessage) error
	// Subscribe blocks until ctx is done
	Subscribe(ctx context.Context, deliver func(FanoutMessage)) error
}

type RedisFanout struct {
	client  *redis.Client
	channel string
	logger  *zap.Logger
}

func NewRedisFanout(client *redis.Client, logger *zap.Logger) *RedisFanout {
	return &RedisFanout{client: client, channel: FanoutChannel, logger: logger}
}

func (f *RedisFanout) Publish(ctx context.Context, msg FanoutMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	if err := f.client.Publish(ctx, f.channel, body).Err(); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", f.channel, err)
	}
	return nil
}

func (f *RedisFanout) Subscribe(ctx context.Context, deliver func(FanoutMessage)) error {
	pubsub := f.client.Subscribe(ctx, f.channel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", f.channel, err)
	}
	f.logger.Info("Subscribed to fanout channel", zap.String("channel", f.channel))

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case m, ok := <-ch:
			if !ok {
				return nil
			}
			var msg FanoutMessage
			if err := json.Unmarshal([]byte(m.Payload), &msg); err != nil {
				f.logger.Warn("Failed to parse fanout message", zap.Error(err))
				continue
			}
			deliver(msg)
		}
	}
}
