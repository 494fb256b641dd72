package alert

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"examslot-watcher/internal/observability"
)

// StreamClient: часть redis клиента, нужная для публикации (для тестов)
type StreamClient interface {
	XAdd(ctx context.Context, args *redis.XAddArgs) *redis.StringCmd
	Close() error
}

type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Stream   string
	MaxLen   int64
}

// RedisNotifier пишет событие в redis stream
type RedisNotifier struct {
	client StreamClient
	stream string
	maxLen int64
	logger *observability.Logger
}

func NewRedisNotifier(opts RedisOptions, logger *observability.Logger) *RedisNotifier {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	return newRedisNotifier(client, opts.Stream, opts.MaxLen, logger)
}

func newRedisNotifier(client StreamClient, stream string, maxLen int64, logger *observability.Logger) *RedisNotifier {
	return &RedisNotifier{
		client: client,
		stream: stream,
		maxLen: maxLen,
		logger: logger.With("component", "redis"),
	}
}

func (n *RedisNotifier) Notify(ctx context.Context, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	args := &redis.XAddArgs{
		Stream: n.stream,
		MaxLen: n.maxLen,
		Approx: n.maxLen > 0,
		Values: map[string]interface{}{
			"data":      string(data),
			"type":      "slots_found",
			"run_id":    event.RunID,
			"timestamp": fmt.Sprintf("%d", event.FoundAt.UnixNano()),
		},
	}

	id, err := n.client.XAdd(ctx, args).Result()
	if err != nil {
		return fmt.Errorf("failed to publish to redis: %w", err)
	}

	n.logger.Info("Event published", "stream", n.stream, "id", id)
	return nil
}

func (n *RedisNotifier) Close() error {
	return n.client.Close()
}
