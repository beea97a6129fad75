package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/phenrril/rodada/internal/domain"
)

const DefaultChannel = "rodada:changes"

// RedisFeed shares changes between replicas over a pub/sub channel.
type RedisFeed struct {
	client  *redis.Client
	channel string
}

func NewRedisFeed(client *redis.Client, channel string) *RedisFeed {
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisFeed{client: client, channel: channel}
}

// DialRedis parses a redis:// URL and checks the connection.
func DialRedis(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}

func (f *RedisFeed) Publish(ctx context.Context, c domain.Change) error {
	b, err := json.Marshal(c)
	if err != nil {
		return err
	}
	return f.client.Publish(ctx, f.channel, b).Err()
}

func (f *RedisFeed) Subscribe(ctx context.Context) (<-chan domain.Change, error) {
	ps := f.client.Subscribe(ctx, f.channel)
	// Receive blocks until the subscription is confirmed so no publish made
	// after Subscribe returns is missed.
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("redis subscribe: %w", err)
	}

	out := make(chan domain.Change, subscriberBuffer)
	msgs := ps.Channel()
	go func() {
		defer close(out)
		defer ps.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case m, ok := <-msgs:
				if !ok {
					return
				}
				var c domain.Change
				if err := json.Unmarshal([]byte(m.Payload), &c); err != nil {
					log.Warn().Err(err).Str("channel", f.channel).Msg("notify: invalid payload")
					continue
				}
				select {
				case out <- c:
				default:
				}
			}
		}
	}()
	return out, nil
}
