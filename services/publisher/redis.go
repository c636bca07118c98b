package publisher

import (
	"context"
	"encoding/base64"
	"encoding/json"

	"sjsage522/profitsniper/internal/models"
	sniperrors "sjsage522/profitsniper/pkg/errors"

	"github.com/redis/go-redis/v9"
)

// StreamField is the stream entry field carrying the base64 payload
const StreamField = "b64_listing"

// RedisPublisher appends listings to a Redis stream consumed by the bot
type RedisPublisher struct {
	client          *redis.Client
	stream          string
	streamMaxLength int64
}

// NewRedisPublisherWithClient shares an existing client. Close leaves it open.
func NewRedisPublisherWithClient(client *redis.Client, stream string, streamMaxLength int) *RedisPublisher {
	return &RedisPublisher{
		client:          client,
		stream:          stream,
		streamMaxLength: int64(streamMaxLength),
	}
}

// Publish appends the base64 encoded payload and returns the entry id
func (p *RedisPublisher) Publish(ctx context.Context, l models.Listing) (string, error) {
	body, err := json.Marshal(BuildPayload(l))
	if err != nil {
		return "", sniperrors.NewPublisher("redis", "encode payload", err)
	}

	args := &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]interface{}{
			StreamField: base64.StdEncoding.EncodeToString(body),
		},
	}
	if p.streamMaxLength > 0 {
		args.MaxLen = p.streamMaxLength
		args.Approx = true
	}

	id, err := p.client.XAdd(ctx, args).Result()
	if err != nil {
		return "", sniperrors.NewPublisher("redis", "xadd "+p.stream, err)
	}
	return id, nil
}

// TrimStream trims the stream to exactly the configured maximum length
func (p *RedisPublisher) TrimStream(ctx context.Context) error {
	if p.streamMaxLength <= 0 {
		return nil
	}
	if err := p.client.XTrimMaxLen(ctx, p.stream, p.streamMaxLength).Err(); err != nil {
		return sniperrors.NewPublisher("redis", "trim "+p.stream, err)
	}
	return nil
}

// Close is a no-op; the shared client is closed by its owner
func (p *RedisPublisher) Close() error {
	return nil
}
