package queue

import (
	"context"
	"encoding/json"
	"math"

	"sjsage522/profitsniper/internal/models"
	sniperrors "sjsage522/profitsniper/pkg/errors"

	"github.com/redis/go-redis/v9"
)

const (
	priorityScale = 1e6
	seqSpan       = 1e9
)

// RedisBackend keeps the queue in a sorted set shared by every process using the same key
type RedisBackend struct {
	client *redis.Client
	key    string
	seqKey string
}

// NewRedisBackend creates a backend on an existing client
func NewRedisBackend(client *redis.Client, key string) *RedisBackend {
	return &RedisBackend{
		client: client,
		key:    key,
		seqKey: key + ":seq",
	}
}

// Score orders by priority (6 decimal places), then by sequence so that
// equal priorities pop oldest first. Sequences wrap every 1e9 pushes.
func Score(priority float64, seq int64) float64 {
	return math.Round(Clamp(priority)*priorityScale)*seqSpan - float64(seq%int64(seqSpan))
}

func (r *RedisBackend) Push(ctx context.Context, item models.QueuedItem) error {
	seq, err := r.client.Incr(ctx, r.seqKey).Result()
	if err != nil {
		return sniperrors.NewPersistence("queue", "next sequence", err)
	}
	item.Seq = seq

	member, err := json.Marshal(item)
	if err != nil {
		return sniperrors.NewPersistence("queue", "encode item", err)
	}
	if err := r.client.ZAdd(ctx, r.key, redis.Z{Score: Score(item.Priority, seq), Member: member}).Err(); err != nil {
		return sniperrors.NewPersistence("queue", "push", err)
	}
	return nil
}

func (r *RedisBackend) Pop(ctx context.Context) (*models.QueuedItem, error) {
	res, err := r.client.ZPopMax(ctx, r.key, 1).Result()
	if err != nil {
		return nil, sniperrors.NewPersistence("queue", "pop", err)
	}
	if len(res) == 0 {
		return nil, nil
	}

	raw, ok := res[0].Member.(string)
	if !ok {
		return nil, sniperrors.NewPersistence("queue", "unexpected member type", nil)
	}
	var item models.QueuedItem
	if err := json.Unmarshal([]byte(raw), &item); err != nil {
		return nil, sniperrors.NewPersistence("queue", "decode item", err)
	}
	return &item, nil
}

func (r *RedisBackend) Len(ctx context.Context) (int, error) {
	n, err := r.client.ZCard(ctx, r.key).Result()
	if err != nil {
		return 0, sniperrors.NewPersistence("queue", "len", err)
	}
	return int(n), nil
}

func (r *RedisBackend) Clear(ctx context.Context) error {
	if err := r.client.Del(ctx, r.key).Err(); err != nil {
		return sniperrors.NewPersistence("queue", "clear", err)
	}
	return nil
}

func (r *RedisBackend) TrimTo(ctx context.Context, capacity int) (int, error) {
	n, err := r.client.ZCard(ctx, r.key).Result()
	if err != nil {
		return 0, sniperrors.NewPersistence("queue", "len", err)
	}
	over := n - int64(capacity)
	if over <= 0 {
		return 0, nil
	}
	removed, err := r.client.ZRemRangeByRank(ctx, r.key, 0, over-1).Result()
	if err != nil {
		return 0, sniperrors.NewPersistence("queue", "trim", err)
	}
	return int(removed), nil
}
