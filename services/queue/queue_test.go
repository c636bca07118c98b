package queue

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"sjsage522/profitsniper/internal/models"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func item(id string) models.Listing {
	return models.Listing{ID: id, Title: "t " + id, PriceOrigin: 1000}
}

// backends returns every backend available in this environment
func backends(t *testing.T) map[string]Backend {
	out := map[string]Backend{
		"memory": NewFileBackend(""),
		"file":   NewFileBackend(filepath.Join(t.TempDir(), "queue.json")),
	}

	ctx := context.Background()
	client := redis.NewClient(&redis.Options{Addr: "localhost:6379", DB: 0})
	if err := client.Ping(ctx).Err(); err == nil {
		key := fmt.Sprintf("test_queue:%s", t.Name())
		client.Del(ctx, key, key+":seq")
		t.Cleanup(func() {
			client.Del(ctx, key, key+":seq")
			client.Close()
		})
		out["redis"] = NewRedisBackend(client, key)
	} else {
		client.Close()
	}
	return out
}

func TestPriorityOrder(t *testing.T) {
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			q := New(b, 10)
			require.NoError(t, q.Enqueue(ctx, item("a"), 0.2))
			require.NoError(t, q.Enqueue(ctx, item("b"), 0.9))
			require.NoError(t, q.Enqueue(ctx, item("c"), 0.5))

			var got []float64
			for i := 0; i < 3; i++ {
				it, err := q.Dequeue(ctx)
				require.NoError(t, err)
				require.NotNil(t, it)
				got = append(got, it.Priority)
			}
			assert.Equal(t, []float64{0.9, 0.5, 0.2}, got)

			empty, err := q.Dequeue(ctx)
			assert.NoError(t, err)
			assert.Nil(t, empty)
		})
	}
}

func TestEqualPriorityIsFIFO(t *testing.T) {
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			q := New(b, 10)
			for _, id := range []string{"first", "second", "third"} {
				require.NoError(t, q.Enqueue(ctx, item(id), 0.5))
			}
			for _, want := range []string{"first", "second", "third"} {
				it, err := q.Dequeue(ctx)
				require.NoError(t, err)
				assert.Equal(t, want, it.Listing.ID)
			}
		})
	}
}

func TestOverflowDropsLowestPriority(t *testing.T) {
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			q := New(b, 2)
			require.NoError(t, q.Enqueue(ctx, item("low"), 0.1))
			require.NoError(t, q.Enqueue(ctx, item("mid"), 0.5))
			require.NoError(t, q.Enqueue(ctx, item("top"), 0.95))

			size, err := q.Size(ctx)
			require.NoError(t, err)
			assert.Equal(t, 2, size)

			it, _ := q.Dequeue(ctx)
			assert.Equal(t, "top", it.Listing.ID)
			it, _ = q.Dequeue(ctx)
			assert.Equal(t, "mid", it.Listing.ID)
		})
	}
}

func TestClampAndClear(t *testing.T) {
	ctx := context.Background()
	q := New(NewFileBackend(""), 5)
	require.NoError(t, q.Enqueue(ctx, item("hi"), 7))
	require.NoError(t, q.Enqueue(ctx, item("neg"), -1))

	it, _ := q.Dequeue(ctx)
	assert.Equal(t, 1.0, it.Priority)
	it, _ = q.Dequeue(ctx)
	assert.Equal(t, 0.0, it.Priority)

	require.NoError(t, q.Enqueue(ctx, item("x"), 0.3))
	require.NoError(t, q.Clear(ctx))
	size, _ := q.Size(ctx)
	assert.Zero(t, size)
}

func TestFileBackendSurvivesRestart(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "queue.json")

	q := New(NewFileBackend(path), 5)
	require.NoError(t, q.Enqueue(ctx, item("a"), 0.4))
	require.NoError(t, q.Enqueue(ctx, item("b"), 0.8))

	restarted := New(NewFileBackend(path), 5)
	require.NoError(t, restarted.Enqueue(ctx, item("c"), 0.4))

	for _, want := range []string{"b", "a", "c"} {
		it, err := restarted.Dequeue(ctx)
		require.NoError(t, err)
		assert.Equal(t, want, it.Listing.ID)
	}
}

func TestRequeueKeepsAttempts(t *testing.T) {
	ctx := context.Background()
	q := New(NewFileBackend(""), 5)
	require.NoError(t, q.Requeue(ctx, models.QueuedItem{Listing: item("r"), Priority: 0.3, Attempts: 2}))
	it, _ := q.Dequeue(ctx)
	assert.Equal(t, 2, it.Attempts)
	assert.False(t, it.EnqueuedAt.IsZero())
}

func TestScore(t *testing.T) {
	assert.Greater(t, Score(0.5, 2_000_000), Score(0.2, 1))
	assert.Greater(t, Score(0.5, 1), Score(0.5, 2))
}
