package queue

import (
	"context"
	"time"

	"sjsage522/profitsniper/internal/models"
	"sjsage522/profitsniper/logger"
)

// Backend stores queued items ordered by priority descending, then by
// insertion sequence ascending
type Backend interface {
	// Push stores an item. The backend assigns its sequence number.
	Push(ctx context.Context, item models.QueuedItem) error

	// Pop removes and returns the first item, nil when empty
	Pop(ctx context.Context) (*models.QueuedItem, error)

	Len(ctx context.Context) (int, error)
	Clear(ctx context.Context) error

	// TrimTo drops the lowest-ordered items beyond capacity and returns how many were dropped
	TrimTo(ctx context.Context, capacity int) (int, error)
}

// Queue is a bounded priority queue of listings awaiting delivery
type Queue struct {
	backend  Backend
	capacity int
	log      *logger.Logger
	now      func() time.Time
}

// New creates a queue over backend holding at most capacity items
func New(backend Backend, capacity int) *Queue {
	if capacity <= 0 {
		capacity = 1000
	}
	return &Queue{
		backend:  backend,
		capacity: capacity,
		log:      logger.ForQueue(),
		now:      time.Now,
	}
}

// Clamp bounds a priority to [0, 1]
func Clamp(p float64) float64 {
	switch {
	case p != p || p < 0:
		return 0
	case p > 1:
		return 1
	default:
		return p
	}
}

// Enqueue adds a listing. On overflow the lowest-priority items are dropped.
func (q *Queue) Enqueue(ctx context.Context, l models.Listing, priority float64) error {
	return q.push(ctx, models.QueuedItem{
		Listing:    l,
		Priority:   Clamp(priority),
		EnqueuedAt: q.now(),
	})
}

// Requeue puts a previously dequeued item back with its attempt count
func (q *Queue) Requeue(ctx context.Context, item models.QueuedItem) error {
	item.Priority = Clamp(item.Priority)
	item.EnqueuedAt = q.now()
	return q.push(ctx, item)
}

func (q *Queue) push(ctx context.Context, item models.QueuedItem) error {
	if err := q.backend.Push(ctx, item); err != nil {
		return err
	}
	dropped, err := q.backend.TrimTo(ctx, q.capacity)
	if err != nil {
		return err
	}
	if dropped > 0 {
		q.log.Warn().
			Int("dropped", dropped).
			Int("capacity", q.capacity).
			Msg("Queue over capacity, dropped lowest priority items")
	}
	return nil
}

// Dequeue returns the highest-priority item, nil when the queue is empty
func (q *Queue) Dequeue(ctx context.Context) (*models.QueuedItem, error) {
	return q.backend.Pop(ctx)
}

// Size returns the number of queued items
func (q *Queue) Size(ctx context.Context) (int, error) {
	return q.backend.Len(ctx)
}

// Clear removes every queued item
func (q *Queue) Clear(ctx context.Context) error {
	return q.backend.Clear(ctx)
}
