package worker

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"sjsage522/profitsniper/helpers"
	"sjsage522/profitsniper/internal/models"
	"sjsage522/profitsniper/logger"
	"sjsage522/profitsniper/services/publisher"
	"sjsage522/profitsniper/services/queue"
	"sjsage522/profitsniper/services/store"
)

// requeuePenalty lowers the priority of a failed delivery
const requeuePenalty = 0.1

// streamTrimmer is a publisher whose sink grows and needs trimming
type streamTrimmer interface {
	TrimStream(ctx context.Context) error
}

// Dispatcher drains the queue into the publisher
type Dispatcher struct {
	queue       *queue.Queue
	publisher   publisher.Publisher
	store       store.Store
	events      helpers.LoggerInterface
	interval    time.Duration
	maxAttempts int
	log         *logger.Logger

	delivered atomic.Int64
	dropped   atomic.Int64
}

// NewDispatcher creates a dispatcher. events may be nil.
func NewDispatcher(q *queue.Queue, pub publisher.Publisher, st store.Store, events helpers.LoggerInterface, interval time.Duration, maxAttempts int) *Dispatcher {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	return &Dispatcher{
		queue:       q,
		publisher:   pub,
		store:       st,
		events:      events,
		interval:    interval,
		maxAttempts: maxAttempts,
		log:         logger.ForPublisher(),
	}
}

// Delivered returns the number of successful deliveries
func (d *Dispatcher) Delivered() int64 { return d.delivered.Load() }

// Dropped returns the number of items given up after the last attempt
func (d *Dispatcher) Dropped() int64 { return d.dropped.Load() }

// Run drains the queue every interval until ctx is cancelled
func (d *Dispatcher) Run(ctx context.Context) {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.Drain(ctx)
		}
	}
}

// Drain delivers the items queued when it starts. Failed items are requeued
// afterwards, so each is attempted at most once per call.
func (d *Dispatcher) Drain(ctx context.Context) int {
	size, err := d.queue.Size(ctx)
	if err != nil {
		d.log.Warn().Err(err).Msg("Failed to read queue size")
		return 0
	}

	sent := 0
	var retry []models.QueuedItem
	for i := 0; i < size && ctx.Err() == nil; i++ {
		item, err := d.queue.Dequeue(ctx)
		if err != nil {
			d.log.Warn().Err(err).Msg("Failed to dequeue")
			break
		}
		if item == nil {
			break
		}
		if d.deliver(ctx, item) {
			sent++
			continue
		}
		item.Attempts++
		if item.Attempts >= d.maxAttempts {
			d.dropped.Add(1)
			d.report(fmt.Errorf("giving up on %s after %d attempts", item.Listing.ID, item.Attempts))
			continue
		}
		item.Priority = queue.Clamp(item.Priority - requeuePenalty)
		retry = append(retry, *item)
	}

	for _, item := range retry {
		if err := d.queue.Requeue(ctx, item); err != nil {
			d.report(fmt.Errorf("requeue %s: %w", item.Listing.ID, err))
		}
	}

	if trimmer, ok := d.publisher.(streamTrimmer); ok && sent > 0 {
		if err := trimmer.TrimStream(ctx); err != nil {
			d.report(fmt.Errorf("trim stream: %w", err))
		}
	}
	return sent
}

func (d *Dispatcher) deliver(ctx context.Context, item *models.QueuedItem) bool {
	l := item.Listing
	ref, err := d.publisher.Publish(ctx, l)
	if err != nil {
		d.log.Warn().
			Err(err).
			Str("auction_id", l.ID).
			Int("attempt", item.Attempts+1).
			Msg("Delivery failed")
		return false
	}

	d.delivered.Add(1)
	if ref != "" {
		if err := d.store.SetMessageRef(ctx, l.ID, ref); err != nil {
			d.log.Warn().Err(err).Str("auction_id", l.ID).Msg("Failed to record message reference")
		}
	}
	d.log.Info().
		Str("auction_id", l.ID).
		Str("brand", l.Brand).
		Float64("roi", l.Profit.ROIPercent).
		Msg("Delivered listing")
	return true
}

func (d *Dispatcher) report(err error) {
	if d.events != nil {
		d.events.LogError("dispatcher", err)
		return
	}
	d.log.Error().Err(err).Msg("error")
}
