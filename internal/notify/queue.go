package notify

import (
	"context"
	"sync"
	"time"

	"service-dispatch/internal/logx"
)

// QueueConfig configures the delivery queue.
type QueueConfig struct {
	Workers     int
	Size        int
	SendTimeout time.Duration
}

// QueueStats are optional delivery counters.
type QueueStats struct {
	Enqueued counter
	Dropped  counter
	Sent     counter
	Failed   counter
}

// Queue decouples notification delivery from dispatch state transitions.
// Enqueue never blocks; a full or closed queue drops the message.
type Queue struct {
	ch     chan Message
	sender Sender
	logger logx.Logger
	stats  QueueStats
	cfg    QueueConfig

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// NewQueue creates a new Queue. Call Start to run the workers.
func NewQueue(sender Sender, cfg QueueConfig, logger logx.Logger, stats QueueStats) *Queue {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.Size <= 0 {
		cfg.Size = 1
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = 5 * time.Second
	}
	if logger == nil {
		logger = logx.Nop()
	}
	return &Queue{
		ch:     make(chan Message, cfg.Size),
		sender: sender,
		logger: logger,
		stats:  stats,
		cfg:    cfg,
	}
}

// Start launches the workers. They exit after Close once the queue is drained.
func (q *Queue) Start(ctx context.Context) {
	for i := 0; i < q.cfg.Workers; i++ {
		q.wg.Add(1)
		go func() {
			defer q.wg.Done()
			for msg := range q.ch {
				q.deliver(ctx, msg)
			}
		}()
	}
}

// Enqueue schedules msg for delivery and reports whether it was accepted.
func (q *Queue) Enqueue(msg Message) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		q.drop(msg, "closed")
		return false
	}
	select {
	case q.ch <- msg:
		inc(q.stats.Enqueued)
		return true
	default:
		q.drop(msg, "full")
		return false
	}
}

// Close stops accepting messages and waits for in-flight deliveries.
func (q *Queue) Close() {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.ch)
	}
	q.mu.Unlock()
	q.wg.Wait()
}

func (q *Queue) deliver(ctx context.Context, msg Message) {
	sendCtx, cancel := context.WithTimeout(ctx, q.cfg.SendTimeout)
	defer cancel()
	if err := q.sender.Send(sendCtx, msg); err != nil {
		inc(q.stats.Failed)
		q.logger.Warn("notification failed",
			logx.String("notification_id", msg.ID),
			logx.String("courier_id", string(msg.CourierID)),
			logx.String("type", msg.Data["type"]),
			logx.Err(err),
		)
		return
	}
	inc(q.stats.Sent)
}

func (q *Queue) drop(msg Message, reason string) {
	inc(q.stats.Dropped)
	q.logger.Warn("notification dropped",
		logx.String("notification_id", msg.ID),
		logx.String("courier_id", string(msg.CourierID)),
		logx.String("reason", reason),
	)
}
