package notify

import (
	"context"
	"errors"
	"time"

	"service-dispatch/internal/logx"
)

// RetryConfig описывает поведение RetryingSender
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// RetryingSender повторяет доставку с экспоненциальной задержкой
type RetryingSender struct {
	next    Sender
	logger  logx.Logger
	retries counter
	cfg     RetryConfig
	wait    func(ctx context.Context, d time.Duration) bool
}

// NewRetryingSender проверяет, что next не nil и возвращает RetryingSender
func NewRetryingSender(next Sender, logger logx.Logger, retries counter, cfg RetryConfig) *RetryingSender {
	if next == nil {
		return nil
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	return &RetryingSender{next: next, logger: logger, retries: retries, cfg: cfg, wait: sleepWithContext}
}

// Send delivers msg, retrying transient failures.
func (s *RetryingSender) Send(ctx context.Context, msg Message) error {
	var lastErr error
	for attempt := 1; attempt <= s.cfg.MaxAttempts; attempt++ {
		err := s.next.Send(ctx, msg)
		if err == nil {
			return nil
		}
		lastErr = err
		// проверяем условия повтора
		if ctx.Err() != nil || attempt == s.cfg.MaxAttempts || !isRetryable(err) {
			break
		}
		delay := backoff(s.cfg.BaseDelay, s.cfg.MaxDelay, attempt)
		inc(s.retries)
		s.logger.Warn("notification retry",
			logx.String("notification_id", msg.ID),
			logx.Int("attempt", attempt),
			logx.Duration("delay", delay),
			logx.Err(err),
		)
		if !s.wait(ctx, delay) {
			break
		}
	}
	return lastErr
}

func isRetryable(err error) bool {
	return !errors.Is(err, ErrUndeliverable) &&
		!errors.Is(err, context.Canceled) &&
		!errors.Is(err, context.DeadlineExceeded)
}

// backoff вычисляет задержку повтора
func backoff(base, max time.Duration, attempt int) time.Duration {
	d := base << (attempt - 1)
	if max > 0 && d > max {
		return max
	}
	return d
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
