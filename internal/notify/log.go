package notify

import (
	"context"

	"service-dispatch/internal/logx"
)

// LogSender writes notifications to the log instead of delivering them.
type LogSender struct {
	logger logx.Logger
}

// NewLogSender creates a new LogSender.
func NewLogSender(logger logx.Logger) *LogSender {
	return &LogSender{logger: logger}
}

// Send logs msg.
func (s *LogSender) Send(_ context.Context, msg Message) error {
	s.logger.Info("notification",
		logx.String("notification_id", msg.ID),
		logx.String("courier_id", string(msg.CourierID)),
		logx.String("push_id", msg.PushID),
		logx.String("title", msg.Title),
		logx.Any("data", msg.Data),
	)
	return nil
}
