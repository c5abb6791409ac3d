package eventbus

import (
	"context"

	"github.com/smilemakc/outreachctl/internal/infrastructure/logger"
)

// LoggerSubscriber writes every event to the structured logger. Mirrors the
// teacher's always-on logger observer.
type LoggerSubscriber struct {
	logger *logger.Logger
	filter Filter
}

// NewLoggerSubscriber creates a LoggerSubscriber.
func NewLoggerSubscriber(l *logger.Logger) *LoggerSubscriber {
	return &LoggerSubscriber{logger: l}
}

func (s *LoggerSubscriber) Name() string { return "logger" }
func (s *LoggerSubscriber) Filter() Filter { return s.filter }

func (s *LoggerSubscriber) OnEvent(ctx context.Context, event Event) error {
	s.logger.InfoContext(ctx, "event published",
		"type", string(event.Type),
		"topic", event.Topic,
		"tenant_id", event.TenantID,
	)
	return nil
}
