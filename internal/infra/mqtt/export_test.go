package mqtt

import (
	"log/slog"

	"voice-home/internal/infra"
)

func NewPublisherWithClient(client publishClient, cfg Config, logger *slog.Logger) *Publisher {
	p := newPublisher(client, cfg, logger)
	p.retry = infra.RetryConfig{MaxAttempts: 2, Multiplier: 1}
	return p
}
