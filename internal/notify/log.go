package notify

import (
	"context"
	"encoding/json"
	"log/slog"
)

// LogPublisher logs events instead of sending them. It stands in when no
// broker is configured.
type LogPublisher struct {
	Logger *slog.Logger
}

func (p LogPublisher) Publish(_ context.Context, routingKey string, event any) error {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}
	logger.Info("event not sent, no broker configured", "routing_key", routingKey, "body", string(body))
	return nil
}

func (LogPublisher) Close() error { return nil }
