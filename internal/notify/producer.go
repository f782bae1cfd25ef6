package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

type Producer interface {
	Enqueue(ctx context.Context, event Event) error
	Close() error
}

type redisProducer struct {
	client *redis.Client
	stream string
	logger *slog.Logger
}

func NewRedisProducer(client *redis.Client, stream string, logger *slog.Logger) Producer {
	if logger == nil {
		logger = slog.Default()
	}
	return &redisProducer{
		client: client,
		stream: stream,
		logger: logger,
	}
}

func (p *redisProducer) Enqueue(ctx context.Context, event Event) error {
	attempt := event.Attempt
	if attempt <= 0 {
		attempt = 1
	}

	fields := map[string]any{
		"kind":       string(event.Kind),
		"role":       string(event.Role),
		"patient_id": event.PatientID,
		"attempt":    attempt,
	}

	if event.CaregiverID != nil {
		fields["caregiver_id"] = *event.CaregiverID
	}
	if event.UpdateID != nil {
		fields["update_id"] = *event.UpdateID
	}
	if event.Tier != "" {
		fields["tier"] = event.Tier
	}
	if event.Status != "" {
		fields["status"] = event.Status
	}
	if event.TraceID != nil && *event.TraceID != "" {
		fields["trace_id"] = *event.TraceID
	}

	if err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: fields,
	}).Err(); err != nil {
		return fmt.Errorf("enqueue notification: %w", err)
	}

	p.logger.InfoContext(ctx, "enqueued notification", "kind", event.Kind, "role", event.Role, "patient_id", event.PatientID, "attempt", attempt)
	return nil
}

func (p *redisProducer) Close() error {
	return p.client.Close()
}
