package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"carelattice.app/triage/common/logger"
)

type ConsumerConfig struct {
	Stream       string        // Redis stream name
	Group        string        // Redis consumer group name
	Consumer     string        // Redis consumer name
	DLQStream    string        // Dead letter queue stream for undeliverable notifications
	BatchSize    int64         // Number of messages to process per batch
	Block        time.Duration // How long to block/poll for new messages
	MaxAttempts  int           // Maximum delivery attempts before moving to DLQ
	RequeueDelay time.Duration // Delay before retrying failed deliveries
}

// Message is one notification read from the stream, with its raw form kept
// for requeue and DLQ handling.
type Message struct {
	ID    string
	Event Event
	Raw   redis.XMessage
}

type RedisConsumer struct {
	client *redis.Client
	cfg    ConsumerConfig
}

func NewRedisConsumer(client *redis.Client, cfg ConsumerConfig) (*RedisConsumer, error) {
	consumer := &RedisConsumer{
		client: client,
		cfg:    cfg,
	}

	if err := consumer.ensureGroup(context.Background()); err != nil { //nolint:contextcheck
		return nil, err
	}

	return consumer, nil
}

func (c *RedisConsumer) ensureGroup(ctx context.Context) error {
	// Consumer groups are just readers, messages live in the stream itself.
	// Starting from "0" instead of "$" means we don't lose notifications that
	// were enqueued while the relay was down.
	if err := c.client.XGroupCreateMkStream(ctx, c.cfg.Stream, c.cfg.Group, "0").Err(); err != nil && err.Error() != "BUSYGROUP Consumer Group name already exists" {
		return fmt.Errorf("creating consumer group: %w", err)
	}
	return nil
}

func (c *RedisConsumer) Read(ctx context.Context) ([]Message, error) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		Component: "notify.consumer",
	})

	streams, err := c.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    c.cfg.Group,
		Consumer: c.cfg.Consumer,
		// > = new messages not yet delivered to anyone.
		Streams: []string{c.cfg.Stream, ">"},
		Count:   c.cfg.BatchSize,
		Block:   c.cfg.Block,
	}).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []Message{}, nil
		}
		return nil, fmt.Errorf("reading from stream: %w", err)
	}

	var messages []Message
	for _, stream := range streams {
		for _, msg := range stream.Messages {
			parsed, parseErr := ParseMessage(msg)
			if parseErr != nil {
				slog.ErrorContext(ctx, "failed to parse notification",
					"error", parseErr,
					"raw_message_id", msg.ID,
					"stream", c.cfg.Stream)
				// Unparseable messages can never succeed; ack and drop.
				_ = c.Ack(ctx, Message{ID: msg.ID, Raw: msg})
				continue
			}
			messages = append(messages, parsed)
		}
	}

	if len(messages) > 0 {
		slog.DebugContext(ctx, "read notifications from stream",
			"count", len(messages),
			"stream", c.cfg.Stream,
			"consumer", c.cfg.Consumer)
	}

	return messages, nil
}

func (c *RedisConsumer) Ack(ctx context.Context, msg Message) error {
	if err := c.client.XAck(ctx, c.cfg.Stream, c.cfg.Group, msg.ID).Err(); err != nil {
		return fmt.Errorf("xack (stream=%s): %w", c.cfg.Stream, err)
	}

	slog.DebugContext(ctx, "notification acknowledged", "stream", c.cfg.Stream)
	return nil
}

func (c *RedisConsumer) Requeue(ctx context.Context, msg Message, errMsg string) error {
	nextAttempt := msg.Event.Attempt + 1

	if err := c.Ack(ctx, msg); err != nil {
		return fmt.Errorf("acking failed notification for requeue: %w", err)
	}

	values := eventValues(msg.Event, nextAttempt)
	if errMsg != "" {
		values["last_error"] = errMsg
	}

	if c.cfg.RequeueDelay > 0 {
		time.Sleep(c.cfg.RequeueDelay)
	}

	if err := c.client.XAdd(ctx, &redis.XAddArgs{
		Stream: c.cfg.Stream,
		Values: values,
	}).Err(); err != nil {
		return fmt.Errorf("xadd requeue: %w", err)
	}

	slog.InfoContext(ctx, "notification requeued for retry",
		"next_attempt", nextAttempt,
		"reason", errMsg)
	return nil
}

func (c *RedisConsumer) SendDLQ(ctx context.Context, msg Message, errMsg string) error {
	if err := c.Ack(ctx, msg); err != nil {
		return fmt.Errorf("acking failed notification for dlq: %w", err)
	}

	values := eventValues(msg.Event, msg.Event.Attempt)
	values["error"] = errMsg

	if err := c.client.XAdd(ctx, &redis.XAddArgs{
		Stream: c.cfg.DLQStream,
		Values: values,
	}).Err(); err != nil {
		return fmt.Errorf("xadd dlq (stream=%s): %w", c.cfg.DLQStream, err)
	}

	slog.ErrorContext(ctx, "notification sent to DLQ",
		"final_error", errMsg,
		"dlq_stream", c.cfg.DLQStream)
	return nil
}

func ParseMessage(msg redis.XMessage) (Message, error) {
	patientID, err := parseInt64(msg.Values, "patient_id")
	if err != nil {
		return Message{}, err
	}
	caregiverID, err := parseOptionalInt64(msg.Values, "caregiver_id")
	if err != nil {
		return Message{}, err
	}
	updateID, err := parseOptionalInt64(msg.Values, "update_id")
	if err != nil {
		return Message{}, err
	}

	kind := parseOptionalString(msg.Values, "kind")
	if kind == "" {
		return Message{}, fmt.Errorf("missing kind")
	}

	role := parseOptionalString(msg.Values, "role")
	if role == "" {
		return Message{}, fmt.Errorf("missing role")
	}

	switch EventKind(kind) {
	case EventAssignmentCreated:
		if caregiverID == nil {
			return Message{}, fmt.Errorf("missing caregiver_id")
		}
	case EventUpdateSubmitted, EventUpdateDecided:
		if updateID == nil {
			return Message{}, fmt.Errorf("missing update_id")
		}
	default:
		return Message{}, fmt.Errorf("unknown kind %q", kind)
	}

	attempt, err := parseOptionalInt(msg.Values, "attempt")
	if err != nil {
		return Message{}, err
	}
	if attempt == 0 {
		attempt = 1
	}

	var traceID *string
	if raw := parseOptionalString(msg.Values, "trace_id"); raw != "" {
		traceID = &raw
	}

	return Message{
		ID: msg.ID,
		Event: Event{
			Kind:        EventKind(kind),
			Role:        Role(role),
			PatientID:   patientID,
			CaregiverID: caregiverID,
			UpdateID:    updateID,
			Tier:        parseOptionalString(msg.Values, "tier"),
			Status:      parseOptionalString(msg.Values, "status"),
			TraceID:     traceID,
			Attempt:     attempt,
		},
		Raw: msg,
	}, nil
}

func parseInt64(values map[string]any, key string) (int64, error) {
	raw, ok := values[key]
	if !ok {
		return 0, fmt.Errorf("missing %s", key)
	}
	str := fmt.Sprint(raw)
	num, err := strconv.ParseInt(str, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing %s: %w", key, err)
	}
	return num, nil
}

func parseOptionalInt64(values map[string]any, key string) (*int64, error) {
	raw, ok := values[key]
	if !ok {
		return nil, nil
	}
	str := fmt.Sprint(raw)
	num, err := strconv.ParseInt(str, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", key, err)
	}
	return &num, nil
}

func parseOptionalInt(values map[string]any, key string) (int, error) {
	raw, ok := values[key]
	if !ok {
		return 0, nil
	}
	str := fmt.Sprint(raw)
	num, err := strconv.Atoi(str)
	if err != nil {
		return 0, fmt.Errorf("parsing %s: %w", key, err)
	}
	return num, nil
}

func parseOptionalString(values map[string]any, key string) string {
	raw, ok := values[key]
	if !ok {
		return ""
	}
	return fmt.Sprint(raw)
}

func eventValues(event Event, attempt int) map[string]any {
	values := map[string]any{
		"kind":       string(event.Kind),
		"role":       string(event.Role),
		"patient_id": event.PatientID,
		"attempt":    attempt,
	}

	if event.CaregiverID != nil {
		values["caregiver_id"] = *event.CaregiverID
	}
	if event.UpdateID != nil {
		values["update_id"] = *event.UpdateID
	}
	if event.Tier != "" {
		values["tier"] = event.Tier
	}
	if event.Status != "" {
		values["status"] = event.Status
	}
	if event.TraceID != nil && *event.TraceID != "" {
		values["trace_id"] = *event.TraceID
	}

	return values
}
