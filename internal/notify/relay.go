package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/trace"

	"carelattice.app/triage/common/logger"
)

// Deliverer forwards one notification to the notification subsystem.
type Deliverer interface {
	Deliver(ctx context.Context, event Event) error
}

type WebhookDeliverer struct {
	client     *http.Client
	webhookURL string
}

func NewWebhookDeliverer(webhookURL string, timeout time.Duration) *WebhookDeliverer {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &WebhookDeliverer{
		client:     &http.Client{Timeout: timeout},
		webhookURL: webhookURL,
	}
}

func (d *WebhookDeliverer) Deliver(ctx context.Context, event Event) error {
	payload := struct {
		Kind        EventKind `json:"kind"`
		Role        Role      `json:"role"`
		PatientID   int64     `json:"patient_id"`
		CaregiverID *int64    `json:"caregiver_id,omitempty"`
		UpdateID    *int64    `json:"update_id,omitempty"`
		Tier        string    `json:"tier,omitempty"`
		Status      string    `json:"status,omitempty"`
	}{
		Kind:        event.Kind,
		Role:        event.Role,
		PatientID:   event.PatientID,
		CaregiverID: event.CaregiverID,
		UpdateID:    event.UpdateID,
		Tier:        event.Tier,
		Status:      event.Status,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling notification payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("posting notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("webhook responded %d", resp.StatusCode)
	}

	return nil
}

type RelayConfig struct {
	MaxAttempts int
}

// Relay drains the notification stream and forwards each event to the
// configured webhook, with bounded retry and a dead-letter stream.
type Relay struct {
	consumer  *RedisConsumer
	deliverer Deliverer
	cfg       RelayConfig

	stopCh    chan struct{}
	stoppedCh chan struct{}
}

func NewRelay(consumer *RedisConsumer, deliverer Deliverer, cfg RelayConfig) *Relay {
	return &Relay{
		consumer:  consumer,
		deliverer: deliverer,
		cfg:       cfg,
		stopCh:    make(chan struct{}),
		stoppedCh: make(chan struct{}),
	}
}

func (r *Relay) Run(ctx context.Context) error {
	defer close(r.stoppedCh)

	ctx = logger.WithLogFields(ctx, logger.LogFields{Component: "notify.relay"})
	slog.InfoContext(ctx, "notification relay started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-r.stopCh:
			slog.InfoContext(ctx, "notification relay stopping")
			return nil
		default:
			if err := r.processOneBatch(ctx); err != nil {
				slog.ErrorContext(ctx, "batch processing error", "error", err)
				// Brief backoff on error
				time.Sleep(time.Second)
			}
		}
	}
}

func (r *Relay) Stop() {
	close(r.stopCh)
	<-r.stoppedCh
}

func (r *Relay) processOneBatch(ctx context.Context) error {
	messages, err := r.consumer.Read(ctx)
	if err != nil {
		return fmt.Errorf("reading from stream: %w", err)
	}

	for _, msg := range messages {
		if err := r.deliverSafe(ctx, msg); err != nil {
			slog.ErrorContext(ctx, "notification delivery failed",
				"error", err,
				"message_id", msg.ID,
				"kind", msg.Event.Kind,
				"patient_id", msg.Event.PatientID)
			r.handleFailedMessage(ctx, msg, err)
			continue
		}

		if err := r.consumer.Ack(ctx, msg); err != nil {
			// The message will be redelivered; delivery is at-least-once.
			slog.WarnContext(ctx, "failed to ACK notification",
				"error", err,
				"message_id", msg.ID)
		}
	}

	return nil
}

func (r *Relay) deliverSafe(ctx context.Context, msg Message) (err error) {
	// Events carry the trace id of the request that produced them; the
	// delivery span links back to it across the stream boundary.
	traceID := ""
	if msg.Event.TraceID != nil {
		traceID = *msg.Event.TraceID
	}
	sc := logger.StartSpanFromTraceID(ctx, traceID, "notify.deliver",
		trace.WithSpanKind(trace.SpanKindConsumer))
	defer sc.End()
	ctx = sc.Context()

	defer func() {
		if rec := recover(); rec != nil {
			slog.ErrorContext(ctx, "panic recovered in notification delivery",
				"panic", rec,
				"message_id", msg.ID)
			err = fmt.Errorf("panic: %v", rec)
			sc.RecordError(err)
		}
	}()

	slog.InfoContext(ctx, "delivering notification",
		"message_id", msg.ID,
		"kind", msg.Event.Kind,
		"role", msg.Event.Role,
		"patient_id", msg.Event.PatientID,
		"attempt", msg.Event.Attempt)

	if deliverErr := r.deliverer.Deliver(ctx, msg.Event); deliverErr != nil {
		sc.RecordError(deliverErr)
		return deliverErr
	}
	return nil
}

func (r *Relay) handleFailedMessage(ctx context.Context, msg Message, err error) {
	if msg.Event.Attempt >= r.cfg.MaxAttempts {
		slog.ErrorContext(ctx, "max attempts reached, sending to DLQ",
			"message_id", msg.ID,
			"kind", msg.Event.Kind,
			"attempts", msg.Event.Attempt)
		if dlqErr := r.consumer.SendDLQ(ctx, msg, err.Error()); dlqErr != nil {
			slog.ErrorContext(ctx, "failed to send to DLQ", "error", dlqErr)
		}
		return
	}

	slog.WarnContext(ctx, "requeuing failed notification",
		"message_id", msg.ID,
		"kind", msg.Event.Kind,
		"attempt", msg.Event.Attempt)
	if requeueErr := r.consumer.Requeue(ctx, msg, err.Error()); requeueErr != nil {
		slog.ErrorContext(ctx, "failed to requeue notification", "error", requeueErr)
	}
}
