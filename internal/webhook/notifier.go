package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/saturnino-fabrica-de-software/veriface/internal/audit"
)

var ErrQueueFull = errors.New("webhook queue full")

// Notifier forwards selected audit events to an HTTP receiver. Log never
// blocks the request path: events are queued and delivered by Run.
type Notifier struct {
	cfg     Config
	events  map[audit.EventType]bool
	client  *http.Client
	queue   chan delivery
	logger  *slog.Logger
	backoff func(attempt int) time.Duration
	now     func() time.Time
}

func NewNotifier(cfg Config, logger *slog.Logger) *Notifier {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 5
	}
	if cfg.QueueSize < 1 {
		cfg.QueueSize = 256
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	events := make(map[audit.EventType]bool, len(cfg.Events))
	for _, e := range cfg.Events {
		events[e] = true
	}

	return &Notifier{
		cfg:    cfg,
		events: events,
		client: &http.Client{Timeout: cfg.Timeout},
		queue:  make(chan delivery, cfg.QueueSize),
		logger: logger.With("component", "webhook"),
		backoff: func(attempt int) time.Duration {
			return time.Duration(1<<attempt) * time.Second
		},
		now: time.Now,
	}
}

// Subscribed reports whether events of this type are forwarded. An empty
// event list forwards everything.
func (n *Notifier) Subscribed(t audit.EventType) bool {
	return len(n.events) == 0 || n.events[t]
}

// Log implements audit.Logger.
func (n *Notifier) Log(ctx context.Context, event audit.Event) error {
	if !n.Subscribed(event.EventType) {
		return nil
	}
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = n.now().UTC()
	}

	d := delivery{payload: Payload{
		DeliveryID: uuid.New(),
		Type:       string(event.EventType),
		Timestamp:  event.Timestamp,
		Data:       event,
	}}

	select {
	case n.queue <- d:
		return nil
	default:
		n.logger.WarnContext(ctx, "webhook queue full, dropping event",
			"event_type", event.EventType,
			"event_id", event.ID,
		)
		return ErrQueueFull
	}
}

// Run delivers queued events until ctx is cancelled. Deliveries are
// sequential so the receiver sees events in the order they were logged.
func (n *Notifier) Run(ctx context.Context) {
	n.logger.Info("webhook notifier started", "url", n.cfg.URL)

	for {
		select {
		case <-ctx.Done():
			n.logger.Info("webhook notifier stopped", "pending", len(n.queue))
			return
		case d := <-n.queue:
			n.deliver(ctx, d)
		}
	}
}

func (n *Notifier) deliver(ctx context.Context, d delivery) {
	for {
		err := n.send(ctx, d.payload)
		if err == nil {
			n.logger.Debug("webhook delivered",
				"delivery_id", d.payload.DeliveryID,
				"event_type", d.payload.Type,
				"attempts", d.attempts+1,
			)
			return
		}

		d.attempts++
		if d.attempts >= n.cfg.MaxAttempts {
			n.logger.Error("webhook delivery failed",
				"delivery_id", d.payload.DeliveryID,
				"event_type", d.payload.Type,
				"attempts", d.attempts,
				"error", err,
			)
			return
		}

		delay := n.backoff(d.attempts - 1)
		n.logger.Info("webhook delivery scheduled for retry",
			"delivery_id", d.payload.DeliveryID,
			"attempts", d.attempts,
			"delay", delay,
			"error", err,
		)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

func (n *Notifier) send(ctx context.Context, p Payload) error {
	body, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	ts := n.now().Unix()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set(HeaderEvent, p.Type)
	req.Header.Set(HeaderDelivery, p.DeliveryID.String())
	req.Header.Set(HeaderTimestamp, strconv.FormatInt(ts, 10))
	if n.cfg.Secret != "" {
		req.Header.Set(HeaderSignature, Sign(n.cfg.Secret, ts, body))
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	return nil
}
